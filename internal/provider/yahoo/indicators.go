package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"marketgateway/internal/market"
)

// Indicator sub-queries project fixed field subsets out of one
// quoteSummary blob. A field missing upstream is absent from the
// result, never an error.

var fundamentalFields = []string{
	"marketCap", "trailingPE", "forwardPE", "priceToBook",
	"trailingEps", "dividendYield", "returnOnEquity", "profitMargins",
}

var marketDataFields = []string{
	"regularMarketPrice", "dayHigh", "dayLow",
	"fiftyTwoWeekHigh", "fiftyTwoWeekLow", "volume", "averageVolume",
}

var analystFields = []string{
	"targetMeanPrice", "targetHighPrice", "targetLowPrice",
	"recommendationMean", "recommendationKey", "numberOfAnalystOpinions",
}

func (p *Provider) FundamentalIndicators(ctx context.Context, ticker string) (market.Indicators, error) {
	return p.projectSummary(ctx, ticker, fundamentalFields)
}

func (p *Provider) MarketIndicators(ctx context.Context, ticker string) (market.Indicators, error) {
	return p.projectSummary(ctx, ticker, marketDataFields)
}

func (p *Provider) AnalystIndicators(ctx context.Context, ticker string) (market.Indicators, error) {
	return p.projectSummary(ctx, ticker, analystFields)
}

func (p *Provider) projectSummary(ctx context.Context, ticker string, fields []string) (market.Indicators, error) {
	sym := NormalizeTicker(ticker)
	raw, err := p.client.GetJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(sym), map[string]string{
		"modules": "summaryDetail,defaultKeyStatistics,financialData",
	})
	if err != nil {
		return nil, notFoundOrPassthrough(err, sym)
	}

	var body summaryResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, market.Internal(fmt.Errorf("decode quote summary: %w", err))
	}
	if body.QuoteSummary.Error != nil || len(body.QuoteSummary.Result) == 0 {
		return nil, market.NotFound(
			fmt.Sprintf("asset %s not found", sym),
			map[string]any{"ticker": sym},
		)
	}

	res := body.QuoteSummary.Result[0]
	out := make(market.Indicators, len(fields))
	for _, field := range fields {
		if v, ok := lookupField(field, res.SummaryDetail, res.FinancialData, res.DefaultKeyStatistics); ok {
			out[field] = v
		}
	}
	return out, nil
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  any             `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	SummaryDetail        map[string]json.RawMessage `json:"summaryDetail"`
	DefaultKeyStatistics map[string]json.RawMessage `json:"defaultKeyStatistics"`
	FinancialData        map[string]json.RawMessage `json:"financialData"`
}

func lookupField(name string, modules ...map[string]json.RawMessage) (any, bool) {
	for _, m := range modules {
		if raw, ok := m[name]; ok {
			if v, ok := extractValue(raw); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// extractValue unwraps Yahoo's {"raw": n, "fmt": "..."} number objects
// and passes plain numbers and strings through. Empty objects (Yahoo's
// way of omitting a value) count as missing.
func extractValue(raw json.RawMessage) (any, bool) {
	var wrapped struct {
		Raw *json.Number `json:"raw"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Raw != nil {
		if f, err := wrapped.Raw.Float64(); err == nil {
			return f, true
		}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}
	return nil, false
}
