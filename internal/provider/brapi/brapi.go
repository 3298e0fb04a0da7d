// Package brapi adapts the brapi.dev quote API, the primary source for
// Brazilian market data.
package brapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"marketgateway/internal/httpx"
	"marketgateway/internal/market"
	"marketgateway/internal/provider"
)

type Config struct {
	Name    string
	BaseURL string
}

type Provider struct {
	provider.Unsupported

	cfg    Config
	client *httpx.Client
}

var _ provider.Provider = (*Provider)(nil)

func New(cfg Config, client *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "brapi"
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Close is a no-op; the HTTP client and its connection pool are shared
// across request-scoped instances.
func (p *Provider) Close() error { return nil }

func (p *Provider) AvailableAssets(ctx context.Context, search string) (market.AssetList, error) {
	raw, err := p.client.GetJSON(ctx, "/available", map[string]string{"search": search})
	if err != nil {
		return market.AssetList{}, err
	}

	var body struct {
		Indexes []string `json:"indexes"`
		Stocks  []string `json:"stocks"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return market.AssetList{}, market.Internal(fmt.Errorf("decode available assets: %w", err))
	}

	out := market.AssetList{Indexes: body.Indexes, Stocks: body.Stocks}
	if out.Indexes == nil {
		out.Indexes = []string{}
	}
	if out.Stocks == nil {
		out.Stocks = []string{}
	}
	return out, nil
}

func (p *Provider) HistoricalPrices(ctx context.Context, ticker string, tr market.TimeRange) (market.HistoricalPrice, error) {
	r := tr.Range
	if r == "" {
		r = "1d"
	}
	params := map[string]string{
		"range":       r,
		"interval":    tr.Interval,
		"fundamental": "false",
		"dividends":   "false",
	}

	raw, err := p.client.GetJSON(ctx, "/quote/"+url.PathEscape(ticker), params)
	if err != nil {
		if e := market.As(err); e.Code == market.CodeAssetNotFound {
			return market.HistoricalPrice{}, e.WithDetail("ticker", ticker)
		}
		return market.HistoricalPrice{}, err
	}

	var body struct {
		Results []quoteResult `json:"results"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return market.HistoricalPrice{}, market.Internal(fmt.Errorf("decode quote: %w", err))
	}
	if len(body.Results) == 0 {
		return market.HistoricalPrice{}, market.NotFound(
			fmt.Sprintf("no data available for ticker %s", ticker),
			map[string]any{"ticker": ticker},
		)
	}

	res := body.Results[0]
	symbol := res.Symbol
	if symbol == "" {
		symbol = ticker
	}

	prices := make([]market.PricePoint, 0, len(res.HistoricalDataPrice))
	skipped := 0
	for _, entry := range res.HistoricalDataPrice {
		pt, err := parsePricePoint(entry)
		if err != nil {
			skipped++
			slog.Warn("skipping malformed price point", "ticker", ticker, "error", err)
			continue
		}
		prices = append(prices, pt)
	}
	if skipped > 0 {
		slog.Warn("dropped malformed price points", "ticker", ticker, "dropped", skipped)
	}

	return market.HistoricalPrice{
		Symbol:   symbol,
		Name:     res.LongName,
		Currency: res.Currency,
		Prices:   prices,
	}, nil
}

func (p *Provider) QuoteList(ctx context.Context, q market.QuoteQuery) (market.QuoteList, error) {
	params := map[string]string{
		"search":    q.Search,
		"sortBy":    q.SortBy,
		"sortOrder": q.SortOrder,
		"sector":    q.Sector,
	}
	if q.Limit > 0 {
		params["limit"] = fmt.Sprintf("%d", q.Limit)
	}

	raw, err := p.client.GetJSON(ctx, "/quote/list", params)
	if err != nil {
		return market.QuoteList{}, err
	}

	var body market.QuoteList
	if err := json.Unmarshal(raw, &body); err != nil {
		return market.QuoteList{}, market.Internal(fmt.Errorf("decode quote list: %w", err))
	}
	if len(body.Stocks) == 0 {
		return market.QuoteList{}, market.NoData("no data available", nil)
	}
	return body, nil
}

type quoteResult struct {
	Symbol              string            `json:"symbol"`
	LongName            string            `json:"longName"`
	Currency            string            `json:"currency"`
	HistoricalDataPrice []json.RawMessage `json:"historicalDataPrice"`
}

// rawPricePoint carries the date untyped: brapi returns either UNIX
// epoch seconds or an ISO-8601 string depending on the interval.
type rawPricePoint struct {
	Date   json.RawMessage `json:"date"`
	Open   float64         `json:"open"`
	High   float64         `json:"high"`
	Low    float64         `json:"low"`
	Close  float64         `json:"close"`
	Volume int64           `json:"volume"`
}

func parsePricePoint(raw json.RawMessage) (market.PricePoint, error) {
	var entry rawPricePoint
	if err := json.Unmarshal(raw, &entry); err != nil {
		return market.PricePoint{}, err
	}
	date, err := parseDate(entry.Date)
	if err != nil {
		return market.PricePoint{}, err
	}
	return market.PricePoint{
		Date:   date,
		Open:   entry.Open,
		High:   entry.High,
		Low:    entry.Low,
		Close:  entry.Close,
		Volume: entry.Volume,
	}, nil
}

// parseDate accepts epoch seconds or an ISO-8601 string. Epochs and
// UTC strings normalize to the Z form; other offsets pass through
// unchanged inside the time value.
func parseDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, fmt.Errorf("missing date")
	}
	var epoch int64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("unsupported date value %s", string(raw))
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
