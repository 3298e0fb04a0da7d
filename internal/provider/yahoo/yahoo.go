// Package yahoo adapts the Yahoo Finance HTTP API, the secondary quote
// and fundamentals source. Tickers without a market suffix are assumed
// to be Brazilian listings and queried with the B3 ".SA" suffix.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"marketgateway/internal/httpx"
	"marketgateway/internal/market"
	"marketgateway/internal/provider"
)

const marketSuffix = ".SA"

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
		cfg.Name = "yahoo"
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Close() error { return nil }

// NormalizeTicker appends the market suffix unless already present, so
// repeated application is idempotent.
func NormalizeTicker(ticker string) string {
	if strings.HasSuffix(ticker, marketSuffix) {
		return ticker
	}
	return ticker + marketSuffix
}

// rangeMap and intervalMap are the allow-lists of tokens Yahoo accepts;
// anything else falls back to "1d".
var rangeMap = map[string]string{
	"1d": "1d", "5d": "5d", "1mo": "1mo", "3mo": "3mo", "6mo": "6mo",
	"1y": "1y", "2y": "2y", "5y": "5y", "10y": "10y", "ytd": "ytd", "max": "max",
}

var intervalMap = map[string]string{
	"1m": "1m", "5m": "5m", "15m": "15m", "30m": "30m",
	"1h": "1h", "1d": "1d", "1wk": "1wk", "1mo": "1mo",
}

func mapRange(r string) string {
	if v, ok := rangeMap[r]; ok {
		return v
	}
	return "1d"
}

func mapInterval(i string) string {
	if v, ok := intervalMap[i]; ok {
		return v
	}
	return "1d"
}

func (p *Provider) HistoricalPrices(ctx context.Context, ticker string, tr market.TimeRange) (market.HistoricalPrice, error) {
	sym := NormalizeTicker(ticker)
	params := map[string]string{
		"range":          mapRange(tr.Range),
		"interval":       mapInterval(tr.Interval),
		"includePrePost": "false",
	}

	raw, err := p.client.GetJSON(ctx, "/v8/finance/chart/"+url.PathEscape(sym), params)
	if err != nil {
		return market.HistoricalPrice{}, notFoundOrPassthrough(err, sym)
	}

	var body chartResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return market.HistoricalPrice{}, market.Internal(fmt.Errorf("decode chart: %w", err))
	}
	if body.Chart.Error != nil || len(body.Chart.Result) == 0 {
		return market.HistoricalPrice{}, market.NotFound(
			fmt.Sprintf("asset %s not found", sym),
			map[string]any{"ticker": sym},
		)
	}

	res := body.Chart.Result[0]
	// An empty series means the lookup failed for this ticker; it is
	// treated like an unknown asset, not like a thin result set.
	if len(res.Indicators.Quote) == 0 || len(res.Timestamp) == 0 {
		return market.HistoricalPrice{}, market.NotFound(
			fmt.Sprintf("asset %s not found", sym),
			map[string]any{"ticker": sym, "range": params["range"], "interval": params["interval"]},
		)
	}

	quote := res.Indicators.Quote[0]
	prices := make([]market.PricePoint, 0, len(res.Timestamp))
	skipped := 0
	for i, ts := range res.Timestamp {
		pt, ok := quote.point(i, ts)
		if !ok {
			skipped++
			continue
		}
		prices = append(prices, pt)
	}
	if skipped > 0 {
		slog.Warn("dropped incomplete price rows", "ticker", sym, "dropped", skipped)
	}
	if len(prices) == 0 {
		return market.HistoricalPrice{}, market.NotFound(
			fmt.Sprintf("asset %s not found", sym),
			map[string]any{"ticker": sym, "range": params["range"], "interval": params["interval"]},
		)
	}

	name := res.Meta.LongName
	if name == "" {
		name = sym
	}
	return market.HistoricalPrice{
		Symbol:   sym,
		Name:     name,
		Currency: res.Meta.Currency,
		Prices:   prices,
	}, nil
}

// notFoundOrPassthrough rewrites upstream not-found results to carry
// the normalized ticker; transport and server errors pass through.
func notFoundOrPassthrough(err error, sym string) error {
	if e := market.As(err); e.Code == market.CodeAssetNotFound {
		return market.NotFound(fmt.Sprintf("asset %s not found", sym), map[string]any{"ticker": sym})
	}
	return err
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency string `json:"currency"`
		Symbol   string `json:"symbol"`
		LongName string `json:"longName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// chartQuote holds Yahoo's parallel arrays; entries can be null, so
// every field is a pointer slice.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// point assembles row i; rows with any missing OHLC value are dropped.
func (q chartQuote) point(i int, ts int64) (market.PricePoint, bool) {
	at := func(vs []*float64) (float64, bool) {
		if i >= len(vs) || vs[i] == nil {
			return 0, false
		}
		return *vs[i], true
	}
	o, ok1 := at(q.Open)
	h, ok2 := at(q.High)
	l, ok3 := at(q.Low)
	c, ok4 := at(q.Close)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return market.PricePoint{}, false
	}
	var vol int64
	if i < len(q.Volume) && q.Volume[i] != nil {
		vol = *q.Volume[i]
	}
	return market.PricePoint{
		Date:   time.Unix(ts, 0).UTC(),
		Open:   o,
		High:   h,
		Low:    l,
		Close:  c,
		Volume: vol,
	}, true
}
