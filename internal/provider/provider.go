package provider

import (
	"context"

	"marketgateway/internal/market"
)

// Provider is a pluggable adapter to one external market-data source.
// Every implementation supports asset search and historical prices;
// the remaining capabilities are optional and default to empty results
// via Unsupported.
//
// Instances are request-scoped: the registry builds a fresh one per
// resolved request and guarantees Close on every exit path.
type Provider interface {
	Name() string

	AvailableAssets(ctx context.Context, search string) (market.AssetList, error)
	HistoricalPrices(ctx context.Context, ticker string, tr market.TimeRange) (market.HistoricalPrice, error)
	QuoteList(ctx context.Context, q market.QuoteQuery) (market.QuoteList, error)

	FundamentalIndicators(ctx context.Context, ticker string) (market.Indicators, error)
	MarketIndicators(ctx context.Context, ticker string) (market.Indicators, error)
	AnalystIndicators(ctx context.Context, ticker string) (market.Indicators, error)

	Close() error
}

// Unsupported supplies the default behavior for capabilities a
// provider does not implement: empty results for listing operations,
// NoDataAvailable for indicator queries. Embed it and override what
// the upstream actually offers.
type Unsupported struct{}

func (Unsupported) AvailableAssets(ctx context.Context, search string) (market.AssetList, error) {
	return market.AssetList{Indexes: []string{}, Stocks: []string{}}, nil
}

func (Unsupported) HistoricalPrices(ctx context.Context, ticker string, tr market.TimeRange) (market.HistoricalPrice, error) {
	return market.HistoricalPrice{Symbol: ticker, Prices: []market.PricePoint{}}, nil
}

func (Unsupported) QuoteList(ctx context.Context, q market.QuoteQuery) (market.QuoteList, error) {
	return market.QuoteList{}, market.NoData("quote listing not supported by this provider", nil)
}

func (Unsupported) FundamentalIndicators(ctx context.Context, ticker string) (market.Indicators, error) {
	return nil, market.NoData("indicator data not supported by this provider", nil)
}

func (Unsupported) MarketIndicators(ctx context.Context, ticker string) (market.Indicators, error) {
	return nil, market.NoData("indicator data not supported by this provider", nil)
}

func (Unsupported) AnalystIndicators(ctx context.Context, ticker string) (market.Indicators, error) {
	return nil, market.NoData("indicator data not supported by this provider", nil)
}

func (Unsupported) Close() error { return nil }
