package market

import "time"

// AssetList holds the tickers a provider knows about, split into
// indexes and plain stocks. Slices are never nil so the JSON output
// always carries both arrays.
type AssetList struct {
	Indexes []string `json:"indexes"`
	Stocks  []string `json:"stocks"`
}

// PricePoint is one OHLCV entry of a historical series.
// Upstream data is trusted as-is; high/low consistency is not enforced.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// HistoricalPrice is the normalized historical series for one asset.
// Symbol reflects the ticker actually sent upstream, which may carry a
// market suffix added by normalization.
type HistoricalPrice struct {
	Symbol   string       `json:"symbol"`
	Name     string       `json:"name,omitempty"`
	Currency string       `json:"currency,omitempty"`
	Prices   []PricePoint `json:"prices"`
}

// TimeRange selects the window and granularity of a historical query.
// Range defaults to "1d"; an empty Interval lets the provider pick.
type TimeRange struct {
	Range    string
	Interval string
}

// Indicators is one projected indicator section: a fixed named subset
// of numeric fields. Fields missing upstream are simply absent.
type Indicators map[string]any

// QuoteSummary is one row of a quote listing.
type QuoteSummary struct {
	Stock     string  `json:"stock"`
	Name      string  `json:"name,omitempty"`
	Close     float64 `json:"close"`
	Change    float64 `json:"change"`
	Volume    int64   `json:"volume"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Sector    string  `json:"sector,omitempty"`
}

// QuoteList is the result of a filtered/sorted quote listing.
type QuoteList struct {
	Stocks []QuoteSummary `json:"stocks"`
}

// QuoteQuery filters and sorts a quote listing. Limit <= 0 means the
// upstream default.
type QuoteQuery struct {
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Sector    string
}

// APIError is the machine-readable error half of an envelope.
type APIError struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// APIResponse is the uniform envelope returned by every endpoint.
// Exactly one of Data/Error is populated, per Success.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}
