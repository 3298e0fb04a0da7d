package yahoo_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketgateway/internal/httpx"
	"marketgateway/internal/market"
	"marketgateway/internal/provider/yahoo"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *yahoo.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := httpx.New(httpx.Config{
		BaseURL:      srv.URL,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	return yahoo.New(yahoo.Config{}, client)
}

func TestNormalizeTicker_Idempotent(t *testing.T) {
	t.Parallel()

	require.Equal(t, "PETR4.SA", yahoo.NormalizeTicker("PETR4"))
	require.Equal(t, "PETR4.SA", yahoo.NormalizeTicker("PETR4.SA"))
	require.Equal(t, "PETR4.SA", yahoo.NormalizeTicker(yahoo.NormalizeTicker("PETR4")))
}

func chartBody(timestamps string, quote string) string {
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"currency":"BRL","symbol":"PETR4.SA","longName":"Petrobras"},
		"timestamp":%s,
		"indicators":{"quote":[%s]}}],"error":null}}`, timestamps, quote)
}

func TestHistoricalPrices_AppendsSuffixAndMapsTokens(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v8/finance/chart/PETR4.SA", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "5d", q.Get("range"))
		require.Equal(t, "1h", q.Get("interval"))
		w.Write([]byte(chartBody(
			`[1704153600,1704240000]`,
			`{"open":[37.0,38.0],"high":[38.5,38.6],"low":[36.9,37.8],"close":[38.2,38.4],"volume":[1000,1100]}`,
		)))
	})

	got, err := p.HistoricalPrices(t.Context(), "PETR4", market.TimeRange{Range: "5d", Interval: "1h"})
	require.NoError(t, err)
	require.Equal(t, "PETR4.SA", got.Symbol)
	require.Equal(t, "Petrobras", got.Name)
	require.Equal(t, "BRL", got.Currency)
	require.Len(t, got.Prices, 2)
	require.True(t, got.Prices[0].Date.Before(got.Prices[1].Date), "chronological order")
	require.Equal(t, int64(1100), got.Prices[1].Volume)
}

func TestHistoricalPrices_UnknownTokensFallBackTo1d(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "1d", q.Get("range"))
		require.Equal(t, "1d", q.Get("interval"))
		w.Write([]byte(chartBody(
			`[1704153600]`,
			`{"open":[37.0],"high":[38.5],"low":[36.9],"close":[38.2],"volume":[1000]}`,
		)))
	})

	_, err := p.HistoricalPrices(t.Context(), "PETR4", market.TimeRange{Range: "fortnight", Interval: "2h"})
	require.NoError(t, err)
}

func TestHistoricalPrices_SkipsNullRows(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody(
			`[1704153600,1704240000,1704326400]`,
			`{"open":[37.0,null,39.0],"high":[38.5,38.6,39.5],"low":[36.9,37.8,38.9],"close":[38.2,null,39.2],"volume":[1000,null,1200]}`,
		)))
	})

	got, err := p.HistoricalPrices(t.Context(), "PETR4", market.TimeRange{Range: "5d"})
	require.NoError(t, err)
	require.Len(t, got.Prices, 2)
}

func TestHistoricalPrices_NotFoundCarriesNormalizedTicker(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, http.StatusNotFound)
	})

	_, err := p.HistoricalPrices(t.Context(), "XYZ123", market.TimeRange{Range: "5d"})
	require.True(t, market.Is(err, market.CodeAssetNotFound), "got %v", err)
	require.Equal(t, "XYZ123.SA", market.As(err).Details["ticker"])
}

func TestHistoricalPrices_EmptyHistoryIsNotFound(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"BRL"},"timestamp":[],"indicators":{"quote":[]}}],"error":null}}`))
	})

	_, err := p.HistoricalPrices(t.Context(), "PETR4", market.TimeRange{Range: "1d"})
	require.True(t, market.Is(err, market.CodeAssetNotFound), "got %v", err)
	require.Equal(t, "PETR4.SA", market.As(err).Details["ticker"])
}

func TestHistoricalPrices_AllRowsDroppedIsNotFound(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody(
			`[1704153600,1704240000]`,
			`{"open":[null,null],"high":[null,null],"low":[null,null],"close":[null,null],"volume":[null,null]}`,
		)))
	})

	_, err := p.HistoricalPrices(t.Context(), "PETR4", market.TimeRange{Range: "5d"})
	require.True(t, market.Is(err, market.CodeAssetNotFound), "got %v", err)
	require.Equal(t, "PETR4.SA", market.As(err).Details["ticker"])
}
