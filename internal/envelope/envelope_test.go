package envelope

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketgateway/internal/market"
)

func TestSuccess_StampsTimestampAndTimezone(t *testing.T) {
	resp := Success(map[string]any{"symbol": "PETR4.SA"}, "ok", map[string]any{"provider": "yahoo"})

	require.True(t, resp.Success)
	require.Nil(t, resp.Error)

	payload, ok := resp.Data.(Payload)
	require.True(t, ok)

	ts, err := time.Parse("2006-01-02T15:04:05Z", payload.Timestamp)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC(), ts, time.Minute)

	require.Equal(t, "ok", payload.Message)
	require.Equal(t, "yahoo", payload.Metadata["provider"])

	tz, ok := payload.Metadata["timezone"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "America/Sao_Paulo", tz["name"])
	require.IsType(t, float64(0), tz["offset"])
	require.IsType(t, false, tz["is_dst"])
}

func TestError_StampsDetailsAndKeepsCallerDetails(t *testing.T) {
	resp := Error(market.NotFound("asset PETR4.SA not found", map[string]any{"ticker": "PETR4.SA"}))

	require.False(t, resp.Success)
	require.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	require.Equal(t, market.CodeAssetNotFound, resp.Error.Code)
	require.Equal(t, "PETR4.SA", resp.Error.Details["ticker"])
	require.Equal(t, http.StatusNotFound, resp.Error.Details["status_code"])

	_, err := time.Parse("2006-01-02T15:04:05Z", resp.Error.Details["timestamp"].(string))
	require.NoError(t, err)
}

func TestError_ForeignErrorBecomesInternal(t *testing.T) {
	resp := Error(errors.New("boom"))

	require.Equal(t, market.CodeInternalError, resp.Error.Code)
	require.Equal(t, http.StatusInternalServerError, resp.Error.Details["status_code"])
}

func TestStatusFor_LookupTable(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{market.NotFound("x", nil), http.StatusNotFound},
		{market.NoData("x", nil), http.StatusNotFound},
		{market.InvalidProvider("x"), http.StatusBadRequest},
		{market.Upstream(503, "x"), http.StatusInternalServerError},
		{market.Transport(errors.New("x")), http.StatusInternalServerError},
		{market.IndicatorsUnavailable([]string{"fundamentals"}), http.StatusInternalServerError},
		{market.Internal(errors.New("x")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, StatusFor(tc.err), "error %v", tc.err)
	}
}

func TestEnvelope_SerializesExactlyOneOfDataError(t *testing.T) {
	ok, err := json.Marshal(Success(nil, "API is running", nil))
	require.NoError(t, err)
	var okMap map[string]any
	require.NoError(t, json.Unmarshal(ok, &okMap))
	require.Contains(t, okMap, "data")
	require.NotContains(t, okMap, "error")

	bad, err := json.Marshal(Error(market.Internal(errors.New("boom"))))
	require.NoError(t, err)
	var badMap map[string]any
	require.NoError(t, json.Unmarshal(bad, &badMap))
	require.Contains(t, badMap, "error")
	require.NotContains(t, badMap, "data")
}
