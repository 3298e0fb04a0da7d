// Package envelope builds the uniform success/error response wrapper.
// Every envelope carries an ISO-8601 timestamp (seconds precision) and
// timezone info for the deployment's reference locale.
package envelope

import (
	"net/http"
	"time"

	"marketgateway/internal/market"
)

const (
	timestampLayout   = "2006-01-02T15:04:05Z"
	referenceZoneName = "America/Sao_Paulo"
)

var referenceZone = loadReferenceZone()

func loadReferenceZone() *time.Location {
	loc, err := time.LoadLocation(referenceZoneName)
	if err != nil {
		// Containers without tzdata still get the right offset; Brazil
		// has not observed DST since 2019.
		return time.FixedZone("-03", -3*3600)
	}
	return loc
}

// Payload is the data half of a success envelope.
type Payload struct {
	Timestamp string         `json:"timestamp"`
	Message   string         `json:"message,omitempty"`
	Content   any            `json:"content,omitempty"`
	Metadata  map[string]any `json:"metadata"`
}

// Success wraps content into a stamped envelope. Caller metadata is
// merged with the derived timezone info.
func Success(content any, message string, metadata map[string]any) market.APIResponse {
	merged := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		merged[k] = v
	}
	merged["timezone"] = timezoneInfo()

	return market.APIResponse{
		Success: true,
		Data: Payload{
			Timestamp: time.Now().UTC().Format(timestampLayout),
			Message:   message,
			Content:   content,
			Metadata:  merged,
		},
	}
}

// Error wraps any error into a stamped error envelope. Foreign errors
// surface as INTERNAL_ERROR.
func Error(err error) market.APIResponse {
	e := market.As(err)

	details := make(map[string]any, len(e.Details)+3)
	details["timestamp"] = time.Now().UTC().Format(timestampLayout)
	for k, v := range e.Details {
		details[k] = v
	}
	details["timezone"] = timezoneInfo()
	details["status_code"] = StatusFor(err)

	return market.APIResponse{
		Success: false,
		Error: &market.APIError{
			Code:    e.Code,
			Message: e.Message,
			Details: details,
		},
	}
}

// statusByCode is the single place error kinds map to HTTP status.
// Upstream non-404 failures deliberately surface as 500, not as the
// upstream's own status.
var statusByCode = map[market.Code]int{
	market.CodeAssetNotFound:         http.StatusNotFound,
	market.CodeNoDataAvailable:       http.StatusNotFound,
	market.CodeInvalidProvider:       http.StatusBadRequest,
	market.CodeUpstreamError:         http.StatusInternalServerError,
	market.CodeTransportError:        http.StatusInternalServerError,
	market.CodeIndicatorsUnavailable: http.StatusInternalServerError,
	market.CodeInternalError:         http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error value.
func StatusFor(err error) int {
	if status, ok := statusByCode[market.As(err).Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func timezoneInfo() map[string]any {
	now := time.Now().In(referenceZone)
	_, offset := now.Zone()
	return map[string]any{
		"name":   referenceZoneName,
		"offset": float64(offset) / 3600.0,
		"is_dst": now.IsDST(),
	}
}
