// Package gateway implements the AI proxy functions: text generation over
// OpenAI, text-to-image over Clipdrop and the large file streaming helper.
// Every response, success or failure, is a JSON Envelope.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Envelope is the uniform response body of every function.
type Envelope struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// ProviderError is a failure reported to the caller with a fixed message.
// Status is the HTTP status of the response; Upstream is the provider's
// status code when one was received.
type ProviderError struct {
	Status   int
	Message  string
	Details  string
	Upstream int
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// upstreamStatus maps a provider status code to the status returned to the
// caller. Only rate limiting and auth failures pass through.
func upstreamStatus(code int) int {
	switch code {
	case http.StatusTooManyRequests, http.StatusUnauthorized, http.StatusForbidden:
		return code
	default:
		return http.StatusBadGateway
	}
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: msg})
}

func succeed(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// writeError renders err. A *ProviderError keeps its status and message;
// anything else is an internal error.
func writeError(w http.ResponseWriter, err error) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		writeEnvelope(w, pe.Status, Envelope{
			Success:    false,
			Error:      pe.Message,
			Details:    pe.Details,
			StatusCode: pe.Upstream,
		})
		return
	}
	writeEnvelope(w, http.StatusInternalServerError, Envelope{
		Success: false,
		Error:   msgInternal,
		Details: err.Error(),
	})
}

// Recover turns a panic inside a function into a 500 envelope.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("function panic",
					slog.String("path", r.URL.Path),
					slog.String("error", fmt.Sprint(rec)))
				writeEnvelope(w, http.StatusInternalServerError, Envelope{
					Success: false,
					Error:   msgInternal,
					Details: fmt.Sprint(rec),
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
