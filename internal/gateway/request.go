package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const maxRequestBody = 1 << 20

// decodeBody reads a JSON request body. A body that is valid JSON but not
// an object decodes to an empty map, so field checks report the missing
// fields.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, badRequest(msgInvalidJSON)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, badRequest(msgInvalidJSON)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return obj, nil
}

// promptFrom returns the raw prompt when it is a string with non-blank
// content.
func promptFrom(body map[string]any) (string, bool) {
	s, ok := body["prompt"].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func badRequest(msg string) error {
	return &ProviderError{Status: http.StatusBadRequest, Message: msg}
}

func methodAllowed(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return false
	}
	return true
}
