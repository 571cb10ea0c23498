package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/starford/vfxhub/internal/metrics"
)

const (
	DefaultClipdropBaseURL = "https://clipdrop-api.co"
	clipdropTextToImage    = "/text-to-image/v1"
	maxErrorBody           = 64 << 10
)

// ClipdropClient calls the Clipdrop text-to-image API.
type ClipdropClient struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	maxBytes int64
}

// NewClipdropClient creates a client. Generated images larger than
// maxBytes are rejected.
func NewClipdropClient(baseURL string, timeout time.Duration, maxBytes int64, hc *http.Client) *ClipdropClient {
	if baseURL == "" {
		baseURL = DefaultClipdropBaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &ClipdropClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc, timeout: timeout, maxBytes: maxBytes}
}

// Generate renders prompt and returns the PNG as a data URL. It never
// returns an empty image without an error.
func (c *ClipdropClient) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	if err := mw.WriteField("prompt", prompt); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+clipdropTextToImage, &form)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderCall("clipdrop", "error", time.Since(start))
		return "", &ProviderError{Status: http.StatusBadGateway, Message: msgImageConnect, Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordProviderCall("clipdrop", strconv.Itoa(resp.StatusCode), time.Since(start))
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ProviderError{
			Status:   upstreamStatus(resp.StatusCode),
			Message:  msgImageFailed,
			Details:  string(text),
			Upstream: resp.StatusCode,
		}
	}

	dataURL, n, err := EncodeDataURL(resp.Body, "image/png", c.maxBytes, nil)
	metrics.RecordProviderCall("clipdrop", strconv.Itoa(resp.StatusCode), time.Since(start))
	metrics.AddStreamedBytes("image", n)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return "", &ProviderError{Status: http.StatusBadGateway, Message: msgImageFailed, Details: err.Error()}
		}
		return "", &ProviderError{Status: http.StatusBadGateway, Message: msgImageConnect, Details: err.Error()}
	}
	if n == 0 {
		return "", &ProviderError{Status: http.StatusBadGateway, Message: msgImageEmpty}
	}
	return dataURL, nil
}
