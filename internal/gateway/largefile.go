package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/starford/vfxhub/internal/metrics"
)

// StatusError reports a non-2xx response from a streamed source.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// ErrBlockedURL is returned for URLs the streamer refuses to fetch.
var ErrBlockedURL = errors.New("blocked url")

// Streamer downloads remote files into data URLs with bounded memory.
type Streamer struct {
	http         *http.Client
	maxBytes     int64
	allowPrivate bool
}

// NewStreamer creates a streamer. Unless allowPrivate is set, loopback,
// private, link-local, unspecified and cloud metadata addresses are
// refused. The check runs on every address actually dialled, so redirects
// and DNS answers cannot route around it.
func NewStreamer(timeout time.Duration, maxBytes int64, allowPrivate bool) *Streamer {
	s := &Streamer{maxBytes: maxBytes, allowPrivate: allowPrivate}

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		dialer.Control = guardDial
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	// A proxy would be the dialled address, hiding the real target.
	transport.Proxy = nil

	s.http = &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return s.checkHost(req.URL.Hostname())
		},
	}
	return s
}

// StreamToDataURL fetches rawURL and encodes the body as
// data:<mimeType>;base64,... progress is called after every chunk with the
// cumulative byte count.
func (s *Streamer) StreamToDataURL(ctx context.Context, rawURL, mimeType string, progress ProgressFunc) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q (only http/https)", ErrBlockedURL, parsed.Scheme)
	}
	if err := s.checkHost(parsed.Hostname()); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	dataURL, n, err := EncodeDataURL(resp.Body, mimeType, s.maxBytes, progress)
	metrics.AddStreamedBytes("url", n)
	if err != nil {
		return "", err
	}
	return dataURL, nil
}

func (s *Streamer) checkHost(host string) error {
	if s.allowPrivate {
		return nil
	}
	return checkBlockedHost(host)
}

// checkBlockedHost rejects metadata host names and literal addresses that
// blockedIP refuses. Names are resolved at dial time and checked by
// guardDial.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("%w: %s", ErrBlockedURL, host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if reason := blockedIP(ip); reason != "" {
			return fmt.Errorf("%w: %s address %s", ErrBlockedURL, reason, host)
		}
	}
	return nil
}

// guardDial is a net.Dialer Control hook that refuses blocked addresses.
func guardDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: unresolved address %s", ErrBlockedURL, host)
	}
	if reason := blockedIP(ip); reason != "" {
		return fmt.Errorf("%w: %s address %s", ErrBlockedURL, reason, host)
	}
	return nil
}

// blockedIP names the class of ip when it must not be fetched, or returns
// "" for public addresses.
func blockedIP(ip net.IP) string {
	switch {
	case ip.Equal(metadataIP):
		return "cloud metadata"
	case ip.IsLoopback():
		return "loopback"
	case ip.IsUnspecified():
		return "unspecified"
	case ip.IsPrivate():
		return "private"
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return "link-local"
	default:
		return ""
	}
}

// AWS/GCP/Azure metadata endpoint.
var metadataIP = net.ParseIP("169.254.169.254")
