package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vfxhub/internal/metrics"
	"github.com/starford/vfxhub/internal/uploads"
)

// PersistMode controls whether generated files are stored.
type PersistMode string

const (
	PersistDisabled   PersistMode = "disabled"
	PersistBestEffort PersistMode = "best_effort"
	PersistRequired   PersistMode = "required"
)

const (
	maxPromptChars        = 1000
	defaultImageDimension = 1024
	defaultStreamMime     = "application/octet-stream"
	timestampLayout       = "2006-01-02T15:04:05.000Z07:00"
)

// TextGenerator produces text for a validated request.
type TextGenerator interface {
	Generate(ctx context.Context, apiKey string, req TextRequest) (string, json.RawMessage, error)
}

// ImageGenerator renders a prompt to an image data URL.
type ImageGenerator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// FileStreamer downloads a URL into a data URL.
type FileStreamer interface {
	StreamToDataURL(ctx context.Context, rawURL, mimeType string, progress ProgressFunc) (string, error)
}

// Uploader stores a data URL. *uploads.Store implements it.
type Uploader interface {
	UploadDataURL(ctx context.Context, dataURL string, opts uploads.Options) (*uploads.Descriptor, error)
}

// Options wires the gateway's collaborators.
type Options struct {
	Secrets  Secrets
	Text     TextGenerator
	Image    ImageGenerator
	Streamer FileStreamer
	// Uploader may be nil, which disables persistence.
	Uploader Uploader
	Persist  PersistMode
	Logger   *slog.Logger
	Now      func() time.Time
}

// Gateway serves the proxy functions.
type Gateway struct {
	opts Options
}

// New creates a gateway.
func New(opts Options) *Gateway {
	if opts.Secrets == nil {
		opts.Secrets = EnvSecrets{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Persist == "" {
		opts.Persist = PersistBestEffort
	}
	if opts.Uploader == nil {
		opts.Persist = PersistDisabled
	}
	return &Gateway{opts: opts}
}

// Routes mounts the functions. Each function checks the method itself so a
// wrong method still gets an envelope.
func (g *Gateway) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(Recover(g.opts.Logger))
	r.HandleFunc("/openai", g.HandleText)
	r.HandleFunc("/text-to-image", g.HandleImage)
	r.HandleFunc("/upload-large-image", g.HandleLargeFile)
	return r
}

// ImageResult is the data of a successful image generation.
type ImageResult struct {
	Result    *uploads.Descriptor `json:"result"`
	Image     string              `json:"image"`
	Prompt    string              `json:"prompt"`
	Width     any                 `json:"width"`
	Height    any                 `json:"height"`
	Timestamp string              `json:"timestamp"`
}

// StreamResult is the data of a successful large file stream.
type StreamResult struct {
	Result    *uploads.Descriptor `json:"result"`
	DataURL   string              `json:"dataUrl"`
	MimeType  string              `json:"mimeType"`
	Size      int64               `json:"size"`
	Timestamp string              `json:"timestamp"`
}

// GenerateText runs a validated request against the text provider.
func (g *Gateway) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	apiKey := g.opts.Secrets.Secret(SecretOpenAI)
	if apiKey == "" {
		return nil, &ProviderError{Status: http.StatusInternalServerError, Message: msgOpenAIKeyMissing}
	}
	return g.generateText(ctx, apiKey, req)
}

func (g *Gateway) generateText(ctx context.Context, apiKey string, req TextRequest) (*TextResult, error) {
	content, usage, err := g.opts.Text.Generate(ctx, apiKey, req)
	if err != nil {
		return nil, err
	}
	return &TextResult{
		Content:   content,
		Type:      req.Type,
		Model:     req.Model,
		Usage:     usage,
		Timestamp: g.timestamp(),
	}, nil
}

// HandleText handles /functions/openai.
func (g *Gateway) HandleText(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r) {
		return
	}
	apiKey := g.opts.Secrets.Secret(SecretOpenAI)
	if apiKey == "" {
		fail(w, http.StatusInternalServerError, msgOpenAIKeyMissing)
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := ParseTextRequest(body)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := g.generateText(r.Context(), apiKey, req)
	if err != nil {
		g.logFailure("openai", err)
		writeError(w, err)
		return
	}
	succeed(w, res)
}

// HandleImage handles /functions/text-to-image.
func (g *Gateway) HandleImage(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r) {
		return
	}
	apiKey := g.opts.Secrets.Secret(SecretClipdrop)
	if apiKey == "" {
		fail(w, http.StatusInternalServerError, msgClipdropKeyMissing)
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	prompt, ok := promptFrom(body)
	if !ok {
		fail(w, http.StatusBadRequest, msgPromptRequired)
		return
	}
	if utf8.RuneCountInString(prompt) > maxPromptChars {
		fail(w, http.StatusBadRequest, msgPromptTooLong)
		return
	}

	image, err := g.opts.Image.Generate(r.Context(), apiKey, prompt)
	if err != nil {
		g.logFailure("clipdrop", err)
		writeError(w, err)
		return
	}

	ts := g.timestamp()
	desc, err := g.persist(r.Context(), image, uploads.Options{
		Filename:    "image_" + ts + ".png",
		Purpose:     uploads.PurposeRecordAttachment,
		ContentType: "image/png",
	})
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError, Envelope{Success: false, Error: msgImageStore, Details: err.Error()})
		return
	}

	succeed(w, ImageResult{
		Result:    desc,
		Image:     image,
		Prompt:    strings.TrimSpace(prompt),
		Width:     valueOr(body, "width", defaultImageDimension),
		Height:    valueOr(body, "height", defaultImageDimension),
		Timestamp: ts,
	})
}

// HandleLargeFile handles /functions/upload-large-image.
func (g *Gateway) HandleLargeFile(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r) {
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rawURL, ok := body["url"].(string)
	if !ok || strings.TrimSpace(rawURL) == "" {
		fail(w, http.StatusBadRequest, msgURLRequired)
		return
	}
	mimeType := defaultStreamMime
	if v, ok := body["mimeType"]; ok {
		s, isStr := v.(string)
		if !isStr {
			fail(w, http.StatusBadRequest, msgMimeType)
			return
		}
		if s != "" {
			mimeType = s
		}
	}

	var size int64
	nextReport := int64(1 << 20)
	progress := func(read int64) {
		size = read
		if read >= nextReport {
			g.opts.Logger.Debug("streaming file",
				slog.String("url", rawURL),
				slog.Float64("downloaded_mb", float64(read)/(1<<20)))
			nextReport = (read/(1<<20) + 1) << 20
		}
	}

	dataURL, err := g.opts.Streamer.StreamToDataURL(r.Context(), strings.TrimSpace(rawURL), mimeType, progress)
	if err != nil {
		g.logFailure("stream", err)
		writeStreamError(w, err)
		return
	}

	desc, err := g.persist(r.Context(), dataURL, uploads.Options{
		Filename:    uploads.FilenameFromURL(rawURL, extensionFor(mimeType)),
		Purpose:     uploads.PurposeRecordAttachment,
		ContentType: mimeType,
	})
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError, Envelope{Success: false, Error: msgFileStore, Details: err.Error()})
		return
	}

	succeed(w, StreamResult{
		Result:    desc,
		DataURL:   dataURL,
		MimeType:  mimeType,
		Size:      size,
		Timestamp: g.timestamp(),
	})
}

func writeStreamError(w http.ResponseWriter, err error) {
	var se *StatusError
	switch {
	case errors.Is(err, ErrBlockedURL):
		writeEnvelope(w, http.StatusBadRequest, Envelope{Success: false, Error: msgURLRejected, Details: err.Error()})
	case errors.Is(err, ErrTooLarge):
		writeEnvelope(w, http.StatusRequestEntityTooLarge, Envelope{Success: false, Error: msgTooLarge, Details: err.Error()})
	case errors.As(err, &se):
		writeEnvelope(w, http.StatusBadGateway, Envelope{Success: false, Error: msgStreamFailed, Details: err.Error(), StatusCode: se.Code})
	default:
		writeEnvelope(w, http.StatusBadGateway, Envelope{Success: false, Error: msgStreamFailed, Details: err.Error()})
	}
}

// persist stores dataURL according to the persist mode. A nil descriptor
// with a nil error means nothing was stored.
func (g *Gateway) persist(ctx context.Context, dataURL string, opts uploads.Options) (*uploads.Descriptor, error) {
	if g.opts.Persist == PersistDisabled {
		metrics.IncrementImageUpload("skipped")
		return nil, nil
	}
	desc, err := g.opts.Uploader.UploadDataURL(ctx, dataURL, opts)
	if err != nil {
		metrics.IncrementImageUpload("failed")
		if g.opts.Persist == PersistRequired {
			g.opts.Logger.Error("upload failed", slog.String("file", opts.Filename), slog.String("error", err.Error()))
			return nil, err
		}
		g.opts.Logger.Warn("upload failed, continuing without stored copy",
			slog.String("file", opts.Filename), slog.String("error", err.Error()))
		return nil, nil
	}
	metrics.IncrementImageUpload("success")
	return desc, nil
}

func (g *Gateway) logFailure(provider string, err error) {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Status < http.StatusInternalServerError {
		g.opts.Logger.Info("provider request rejected", slog.String("provider", provider), slog.String("error", err.Error()))
		return
	}
	g.opts.Logger.Warn("provider request failed", slog.String("provider", provider), slog.String("error", err.Error()))
}

func (g *Gateway) timestamp() string {
	return g.opts.Now().UTC().Format(timestampLayout)
}

// valueOr returns body[key] as sent, or def when the key is absent.
func valueOr(body map[string]any, key string, def any) any {
	if v, ok := body[key]; ok {
		return v
	}
	return def
}

func extensionFor(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
