package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vfxhub/internal/models"
	"github.com/starford/vfxhub/internal/uploads"
)

// FileStore stores raw file bytes. *uploads.Store implements it.
type FileStore interface {
	Upload(ctx context.Context, data []byte, opts uploads.Options) (*uploads.Descriptor, error)
	Delete(name string) error
}

type importResult struct {
	Asset models.Asset `json:"asset"`
	URL   string       `json:"url"`
}

// importAsset fetches or decodes the file, validates the asset it would
// become, stores the bytes and then creates the record. Nothing is stored
// when validation fails.
func (s *Server) importAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mimeType := req.GetString("mime_type", "")
	filename := req.GetString("filename", "")
	if filename == "" {
		filename = uploads.FilenameFromURL(rawURL, extensionFor(mimeType))
	}
	filename = uploads.SanitizeFilename(filename)

	dataURL := rawURL
	if !strings.HasPrefix(rawURL, "data:") {
		if s.opts.Fetcher == nil {
			return mcp.NewToolResultError("remote URLs are not enabled; pass a data: URL"), nil
		}
		dataURL, err = s.opts.Fetcher.StreamToDataURL(ctx, rawURL, "application/octet-stream", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("download failed: %v", err)), nil
		}
	}
	data, declared, err := uploads.DecodeDataURL(dataURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contentType := detectType(mimeType, declared, filename, data)

	asset := models.Asset{
		FileName:  filename,
		FileType:  contentType,
		FileSize:  int64(len(data)),
		ProjectID: projectRef(req),
		Tags:      splitTags(req.GetString("tags", "")),
	}
	if err := s.studio.ValidateAsset(asset); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	desc, err := s.opts.Files.Upload(ctx, data, uploads.Options{
		Filename:    filename,
		Purpose:     uploads.PurposeRecordAttachment,
		ContentType: contentType,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store file: %v", err)), nil
	}
	asset.FileName = desc.Name
	if strings.HasPrefix(contentType, "image/") {
		url := desc.URL
		asset.ThumbnailURL = &url
	}

	created, err := s.studio.CreateAsset(ctx, asset)
	if err != nil {
		if derr := s.opts.Files.Delete(desc.Name); derr != nil {
			slog.Warn("remove orphaned upload failed", slog.String("name", desc.Name), slog.String("error", derr.Error()))
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(importResult{Asset: created, URL: desc.URL})
}

// detectType picks the first known content type: the explicit argument,
// the type declared in a data URL, the file extension, then the bytes.
func detectType(explicit, declared, filename string, data []byte) string {
	if explicit != "" {
		return explicit
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return strings.Split(t, ";")[0]
	}
	return strings.Split(http.DetectContentType(data), ";")[0]
}

func extensionFor(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

func projectRef(req mcp.CallToolRequest) *int {
	if _, ok := req.GetArguments()["project_id"]; !ok {
		return nil
	}
	id := req.GetInt("project_id", 0)
	return &id
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
