// Package uploads stores files attached to records, such as generated
// images, and describes them for API responses.
package uploads

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/vfxhub/internal/storage"
)

// PurposeRecordAttachment marks a file attached to a studio record.
const PurposeRecordAttachment = "RecordAttachment"

// maxNameAttempts bounds the uuid-prefixed retries after a name collision.
const maxNameAttempts = 5

// ErrTooLarge is returned for payloads above the store's size limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Options describes a file being stored.
type Options struct {
	Filename    string
	Purpose     string
	ContentType string
}

// Descriptor is returned for every stored file.
type Descriptor struct {
	Success     bool   `json:"success"`
	Name        string `json:"name"`
	Purpose     string `json:"purpose"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// Store writes uploads through a storage.Provider rooted at the uploads
// directory.
type Store struct {
	fs       storage.Provider
	urlBase  string
	maxBytes int64
}

// NewStore creates an upload store. Files are addressed as urlBase+name.
func NewStore(fs storage.Provider, urlBase string, maxBytes int64) *Store {
	if !strings.HasSuffix(urlBase, "/") {
		urlBase += "/"
	}
	return &Store{fs: fs, urlBase: urlBase, maxBytes: maxBytes}
}

// Upload stores data under a sanitized, collision-free name.
func (s *Store) Upload(_ context.Context, data []byte, opts Options) (*Descriptor, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), s.maxBytes)
	}
	base := SanitizeFilename(opts.Filename)
	name := base
	for attempt := 0; ; attempt++ {
		err := s.fs.Create(name, data)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) || attempt == maxNameAttempts {
			return nil, fmt.Errorf("uploads: write %s: %w", name, err)
		}
		name = uuid.New().String()[:8] + "_" + base
	}
	purpose := opts.Purpose
	if purpose == "" {
		purpose = PurposeRecordAttachment
	}
	return &Descriptor{
		Success:     true,
		Name:        name,
		Purpose:     purpose,
		ContentType: opts.ContentType,
		Size:        int64(len(data)),
		URL:         s.urlBase + name,
	}, nil
}

// UploadDataURL decodes a base64 data URL and stores its bytes. The
// content type defaults to the one declared in the URL.
func (s *Store) UploadDataURL(ctx context.Context, dataURL string, opts Options) (*Descriptor, error) {
	data, mime, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	if opts.ContentType == "" {
		opts.ContentType = mime
	}
	return s.Upload(ctx, data, opts)
}

// Read returns a stored file by name.
func (s *Store) Read(name string) ([]byte, error) {
	if name == "" || name != SanitizeFilename(name) {
		return nil, fmt.Errorf("uploads: invalid name %q: %w", name, fs.ErrNotExist)
	}
	return s.fs.Read(name)
}

// Delete removes a stored file by name.
func (s *Store) Delete(name string) error {
	if name == "" || name != SanitizeFilename(name) {
		return fmt.Errorf("uploads: invalid name %q: %w", name, fs.ErrNotExist)
	}
	return s.fs.Delete(name)
}

// List describes every stored file, ordered by name.
func (s *Store) List(_ context.Context) ([]Descriptor, error) {
	files, err := s.fs.List("", "")
	if err != nil {
		return nil, fmt.Errorf("uploads: list: %w", err)
	}
	out := make([]Descriptor, 0, len(files))
	for _, f := range files {
		out = append(out, Descriptor{
			Success:     true,
			Name:        f.Path,
			Purpose:     PurposeRecordAttachment,
			ContentType: mime.TypeByExtension(path.Ext(f.Path)),
			Size:        f.Size,
			URL:         s.urlBase + f.Path,
		})
	}
	slices.SortFunc(out, func(a, b Descriptor) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// DecodeDataURL parses a data:[<mediatype>][;base64],<data> URL.
func DecodeDataURL(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("invalid data URL: missing data: scheme")
	}
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URL: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URLs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if mime == "" {
		mime = "application/octet-stream"
	}
	return data, mime, nil
}
