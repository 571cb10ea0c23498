package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vfxhub/internal/storage"
)

func newStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	fsys, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return NewStore(fsys, "/uploads", maxBytes)
}

func TestUploadDescriptor(t *testing.T) {
	s := newStore(t, 0)
	desc, err := s.Upload(context.Background(), []byte("pixels"), Options{Filename: "comp v2.png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, &Descriptor{
		Success:     true,
		Name:        "comp_v2.png",
		Purpose:     PurposeRecordAttachment,
		ContentType: "image/png",
		Size:        6,
		URL:         "/uploads/comp_v2.png",
	}, desc)

	data, err := s.Read("comp_v2.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)
}

func TestUploadNameCollision(t *testing.T) {
	s := newStore(t, 0)
	first, err := s.Upload(context.Background(), []byte("a"), Options{Filename: "plate.exr"})
	require.NoError(t, err)
	second, err := s.Upload(context.Background(), []byte("b"), Options{Filename: "plate.exr"})
	require.NoError(t, err)

	assert.Equal(t, "plate.exr", first.Name)
	assert.NotEqual(t, first.Name, second.Name)
	assert.True(t, strings.HasSuffix(second.Name, "_plate.exr"))

	data, err := s.Read(first.Name)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)
}

func TestUploadTooLarge(t *testing.T) {
	s := newStore(t, 4)
	_, err := s.Upload(context.Background(), []byte("12345"), Options{Filename: "x.bin"})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploadDataURL(t *testing.T) {
	s := newStore(t, 0)
	desc, err := s.UploadDataURL(context.Background(), "data:image/png;base64,aGVsbG8=", Options{Filename: "gen.png"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", desc.ContentType)
	assert.Equal(t, int64(5), desc.Size)

	_, err = s.UploadDataURL(context.Background(), "not a data url", Options{Filename: "x"})
	assert.Error(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		wantMime string
		wantErr  bool
	}{
		{"data:image/png;base64,aGVsbG8=", "hello", "image/png", false},
		{"data:;base64,aGVsbG8", "hello", "application/octet-stream", false},
		{"data:text/plain;charset=utf-8;base64,aGk=", "hi", "text/plain", false},
		{"data:text/plain,hello", "", "", true},
		{"http://example.com/a.png", "", "", true},
		{"data:image/png;base64", "", "", true},
		{"data:image/png;base64,***", "", "", true},
	}
	for _, tt := range tests {
		data, mime, err := DecodeDataURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, string(data), tt.in)
		assert.Equal(t, tt.wantMime, mime, tt.in)
	}
}

func TestReadRejectsUnsafeNames(t *testing.T) {
	s := newStore(t, 0)
	for _, name := range []string{"", "../secret", "a/b.png", ".hidden"} {
		_, err := s.Read(name)
		assert.ErrorIs(t, err, fs.ErrNotExist, name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "shot_010.exr", SanitizeFilename("shot 010.exr"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "r_sum_.pdf", SanitizeFilename("résumé.pdf"))

	hidden := SanitizeFilename(".env")
	assert.False(t, strings.HasPrefix(hidden, "."))
	assert.True(t, strings.HasSuffix(hidden, "_env"))

	assert.NotEmpty(t, SanitizeFilename(".."))
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "plate.exr", FilenameFromURL("https://cdn.example.com/shots/plate.exr?sig=1", ".bin"))

	name := FilenameFromURL("https://cdn.example.com/download", ".png")
	assert.True(t, strings.HasSuffix(name, ".png"))

	name = FilenameFromURL("https://cdn.example.com/", "")
	assert.True(t, strings.HasSuffix(name, ".bin"))
}

func router(s *Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/uploads/{filename}", s.ServeFile)
	r.Post("/api/uploads", s.HandleUpload)
	r.Get("/api/uploads", s.HandleList)
	return r
}

func TestServeFile(t *testing.T) {
	s := newStore(t, 0)
	_, err := s.Upload(context.Background(), []byte(`{"frames":24}`), Options{Filename: "meta.json"})
	require.NoError(t, err)
	h := router(s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/meta.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"frames":24}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/nope.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	s := newStore(t, 0)
	body, ct := multipartBody(t, "file", "ref board.jpg", []byte("jpegdata"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var desc Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
	assert.Equal(t, "ref_board.jpg", desc.Name)
	assert.Equal(t, "/uploads/ref_board.jpg", desc.URL)
	assert.Equal(t, int64(8), desc.Size)
}

func TestHandleUploadMissingField(t *testing.T) {
	s := newStore(t, 0)
	body, ct := multipartBody(t, "attachment", "a.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUploadTooLarge(t *testing.T) {
	s := newStore(t, 4)
	body, ct := multipartBody(t, "file", "a.bin", []byte("0123456789"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListUploads(t *testing.T) {
	s := newStore(t, 0)
	ctx := context.Background()
	_, err := s.Upload(ctx, []byte("b"), Options{Filename: "shot_020.png"})
	require.NoError(t, err)
	_, err = s.Upload(ctx, []byte("aa"), Options{Filename: "notes.json"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/uploads", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Files []Descriptor `json:"files"`
		Total int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Total)
	assert.Equal(t, "notes.json", body.Files[0].Name)
	assert.Equal(t, "application/json", body.Files[0].ContentType)
	assert.Equal(t, int64(2), body.Files[0].Size)
	assert.Equal(t, "/uploads/shot_020.png", body.Files[1].URL)
	assert.Equal(t, "image/png", body.Files[1].ContentType)
}

func TestListUploadsEmpty(t *testing.T) {
	files, err := newStore(t, 0).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestUploadConcurrentSameName(t *testing.T) {
	s := newStore(t, 0)
	const n = 32
	descs := make([]*Descriptor, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := s.Upload(context.Background(), []byte{byte(i)}, Options{Filename: "image_2026-10-16T15:04:05.123Z.png"})
			assert.NoError(t, err)
			descs[i] = d
		}(i)
	}
	wg.Wait()

	names := make(map[string]bool, n)
	for i, d := range descs {
		require.NotNil(t, d)
		assert.False(t, names[d.Name], "duplicate name %s", d.Name)
		names[d.Name] = true

		data, err := s.Read(d.Name)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, data, "content of %s", d.Name)
	}
	assert.Len(t, names, n)
}
