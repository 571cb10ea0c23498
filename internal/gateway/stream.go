package gateway

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ChunkSize is the read size of the data URL encoder. It is a multiple of
// three so every full chunk encodes without padding.
const ChunkSize = 8190

// ErrTooLarge is returned when a stream exceeds the configured limit.
var ErrTooLarge = errors.New("stream exceeds size limit")

// ProgressFunc receives the cumulative number of bytes read.
type ProgressFunc func(read int64)

// EncodeDataURL reads r in ChunkSize pieces and base64-encodes each piece
// into a data:<mimeType>;base64, URL. Reading stops with ErrTooLarge once
// more than limit bytes arrive; a limit of zero or less disables the check.
func EncodeDataURL(r io.Reader, mimeType string, limit int64, progress ProgressFunc) (string, int64, error) {
	var sb strings.Builder
	sb.WriteString("data:")
	sb.WriteString(mimeType)
	sb.WriteString(";base64,")

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	buf := make([]byte, ChunkSize)
	var total int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			total += int64(n)
			if limit > 0 && total > limit {
				return "", total, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
			}
			if _, werr := enc.Write(buf[:n]); werr != nil {
				return "", total, werr
			}
			if progress != nil {
				progress(total)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return "", total, err
		}
	}
	if err := enc.Close(); err != nil {
		return "", total, err
	}
	return sb.String(), total, nil
}
