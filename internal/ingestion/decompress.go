package ingestion

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionZstd
)

func compressionFor(name string) compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return compressionGzip
	case ".zst", ".zstd":
		return compressionZstd
	default:
		return compressionNone
	}
}

// decompressError marks failures inside the compressed framing.
type decompressError struct {
	err error
}

func (e *decompressError) Error() string { return fmt.Sprintf("decompress upload: %v", e.err) }
func (e *decompressError) Unwrap() error { return e.err }

type decodeReader struct {
	r io.Reader
}

func (d decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		var de *decompressError
		if !errors.As(err, &de) {
			err = &decompressError{err: err}
		}
	}
	return n, err
}

// decompress wraps r according to the file extension of name.
func decompress(name string, r io.Reader) (io.Reader, func(), error) {
	switch compressionFor(name) {
	case compressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, &decompressError{err: err}
		}
		return decodeReader{r: zr}, func() { _ = zr.Close() }, nil
	case compressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, &decompressError{err: err}
		}
		return decodeReader{r: zr}, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}
