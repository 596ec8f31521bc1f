package decoder

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxLineBytes bounds a single decoded log line. Mjai logs carry one
// event object per line, so anything near this size is garbage anyway.
const maxLineBytes = 16 * 1024 * 1024

// DecodeError reports a corrupt or truncated compressed input file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Codec turns a compressed byte stream into its decompressed form.
type Codec interface {
	Name() string
	Reader(r io.Reader) (io.ReadCloser, error)
}

var codecs = map[string]Codec{
	".gz":  gzipCodec{},
	".zst": zstdCodec{},
	".sz":  snappyCodec{},
}

// CodecFor returns the codec registered for the path's extension.
func CodecFor(path string) (Codec, bool) {
	c, ok := codecs[filepath.Ext(path)]
	return c, ok
}

// IsCompressed reports whether the path carries a recognized
// compressed-log extension.
func IsCompressed(path string) bool {
	_, ok := CodecFor(path)
	return ok
}

// gzipCodec handles .gz inputs, the format the game client writes.
type gzipCodec struct{}

func (gzipCodec) Name() string { return "gzip" }

func (gzipCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip reader creation failed: %w", err)
	}
	return zr, nil
}

// zstdCodec handles .zst inputs.
type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }

func (zstdCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader creation failed: %w", err)
	}
	return zr.IOReadCloser(), nil
}

// snappyCodec handles .sz inputs in snappy block format, which is not
// streamable and must be decoded in one piece.
type snappyCodec struct{}

func (snappyCodec) Name() string { return "snappy" }

func (snappyCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snappy read failed: %w", err)
	}
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode failed: %w", err)
	}
	return io.NopCloser(bytes.NewReader(decoded)), nil
}

// LineReader lazily yields the decompressed lines of one input file in
// original order.
type LineReader struct {
	path string
	file *os.File
	body io.ReadCloser
	scan *bufio.Scanner
	line int
	cur  string
	err  error
}

// Open opens the compressed file at path, selecting the codec from the
// file extension. A bad magic header or unknown extension fails here;
// mid-stream corruption surfaces through Err after Next returns false.
func Open(path string) (*LineReader, error) {
	codec, ok := CodecFor(path)
	if !ok {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("unrecognized compressed extension %q", filepath.Ext(path))}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	body, err := codec.Reader(f)
	if err != nil {
		f.Close()
		return nil, &DecodeError{Path: path, Err: err}
	}

	scan := bufio.NewScanner(body)
	scan.Buffer(make([]byte, 64*1024), maxLineBytes)

	return &LineReader{
		path: path,
		file: f,
		body: body,
		scan: scan,
	}, nil
}

// Next advances to the next line. It returns false at end of stream or
// on error; the caller must check Err to tell the two apart.
func (r *LineReader) Next() bool {
	if r.err != nil {
		return false
	}
	if !r.scan.Scan() {
		if err := r.scan.Err(); err != nil {
			r.err = &DecodeError{Path: r.path, Err: err}
		}
		return false
	}
	r.line++
	r.cur = r.scan.Text()
	return true
}

// Line returns the 1-based line number and text of the current line.
func (r *LineReader) Line() (int, string) {
	return r.line, r.cur
}

// Err returns the decode error that stopped iteration, if any.
func (r *LineReader) Err() error {
	return r.err
}

// Close releases the decompressor and the underlying file.
func (r *LineReader) Close() error {
	r.body.Close()
	return r.file.Close()
}
