package decoder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func writeGzip(t *testing.T, path string, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
}

func writeZstd(t *testing.T, path string, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("zstd write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}
}

func writeSnappy(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, snappy.Encode(nil, []byte(content)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readAll(t *testing.T, path string) []string {
	t.Helper()
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	defer r.Close()

	var lines []string
	for r.Next() {
		_, line := r.Line()
		lines = append(lines, line)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err(): %v", err)
	}
	return lines
}

func TestLineReader_AllCodecs(t *testing.T) {
	content := "{\"type\":\"start_game\"}\n{\"type\":\"tsumo\",\"actor\":0}\n{\"type\":\"end_game\"}\n"
	want := []string{
		`{"type":"start_game"}`,
		`{"type":"tsumo","actor":0}`,
		`{"type":"end_game"}`,
	}

	dir := t.TempDir()
	tests := []struct {
		name  string
		path  string
		write func(*testing.T, string, string)
	}{
		{"gzip", filepath.Join(dir, "log.json.gz"), writeGzip},
		{"zstd", filepath.Join(dir, "log.json.zst"), writeZstd},
		{"snappy", filepath.Join(dir, "log.json.sz"), writeSnappy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.write(t, tt.path, content)
			got := readAll(t, tt.path)
			if len(got) != len(want) {
				t.Fatalf("got %d lines, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("line %d = %q, want %q", i+1, got[i], want[i])
				}
			}
		})
	}
}

func TestLineReader_LineNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json.gz")
	writeGzip(t, path, "first\nsecond\n")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	wantLines := []int{1, 2}
	for i := 0; r.Next(); i++ {
		n, _ := r.Line()
		if n != wantLines[i] {
			t.Errorf("line number = %d, want %d", n, wantLines[i])
		}
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err(): %v", err)
	}
}

func TestOpen_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Open() error = %v, want *DecodeError", err)
	}
}

func TestOpen_NotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json.gz")
	if err := os.WriteFile(path, []byte("this is not gzip data"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Open() error = %v, want *DecodeError", err)
	}
	if decodeErr.Path != path {
		t.Errorf("DecodeError.Path = %q, want %q", decodeErr.Path, path)
	}
}

func TestLineReader_TruncatedGzip(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.json.gz")

	// A few KB of lines so truncating at the midpoint leaves a valid
	// header but a torn deflate stream.
	content := ""
	for i := 0; i < 200; i++ {
		content += `{"type":"tsumo","actor":0,"pai":"5m"}` + "\n"
	}
	writeGzip(t, full, content)

	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	truncated := filepath.Join(dir, "truncated.json.gz")
	if err := os.WriteFile(truncated, data[:len(data)/2], 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(truncated)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for r.Next() {
	}
	var decodeErr *DecodeError
	if !errors.As(r.Err(), &decodeErr) {
		t.Fatalf("Err() = %v, want *DecodeError", r.Err())
	}
}

func TestIsCompressed(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.json.gz", true},
		{"a.json.zst", true},
		{"a.json.sz", true},
		{"a.json", false},
		{"a.html", false},
		{"a", false},
	}
	for _, tt := range tests {
		if got := IsCompressed(tt.path); got != tt.want {
			t.Errorf("IsCompressed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
