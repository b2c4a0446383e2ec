package archive

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/borellim/bandkit/internal/ndarray"
)

func TestArrayBlobRoundtrip(t *testing.T) {
	a, err := ndarray.FromSlice3D([][][]float64{
		{{1, 2}, {3, 4}, {5, 6}},
		{{-1.5, 0.25}, {7, 8}, {9, 10}},
	})
	if err != nil {
		t.Fatalf("FromSlice3D failed: %v", err)
	}

	blob, err := encodeArray(a)
	if err != nil {
		t.Fatalf("encodeArray failed: %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("empty blob")
	}

	got, err := decodeArray(blob)
	if err != nil {
		t.Fatalf("decodeArray failed: %v", err)
	}
	if !got.Equal(a) {
		t.Errorf("roundtrip mismatch: got shape %v, want %v", got.Shape(), a.Shape())
	}
}

func TestDecodeArrayErrors(t *testing.T) {
	if _, err := decodeArray(nil); err == nil || !strings.Contains(err.Error(), "empty array blob") {
		t.Errorf("expected empty blob error, got %v", err)
	}

	if _, err := decodeArray([]byte("not a gzip stream")); err == nil || !strings.Contains(err.Error(), "gzip") {
		t.Errorf("expected gzip error, got %v", err)
	}

	// Valid gzip stream, but not a gob payload.
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte("garbage")); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}
	if _, err := decodeArray(buf.Bytes()); err == nil || !strings.Contains(err.Error(), "decode array") {
		t.Errorf("expected gob decode error, got %v", err)
	}
}
