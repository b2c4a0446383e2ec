package archive

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"

	"github.com/borellim/bandkit/internal/ndarray"
)

// arrayBlob is the on-disk form of one named array: the flat data plus
// the shape needed to rebuild it.
type arrayBlob struct {
	Shape []int
	Data  []float64
}

func encodeArray(a *ndarray.Array) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(arrayBlob{Shape: a.Shape(), Data: a.Data()}); err != nil {
		gz.Close()
		return nil, fmt.Errorf("failed to encode array: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeArray(blob []byte) (*ndarray.Array, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty array blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var ab arrayBlob
	if err := gob.NewDecoder(gz).Decode(&ab); err != nil {
		return nil, fmt.Errorf("failed to decode array: %w", err)
	}
	return ndarray.FromData(ab.Data, ab.Shape...)
}
