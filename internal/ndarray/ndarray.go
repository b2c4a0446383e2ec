// Package ndarray implements dense n-dimensional float64 arrays and named
// collections of them. Arrays carry an explicit shape over a flat row-major
// backing slice so numeric payloads round-trip through blob storage without
// reflection. Missing values are represented as NaN.
package ndarray

import (
	"fmt"
	"math"
)

// Array is a dense n-dimensional float64 array in row-major order.
type Array struct {
	shape []int
	data  []float64
}

// New returns a zero-filled array with the given shape. At least one
// dimension is required and dimensions must be non-negative.
func New(shape ...int) (*Array, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("ndarray: need at least one dimension")
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("ndarray: negative dimension %d", d)
		}
		n *= d
	}
	return &Array{
		shape: append([]int(nil), shape...),
		data:  make([]float64, n),
	}, nil
}

// FromData wraps an existing flat slice with the given shape. The slice is
// NOT copied; the element count must match the shape product.
func FromData(data []float64, shape ...int) (*Array, error) {
	a, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(a.data) {
		return nil, fmt.Errorf("ndarray: %d elements do not fit shape %v", len(data), shape)
	}
	a.data = data
	return a, nil
}

// FromSlice1D copies a 1-dimensional slice into a new array.
func FromSlice1D(v []float64) *Array {
	a := &Array{shape: []int{len(v)}, data: make([]float64, len(v))}
	copy(a.data, v)
	return a
}

// FromSlice2D copies a rectangular 2-dimensional slice into a new array.
// Ragged input is rejected.
func FromSlice2D(rows [][]float64) (*Array, error) {
	nr := len(rows)
	nc := 0
	if nr > 0 {
		nc = len(rows[0])
	}
	a, err := New(nr, nc)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != nc {
			return nil, fmt.Errorf("ndarray: row %d has %d elements, want %d", i, len(row), nc)
		}
		copy(a.data[i*nc:(i+1)*nc], row)
	}
	return a, nil
}

// FromSlice3D copies a rectangular 3-dimensional slice into a new array.
func FromSlice3D(v [][][]float64) (*Array, error) {
	n0 := len(v)
	n1, n2 := 0, 0
	if n0 > 0 {
		n1 = len(v[0])
		if n1 > 0 {
			n2 = len(v[0][0])
		}
	}
	a, err := New(n0, n1, n2)
	if err != nil {
		return nil, err
	}
	for i, plane := range v {
		if len(plane) != n1 {
			return nil, fmt.Errorf("ndarray: plane %d has %d rows, want %d", i, len(plane), n1)
		}
		for j, row := range plane {
			if len(row) != n2 {
				return nil, fmt.Errorf("ndarray: row [%d][%d] has %d elements, want %d", i, j, len(row), n2)
			}
			base := (i*n1 + j) * n2
			copy(a.data[base:base+n2], row)
		}
	}
	return a, nil
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Shape returns a copy of the dimension sizes.
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Dim returns the size of dimension i.
func (a *Array) Dim(i int) int { return a.shape[i] }

// Len returns the total element count.
func (a *Array) Len() int { return len(a.data) }

// Data returns the backing slice. Mutating it mutates the array.
func (a *Array) Data() []float64 { return a.data }

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d indices for rank-%d array", len(idx), len(a.shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= a.shape[i] {
			panic(fmt.Sprintf("ndarray: index %d out of range [0,%d) in dimension %d", x, a.shape[i], i))
		}
		off = off*a.shape[i] + x
	}
	return off
}

// At returns the element at the given indices. It panics when the index
// count does not match the rank or an index is out of range.
func (a *Array) At(idx ...int) float64 { return a.data[a.offset(idx)] }

// SetAt stores v at the given indices, with the same panic rules as At.
func (a *Array) SetAt(v float64, idx ...int) { a.data[a.offset(idx)] = v }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	c := &Array{
		shape: append([]int(nil), a.shape...),
		data:  make([]float64, len(a.data)),
	}
	copy(c.data, a.data)
	return c
}

// Equal reports whether b has the same shape and elements. NaN compares
// equal to NaN so fixtures with missing values can be compared.
func (a *Array) Equal(b *Array) bool {
	if b == nil || len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		x, y := a.data[i], b.data[i]
		if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
			return false
		}
	}
	return true
}

// HasNaN reports whether any element is NaN.
func (a *Array) HasNaN() bool {
	for _, v := range a.data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Slice2D returns a copy of a rank-2 array as nested slices.
func (a *Array) Slice2D() ([][]float64, error) {
	if len(a.shape) != 2 {
		return nil, fmt.Errorf("ndarray: rank %d array is not 2-dimensional", len(a.shape))
	}
	nr, nc := a.shape[0], a.shape[1]
	out := make([][]float64, nr)
	for i := range out {
		out[i] = append([]float64(nil), a.data[i*nc:(i+1)*nc]...)
	}
	return out, nil
}

// Slice3D returns a copy of a rank-3 array as nested slices.
func (a *Array) Slice3D() ([][][]float64, error) {
	if len(a.shape) != 3 {
		return nil, fmt.Errorf("ndarray: rank %d array is not 3-dimensional", len(a.shape))
	}
	n0, n1, n2 := a.shape[0], a.shape[1], a.shape[2]
	out := make([][][]float64, n0)
	for i := range out {
		out[i] = make([][]float64, n1)
		for j := range out[i] {
			base := (i*n1 + j) * n2
			out[i][j] = append([]float64(nil), a.data[base:base+n2]...)
		}
	}
	return out, nil
}
