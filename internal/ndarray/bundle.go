package ndarray

import (
	"fmt"
	"sort"
)

// Bundle is a collection of arrays addressed by name. It is the in-memory
// form of a stored node's numeric payload.
type Bundle struct {
	arrays map[string]*Array
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{arrays: make(map[string]*Array)}
}

// SetArray stores a under name, replacing any previous array of that name.
func (b *Bundle) SetArray(name string, a *Array) error {
	if name == "" {
		return fmt.Errorf("ndarray: empty array name")
	}
	if a == nil {
		return fmt.Errorf("ndarray: nil array for %q", name)
	}
	b.arrays[name] = a
	return nil
}

// Array returns the named array, if present.
func (b *Bundle) Array(name string) (*Array, bool) {
	a, ok := b.arrays[name]
	return a, ok
}

// Delete removes the named array. Deleting a missing name is a no-op.
func (b *Bundle) Delete(name string) {
	delete(b.arrays, name)
}

// Names returns the stored array names in sorted order.
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.arrays))
	for name := range b.arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored arrays.
func (b *Bundle) Len() int { return len(b.arrays) }
