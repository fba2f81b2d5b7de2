package table

import (
	"fmt"
	"math/bits"
)

// Mask is a packed per-row boolean with a separate validity bitmap, so a row
// can be true, false or null. Filtering keeps rows that are valid and true.
//
// Invariant: a value bit is only ever set where the validity bit is set, and
// bits past Len() are zero.
type Mask struct {
	n     int
	vals  []uint64
	valid []uint64
}

func words(n int) int {
	return (n + 63) >> 6
}

// NewMask returns an all-false mask of n rows with every row valid.
func NewMask(n int) *Mask {
	m := &Mask{n: n, vals: make([]uint64, words(n)), valid: make([]uint64, words(n))}
	for i := range m.valid {
		m.valid[i] = ^uint64(0)
	}
	m.trim()
	return m
}

// AllTrue returns a mask of n valid true rows.
func AllTrue(n int) *Mask {
	m := NewMask(n)
	copy(m.vals, m.valid)
	return m
}

// MaskFromBools builds a fully valid mask from a bool slice.
func MaskFromBools(bs []bool) *Mask {
	m := NewMask(len(bs))
	for i, b := range bs {
		if b {
			m.Set(i, true)
		}
	}
	return m
}

func (m *Mask) trim() {
	if tail := m.n & 63; tail != 0 {
		last := len(m.valid) - 1
		keep := uint64(1)<<tail - 1
		m.valid[last] &= keep
		m.vals[last] &= keep
	}
}

// Len returns the number of rows.
func (m *Mask) Len() int {
	return m.n
}

// Set stores a valid boolean at row i.
func (m *Mask) Set(i int, v bool) {
	word, bit := i>>6, uint64(1)<<(i&63)
	m.valid[word] |= bit
	if v {
		m.vals[word] |= bit
	} else {
		m.vals[word] &^= bit
	}
}

// SetNull marks row i as null.
func (m *Mask) SetNull(i int) {
	word, bit := i>>6, uint64(1)<<(i&63)
	m.valid[word] &^= bit
	m.vals[word] &^= bit
}

// Get returns the value at row i and whether it is valid (non-null).
func (m *Mask) Get(i int) (value, valid bool) {
	word, shift := i>>6, uint(i&63)
	return (m.vals[word]>>shift)&1 == 1, (m.valid[word]>>shift)&1 == 1
}

// Selected reports whether row i passes a filter.
func (m *Mask) Selected(i int) bool {
	return (m.vals[i>>6]>>(uint(i&63)))&1 == 1
}

// Count returns the number of selected rows.
func (m *Mask) Count() int {
	c := 0
	for _, w := range m.vals {
		c += bits.OnesCount64(w)
	}
	return c
}

// NullCount returns the number of null rows.
func (m *Mask) NullCount() int {
	c := 0
	for _, w := range m.valid {
		c += bits.OnesCount64(w)
	}
	return m.n - c
}

// Bools expands the mask; null rows read as false.
func (m *Mask) Bools() []bool {
	out := make([]bool, m.n)
	for i := range out {
		out[i] = m.Selected(i)
	}
	return out
}

// Indices returns the selected row indices in order.
func (m *Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	for wi, w := range m.vals {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, wi*64+tz)
			w &= w - 1
		}
	}
	return out
}

func (m *Mask) check(o *Mask) error {
	if m.n != o.n {
		return fmt.Errorf("mask length mismatch: %d vs %d", m.n, o.n)
	}
	return nil
}

// And combines two masks with three-valued AND: false wins over null, null
// wins over true.
func (m *Mask) And(o *Mask) (*Mask, error) {
	if err := m.check(o); err != nil {
		return nil, err
	}
	out := &Mask{n: m.n, vals: make([]uint64, len(m.vals)), valid: make([]uint64, len(m.valid))}
	for i := range m.vals {
		aFalse := m.valid[i] &^ m.vals[i]
		bFalse := o.valid[i] &^ o.vals[i]
		out.vals[i] = m.vals[i] & o.vals[i]
		out.valid[i] = (m.valid[i] & o.valid[i]) | aFalse | bFalse
	}
	return out, nil
}

// Or combines two masks with three-valued OR: true wins over null, null wins
// over false.
func (m *Mask) Or(o *Mask) (*Mask, error) {
	if err := m.check(o); err != nil {
		return nil, err
	}
	out := &Mask{n: m.n, vals: make([]uint64, len(m.vals)), valid: make([]uint64, len(m.valid))}
	for i := range m.vals {
		out.vals[i] = m.vals[i] | o.vals[i]
		out.valid[i] = (m.valid[i] & o.valid[i]) | out.vals[i]
	}
	return out, nil
}

// Not inverts every valid row; null rows stay null.
func (m *Mask) Not() *Mask {
	out := &Mask{n: m.n, vals: make([]uint64, len(m.vals)), valid: make([]uint64, len(m.valid))}
	copy(out.valid, m.valid)
	for i := range m.vals {
		out.vals[i] = ^m.vals[i] & m.valid[i]
	}
	return out
}
