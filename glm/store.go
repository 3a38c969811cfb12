package glm

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrLayoutMismatch is returned when stores with different realization or
	// coefficient layouts are combined.
	ErrLayoutMismatch = errors.New("glm: layout mismatch")

	// ErrInvalidShape is returned when data does not match the declared shape.
	ErrInvalidShape = errors.New("glm: invalid shape")
)

// Store holds coefficients indexed by [realization][map][lm].
type Store struct {
	// Lmax is the maximum multipole stored.
	Lmax int
	// Realizations are the realization ids, one per realization slot.
	Realizations []int
	// Maps identifies the maps along the map axis.
	Maps []MapID
	// RunTag labels the run that produced the coefficients.
	RunTag string
	// FileTags label the files the store is persisted under.
	FileTags []string

	nlm  int
	data []complex128
}

// Range returns the realization ids 0..n-1.
func Range(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// New allocates a zero-filled store.
func New(lmax int, realizations []int, maps []MapID) (*Store, error) {
	if lmax < 0 {
		return nil, fmt.Errorf("%w: negative lmax %d", ErrInvalidShape, lmax)
	}
	nlm := NLM(lmax)
	return &Store{
		Lmax:         lmax,
		Realizations: slices.Clone(realizations),
		Maps:         normalizeAll(maps),
		nlm:          nlm,
		data:         make([]complex128, len(realizations)*len(maps)*nlm),
	}, nil
}

// FromData wraps data laid out as [realization][map][lm]. The slice is not
// copied.
func FromData(lmax int, realizations []int, maps []MapID, data []complex128) (*Store, error) {
	if lmax < 0 {
		return nil, fmt.Errorf("%w: negative lmax %d", ErrInvalidShape, lmax)
	}
	nlm := NLM(lmax)
	if want := len(realizations) * len(maps) * nlm; len(data) != want {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrInvalidShape, want, len(data))
	}
	return &Store{
		Lmax:         lmax,
		Realizations: slices.Clone(realizations),
		Maps:         normalizeAll(maps),
		nlm:          nlm,
		data:         data,
	}, nil
}

func normalizeAll(maps []MapID) []MapID {
	out := make([]MapID, len(maps))
	for i, m := range maps {
		out[i] = m.Normalize()
	}
	return out
}

// NReal returns the number of realizations.
func (s *Store) NReal() int { return len(s.Realizations) }

// NMap returns the number of maps.
func (s *Store) NMap() int { return len(s.Maps) }

// NLM returns the number of coefficients per map.
func (s *Store) NLM() int { return s.nlm }

// Data returns the backing slice, laid out as [realization][map][lm].
func (s *Store) Data() []complex128 { return s.data }

func (s *Store) offset(r, m int) int {
	return (r*len(s.Maps) + m) * s.nlm
}

// At returns the coefficient of realization slot r, map m and flat index lm.
func (s *Store) At(r, m, lm int) complex128 {
	return s.data[s.offset(r, m)+lm]
}

// Set stores the coefficient of realization slot r, map m and flat index lm.
func (s *Store) Set(r, m, lm int, v complex128) {
	s.data[s.offset(r, m)+lm] = v
}

// Row returns the coefficients of one map in one realization. The slice
// aliases the store.
func (s *Store) Row(r, m int) []complex128 {
	off := s.offset(r, m)
	return s.data[off : off+s.nlm : off+s.nlm]
}

// LM returns (l, m) for the flat index idx.
func (s *Store) LM(idx int) (l, m int) {
	// Invert idx = m*(2*lmax+1-m)/2 + l by walking the m-blocks.
	for m = 0; m <= s.Lmax; m++ {
		width := s.Lmax + 1 - m
		if idx < width {
			return idx + m, m
		}
		idx -= width
	}
	return -1, -1
}

// MapIndex returns the map-axis index of id.
func (s *Store) MapIndex(id MapID) (int, bool) {
	id = id.Normalize()
	for i, m := range s.Maps {
		if m == id {
			return i, true
		}
	}
	return -1, false
}

// MapTags returns the map tag of every map, in map-axis order.
func (s *Store) MapTags() []string {
	out := make([]string, len(s.Maps))
	for i, m := range s.Maps {
		out[i] = m.Map
	}
	return out
}

// SameLayout reports whether o has the same realizations and lmax as s.
func (s *Store) SameLayout(o *Store) bool {
	return s.Lmax == o.Lmax && slices.Equal(s.Realizations, o.Realizations)
}

// Concat combines stores along the map axis. All stores must share lmax and
// realization ids. The run tag is taken from the first store.
func Concat(stores ...*Store) (*Store, error) {
	if len(stores) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrInvalidShape)
	}
	first := stores[0]
	var maps []MapID
	var fileTags []string
	for i, st := range stores {
		if !first.SameLayout(st) {
			return nil, fmt.Errorf("%w: store %d has lmax %d and %d realizations, want lmax %d and %d realizations",
				ErrLayoutMismatch, i, st.Lmax, st.NReal(), first.Lmax, first.NReal())
		}
		maps = append(maps, st.Maps...)
		fileTags = append(fileTags, st.FileTags...)
	}

	out, err := New(first.Lmax, first.Realizations, maps)
	if err != nil {
		return nil, err
	}
	out.RunTag = first.RunTag
	out.FileTags = fileTags

	for r := 0; r < out.NReal(); r++ {
		col := 0
		for _, st := range stores {
			for m := 0; m < st.NMap(); m++ {
				copy(out.Row(r, col), st.Row(r, m))
				col++
			}
		}
	}
	return out, nil
}
