package cldata

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownTag is returned when a tag is not part of the dataset.
	ErrUnknownTag = errors.New("cldata: unknown tag")

	// ErrInvalidSpectrum is returned when a spectrum has the wrong length.
	ErrInvalidSpectrum = errors.New("cldata: invalid spectrum length")

	// ErrDuplicateTag is returned when a dataset is created with repeated tags.
	ErrDuplicateTag = errors.New("cldata: duplicate tag")
)

// Dataset is a set of cross-power spectra C_l(tag_i, tag_j), l = 0..NEll-1.
//
// Pairs that were never set are zero at every multipole.
type Dataset struct {
	nell     int
	tags     []string
	tagIndex map[string]int
	flat     []float64
	cl       [][]float64 // [crossIndex][l], views into flat
}

// New creates an empty dataset over the given tags with nell multipoles.
func New(tags []string, nell int) (*Dataset, error) {
	if nell <= 0 {
		return nil, fmt.Errorf("cldata: multipole count must be positive, got %d", nell)
	}

	idx := make(map[string]int, len(tags))
	for i, t := range tags {
		if _, ok := idx[t]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTag, t)
		}
		idx[t] = i
	}

	n := len(tags)
	npairs := n * (n + 1) / 2
	backing := make([]float64, npairs*nell)
	cl := make([][]float64, npairs)
	for p := range cl {
		cl[p] = backing[p*nell : (p+1)*nell : (p+1)*nell]
	}

	return &Dataset{
		nell:     nell,
		tags:     slices.Clone(tags),
		tagIndex: idx,
		flat:     backing,
		cl:       cl,
	}, nil
}

// NEll returns the number of multipoles.
func (d *Dataset) NEll() int { return d.nell }

// Tags returns a copy of the dataset's tags in index order.
func (d *Dataset) Tags() []string { return slices.Clone(d.tags) }

// NumMaps returns the number of tags.
func (d *Dataset) NumMaps() int { return len(d.tags) }

// NumPairs returns the number of unordered pairs, including autos.
func (d *Dataset) NumPairs() int { return len(d.cl) }

// Has reports whether tag is part of the dataset.
func (d *Dataset) Has(tag string) bool {
	_, ok := d.tagIndex[tag]
	return ok
}

// TagIndex returns the map index of tag.
func (d *Dataset) TagIndex(tag string) (int, bool) {
	i, ok := d.tagIndex[tag]
	return i, ok
}

// CrossIndex returns the flat pair index of (i, j). It is symmetric in its
// arguments.
func (d *Dataset) CrossIndex(i, j int) int {
	if i > j {
		i, j = j, i
	}
	n := len(d.tags)
	return i*n - i*(i-1)/2 + (j - i)
}

// Value returns C_l(tag_i, tag_j).
func (d *Dataset) Value(i, j, l int) float64 {
	return d.cl[d.CrossIndex(i, j)][l]
}

// Spectrum returns the C_l values of pair (i, j). The slice aliases the
// dataset and must not be modified.
func (d *Dataset) Spectrum(i, j int) []float64 {
	return d.cl[d.CrossIndex(i, j)]
}

// Set stores the spectrum for the pair (tagA, tagB). The pair is unordered.
func (d *Dataset) Set(tagA, tagB string, cl []float64) error {
	i, ok := d.tagIndex[tagA]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTag, tagA)
	}
	j, ok := d.tagIndex[tagB]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTag, tagB)
	}
	if len(cl) != d.nell {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidSpectrum, d.nell, len(cl))
	}
	copy(d.cl[d.CrossIndex(i, j)], cl)
	return nil
}

// Subset returns a new dataset restricted to tags, in the given order.
// Unknown tags are an error.
func (d *Dataset) Subset(tags []string) (*Dataset, error) {
	out, err := New(tags, d.nell)
	if err != nil {
		return nil, err
	}
	src := make([]int, len(tags))
	for k, t := range tags {
		i, ok := d.tagIndex[t]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTag, t)
		}
		src[k] = i
	}
	for a := range tags {
		for b := a; b < len(tags); b++ {
			copy(out.cl[out.CrossIndex(a, b)], d.Spectrum(src[a], src[b]))
		}
	}
	return out, nil
}

// Flat returns the spectra as one contiguous slice in cross-index order,
// suitable for serialization.
func (d *Dataset) Flat() []float64 {
	return d.flat
}

// FromFlat builds a dataset from tags and a contiguous cross-index ordered
// slice as returned by Flat.
func FromFlat(tags []string, nell int, flat []float64) (*Dataset, error) {
	d, err := New(tags, nell)
	if err != nil {
		return nil, err
	}
	if want := d.NumPairs() * nell; len(flat) != want {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidSpectrum, want, len(flat))
	}
	copy(d.Flat(), flat)
	return d, nil
}
