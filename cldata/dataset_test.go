package cldata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataset_CrossIndex(t *testing.T) {
	d, err := New([]string{"a", "b", "c"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, d.NumPairs())

	seen := make(map[int]bool)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			idx := d.CrossIndex(i, j)
			assert.Equal(t, idx, d.CrossIndex(j, i))
			assert.False(t, seen[idx], "index %d reused", idx)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, 6)
}

func TestDataset_SetSymmetric(t *testing.T) {
	d, err := New([]string{"isw", "gal"}, 3)
	require.NoError(t, err)

	require.NoError(t, d.Set("gal", "isw", []float64{0, 1, 2}))

	gi, _ := d.TagIndex("gal")
	ii, _ := d.TagIndex("isw")
	for l := 0; l < 3; l++ {
		assert.Equal(t, d.Value(gi, ii, l), d.Value(ii, gi, l))
	}
	assert.Equal(t, 2.0, d.Value(ii, gi, 2))
	assert.Equal(t, 0.0, d.Value(gi, gi, 2))
}

func TestDataset_Errors(t *testing.T) {
	_, err := New([]string{"a", "a"}, 2)
	require.ErrorIs(t, err, ErrDuplicateTag)

	_, err = New([]string{"a"}, 0)
	require.Error(t, err)

	d, err := New([]string{"a"}, 2)
	require.NoError(t, err)
	require.ErrorIs(t, d.Set("a", "x", []float64{1, 2}), ErrUnknownTag)
	require.ErrorIs(t, d.Set("a", "a", []float64{1}), ErrInvalidSpectrum)
}

func TestDataset_Subset(t *testing.T) {
	d, err := New([]string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	require.NoError(t, d.Set("a", "c", []float64{1, 2}))
	require.NoError(t, d.Set("c", "c", []float64{3, 4}))

	sub, err := d.Subset([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sub.Tags())
	assert.Equal(t, []float64{3, 4}, sub.Spectrum(0, 0))
	assert.Equal(t, []float64{1, 2}, sub.Spectrum(1, 0))

	_, err = d.Subset([]string{"z"})
	require.ErrorIs(t, err, ErrUnknownTag)
}

func TestDataset_FlatRoundTrip(t *testing.T) {
	d, err := New([]string{"a", "b"}, 2)
	require.NoError(t, err)
	require.NoError(t, d.Set("a", "b", []float64{5, 6}))

	back, err := FromFlat(d.Tags(), d.NEll(), d.Flat())
	require.NoError(t, err)
	assert.Equal(t, d.Flat(), back.Flat())

	_, err = FromFlat(d.Tags(), d.NEll(), []float64{1})
	require.ErrorIs(t, err, ErrInvalidSpectrum)
}

func TestDataset_Resolve(t *testing.T) {
	d, err := New([]string{"isw_bin0", "nvss_bin0", "des_bin0", "des_bin1"}, 2)
	require.NoError(t, err)

	tests := []struct {
		name    string
		include []Identifier
		tags    []string
		skipped []string
	}{
		{
			name:    "plain tags",
			include: Tags("nvss_bin0", "des_bin0"),
			tags:    []string{"nvss_bin0", "des_bin0"},
		},
		{
			name:    "group expands",
			include: []Identifier{MapGroup{Name: "des", BinTags: []string{"des_bin0", "des_bin1"}}},
			tags:    []string{"des_bin0", "des_bin1"},
		},
		{
			name:    "bin descriptor",
			include: []Identifier{Bin{Tag: "nvss_bin0", Survey: "nvss", ZMin: 0.01, ZMax: 5}},
			tags:    []string{"nvss_bin0"},
		},
		{
			name: "duplicates and unknown",
			include: []Identifier{
				Tag("des_bin1"),
				MapGroup{Name: "des", BinTags: []string{"des_bin0", "des_bin1", "des_bin2"}},
				Tag("des_bin1"),
			},
			tags:    []string{"des_bin1", "des_bin0"},
			skipped: []string{"des_bin2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Resolve(tt.include)
			if diff := cmp.Diff(tt.tags, res.Tags); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.skipped, res.Skipped); diff != "" {
				t.Errorf("skipped mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
