package rho

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/iswrec/blobstore"
	"github.com/hupe1980/iswrec/resource"
	"github.com/hupe1980/iswrec/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelate(t *testing.T) {
	rng := testutil.NewRNG(11)
	a := rng.GaussianMap(3072)
	b := rng.GaussianMap(3072)

	self, err := Correlate(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, self, 1e-12)

	scaled := make([]float64, len(a))
	neg := make([]float64, len(a))
	for i, v := range a {
		scaled[i] = 3*v + 5
		neg[i] = -v
	}
	r, err := Correlate(a, scaled)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, err = Correlate(a, neg)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)

	r, err = Correlate(a, b)
	require.NoError(t, err)
	assert.LessOrEqual(t, math.Abs(r), 1.0)
	assert.Less(t, math.Abs(r), 0.1)
}

func TestCorrelate_EdgeCases(t *testing.T) {
	_, err := Correlate([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrSizeMismatch)

	r, err := Correlate([]float64{2, 2, 2}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)

	r, err = Correlate(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
}

func TestEvaluator_OneRealMismatch(t *testing.T) {
	e := New(nil)
	assert.Equal(t, 0.0, e.OneReal([]float64{1, 2, 3}, []float64{1, 2}))
	assert.InDelta(t, 1.0, e.OneReal([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "maps/iswREC.testmap.fid.fullsky.r00042.fits", FileName("maps/", "iswREC.testmap.fid.fullsky", 42))
	assert.Equal(t, "maps/isw_bin0.r00000.fits", FileName("maps/", "isw_bin0", 0))
}

func TestRealizations(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, Realizations(3, nil))
	assert.Equal(t, []int{5, 9}, Realizations(3, []int{5, 9}))
	assert.Empty(t, Realizations(0, nil))
}

type mapReader struct {
	mu    sync.Mutex
	maps  map[string][]float64
	reads []string
}

func (m *mapReader) ReadMap(_ context.Context, name string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, name)
	v, ok := m.maps[name]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return v, nil
}

func TestEvaluator_ManyReal(t *testing.T) {
	rng := testutil.NewRNG(5)
	reader := &mapReader{maps: map[string][]float64{}}

	want := make([]float64, 4)
	for r := range 4 {
		truth := rng.GaussianMap(768)
		noise := rng.GaussianMap(768)
		rec := make([]float64, len(truth))
		for i := range truth {
			rec[i] = truth[i] + float64(r)*noise[i]
		}
		reader.maps[FileName("out/", "isw_bin0", r)] = truth
		reader.maps[FileName("out/", "iswREC.testmap.fid.fullsky", r)] = rec

		c, err := Correlate(truth, rec)
		require.NoError(t, err)
		want[r] = c
	}

	e := New(reader, WithResourceController(resource.NewController(resource.Config{MaxWorkers: 3})))
	got, err := e.ManyReal(context.Background(), "out/", "isw_bin0", "iswREC.testmap.fid.fullsky", 4, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.Len(t, reader.reads, 8)

	sub, err := e.ManyReal(context.Background(), "out/", "isw_bin0", "iswREC.testmap.fid.fullsky", 0, []int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{want[3], want[1]}, sub)
}

func TestEvaluator_ManyRealMissingMap(t *testing.T) {
	reader := &mapReader{maps: map[string][]float64{
		FileName("", "a", 0): {1, 2, 3},
		FileName("", "b", 0): {1, 2, 3},
	}}

	_, err := New(reader).ManyReal(context.Background(), "", "a", "b", 2, nil)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestEvaluator_ManyRealCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&mapReader{}).ManyReal(ctx, "", "a", "b", 2, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestData_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	d := &Data{
		Map1:         "isw_bin0",
		Map2:         "iswREC.testmap.fid.fullsky",
		Realizations: []int{0, 1, 7},
		Rho:          []float64{0.91, 0.875, -0.125},
	}
	name := DataFileName("out/", "iswREC.testmap.fid.fullsky")
	assert.Equal(t, "out/iswREC.testmap.fid.fullsky.rho.dat", name)

	require.NoError(t, WriteData(ctx, store, name, d))
	got, err := ReadData(ctx, store, name)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	mean, std := got.MeanStd()
	assert.InDelta(t, (0.91+0.875-0.125)/3, mean, 1e-12)
	assert.Greater(t, std, 0.0)

	_, err = (&Data{Realizations: []int{1}}).Marshal()
	assert.Error(t, err)

	_, err = UnmarshalData([]byte("00001 0.5 extra\n"))
	assert.Error(t, err)
}

func TestDecodeFITS_Invalid(t *testing.T) {
	_, err := DecodeFITS([]byte("SIMPLE = not really a fits file"))
	assert.Error(t, err)
}

func TestAppendPixels(t *testing.T) {
	got, err := appendPixels(nil, reflect.ValueOf([4]float32{1, 2, 3, 4}))
	require.NoError(t, err)
	got, err = appendPixels(got, reflect.ValueOf(float64(5)))
	require.NoError(t, err)
	got, err = appendPixels(got, reflect.ValueOf([]int16{6}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got)

	_, err = appendPixels(nil, reflect.ValueOf("x"))
	assert.Error(t, err)
}

// countingReader records the peak number of concurrent ReadMap calls.
type countingReader struct {
	inflight atomic.Int64
	peak     atomic.Int64
}

func (c *countingReader) ReadMap(ctx context.Context, _ string) ([]float64, error) {
	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []float64{1, 2, 3, 4}, nil
}

func TestEvaluator_ManyRealBoundsLoads(t *testing.T) {
	ctx := context.Background()

	t.Run("default", func(t *testing.T) {
		reader := &countingReader{}
		vals, err := New(reader).ManyReal(ctx, "", "a", "b", 50, nil)
		require.NoError(t, err)
		assert.Len(t, vals, 50)
		assert.Equal(t, int64(1), reader.peak.Load())
	})

	t.Run("nil controller", func(t *testing.T) {
		reader := &countingReader{}
		_, err := New(reader, WithResourceController(nil)).ManyReal(ctx, "", "a", "b", 20, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), reader.peak.Load())
	})

	t.Run("controller", func(t *testing.T) {
		reader := &countingReader{}
		rc := resource.NewController(resource.Config{MaxWorkers: 3})
		_, err := New(reader, WithResourceController(rc)).ManyReal(ctx, "", "a", "b", 50, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, reader.peak.Load(), int64(3))
	})
}
