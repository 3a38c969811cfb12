package iswrec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/iswrec/blobstore"
	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/estimator"
	"github.com/hupe1980/iswrec/glm"
	"github.com/hupe1980/iswrec/persistence"
	"github.com/hupe1980/iswrec/rho"
	"github.com/hupe1980/iswrec/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingMapMaker struct {
	mu    sync.Mutex
	calls []string
	nside int
	err   error
}

func (m *recordingMapMaker) MakeMaps(_ context.Context, st *glm.Store, nside int, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, persistence.StoreName(st))
	m.nside = nside
	return m.err
}

func TestReconstructor_Estimate(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metrics := &BasicMetricsCollector{}
	maps := &recordingMapMaker{}

	rec := New(
		WithStore(store),
		WithCompression(persistence.CompressionLZ4),
		WithMetricsCollector(metrics),
		WithMapMaker(maps, 64, false),
		WithWorkers(4),
	)

	ds := testutil.ClosedFormDataset(6)
	glms := testutil.ConstantStore(4, 3, glm.IDs("a"), complex(8, -4))

	res, err := rec.Estimate(ctx, ds, glms, estimator.Job{Coefficients: glm.IDs("a")})
	require.NoError(t, err)
	assert.Equal(t, "iswREC.testmap", res.MapTag)
	assert.Equal(t, estimator.FiducialRecTag, res.RecTag)

	for r := 0; r < 3; r++ {
		for lm := 0; lm < res.Store.NLM(); lm++ {
			l, _ := res.Store.LM(lm)
			want := complex(2, -1)
			if l < estimator.DefaultLMin {
				want = 0
			}
			assert.InDelta(t, real(want), real(res.Store.At(r, 0, lm)), 1e-12)
			assert.InDelta(t, imag(want), imag(res.Store.At(r, 0, lm)), 1e-12)
		}
	}

	m := persistence.NewManager(store, persistence.ManagerOptions{})
	names, err := m.ListStores(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"glm/iswREC.testmap.fid.isw"}, names)

	saved, err := m.LoadStore(ctx, names[0])
	require.NoError(t, err)
	assert.Equal(t, res.Store.Data(), saved.Data())
	assert.Equal(t, res.Store.Maps, saved.Maps)

	assert.Equal(t, names, maps.calls)
	assert.Equal(t, 64, maps.nside)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.EstimateCount)
	assert.Equal(t, int64(3), stats.EstimateRealizations)
	assert.Equal(t, int64(1), stats.PersistCount)
	assert.Zero(t, stats.PersistErrors)
}

func TestReconstructor_EstimateWithoutSideEffects(t *testing.T) {
	rec := New()

	res, err := rec.Estimate(context.Background(), testutil.ClosedFormDataset(4), testutil.ConstantStore(2, 1, glm.IDs("a"), 4), estimator.Job{})
	require.NoError(t, err)
	assert.Equal(t, []glm.MapID{{Map: "iswREC.testmap", Mod: "fid", Mask: glm.DefaultMask}}, res.Store.Maps)
}

func TestReconstructor_EstimateErrors(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	rec := New(WithMetricsCollector(metrics))
	ctx := context.Background()

	_, err := rec.Estimate(ctx, nil, testutil.ConstantStore(2, 1, glm.IDs("a"), 1), estimator.Job{})
	assert.ErrorIs(t, err, ErrNilInput)

	_, err = rec.Estimate(ctx, testutil.ClosedFormDataset(4), testutil.ConstantStore(2, 1, glm.IDs("a"), 1), estimator.Job{
		Coefficients: glm.IDs("a"),
		Spectra:      cldata.Tags("a", "b"),
	})
	assert.ErrorIs(t, err, estimator.ErrIncludeMismatch)
	assert.Equal(t, int64(1), metrics.GetStats().EstimateErrors)
}

func TestReconstructor_MapMakerError(t *testing.T) {
	boom := errors.New("boom")
	rec := New(WithMapMaker(&recordingMapMaker{err: boom}, 32, true))

	_, err := rec.Estimate(context.Background(), testutil.ClosedFormDataset(4), testutil.ConstantStore(2, 1, glm.IDs("a"), 1), estimator.Job{})
	assert.ErrorIs(t, err, boom)
}

func TestReconstructor_ExpectedRho(t *testing.T) {
	ds := testutil.ClosedFormDataset(8)
	job := estimator.Job{Coefficients: glm.IDs("a")}

	got, err := New().ExpectedRho(ds, job)
	require.NoError(t, err)

	want, err := estimator.ExpectedRho(ds, job)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

type staticReader map[string][]float64

func (s staticReader) ReadMap(_ context.Context, name string) ([]float64, error) {
	m, ok := s[name]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return m, nil
}

func TestReconstructor_Rho(t *testing.T) {
	rng := testutil.NewRNG(9)
	reader := staticReader{}
	for r := range 3 {
		m := rng.GaussianMap(192)
		reader[rho.FileName("maps/", "isw_bin0", r)] = m
		reader[rho.FileName("maps/", "iswREC.testmap.fid.fullsky", r)] = m
	}

	d, err := New().Rho(context.Background(), reader, "maps/", "isw_bin0", "iswREC.testmap.fid.fullsky", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, d.Realizations)
	for _, v := range d.Rho {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}

type peakReader struct {
	mu             sync.Mutex
	inflight, peak int
}

func (p *peakReader) ReadMap(_ context.Context, _ string) ([]float64, error) {
	p.mu.Lock()
	p.inflight++
	p.peak = max(p.peak, p.inflight)
	p.mu.Unlock()

	time.Sleep(time.Millisecond)

	p.mu.Lock()
	p.inflight--
	p.mu.Unlock()
	return []float64{0, 1, 0, -1}, nil
}

func TestReconstructor_RhoBoundsLoadsByWorkers(t *testing.T) {
	reader := &peakReader{}
	_, err := New(WithWorkers(2)).Rho(context.Background(), reader, "", "a", "b", 40, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, reader.peak, 2)

	reader = &peakReader{}
	_, err = New().Rho(context.Background(), reader, "", "a", "b", 40, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.peak)
}

func TestReconstructor_EstimateErrorLogsDefaultMapTag(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))
	rec := New(WithLogger(logger))

	_, err := rec.Estimate(context.Background(), testutil.ClosedFormDataset(4), testutil.ConstantStore(2, 1, glm.IDs("a"), 1), estimator.Job{
		Coefficients: glm.IDs("a"),
		Spectra:      cldata.Tags("a", "b"),
	})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"maptag":"iswREC.testmap"`)
}
