package testutil

import (
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/glm"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// GaussianMap returns npix standard normal pixel values.
func (r *RNG) GaussianMap(npix int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, npix)
	for i := range out {
		out[i] = r.rand.NormFloat64()
	}
	return out
}

// GaussianStore returns a store whose coefficients have standard normal real
// and imaginary parts. m = 0 coefficients are real, as for a real-valued map.
func (r *RNG) GaussianStore(lmax, nreal int, maps []glm.MapID) *glm.Store {
	s, err := glm.New(lmax, glm.Range(nreal), maps)
	if err != nil {
		panic(err)
	}
	_, ems := glm.LMValues(lmax)

	r.mu.Lock()
	defer r.mu.Unlock()
	data := s.Data()
	for i := range data {
		lm := i % s.NLM()
		re := r.rand.NormFloat64()
		im := 0.0
		if ems[lm] != 0 {
			im = r.rand.NormFloat64()
		}
		data[i] = complex(re, im)
	}
	return s
}

// ConstantStore returns a store where every coefficient of every map equals v.
func ConstantStore(lmax, nreal int, maps []glm.MapID, v complex128) *glm.Store {
	s, err := glm.New(lmax, glm.Range(nreal), maps)
	if err != nil {
		panic(err)
	}
	data := s.Data()
	for i := range data {
		data[i] = v
	}
	return s
}

// ConstantDataset returns a dataset whose spectra are constant for l >= 1
// and zero at l = 0. Tags are collected from the pair keys in sorted order.
func ConstantDataset(nell int, values map[[2]string]float64) *cldata.Dataset {
	var tags []string
	for pair := range values {
		for _, t := range pair {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)

	ds, err := cldata.New(tags, nell)
	if err != nil {
		panic(err)
	}
	for pair, v := range values {
		cl := make([]float64, nell)
		for l := 1; l < nell; l++ {
			cl[l] = v
		}
		if err := ds.Set(pair[0], pair[1], cl); err != nil {
			panic(err)
		}
	}
	return ds
}

// ClosedFormDataset returns the two-map dataset with C_TT=2, C_AA=4 and
// C_TA=1 for l >= 1, target "isw_bin0" and tracer "a". Its inverse
// covariance is (1/7)[[4,-1],[-1,2]] and the estimate of a constant tracer
// coefficient v is v/4.
func ClosedFormDataset(nell int) *cldata.Dataset {
	return ConstantDataset(nell, map[[2]string]float64{
		{"isw_bin0", "isw_bin0"}: 2,
		{"a", "a"}:               4,
		{"isw_bin0", "a"}:        1,
	})
}
