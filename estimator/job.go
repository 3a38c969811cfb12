package estimator

import (
	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/glm"
)

const (
	// DefaultTarget is the tag of the map being reconstructed.
	DefaultTarget = "isw_bin0"
	// DefaultMapTag labels the simulated maps used for a reconstruction.
	DefaultMapTag = "testmap"
	// DefaultRecTag labels a reconstruction with caller-supplied spectra.
	DefaultRecTag = "nonfid"
	// FiducialRecTag labels a reconstruction whose spectra were derived from
	// its coefficient include-list.
	FiducialRecTag = "fid"
	// DefaultLMin skips the monopole and dipole.
	DefaultLMin = 2
	// OutputPrefix is prepended to the map tag of every reconstruction.
	OutputPrefix = "iswREC."
)

// Job describes one reconstruction.
type Job struct {
	// Coefficients are the tracer maps whose coefficients enter the estimate.
	// Empty means every dataset tag except the target.
	Coefficients []glm.MapID
	// Spectra are the tags whose C_l build the covariance, one per entry of
	// Coefficients. Empty means the map tags of Coefficients and marks the
	// job as fiducial.
	Spectra []cldata.Identifier
	// MapTag describes the simulated maps. The output map is OutputPrefix+MapTag.
	MapTag string
	// RecTag describes the spectra used for the reconstruction.
	RecTag string
	// Target is the tag of the reconstructed map.
	Target string
	// LMin is the lowest multipole reconstructed. Zero means DefaultLMin; the
	// monopole is never reconstructed.
	LMin int
	// LMax is the highest multipole reconstructed. Zero means the lmax of the
	// coefficient store.
	LMax int
}

func (j Job) withDefaults() Job {
	if j.MapTag == "" {
		j.MapTag = DefaultMapTag
	}
	if j.RecTag == "" {
		j.RecTag = DefaultRecTag
	}
	if j.Target == "" {
		j.Target = DefaultTarget
	}
	if j.LMin == 0 {
		j.LMin = DefaultLMin
	}
	return j
}

// OutputMapTag returns the map tag of the reconstructed map.
func (j Job) OutputMapTag() string {
	return OutputPrefix + j.withDefaults().MapTag
}

// tracers pairs coefficient maps with spectra tags by position.
type tracers struct {
	Coefficients []glm.MapID
	Spectra      []string
	RecTag       string

	SkippedSpectra      []string
	SkippedCoefficients []glm.MapID
}

// resolve pairs the k-th coefficient map with the k-th spectra tag, after
// map groups in Spectra are expanded to their bin tags. Entries naming the
// target, spectra missing from ds and coefficients missing from store (when
// store is non-nil) are skipped. A skipped entry must be skipped on both
// sides, unless the spectra were derived from the coefficients.
func (j Job) resolve(ds *cldata.Dataset, store *glm.Store) (*tracers, error) {
	coeffs := j.Coefficients
	if len(coeffs) == 0 {
		for _, t := range ds.Tags() {
			if t != j.Target {
				coeffs = append(coeffs, glm.ID(t))
			}
		}
	}

	tr := &tracers{RecTag: j.RecTag}
	derived := len(j.Spectra) == 0

	var spectra []string
	if derived {
		tr.RecTag = FiducialRecTag
		spectra = make([]string, len(coeffs))
		for k, id := range coeffs {
			spectra[k] = id.Map
		}
	} else {
		for _, id := range j.Spectra {
			if id != nil {
				spectra = append(spectra, id.Tags()...)
			}
		}
		if len(spectra) != len(coeffs) {
			return nil, &IncludeMismatchError{Coefficients: len(coeffs), Spectra: len(spectra)}
		}
	}

	paired := make(map[glm.MapID]string, len(coeffs))
	used := make(map[string]struct{}, len(spectra))
	for k := range coeffs {
		c, s := coeffs[k].Normalize(), spectra[k]

		coefOK := c.Map != j.Target
		if coefOK && store != nil {
			if _, ok := store.MapIndex(c); !ok {
				coefOK = false
				tr.SkippedCoefficients = append(tr.SkippedCoefficients, c)
			}
		}
		specOK := s != j.Target
		if specOK && !ds.Has(s) {
			specOK = false
			tr.SkippedSpectra = append(tr.SkippedSpectra, s)
		}

		if !coefOK || !specOK {
			if coefOK == specOK || derived {
				continue
			}
			return nil, &PairingError{Position: k, Coefficient: c, Spectrum: s}
		}

		if prev, dup := paired[c]; dup {
			if prev == s {
				continue
			}
			return nil, &PairingError{Position: k, Coefficient: c, Spectrum: s}
		}
		if _, dup := used[s]; dup {
			return nil, &PairingError{Position: k, Coefficient: c, Spectrum: s}
		}
		paired[c] = s
		used[s] = struct{}{}
		tr.Coefficients = append(tr.Coefficients, c)
		tr.Spectra = append(tr.Spectra, s)
	}

	if len(tr.Coefficients) == 0 {
		return nil, ErrNoTracers
	}
	return tr, nil
}
