package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/estimator"
	"github.com/hupe1980/iswrec/glm"
)

// JobFile is the YAML document read by the batch command.
//
//	output: iswREC
//	dataset: fiducial
//	glm: glm/sims.run01.isw
//	jobs:
//	  - maptag: galonly
//	    coefficients: [gal, gal/unmod/mask20]
//	  - maptag: noisy
//	    rectag: noisy
//	    dataset: noisy
//	    coefficients: [gal]
//	    spectra: [gal_noisy]
//
// Per-job dataset and glm entries override the top-level ones. A spectra
// entry joining tags with "+" names a map group, e.g. "bin0+bin1".
type JobFile struct {
	Output  string    `yaml:"output"`
	Dataset string    `yaml:"dataset"`
	GLM     string    `yaml:"glm"`
	Jobs    []JobSpec `yaml:"jobs"`
}

// JobSpec describes one reconstruction in a JobFile.
type JobSpec struct {
	MapTag       string   `yaml:"maptag"`
	RecTag       string   `yaml:"rectag"`
	Target       string   `yaml:"target"`
	Coefficients []string `yaml:"coefficients"`
	Spectra      []string `yaml:"spectra"`
	LMin         int      `yaml:"lmin"`
	LMax         int      `yaml:"lmax"`

	Dataset string `yaml:"dataset"`
	GLM     string `yaml:"glm"`
}

func readJobFile(path string) (*JobFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeJobFile(f)
}

func decodeJobFile(r io.Reader) (*JobFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var jf JobFile
	if err := dec.Decode(&jf); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("job file is empty")
		}
		return nil, fmt.Errorf("decoding job file: %w", err)
	}
	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("job file lists no jobs")
	}
	for i, js := range jf.Jobs {
		if js.dataset(&jf) == "" || js.glm(&jf) == "" {
			return nil, fmt.Errorf("job %d: dataset and glm are required", i)
		}
	}
	return &jf, nil
}

func (js JobSpec) dataset(jf *JobFile) string {
	if js.Dataset != "" {
		return js.Dataset
	}
	return jf.Dataset
}

func (js JobSpec) glm(jf *JobFile) string {
	if js.GLM != "" {
		return js.GLM
	}
	return jf.GLM
}

// sharedInput reports whether every job reads the same dataset and glm file.
func (jf *JobFile) sharedInput() bool {
	for _, js := range jf.Jobs {
		if js.dataset(jf) != jf.Jobs[0].dataset(jf) || js.glm(jf) != jf.Jobs[0].glm(jf) {
			return false
		}
	}
	return true
}

// Job converts js into an estimator job.
func (js JobSpec) Job() (estimator.Job, error) {
	coeffs, err := parseMapIDs(js.Coefficients)
	if err != nil {
		return estimator.Job{}, err
	}
	return estimator.Job{
		Coefficients: coeffs,
		Spectra:      parseIdentifiers(js.Spectra),
		MapTag:       js.MapTag,
		RecTag:       js.RecTag,
		Target:       js.Target,
		LMin:         js.LMin,
		LMax:         js.LMax,
	}, nil
}

func parseMapIDs(ss []string) ([]glm.MapID, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]glm.MapID, 0, len(ss))
	for _, s := range ss {
		id, err := glm.ParseMapID(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseIdentifiers(ss []string) []cldata.Identifier {
	if len(ss) == 0 {
		return nil
	}
	out := make([]cldata.Identifier, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if !strings.Contains(s, "+") {
			out = append(out, cldata.Tag(s))
			continue
		}
		out = append(out, cldata.MapGroup{Name: s, BinTags: strings.Split(s, "+")})
	}
	return out
}
