package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/iswrec"
	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/estimator"
	"github.com/hupe1980/iswrec/glm"
	"github.com/hupe1980/iswrec/persistence"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		jobsPath string
		outTag   string
		runTag   string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run several reconstructions into one coefficient file",
		Long: `Runs every job of a YAML job file and saves the reconstructions side by side,
one map per job, in a single coefficient file labeled with --out-tag.`,
		Example: `  iswrec batch --jobs jobs.yaml --out-tag iswREC.compare`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			jf, err := readJobFile(jobsPath)
			if err != nil {
				return err
			}
			if outTag == "" {
				outTag = jf.Output
			}

			jobs := make([]estimator.Job, len(jf.Jobs))
			for i, js := range jf.Jobs {
				if jobs[i], err = js.Job(); err != nil {
					return fmt.Errorf("job %d: %w", i, err)
				}
			}
			inputs, err := loadInputs(ctx, a.manager, jf)
			if err != nil {
				return err
			}

			var opts []iswrec.Option
			if runTag != "" {
				opts = append(opts, iswrec.WithRunTag(runTag))
			}
			res, err := a.reconstructor(opts...).RunBatch(ctx, inputs, jobs, outTag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "run %s: %d reconstructions\n", res.RunID, len(res.Results))
			for _, r := range res.Results {
				printf(out, "  %s (%s)\n", r.MapTag, r.RecTag)
			}
			printf(out, "saved %s\n", persistence.StoreName(res.Store))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&jobsPath, "jobs", "", "YAML job file")
	f.StringVar(&outTag, "out-tag", "", "file tag of the combined output (default from the job file, else iswREC)")
	f.StringVar(&runTag, "run-tag", "", "run tag of the combined output (default run tag of the first input)")
	_ = cmd.MarkFlagRequired("jobs")
	return cmd
}

// loadInputs reads each distinct dataset and coefficient file once. A job
// file whose jobs share one input yields a single Input.
func loadInputs(ctx context.Context, m *persistence.Manager, jf *JobFile) ([]iswrec.Input, error) {
	datasets := make(map[string]*cldata.Dataset)
	stores := make(map[string]*glm.Store)

	load := func(js JobSpec) (iswrec.Input, error) {
		dsTag, glmName := js.dataset(jf), js.glm(jf)
		ds, ok := datasets[dsTag]
		if !ok {
			var err error
			if ds, err = m.LoadDataset(ctx, dsTag); err != nil {
				return iswrec.Input{}, err
			}
			datasets[dsTag] = ds
		}
		st, ok := stores[glmName]
		if !ok {
			var err error
			if st, err = m.LoadStore(ctx, glmName); err != nil {
				return iswrec.Input{}, err
			}
			stores[glmName] = st
		}
		return iswrec.Input{Dataset: ds, Store: st}, nil
	}

	if jf.sharedInput() {
		in, err := load(jf.Jobs[0])
		if err != nil {
			return nil, err
		}
		return []iswrec.Input{in}, nil
	}

	inputs := make([]iswrec.Input, len(jf.Jobs))
	for i, js := range jf.Jobs {
		in, err := load(js)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		inputs[i] = in
	}
	return inputs, nil
}
