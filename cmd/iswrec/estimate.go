package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/iswrec/persistence"
)

func newEstimateCmd(a *app) *cobra.Command {
	var (
		spec     JobSpec
		expected bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Reconstruct one ISW map",
		Long: `Reconstructs the ISW map from the coefficients in --glm using the spectra
of --dataset, and saves the result as glm/iswREC.<maptag>.<rectag>[.<runtag>].isw.

Coefficients are "map", "map/mod" or "map/mod/mask". When --spectra is omitted
the spectra of the coefficient maps are used and the reconstruction is fiducial.`,
		Example: `  iswrec estimate --dataset fiducial --glm glm/sims.run01.isw --coefficients gal --maptag galonly`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			job, err := spec.Job()
			if err != nil {
				return err
			}
			ds, err := a.manager.LoadDataset(ctx, spec.Dataset)
			if err != nil {
				return err
			}
			glms, err := a.manager.LoadStore(ctx, spec.GLM)
			if err != nil {
				return err
			}

			rec := a.reconstructor()
			res, err := rec.Estimate(ctx, ds, glms, job)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "reconstructed %s (%s) from %v\n", res.MapTag, res.RecTag, res.Tags[1:])
			printf(out, "saved %s\n", persistence.StoreName(res.Store))
			for _, s := range res.SkippedSpectra {
				printf(out, "skipped spectrum %s\n", s)
			}
			for _, id := range res.SkippedCoefficients {
				printf(out, "skipped coefficients %s\n", id)
			}

			if expected {
				r, err := rec.ExpectedRho(ds, job)
				if err != nil {
					return err
				}
				printf(out, "expected rho %.6f\n", r)
			}
			return nil
		},
	}

	addJobFlags(cmd, &spec)
	cmd.Flags().BoolVar(&expected, "expected", false, "print the expected rho of the reconstruction")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("glm")
	return cmd
}

func addJobFlags(cmd *cobra.Command, spec *JobSpec) {
	f := cmd.Flags()
	f.StringVar(&spec.Dataset, "dataset", "", "dataset tag, read from cl/<tag>.isw")
	f.StringVar(&spec.GLM, "glm", "", "coefficient file name")
	f.StringSliceVar(&spec.Coefficients, "coefficients", nil, "tracer maps whose coefficients enter the estimate")
	f.StringSliceVar(&spec.Spectra, "spectra", nil, "tags whose spectra build the covariance, one per coefficient map")
	f.StringVar(&spec.MapTag, "maptag", "", "label of the simulated maps (default testmap)")
	f.StringVar(&spec.RecTag, "rectag", "", "label of the reconstruction spectra (default nonfid)")
	f.StringVar(&spec.Target, "target", "", "tag of the reconstructed map (default isw_bin0)")
	f.IntVar(&spec.LMin, "lmin", 0, "lowest reconstructed multipole (default 2)")
	f.IntVar(&spec.LMax, "lmax", 0, "highest reconstructed multipole (default lmax of --glm)")
}
