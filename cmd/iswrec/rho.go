package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/iswrec/estimator"
	"github.com/hupe1980/iswrec/rho"
)

func newRhoCmd(a *app) *cobra.Command {
	var (
		mapdir       string
		map1, map2   string
		nreal        int
		realizations []int
		output       string
		expected     JobSpec
	)

	cmd := &cobra.Command{
		Use:   "rho",
		Short: "Correlate reconstructed maps with the true ISW maps",
		Long: `Computes the pixel-space correlation coefficient between the maps
{mapdir}{map1}.rNNNNN.fits and {mapdir}{map2}.rNNNNN.fits for each realization,
writes the values to {mapdir}{map2}.rho.dat and prints their mean and spread.

With --dataset the expected rho of the reconstruction is printed as well.`,
		Example: `  iswrec rho --mapdir maps/ --map1 isw_bin0.unmod.fullsky --map2 iswREC.galonly.fid.fullsky --nreal 100`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rec := a.reconstructor()
			d, err := rec.Rho(ctx, rho.NewFITSReader(a.store), mapdir, map1, map2, nreal, realizations)
			if err != nil {
				return err
			}

			name := output
			if name == "" {
				name = rho.DataFileName(mapdir, map2)
			}
			if err := rho.WriteData(ctx, a.store, name, d); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			mean, std := d.MeanStd()
			printf(out, "rho %s vs %s over %d realizations: %.6f +/- %.6f\n", map1, map2, len(d.Rho), mean, std)
			printf(out, "saved %s\n", name)

			if expected.Dataset != "" {
				ds, err := a.manager.LoadDataset(ctx, expected.Dataset)
				if err != nil {
					return err
				}
				job, err := expected.Job()
				if err != nil {
					return err
				}
				r, err := rec.ExpectedRho(ds, job)
				if err != nil {
					return err
				}
				printf(out, "expected rho %.6f\n", r)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&mapdir, "mapdir", "", "directory prefix of the map files")
	f.StringVar(&map1, "map1", estimator.DefaultTarget, "file base of the true maps")
	f.StringVar(&map2, "map2", "", "file base of the reconstructed maps")
	f.IntVar(&nreal, "nreal", 0, "number of realizations when --realizations is empty")
	f.IntSliceVar(&realizations, "realizations", nil, "explicit realization numbers")
	f.StringVar(&output, "out", "", "rho data file (default {mapdir}{map2}.rho.dat)")
	f.StringVar(&expected.Dataset, "dataset", "", "dataset tag for the expected rho")
	f.StringSliceVar(&expected.Coefficients, "coefficients", nil, "coefficient maps for the expected rho")
	f.StringSliceVar(&expected.Spectra, "spectra", nil, "spectra tags for the expected rho")
	f.StringVar(&expected.Target, "target", "", "target tag for the expected rho")
	f.IntVar(&expected.LMin, "lmin", 0, "lowest multipole for the expected rho")
	f.IntVar(&expected.LMax, "lmax", 0, "highest multipole for the expected rho")
	_ = cmd.MarkFlagRequired("map2")
	return cmd
}
