package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/iswrec"
	"github.com/hupe1980/iswrec/blobstore"
	"github.com/hupe1980/iswrec/persistence"
	"github.com/hupe1980/iswrec/resource"
)

// app carries the state shared by all subcommands. It is populated in the
// root command's PersistentPreRunE.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg     *Config
	logger  *iswrec.Logger
	store   blobstore.BlobStore
	rc      *resource.Controller
	manager *persistence.Manager
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "iswrec",
		Short: "Reconstruct ISW maps from large-scale structure tracers",
		Long: `iswrec reconstructs the Integrated Sachs-Wolfe temperature signal from
galaxy survey maps with a minimum-variance linear estimator, and measures
how well reconstructions correlate with the true ISW maps.

Datasets (cl/<tag>.isw) and coefficient files (glm/<name>.isw) are read from
and written to the configured blob store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./iswrec.yaml)")
	flags.String("backend", "", "storage backend: local, minio or s3")
	flags.String("root", "", "root directory of the local backend")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Int("workers", 0, "concurrent multipoles and map loads")
	_ = a.v.BindPFlag("storage.backend", flags.Lookup("backend"))
	_ = a.v.BindPFlag("storage.root", flags.Lookup("root"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("workers", flags.Lookup("workers"))

	root.AddCommand(
		newEstimateCmd(a),
		newBatchCmd(a),
		newRhoCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := initViper(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	logger, err := cfg.logger()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg.Storage)
	if err != nil {
		return err
	}
	cd, err := cfg.codec()
	if err != nil {
		return err
	}
	comp, err := persistence.ParseCompression(cfg.Persist.Compression)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.store = store
	a.rc = cfg.resources()
	a.manager = persistence.NewManager(store, persistence.ManagerOptions{
		Codec:       cd,
		Compression: comp,
		Resources:   a.rc,
		Logger:      logger.Logger,
	})

	logger.DebugContext(cmd.Context(), "configured",
		"config", a.v.ConfigFileUsed(),
		"backend", cfg.Storage.Backend,
		"workers", cfg.Workers,
	)
	return nil
}

// reconstructor returns a Reconstructor saving through the app's manager.
func (a *app) reconstructor(extra ...iswrec.Option) *iswrec.Reconstructor {
	opts := []iswrec.Option{
		iswrec.WithLogger(a.logger),
		iswrec.WithWorkers(a.cfg.Workers),
		iswrec.WithPersister(a.manager),
		iswrec.WithResourceController(a.rc),
	}
	return iswrec.New(append(opts, extra...)...)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
