package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FisherMelissa/poissonreg/internal/config"
)

// DefaultConfigFile is read from the working directory when --config is
// not given.
const DefaultConfigFile = ".poissonreg.yaml"

// flags holds the values of the root command flags.
type flags struct {
	configPath string
	seed       int64
	n          int
	maxIter    int
	tol        float64
	method     string
	format     string
	preview    int
	verbose    bool
}

// NewRootCmd creates the root command, which runs the simulation, the
// fit and the report.
func NewRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "poissonreg",
		Short: "Fit a Poisson regression to simulated count data",
		Long: `poissonreg simulates monthly incident counts whose log mean is linear in a
peer risk score and a parenting style indicator, fits a Poisson GLM by
iteratively reweighted least squares, and prints descriptive statistics
and the coefficient table.

Settings are taken from the flags, then POISSONREG_* environment variables
(a .env file in the working directory is loaded if present), then the YAML
file given with --config (or ` + DefaultConfigFile + `), then the defaults.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, &f)
			if err != nil {
				return err
			}
			return run(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	d := config.Default()
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML configuration file")
	cmd.Flags().Int64Var(&f.seed, "seed", d.Seed, "Random seed of the simulation")
	cmd.Flags().IntVar(&f.n, "n", d.N, "Number of simulated observations")
	cmd.Flags().IntVar(&f.maxIter, "max-iter", d.MaxIter, "Maximum number of IRLS iterations")
	cmd.Flags().Float64Var(&f.tol, "tol", d.Tol, "Deviance convergence tolerance")
	cmd.Flags().StringVar(&f.method, "method", d.Method, "Fitting method: irls|gradient")
	cmd.Flags().StringVar(&f.format, "format", d.Format, "Report format: text|markdown|json")
	cmd.Flags().IntVar(&f.preview, "preview", d.Preview, "Number of observations shown in the data preview")

	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// resolveConfig merges the defaults, the configuration file, the
// environment and the flags that were set explicitly.
func resolveConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.Default()

	switch {
	case f.configPath != "":
		if err := cfg.LoadFile(f.configPath); err != nil {
			return nil, err
		}
	default:
		if err := cfg.LoadFile(DefaultConfigFile); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
			return nil, err
		}
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fl.Changed("n") {
		cfg.N = f.n
	}
	if fl.Changed("max-iter") {
		cfg.MaxIter = f.maxIter
	}
	if fl.Changed("tol") {
		cfg.Tol = f.tol
	}
	if fl.Changed("method") {
		cfg.Method = f.method
	}
	if fl.Changed("format") {
		cfg.Format = f.format
	}
	if fl.Changed("preview") {
		cfg.Preview = f.preview
	}
	if fl.Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
