package main

import (
	"fmt"
	"io"

	"github.com/FisherMelissa/poissonreg/glm"
	"github.com/FisherMelissa/poissonreg/internal/config"
	"github.com/FisherMelissa/poissonreg/internal/logger"
	"github.com/FisherMelissa/poissonreg/report"
	"github.com/FisherMelissa/poissonreg/simulate"
)

// run simulates the data, fits the Poisson regression and writes the
// report to stdout.  Logs go to stderr, or nowhere if stderr is nil.
func run(cfg *config.Config, stdout, stderr io.Writer) error {

	log := logger.Discard()
	if stderr != nil {
		log = logger.New(stderr, cfg.Verbose)
	}

	// Fail on an unknown format before doing any work.
	w, err := report.NewWriter(cfg.Format, stdout)
	if err != nil {
		return err
	}

	sc := simulate.DefaultConfig()
	sc.N = cfg.N
	sc.Seed = cfg.Seed
	ds, err := simulate.Poisson(sc)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	log.Debug("simulated data", "n", ds.Len(), "seed", ds.Seed)

	gc := glm.DefaultConfig()
	gc.FitMethod = cfg.Method
	gc.MaxIter = cfg.MaxIter
	gc.DevianceTol = cfg.Tol
	gc.Log = log

	data, names := ds.Design()
	model, err := glm.NewGLM(data, names, simulate.ResponseName, simulate.Covariates, gc)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	results, err := model.Fit()
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	r, err := report.Build(ds, results, report.WithPreview(cfg.Preview))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if r.Model.Overdispersed {
		log.Warn("data are overdispersed relative to the Poisson model", "pearson_chi2_df", r.Model.Dispersion)
	}

	return w.Write(r)
}
