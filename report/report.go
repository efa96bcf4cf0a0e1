// Package report turns a simulated data set and a fitted Poisson
// regression into a report: a preview of the data, descriptive
// statistics of the response, the fitted coefficients and a short
// conclusion.
//
// The Report value holds the numbers, writers render it as text,
// markdown or JSON.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/FisherMelissa/poissonreg/glm"
	"github.com/FisherMelissa/poissonreg/simulate"
)

// ErrNoData is returned by Build when there is nothing to report on.
var ErrNoData = errors.New("report: no data")

const (
	// DefaultPreview is the number of observations shown in the preview.
	DefaultPreview = 5

	// Alpha is the significance level used in the conclusion.
	Alpha = 0.05

	// OverdispersionRatio is the Pearson chi-square per residual degree
	// of freedom above which the fit is flagged as overdispersed.
	OverdispersionRatio = 1.5
)

// Descriptives are summary statistics of the response.
type Descriptives struct {
	Name     string  `json:"name"`
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Ratio    float64 `json:"variance_mean_ratio"`
}

// ModelInfo holds the model-level results of the fit.
type ModelInfo struct {
	DepVar      string  `json:"dep_variable"`
	NumObs      int     `json:"n_observations"`
	DfResid     int     `json:"df_residuals"`
	DfModel     int     `json:"df_model"`
	Family      string  `json:"family"`
	Link        string  `json:"link"`
	Scale       float64 `json:"scale"`
	LogLike     float64 `json:"log_likelihood"`
	Deviance    float64 `json:"deviance"`
	PearsonChi2 float64 `json:"pearson_chi2"`
	Iterations  int     `json:"iterations"`

	// Dispersion is the Pearson chi-square divided by the residual
	// degrees of freedom, close to 1 when the Poisson variance holds.
	Dispersion    float64 `json:"dispersion"`
	Overdispersed bool    `json:"overdispersed"`
}

// Coefficient is one row of the coefficient table.
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"coef"`
	StdErr   float64 `json:"std_err"`
	Z        float64 `json:"z"`
	P        float64 `json:"p_value"`
	Lower    float64 `json:"ci_lower"`
	Upper    float64 `json:"ci_upper"`
}

// Significant returns true if the coefficient is significant at level
// alpha.
func (c Coefficient) Significant(alpha float64) bool {
	return c.P < alpha
}

// Report is the complete output of one run.
type Report struct {
	Seed         int64                  `json:"seed"`
	Preview      []simulate.Observation `json:"preview"`
	Response     Descriptives           `json:"response"`
	Model        ModelInfo              `json:"model"`
	Coefficients []Coefficient          `json:"coefficients"`
	Significant  []string               `json:"significant"`
	Conclusion   string                 `json:"conclusion"`
}

// Option configures Build.
type Option func(*options)

type options struct {
	preview int
}

// WithPreview sets the number of observations included in the preview.
func WithPreview(k int) Option {
	return func(o *options) {
		o.preview = k
	}
}

// Build assembles the report for the data set and the results of the
// Poisson regression fitted to it.
func Build(ds *simulate.Dataset, results *glm.GLMResults, opts ...Option) (*Report, error) {

	if ds == nil || ds.Len() == 0 {
		return nil, ErrNoData
	}
	if results == nil {
		return nil, fmt.Errorf("%w: missing model results", ErrNoData)
	}

	o := options{preview: DefaultPreview}
	for _, opt := range opts {
		opt(&o)
	}

	desc, err := describe(simulate.ResponseName, ds.Incidents())
	if err != nil {
		return nil, err
	}

	model := results.GLM()
	r := &Report{
		Seed:     ds.Seed,
		Preview:  ds.Head(o.preview),
		Response: desc,
		Model: ModelInfo{
			DepVar:      model.ResponseName(),
			NumObs:      results.NumObs(),
			DfResid:     results.DfResid(),
			DfModel:     results.DfModel(),
			Family:      model.Family().Name,
			Link:        model.Link().Name,
			Scale:       results.Scale(),
			LogLike:     results.LogLike(),
			Deviance:    results.Deviance(),
			PearsonChi2: results.PearsonChi2(),
			Iterations:  results.Iterations(),
		},
	}
	if df := results.DfResid(); df > 0 {
		r.Model.Dispersion = results.PearsonChi2() / float64(df)
	}
	r.Model.Overdispersed = r.Model.Dispersion > OverdispersionRatio

	se := results.StdErr()
	z := results.ZScores()
	pv := results.PValues()
	lcb, ucb := results.ConfInt(0.95)
	if se == nil || lcb == nil {
		return nil, fmt.Errorf("%w: the results have no covariance matrix", ErrNoData)
	}
	for j, na := range results.Names() {
		c := Coefficient{
			Name:     na,
			Estimate: results.Params()[j],
			StdErr:   se[j],
			Z:        z[j],
			P:        pv[j],
			Lower:    lcb[j],
			Upper:    ucb[j],
		}
		r.Coefficients = append(r.Coefficients, c)
		if na != simulate.InterceptName && c.Significant(Alpha) {
			r.Significant = append(r.Significant, na)
		}
	}
	r.Conclusion = conclusion(r.Significant)

	return r, nil
}

// describe computes the descriptive statistics of a response variable.
func describe(name string, y []float64) (Descriptives, error) {

	d := Descriptives{Name: name, N: len(y)}

	var err error
	if d.Mean, err = stats.Mean(y); err != nil {
		return d, fmt.Errorf("report: mean of %s: %w", name, err)
	}
	if d.Min, err = stats.Min(y); err != nil {
		return d, fmt.Errorf("report: minimum of %s: %w", name, err)
	}
	if d.Max, err = stats.Max(y); err != nil {
		return d, fmt.Errorf("report: maximum of %s: %w", name, err)
	}
	if d.Median, err = stats.Median(y); err != nil {
		return d, fmt.Errorf("report: median of %s: %w", name, err)
	}

	// A single observation has no sample variance.
	if len(y) > 1 {
		if d.Variance, err = stats.SampleVariance(y); err != nil {
			return d, fmt.Errorf("report: variance of %s: %w", name, err)
		}
	}

	if d.Mean > 0 {
		d.Ratio = d.Variance / d.Mean
	}

	return d, nil
}

func conclusion(sig []string) string {
	switch len(sig) {
	case 0:
		return fmt.Sprintf("No predictor is significant at the %g level.", Alpha)
	case 1:
		return fmt.Sprintf("%s is significant at the %g level.", sig[0], Alpha)
	default:
		return fmt.Sprintf("%s and %s are significant at the %g level.",
			strings.Join(sig[:len(sig)-1], ", "), sig[len(sig)-1], Alpha)
	}
}
