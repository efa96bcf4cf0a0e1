package glm

import (
	"fmt"

	"github.com/FisherMelissa/poissonreg/statmodel"
)

// GLMResults describes the results of a fitted generalized linear model.
type GLMResults struct {
	statmodel.BaseResults

	scale       float64
	deviance    float64
	pearsonChi2 float64
	iterations  int
}

// Scale returns the estimated scale parameter.
func (rslt *GLMResults) Scale() float64 {
	return rslt.scale
}

// Deviance returns the deviance of the fitted model.
func (rslt *GLMResults) Deviance() float64 {
	return rslt.deviance
}

// PearsonChi2 returns the Pearson chi-square statistic of the fitted model.
func (rslt *GLMResults) PearsonChi2() float64 {
	return rslt.pearsonChi2
}

// Iterations returns the number of iterations used by the fitting
// algorithm.
func (rslt *GLMResults) Iterations() int {
	return rslt.iterations
}

// NumObs returns the number of observations used in the fit.
func (rslt *GLMResults) NumObs() int {
	return rslt.Model().NumObs()
}

// DfModel returns the model degrees of freedom, the number of
// parameters not counting the intercept.
func (rslt *GLMResults) DfModel() int {
	return rslt.Model().NumParams() - 1
}

// DfResid returns the residual degrees of freedom.
func (rslt *GLMResults) DfResid() int {
	return rslt.Model().NumObs() - rslt.Model().NumParams()
}

// Mean returns the fitted mean of the response for each observation of
// the data used in the fit.
func (rslt *GLMResults) Mean() []float64 {
	return rslt.GLM().mean(rslt.Params())
}

// GLMSummary summarizes a fitted generalized linear model.
type GLMSummary struct {

	// The GLM
	glm *GLM

	// The results structure
	results *GLMResults

	// Transform the parameters with this function.  If nil, no
	// transformation is applied.  If paramXform is provided, the
	// standard error and Z-score are not shown.
	paramXform func(float64) float64

	// Messages that are appended to the table
	messages []string
}

// Summary returns a summary of the model results, use String to
// display it.
func (rslt *GLMResults) Summary() *GLMSummary {
	return &GLMSummary{
		glm:     rslt.GLM(),
		results: rslt,
	}
}

// SetScale sets the scale on which the parameter results are displayed
// in the summary.  'xf' maps parameters and confidence limits from the
// linear scale to the desired scale, e.g. math.Exp to show rate ratios
// for a log link.  'msg' is appended to the summary table.
func (gs *GLMSummary) SetScale(xf func(float64) float64, msg string) *GLMSummary {
	gs.paramXform = xf
	gs.messages = append(gs.messages, msg)
	return gs
}

// Top returns the model-level values shown above the coefficient table.
func (gs *GLMSummary) Top() []string {
	r := gs.results
	return []string{
		fmt.Sprintf("Dep. Variable:    %s", gs.glm.yname),
		fmt.Sprintf("No. Observations: %d", r.NumObs()),
		fmt.Sprintf("Family:           %s", gs.glm.fam.Name),
		fmt.Sprintf("Df Residuals:     %d", r.DfResid()),
		fmt.Sprintf("Link:             %s", gs.glm.link.Name),
		fmt.Sprintf("Df Model:         %d", r.DfModel()),
		fmt.Sprintf("Variance:         %s", gs.glm.vari.Name),
		fmt.Sprintf("Scale:            %.4f", r.scale),
		fmt.Sprintf("Log-Likelihood:   %.3f", r.LogLike()),
		fmt.Sprintf("Deviance:         %.3f", r.deviance),
		fmt.Sprintf("Pearson chi2:     %.3f", r.pearsonChi2),
		fmt.Sprintf("No. Iterations:   %d", r.iterations),
	}
}

// String returns a string representation of a summary table for the model.
func (gs *GLMSummary) String() string {

	xf := func(x float64) float64 {
		return x
	}
	if gs.paramXform != nil {
		xf = gs.paramXform
	}

	sum := &statmodel.SummaryTable{
		Title: "Generalized linear model analysis",
		Top:   gs.Top(),
		Msg:   gs.messages,
	}

	// String formatter
	fs := func(x interface{}, h string) []string {
		y := x.([]string)
		m := len(h)
		for i := range y {
			if len(y[i]) > m {
				m = len(y[i])
			}
		}
		var z []string
		for i := range y {
			z = append(z, fmt.Sprintf("%-*s", m, y[i]))
		}
		return z
	}

	// Number formatter
	fn := func(x interface{}, h string) []string {
		var s []string
		for _, v := range x.([]float64) {
			s = append(s, fmt.Sprintf("%10.4f", v))
		}
		return s
	}

	r := gs.results
	lcb, ucb := r.ConfInt(0.95)
	var par []float64
	for j, p := range r.Params() {
		par = append(par, xf(p))
		lcb[j] = xf(lcb[j])
		ucb[j] = xf(ucb[j])
	}

	if gs.paramXform == nil {
		sum.ColNames = []string{"Variable", "Parameter", "SE", "Z-score", "P-value", "LCB", "UCB"}
		sum.ColFmt = []statmodel.Fmter{fs, fn, fn, fn, fn, fn, fn}
		sum.Cols = []interface{}{r.Names(), par, r.StdErr(), r.ZScores(), r.PValues(), lcb, ucb}
	} else {
		sum.ColNames = []string{"Variable", "Parameter", "P-value", "LCB", "UCB"}
		sum.ColFmt = []statmodel.Fmter{fs, fn, fn, fn, fn}
		sum.Cols = []interface{}{r.Names(), par, r.PValues(), lcb, ucb}
	}

	return sum.String()
}

// GLM returns the model that produced the results.
func (rslt *GLMResults) GLM() *GLM {
	return rslt.Model().(*GLM)
}
