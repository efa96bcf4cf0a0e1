// Package statmodel holds the pieces shared by regression models:
// parameter values, fitted results and the plain-text summary table.
package statmodel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// HessType indicates the type of a Hessian matrix for a log-likelihood.
type HessType int

// ObsHess (observed Hessian) and ExpHess (expected Hessian) are the two types
// of log-likelihood Hessian matrices.
const (
	ObsHess HessType = iota
	ExpHess
)

// ErrSingularHessian is returned when the Hessian cannot be inverted to
// obtain the sampling covariance of the estimates.
var ErrSingularHessian = errors.New("statmodel: hessian is singular")

// Parameter is the parameter of a model.
type Parameter interface {

	// GetCoeff returns the coefficients of the covariates in the
	// linear predictor.  The returned slice is a reference, changes to
	// it change the parameter.
	GetCoeff() []float64

	// SetCoeff sets the coefficients of the covariates in the linear
	// predictor.
	SetCoeff([]float64)

	// Clone creates a deep copy of the parameter.
	Clone() Parameter
}

// RegFitter is a regression model that can be fit to data.
type RegFitter interface {

	// Number of parameters in the model.
	NumParams() int

	// Number of observations in the data set.
	NumObs() int

	// Positions of the covariates in Dataset.
	Xpos() []int

	// Dataset returns the columns of the data.
	Dataset() [][]float64

	// The log-likelihood function.  If the flag is false, terms that
	// do not depend on the parameters may be omitted.
	LogLike(Parameter, bool) float64

	// The score vector.
	Score(Parameter, []float64)

	// The Hessian matrix, vectorized in row-major order.
	Hessian(Parameter, HessType, []float64)
}

// BaseResults contains the results after fitting a model to data.
type BaseResults struct {
	model   RegFitter
	loglike float64
	params  []float64
	xnames  []string
	vcov    []float64
	stderr  []float64
	zscores []float64
	pvalues []float64
}

// NewBaseResults returns a BaseResults corresponding to the given fitted model.
func NewBaseResults(model RegFitter, loglike float64, params []float64, xnames []string, vcov []float64) BaseResults {
	return BaseResults{
		model:   model,
		loglike: loglike,
		params:  params,
		xnames:  xnames,
		vcov:    vcov,
	}
}

// Model produces the model value used to produce the results.
func (rslt *BaseResults) Model() RegFitter {
	return rslt.model
}

// FittedValues returns the fitted linear predictor.  If da is nil the
// data used to fit the model are used, otherwise da must have the same
// column layout as the training data.
func (rslt *BaseResults) FittedValues(da [][]float64) ([]float64, error) {

	train := rslt.model.Dataset()
	if da == nil {
		da = train
	}

	if len(da) != len(train) {
		return nil, fmt.Errorf("statmodel: data has %d columns, model was fit with %d", len(da), len(train))
	}

	xpos := rslt.model.Xpos()
	n := len(da[xpos[0]])
	fv := make([]float64, n)
	for k, j := range xpos {
		z := da[j]
		if len(z) != n {
			return nil, fmt.Errorf("statmodel: column %d has length %d, expected %d", j, len(z), n)
		}
		for i := range z {
			fv[i] += rslt.params[k] * z[i]
		}
	}

	return fv, nil
}

// Names returns the covariate names for the variables in the model.
func (rslt *BaseResults) Names() []string {
	return rslt.xnames
}

// Params returns the point estimates for the parameters in the model.
func (rslt *BaseResults) Params() []float64 {
	return rslt.params
}

// VCov returns the sampling variance/covariance matrix for the parameters,
// vectorized in row-major order.
func (rslt *BaseResults) VCov() []float64 {
	return rslt.vcov
}

// LogLike returns the log-likelihood value for the fitted model.
func (rslt *BaseResults) LogLike() float64 {
	return rslt.loglike
}

// StdErr returns the standard errors for the parameters in the model.
func (rslt *BaseResults) StdErr() []float64 {

	// No vcov, no standard error
	if rslt.vcov == nil {
		return nil
	}
	if rslt.stderr != nil {
		return rslt.stderr
	}

	p := len(rslt.params)
	rslt.stderr = make([]float64, p)
	for i := range rslt.stderr {
		rslt.stderr[i] = math.Sqrt(rslt.vcov[i*p+i])
	}

	return rslt.stderr
}

// ZScores returns the Z-scores (the parameter estimates divided by the
// standard errors).
func (rslt *BaseResults) ZScores() []float64 {

	std := rslt.StdErr()
	if std == nil {
		return nil
	}
	if rslt.zscores != nil {
		return rslt.zscores
	}

	rslt.zscores = make([]float64, len(std))
	for i := range std {
		rslt.zscores[i] = rslt.params[i] / std[i]
	}

	return rslt.zscores
}

// PValues returns two-sided p-values for the null hypothesis that each
// parameter's population value is equal to zero.
func (rslt *BaseResults) PValues() []float64 {

	zs := rslt.ZScores()
	if zs == nil {
		return nil
	}
	if rslt.pvalues != nil {
		return rslt.pvalues
	}

	rslt.pvalues = make([]float64, len(zs))
	for i, z := range zs {
		rslt.pvalues[i] = 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	}

	return rslt.pvalues
}

// ConfInt returns Wald confidence limits for the parameters at the given
// coverage level, e.g. 0.95.
func (rslt *BaseResults) ConfInt(level float64) (lcb, ucb []float64) {

	std := rslt.StdErr()
	if std == nil {
		return nil, nil
	}

	q := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	lcb = make([]float64, len(std))
	ucb = make([]float64, len(std))
	for i, s := range std {
		lcb[i] = rslt.params[i] - q*s
		ucb[i] = rslt.params[i] + q*s
	}

	return lcb, ucb
}

// GetVcov returns the sampling variance/covariance matrix for the
// parameter estimates, the inverse of the negative expected Hessian.
func GetVcov(model RegFitter, params Parameter) ([]float64, error) {

	nvar := model.NumParams()
	hess := make([]float64, nvar*nvar)
	model.Hessian(params, ExpHess, hess)
	hmat := mat.NewDense(nvar, nvar, hess)

	vcov := make([]float64, nvar*nvar)
	vmat := mat.NewDense(nvar, nvar, vcov)
	if err := vmat.Inverse(hmat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularHessian, err)
	}
	vmat.Scale(-1, vmat)

	return vcov, nil
}

// SummaryTable holds the summary values for a fitted model.
type SummaryTable struct {

	// Title
	Title string

	// Column names
	ColNames []string

	// Formatters for the column values
	ColFmt []Fmter

	// Cols[j] is the j^th column.  Its concrete type should
	// be a slice, e.g. of numbers or strings.
	Cols []interface{}

	// Values at the top of the summary, laid out in two columns
	Top []string

	// Messages displayed below the table
	Msg []string

	// Total width of the table
	tw int
}

// Fmter formats the elements of a column of values.  The second
// argument is the column header.
type Fmter func(interface{}, string) []string

// line draws a line of the given character across the table.
func (s *SummaryTable) line(c string) string {
	return strings.Repeat(c, s.tw) + "\n"
}

// top lays out the header values in two left-aligned columns.
func (s *SummaryTable) top(gap int) string {

	w := []int{0, 0}
	for j, x := range s.Top {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}

	var b strings.Builder
	for j, x := range s.Top {
		fmt.Fprintf(&b, "%-*s", w[j%2], x)
		if j%2 == 1 {
			b.WriteString("\n")
		} else {
			b.WriteString(strings.Repeat(" ", gap))
		}
	}

	if len(s.Top)%2 == 1 {
		b.WriteString("\n")
	}

	return b.String()
}

// String returns the table as a string.
func (s *SummaryTable) String() string {

	var tab [][]string
	var wx []int
	for j, c := range s.Cols {
		u := s.ColFmt[j](c, s.ColNames[j])
		tab = append(tab, u)
		w := len(s.ColNames[j])
		for _, v := range u {
			if len(v) > w {
				w = len(v)
			}
		}
		wx = append(wx, w+2)
	}

	gap := 6

	// The table is as wide as the widest of its parts.
	s.tw = len(s.Title)
	var cw int
	for _, w := range wx {
		cw += w
	}
	if cw > s.tw {
		s.tw = cw
	}
	if tw := len(strings.SplitN(s.top(gap), "\n", 2)[0]); tw > s.tw {
		s.tw = tw
	}

	var buf strings.Builder

	// Center the title
	if s.Title != "" {
		if kr := (s.tw - len(s.Title)) / 2; kr > 0 {
			buf.WriteString(strings.Repeat(" ", kr))
		}
		buf.WriteString(s.Title + "\n")
	}

	buf.WriteString(s.line("="))
	if len(s.Top) > 0 {
		buf.WriteString(s.top(gap))
		buf.WriteString(s.line("-"))
	}

	for j, c := range s.ColNames {
		fmt.Fprintf(&buf, "%*s", wx[j], c)
	}
	buf.WriteString("\n")
	buf.WriteString(s.line("-"))

	if len(tab) > 0 {
		for i := range tab[0] {
			for j := range tab {
				fmt.Fprintf(&buf, "%*s", wx[j], tab[j][i])
			}
			buf.WriteString("\n")
		}
	}
	buf.WriteString(s.line("="))

	for _, msg := range s.Msg {
		buf.WriteString(msg + "\n")
	}

	return buf.String()
}
