package glm

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/FisherMelissa/poissonreg/statmodel"
)

// Config defines a GLM.  Use DefaultConfig to get a Config with the
// defaults filled in, then change the fields as needed.
type Config struct {

	// The GLM family, required.
	Family *Family

	// The link function, defaults to the canonical link of the family.
	Link *Link

	// The variance function, defaults to the variance function of the
	// family.
	VarFunc *Variance

	// Name of the weight variable, optional.
	WeightVar string

	// Name of the offset variable, optional.
	OffsetVar string

	// Starting values for the coefficients, optional.
	Start []float64

	// Either "IRLS" (default) or "Gradient".
	FitMethod string

	// Maximum number of IRLS iterations.
	MaxIter int

	// IRLS stops when the deviance changes by less than this amount.
	DevianceTol float64

	// Use concurrent calculations in IRLS if the sample size is at least
	// as large as this value.
	ConcurrentIRLS int

	// If not nil, progress of the fit is logged here.
	Log *slog.Logger
}

// DefaultConfig returns a Config for a Poisson GLM fit with IRLS.
func DefaultConfig() *Config {
	return &Config{
		Family:         NewFamily(PoissonFamily),
		FitMethod:      "IRLS",
		MaxIter:        100,
		DevianceTol:    1e-8,
		ConcurrentIRLS: 1000,
	}
}

// GLM represents a generalized linear model.
type GLM struct {

	// The data, one slice per variable
	data [][]float64

	// Names of all variables in data
	varnames []string

	// Names and positions of the covariates
	xnames []string
	xpos   []int

	// Name and position of the outcome variable
	yname string
	ypos  int

	// Positions of the offset and weight variables, -1 if absent
	offsetpos int
	weightpos int

	fam  *Family
	link *Link
	vari *Variance

	fitMethod string
	start     []float64
	maxiter   int
	dtol      float64

	concurrentIRLS int

	log *slog.Logger
}

// GLMParams represents the model parameters for a GLM.
type GLMParams struct {
	coeff []float64
	scale float64
}

// NewGLMParams returns a parameter value with the given coefficients
// and scale.
func NewGLMParams(coeff []float64, scale float64) *GLMParams {
	return &GLMParams{coeff: coeff, scale: scale}
}

// GetCoeff returns the coefficients (slopes for individual
// covariates) from the parameter.
func (p *GLMParams) GetCoeff() []float64 {
	return p.coeff
}

// SetCoeff sets the coefficients (slopes for individual covariates)
// for the parameter.
func (p *GLMParams) SetCoeff(coeff []float64) {
	p.coeff = coeff
}

// Clone produces a deep copy of the parameter value.
func (p *GLMParams) Clone() statmodel.Parameter {
	coeff := make([]float64, len(p.coeff))
	copy(coeff, p.coeff)
	return &GLMParams{
		coeff: coeff,
		scale: p.scale,
	}
}

// NewGLM creates a GLM for the given data.  data holds one slice per
// variable, varnames names them, yname is the response and xnames are
// the covariates, in the order of the coefficients.  The returned error
// wraps ErrInvalidData if the model cannot be defined.
func NewGLM(data [][]float64, varnames []string, yname string, xnames []string, config *Config) (*GLM, error) {

	if config == nil {
		config = DefaultConfig()
	}

	glm := &GLM{
		data:           data,
		varnames:       varnames,
		xnames:         xnames,
		yname:          yname,
		fam:            config.Family,
		link:           config.Link,
		vari:           config.VarFunc,
		fitMethod:      strings.ToLower(config.FitMethod),
		start:          config.Start,
		maxiter:        config.MaxIter,
		dtol:           config.DevianceTol,
		concurrentIRLS: config.ConcurrentIRLS,
		log:            config.Log,
	}

	if err := glm.findvars(config.WeightVar, config.OffsetVar); err != nil {
		return nil, err
	}
	if err := glm.setup(); err != nil {
		return nil, err
	}
	if err := glm.check(); err != nil {
		return nil, err
	}

	return glm, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

// findvars locates the named variables in the data.
func (glm *GLM) findvars(weightname, offsetname string) error {

	if len(glm.data) != len(glm.varnames) {
		return invalid("%d data columns but %d variable names", len(glm.data), len(glm.varnames))
	}
	if len(glm.xnames) == 0 {
		return invalid("no covariates")
	}

	pos := make(map[string]int, len(glm.varnames))
	for k, na := range glm.varnames {
		pos[na] = k
	}

	lookup := func(role, name string) (int, error) {
		k, ok := pos[name]
		if !ok {
			return -1, invalid("%s variable '%s' not found", role, name)
		}
		return k, nil
	}

	var err error
	if glm.ypos, err = lookup("outcome", glm.yname); err != nil {
		return err
	}

	glm.xpos = make([]int, len(glm.xnames))
	for j, na := range glm.xnames {
		if glm.xpos[j], err = lookup("covariate", na); err != nil {
			return err
		}
	}

	glm.weightpos, glm.offsetpos = -1, -1
	if weightname != "" {
		if glm.weightpos, err = lookup("weight", weightname); err != nil {
			return err
		}
	}
	if offsetname != "" {
		if glm.offsetpos, err = lookup("offset", offsetname); err != nil {
			return err
		}
	}

	return nil
}

// setup fills in the defaults that depend on the family.
func (glm *GLM) setup() error {

	if glm.fam == nil {
		return invalid("the family must be set")
	}

	if glm.link == nil {
		glm.link = glm.fam.CanonicalLink()
	} else if !glm.fam.IsValidLink(glm.link) {
		return invalid("link %s is not valid for the %s family", glm.link.Name, glm.fam.Name)
	}

	if glm.vari == nil {
		glm.vari = defaultVariance(glm.fam)
	}

	switch glm.fitMethod {
	case "":
		glm.fitMethod = "irls"
	case "irls", "gradient":
	default:
		return invalid("fitting method '%s' not allowed", glm.fitMethod)
	}

	if glm.maxiter <= 0 {
		glm.maxiter = DefaultConfig().MaxIter
	}
	if glm.dtol <= 0 {
		glm.dtol = DefaultConfig().DevianceTol
	}
	if glm.concurrentIRLS <= 0 {
		glm.concurrentIRLS = DefaultConfig().ConcurrentIRLS
	}

	return nil
}

// check validates the data values.
func (glm *GLM) check() error {

	n := len(glm.data[glm.ypos])
	if n == 0 {
		return invalid("no observations")
	}

	for k, x := range glm.data {
		if len(x) != n {
			return invalid("variable '%s' has %d values, expected %d", glm.varnames[k], len(x), n)
		}
		for i, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalid("variable '%s' has a non-finite value at position %d", glm.varnames[k], i)
			}
		}
	}

	for i, y := range glm.data[glm.ypos] {
		if !glm.fam.validResponse(y) {
			return invalid("response value %v at position %d is not valid for the %s family", y, i, glm.fam.Name)
		}
	}

	if glm.weightpos != -1 {
		for i, w := range glm.data[glm.weightpos] {
			if w < 0 {
				return invalid("negative weight at position %d", i)
			}
		}
	}

	if glm.start != nil && len(glm.start) != len(glm.xpos) {
		return invalid("%d starting values for %d covariates", len(glm.start), len(glm.xpos))
	}

	return nil
}

// NumParams returns the number of covariates in the model.
func (glm *GLM) NumParams() int {
	return len(glm.xpos)
}

// NumObs returns the number of observations in the data set.
func (glm *GLM) NumObs() int {
	return len(glm.data[glm.ypos])
}

// Xpos returns the positions of the covariates in the model's data.
func (glm *GLM) Xpos() []int {
	return glm.xpos
}

// Dataset returns the data used to fit the model.
func (glm *GLM) Dataset() [][]float64 {
	return glm.data
}

// Family returns the GLM family.
func (glm *GLM) Family() *Family {
	return glm.fam
}

// Link returns the link function.
func (glm *GLM) Link() *Link {
	return glm.link
}

// VarFunc returns the variance function.
func (glm *GLM) VarFunc() *Variance {
	return glm.vari
}

// ResponseName returns the name of the outcome variable.
func (glm *GLM) ResponseName() string {
	return glm.yname
}

// xdat returns the covariate columns in coefficient order.
func (glm *GLM) xdat() [][]float64 {
	xdat := make([][]float64, len(glm.xpos))
	for j, k := range glm.xpos {
		xdat[j] = glm.data[k]
	}
	return xdat
}

func (glm *GLM) weights() []float64 {
	if glm.weightpos == -1 {
		return nil
	}
	return glm.data[glm.weightpos]
}

func (glm *GLM) offset() []float64 {
	if glm.offsetpos == -1 {
		return nil
	}
	return glm.data[glm.offsetpos]
}

// linearPredictor computes the linear predictor, including the offset,
// at the given coefficients.
func (glm *GLM) linearPredictor(coeff, linpred []float64) {
	fill(linpred, 0)
	for j, k := range glm.xpos {
		floats.AddScaled(linpred, coeff[j], glm.data[k])
	}
	if off := glm.offset(); off != nil {
		floats.Add(linpred, off)
	}
}

// mean computes the fitted mean at the given coefficients.
func (glm *GLM) mean(coeff []float64) []float64 {
	mn := make([]float64, glm.NumObs())
	glm.linearPredictor(coeff, mn)
	glm.link.InvLink(mn, mn)
	return mn
}

// LogLike returns the log-likelihood value for the generalized linear
// model at the given parameter values.  If exact is false, terms not
// involving the parameters may be omitted.
func (glm *GLM) LogLike(params statmodel.Parameter, exact bool) float64 {

	gpar := params.(*GLMParams)
	mn := glm.mean(gpar.coeff)

	return glm.fam.LogLike(glm.data[glm.ypos], mn, glm.weights(), gpar.scale, exact)
}

func scoreFactor(yda, mn, deriv, va, sfac []float64) {
	for i, y := range yda {
		sfac[i] = (y - mn[i]) / (deriv[i] * va[i])
	}
}

// Score computes the score vector for the generalized linear model at
// the given parameter values.
func (glm *GLM) Score(params statmodel.Parameter, score []float64) {

	gpar := params.(*GLMParams)
	n := glm.NumObs()

	mn := glm.mean(gpar.coeff)
	deriv := make([]float64, n)
	va := make([]float64, n)
	fac := make([]float64, n)

	glm.link.Deriv(mn, deriv)
	glm.vari.Var(mn, va)
	scoreFactor(glm.data[glm.ypos], mn, deriv, va, fac)

	if wgts := glm.weights(); wgts != nil {
		floats.Mul(fac, wgts)
	}

	for j, k := range glm.xpos {
		score[j] = floats.Dot(fac, glm.data[k]) / gpar.scale
	}
}

// Hessian computes the Hessian matrix for the model.  The Hessian is
// returned in hess as a one-dimensional array, which is the vectorized
// form of the Hessian matrix.  Either the observed or expected Hessian
// can be calculated.
func (glm *GLM) Hessian(param statmodel.Parameter, ht statmodel.HessType, hess []float64) {

	gpar := param.(*GLMParams)
	n := glm.NumObs()
	nvar := glm.NumParams()

	mn := glm.mean(gpar.coeff)
	lderiv := make([]float64, n)
	va := make([]float64, n)
	fac := make([]float64, n)

	glm.link.Deriv(mn, lderiv)
	glm.vari.Var(mn, va)

	// Factor for the expected Hessian
	for i := range fac {
		fac[i] = 1 / (lderiv[i] * lderiv[i] * va[i])
	}

	// Adjust the factor for the observed Hessian
	if ht == statmodel.ObsHess {
		lderiv2 := make([]float64, n)
		vad := make([]float64, n)
		sfac := make([]float64, n)
		glm.link.Deriv2(mn, lderiv2)
		glm.vari.Deriv(mn, vad)
		scoreFactor(glm.data[glm.ypos], mn, lderiv, va, sfac)

		for i := range fac {
			h := (va[i]*lderiv2[i] + lderiv[i]*vad[i]) * sfac[i]
			fac[i] *= 1 + h
		}
	}

	if wgts := glm.weights(); wgts != nil {
		floats.Mul(fac, wgts)
	}

	fill(hess, 0)
	glm.xprod(glm.xdat(), nil, fac, nil, hess)
	for i := range hess {
		hess[i] /= -gpar.scale
	}

	// Fill in the upper triangle
	for j1 := 0; j1 < nvar; j1++ {
		for j2 := 0; j2 < j1; j2++ {
			hess[j2*nvar+j1] = hess[j1*nvar+j2]
		}
	}
}

// EstimateScale returns an estimate of the GLM scale parameter at the
// given coefficients.  Families with a fixed scale return 1.
func (glm *GLM) EstimateScale(coeff []float64) float64 {

	if glm.fam.FixedScale() {
		return 1
	}

	ws := float64(glm.NumObs())
	if wgts := glm.weights(); wgts != nil {
		ws = floats.Sum(wgts)
	}

	return glm.PearsonChi2(coeff) / (ws - float64(glm.NumParams()))
}

// Deviance returns the unscaled deviance of the model at the given
// coefficients.
func (glm *GLM) Deviance(coeff []float64) float64 {
	mn := glm.mean(coeff)
	return glm.fam.Deviance(glm.data[glm.ypos], mn, glm.weights(), 1)
}

// PearsonChi2 returns the Pearson chi-square statistic, the sum of
// squared Pearson residuals, at the given coefficients.
func (glm *GLM) PearsonChi2(coeff []float64) float64 {

	mn := glm.mean(coeff)
	va := make([]float64, len(mn))
	glm.vari.Var(mn, va)
	wgts := glm.weights()

	var chi2 float64
	for i, y := range glm.data[glm.ypos] {
		r := y - mn[i]
		chi2 += weight(wgts, i) * r * r / va[i]
	}

	return chi2
}

// Fit estimates the parameters of the GLM and returns a results value.
// The returned error wraps ErrNotConverged or ErrSingular if the fit
// fails, no estimates are returned in that case.
func (glm *GLM) Fit() (*GLMResults, error) {

	start := make([]float64, glm.NumParams())
	if glm.start != nil {
		copy(start, glm.start)
	}

	var params []float64
	var iter int
	var err error

	switch glm.fitMethod {
	case "gradient":
		glm.debug("unregularized fitting using gradient optimization")
		params, iter, err = glm.fitGradient(start)
	default:
		glm.debug("unregularized fitting using IRLS")
		params, iter, err = glm.fitIRLS(start)
	}
	if err != nil {
		return nil, err
	}
	if err = glm.checkBoundary(params); err != nil {
		return nil, err
	}

	scale := glm.EstimateScale(params)
	gp := &GLMParams{coeff: params, scale: 1}

	vcov, err := statmodel.GetVcov(glm, gp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	floats.Scale(scale, vcov)

	gp.scale = scale
	ll := glm.LogLike(gp, true)

	results := &GLMResults{
		BaseResults: statmodel.NewBaseResults(glm, ll, params, glm.xnames, vcov),
		scale:       scale,
		deviance:    glm.Deviance(params),
		pearsonChi2: glm.PearsonChi2(params),
		iterations:  iter,
	}

	if glm.log != nil {
		glm.log.Info("glm fit complete",
			"family", glm.fam.Name,
			"method", glm.fitMethod,
			"iterations", iter,
			"loglike", ll,
			"deviance", results.deviance)
	}

	return results, nil
}

// fitGradient uses gradient-based optimization to obtain the fitted
// GLM parameters.  The optimizer works on covariates divided by their
// L2 norms, the estimates are transformed back before returning.
func (glm *GLM) fitGradient(start []float64) ([]float64, int, error) {

	nvar := glm.NumParams()
	xn := glm.xnorms()

	coeff := func(x []float64) []float64 {
		c := make([]float64, len(x))
		for j := range x {
			c[j] = x[j] / xn[j]
		}
		return c
	}

	p := optimize.Problem{
		Func: func(x []float64) float64 {
			return -glm.LogLike(&GLMParams{coeff(x), 1}, false)
		},
		Grad: func(grad, x []float64) {
			glm.Score(&GLMParams{coeff(x), 1}, grad)
			for j := range grad {
				grad[j] /= -xn[j]
			}
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-8,
		MajorIterations:   glm.maxiter * 10,
	}

	x0 := make([]float64, nvar)
	for j := range x0 {
		x0[j] = start[j] * xn[j]
	}

	optrslt, err := optimize.Minimize(p, x0, settings, &optimize.BFGS{})
	if optrslt == nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}
	if err == nil {
		err = optrslt.Status.Err()
	}
	for _, x := range optrslt.X {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, 0, fmt.Errorf("%w: non-finite estimates", ErrNotConverged)
		}
	}

	// The line search stalls once the objective changes by less than its
	// rounding error, and the function convergence check can stop the
	// search early.  The point is kept if the gradient is negligible
	// relative to the sample size.
	grad := make([]float64, nvar)
	p.Grad(grad, optrslt.X)
	gn := floats.Norm(grad, math.Inf(1))
	if !(gn <= gradientTol*float64(glm.NumObs())) {
		if err == nil {
			err = fmt.Errorf("optimization stopped with status %s", optrslt.Status)
		}
		return nil, 0, fmt.Errorf("%w: %v (gradient norm %g)", ErrNotConverged, err, gn)
	}
	if err != nil {
		glm.debug("gradient optimization stopped early", "status", optrslt.Status.String(), "gradient", gn)
	}

	return coeff(optrslt.X), optrslt.Stats.MajorIterations, nil
}

// gradientTol is the largest gradient norm, per observation, accepted
// when the optimizer stops before reaching its gradient threshold.
const gradientTol = 1e-6

// xnorms returns the L2 norms of the covariates, with 1 in place of a
// zero norm.
func (glm *GLM) xnorms() []float64 {
	xn := make([]float64, glm.NumParams())
	for j, k := range glm.xpos {
		xn[j] = floats.Norm(glm.data[k], 2)
		if xn[j] == 0 {
			xn[j] = 1
		}
	}
	return xn
}

// boundaryTol is the distance from the boundary of the mean space below
// which a fitted mean is taken as diverging.
const boundaryTol = 1e-6

// checkBoundary returns an error wrapping ErrNotConverged if a fitted
// mean lies on the boundary of the family's mean space.  The estimates
// then run off to infinity, e.g. for a Poisson response that is zero
// in a whole group of observations.
func (glm *GLM) checkBoundary(coeff []float64) error {

	var lo, hi float64
	switch glm.fam.TypeCode {
	case PoissonFamily:
		lo, hi = 0, math.Inf(1)
	case BinomialFamily:
		lo, hi = 0, 1
	default:
		return nil
	}

	for i, m := range glm.mean(coeff) {
		if m-lo < boundaryTol || hi-m < boundaryTol {
			return fmt.Errorf("%w: fitted mean %g at position %d is on the boundary for the %s family, the estimates diverge",
				ErrNotConverged, m, i, glm.fam.Name)
		}
	}

	return nil
}

func (glm *GLM) debug(msg string, args ...any) {
	if glm.log != nil {
		glm.log.Debug(msg, args...)
	}
}
