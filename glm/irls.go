package glm

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// fitIRLS fits the model with iteratively reweighted least squares.  It
// returns the coefficients and the number of iterations performed.
func (glm *GLM) fitIRLS(start []float64) ([]float64, int, error) {

	n := glm.NumObs()
	nvar := glm.NumParams()

	linpred := make([]float64, n)
	mn := make([]float64, n)
	va := make([]float64, n)
	lderiv := make([]float64, n)
	irlsw := make([]float64, n)
	adjy := make([]float64, n)

	xty := make([]float64, nvar)
	xtx := make([]float64, nvar*nvar)

	yda := glm.data[glm.ypos]
	wgt := glm.weights()
	off := glm.offset()
	xdat := glm.xdat()

	params := make([]float64, nvar)
	copy(params, start)

	if glm.start == nil {
		glm.startingMu(yda, mn)
		glm.link.Link(mn, linpred)
	} else {
		glm.linearPredictor(params, linpred)
		glm.link.InvLink(linpred, mn)
	}
	dev := glm.fam.Deviance(yda, mn, wgt, 1)

	var nparam mat.VecDense

	for iter := 1; iter <= glm.maxiter; iter++ {

		glm.link.Deriv(mn, lderiv)
		glm.vari.Var(mn, va)

		// Weights and adjusted response for WLS
		for i := range yda {
			irlsw[i] = weight(wgt, i) / (lderiv[i] * lderiv[i] * va[i])
			adjy[i] = linpred[i] + lderiv[i]*(yda[i]-mn[i])
			if off != nil {
				adjy[i] -= off[i]
			}
		}

		// Update the weighted moment matrices.  For large data sets, this
		// is by far the most expensive step.
		fill(xty, 0)
		fill(xtx, 0)
		glm.xprod(xdat, adjy, irlsw, xty, xtx)

		// Fill in the upper triangle of xtx
		for j1 := 0; j1 < nvar; j1++ {
			for j2 := j1 + 1; j2 < nvar; j2++ {
				xtx[j1*nvar+j2] = xtx[j2*nvar+j1]
			}
		}

		xtxm := mat.NewDense(nvar, nvar, xtx)
		xtyv := mat.NewVecDense(nvar, xty)
		if err := nparam.SolveVec(xtxm, xtyv); err != nil {
			return nil, iter, fmt.Errorf("%w: iteration %d: %v", ErrSingular, iter, err)
		}
		copy(params, nparam.RawVector().Data)

		glm.linearPredictor(params, linpred)
		glm.link.InvLink(linpred, mn)
		devi := glm.fam.Deviance(yda, mn, wgt, 1)

		glm.debug("IRLS iteration", "iteration", iter, "deviance", devi)

		if math.IsNaN(devi) || math.IsInf(devi, 0) {
			return nil, iter, fmt.Errorf("%w: deviance is %v at iteration %d", ErrNotConverged, devi, iter)
		}

		// Check convergence
		if math.Abs(devi-dev) < glm.dtol {
			glm.debug("IRLS converged", "iterations", iter)
			return params, iter, nil
		}
		dev = devi
	}

	return nil, glm.maxiter, fmt.Errorf("%w: deviance still changing after %d IRLS iterations", ErrNotConverged, glm.maxiter)
}

// xprod accumulates the weighted cross products x' w adjy into xty and
// the lower triangle of x' w x into xtx.  adjy and xty may be nil.
func (glm *GLM) xprod(xdat [][]float64, adjy, w, xty, xtx []float64) {

	if len(w) >= glm.concurrentIRLS {
		glm.xprodConcurrent(xdat, adjy, w, xty, xtx)
		return
	}

	nvar := len(xdat)

	for j1, xda := range xdat {

		// Update x' w adjy
		if adjy != nil {
			xty[j1] += wdot(xda, adjy, w)
		}

		// Update x' w x
		for j2 := 0; j2 <= j1; j2++ {
			xtx[j1*nvar+j2] += wdot(xda, xdat[j2], w)
		}
	}
}

// xprodConcurrent is a concurrent version of xprod, every element of
// the cross products is computed in its own goroutine.
func (glm *GLM) xprodConcurrent(xdat [][]float64, adjy, w, xty, xtx []float64) {

	nvar := len(xdat)

	var wg sync.WaitGroup

	for j1, xda := range xdat {

		if adjy != nil {
			wg.Add(1)
			go func(j1 int, xda []float64) {
				defer wg.Done()
				xty[j1] += wdot(xda, adjy, w)
			}(j1, xda)
		}

		for j2 := 0; j2 <= j1; j2++ {
			wg.Add(1)
			go func(j1, j2 int, xda []float64) {
				defer wg.Done()
				xtx[j1*nvar+j2] += wdot(xda, xdat[j2], w)
			}(j1, j2, xda)
		}
	}

	wg.Wait()
}

// wdot returns the weighted inner product of x and y.
func wdot(x, y, w []float64) float64 {
	var u float64
	for i := range x {
		u += x[i] * y[i] * w[i]
	}
	return u
}

// startingMu sets the mean values used to start IRLS, a compromise
// between the data and the overall mean that stays inside the domain of
// the link.
func (glm *GLM) startingMu(y, mn []float64) {

	if glm.fam.TypeCode == BinomialFamily {
		for i := range mn {
			mn[i] = (y[i] + 0.5) / 2
		}
		return
	}

	var q float64
	for i := range y {
		q += y[i]
	}
	q /= float64(len(y))

	for i := range mn {
		mn[i] = (y[i] + q) / 2
		if mn[i] < 0.1 && (glm.fam.TypeCode == PoissonFamily || glm.link.TypeCode == LogLink) {
			mn[i] = 0.1
		}
	}
}
