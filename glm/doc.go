/*
Package glm fits generalized linear models (GLM) by maximum likelihood.

The data are held in memory as columns of float64 values, one slice per
variable.  A model is defined by choosing the response and covariate
columns and a Config (family, link, variance function, fitting method),
and is then fit using iteratively reweighted least squares (IRLS, the
default) or gradient-based optimization:

	c := glm.DefaultConfig()
	c.Family = glm.NewFamily(glm.PoissonFamily)
	model, err := glm.NewGLM(data, varnames, "y", []string{"const", "x"}, c)
	if err != nil {
		...
	}
	result, err := model.Fit()
	if err != nil {
		...
	}
	fmt.Println(result.Summary())

Only the columns named as covariates enter the linear predictor, so an
intercept must be supplied as a column of ones.
*/
package glm
