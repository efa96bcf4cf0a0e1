package glm

import "errors"

// Errors returned when defining or fitting a model.  They are wrapped
// with details, use errors.Is to test for them.
var (
	// ErrInvalidData is returned by NewGLM when the data or the
	// configuration cannot define a model, e.g. there are no
	// observations or a named variable is missing.
	ErrInvalidData = errors.New("glm: invalid model data")

	// ErrNotConverged is returned by Fit when the iteration limit is
	// reached, or the iterations diverge, before the fit converges.
	ErrNotConverged = errors.New("glm: fit did not converge")

	// ErrSingular is returned by Fit when the weighted normal equations
	// or the information matrix cannot be solved, usually because the
	// covariates are collinear.
	ErrSingular = errors.New("glm: singular design")
)
