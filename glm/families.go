package glm

import (
	"fmt"
	"math"
)

// FamilyType is the type of GLM family used in a model.
type FamilyType uint8

// PoissonFamily, GaussianFamily and BinomialFamily are the supported
// GLM families.
const (
	PoissonFamily FamilyType = iota
	GaussianFamily
	BinomialFamily
)

// LogLikeFunc evaluates the log-likelihood for a GLM.  The arguments are
// the response, the mean values, the weights, the scale parameter, and the
// 'exact' flag.  If exact is false, terms that do not depend on the mean
// may be omitted.  The weights may be nil in which case all weights are 1.
type LogLikeFunc func(y, mn, wt []float64, scale float64, exact bool) float64

// DevianceFunc evaluates the deviance for a GLM.  The arguments are the
// response, the mean values, the weights, and the scale parameter.  The
// weights may be nil in which case all weights are 1.
type DevianceFunc func(y, mn, wt []float64, scale float64) float64

// Family represents a generalized linear model family.
type Family struct {

	// The name of the family
	Name string

	// The numeric code for the family
	TypeCode FamilyType

	// The log-likelihood function for the family
	LogLike LogLikeFunc

	// The deviance function for the family
	Deviance DevianceFunc

	// The scale parameter is fixed at 1 rather than estimated.
	fixedScale bool

	// Valid links for this family, the first is the canonical link.
	validLinks []LinkType

	// Checks that a response value is in the support of the family.
	validResponse func(float64) bool
}

// NewFamily returns the family object for the given family type.
func NewFamily(fam FamilyType) *Family {

	switch fam {
	case PoissonFamily:
		return &poisson
	case GaussianFamily:
		return &gaussian
	case BinomialFamily:
		return &binomial
	default:
		panic(fmt.Sprintf("glm: unknown family %d", fam))
	}
}

var poisson = Family{
	Name:          "Poisson",
	TypeCode:      PoissonFamily,
	LogLike:       poissonLogLike,
	Deviance:      poissonDeviance,
	fixedScale:    true,
	validLinks:    []LinkType{LogLink, IdentityLink},
	validResponse: func(y float64) bool { return y >= 0 },
}

var gaussian = Family{
	Name:          "Gaussian",
	TypeCode:      GaussianFamily,
	LogLike:       gaussianLogLike,
	Deviance:      gaussianDeviance,
	validLinks:    []LinkType{IdentityLink, LogLink},
	validResponse: func(float64) bool { return true },
}

var binomial = Family{
	Name:          "Binomial",
	TypeCode:      BinomialFamily,
	LogLike:       binomialLogLike,
	Deviance:      binomialDeviance,
	fixedScale:    true,
	validLinks:    []LinkType{LogitLink, LogLink, IdentityLink},
	validResponse: func(y float64) bool { return y >= 0 && y <= 1 },
}

// IsValidLink returns true if the link can be used with the family.
func (fam *Family) IsValidLink(link *Link) bool {

	for _, q := range fam.validLinks {
		if link.TypeCode == q {
			return true
		}
	}

	return false
}

// CanonicalLink returns the canonical link of the family.
func (fam *Family) CanonicalLink() *Link {
	return NewLink(fam.validLinks[0])
}

// FixedScale returns true if the family's scale parameter is fixed at 1.
func (fam *Family) FixedScale() bool {
	return fam.fixedScale
}

func weight(wt []float64, i int) float64 {
	if wt == nil {
		return 1
	}
	return wt[i]
}

func poissonLogLike(y, mn, wt []float64, scale float64, exact bool) float64 {

	var ll float64
	for i := range y {
		w := weight(wt, i)
		ll += w * (y[i]*math.Log(mn[i]) - mn[i])
		if exact {
			g, _ := math.Lgamma(y[i] + 1)
			ll -= w * g
		}
	}

	return ll
}

func poissonDeviance(y, mn, wt []float64, scale float64) float64 {

	var dev float64
	for i := range y {
		w := weight(wt, i)
		if y[i] > 0 {
			dev += 2 * w * y[i] * math.Log(y[i]/mn[i])
		}
		dev -= 2 * w * (y[i] - mn[i])
	}

	return dev / scale
}

func gaussianLogLike(y, mn, wt []float64, scale float64, exact bool) float64 {

	var ll, ws float64
	for i := range y {
		w := weight(wt, i)
		r := y[i] - mn[i]
		ll -= w * r * r / (2 * scale)
		ws += w
	}
	ll -= ws * math.Log(2*math.Pi*scale) / 2

	return ll
}

func gaussianDeviance(y, mn, wt []float64, scale float64) float64 {

	var dev float64
	for i := range y {
		r := y[i] - mn[i]
		dev += weight(wt, i) * r * r
	}

	return dev / scale
}

func binomialLogLike(y, mn, wt []float64, scale float64, exact bool) float64 {

	var ll float64
	for i := range y {
		ll += weight(wt, i) * (y[i]*math.Log(mn[i]/(1-mn[i])) + math.Log(1-mn[i]))
	}

	return ll
}

// xlogy returns x*log(y), taken to be 0 when x is 0.
func xlogy(x, y float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(y)
}

func binomialDeviance(y, mn, wt []float64, scale float64) float64 {

	var dev float64
	for i := range y {
		d := xlogy(y[i], y[i]/mn[i]) + xlogy(1-y[i], (1-y[i])/(1-mn[i]))
		dev += 2 * weight(wt, i) * d
	}

	return dev / scale
}
