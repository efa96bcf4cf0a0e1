package glm

import "fmt"

// VarianceType is used to specify a GLM variance function.
type VarianceType uint8

// IdentityVar (variance equals the mean), ConstantVar and BinomialVar
// are the supported variance functions.
const (
	IdentityVar VarianceType = iota
	ConstantVar
	BinomialVar
)

// Variance represents a GLM variance function, the variance of the
// response as a function of its mean.
type Variance struct {
	Name  string
	Var   VecFunc
	Deriv VecFunc
}

// NewVariance returns the variance function object for the given type.
func NewVariance(vartype VarianceType) *Variance {

	switch vartype {
	case IdentityVar:
		return &identVariance
	case ConstantVar:
		return &constVariance
	case BinomialVar:
		return &binomVariance
	default:
		panic(fmt.Sprintf("glm: unknown variance function %d", vartype))
	}
}

// defaultVariance returns the variance function that goes with the family.
func defaultVariance(fam *Family) *Variance {
	switch fam.TypeCode {
	case PoissonFamily:
		return NewVariance(IdentityVar)
	case BinomialFamily:
		return NewVariance(BinomialVar)
	default:
		return NewVariance(ConstantVar)
	}
}

var identVariance = Variance{
	Name:  "Identity",
	Var:   func(mn, v []float64) { copy(v, mn) },
	Deriv: func(mn, v []float64) { fill(v, 1) },
}

var constVariance = Variance{
	Name:  "Constant",
	Var:   func(mn, v []float64) { fill(v, 1) },
	Deriv: func(mn, v []float64) { fill(v, 0) },
}

var binomVariance = Variance{
	Name: "Binomial",
	Var: func(mn, v []float64) {
		for i, p := range mn {
			v[i] = p * (1 - p)
		}
	},
	Deriv: func(mn, v []float64) {
		for i, p := range mn {
			v[i] = 1 - 2*p
		}
	},
}

// fill sets all elements of the slice to v.
func fill(x []float64, v float64) {
	for i := range x {
		x[i] = v
	}
}
