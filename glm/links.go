package glm

import (
	"fmt"
	"math"
)

// VecFunc is a function with two float64 slice arguments, the second
// receives the values computed from the first.
type VecFunc func([]float64, []float64)

// Link specifies a GLM link function.
type Link struct {
	Name string

	TypeCode LinkType

	// Link maps the mean value to the linear predictor.
	Link VecFunc

	// InvLink maps the linear predictor to the mean value.
	InvLink VecFunc

	// Deriv calculates the derivative of the link function.
	Deriv VecFunc

	// Deriv2 calculates the second derivative of the link function.
	Deriv2 VecFunc
}

// LinkType is used to specify a GLM link function.
type LinkType uint8

// LogLink, IdentityLink and LogitLink are the supported link functions.
const (
	LogLink LinkType = iota
	IdentityLink
	LogitLink
)

// NewLink returns the link function object for the given link type.
func NewLink(link LinkType) *Link {

	switch link {
	case LogLink:
		return &logLink
	case IdentityLink:
		return &idLink
	case LogitLink:
		return &logitLink
	default:
		panic(fmt.Sprintf("glm: unknown link %d", link))
	}
}

var logLink = Link{
	Name:     "Log",
	TypeCode: LogLink,
	Link:     logFunc,
	InvLink:  expFunc,
	Deriv:    logDerivFunc,
	Deriv2:   logDeriv2Func,
}

var idLink = Link{
	Name:     "Identity",
	TypeCode: IdentityLink,
	Link:     idFunc,
	InvLink:  idFunc,
	Deriv:    idDerivFunc,
	Deriv2:   idDeriv2Func,
}

var logitLink = Link{
	Name:     "Logit",
	TypeCode: LogitLink,
	Link:     logitFunc,
	InvLink:  expitFunc,
	Deriv:    logitDerivFunc,
	Deriv2:   logitDeriv2Func,
}

func logFunc(x, y []float64) {
	for i, v := range x {
		y[i] = math.Log(v)
	}
}

func logDerivFunc(x, y []float64) {
	for i, v := range x {
		y[i] = 1 / v
	}
}

func logDeriv2Func(x, y []float64) {
	for i, v := range x {
		y[i] = -1 / (v * v)
	}
}

func expFunc(x, y []float64) {
	for i, v := range x {
		y[i] = math.Exp(v)
	}
}

func idFunc(x, y []float64) {
	copy(y, x)
}

func idDerivFunc(x, y []float64) {
	fill(y, 1)
}

func idDeriv2Func(x, y []float64) {
	fill(y, 0)
}

func logitFunc(x, y []float64) {
	for i, v := range x {
		y[i] = math.Log(v / (1 - v))
	}
}

func logitDerivFunc(x, y []float64) {
	for i, v := range x {
		y[i] = 1 / (v * (1 - v))
	}
}

func logitDeriv2Func(x, y []float64) {
	for i, v := range x {
		u := v * (1 - v)
		y[i] = (2*v - 1) / (u * u)
	}
}

func expitFunc(x, y []float64) {
	for i, v := range x {
		y[i] = 1 / (1 + math.Exp(-v))
	}
}
