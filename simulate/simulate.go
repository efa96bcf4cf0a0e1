// Package simulate generates count data from a Poisson log-linear model
// with two predictors, a continuous peer risk score and a binary
// parenting style indicator.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidSampleSize is returned when a data set with no observations
// is requested.
var ErrInvalidSampleSize = errors.New("simulate: sample size must be positive")

// Variable names used in the design produced by Dataset.Design.
const (
	ResponseName  = "MonthlyIncidents"
	InterceptName = "const"
	PeerRiskName  = "PeerRisk"
	ParentingName = "ParentingStyle"
)

// Covariates are the names of the model covariates, in coefficient order.
var Covariates = []string{InterceptName, PeerRiskName, ParentingName}

// TrueCoeff holds the coefficients of the log-linear mean function that
// generates the data.
type TrueCoeff struct {
	Intercept      float64
	PeerRisk       float64
	ParentingStyle float64
}

// Slice returns the coefficients in the order of Covariates.
func (c TrueCoeff) Slice() []float64 {
	return []float64{c.Intercept, c.PeerRisk, c.ParentingStyle}
}

// Config specifies a simulation.
type Config struct {

	// Number of observations
	N int

	// Seed for the random number generator
	Seed int64

	// Generating coefficients
	Coeff TrueCoeff
}

// DefaultConfig returns the configuration of the reference simulation,
// 500 observations generated with seed 42.
func DefaultConfig() Config {
	return Config{
		N:    500,
		Seed: 42,
		Coeff: TrueCoeff{
			Intercept:      0.1,
			PeerRisk:       0.2,
			ParentingStyle: 0.5,
		},
	}
}

// Observation is a single simulated record.
type Observation struct {
	PeerRisk         float64 `json:"peer_risk"`
	ParentingStyle   int     `json:"parenting_style"`
	MonthlyIncidents int     `json:"monthly_incidents"`
}

// Dataset is an ordered collection of simulated observations.  It is not
// modified after it is returned by Poisson.
type Dataset struct {
	Observations []Observation
	Seed         int64
}

// Poisson simulates a data set.  PeerRisk is uniform on [0, 10],
// ParentingStyle is 0 or 1 with equal probability, and MonthlyIncidents is
// Poisson with log mean Intercept + PeerRisk*x1 + ParentingStyle*x2.  The
// same configuration always produces the same data set.
func Poisson(cfg Config) (*Dataset, error) {

	if cfg.N <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleSize, cfg.N)
	}

	src := rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed))
	n := cfg.N

	risk := distuv.Uniform{Min: 0, Max: 10, Src: src}
	x1 := make([]float64, n)
	for i := range x1 {
		x1[i] = risk.Rand()
	}

	style := distuv.Bernoulli{P: 0.5, Src: src}
	x2 := make([]int, n)
	for i := range x2 {
		x2[i] = int(style.Rand())
	}

	c := cfg.Coeff
	obs := make([]Observation, n)
	for i := range obs {
		lp := c.Intercept + c.PeerRisk*x1[i] + c.ParentingStyle*float64(x2[i])
		po := distuv.Poisson{Lambda: math.Exp(lp), Src: src}
		obs[i] = Observation{
			PeerRisk:         x1[i],
			ParentingStyle:   x2[i],
			MonthlyIncidents: int(po.Rand()),
		}
	}

	return &Dataset{Observations: obs, Seed: cfg.Seed}, nil
}

// Len returns the number of observations.
func (ds *Dataset) Len() int {
	return len(ds.Observations)
}

// Head returns the first k observations, or all of them if there are
// fewer than k.
func (ds *Dataset) Head(k int) []Observation {
	if k < 0 {
		k = 0
	}
	if k > len(ds.Observations) {
		k = len(ds.Observations)
	}
	return ds.Observations[0:k]
}

// Incidents returns the response values.
func (ds *Dataset) Incidents() []float64 {
	y := make([]float64, len(ds.Observations))
	for i, o := range ds.Observations {
		y[i] = float64(o.MonthlyIncidents)
	}
	return y
}

// Design returns the data in column form for model fitting, along with
// the variable names.  The columns are the response, an intercept column
// of ones, PeerRisk and ParentingStyle.
func (ds *Dataset) Design() ([][]float64, []string) {

	n := ds.Len()
	icept := make([]float64, n)
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	for i, o := range ds.Observations {
		icept[i] = 1
		x1[i] = o.PeerRisk
		x2[i] = float64(o.ParentingStyle)
	}

	return [][]float64{ds.Incidents(), icept, x1, x2},
		[]string{ResponseName, InterceptName, PeerRiskName, ParentingName}
}
