package glm

import (
	"fmt"
	"testing"

	"github.com/FisherMelissa/poissonreg/statmodel"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// A test problem
type difftestprob struct {
	title  string
	family *Family
	link   *Link
	data   testdata
	weight bool
	offset bool
	params [][]float64
	scale  float64
}

var diffTests = []difftestprob{
	{
		title:  "Gaussian 1",
		family: NewFamily(GaussianFamily),
		data:   data1(false),
		scale:  2,
		params: [][]float64{{1, 0}, {0, 1}, {1, 1}, {-1, 1}},
	},
	{
		title:  "Gaussian 2",
		family: NewFamily(GaussianFamily),
		data:   data1(true),
		weight: true,
		scale:  2,
		params: [][]float64{{1, 0}, {0, 1}, {1, 1}, {-1, 1}},
	},
	{
		title:  "Poisson 1",
		family: NewFamily(PoissonFamily),
		data:   data1(false),
		scale:  1,
		params: [][]float64{{1, 0}, {0, 1}, {1, 1}, {-1, 1}},
	},
	{
		title:  "Poisson 2",
		family: NewFamily(PoissonFamily),
		data:   data1(true),
		weight: true,
		scale:  1,
		params: [][]float64{{1, 0}, {0, 1}, {1, 1}, {-1, 1}},
	},
	{
		title:  "Poisson 3",
		family: NewFamily(PoissonFamily),
		data:   data5(true),
		weight: true,
		offset: true,
		scale:  1,
		params: [][]float64{{1, 0}, {0, 0.5}, {-1, 0.2}},
	},
	{
		title:  "Binomial 1",
		family: NewFamily(BinomialFamily),
		data:   data2(true),
		weight: true,
		params: [][]float64{{1, 0, 0}, {0, 1, 0}, {1, 1, 1}, {-1, 0, 1}},
		scale:  1,
	},
	{
		title:  "Binomial log link",
		family: NewFamily(BinomialFamily),
		link:   NewLink(LogLink),
		data:   data2(true),
		weight: true,
		params: [][]float64{{-0.7, 0.1, 0}, {-1, 0, 0.1}, {-2, 0.1, 0.1}},
		scale:  1,
	},
}

func (dt difftestprob) model(t *testing.T) *GLM {

	c := DefaultConfig()
	c.Link = dt.link
	glm, err := dt.data.model(dt.family, dt.weight, dt.offset, c)
	if err != nil {
		t.Fatalf("%s: %v", dt.title, err)
	}

	return glm
}

func TestGrad(t *testing.T) {

	for _, dt := range diffTests {

		glm := dt.model(t)

		p := len(dt.params[0])
		ngrad := make([]float64, p)
		score := make([]float64, p)

		loglike := func(x []float64) float64 {
			return glm.LogLike(&GLMParams{x, dt.scale}, true)
		}

		for _, params := range dt.params {
			fd.Gradient(ngrad, loglike, params, &fd.Settings{Formula: fd.Central})
			glm.Score(&GLMParams{params, dt.scale}, score)
			if !floats.EqualApprox(score, ngrad, 1e-5) {
				fmt.Printf("%s\n", dt.title)
				fmt.Printf("Numerical:  %v\n", ngrad)
				fmt.Printf("Analytical: %v\n", score)
				t.Fail()
			}
		}
	}
}

func TestHess(t *testing.T) {

	settings := &fd.Settings{
		Formula: fd.Central,
		Step:    1e-4,
	}

	for _, dt := range diffTests {

		glm := dt.model(t)

		p := len(dt.params[0])
		hess := make([]float64, p*p)

		loglike := func(x []float64) float64 {
			return glm.LogLike(&GLMParams{x, dt.scale}, true)
		}

		for _, params := range dt.params {
			var nhess mat.SymDense
			fd.Hessian(&nhess, loglike, params, settings)
			glm.Hessian(&GLMParams{params, dt.scale}, statmodel.ObsHess, hess)

			for i := 0; i < p; i++ {
				for j := 0; j < p; j++ {
					if !scalar.EqualWithinAbsOrRel(hess[i*p+j], nhess.At(i, j), 1e-4, 1e-4) {
						fmt.Printf("%s (%d, %d)\n", dt.title, i, j)
						fmt.Printf("Numerical:  %v\n", nhess.At(i, j))
						fmt.Printf("Analytical: %v\n", hess[i*p+j])
						t.Fail()
					}
				}
			}
		}
	}
}
