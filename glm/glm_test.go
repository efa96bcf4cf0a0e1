package glm

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func scalarClose(x, y, eps float64) bool {
	return math.Abs(x-y) <= eps
}

type testdata struct {
	data  [][]float64
	names []string
}

func data1(wgt bool) testdata {

	y := []float64{0, 1, 3, 2, 1, 1, 0}
	x1 := []float64{1, 1, 1, 1, 1, 1, 1}
	x2 := []float64{4, 1, -1, 3, 5, -5, 3}
	w := []float64{1, 2, 2, 3, 1, 3, 2}
	da := [][]float64{y, x1, x2}
	na := []string{"y", "x1", "x2"}

	if wgt {
		da = append(da, w)
		na = append(na, "w")
	}

	return testdata{da, na}
}

func data2(wgt bool) testdata {

	y := []float64{0, 0, 1, 0, 1, 0, 0}
	x1 := []float64{1, 1, 1, 1, 1, 1, 1}
	x2 := []float64{4, 1, -1, 3, 5, -5, 3}
	x3 := []float64{1, -1, 1, 1, 2, 5, -1}
	w := []float64{2, 1, 3, 3, 4, 2, 3}

	da := [][]float64{y, x1, x2, x3}
	na := []string{"y", "x1", "x2", "x3"}

	if wgt {
		da = append(da, w)
		na = append(na, "w")
	}

	return testdata{da, na}
}

func data3(wgt bool) testdata {

	y := []float64{1, 1, 1, 0, 0, 0, 0}
	x1 := []float64{1, 1, 1, 1, 1, 1, 1}
	x2 := []float64{0, 1, 0, 0, -1, 0, 1}
	w := []float64{3, 3, 2, 3, 1, 3, 2}

	da := [][]float64{y, x1, x2}
	na := []string{"y", "x1", "x2"}

	if wgt {
		da = append(da, w)
		na = append(na, "w")
	}

	return testdata{da, na}
}

func data5(wgt bool) testdata {

	y := []float64{0, 1, 3, 2, 1, 1, 0}
	x1 := []float64{1, 1, 1, 1, 1, 1, 1}
	x2 := []float64{4, 1, -1, 3, 5, -5, 3}
	off := []float64{0, 0, 1, 1, 0, 0, 0}
	w := []float64{1, 2, 2, 3, 1, 3, 2}

	da := [][]float64{y, x1, x2, off}
	na := []string{"y", "x1", "x2", "off"}

	if wgt {
		da = append(da, w)
		na = append(na, "w")
	}

	return testdata{da, na}
}

// covariates returns the names of the covariates in a test data set.
func (td testdata) covariates() []string {
	var xn []string
	for _, na := range td.names {
		if strings.HasPrefix(na, "x") {
			xn = append(xn, na)
		}
	}
	return xn
}

func (td testdata) model(fam *Family, weight, offset bool, c *Config) (*GLM, error) {

	if c == nil {
		c = DefaultConfig()
	}
	c.Family = fam
	if weight {
		c.WeightVar = "w"
	}
	if offset {
		c.OffsetVar = "off"
	}

	return NewGLM(td.data, td.names, "y", td.covariates(), c)
}

// A test problem
type testprob struct {
	family     *Family
	data       testdata
	weight     bool
	offset     bool
	params     []float64
	stderr     []float64
	ll         float64
	scale      float64
	deviance   float64
	pearson    float64
	fitmethods []string
}

var glmTests = []testprob{
	{
		family:     NewFamily(PoissonFamily),
		data:       data1(false),
		params:     []float64{0.213361, -0.081530},
		stderr:     []float64{0.357095, 0.100337},
		ll:         -9.1041354864426385,
		scale:      1,
		deviance:   6.602720127557717,
		pearson:    5.456732876737089,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(PoissonFamily),
		data:       data1(true),
		weight:     true,
		params:     []float64{0.266817, -0.035637},
		stderr:     []float64{0.236179, 0.067480},
		ll:         -19.00280708909699,
		scale:      1,
		deviance:   12.18080684865874,
		pearson:    9.953586670082979,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(PoissonFamily),
		data:       data2(true),
		weight:     true,
		params:     []float64{-1.540684, 0.116108, 0.246615},
		stderr:     []float64{0.775912, 0.135982, 0.283345},
		ll:         -13.098177137990557,
		scale:      1,
		deviance:   12.196354275981118,
		pearson:    11.670285738666092,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(PoissonFamily),
		data:       data2(false),
		params:     []float64{-1.792499, 0.128696, 0.241203},
		stderr:     []float64{1.325076, 0.256408, 0.496363},
		ll:         -4.3466061504389559,
		scale:      1,
		deviance:   4.693212300877914,
		pearson:    5.313143888829813,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(PoissonFamily),
		data:       data3(false),
		params:     []float64{-0.962424, 0.481212},
		stderr:     []float64{0.656431, 0.937078},
		ll:         -5.4060591253,
		scale:      1,
		deviance:   4.8121182505960345,
		pearson:    3.8541019662496847,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(PoissonFamily),
		data:       data5(true),
		weight:     true,
		offset:     true,
		params:     []float64{-0.183029, -0.075427},
		stderr:     []float64{0.236279, 0.074241},
		ll:         -15.259195632772048,
		scale:      1,
		deviance:   4.693583936008864,
		pearson:    2.832971244916916,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(GaussianFamily),
		data:       data1(false),
		params:     []float64{1.290837, -0.103586},
		stderr:     []float64{0.456706, 0.130298},
		ll:         -9.621454,
		scale:      1.21752988048,
		deviance:   6.087649402390439,
		pearson:    6.087649402390439,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(GaussianFamily),
		data:       data1(true),
		weight:     true,
		params:     []float64{1.316285, -0.047555},
		stderr:     []float64{0.277652, 0.080877},
		ll:         -19.14926021670413,
		scale:      1.0414236578435769,
		deviance:   12.497083894122925,
		pearson:    12.497083894122925,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(GaussianFamily),
		data:       data3(false),
		params:     []float64{0.4, 0.2},
		stderr:     []float64{0.219089, 0.334664},
		ll:         -4.944550,
		scale:      0.32,
		deviance:   1.6,
		pearson:    1.6,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(BinomialFamily),
		data:       data2(false),
		params:     []float64{-1.650145, 0.190136, 0.344331},
		stderr:     []float64{1.505798, 0.323601, 0.593428},
		ll:         -3.9607532681097091,
		scale:      1,
		deviance:   7.921506536219419,
		pearson:    7.353878070426945,
		fitmethods: []string{"Gradient", "IRLS"},
	},
	{
		family:     NewFamily(BinomialFamily),
		data:       data3(false),
		params:     []float64{-0.434175, 0.868350},
		stderr:     []float64{0.830041, 1.306904},
		ll:         -4.53963553741,
		scale:      1,
		deviance:   9.079271074824645,
		pearson:    6.846308158204478,
		fitmethods: []string{"Gradient", "IRLS"},
	},
}

func TestFit(t *testing.T) {

	for jd, ds := range glmTests {
		for _, fmeth := range ds.fitmethods {

			c := DefaultConfig()
			c.FitMethod = fmeth
			glm, err := ds.data.model(ds.family, ds.weight, ds.offset, c)
			if err != nil {
				t.Fatalf("%d %s: %v", jd, fmeth, err)
			}

			result, err := glm.Fit()
			if err != nil {
				t.Errorf("%d %s: %v", jd, fmeth, err)
				continue
			}

			if !floats.EqualApprox(result.Params(), ds.params, 1e-5) {
				fmt.Printf("params failed %d %s:\n", jd, fmeth)
				fmt.Printf("%v\n", result.Params())
				t.Fail()
			}

			if !scalarClose(result.Scale(), ds.scale, 1e-5) {
				fmt.Printf("scale failed: %d %s\n", jd, fmeth)
				t.Fail()
			}

			if !scalarClose(result.LogLike(), ds.ll, 1e-5) {
				fmt.Printf("loglike failed: %d %s\n", jd, fmeth)
				t.Fail()
			}

			if !floats.EqualApprox(result.StdErr(), ds.stderr, 1e-5) {
				fmt.Printf("stderr failed: %d %s\n", jd, fmeth)
				t.Fail()
			}

			if !scalarClose(result.Deviance(), ds.deviance, 1e-5) {
				fmt.Printf("deviance failed: %d %s\n", jd, fmeth)
				t.Fail()
			}

			if !scalarClose(result.PearsonChi2(), ds.pearson, 1e-5) {
				fmt.Printf("pearson failed: %d %s\n", jd, fmeth)
				t.Fail()
			}

			if result.Iterations() < 1 {
				t.Errorf("%d %s: no iterations recorded", jd, fmeth)
			}

			p := len(ds.params)
			if result.DfModel() != p-1 || result.DfResid() != 7-p {
				t.Errorf("%d %s: df model=%d resid=%d", jd, fmeth, result.DfModel(), result.DfResid())
			}

			// Smoke test
			_ = result.Summary().String()
		}
	}
}

func TestFitInference(t *testing.T) {

	glm, err := data1(false).model(NewFamily(PoissonFamily), false, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := glm.Fit()
	if err != nil {
		t.Fatal(err)
	}

	par := result.Params()
	se := result.StdErr()
	z := result.ZScores()
	pv := result.PValues()
	lcb, ucb := result.ConfInt(0.95)

	for j := range par {
		if !scalarClose(z[j], par[j]/se[j], 1e-12) {
			t.Errorf("z-score %d: %f", j, z[j])
		}
		if pv[j] < 0 || pv[j] > 1 {
			t.Errorf("p-value %d out of range: %f", j, pv[j])
		}
		if !(lcb[j] < par[j] && par[j] < ucb[j]) {
			t.Errorf("confidence interval %d does not cover the estimate", j)
		}
		if !scalarClose(ucb[j]-lcb[j], 2*1.959963984540054*se[j], 1e-8) {
			t.Errorf("confidence interval %d has the wrong width", j)
		}
	}

	// The fitted means reproduce the observed total for a canonical
	// link with an intercept.
	mn := result.Mean()
	if !scalarClose(floats.Sum(mn), 8, 1e-6) {
		t.Errorf("fitted means sum to %f", floats.Sum(mn))
	}

	fv, err := result.FittedValues(nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range fv {
		if !scalarClose(math.Exp(fv[i]), mn[i], 1e-10) {
			t.Errorf("fitted value %d: %f", i, fv[i])
		}
	}
}

func TestConcurrentIRLS(t *testing.T) {

	fit := func(conc int) []float64 {
		c := DefaultConfig()
		c.ConcurrentIRLS = conc
		glm, err := data2(true).model(NewFamily(PoissonFamily), true, false, c)
		if err != nil {
			t.Fatal(err)
		}
		result, err := glm.Fit()
		if err != nil {
			t.Fatal(err)
		}
		return result.Params()
	}

	seq := fit(1000)
	conc := fit(1)
	if !floats.EqualApprox(seq, conc, 1e-12) {
		t.Errorf("concurrent fit %v differs from sequential fit %v", conc, seq)
	}
}

func TestStart(t *testing.T) {

	c := DefaultConfig()
	c.Start = []float64{0.2, -0.1}
	glm, err := data1(false).model(NewFamily(PoissonFamily), false, false, c)
	if err != nil {
		t.Fatal(err)
	}

	result, err := glm.Fit()
	if err != nil {
		t.Fatal(err)
	}

	if !floats.EqualApprox(result.Params(), []float64{0.213361, -0.081530}, 1e-5) {
		t.Errorf("params: %v", result.Params())
	}
}

func TestNotConverged(t *testing.T) {

	c := DefaultConfig()
	c.MaxIter = 1
	glm, err := data1(false).model(NewFamily(PoissonFamily), false, false, c)
	if err != nil {
		t.Fatal(err)
	}

	result, err := glm.Fit()
	if !errors.Is(err, ErrNotConverged) {
		t.Errorf("expected ErrNotConverged, got %v", err)
	}
	if result != nil {
		t.Errorf("expected no results")
	}
}

func TestSingular(t *testing.T) {

	td := data1(false)
	td.data = append(td.data, make([]float64, 7))
	td.names = append(td.names, "x3")

	glm, err := td.model(NewFamily(PoissonFamily), false, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := glm.Fit(); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestDiverged(t *testing.T) {

	x1 := []float64{1, 1, 1, 1, 1, 1, 1}
	x2 := []float64{0, 1, 0, 1, 0, 1, 0}

	for _, tc := range []struct {
		title string
		y     []float64
	}{
		{"all zero", []float64{0, 0, 0, 0, 0, 0, 0}},
		{"zero group", []float64{2, 0, 1, 0, 3, 0, 1}},
	} {
		for _, fmeth := range []string{"IRLS", "Gradient"} {
			td := testdata{[][]float64{tc.y, x1, x2}, []string{"y", "x1", "x2"}}
			c := DefaultConfig()
			c.FitMethod = fmeth
			glm, err := td.model(NewFamily(PoissonFamily), false, false, c)
			if err != nil {
				t.Fatal(err)
			}

			result, err := glm.Fit()
			if !errors.Is(err, ErrNotConverged) {
				t.Errorf("%s %s: expected ErrNotConverged, got %v", tc.title, fmeth, err)
			}
			if result != nil {
				t.Errorf("%s %s: expected no results", tc.title, fmeth)
			}
		}
	}
}

func TestInvalidData(t *testing.T) {

	y := []float64{0, 1, 3, 2, 1, 1, 0}
	x1 := []float64{1, 1, 1, 1, 1, 1, 1}
	x2 := []float64{4, 1, -1, 3, 5, -5, 3}
	names := []string{"y", "x1", "x2"}

	for _, tc := range []struct {
		title  string
		data   [][]float64
		names  []string
		xnames []string
		config func(*Config)
	}{
		{
			title:  "names",
			data:   [][]float64{y, x1},
			names:  names,
			xnames: []string{"x1"},
		},
		{
			title:  "no covariates",
			data:   [][]float64{y, x1, x2},
			names:  names,
			xnames: nil,
		},
		{
			title:  "missing",
			data:   [][]float64{y, x1, x2},
			names:  names,
			xnames: []string{"x1", "x3"},
		},
		{
			title:  "empty",
			data:   [][]float64{{}, {}, {}},
			names:  names,
			xnames: []string{"x1", "x2"},
		},
		{
			title:  "ragged",
			data:   [][]float64{y, x1, x2[0:6]},
			names:  names,
			xnames: []string{"x1", "x2"},
		},
		{
			title:  "nan",
			data:   [][]float64{y, x1, {4, 1, math.NaN(), 3, 5, -5, 3}},
			names:  names,
			xnames: []string{"x1", "x2"},
		},
		{
			title:  "negative count",
			data:   [][]float64{{0, 1, -3, 2, 1, 1, 0}, x1, x2},
			names:  names,
			xnames: []string{"x1", "x2"},
		},
		{
			title:  "negative weight",
			data:   [][]float64{y, x1, x2, {1, 1, -1, 1, 1, 1, 1}},
			names:  []string{"y", "x1", "x2", "w"},
			xnames: []string{"x1", "x2"},
			config: func(c *Config) { c.WeightVar = "w" },
		},
		{
			title:  "method",
			data:   [][]float64{y, x1, x2},
			names:  names,
			xnames: []string{"x1", "x2"},
			config: func(c *Config) { c.FitMethod = "Newton" },
		},
		{
			title:  "link",
			data:   [][]float64{y, x1, x2},
			names:  names,
			xnames: []string{"x1", "x2"},
			config: func(c *Config) { c.Link = NewLink(LogitLink) },
		},
		{
			title:  "start",
			data:   [][]float64{y, x1, x2},
			names:  names,
			xnames: []string{"x1", "x2"},
			config: func(c *Config) { c.Start = []float64{0} },
		},
		{
			title:  "family",
			data:   [][]float64{y, x1, x2},
			names:  names,
			xnames: []string{"x1", "x2"},
			config: func(c *Config) { c.Family = nil },
		},
	} {
		c := DefaultConfig()
		if tc.config != nil {
			tc.config(c)
		}
		_, err := NewGLM(tc.data, tc.names, "y", tc.xnames, c)
		if !errors.Is(err, ErrInvalidData) {
			t.Errorf("%s: expected ErrInvalidData, got %v", tc.title, err)
		}
	}
}

func TestSetLink(t *testing.T) {

	fam := NewFamily(BinomialFamily)
	for _, v := range []LinkType{LogitLink, LogLink, IdentityLink} {
		if !fam.IsValidLink(NewLink(v)) {
			t.Fail()
		}
	}

	if NewFamily(PoissonFamily).CanonicalLink().TypeCode != LogLink {
		t.Fail()
	}
}

func TestSummary(t *testing.T) {

	glm, err := data1(false).model(NewFamily(PoissonFamily), false, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := glm.Fit()
	if err != nil {
		t.Fatal(err)
	}

	s := result.Summary().String()
	for _, want := range []string{"Poisson", "Log", "x1", "x2", "No. Observations: 7", "Df Residuals:     5"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary does not contain %q:\n%s", want, s)
		}
	}

	s = result.Summary().SetScale(math.Exp, "Parameters are rate ratios").String()
	if !strings.Contains(s, "rate ratios") || strings.Contains(s, "Z-score") {
		t.Errorf("unexpected transformed summary:\n%s", s)
	}
}
