package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FisherMelissa/poissonreg/statmodel"
)

// TextWriter outputs reports as plain text for a terminal.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report.
func (w *TextWriter) Write(r *Report) error {

	var buf strings.Builder

	fmt.Fprintf(&buf, "--- Simulated data (first %d rows, seed %d) ---\n", len(r.Preview), r.Seed)
	buf.WriteString(previewTable(r).String())

	d := r.Response
	buf.WriteString("\n--- Response summary ---\n")
	fmt.Fprintf(&buf, "Mean of %s:     %.2f\n", d.Name, d.Mean)
	fmt.Fprintf(&buf, "Variance of %s: %.2f\n", d.Name, d.Variance)
	fmt.Fprintf(&buf, "Min / median / max:   %g / %g / %g\n", d.Min, d.Median, d.Max)
	fmt.Fprintf(&buf, "Variance/mean ratio:  %.2f\n", d.Ratio)
	buf.WriteString("(A variance much larger than the mean suggests overdispersion.  Between-subject\n")
	buf.WriteString("differences in the predictors also raise the marginal ratio.)\n")

	buf.WriteString("\n--- Poisson regression results ---\n")
	buf.WriteString(coefTable(r).String())

	m := r.Model
	fmt.Fprintf(&buf, "\nPearson chi2/df:      %.3f\n", m.Dispersion)
	if m.Overdispersed {
		fmt.Fprintf(&buf, "The residual dispersion exceeds %g, the data are overdispersed relative to\n", OverdispersionRatio)
		buf.WriteString("the Poisson model and the standard errors are too small.\n")
	}

	buf.WriteString("\n--- Conclusion ---\n")
	buf.WriteString(r.Conclusion + "\n")

	_, err := io.WriteString(w.output, buf.String())
	return err
}

// Right-aligned strings
func fmtStrings(x interface{}, h string) []string {
	return x.([]string)
}

// Left-aligned strings padded to a common width
func fmtNames(x interface{}, h string) []string {
	y := x.([]string)
	m := len(h)
	for _, v := range y {
		if len(v) > m {
			m = len(v)
		}
	}
	z := make([]string, len(y))
	for i, v := range y {
		z[i] = fmt.Sprintf("%-*s", m, v)
	}
	return z
}

func fmtNumbers(prec int) statmodel.Fmter {
	return func(x interface{}, h string) []string {
		var s []string
		for _, v := range x.([]float64) {
			s = append(s, strconv.FormatFloat(v, 'f', prec, 64))
		}
		return s
	}
}

func previewTable(r *Report) *statmodel.SummaryTable {

	var idx, style, count []string
	var risk []float64
	for i, o := range r.Preview {
		idx = append(idx, strconv.Itoa(i))
		risk = append(risk, o.PeerRisk)
		style = append(style, strconv.Itoa(o.ParentingStyle))
		count = append(count, strconv.Itoa(o.MonthlyIncidents))
	}

	return &statmodel.SummaryTable{
		ColNames: []string{"", "PeerRisk", "ParentingStyle", "MonthlyIncidents"},
		ColFmt:   []statmodel.Fmter{fmtStrings, fmtNumbers(6), fmtStrings, fmtStrings},
		Cols:     []interface{}{idx, risk, style, count},
	}
}

func coefTable(r *Report) *statmodel.SummaryTable {

	m := r.Model
	top := []string{
		fmt.Sprintf("Dep. Variable:    %s", m.DepVar),
		fmt.Sprintf("No. Observations: %d", m.NumObs),
		fmt.Sprintf("Family:           %s", m.Family),
		fmt.Sprintf("Df Residuals:     %d", m.DfResid),
		fmt.Sprintf("Link:             %s", m.Link),
		fmt.Sprintf("Df Model:         %d", m.DfModel),
		fmt.Sprintf("Scale:            %.4f", m.Scale),
		fmt.Sprintf("Log-Likelihood:   %.3f", m.LogLike),
		fmt.Sprintf("Deviance:         %.3f", m.Deviance),
		fmt.Sprintf("Pearson chi2:     %.3f", m.PearsonChi2),
		fmt.Sprintf("No. Iterations:   %d", m.Iterations),
	}

	var names []string
	var est, se, z, p, lcb, ucb []float64
	for _, c := range r.Coefficients {
		names = append(names, c.Name)
		est = append(est, c.Estimate)
		se = append(se, c.StdErr)
		z = append(z, c.Z)
		p = append(p, c.P)
		lcb = append(lcb, c.Lower)
		ucb = append(ucb, c.Upper)
	}

	return &statmodel.SummaryTable{
		Title:    "Generalized Linear Model Regression Results",
		Top:      top,
		ColNames: []string{"", "coef", "std err", "z", "P>|z|", "[0.025", "0.975]"},
		ColFmt: []statmodel.Fmter{fmtNames, fmtNumbers(4), fmtNumbers(3), fmtNumbers(3),
			fmtNumbers(3), fmtNumbers(3), fmtNumbers(3)},
		Cols: []interface{}{names, est, se, z, p, lcb, ucb},
	}
}
