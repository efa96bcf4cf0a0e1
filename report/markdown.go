package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(r *Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Poisson Regression Report")
	md.PlainText("")

	w.writePreview(md, r)
	w.writeResponse(md, r)
	w.writeModel(md, r)
	w.writeCoefficients(md, r)
	w.writeConclusion(md, r)

	return md.Build()
}

func ff(x float64, prec int) string {
	return strconv.FormatFloat(x, 'f', prec, 64)
}

// writePreview writes the first rows of the simulated data.
func (w *MarkdownWriter) writePreview(md *markdown.Markdown, r *Report) {
	md.H2("Simulated Data")
	md.PlainText("")

	rows := make([][]string, 0, len(r.Preview))
	for i, o := range r.Preview {
		rows = append(rows, []string{
			strconv.Itoa(i),
			ff(o.PeerRisk, 6),
			strconv.Itoa(o.ParentingStyle),
			strconv.Itoa(o.MonthlyIncidents),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"", "PeerRisk", "ParentingStyle", "MonthlyIncidents"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeResponse writes the descriptive statistics and the overdispersion
// check.
func (w *MarkdownWriter) writeResponse(md *markdown.Markdown, r *Report) {
	d := r.Response

	md.H2("Response Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Statistic", "Value"},
		Rows: [][]string{
			{"Observations", strconv.Itoa(d.N)},
			{"Mean", ff(d.Mean, 2)},
			{"Variance", ff(d.Variance, 2)},
			{"Minimum", ff(d.Min, 0)},
			{"Median", ff(d.Median, 1)},
			{"Maximum", ff(d.Max, 0)},
			{"Variance/mean", ff(d.Ratio, 2)},
		},
	})
	md.PlainText("")

	md.Note("A variance much larger than the mean suggests overdispersion. Differences in the predictors between subjects also raise the marginal ratio.")
	md.PlainText("")
}

// writeModel writes the model-level fit statistics.
func (w *MarkdownWriter) writeModel(md *markdown.Markdown, r *Report) {
	m := r.Model

	md.H2("Model")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Dep. Variable", m.DepVar},
			{"No. Observations", strconv.Itoa(m.NumObs)},
			{"Df Residuals", strconv.Itoa(m.DfResid)},
			{"Df Model", strconv.Itoa(m.DfModel)},
			{"Family", m.Family},
			{"Link", m.Link},
			{"Scale", ff(m.Scale, 4)},
			{"Log-Likelihood", ff(m.LogLike, 3)},
			{"Deviance", ff(m.Deviance, 3)},
			{"Pearson chi2", ff(m.PearsonChi2, 3)},
			{"No. Iterations", strconv.Itoa(m.Iterations)},
			{"Pearson chi2/df", ff(m.Dispersion, 3)},
		},
	})
	md.PlainText("")

	if m.Overdispersed {
		md.Warningf("The Pearson chi2/df of %.2f exceeds %g, the data are overdispersed relative to the Poisson model.",
			m.Dispersion, OverdispersionRatio)
		md.PlainText("")
	}
}

// writeCoefficients writes the coefficient table.
func (w *MarkdownWriter) writeCoefficients(md *markdown.Markdown, r *Report) {
	md.H2("Coefficients")
	md.PlainText("")

	rows := make([][]string, 0, len(r.Coefficients))
	for _, c := range r.Coefficients {
		rows = append(rows, []string{
			"`" + c.Name + "`",
			ff(c.Estimate, 4),
			ff(c.StdErr, 3),
			ff(c.Z, 3),
			ff(c.P, 3),
			ff(c.Lower, 3),
			ff(c.Upper, 3),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Variable", "coef", "std err", "z", "P>\\|z\\|", "[0.025", "0.975]"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeConclusion writes the significance conclusion.
func (w *MarkdownWriter) writeConclusion(md *markdown.Markdown, r *Report) {
	md.H2("Conclusion")
	md.PlainText("")
	md.PlainText(r.Conclusion)
	md.PlainText("")

	if len(r.Significant) > 0 {
		md.BulletList(r.Significant...)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainTextf("*Seed %d, significance level %g*", r.Seed, Alpha)
}
