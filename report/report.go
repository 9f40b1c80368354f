package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/agrostat/met/ammi"
	"github.com/agrostat/met/anova"
	"github.com/agrostat/met/cancorr"
	"github.com/agrostat/met/factanal"
	"github.com/agrostat/met/faiblup"
	"github.com/agrostat/met/stability"
)

// Writer renders results with a fixed number of fractional digits.
// The zero value prints integers; NewWriter applies the conventional
// default of 4.
type Writer struct {
	Digits int
}

// NewWriter returns a Writer with 4 fractional digits.
func NewWriter() Writer { return Writer{Digits: 4} }

// num formats a float; NaN renders as an empty cell.
func (w Writer) num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.*f", w.Digits, v)
}

func tw(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

// WriteJointANOVA renders a joint ANOVA table.
func (w Writer) WriteJointANOVA(out io.Writer, r *anova.JointResult) error {
	fmt.Fprintf(out, "Joint ANOVA — trait %s (%s design, %d gen × %d env × %d rep)\n",
		r.Trait, r.Design, r.NGen, r.NEnv, r.NRep)
	if r.Dropped > 0 {
		fmt.Fprintf(out, "dropped %d row(s) with missing values\n", r.Dropped)
	}
	fmt.Fprintf(out, "grand mean %s, CV %s%%\n\n", w.num(r.GrandMean), w.num(r.CV))

	t := tw(out)
	fmt.Fprintln(t, "Source\tDF\tSS\tMS\tF\tP")
	for _, row := range r.Rows {
		fmt.Fprintf(t, "%s\t%d\t%s\t%s\t%s\t%s\n",
			row.Source, row.DF, w.num(row.SS), w.num(row.MS), w.num(row.F), w.num(row.P))
	}
	return t.Flush()
}

// WriteIndividualANOVA renders the within-environment summary per
// trait: one line per environment plus its ANOVA rows.
func (w Writer) WriteIndividualANOVA(out io.Writer, r *anova.IndividualResult) error {
	for _, te := range r.Traits {
		fmt.Fprintf(out, "Within-environment ANOVA — trait %s\n", te.Trait)
		t := tw(out)
		fmt.Fprintln(t, "Environment\tMean\tCV%\th²\tGenVar\tResidVar")
		for _, er := range te.Envs {
			fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\t%s\n",
				er.Env, w.num(er.Mean), w.num(er.CV), w.num(er.Heritability),
				w.num(er.GenVar), w.num(er.ResidVar))
		}
		if err := t.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

// WriteAMMI renders the AMMI anova table, the axis summary and the
// interaction scores.
func (w Writer) WriteAMMI(out io.Writer, m *ammi.Model) error {
	fmt.Fprintf(out, "AMMI — trait %s (%d gen × %d env, r=%s)\n",
		m.Trait, len(m.Gens), len(m.Envs), w.num(m.Replicates))
	for _, warn := range m.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warn)
	}
	fmt.Fprintf(out, "grand mean %s\n\n", w.num(m.GrandMean))

	t := tw(out)
	fmt.Fprintln(t, "Source\tDF\tSS\tMS\tF\tP")
	for _, row := range m.Anova {
		fmt.Fprintf(t, "%s\t%d\t%s\t%s\t%s\t%s\n",
			row.Source, row.DF, w.num(row.SS), w.num(row.MS), w.num(row.F), w.num(row.P))
	}
	if err := t.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	t = tw(out)
	fmt.Fprintln(t, "Axis\tSingular value\tPercent\tCumulative")
	for _, ax := range m.Axes {
		fmt.Fprintf(t, "PC%d\t%s\t%s\t%s\n",
			ax.Index, w.num(ax.SingularValue), w.num(ax.Percent), w.num(ax.CumPercent))
	}
	if err := t.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	t = tw(out)
	fmt.Fprint(t, "Genotype")
	for k := 1; k <= m.Minimo(); k++ {
		fmt.Fprintf(t, "\tPC%d", k)
	}
	fmt.Fprintln(t)
	for i, gen := range m.Gens {
		fmt.Fprint(t, gen)
		for k := 0; k < m.Minimo(); k++ {
			fmt.Fprintf(t, "\t%s", w.num(m.GenScores.At(i, k)))
		}
		fmt.Fprintln(t)
	}
	fmt.Fprint(t, "Environment")
	for k := 1; k <= m.Minimo(); k++ {
		fmt.Fprintf(t, "\tPC%d", k)
	}
	fmt.Fprintln(t)
	for j, env := range m.Envs {
		fmt.Fprint(t, env)
		for k := 0; k < m.Minimo(); k++ {
			fmt.Fprintf(t, "\t%s", w.num(m.EnvScores.At(j, k)))
		}
		fmt.Fprintln(t)
	}
	return t.Flush()
}

// WritePrediction renders the genotype × environment matrix of AMMI
// predicted means.
func (w Writer) WritePrediction(out io.Writer, p *ammi.Prediction) error {
	fmt.Fprintf(out, "AMMI prediction — trait %s, %d axis/axes\n", p.Trait, p.NAxes)
	t := tw(out)
	fmt.Fprint(t, "Genotype")
	for _, env := range p.Envs {
		fmt.Fprintf(t, "\t%s", env)
	}
	fmt.Fprintln(t)
	for i, gen := range p.Gens {
		fmt.Fprint(t, gen)
		for j := range p.Envs {
			fmt.Fprintf(t, "\t%s", w.num(p.YpredAMMI.At(i, j)))
		}
		fmt.Fprintln(t)
	}
	return t.Flush()
}

// WriteFox renders the Fox TOP tables.
func (w Writer) WriteFox(out io.Writer, r *stability.FoxResult) error {
	for _, ft := range r.Traits {
		fmt.Fprintf(out, "Fox stability — trait %s\n", ft.Trait)
		t := tw(out)
		fmt.Fprintln(t, "Genotype\tMean\tTOP")
		for _, e := range ft.Entries {
			fmt.Fprintf(t, "%s\t%s\t%d\n", e.Gen, w.num(e.Mean), e.TOP)
		}
		if err := t.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

// WriteShukla renders the Shukla variance tables.
func (w Writer) WriteShukla(out io.Writer, r *stability.ShuklaResult) error {
	for _, st := range r.Traits {
		fmt.Fprintf(out, "Shukla stability — trait %s\n", st.Trait)
		t := tw(out)
		fmt.Fprintln(t, "Genotype\tMean\tVariance\tRankMean\tRankVar\tSSI")
		for _, e := range st.Entries {
			fmt.Fprintf(t, "%s\t%s\t%s\t%d\t%d\t%d\n",
				e.Gen, w.num(e.Mean), w.num(e.Variance), e.RankMean, e.RankVar, e.SSI)
		}
		if err := t.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

// WriteFactanal renders the environment stratification tables.
func (w Writer) WriteFactanal(out io.Writer, r *factanal.Result) error {
	for _, tf := range r.Traits {
		fmt.Fprintf(out, "Environment factor analysis — trait %s (%d factor(s) retained)\n",
			tf.Trait, tf.NFactors)

		t := tw(out)
		fmt.Fprintln(t, "Factor\tEigenvalue\tPercent\tCumulative")
		for k := 0; k < tf.NFactors; k++ {
			fmt.Fprintf(t, "FA%d\t%s\t%s\t%s\n",
				k+1, w.num(tf.Eigenvalues[k]), w.num(tf.Explained[k]), w.num(tf.Cumulative[k]))
		}
		if err := t.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(out)
		t = tw(out)
		fmt.Fprint(t, "Environment")
		for k := 1; k <= tf.NFactors; k++ {
			fmt.Fprintf(t, "\tFA%d", k)
		}
		fmt.Fprintln(t, "\tCommunality\tCluster")
		for i, env := range tf.Envs {
			fmt.Fprint(t, env)
			for k := 0; k < tf.NFactors; k++ {
				fmt.Fprintf(t, "\t%s", w.num(tf.Loadings.At(i, k)))
			}
			fmt.Fprintf(t, "\t%s\tFA%d\n", w.num(tf.Communality[i]), tf.Cluster[i]+1)
		}
		if err := t.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

// WriteCanCorr renders correlations, significance tests and loadings.
func (w Writer) WriteCanCorr(out io.Writer, r *cancorr.Result) error {
	fmt.Fprintf(out, "Canonical correlation (%s test)\n", r.Test)

	t := tw(out)
	fmt.Fprintln(t, "Pair\tCorrelation\tWilks Λ\tStatistic\tDF1\tDF2\tP")
	for i, row := range r.Tests {
		df2 := ""
		if row.DF2 > 0 {
			df2 = w.num(row.DF2)
		}
		fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Pair, w.num(r.Correlations[i]), w.num(row.WilksLambda),
			w.num(row.Statistic), w.num(row.DF1), df2, w.num(row.P))
	}
	if err := t.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	t = tw(out)
	fmt.Fprintln(t, "Variable\tSet\tLoadings…")
	writeLoadings := func(vars []string, set string, loadings interface{ At(i, j int) float64 }, m int) {
		for i, v := range vars {
			fmt.Fprintf(t, "%s\t%s", v, set)
			for k := 0; k < m; k++ {
				fmt.Fprintf(t, "\t%s", w.num(loadings.At(i, k)))
			}
			fmt.Fprintln(t)
		}
	}
	m := len(r.Correlations)
	writeLoadings(r.FirstVars, "first", r.FirstLoadings, m)
	writeLoadings(r.SecondVars, "second", r.SecondLoadings, m)
	return t.Flush()
}

// WriteFAI renders the selection summary of the FAI-BLUP index.
func (w Writer) WriteFAI(out io.Writer, r *faiblup.Result) error {
	fmt.Fprintf(out, "FAI-BLUP — %d genotypes × %d traits, %d factor(s), intensity %s%%\n",
		len(r.Gens), len(r.Traits), r.Factors.NFactors, w.num(r.SelectionIntensity))

	t := tw(out)
	fmt.Fprintln(t, "Genotype\tP(ID1)\tRank")
	for i, gen := range r.Gens {
		fmt.Fprintf(t, "%s\t%s\t%d\n", gen, w.num(r.Probabilities.At(i, 0)), r.Ranks[i][0])
	}
	if err := t.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nselected: %v\n\n", r.Selected)

	t = tw(out)
	fmt.Fprintln(t, "Trait\tMean all\tMean selected\tDifferential\tPercent")
	for _, d := range r.Differentials {
		fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\n",
			d.Trait, w.num(d.MeanAll), w.num(d.MeanSelected),
			w.num(d.Differential), w.num(d.Percent))
	}
	return t.Flush()
}
