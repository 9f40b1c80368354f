package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/agrostat/met/cancorr"
	"github.com/agrostat/met/trial"
)

var (
	cancorrFirst  []string
	cancorrSecond []string
	cancorrTest   string
)

var cancorrCmd = &cobra.Command{
	Use:   "cancorr",
	Short: "Canonical correlation between two trait groups",
	Long: `Computes canonical correlations between two groups of traits over
the genotype means of the trial (mean across environments and
replicates per genotype).`,
	RunE: runCancorr,
}

func init() {
	cancorrCmd.Flags().StringSliceVar(&cancorrFirst, "first", nil,
		"traits of the first group (required)")
	cancorrCmd.Flags().StringSliceVar(&cancorrSecond, "second", nil,
		"traits of the second group (required)")
	cancorrCmd.Flags().StringVar(&cancorrTest, "test", string(cancorr.Bartlett),
		"significance approximation: bartlett or rao")
	rootCmd.AddCommand(cancorrCmd)
}

func runCancorr(_ *cobra.Command, _ []string) error {
	if len(cancorrFirst) == 0 || len(cancorrSecond) == 0 {
		return fmt.Errorf("cancorr needs --first and --second trait groups")
	}
	t, err := loadTable()
	if err != nil {
		return err
	}

	first, err := genotypeMeans(t, cancorrFirst)
	if err != nil {
		return err
	}
	second, err := genotypeMeans(t, cancorrSecond)
	if err != nil {
		return err
	}

	res, err := cancorr.CanCorr(first, second,
		cancorr.Names{First: cancorrFirst, Second: cancorrSecond},
		cancorr.Options{Test: cancorr.Test(cancorrTest)})
	if err != nil {
		return err
	}
	w := reporter()
	return render(func(out io.Writer) error { return w.WriteCanCorr(out, res) })
}

// genotypeMeans builds the genotype × trait matrix of across-
// environment means.
func genotypeMeans(t *trial.Table, traits []string) (*mat.Dense, error) {
	gens := t.Gens()
	m := mat.NewDense(len(gens), len(traits), nil)
	for j, trait := range traits {
		ge, err := t.GEMatrix(trait)
		if err != nil {
			return nil, err
		}
		means, _, _, err := ge.Margins()
		if err != nil {
			return nil, fmt.Errorf("trait %q: %w", trait, err)
		}
		for i := range gens {
			m.Set(i, j, means[i])
		}
	}
	return m, nil
}
