package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agrostat/met/faiblup"
)

var (
	faiMinimize  []string
	faiIntensity float64
	faiMinEigen  float64
)

var faiCmd = &cobra.Command{
	Use:   "fai",
	Short: "FAI-BLUP multi-trait selection index",
	Long: `Ranks genotypes with the FAI-BLUP index over the genotype means of
the selected traits. Traits listed under --minimize count their low end
as desirable (lodging, disease scores); everything else is
higher-is-better.`,
	RunE: runFai,
}

func init() {
	faiCmd.Flags().StringSliceVar(&faiMinimize, "minimize", nil,
		"traits whose low end is desirable")
	faiCmd.Flags().Float64Var(&faiIntensity, "intensity", 15,
		"selection intensity in percent")
	faiCmd.Flags().Float64Var(&faiMinEigen, "min-eigenvalue", 1,
		"factor retention threshold")
	rootCmd.AddCommand(faiCmd)
}

func runFai(_ *cobra.Command, _ []string) error {
	t, err := loadTable()
	if err != nil {
		return err
	}
	traits := selectedTraits()
	if traits == nil {
		traits = t.Traits()
	}

	minimize := map[string]bool{}
	for _, name := range faiMinimize {
		minimize[name] = true
	}
	directions := make([]faiblup.Direction, len(traits))
	for i, trait := range traits {
		if minimize[trait] {
			directions[i] = faiblup.Min
		}
	}

	opts := faiblup.Options{
		Desirable:          directions,
		MinEigenvalue:      faiMinEigen,
		SelectionIntensity: faiIntensity,
	}
	res, err := faiblup.FromTable(t, traits, opts)
	if err != nil {
		return err
	}
	w := reporter()
	return render(func(out io.Writer) error { return w.WriteFAI(out, res) })
}
