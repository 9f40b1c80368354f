package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agrostat/met/factanal"
)

var factanalMinEigen float64

var factanalCmd = &cobra.Command{
	Use:   "factanal",
	Short: "Environment stratification by factor analysis",
	RunE:  runFactanal,
}

func init() {
	factanalCmd.Flags().Float64Var(&factanalMinEigen, "min-eigenvalue", 1,
		"factor retention threshold")
	rootCmd.AddCommand(factanalCmd)
}

func runFactanal(_ *cobra.Command, _ []string) error {
	t, err := loadTable()
	if err != nil {
		return err
	}
	opts := factanal.DefaultOptions()
	opts.MinEigenvalue = factanalMinEigen
	opts.Progress = logProgress

	res, err := factanal.GEFactanal(t, selectedTraits(), opts)
	if err != nil {
		return err
	}
	w := reporter()
	return render(func(out io.Writer) error { return w.WriteFactanal(out, res) })
}
