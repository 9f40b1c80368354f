package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/agrostat/met/ammi"
)

var (
	ammiImpute bool
	ammiNAxes  int
)

var ammiCmd = &cobra.Command{
	Use:   "ammi",
	Short: "AMMI decomposition of the genotype × environment interaction",
	RunE:  runAmmi,
}

func init() {
	ammiCmd.Flags().BoolVar(&ammiImpute, "impute", false,
		"fill missing genotype × environment cells by EM-SVD before the fit")
	ammiCmd.Flags().IntVar(&ammiNAxes, "naxis", 0,
		"also print the predicted means at this truncation rank")
	rootCmd.AddCommand(ammiCmd)
}

func runAmmi(_ *cobra.Command, _ []string) error {
	t, err := loadTable()
	if err != nil {
		return err
	}
	opts := ammi.DefaultOptions()
	opts.Impute = ammiImpute
	opts.Progress = logProgress

	models, err := ammi.FitAll(t, selectedTraits(), opts)
	if err != nil {
		return err
	}
	for _, m := range models {
		for _, warn := range m.Warnings {
			slog.Warn(warn, "trait", m.Trait)
		}
	}

	w := reporter()
	return render(func(out io.Writer) error {
		for _, m := range models {
			if err := w.WriteAMMI(out, m); err != nil {
				return err
			}
			if ammiNAxes > 0 {
				pred, err := m.Predict(ammiNAxes)
				if err != nil {
					return err
				}
				if err := w.WritePrediction(out, pred); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
