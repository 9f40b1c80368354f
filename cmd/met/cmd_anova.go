package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agrostat/met/anova"
)

var anovaPerEnv bool

var anovaCmd = &cobra.Command{
	Use:   "anova",
	Short: "Joint (and optionally per-environment) analysis of variance",
	RunE:  runAnova,
}

func init() {
	anovaCmd.Flags().BoolVar(&anovaPerEnv, "per-env", false,
		"add the within-environment analysis per trait")
	rootCmd.AddCommand(anovaCmd)
}

func runAnova(_ *cobra.Command, _ []string) error {
	t, err := loadTable()
	if err != nil {
		return err
	}
	opts := anova.DefaultOptions()
	opts.Progress = logProgress

	traits := selectedTraits()
	if traits == nil {
		traits = t.Traits()
	}

	w := reporter()
	return render(func(out io.Writer) error {
		for _, trait := range traits {
			joint, err := anova.Joint(t, trait, opts)
			if err != nil {
				return err
			}
			if err := w.WriteJointANOVA(out, joint); err != nil {
				return err
			}
		}
		if !anovaPerEnv {
			return nil
		}
		ind, err := anova.Individual(t, traits, anova.DefaultOptions())
		if err != nil {
			return err
		}
		return w.WriteIndividualANOVA(out, ind)
	})
}
