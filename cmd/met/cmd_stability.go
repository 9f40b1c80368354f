package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agrostat/met/stability"
)

var foxCmd = &cobra.Command{
	Use:   "fox",
	Short: "Fox nonparametric stability (TOP-third counts)",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		opts := stability.DefaultOptions()
		opts.Progress = logProgress
		res, err := stability.Fox(t, selectedTraits(), opts)
		if err != nil {
			return err
		}
		w := reporter()
		return render(func(out io.Writer) error { return w.WriteFox(out, res) })
	},
}

var shuklaCmd = &cobra.Command{
	Use:   "shukla",
	Short: "Shukla stability variance with the combined selection index",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		opts := stability.DefaultOptions()
		opts.Progress = logProgress
		res, err := stability.Shukla(t, selectedTraits(), opts)
		if err != nil {
			return err
		}
		w := reporter()
		return render(func(out io.Writer) error { return w.WriteShukla(out, res) })
	},
}

func init() {
	rootCmd.AddCommand(foxCmd, shuklaCmd)
}
