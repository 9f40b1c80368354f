package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	inputPath  string
	envColumn  string
	genColumn  string
	repColumn  string
	blockCol   string
	traitList  []string
	digits     int
	outputPath string
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "met",
	Short: "Multi-environment trial analysis",
	Long: `met analyzes multi-environment plant-breeding trials from a
long-format CSV (one row per plot): joint and per-environment ANOVA,
AMMI decomposition of the genotype × environment interaction, Fox and
Shukla stability indices, environment stratification by factor
analysis, canonical correlation between trait groups and the FAI-BLUP
selection index.

The CSV needs one column each for environment, genotype and replicate
(block optional, for alpha-lattice designs); every other column is
treated as a numeric trait unless --traits narrows the set.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&inputPath, "input", "i", "", "path of the long-format trial CSV")
	pf.StringVar(&envColumn, "env", "ENV", "environment column name")
	pf.StringVar(&genColumn, "gen", "GEN", "genotype column name")
	pf.StringVar(&repColumn, "rep", "REP", "replicate column name")
	pf.StringVar(&blockCol, "block", "", "incomplete-block column name (alpha-lattice)")
	pf.StringSliceVar(&traitList, "traits", nil, "traits to analyze (default: every numeric column)")
	pf.IntVar(&digits, "digits", 4, "fractional digits in reports")
	pf.StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&configPath, "config", "", "YAML file carrying the same settings")
}

// setup wires logging and folds an optional YAML config under any
// flags the user did not set explicitly.
func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if configPath == "" {
		return nil
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.apply(cmd)
	slog.Debug("config loaded", "path", configPath)
	return nil
}
