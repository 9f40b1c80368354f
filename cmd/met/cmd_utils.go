package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/agrostat/met/report"
	"github.com/agrostat/met/trial"
)

// loadTable reads the CSV named by the persistent flags.
func loadTable() (*trial.Table, error) {
	if inputPath == "" {
		return nil, fmt.Errorf("no input: pass --input or set it in the config")
	}
	cols := Columns{Env: envColumn, Gen: genColumn, Rep: repColumn, Block: blockCol}
	t, err := LoadCSV(inputPath, cols, traitList)
	if err != nil {
		return nil, err
	}
	slog.Debug("table loaded",
		"rows", t.Len(), "traits", len(t.Traits()),
		"envs", len(t.Envs()), "gens", len(t.Gens()))
	return t, nil
}

// selectedTraits returns the explicit trait list or nil for "all".
func selectedTraits() []string {
	if len(traitList) == 0 {
		return nil
	}
	return traitList
}

// render routes a report to stdout or to --output.
func render(fn func(io.Writer) error) error {
	if outputPath == "" {
		return fn(os.Stdout)
	}
	if err := report.ToFile(outputPath, fn); err != nil {
		return err
	}
	slog.Info("report written", "path", outputPath)
	return nil
}

// reporter builds the Writer honoring --digits.
func reporter() report.Writer {
	return report.Writer{Digits: digits}
}

// logProgress is the shared per-trait progress callback.
func logProgress(trait string, index, total int) {
	slog.Info("analyzing trait", "trait", trait, "index", index+1, "total", total)
}
