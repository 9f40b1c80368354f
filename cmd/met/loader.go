package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/agrostat/met/trial"
)

// Columns names the identifier columns of the long-format CSV. Block
// is optional; the empty name disables it.
type Columns struct {
	Env, Gen, Rep, Block string
}

// LoadCSV reads a long-format trial CSV into a table. Every column
// that is not an identifier becomes a trait unless traits narrows the
// set. Empty cells, "NA" and "NaN" mark missing values; anything else
// that fails to parse as a number is reported with its row and column.
func LoadCSV(path string, cols Columns, traits []string) (*trial.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readCSV(f, path, cols, traits)
}

func readCSV(r io.Reader, path string, cols Columns, traits []string) (*trial.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	need := func(name, role string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%s: no %s column %q in header %v", path, role, name, header)
		}
		return i, nil
	}
	envIdx, err := need(cols.Env, "environment")
	if err != nil {
		return nil, err
	}
	genIdx, err := need(cols.Gen, "genotype")
	if err != nil {
		return nil, err
	}
	repIdx, err := need(cols.Rep, "replicate")
	if err != nil {
		return nil, err
	}
	blockIdx := -1
	if cols.Block != "" {
		if blockIdx, err = need(cols.Block, "block"); err != nil {
			return nil, err
		}
	}

	idCols := map[int]bool{envIdx: true, genIdx: true, repIdx: true}
	if blockIdx >= 0 {
		idCols[blockIdx] = true
	}

	traitIdx := map[string]int{}
	if traits == nil {
		for i, name := range header {
			if !idCols[i] {
				traitIdx[strings.TrimSpace(name)] = i
			}
		}
	} else {
		for _, name := range traits {
			i, err := need(name, "trait")
			if err != nil {
				return nil, err
			}
			traitIdx[name] = i
		}
	}
	if len(traitIdx) == 0 {
		return nil, fmt.Errorf("%s: no trait columns", path)
	}

	var records []trial.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		rec := trial.Record{
			Env:    strings.TrimSpace(row[envIdx]),
			Gen:    strings.TrimSpace(row[genIdx]),
			Rep:    strings.TrimSpace(row[repIdx]),
			Values: make(map[string]float64, len(traitIdx)),
		}
		if blockIdx >= 0 {
			rec.Block = strings.TrimSpace(row[blockIdx])
		}
		for trait, i := range traitIdx {
			v, err := parseValue(row[i])
			if err != nil {
				return nil, fmt.Errorf("%s line %d, column %q: %w", path, line, trait, err)
			}
			rec.Values[trait] = v
		}
		records = append(records, rec)
	}

	return trial.New(records)
}

// parseValue maps the missing-value spellings to NaN and everything
// else through strconv.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "NaN", ".":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}
