package trial

import (
	"fmt"
	"math"
	"sort"
)

// Table is a validated, immutable long-format trial table. Label
// columns (environment, genotype, replicate, optional block) and trait
// columns are row-aligned; NaN marks a missing trait value. Levels are
// reported in first-appearance order so results are stable across runs.
type Table struct {
	envs   []string
	gens   []string
	reps   []string
	blocks []string // "" everywhere when the design has no blocks

	traits map[string][]float64
	names  []string // sorted trait names

	envLevels []string
	genLevels []string
	repLevels []string
}

// New builds a Table from long-format records.
//
// Validation:
//   - at least one record, each with non-empty Env/Gen/Rep labels;
//   - the Environment × Genotype × Replicate key is unique;
//   - every trait seen anywhere becomes a column, missing entries → NaN.
//
// Errors: ErrEmptyTable, ErrMissingLabel, ErrDuplicateKey.
func New(records []Record) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	n := len(records)
	t := &Table{
		envs:   make([]string, n),
		gens:   make([]string, n),
		reps:   make([]string, n),
		blocks: make([]string, n),
		traits: make(map[string][]float64),
	}

	// Collect the union of trait names first so every column has full length.
	seenTrait := make(map[string]struct{})
	for i := range records {
		for name := range records[i].Values {
			if _, ok := seenTrait[name]; !ok {
				seenTrait[name] = struct{}{}
				t.names = append(t.names, name)
			}
		}
	}
	sort.Strings(t.names)
	for _, name := range t.names {
		col := make([]float64, n)
		for i := range col {
			col[i] = math.NaN()
		}
		t.traits[name] = col
	}

	seenKey := make(map[[3]string]struct{}, n)
	seenEnv := make(map[string]struct{})
	seenGen := make(map[string]struct{})
	seenRep := make(map[string]struct{})

	for i, rec := range records {
		if rec.Env == "" || rec.Gen == "" || rec.Rep == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrMissingLabel)
		}
		key := [3]string{rec.Env, rec.Gen, rec.Rep}
		if _, dup := seenKey[key]; dup {
			return nil, fmt.Errorf("%s/%s/%s: %w", rec.Env, rec.Gen, rec.Rep, ErrDuplicateKey)
		}
		seenKey[key] = struct{}{}

		t.envs[i], t.gens[i], t.reps[i], t.blocks[i] = rec.Env, rec.Gen, rec.Rep, rec.Block
		for name, v := range rec.Values {
			t.traits[name][i] = v
		}

		if _, ok := seenEnv[rec.Env]; !ok {
			seenEnv[rec.Env] = struct{}{}
			t.envLevels = append(t.envLevels, rec.Env)
		}
		if _, ok := seenGen[rec.Gen]; !ok {
			seenGen[rec.Gen] = struct{}{}
			t.genLevels = append(t.genLevels, rec.Gen)
		}
		if _, ok := seenRep[rec.Rep]; !ok {
			seenRep[rec.Rep] = struct{}{}
			t.repLevels = append(t.repLevels, rec.Rep)
		}
	}

	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.envs) }

// Traits returns the trait column names in sorted order.
func (t *Table) Traits() []string { return append([]string(nil), t.names...) }

// Envs returns the environment levels in first-appearance order.
func (t *Table) Envs() []string { return append([]string(nil), t.envLevels...) }

// Gens returns the genotype levels in first-appearance order.
func (t *Table) Gens() []string { return append([]string(nil), t.genLevels...) }

// Reps returns the replicate levels in first-appearance order.
func (t *Table) Reps() []string { return append([]string(nil), t.repLevels...) }

// HasBlocks reports whether any row carries an incomplete-block label,
// i.e. whether the trial follows a resolvable alpha-lattice design
// rather than randomized complete blocks.
func (t *Table) HasBlocks() bool {
	for _, b := range t.blocks {
		if b != "" {
			return true
		}
	}
	return false
}

// HasTrait reports whether the named trait column exists.
func (t *Table) HasTrait(name string) bool {
	_, ok := t.traits[name]
	return ok
}

// Row returns the labels and trait value of row i for the given trait.
func (t *Table) Row(i int, trait string) (env, gen, rep, block string, value float64, err error) {
	col, ok := t.traits[trait]
	if !ok {
		return "", "", "", "", 0, fmt.Errorf("%q: %w", trait, ErrUnknownTrait)
	}
	return t.envs[i], t.gens[i], t.reps[i], t.blocks[i], col[i], nil
}

// Value returns the trait value of row i (NaN when missing).
func (t *Table) Value(i int, trait string) (float64, error) {
	col, ok := t.traits[trait]
	if !ok {
		return 0, fmt.Errorf("%q: %w", trait, ErrUnknownTrait)
	}
	return col[i], nil
}

// DropMissing returns a copy of the table without the rows whose value
// for the given trait is missing, together with the number of rows
// removed. Callers surface a non-zero count as a data-quality warning.
//
// Errors: ErrUnknownTrait, ErrAllMissing (nothing left to analyze).
func (t *Table) DropMissing(trait string) (*Table, int, error) {
	col, ok := t.traits[trait]
	if !ok {
		return nil, 0, fmt.Errorf("%q: %w", trait, ErrUnknownTrait)
	}

	keep := make([]int, 0, len(col))
	for i, v := range col {
		if !math.IsNaN(v) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, len(col), fmt.Errorf("%q: %w", trait, ErrAllMissing)
	}
	if len(keep) == len(col) {
		return t, 0, nil
	}

	records := make([]Record, len(keep))
	for out, i := range keep {
		values := make(map[string]float64, len(t.names))
		for _, name := range t.names {
			if v := t.traits[name][i]; !math.IsNaN(v) {
				values[name] = v
			}
		}
		records[out] = Record{
			Env: t.envs[i], Gen: t.gens[i], Rep: t.reps[i], Block: t.blocks[i],
			Values: values,
		}
	}
	sub, err := New(records)
	if err != nil {
		return nil, 0, err
	}

	return sub, len(col) - len(keep), nil
}

// envIndex/genIndex build label → position lookups for aggregation.
func index(levels []string) map[string]int {
	m := make(map[string]int, len(levels))
	for i, s := range levels {
		m[s] = i
	}
	return m
}
