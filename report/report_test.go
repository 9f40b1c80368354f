package report_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrostat/met/ammi"
	"github.com/agrostat/met/anova"
	"github.com/agrostat/met/report"
	"github.com/agrostat/met/stability"
	"github.com/agrostat/met/trial"
)

// reportTable builds a small balanced trial shared by the rendering
// tests.
func reportTable(t *testing.T) *trial.Table {
	t.Helper()
	var records []trial.Record
	for ei, env := range []string{"E1", "E2", "E3"} {
		for gi, gen := range []string{"G1", "G2", "G3", "G4"} {
			for ri, rep := range []string{"R1", "R2"} {
				y := 20 + 3*float64(gi) + 2*float64(ei) +
					0.7*float64(gi)*float64(ei) + 0.5*float64(ri) +
					0.1*float64((gi+ei+ri)%3)
				records = append(records, trial.Record{
					Env: env, Gen: gen, Rep: rep,
					Values: map[string]float64{"Y": y},
				})
			}
		}
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)
	return tbl
}

// TestWriteJointANOVA renders every table row and the header facts.
func TestWriteJointANOVA(t *testing.T) {
	res, err := anova.Joint(reportTable(t), "Y", anova.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.NewWriter().WriteJointANOVA(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "trait Y")
	for _, src := range []string{"ENV", "REP(ENV)", "GEN", "GEN:ENV", "Residual", "Total"} {
		assert.Contains(t, out, src)
	}
	assert.Contains(t, out, "grand mean")
}

// TestWriteAMMI renders the axis summary and the score blocks.
func TestWriteAMMI(t *testing.T) {
	m, err := ammi.Fit(reportTable(t), "Y", ammi.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.NewWriter().WriteAMMI(&buf, m))
	out := buf.String()

	assert.Contains(t, out, "AMMI — trait Y")
	assert.Contains(t, out, "PC1")
	assert.Contains(t, out, "Genotype")
	assert.Contains(t, out, "Environment")
	assert.Contains(t, out, "G4")
	assert.Contains(t, out, "E3")
}

// TestWriteStability renders Fox and Shukla tables.
func TestWriteStability(t *testing.T) {
	tbl := reportTable(t)
	w := report.Writer{Digits: 2}

	fox, err := stability.Fox(tbl, nil, stability.DefaultOptions())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, w.WriteFox(&buf, fox))
	assert.Contains(t, buf.String(), "TOP")

	shukla, err := stability.Shukla(tbl, nil, stability.DefaultOptions())
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, w.WriteShukla(&buf, shukla))
	assert.Contains(t, buf.String(), "SSI")
	assert.Contains(t, buf.String(), "RankMean")
}

// TestToFile verifies the scoped write and the error propagation.
func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := report.ToFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	err = report.ToFile(filepath.Join(t.TempDir(), "no", "such", "dir.txt"),
		func(io.Writer) error { return nil })
	assert.Error(t, err, "unreachable path must surface")
}
