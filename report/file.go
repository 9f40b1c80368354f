package report

import (
	"fmt"
	"io"
	"os"
)

// ToFile opens path, hands the file to fn and closes it afterwards.
// Write and close failures both surface; the render error wins when
// both happen.
func ToFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	renderErr := fn(f)
	closeErr := f.Close()
	if renderErr != nil {
		return fmt.Errorf("report: write %s: %w", path, renderErr)
	}
	if closeErr != nil {
		return fmt.Errorf("report: close %s: %w", path, closeErr)
	}
	return nil
}
