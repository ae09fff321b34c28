package stats

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"ecoscape/internal/model"
)

// WriteSummaryCSV writes generation records to path, overwriting any
// existing file.
func WriteSummaryCSV(path string, rows []model.GenerationStats) error {
	return writeCSV(path, &rows)
}

// WriteRunIndexCSV writes run summaries to path, overwriting any existing
// file.
func WriteRunIndexCSV(path string, rows []model.RunSummary) error {
	return writeCSV(path, &rows)
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", model.ErrIO, path, err)
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %v", model.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", model.ErrIO, path, err)
	}
	return nil
}
