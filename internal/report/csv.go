package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/SimonSchneider/pefisim/internal/montecarlo"
)

// WriteCSV writes one row per trial with a leading trial index. Failed trials
// are left empty.
func WriteCSV(w io.Writer, t montecarlo.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"trial"}, t.Columns...)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(t.Columns)+1)
	for i, row := range t.Rows {
		record[0] = strconv.Itoa(i)
		for j, v := range row {
			if math.IsNaN(v) {
				record[j+1] = ""
				continue
			}
			record[j+1] = strconv.FormatFloat(v, 'f', 2, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing trial %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(r io.Reader) (montecarlo.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return montecarlo.Table{}, fmt.Errorf("reading results: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != "trial" {
		return montecarlo.Table{}, fmt.Errorf("missing trial header")
	}
	t := montecarlo.Table{Columns: records[0][1:]}
	for n, rec := range records[1:] {
		row := make([]float64, len(t.Columns))
		for j, field := range rec[1:] {
			if field == "" {
				row[j] = math.NaN()
				continue
			}
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return montecarlo.Table{}, fmt.Errorf("row %d column %q: %w", n+1, t.Columns[j], err)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
