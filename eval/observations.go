package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	degkit "github.com/degkit/degkit"
)

// Expected header columns for observation workbooks. Column order is free;
// matching is by lowercase header name. smiles, stress, metric, and mean are
// required; std, n, and source are optional.
var observationColumns = map[string]bool{
	"smiles": true, "stress": true, "metric": true, "mean": true,
	"std": false, "n": false, "source": false,
}

// LoadObservationsXLSX reads measured stress-study results from the first
// sheet of an Excel workbook. The first row must be a header naming the
// columns; blank rows are skipped.
func LoadObservationsXLSX(path string) ([]degkit.ObservationInput, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheets[0])
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var obs []degkit.ObservationInput
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		o, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheets[0])
	}
	return obs, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, known := observationColumns[key]; known {
			cols[key] = i
		}
	}
	for name, required := range observationColumns {
		if _, ok := cols[name]; required && !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (degkit.ObservationInput, error) {
	o := degkit.ObservationInput{
		SMILES: cell(row, cols, "smiles"),
		Stress: strings.ToLower(cell(row, cols, "stress")),
		Metric: strings.ToLower(cell(row, cols, "metric")),
		Source: cell(row, cols, "source"),
	}
	if o.SMILES == "" {
		return o, fmt.Errorf("empty smiles")
	}
	if o.Stress == "" || o.Metric == "" {
		return o, fmt.Errorf("empty stress or metric")
	}

	mean, err := strconv.ParseFloat(cell(row, cols, "mean"), 64)
	if err != nil {
		return o, fmt.Errorf("parsing mean: %w", err)
	}
	o.Mean = mean

	if v := cell(row, cols, "std"); v != "" {
		std, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, fmt.Errorf("parsing std: %w", err)
		}
		o.Std = std
	}
	if v := cell(row, cols, "n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("parsing n: %w", err)
		}
		o.N = n
	}
	return o, nil
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
