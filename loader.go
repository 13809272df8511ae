package gaitstat

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
)

// Open loads a phase-indexed recording table from a CSV or Parquet file and
// wraps it as a Dataset. The format is chosen by file extension. The table
// must carry the subject, task, and phase columns named in cfg plus at least
// one feature column; anything else is a construction-time SchemaError.
func Open(path string, cfg Config) (*Dataset, error) {
	cfg = cfg.withDefaults()

	var (
		table *Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		table, err = loadCSVTable(path, cfg)
	case ".parquet":
		table, err = loadParquetTable(path, cfg)
	default:
		return nil, fmt.Errorf("unsupported table format %q (expected .csv or .parquet)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return NewDataset(table, cfg)
}

func loadCSVTable(path string, cfg Config) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv table: %w", err)
	}
	if len(rows) < 2 {
		return nil, &SchemaError{Reason: "csv table has no data rows"}
	}

	header := rows[0]
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}

	var missing []string
	for _, required := range []string{cfg.SubjectColumn, cfg.TaskColumn, cfg.PhaseColumn} {
		if _, ok := colIdx[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{MissingColumns: missing}
	}

	subjIdx := colIdx[cfg.SubjectColumn]
	taskIdx := colIdx[cfg.TaskColumn]
	phaseIdx := colIdx[cfg.PhaseColumn]

	data := rows[1:]
	n := len(data)
	subjects := make([]string, n)
	tasks := make([]string, n)
	phases := make([]float64, n)
	columns := make(map[string][]float64)
	order := make([]string, 0, len(header))
	for i, name := range header {
		if i == subjIdx || i == taskIdx || i == phaseIdx {
			continue
		}
		columns[name] = make([]float64, n)
		order = append(order, name)
	}

	for r, row := range data {
		if len(row) != len(header) {
			return nil, fmt.Errorf("csv row %d has %d cells, want %d", r+2, len(row), len(header))
		}
		subjects[r] = row[subjIdx]
		tasks[r] = row[taskIdx]
		phases[r] = parseCell(row[phaseIdx])
		for _, name := range order {
			columns[name][r] = parseCell(row[colIdx[name]])
		}
	}
	return NewTable(subjects, tasks, phases, columns, order)
}

// parseCell converts a CSV cell to a float; empty or unparsable cells become
// NaN so the NaN-tolerant reductions and the validator see them explicitly.
func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func loadParquetTable(path string, cfg Config) (*Table, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetColumnReader(fr, 4)
	if err != nil {
		return nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer pr.ReadStop()

	num := pr.GetNumRows()
	if num == 0 {
		return nil, &SchemaError{Reason: "parquet table has no data rows"}
	}

	raw := make(map[string][]interface{})
	order := make([]string, 0, len(pr.SchemaHandler.ValueColumns))
	for _, inPath := range pr.SchemaHandler.ValueColumns {
		exPath, ok := pr.SchemaHandler.InPathToExPath[inPath]
		if !ok {
			exPath = inPath
		}
		parts := strings.Split(exPath, common.PAR_GO_PATH_DELIMITER)
		name := parts[len(parts)-1]

		values, _, _, err := pr.ReadColumnByPath(inPath, num)
		if err != nil {
			return nil, fmt.Errorf("read parquet column %q: %w", name, err)
		}
		raw[name] = values
		order = append(order, name)
	}

	var missing []string
	for _, required := range []string{cfg.SubjectColumn, cfg.TaskColumn, cfg.PhaseColumn} {
		if _, ok := raw[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{MissingColumns: missing}
	}

	n := int(num)
	subjects := stringColumn(raw[cfg.SubjectColumn], n)
	tasks := stringColumn(raw[cfg.TaskColumn], n)
	phases := floatColumn(raw[cfg.PhaseColumn], n)

	columns := make(map[string][]float64)
	featureOrder := make([]string, 0, len(order))
	for _, name := range order {
		if name == cfg.SubjectColumn || name == cfg.TaskColumn || name == cfg.PhaseColumn {
			continue
		}
		columns[name] = floatColumn(raw[name], n)
		featureOrder = append(featureOrder, name)
	}
	return NewTable(subjects, tasks, phases, columns, featureOrder)
}

func stringColumn(values []interface{}, n int) []string {
	out := make([]string, n)
	for i := 0; i < n && i < len(values); i++ {
		switch v := values[i].(type) {
		case string:
			out[i] = v
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func floatColumn(values []interface{}, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	for i := 0; i < n && i < len(values); i++ {
		switch v := values[i].(type) {
		case float64:
			out[i] = v
		case float32:
			out[i] = float64(v)
		case int32:
			out[i] = float64(v)
		case int64:
			out[i] = float64(v)
		case string:
			out[i] = parseCell(v)
		}
	}
	return out
}
