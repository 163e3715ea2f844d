// Package tableio loads comparison tables from CSV, XLSX and JSON files.
package tableio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agenthands/cross/internal/core/model"
)

var ErrUnsupportedFormat = errors.New("unsupported table format")

type Options struct {
	// Sheet selects the worksheet of an XLSX file; the first sheet by default.
	Sheet string
}

// Load reads the table at path. The first row of CSV and XLSX files is the
// header; blank rows are skipped and short rows padded with empty cells.
func Load(path string, opts Options) (*model.Table, error) {
	var (
		t   *model.Table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		t, err = loadXLSX(path, opts.Sheet)
	case ".csv":
		t, err = loadCSV(path)
	case ".json":
		t, err = loadJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table '%s': %w", path, err)
	}
	if t.Name == "" {
		t.Name = filepath.Base(path)
	}
	return t, nil
}

// Sheets lists the worksheets of an XLSX file. Other formats have none.
func Sheets(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
	default:
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func loadXLSX(path, sheet string) (*model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	return fromGrid(rows)
}

func loadCSV(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return fromGrid(rows)
}

// loadJSON accepts either a table object or a bare array of records.
func loadJSON(path string) (*model.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var rows []model.Record
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, err
		}
		return &model.Table{Columns: model.InferColumns(rows), Rows: rows}, nil
	}
	var t model.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.Rows == nil {
		t.Rows = []model.Record{}
	}
	return &t, nil
}

func fromGrid(rows [][]string) (*model.Table, error) {
	if len(rows) == 0 {
		return nil, errors.New("no header row")
	}

	header := rows[0]
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		seen[name] = true
		columns[i] = name
	}

	t := &model.Table{Columns: columns, Rows: []model.Record{}}
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if len(row) > len(columns) && !blank(row[len(columns):]) {
			return nil, fmt.Errorf("row %d has %d cells but the header has %d columns", n+2, len(row), len(columns))
		}
		rec := make(model.Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
