package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxRows caps how many data rows are materialized from an uploaded
// file; anything beyond it is ignored.
const MaxRows = 1000

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table is a parsed tabular dataset. Cell values are float64 for
// numeric-looking cells, string otherwise, and nil for empty cells so
// they serialize to JSON null.
type Table struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"data"`
}

// Parse reads a CSV or XLSX dataset, dispatching on the filename
// extension.
func Parse(r io.Reader, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	table := &Table{Columns: header, Rows: make([]map[string]interface{}, 0)}
	for len(table.Rows) < MaxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, buildRow(header, record))
	}
	return table, nil
}

func parseXLSX(r io.Reader) (*Table, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer book.Close()
	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("sheet is empty")
	}
	header := rows[0]
	table := &Table{Columns: header, Rows: make([]map[string]interface{}, 0)}
	for _, record := range rows[1:] {
		if len(table.Rows) >= MaxRows {
			break
		}
		table.Rows = append(table.Rows, buildRow(header, record))
	}
	return table, nil
}

func buildRow(header, record []string) map[string]interface{} {
	row := make(map[string]interface{}, len(header))
	for i, column := range header {
		if i >= len(record) || record[i] == "" {
			row[column] = nil
			continue
		}
		if f, err := strconv.ParseFloat(record[i], 64); err == nil {
			row[column] = f
		} else {
			row[column] = record[i]
		}
	}
	return row
}

// Head returns up to n rows.
func (t *Table) Head(n int) []map[string]interface{} {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// ColumnKinds groups columns by how they should be treated when
// picking chart axes.
type ColumnKinds struct {
	Numeric     []string
	Date        []string
	Categorical []string
}

var dateHints = []string{"date", "time", "year", "month", "day", "timestamp"}

// Classify inspects the non-empty values of each column. A column is
// numeric when every non-empty cell parsed as a number, date-like when
// its name carries a date hint, categorical otherwise. Fully empty
// columns are skipped.
func (t *Table) Classify() ColumnKinds {
	var kinds ColumnKinds
	for _, column := range t.Columns {
		seen := 0
		numeric := true
		for _, row := range t.Rows {
			value := row[column]
			if value == nil {
				continue
			}
			seen++
			if _, ok := value.(float64); !ok {
				numeric = false
			}
		}
		if seen == 0 {
			continue
		}
		switch {
		case numeric:
			kinds.Numeric = append(kinds.Numeric, column)
		case isDateName(column):
			kinds.Date = append(kinds.Date, column)
		default:
			kinds.Categorical = append(kinds.Categorical, column)
		}
	}
	return kinds
}

func isDateName(column string) bool {
	lower := strings.ToLower(column)
	for _, hint := range dateHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
