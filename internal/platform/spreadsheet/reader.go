package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format: upload a .csv, .xls or .xlsx file")
	ErrEmptyFile         = errors.New("file is empty or has no header row")
	ErrNoRows            = errors.New("file has no data rows")
	ErrParse             = errors.New("could not parse file")
)

type Format int

const (
	FormatCSV Format = iota + 1
	FormatXLS
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLS:
		return "xls"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// DetectFormat picks a parser from the file extension, falling back to the
// declared content type.
func DetectFormat(fileName, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) {
	case ".csv":
		return FormatCSV, nil
	case ".xls":
		return FormatXLS, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "text/csv", "application/csv":
		return FormatCSV, nil
	case "application/vnd.ms-excel":
		return FormatXLS, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	}
	return 0, ErrUnsupportedFormat
}

// Row is one data row. Index is its 0-based position among data rows.
type Row struct {
	Index  int
	Values map[string]string
	Keys   []string
}

func (r Row) Get(key string) string {
	return strings.TrimSpace(r.Values[key])
}

// Has reports whether the column is present with a non-blank value.
func (r Row) Has(key string) bool {
	return r.Get(key) != ""
}

// Record returns a copy of the row values, in a form suitable for reports.
func (r Row) Record() map[string]string {
	out := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		out[k] = v
	}
	return out
}

type Table struct {
	Format  Format
	Headers []string
	Rows    []Row
}

// Read parses the first sheet (or the CSV body) of data into a table whose
// keys are canonicalized through headers. A nil HeaderMap keeps raw headers.
func Read(data []byte, fileName, contentType string, headers *HeaderMap) (*Table, error) {
	format, err := DetectFormat(fileName, contentType)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var grid [][]string
	switch format {
	case FormatCSV:
		grid, err = readCSV(data)
	case FormatXLS:
		grid, err = readXLS(data)
	case FormatXLSX:
		grid, err = readXLSX(data)
	}
	if err != nil {
		return nil, err
	}
	table, err := buildTable(grid, headers)
	if err != nil {
		return nil, err
	}
	table.Format = format
	return table, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var grid [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		grid = append(grid, record)
	}
	return grid, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	// raw values so number formats such as #,##0 do not round amounts
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rows, nil
}

func readXLS(data []byte) (grid [][]string, err error) {
	// the xls decoder panics on some malformed workbooks
	defer func() {
		if rec := recover(); rec != nil {
			grid, err = nil, fmt.Errorf("%w: %v", ErrParse, rec)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// xlsRow returns nil for rows the sheet never defined.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func buildTable(grid [][]string, headers *HeaderMap) (*Table, error) {
	headerIdx := -1
	for i, cells := range grid {
		if !blank(cells) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	columns := make([]string, len(grid[headerIdx]))
	var keys []string
	seen := map[string]bool{}
	for i, cell := range grid[headerIdx] {
		name := headers.Canonical(cell)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		columns[i] = name
		keys = append(keys, name)
	}

	table := &Table{Headers: keys}
	for _, cells := range grid[headerIdx+1:] {
		if blank(cells) {
			continue
		}
		values := make(map[string]string, len(keys))
		for i, cell := range cells {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			values[columns[i]] = strings.TrimSpace(cell)
		}
		table.Rows = append(table.Rows, Row{Index: len(table.Rows), Values: values, Keys: keys})
	}
	if len(table.Rows) == 0 {
		return nil, ErrNoRows
	}
	return table, nil
}

// DropPercentageRow removes the first data row when it holds template
// percentages (a "%" in any of columns) and renumbers the rest.
func (t *Table) DropPercentageRow(columns ...string) bool {
	if len(t.Rows) == 0 {
		return false
	}
	first := t.Rows[0]
	isPercent := false
	for _, col := range columns {
		if strings.Contains(first.Values[col], "%") {
			isPercent = true
			break
		}
	}
	if !isPercent {
		return false
	}
	t.Rows = t.Rows[1:]
	for i := range t.Rows {
		t.Rows[i].Index = i
	}
	return true
}

func blank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
