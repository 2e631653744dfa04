package locations

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

const maxImportRows = 5000

// RowError describes one invalid field of an imported row. Row is the
// 1-based spreadsheet row number.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s %s", e.Row, e.Field, e.Message)
}

var headerAliases = map[string]string{
	"name":          "name",
	"locationname":  "name",
	"location name": "name",
	"address":       "address",
	"state":         "state",
	"city":          "city",
	"village":       "village",
	"latitude":      "latitude",
	"lat":           "latitude",
	"longitude":     "longitude",
	"lng":           "longitude",
	"long":          "longitude",
}

var requiredHeaders = []string{"name", "address", "state", "city", "latitude", "longitude"}

// readSheet returns the cell grid of the first worksheet. .xls files go
// through the legacy reader; everything else is opened as xlsx.
func readSheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		if workbook.NumSheets() > 1 {
			return nil, fmt.Errorf("multiple worksheets found; please upload a file with a single sheet")
		}
		rows := workbook.ReadAllCells(maxImportRows + 1)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}

// parseRows maps the header row and converts every data row. All row
// problems are collected and returned together.
func parseRows(rows [][]string) ([]LocationInput, error) {
	if len(rows) == 0 {
		return nil, RowError{Row: 1, Field: "header", Message: "is missing"}
	}
	columns := map[string]int{}
	for idx, header := range rows[0] {
		if key, ok := headerAliases[normalizeHeader(header)]; ok {
			if _, seen := columns[key]; !seen {
				columns[key] = idx
			}
		}
	}
	var errs error
	for _, key := range requiredHeaders {
		if _, ok := columns[key]; !ok {
			errs = multierr.Append(errs, RowError{Row: 1, Field: key, Message: "column is missing"})
		}
	}
	if errs != nil {
		return nil, errs
	}
	if len(rows)-1 > maxImportRows {
		return nil, RowError{Row: maxImportRows + 2, Field: "file", Message: fmt.Sprintf("exceeds %d rows", maxImportRows)}
	}

	inputs := make([]LocationInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNumber := i + 2
		if blankRow(row) {
			continue
		}
		input := LocationInput{
			Name:    cellValue(row, columns["name"]),
			Address: cellValue(row, columns["address"]),
			State:   cellValue(row, columns["state"]),
			City:    cellValue(row, columns["city"]),
		}
		if idx, ok := columns["village"]; ok {
			if village := cellValue(row, idx); village != "" {
				input.Village = &village
			}
		}
		lat, latErr := parseCoordinate(cellValue(row, columns["latitude"]))
		if latErr != nil {
			errs = multierr.Append(errs, RowError{Row: rowNumber, Field: "latitude", Message: latErr.Error()})
		} else {
			input.Latitude = &lat
		}
		lng, lngErr := parseCoordinate(cellValue(row, columns["longitude"]))
		if lngErr != nil {
			errs = multierr.Append(errs, RowError{Row: rowNumber, Field: "longitude", Message: lngErr.Error()})
		} else {
			input.Longitude = &lng
		}
		for _, fieldErr := range validateInput(input) {
			if (fieldErr.Field == "latitude" && latErr != nil) || (fieldErr.Field == "longitude" && lngErr != nil) {
				continue
			}
			fieldErr.Row = rowNumber
			errs = multierr.Append(errs, fieldErr)
		}
		inputs = append(inputs, input.normalized())
	}
	if errs != nil {
		return nil, errs
	}
	if len(inputs) == 0 {
		return nil, RowError{Row: 2, Field: "file", Message: "contains no data rows"}
	}
	return inputs, nil
}

func parseCoordinate(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("is required")
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	return value, nil
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// validateInput returns field problems of in. Row is left zero.
func validateInput(in LocationInput) []RowError {
	in = in.normalized()
	var out []RowError
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"address", in.Address},
		{"state", in.State},
		{"city", in.City},
	}
	for _, r := range required {
		if r.value == "" {
			out = append(out, RowError{Field: r.field, Message: "is required"})
		}
	}
	if in.Latitude == nil {
		out = append(out, RowError{Field: "latitude", Message: "is required"})
	} else if *in.Latitude < -90 || *in.Latitude > 90 {
		out = append(out, RowError{Field: "latitude", Message: "must be between -90 and 90"})
	}
	if in.Longitude == nil {
		out = append(out, RowError{Field: "longitude", Message: "is required"})
	} else if *in.Longitude < -180 || *in.Longitude > 180 {
		out = append(out, RowError{Field: "longitude", Message: "must be between -180 and 180"})
	}
	return out
}
