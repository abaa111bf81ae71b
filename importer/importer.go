// Package importer feeds bulk inventory rows into the store. The store only
// sees a slice of Rows, so the file format stays at this boundary.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

type Row struct {
	Name        string
	Serial      string
	Category    string
	Description string
	Location    string
	Unit        string
}

// Source yields the rows of one import file.
type Source interface {
	Rows() ([]Row, error)
}

// CSVSource reads a header-mapped CSV export. Only name and serial are
// required columns; header matching is case-insensitive.
type CSVSource struct {
	Reader io.Reader
}

var ErrMissingHeader = errors.New("import file has no name/serial header")

var headerAliases = map[string]string{
	"name":        "name",
	"tên":         "name",
	"ten":         "name",
	"serial":      "serial",
	"category":    "category",
	"loại":        "category",
	"description": "description",
	"mô tả":       "description",
	"location":    "location",
	"vị trí":      "location",
	"unit":        "unit",
	"đơn vị":      "unit",
}

func (s CSVSource) Rows() ([]Row, error) {
	r := csv.NewReader(s.Reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, err
	}

	cols := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if field, ok := headerAliases[key]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, ErrMissingHeader
	}
	if _, ok := cols["serial"]; !ok {
		return nil, ErrMissingHeader
	}

	var rows []Row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			Name:        field(rec, cols, "name"),
			Serial:      field(rec, cols, "serial"),
			Category:    field(rec, cols, "category"),
			Description: field(rec, cols, "description"),
			Location:    field(rec, cols, "location"),
			Unit:        field(rec, cols, "unit"),
		})
	}
	return rows, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
