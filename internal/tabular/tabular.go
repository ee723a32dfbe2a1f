// Package tabular turns delimited text or spreadsheet grids into string-keyed
// rows and maps heterogeneous column spellings onto the canonical schema the
// matcher expects (Name, Address, City, Zip).
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"veridoc/internal/domain"
)

// Row is one parsed record keyed by column header.
type Row map[string]string

// Table holds parsed rows along with the original column order.
type Table struct {
	Columns []string
	Rows    []Row
}

// ParseDelimited parses delimited text into a Table. Double-quote-enclosed
// fields may contain the delimiter; doubled quotes inside quoted fields are
// un-escaped. Rows that fail CSV parsing lose only themselves, never the rest
// of the file. Rows missing more than one field are dropped; rows missing
// exactly one trailing field are kept with it defaulted to the empty string.
func ParseDelimited(text string, delim rune) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var grid [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parsing delimited text: %w", err)
		}
		grid = append(grid, rec)
	}
	return FromGrid(grid)
}

// FromGrid builds a Table from a two-dimensional grid whose first row is the
// header. The same leniency rules as ParseDelimited apply.
func FromGrid(grid [][]string) (*Table, error) {
	if len(grid) == 0 {
		return &Table{}, nil
	}

	header := make([]string, 0, len(grid[0]))
	seen := make(map[string]bool, len(grid[0]))
	for _, col := range grid[0] {
		col = strings.TrimSpace(col)
		if seen[col] {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateColumn, col)
		}
		seen[col] = true
		header = append(header, col)
	}

	t := &Table{Columns: header}
	for _, rec := range grid[1:] {
		switch {
		case len(rec) == len(header):
			// keep as-is
		case len(rec) == len(header)-1:
			rec = append(rec, "")
		default:
			// Materially malformed row — skip silently.
			continue
		}
		row := make(Row, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Canonical column names used by the matcher.
const (
	ColName    = "Name"
	ColAddress = "Address"
	ColCity    = "City"
	ColZip     = "Zip"
)

// foldKey collapses a header to a comparison key: lowercase, no spaces or
// underscores. "First Name", "first_name", and "FirstName" all fold the same.
func foldKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// Field returns the value for a column, matching the header case- and
// separator-insensitively.
func (r Row) Field(name string) string {
	if v, ok := r[name]; ok {
		return v
	}
	want := foldKey(name)
	for col, v := range r {
		if foldKey(col) == want {
			return v
		}
	}
	return ""
}

// Canonicalize maps known alternate column spellings onto the fixed schema.
// FirstName/MiddleInitial/LastName are joined into Name; StreetAddress is
// copied to Address; ZipCode to Zip. Values already present under a canonical
// name are never overwritten.
func (t *Table) Canonicalize() {
	for _, row := range t.Rows {
		if row.Field(ColName) == "" {
			first := row.Field("FirstName")
			middle := row.Field("MiddleInitial")
			last := row.Field("LastName")
			if first != "" || middle != "" || last != "" {
				setField(row, ColName, joinNonEmpty(first, middle, last))
			}
		}
		if row.Field(ColAddress) == "" {
			if street := row.Field("StreetAddress"); street != "" {
				setField(row, ColAddress, street)
			}
		}
		if row.Field(ColZip) == "" {
			if zip := row.Field("ZipCode"); zip != "" {
				setField(row, ColZip, zip)
			}
		}
	}

	t.ensureColumns(ColName, ColAddress, ColCity, ColZip)
}

// setField writes a canonical value, reusing an existing header spelling of
// the canonical name when one exists so column order is preserved.
func setField(row Row, name, value string) {
	want := foldKey(name)
	for col := range row {
		if foldKey(col) == want {
			row[col] = value
			return
		}
	}
	row[name] = value
}

func (t *Table) ensureColumns(names ...string) {
	for _, name := range names {
		want := foldKey(name)
		found := false
		for _, col := range t.Columns {
			if foldKey(col) == want {
				found = true
				break
			}
		}
		if !found {
			t.Columns = append(t.Columns, name)
		}
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
