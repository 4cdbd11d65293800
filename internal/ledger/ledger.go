// Package ledger holds the ordered, de-duplicated table of releases for one
// product and its delimited text representation.
package ledger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"versionhistory/internal/version"
)

const (
	ColumnVersion = "version_full"
	ColumnDate    = "date (yyyy-mm-dd)"
)

// attribute field names as produced by the scrapers
const (
	FieldDate         = "date"
	FieldDescription  = "description"
	FieldVersionMajor = "version_major"
	FieldVersionShort = "version_short"
)

var (
	ErrEmptyVersion     = errors.New("record has an empty version")
	ErrDuplicateVersion = errors.New("duplicate version")
)

// Schema is the fixed column layout of a product ledger: version_full, the
// product specific attribute columns, then the date column.
type Schema struct {
	fields []string
}

// NewSchema creates a schema with the given attribute fields between the
// version and date columns.
func NewSchema(fields ...string) Schema {
	return Schema{fields: slices.Clone(fields)}
}

// Fields returns every attribute field of a row in column order, date last.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s.fields)+1)
	out = append(out, s.fields...)
	return append(out, FieldDate)
}

// Headers returns the header row.
func (s Schema) Headers() []string {
	out := make([]string, 0, len(s.fields)+2)
	out = append(out, ColumnVersion)
	out = append(out, s.fields...)
	return append(out, ColumnDate)
}

func (s Schema) Equal(o Schema) bool {
	return slices.Equal(s.fields, o.fields)
}

// Record is one observed release.
type Record struct {
	Version    string
	Attributes map[string]string
}

// NewRecord copies attrs so the record cannot be mutated through the caller's map.
func NewRecord(version string, attrs map[string]string) Record {
	return Record{Version: version, Attributes: maps.Clone(attrs)}
}

func (r Record) Get(field string) string {
	return r.Attributes[field]
}

func (r Record) Date() string {
	return r.Attributes[FieldDate]
}

// Equal compares version and attributes.
func (r Record) Equal(o Record) bool {
	if r.Version != o.Version || len(r.Attributes) != len(o.Attributes) {
		return false
	}
	return maps.Equal(r.Attributes, o.Attributes)
}

// Project keeps only the attributes present in the schema, missing fields are
// set to an empty string.
func (r Record) Project(s Schema) Record {
	attrs := make(map[string]string, len(s.fields)+1)
	for _, f := range s.Fields() {
		attrs[f] = r.Attributes[f]
	}
	return Record{Version: r.Version, Attributes: attrs}
}

// Ledger is an immutable, version ordered set of records.
type Ledger struct {
	schema Schema
	rows   []Record
}

// New validates and sorts records into a ledger. Every record is projected
// onto the schema.
func New(schema Schema, records []Record) (Ledger, error) {
	seen := make(map[string]struct{}, len(records))
	rows := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Version == "" {
			return Ledger{}, ErrEmptyVersion
		}
		if _, ok := seen[r.Version]; ok {
			return Ledger{}, fmt.Errorf("%w: %s", ErrDuplicateVersion, r.Version)
		}
		seen[r.Version] = struct{}{}
		rows = append(rows, r.Project(schema))
	}
	version.SortFunc(rows, func(r Record) string { return r.Version })
	return Ledger{schema: schema, rows: rows}, nil
}

func (l Ledger) Schema() Schema {
	return l.schema
}

func (l Ledger) Len() int {
	return len(l.rows)
}

// Rows returns a copy of the ordered rows.
func (l Ledger) Rows() []Record {
	return slices.Clone(l.rows)
}

func (l Ledger) Versions() []string {
	out := make([]string, len(l.rows))
	for i, r := range l.rows {
		out[i] = r.Version
	}
	return out
}

// Lookup finds a row by its exact version string.
func (l Ledger) Lookup(v string) (Record, bool) {
	for _, r := range l.rows {
		if r.Version == v {
			return r, true
		}
	}
	return Record{}, false
}
