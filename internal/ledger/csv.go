package ledger

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	delimiter = ';'
	quote     = '"'
)

var (
	ErrSchemaMismatch = errors.New("ledger schema mismatch")
	ErrNotFound       = errors.New("ledger not found")
)

// SchemaMismatchError describes the headers found in a prior ledger that do
// not match the product schema.
type SchemaMismatchError struct {
	Path     string
	Expected []string
	Actual   []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf(
		"%s: %s: expected columns [%s], got [%s]",
		ErrSchemaMismatch, e.Path,
		strings.Join(e.Expected, ", "),
		strings.Join(e.Actual, ", "),
	)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(delimiter)
		}
		w.WriteByte(quote)
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte(quote)
	}
	w.WriteByte('\n')
}

// Encode writes the ledger with every field quoted, ";" as delimiter and "\n"
// as line terminator.
func Encode(w io.Writer, l Ledger) error {
	buf := bufio.NewWriter(w)
	writeRow(buf, l.schema.Headers())

	fields := l.schema.Fields()
	line := make([]string, len(fields)+1)
	for _, r := range l.rows {
		line[0] = r.Version
		for i, f := range fields {
			line[i+1] = r.Attributes[f]
		}
		writeRow(buf, line)
	}
	return buf.Flush()
}

// Decode reads a ledger and checks its header row against schema. `name` is
// only used to annotate errors.
func Decode(r io.Reader, name string, schema Schema) (Ledger, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Ledger{}, &SchemaMismatchError{Path: name, Expected: schema.Headers()}
	}
	if err != nil {
		return Ledger{}, fmt.Errorf("read header of %s: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, schema.Headers()) {
		return Ledger{}, &SchemaMismatchError{
			Path:     name,
			Expected: schema.Headers(),
			Actual:   header,
		}
	}

	fields := schema.Fields()
	var records []Record
	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Ledger{}, fmt.Errorf("read %s: %w", name, err)
		}

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f] = line[i+1]
		}
		records = append(records, Record{Version: line[0], Attributes: attrs})
	}

	l, err := New(schema, records)
	if err != nil {
		return Ledger{}, fmt.Errorf("load %s: %w", name, err)
	}
	return l, nil
}

// Load reads a previously written ledger from disk.
func Load(path string, schema Schema) (Ledger, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Ledger{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Ledger{}, err
	}
	defer f.Close()
	return Decode(f, path, schema)
}

// Save writes the ledger to a temporary file next to path and renames it over
// path, readers never observe a partially written ledger.
func Save(path string, l Ledger) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	err = Encode(tmp, l)
	if err != nil {
		cleanup()
		return fmt.Errorf("encode ledger: %w", err)
	}
	err = tmp.Sync()
	if err != nil {
		cleanup()
		return err
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	err = os.Chmod(tmpName, 0644)
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	err = os.Rename(tmpName, path)
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
