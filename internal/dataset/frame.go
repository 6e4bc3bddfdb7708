// Package dataset holds the tabular hand-off format between pipeline stages
// and its CSV artifacts.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Frame is a header plus string rows, the on-disk shape of every artifact.
type Frame struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

func NewFrame(cols ...string) *Frame {
	f := &Frame{Columns: append([]string(nil), cols...)}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		if _, dup := f.index[c]; !dup {
			f.index[c] = i
		}
	}
}

// Append adds a row; values are matched to Columns positionally.
func (f *Frame) Append(vals ...string) {
	row := make([]string, len(f.Columns))
	copy(row, vals)
	f.Rows = append(f.Rows, row)
}

func (f *Frame) Len() int { return len(f.Rows) }

func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Get returns the cell at row i for col, or "" when the column is absent.
func (f *Frame) Get(i int, col string) string {
	j, ok := f.index[col]
	if !ok || j >= len(f.Rows[i]) {
		return ""
	}
	return f.Rows[i][j]
}

// MissingColumnsError reports required columns absent from a frame.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("dataset is missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// Require fails with *MissingColumnsError listing every absent column.
func (f *Frame) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !f.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}

// IsMissingColumns reports whether err is (or wraps) a MissingColumnsError.
func IsMissingColumns(err error) bool {
	var mc *MissingColumnsError
	return errors.As(err, &mc)
}

// ReadCSV loads a UTF-8 CSV with a header row.
func ReadCSV(path string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}

func Decode(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	f := NewFrame(header...)
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	f.Rows = recs
	return f, nil
}

// WriteCSV writes f to path, creating parent directories.
func WriteCSV(path string, f *Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(fh, f); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

func Encode(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(f.Rows); err != nil {
		return err
	}
	return cw.Error()
}
