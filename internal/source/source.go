// Package source loads tabular files into dataset tables.
package source

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

// Loader reads one file format.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*dataset.Table, error)
}

// Options controls how files are read.
type Options struct {
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Encoding of CSV input: "utf-8" (default, BOM aware), "latin1", "windows-1252".
	Encoding string
	// NA lists cell texts read as missing. Nil uses DefaultNA.
	NA []string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultNA mirrors the tokens spreadsheet exports commonly use for "no value".
var DefaultNA = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "#N/A", "-"}

// ErrUnsupported indicates no loader handles the file.
var ErrUnsupported = eris.New("unsupported table format")

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Load picks a loader by file name.
func Load(path string, opt Options) (*dataset.Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			t, err := l.Load(path, opt)
			if err != nil {
				return nil, err
			}
			if t.Name == "" {
				t.Name = TableName(path)
			}
			return t, nil
		}
	}
	return nil, eris.Wrapf(ErrUnsupported, "%s", filepath.Base(path))
}

// TableName derives a table name from a file path: base name without extension.
func TableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

type cellReader struct {
	na map[string]struct{}
}

func newCellReader(opt Options) cellReader {
	tokens := opt.NA
	if tokens == nil {
		tokens = DefaultNA
	}
	na := make(map[string]struct{}, len(tokens))
	for _, s := range tokens {
		na[strings.TrimSpace(s)] = struct{}{}
	}
	return cellReader{na: na}
}

// value maps raw cell text to Missing or Text. Invalid UTF-8 is dropped.
func (c cellReader) value(s string) dataset.Value {
	s = strings.ToValidUTF8(s, "")
	if _, ok := c.na[strings.TrimSpace(s)]; ok {
		return dataset.Missing()
	}
	return dataset.Text(s)
}

func (c cellReader) row(t *dataset.Table, rec []string) {
	vals := make([]dataset.Value, len(t.Columns))
	for i := range vals {
		if i < len(rec) {
			vals[i] = c.value(rec[i])
		}
	}
	t.Append(vals...)
}

func header(rec []string) []string {
	cols := make([]string, len(rec))
	for i, h := range rec {
		cols[i] = strings.TrimSpace(strings.ToValidUTF8(h, ""))
	}
	return cols
}
