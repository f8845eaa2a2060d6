package source

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvLoader) Load(path string, opt Options) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "source: open csv")
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	t, err := ReadCSV(f, delim, opt)
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s", path)
	}
	t.Name = TableName(path)
	return t, nil
}

// ReadCSV reads a header row followed by data rows. An empty input yields a table
// with no columns.
func ReadCSV(r io.Reader, delim rune, opt Options) (*dataset.Table, error) {
	dec, err := Decoder(opt.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if delim != 0 {
		cr.Comma = delim
	}

	rec, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.New(""), nil
		}
		return nil, eris.Wrap(err, "read header")
	}
	t := dataset.New("", header(rec)...)
	cells := newCellReader(opt)
	for line := 1; ; line++ {
		if opt.MaxRows > 0 && t.Len() >= opt.MaxRows {
			break
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "read row %d", line)
		}
		cells.row(t, rec)
	}
	return t, nil
}

// ErrUnknownEncoding is returned for encoding names x/text does not know.
var ErrUnknownEncoding = eris.New("unknown encoding")

// Decoder returns a transformer that decodes the named encoding into UTF-8.
// UTF-8 input has a leading byte order mark removed.
func Decoder(name string) (transform.Transformer, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "latin1", "latin-1", "iso-8859-1":
		enc = charmap.ISO8859_1
	case "cp1252", "windows-1252":
		enc = charmap.Windows1252
	default:
		e, err := htmlindex.Get(name)
		if err != nil {
			return nil, eris.Wrapf(ErrUnknownEncoding, "%q", name)
		}
		enc = e
	}
	return enc.NewDecoder(), nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
