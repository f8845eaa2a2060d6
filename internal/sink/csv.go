// Package sink writes cleaned tables to CSV files and SQLite databases.
package sink

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
	"github.com/KaramelBytes/autoclean-cli/internal/utils"
)

// WriteCSV writes the header and rows of t. Missing cells are empty and numbers
// use the shortest decimal form that round-trips.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "sink: write header")
	}
	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range rec {
			rec[j] = ""
			if j < len(row) {
				rec[j] = row[j].String()
			}
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "sink: write row %d", i+1)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "sink: flush csv")
}

// SaveCSV writes t to path atomically.
func SaveCSV(path string, t *dataset.Table) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return err
	}
	return eris.Wrapf(utils.SafeWriteFile(path, buf.Bytes()), "sink: save %s", path)
}
