package source

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Load reads the selected sheet; the first row is the header.
func (xlsxLoader) Load(path string, opt Options) (*dataset.Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "source: open xlsx")
	}
	sheet, err := pickSheet(f, opt)
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s", path)
	}
	t := dataset.New(TableName(path))
	cells := newCellReader(opt)
	first := true
	for _, row := range sheet.Rows {
		rec := rowStrings(row)
		if first {
			if len(rec) == 0 {
				continue
			}
			t = dataset.New(TableName(path), header(rec)...)
			first = false
			continue
		}
		if opt.MaxRows > 0 && t.Len() >= opt.MaxRows {
			break
		}
		cells.row(t, rec)
	}
	return t, nil
}

func pickSheet(f *xlsx.File, opt Options) (*xlsx.Sheet, error) {
	if opt.SheetName != "" {
		for name, s := range f.Sheet {
			if strings.EqualFold(name, opt.SheetName) {
				return s, nil
			}
		}
		names := make([]string, len(f.Sheets))
		for i, s := range f.Sheets {
			names[i] = s.Name
		}
		return nil, eris.Errorf("sheet %q not found; available sheets: %s", opt.SheetName, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(f.Sheets) {
		return nil, eris.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(f.Sheets))
	}
	return f.Sheets[idx-1], nil
}

func rowStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		if c != nil {
			out[i] = c.String()
		}
	}
	return out
}
