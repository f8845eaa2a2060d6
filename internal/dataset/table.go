package dataset

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownColumn is returned when an operation names a column the table does not have.
var ErrUnknownColumn = eris.New("unknown column")

// Row holds one value per table column, in column order.
type Row []Value

// Key returns a string that is equal for two rows exactly when every field is equal.
// Parts are length-prefixed so no two distinct rows can collide.
func (r Row) Key() string {
	var b strings.Builder
	for _, v := range r {
		switch v.kind {
		case KindNumber:
			f := v.num
			if f == 0 {
				f = 0 // fold -0 into 0
			}
			s := strconv.FormatFloat(f, 'g', -1, 64)
			b.WriteByte('n')
			b.WriteString(strconv.Itoa(len(s)))
			b.WriteByte(':')
			b.WriteString(s)
		case KindText:
			b.WriteByte('t')
			b.WriteString(strconv.Itoa(len(v.text)))
			b.WriteByte(':')
			b.WriteString(v.text)
		default:
			b.WriteByte('m')
		}
	}
	return b.String()
}

// Equal reports whether two rows are field-for-field identical.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Table is an ordered sequence of rows sharing one column set.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New builds an empty table with a copy of the given columns.
func New(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of a column.
func (t *Table) Index(col string) (int, bool) {
	for i, c := range t.Columns {
		if c == col {
			return i, true
		}
	}
	return -1, false
}

// Append adds a row, padding short rows with Missing and truncating long ones.
func (t *Table) Append(vals ...Value) {
	row := make(Row, len(t.Columns))
	copy(row, vals)
	t.Rows = append(t.Rows, row)
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		copy(nr, r)
		out.Rows[i] = nr
	}
	return out
}

// Empty returns a table with the same name and columns and no rows.
func (t *Table) Empty() *Table {
	out := New(t.Name, t.Columns...)
	out.Rows = []Row{}
	return out
}

// Column returns the values of one column.
func (t *Table) Column(col string) ([]Value, error) {
	idx, ok := t.Index(col)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownColumn, "column %q", col)
	}
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Floats returns the numeric values of a column, skipping missing and text cells.
func (t *Table) Floats(col string) ([]float64, error) {
	vals, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.IsNumber() {
			out = append(out, v.num)
		}
	}
	return out, nil
}

// Rename returns a copy with columns renamed by the mapping. Unmapped columns keep their name.
func (t *Table) Rename(mapping map[string]string) *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		if to, ok := mapping[c]; ok && to != "" {
			out.Columns[i] = to
		}
	}
	return out
}

// NormalizeHeaders returns a copy whose column names are trimmed, lowercased,
// and have spaces and hyphens replaced by underscores.
func (t *Table) NormalizeHeaders() *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		out.Columns[i] = NormalizeHeader(c)
	}
	return out
}

// NormalizeHeader applies the header convention to a single name.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// Select returns a copy restricted to the given columns, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		j, ok := t.Index(c)
		if !ok {
			missing = append(missing, c)
			continue
		}
		idx[i] = j
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(ErrUnknownColumn, "select: %s", strings.Join(missing, ", "))
	}
	out := New(t.Name, cols...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(cols))
		for k, j := range idx {
			nr[k] = r[j]
		}
		out.Rows[i] = nr
	}
	return out, nil
}
