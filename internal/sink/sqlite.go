package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

// DefaultTable is used when a dataset has no name.
const DefaultTable = "data"

// SQLite exports tables into a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle, mainly for inspection in tests.
func (s *SQLite) DB() *sql.DB { return s.db }

// WriteTable replaces the table named after t with its contents. Columns holding
// only numbers (and missing cells) are REAL, all others TEXT. Missing cells are
// NULL. Everything happens in one transaction.
func (s *SQLite) WriteTable(ctx context.Context, t *dataset.Table) error {
	if len(t.Columns) == 0 {
		return eris.New("sqlite: table has no columns")
	}
	name := t.Name
	if name == "" {
		name = DefaultTable
	}
	types := ColumnTypes(t)

	defs := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = quoteIdent(c) + " " + types[i]
		marks[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return eris.Wrapf(err, "sqlite: drop %s", name)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return eris.Wrapf(err, "sqlite: create %s", name)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), strings.Join(marks, ", ")))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for i, row := range t.Rows {
		for j := range args {
			var v dataset.Value
			if j < len(row) {
				v = row[j]
			}
			args[j] = sqlValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert row %d", i+1)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// SaveSQLite writes t into the database file at path.
func SaveSQLite(ctx context.Context, path string, t *dataset.Table) error {
	s, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.WriteTable(ctx, t)
}

// ColumnTypes returns the SQLite type per column: REAL when every present value
// is a number and at least one is, TEXT otherwise.
func ColumnTypes(t *dataset.Table) []string {
	out := make([]string, len(t.Columns))
	for j := range t.Columns {
		numbers, text := 0, 0
		for _, row := range t.Rows {
			if j >= len(row) {
				continue
			}
			switch row[j].Kind() {
			case dataset.KindNumber:
				numbers++
			case dataset.KindText:
				text++
			}
		}
		out[j] = "TEXT"
		if numbers > 0 && text == 0 {
			out[j] = "REAL"
		}
	}
	return out
}

func sqlValue(v dataset.Value) any {
	switch v.Kind() {
	case dataset.KindNumber:
		return v.Float()
	case dataset.KindText:
		return v.Text()
	default:
		return nil
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
