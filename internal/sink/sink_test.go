package sink

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

func sample() *dataset.Table {
	t := dataset.New("ev_clean", "make", "price_usd", "range_miles")
	t.Append(dataset.Text("TESLA"), dataset.Number(45990), dataset.Number(272.5))
	t.Append(dataset.Text("NISSAN, Inc"), dataset.Missing(), dataset.Number(149))
	t.Append(dataset.Missing(), dataset.Number(0.1), dataset.Missing())
	return t
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))
	want := "make,price_usd,range_miles\n" +
		"TESLA,45990,272.5\n" +
		"\"NISSAN, Inc\",,149\n" +
		",0.1,\n"
	assert.Equal(t, want, buf.String())
}

func TestSaveCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveCSV(p, sample()))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "TESLA,45990,272.5")

	err = SaveCSV(filepath.Join(t.TempDir(), "nope", "out.csv"), sample())
	assert.Error(t, err)
}

func TestColumnTypes(t *testing.T) {
	tbl := sample()
	tbl.Append(dataset.Text("KIA"), dataset.Text("call dealer"), dataset.Missing())
	assert.Equal(t, []string{"TEXT", "TEXT", "REAL"}, ColumnTypes(tbl))

	empty := dataset.New("x", "a")
	empty.Append(dataset.Missing())
	assert.Equal(t, []string{"TEXT"}, ColumnTypes(empty))
}

func TestSaveSQLite(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "clean.db")
	require.NoError(t, SaveSQLite(ctx, p, sample()))
	// second write replaces rather than appends
	require.NoError(t, SaveSQLite(ctx, p, sample()))

	s, err := OpenSQLite(p)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "ev_clean"`).Scan(&n))
	assert.Equal(t, 3, n)

	var price sql.NullFloat64
	var mk string
	row := s.DB().QueryRowContext(ctx, `SELECT make, price_usd FROM "ev_clean" WHERE make = ?`, "NISSAN, Inc")
	require.NoError(t, row.Scan(&mk, &price))
	assert.False(t, price.Valid)

	var typ string
	require.NoError(t, s.DB().QueryRowContext(ctx,
		`SELECT type FROM pragma_table_info('ev_clean') WHERE name = 'range_miles'`).Scan(&typ))
	assert.Equal(t, "REAL", typ)
}

func TestWriteTableDefaultsName(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer s.Close()

	tbl := dataset.New("", "a \"quoted\" col")
	tbl.Append(dataset.Number(1))
	require.NoError(t, s.WriteTable(ctx, tbl))

	var v float64
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT "a ""quoted"" col" FROM data`).Scan(&v))
	assert.Equal(t, 1.0, v)

	assert.Error(t, s.WriteTable(ctx, dataset.New("none")))
}
