package normalize

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

func TestNormalizeExamples(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  float64
		valid bool
	}{
		{"thousands with unit", "1,200 HP", 1200, true},
		{"range", "150-200", 175, true},
		{"currency", "$45,000", 45000, true},
		{"en dash range", "45–55", 50, true},
		{"em dash range with spaces", "45 — 55", 50, true},
		{"decimal range", "4.5-5.5", 5, true},
		{"negative number", "-12.5", -12.5, true},
		{"exponent", "1e-3", 0.001, true},
		{"padded", "  300  ", 300, true},
		{"trailing unit", "250 km/h", 250, true},
		{"engine code", "V8 Twin Turbo", 8, true},
		{"engine code with displacement", "V8 4.0L Twin Turbo", 6, true},
		{"seconds with unit", "3.2 sec", 3.2, true},
		{"no digits", "Twin Turbo", 0, false},
		{"empty", "", 0, false},
		{"only separators", " , $ ", 0, false},
		{"inf word", "inf", 0, false},
		{"nan word", "NaN", 0, false},
		{"hex", "0x10", 5, true}, // not a float; extracts 0 and 10
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeString(tt.in, PolicyRangeThenExtract)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Value, 1e-9)
			}
		})
	}
}

func TestNormalizeStrictPolicy(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  float64
		valid bool
	}{
		{"range", "150-200", 175, true},
		{"en dash range", "45–55", 50, true},
		{"currency", "$32,000", 32000, true},
		{"negative stays a number", "-5", -5, true},
		{"exponent stays a number", "2e-2", 0.02, true},
		{"decorated text", "1,200 HP", 0, false},
		{"engine code", "V8 Twin Turbo", 0, false},
		{"half not numeric", "150hp-200hp", 0, false},
		{"three parts", "1-2-3", 0, false},
		{"empty half", "100-", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeString(tt.in, PolicyStrictRange)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Value, 1e-9)
			}
		})
	}
}

func TestNormalizeMissingAndNumeric(t *testing.T) {
	for _, p := range []Policy{PolicyRangeThenExtract, PolicyStrictRange} {
		assert.False(t, NormalizeWith(dataset.Missing(), p).Valid)
		assert.False(t, NormalizeWith(dataset.FromAny(nil), p).Valid)
		assert.False(t, NormalizeWith(dataset.FromAny(math.NaN()), p).Valid)

		got := NormalizeWith(dataset.Number(-3.75), p)
		require.True(t, got.Valid)
		assert.Equal(t, -3.75, got.Value)
	}
	got := NormalizeAny(int64(42))
	require.True(t, got.Valid)
	assert.Equal(t, 42.0, got.Value)
}

func TestNormalizeNumericStringsRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, 12.5, 1234567.25, -0.5, 3e10, 1e-7} {
		s := fmt.Sprint(f)
		for _, p := range []Policy{PolicyRangeThenExtract, PolicyStrictRange} {
			got := NormalizeString(s, p)
			require.True(t, got.Valid, "%s under %s", s, p)
			assert.Equal(t, f, got.Value, "%s under %s", s, p)
		}
	}
}

func TestNormalizeRangesAverage(t *testing.T) {
	pairs := [][2]float64{{150, 200}, {0, 1}, {2.5, 3.75}, {1000, 1000}, {10, 2}}
	for _, pr := range pairs {
		s := fmt.Sprintf("%v-%v", pr[0], pr[1])
		got := NormalizeString(s, PolicyRangeThenExtract)
		require.True(t, got.Valid, s)
		assert.InDelta(t, (pr[0]+pr[1])/2, got.Value, 1e-9, s)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy, p)

	p, err = ParsePolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrictRange, p)

	p, err = ParsePolicy("range-then-extract")
	require.NoError(t, err)
	assert.Equal(t, PolicyRangeThenExtract, p)

	_, err = ParsePolicy("fuzzy")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownPolicy))
}

func TestTableNormalizesTargetColumnsOnly(t *testing.T) {
	in := dataset.New("cars", "name", "price_usd", "horsepower")
	in.Append(dataset.Text("A"), dataset.Text("$32,000"), dataset.Text("300 hp"))
	in.Append(dataset.Text("B"), dataset.Missing(), dataset.Text("n/a"))
	in.Append(dataset.Text("C"), dataset.Text("40-50"), dataset.Number(500))

	out, stats, err := Table(context.Background(), in, Columns("price_usd", "horsepower"), Options{})
	require.NoError(t, err)

	assert.Equal(t, "$32,000", in.Rows[0][1].Text(), "input must not be mutated")
	assert.Equal(t, "A", out.Rows[0][0].Text())
	assert.Equal(t, 32000.0, out.Rows[0][1].Float())
	assert.Equal(t, 300.0, out.Rows[0][2].Float())
	assert.True(t, out.Rows[1][1].IsMissing())
	assert.True(t, out.Rows[1][2].IsMissing())
	assert.Equal(t, 45.0, out.Rows[2][1].Float())
	assert.Equal(t, 500.0, out.Rows[2][2].Float())

	require.Len(t, stats, 2)
	assert.Equal(t, ColumnStats{Name: "price_usd", Parsed: 2, Absent: 1, Policy: DefaultPolicy}, stats[0])
	assert.Equal(t, ColumnStats{Name: "horsepower", Parsed: 2, Absent: 1, Policy: DefaultPolicy}, stats[1])
}

func TestTablePerColumnPolicy(t *testing.T) {
	in := dataset.New("ev", "a", "b")
	in.Append(dataset.Text("300 mi"), dataset.Text("300 mi"))

	cols := []Column{{Name: "a"}, {Name: "b", Policy: PolicyStrictRange}}
	out, _, err := Table(context.Background(), in, cols, Options{Policy: PolicyRangeThenExtract})
	require.NoError(t, err)
	assert.Equal(t, 300.0, out.Rows[0][0].Float())
	assert.True(t, out.Rows[0][1].IsMissing())
}

func TestTableParallelMatchesSerial(t *testing.T) {
	in := dataset.New("big", "id", "v")
	for i := 0; i < 5000; i++ {
		in.Append(dataset.Number(float64(i)), dataset.Text(fmt.Sprintf("%d-%d", i, i+2)))
	}
	serial, _, err := Table(context.Background(), in, Columns("v"), Options{})
	require.NoError(t, err)
	par, stats, err := Table(context.Background(), in, Columns("v"), Options{Workers: 4, ChunkSize: 128})
	require.NoError(t, err)
	assert.Equal(t, serial.Rows, par.Rows)
	assert.Equal(t, 5000, stats[0].Parsed)
	assert.Equal(t, 1.0, par.Rows[0][1].Float())
}

func TestTableUnknownColumn(t *testing.T) {
	in := dataset.New("t", "a")
	_, _, err := Table(context.Background(), in, Columns("a", "zzz"), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, dataset.ErrUnknownColumn))
	assert.Contains(t, err.Error(), "zzz")
}

func TestTableCancelled(t *testing.T) {
	in := dataset.New("t", "a")
	in.Append(dataset.Text("1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Table(ctx, in, Columns("a"), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, context.Canceled))
}
