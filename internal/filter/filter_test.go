package filter

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

func priceTable(prices ...dataset.Value) *dataset.Table {
	t := dataset.New("cars", "name", "price_usd")
	for i, p := range prices {
		t.Append(dataset.Text(string(rune('a'+i))), p)
	}
	return t
}

func TestRowsPriceBounds(t *testing.T) {
	in := priceTable(
		dataset.Number(500),
		dataset.Number(1500),
		dataset.Number(250000),
		dataset.Number(500000),
		dataset.Missing(),
	)
	out, st, err := Apply(in, Spec{
		Required: []string{"price_usd"},
		Bounds:   []Bound{Between("price_usd", 1000, 300000)},
	})
	require.NoError(t, err)
	got, err := out.Floats("price_usd")
	require.NoError(t, err)
	assert.Equal(t, []float64{1500, 250000}, got)
	assert.Equal(t, Stats{In: 5, Missing: 1, OutOfBounds: 2, Out: 2}, st)
	assert.Equal(t, 5, in.Len(), "input must not be mutated")
}

func TestDedupeKeepsFirstAndOrder(t *testing.T) {
	in := dataset.New("t", "k", "v")
	in.Append(dataset.Text("x"), dataset.Number(1))
	in.Append(dataset.Text("y"), dataset.Number(2))
	in.Append(dataset.Text("x"), dataset.Number(1))
	in.Append(dataset.Text("z"), dataset.Missing())
	in.Append(dataset.Text("y"), dataset.Number(3))
	in.Append(dataset.Text("z"), dataset.Missing())

	out := Dedupe(in)
	require.Equal(t, 4, out.Len())
	keys, _ := out.Column("k")
	assert.Equal(t, "x", keys[0].Text())
	assert.Equal(t, "y", keys[1].Text())
	assert.Equal(t, "z", keys[2].Text())
	assert.Equal(t, "y", keys[3].Text())
}

func TestDuplicatesCountedBeforeMissing(t *testing.T) {
	in := priceTable(dataset.Missing(), dataset.Missing())
	in.Rows[1][0] = in.Rows[0][0]
	_, st, err := Apply(in, Spec{Required: []string{"price_usd"}})
	require.NoError(t, err)
	assert.Equal(t, Stats{In: 2, Duplicates: 1, Missing: 1, Out: 0}, st)
}

func TestBoundContains(t *testing.T) {
	open := Between("x", 1, 10)
	closed := Bound{Column: "x", Low: 1, High: 10, LowInclusive: true, HighInclusive: true}
	above := Above("x", 20)

	tests := []struct {
		name string
		b    Bound
		v    dataset.Value
		want bool
	}{
		{"open inside", open, dataset.Number(5), true},
		{"open low edge", open, dataset.Number(1), false},
		{"open high edge", open, dataset.Number(10), false},
		{"closed low edge", closed, dataset.Number(1), true},
		{"closed high edge", closed, dataset.Number(10), true},
		{"closed below", closed, dataset.Number(0.99), false},
		{"above", above, dataset.Number(1e9), true},
		{"above edge", above, dataset.Number(20), false},
		{"missing", open, dataset.Missing(), false},
		{"text", open, dataset.Text("5"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.b.Contains(tt.v))
		})
	}
	assert.Equal(t, "x in [1, 10]", closed.String())
	assert.Equal(t, "x in (20, +Inf)", above.String())
}

func TestBoundedColumnNotRequiredStillDropsMissing(t *testing.T) {
	in := priceTable(dataset.Missing(), dataset.Number(2000))
	out, err := Rows(in, nil, []Bound{Between("price_usd", 1000, 300000)})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}

func TestUnknownColumnFailsAllRows(t *testing.T) {
	in := priceTable(dataset.Number(1500), dataset.Number(2500))
	out, st, err := Apply(in, Spec{
		Required: []string{"price_usd", "range_miles"},
		Bounds:   []Bound{Above("range_miles", 20), Above("battery_kwh", 0)},
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, dataset.ErrUnknownColumn))
	assert.Contains(t, err.Error(), "range_miles, battery_kwh")
	require.NotNil(t, out)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, Stats{In: 2}, st)
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	in := priceTable(dataset.Number(1), dataset.Number(2))
	out, err := Rows(in, []string{"price_usd"}, []Bound{Above("price_usd", 100)})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{"name", "price_usd"}, out.Columns)
}

func TestApplyIsIdempotent(t *testing.T) {
	in := dataset.New("ev", "make", "price_usd", "range_miles")
	in.Append(dataset.Text("tesla"), dataset.Number(45000), dataset.Number(300))
	in.Append(dataset.Text("nissan"), dataset.Number(30000), dataset.Number(15))
	in.Append(dataset.Text("tesla"), dataset.Number(45000), dataset.Number(300))
	in.Append(dataset.Text("kia"), dataset.Missing(), dataset.Number(250))
	in.Append(dataset.Text("bmw"), dataset.Number(999999), dataset.Number(280))
	in.Append(dataset.Text("ford"), dataset.Number(52000), dataset.Number(math.Inf(1)))
	in.Append(dataset.Text("hyundai"), dataset.Number(41000), dataset.Number(260))

	spec := Spec{
		Required: []string{"price_usd", "range_miles"},
		Bounds: []Bound{
			Between("price_usd", 1000, 300000),
			Above("range_miles", 20),
		},
	}
	once, _, err := Apply(in, spec)
	require.NoError(t, err)
	twice, st, err := Apply(once, spec)
	require.NoError(t, err)
	assert.Equal(t, once.Rows, twice.Rows)
	assert.Equal(t, Stats{In: 2, Out: 2}, st)

	// an infinite range is outside every bound, open-ended ones included
	makes, _ := once.Column("make")
	require.Len(t, makes, 2)
	assert.Equal(t, "tesla", makes[0].Text())
	assert.Equal(t, "hyundai", makes[1].Text())
}
