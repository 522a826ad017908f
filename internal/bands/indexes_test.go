package bands

import (
	"math"
	"testing"

	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// bandMajor builds a channels x timesteps matrix with the given constant per band.
func bandMajor(values map[string]float64) *mat.Dense {
	m := mat.NewDense(len(All), Timesteps, nil)
	for name, v := range values {
		for t := 0; t < Timesteps; t++ {
			m.Set(Index(name), t, v)
		}
	}
	return m
}

func TestBandOrder(t *testing.T) {
	require.Len(t, All, 18)
	assert.Equal(t, 2, Index("B2"))
	assert.Equal(t, 3, Index("B3"))
	assert.Equal(t, 4, Index("B4"))
	assert.Equal(t, 8, Index("B8"))
	assert.Equal(t, 17, Index("NDVI"))
	assert.Panics(t, func() { Index("B1") })
}

func TestIndexFormulas(t *testing.T) {
	data := bandMajor(map[string]float64{"B2": 0.1, "B3": 0.3, "B4": 0.2, "B8": 0.6})
	p := Params{SoilFactor: 0.4}

	tests := []struct {
		name string
		fn   IndexFunc
		want float64
	}{
		{"ExG", ExG, 2*0.3 - 0.2 - 0.1},
		{"ExR", ExR, (1.4*0.2 - 0.3) / (0.3 + 0.2 + 0.1)},
		{"SAVI", SAVI, ((0.6 - 0.2) / (0.6 + 0.2 + 0.4)) * 1.4},
		{"GNDVI", GNDVI, (0.6 - 0.3) / (0.6 + 0.3)},
		{"GRVI", GRVI, (0.3 - 0.2) / (0.3 + 0.2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(data, p)
			require.Len(t, got, Timesteps)
			for _, v := range got {
				assert.InDelta(t, tt.want, v, 1e-12)
			}
		})
	}
}

func TestSAVIUsesSoilFactor(t *testing.T) {
	data := bandMajor(map[string]float64{"B4": 1, "B8": 3})

	half := SAVI(data, Params{SoilFactor: 0.5})
	assert.InDelta(t, (2.0/4.5)*1.5, half[0], 1e-12)

	none := SAVI(data, Params{SoilFactor: 0})
	assert.InDelta(t, 0.5, none[0], 1e-12)
}

func TestDivisionByZeroPropagates(t *testing.T) {
	zeros := bandMajor(nil)

	for _, v := range GNDVI(zeros, DefaultParams()) {
		assert.True(t, math.IsNaN(v))
	}
	for _, v := range GRVI(zeros, DefaultParams()) {
		assert.True(t, math.IsNaN(v))
	}

	onlyRed := bandMajor(map[string]float64{"B4": 1, "B3": -1, "B2": 0})
	for _, v := range ExR(onlyRed, DefaultParams()) {
		assert.True(t, math.IsInf(v, 1))
	}
}

func TestIndexesArePure(t *testing.T) {
	data := mat.NewDense(len(All), Timesteps, nil)
	for c := 0; c < len(All); c++ {
		for ts := 0; ts < Timesteps; ts++ {
			data.Set(c, ts, float64(c*Timesteps+ts)/100)
		}
	}
	before := mat.DenseCopyOf(data)

	for _, name := range DefaultIndexes {
		resolved, err := Lookup([]string{name})
		require.NoError(t, err)
		first := resolved[0].Func(data, DefaultParams())
		second := resolved[0].Func(data, DefaultParams())
		for i := range first {
			assert.Equal(t, math.Float64bits(first[i]), math.Float64bits(second[i]), name)
		}
	}
	assert.True(t, mat.Equal(before, data))
}

func TestLookup(t *testing.T) {
	resolved, err := Lookup([]string{"GNDVI", "ExG"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "GNDVI", resolved[0].Name)
	assert.Equal(t, "ExG", resolved[1].Name)

	_, err = Lookup([]string{"ExG", "NDWI"})
	require.ErrorIs(t, err, errs.ErrConfiguration)

	_, err = Lookup(nil)
	require.ErrorIs(t, err, errs.ErrConfiguration)
}
