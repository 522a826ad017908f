package bands

import (
	"fmt"
	"strings"

	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"gonum.org/v1/gonum/mat"
)

// Params carries the constants some indexes need.
type Params struct {
	// SoilFactor is the L term of SAVI.
	SoilFactor float64
}

func DefaultParams() Params {
	return Params{SoilFactor: 0.4}
}

// IndexFunc computes one derived series from a band-major (channels x timesteps) matrix.
type IndexFunc func(data mat.Matrix, p Params) []float64

// Index names in the order the augmentation appends them by default.
var DefaultIndexes = []string{"ExG", "ExR", "SAVI", "GNDVI", "GRVI"}

var registry = map[string]IndexFunc{
	"ExG":   ExG,
	"ExR":   ExR,
	"SAVI":  SAVI,
	"GNDVI": GNDVI,
	"GRVI":  GRVI,
}

// NamedIndex pairs an index name with its function.
type NamedIndex struct {
	Name string
	Func IndexFunc
}

// Lookup resolves every name up front so an unknown index fails before any file is touched.
func Lookup(names []string) ([]NamedIndex, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no indexes requested: %w", errs.ErrConfiguration)
	}
	resolved := make([]NamedIndex, 0, len(names))
	for _, name := range names {
		f, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown index %q, available: %s: %w", name, strings.Join(DefaultIndexes, ", "), errs.ErrConfiguration)
		}
		resolved = append(resolved, NamedIndex{Name: name, Func: f})
	}
	return resolved, nil
}

func band(data mat.Matrix, name string) []float64 {
	return mat.Row(nil, Index(name), data)
}

// ExG is the excess green index: 2*B3 - B4 - B2.
func ExG(data mat.Matrix, _ Params) []float64 {
	b2, b3, b4 := band(data, "B2"), band(data, "B3"), band(data, "B4")
	result := make([]float64, len(b3))
	for t := range result {
		result[t] = 2*b3[t] - b4[t] - b2[t]
	}
	return result
}

// ExR is the excess red index: (1.4*B4 - B3) / (B3 + B4 + B2).
func ExR(data mat.Matrix, _ Params) []float64 {
	b2, b3, b4 := band(data, "B2"), band(data, "B3"), band(data, "B4")
	result := make([]float64, len(b3))
	for t := range result {
		result[t] = (1.4*b4[t] - b3[t]) / (b3[t] + b4[t] + b2[t])
	}
	return result
}

// SAVI is the soil adjusted vegetation index: ((B8 - B4) / (B8 + B4 + L)) * (1 + L).
func SAVI(data mat.Matrix, p Params) []float64 {
	b4, b8 := band(data, "B4"), band(data, "B8")
	l := p.SoilFactor
	result := make([]float64, len(b8))
	for t := range result {
		result[t] = ((b8[t] - b4[t]) / (b8[t] + b4[t] + l)) * (1 + l)
	}
	return result
}

// GNDVI is the green normalized difference vegetation index: (B8 - B3) / (B8 + B3).
func GNDVI(data mat.Matrix, _ Params) []float64 {
	return normalizedDifference(band(data, "B8"), band(data, "B3"))
}

// GRVI is the green red vegetation index: (B3 - B4) / (B3 + B4).
func GRVI(data mat.Matrix, _ Params) []float64 {
	return normalizedDifference(band(data, "B3"), band(data, "B4"))
}

// normalizedDifference keeps IEEE semantics: a zero denominator yields NaN or +-Inf.
func normalizedDifference(band1, band2 []float64) []float64 {
	result := make([]float64, len(band1))
	for t := range result {
		result[t] = (band1[t] - band2[t]) / (band1[t] + band2[t])
	}
	return result
}
