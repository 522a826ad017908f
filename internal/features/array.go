package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Array is a (timesteps x channels) feature array.
type Array struct {
	*mat.Dense
}

func NewArray(timesteps, channels int, data []float64) *Array {
	return &Array{Dense: mat.NewDense(timesteps, channels, data)}
}

// Shape returns (timesteps, channels).
func (a *Array) Shape() (int, int) {
	return a.Dims()
}

// Values copies the array into a row-major slice.
func (a *Array) Values() []float64 {
	r, c := a.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, a.RawRowView(i)...)
	}
	return out
}

func cloneDense(a mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(a)
}

func (a *Array) String() string {
	r, c := a.Dims()
	return fmt.Sprintf("Array(%d, %d)", r, c)
}

// TestInstance is a held-out evaluation set: one array per pixel plus its ground truth.
type TestInstance struct {
	X    []*Array
	Y    []float64
	Lats []float64
	Lons []float64
}

func (ti *TestInstance) Len() int {
	return len(ti.X)
}

func (ti *TestInstance) validate() error {
	n := len(ti.X)
	if len(ti.Y) != n || len(ti.Lats) != n || len(ti.Lons) != n {
		return fmt.Errorf("test instance has %d arrays but %d labels, %d lats and %d lons", n, len(ti.Y), len(ti.Lats), len(ti.Lons))
	}
	if n == 0 {
		return nil
	}
	t, c := ti.X[0].Shape()
	for i, x := range ti.X {
		if xt, xc := x.Shape(); xt != t || xc != c {
			return fmt.Errorf("test array %d has shape (%d, %d), expected (%d, %d)", i, xt, xc, t, c)
		}
	}
	return nil
}
