package augment

import (
	"fmt"
	"math"
	"testing"

	"github.com/forest-guardian/cropharvest-cli/internal/bands"
	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"github.com/forest-guardian/cropharvest-cli/internal/features"
	"github.com/forest-guardian/cropharvest-cli/internal/labels"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawArray has B2=B3=B4=1 and B8=2 for every month and a distinct value in every other cell.
func rawArray() *features.Array {
	a := features.NewArray(bands.Timesteps, len(bands.All), nil)
	for t := 0; t < bands.Timesteps; t++ {
		for c := range bands.All {
			a.Set(t, c, float64(100*c+t))
		}
		a.Set(t, bands.Index("B2"), 1)
		a.Set(t, bands.Index("B3"), 1)
		a.Set(t, bands.Index("B4"), 1)
		a.Set(t, bands.Index("B8"), 2)
	}
	return a
}

func collection(t *testing.T, n int, store *features.MemoryStore) *labels.Labels {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for i := 0; i < n; i++ {
		f := geojson.NewFeature(orb.Point{0, 0})
		f.Properties["index"] = float64(i)
		f.Properties["dataset"] = "fixture"
		f.Properties["label"] = nil
		f.Properties["is_crop"] = i%2 == 0
		f.Properties["is_test"] = i == 0
		fc.Append(f)
	}
	l, err := labels.New(fc, store, labels.Options{Seed: 42})
	require.NoError(t, err)
	return l
}

func id(i int) string {
	return fmt.Sprintf("%d_fixture", i)
}

type memoryRecorder struct {
	channels map[string]int
}

func (m *memoryRecorder) Record(id string, channels int) error {
	m.channels[id] = channels
	return nil
}

func (m *memoryRecorder) Recorded(id string) (bool, error) {
	_, ok := m.channels[id]
	return ok, nil
}

func TestAugmentAppendsIndexes(t *testing.T) {
	indexes, err := bands.Lookup([]string{"ExG", "GNDVI"})
	require.NoError(t, err)

	raw := rawArray()
	out, err := Augment(raw, indexes, bands.DefaultParams())
	require.NoError(t, err)

	r, c := out.Shape()
	assert.Equal(t, 12, r)
	assert.Equal(t, 20, c)
	for ts := 0; ts < r; ts++ {
		for ch := 0; ch < len(bands.All); ch++ {
			assert.Equal(t, raw.At(ts, ch), out.At(ts, ch))
		}
		assert.Equal(t, 0.0, out.At(ts, 18))
		assert.InDelta(t, 1.0/3.0, out.At(ts, 19), 1e-12)
	}
}

func TestAugmentRejectsShape(t *testing.T) {
	indexes, err := bands.Lookup([]string{"ExG"})
	require.NoError(t, err)

	_, err = Augment(features.NewArray(12, 17, nil), indexes, bands.DefaultParams())
	require.ErrorIs(t, err, errs.ErrDataShapeMismatch)

	_, err = Augment(features.NewArray(11, 18, nil), indexes, bands.DefaultParams())
	require.ErrorIs(t, err, errs.ErrDataShapeMismatch)
}

func TestAugmentPropagatesNaN(t *testing.T) {
	indexes, err := bands.Lookup([]string{"GNDVI"})
	require.NoError(t, err)

	out, err := Augment(features.NewArray(12, 18, nil), indexes, bands.DefaultParams())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.At(0, 18)))
}

func TestClassify(t *testing.T) {
	store := features.NewMemoryStore()
	require.NoError(t, store.Save(id(1), rawArray()))
	require.NoError(t, store.Save(id(3), rawArray()))
	l := collection(t, 4, store)

	plan := Classify(l, store)
	assert.Equal(t, []string{id(1), id(3)}, plan.Present)
	assert.Equal(t, []string{id(0), id(2)}, plan.Missing)
}

func TestRun(t *testing.T) {
	store := features.NewMemoryStore()
	// row 0 is a test row and is augmented as well
	require.NoError(t, store.Save(id(0), rawArray()))
	require.NoError(t, store.Save(id(2), rawArray()))
	require.NoError(t, store.Save(id(3), features.NewArray(12, 17, nil)))
	l := collection(t, 5, store)

	result, err := Run(l, store, Options{Indexes: bands.DefaultIndexes, Params: bands.DefaultParams(), Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Augmented)
	assert.Equal(t, 2, result.Missing)
	assert.Equal(t, []string{id(3)}, result.Mismatched)

	for _, i := range []int{0, 2} {
		a, err := store.Load(id(i))
		require.NoError(t, err)
		_, c := a.Shape()
		assert.Equal(t, 18+len(bands.DefaultIndexes), c)
	}
	untouched, err := store.Load(id(3))
	require.NoError(t, err)
	_, c := untouched.Shape()
	assert.Equal(t, 17, c)
}

func TestRunUnknownIndexTouchesNothing(t *testing.T) {
	store := features.NewMemoryStore()
	require.NoError(t, store.Save(id(0), rawArray()))
	l := collection(t, 1, store)

	_, err := Run(l, store, Options{Indexes: []string{"ExG", "EVI"}, Quiet: true})
	require.ErrorIs(t, err, errs.ErrConfiguration)

	a, err := store.Load(id(0))
	require.NoError(t, err)
	_, c := a.Shape()
	assert.Equal(t, 18, c)
}

func TestAugmentIsNotIdempotent(t *testing.T) {
	indexes, err := bands.Lookup([]string{"ExG", "GNDVI"})
	require.NoError(t, err)

	once, err := Augment(rawArray(), indexes, bands.DefaultParams())
	require.NoError(t, err)
	twice, err := Augment(once, indexes, bands.DefaultParams())
	require.NoError(t, err)

	_, c := twice.Shape()
	require.Equal(t, 22, c)
	for ts := 0; ts < 12; ts++ {
		assert.Equal(t, twice.At(ts, 18), twice.At(ts, 20))
		assert.Equal(t, twice.At(ts, 19), twice.At(ts, 21))
	}
}

func TestRunReportsAlreadyAugmentedArrays(t *testing.T) {
	store := features.NewMemoryStore()
	require.NoError(t, store.Save(id(0), rawArray()))
	l := collection(t, 1, store)
	opts := Options{Indexes: []string{"ExG", "GNDVI"}, Params: bands.DefaultParams(), Quiet: true}

	first, err := Run(l, store, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Augmented)

	second, err := Run(l, store, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Augmented)
	assert.Equal(t, []string{id(0)}, second.Mismatched)

	a, err := store.Load(id(0))
	require.NoError(t, err)
	_, c := a.Shape()
	assert.Equal(t, 20, c)
}

func TestRunWithRecorder(t *testing.T) {
	store := features.NewMemoryStore()
	require.NoError(t, store.Save(id(0), rawArray()))
	require.NoError(t, store.Save(id(1), rawArray()))
	l := collection(t, 2, store)
	recorder := &memoryRecorder{channels: map[string]int{id(1): 23}}

	result, err := Run(l, store, Options{
		Indexes:      bands.DefaultIndexes,
		Params:       bands.DefaultParams(),
		Recorder:     recorder,
		SkipRecorded: true,
		Quiet:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Augmented)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 23, recorder.channels[id(0)])

	a, err := store.Load(id(1))
	require.NoError(t, err)
	_, c := a.Shape()
	assert.Equal(t, 18, c)
}
