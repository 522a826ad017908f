package dataset

import (
	"fmt"
	"iter"
	"slices"

	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"github.com/forest-guardian/cropharvest-cli/internal/features"
	"github.com/forest-guardian/cropharvest-cli/internal/geo"
	"github.com/forest-guardian/cropharvest-cli/internal/labels"
)

// anyCrop is the target name used in ids when no target label is given.
const anyCrop = "crop"

type Config struct {
	BBox geo.BBox
	// TargetLabel is empty when any crop counts as positive.
	TargetLabel          string
	BalanceNegativeCrops bool
	TestIdentifier       string
}

// Dataset is one binary classification task: positives first, then negatives. It does
// not change after New; the slice accessors return copies.
type Dataset struct {
	bbox           geo.BBox
	targetLabel    string
	testIdentifier string

	arrays features.Store
	tests  features.TestStore

	ids             []string
	filepaths       []string
	yVals           []int
	positiveIndices []int
	negativeIndices []int
}

// TestCase is one held-out file of a task.
type TestCase struct {
	Name     string
	Instance *features.TestInstance
}

func New(l *labels.Labels, tests features.TestStore, cfg Config) (*Dataset, error) {
	bbox := cfg.BBox
	positives, negatives, err := l.ConstructPositiveAndNegativePaths(&bbox, cfg.TargetLabel, true, cfg.BalanceNegativeCrops)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", bbox.Name, err)
	}

	d := &Dataset{
		bbox:           bbox,
		targetLabel:    cfg.TargetLabel,
		testIdentifier: cfg.TestIdentifier,
		arrays:         l.Arrays(),
		tests:          tests,
		ids:            append(append([]string{}, positives...), negatives...),
	}

	d.filepaths = make([]string, len(d.ids))
	for i, id := range d.ids {
		d.filepaths[i] = d.arrays.Path(id)
	}
	d.yVals = make([]int, 0, len(d.ids))
	for i := range positives {
		d.positiveIndices = append(d.positiveIndices, i)
		d.yVals = append(d.yVals, 1)
	}
	for i := range negatives {
		d.negativeIndices = append(d.negativeIndices, len(positives)+i)
		d.yVals = append(d.yVals, 0)
	}
	return d, nil
}

// Filepaths lists the storage path of every example.
func (d *Dataset) Filepaths() []string {
	return slices.Clone(d.filepaths)
}

// YVals holds 1 for positives and 0 for negatives, aligned with Filepaths.
func (d *Dataset) YVals() []int {
	return slices.Clone(d.yVals)
}

func (d *Dataset) PositiveIndices() []int {
	return slices.Clone(d.positiveIndices)
}

func (d *Dataset) NegativeIndices() []int {
	return slices.Clone(d.negativeIndices)
}

func (d *Dataset) Len() int {
	return len(d.filepaths)
}

// Get loads the i-th array and its binary label.
func (d *Dataset) Get(i int) (*features.Array, int, error) {
	if i < 0 || i >= d.Len() {
		return nil, 0, fmt.Errorf("index %d out of range for %s with %d examples", i, d.ID(), d.Len())
	}
	array, err := d.arrays.Load(d.ids[i])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load %s: %w", d.filepaths[i], err)
	}
	return array, d.yVals[i], nil
}

// TestData lists the held-out files of the task on every iteration and loads them lazily.
// A set test identifier with no matching files yields a single configuration error.
func (d *Dataset) TestData() iter.Seq2[*TestCase, error] {
	return func(yield func(*TestCase, error) bool) {
		if d.testIdentifier == "" {
			return
		}
		names, err := d.tests.ListMatching(d.testIdentifier)
		if err != nil {
			yield(nil, err)
			return
		}
		if len(names) == 0 {
			yield(nil, fmt.Errorf("missing test data %s*: %w", d.testIdentifier, errs.ErrConfiguration))
			return
		}
		for _, name := range names {
			instance, err := d.tests.LoadTestInstance(name)
			if err != nil {
				yield(nil, fmt.Errorf("failed to load test data %s: %w", name, err))
				return
			}
			if !yield(&TestCase{Name: name, Instance: instance}, nil) {
				return
			}
		}
	}
}

func (d *Dataset) BBox() geo.BBox {
	return d.bbox
}

func (d *Dataset) TargetLabel() string {
	if d.targetLabel == "" {
		return anyCrop
	}
	return d.targetLabel
}

func (d *Dataset) TestIdentifier() string {
	return d.testIdentifier
}

func (d *Dataset) ID() string {
	return fmt.Sprintf("%s_%s", d.bbox.Name, d.TargetLabel())
}

func (d *Dataset) String() string {
	name := "CropHarvest"
	if d.testIdentifier != "" {
		name = "CropHarvestEval"
	}
	return fmt.Sprintf("%s(%s, %s, %s)", name, d.bbox.Name, d.TargetLabel(), d.testIdentifier)
}
