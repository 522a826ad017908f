package augment

import (
	"errors"
	"fmt"

	"github.com/forest-guardian/cropharvest-cli/internal/bands"
	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"github.com/forest-guardian/cropharvest-cli/internal/features"
	"github.com/forest-guardian/cropharvest-cli/internal/labels"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/mat"
)

// Recorder keeps track of rewritten arrays. Recorded lets a run skip them.
type Recorder interface {
	Record(id string, channels int) error
	Recorded(id string) (bool, error)
}

type Options struct {
	Indexes []string
	Params  bands.Params
	// Recorder is optional. Every rewritten array is recorded in it.
	Recorder Recorder
	// SkipRecorded skips arrays the recorder already knows without loading them.
	SkipRecorded bool
	// Quiet hides the progress bar.
	Quiet bool
}

// Plan is the partition of label rows by whether their array is stored.
type Plan struct {
	Present []string
	Missing []string
}

type Result struct {
	Augmented  int
	Missing    int
	Skipped    int
	Mismatched []string
}

// Classify splits the rows of the collection into those with and without a stored array.
func Classify(l *labels.Labels, store features.Store) Plan {
	var plan Plan
	for _, row := range l.Rows() {
		id := labels.RowPath(row)
		if store.Exists(id) {
			plan.Present = append(plan.Present, id)
		} else {
			plan.Missing = append(plan.Missing, id)
		}
	}
	return plan
}

// Run appends the requested indexes to every stored array of the collection and writes
// each array back under the same identifier. Only raw (12, len(bands.All)) arrays are
// rewritten; any other shape, including an array augmented by an earlier run, is left
// untouched and reported in Result.Mismatched. Other errors abort the run.
func Run(l *labels.Labels, store features.Store, opts Options) (Result, error) {
	indexes, err := bands.Lookup(opts.Indexes)
	if err != nil {
		return Result{}, err
	}

	plan := Classify(l, store)
	result := Result{Missing: len(plan.Missing)}

	var progressBar *progressbar.ProgressBar
	if !opts.Quiet {
		progressBar = progressbar.Default(int64(len(plan.Present)), "Adding indexes")
	}

	for _, id := range plan.Present {
		if progressBar != nil {
			progressBar.Add(1)
		}

		if opts.SkipRecorded && opts.Recorder != nil {
			recorded, err := opts.Recorder.Recorded(id)
			if err != nil {
				return result, fmt.Errorf("failed to check ledger for %s: %w", id, err)
			}
			if recorded {
				result.Skipped++
				continue
			}
		}

		channels, err := augmentOne(store, id, indexes, opts.Params)
		if errors.Is(err, errs.ErrDataShapeMismatch) {
			result.Mismatched = append(result.Mismatched, id)
			continue
		}
		if err != nil {
			return result, err
		}

		if opts.Recorder != nil {
			if err := opts.Recorder.Record(id, channels); err != nil {
				return result, fmt.Errorf("failed to record %s: %w", id, err)
			}
		}
		result.Augmented++
	}

	if progressBar != nil {
		progressBar.Finish()
	}
	return result, nil
}

func augmentOne(store features.Store, id string, indexes []bands.NamedIndex, p bands.Params) (int, error) {
	array, err := store.Load(id)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", store.Path(id), err)
	}
	if timesteps, channels := array.Shape(); timesteps != bands.Timesteps || channels != len(bands.All) {
		return 0, fmt.Errorf("%s has shape (%d, %d), expected (%d, %d): %w", store.Path(id), timesteps, channels, bands.Timesteps, len(bands.All), errs.ErrDataShapeMismatch)
	}

	augmented, err := Augment(array, indexes, p)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", store.Path(id), err)
	}

	if err := store.Save(id, augmented); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", store.Path(id), err)
	}
	_, channels := augmented.Shape()
	return channels, nil
}

// Augment returns a copy of the array with one column appended per index. The array needs
// 12 rows and at least the raw band columns; any extra columns are kept, so applying it to
// an already augmented array appends the indexes a second time.
func Augment(array *features.Array, indexes []bands.NamedIndex, p bands.Params) (*features.Array, error) {
	timesteps, channels := array.Shape()
	if timesteps != bands.Timesteps || channels < len(bands.All) {
		return nil, fmt.Errorf("shape (%d, %d), expected (%d, >=%d): %w", timesteps, channels, bands.Timesteps, len(bands.All), errs.ErrDataShapeMismatch)
	}

	var bandMajor mat.Dense
	bandMajor.CloneFrom(array.T())

	derived := mat.NewDense(len(indexes), timesteps, nil)
	for i, index := range indexes {
		derived.SetRow(i, index.Func(&bandMajor, p))
	}

	var out mat.Dense
	out.Augment(array.Dense, derived.T())
	return &features.Array{Dense: &out}, nil
}
