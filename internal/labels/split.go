package labels

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"github.com/forest-guardian/cropharvest-cli/internal/geo"
)

// ConstructPositiveAndNegativePaths splits the collection for one binary task and returns
// the identifiers of positive and negative examples that have a stored array.
//
// With a target label, positives are the rows carrying it. If the target is not a crop the
// negatives are unlabelled crop rows plus every other labelled class. If it is a crop the
// negatives are all non-crop rows plus other labelled crops, sampled down to the number of
// non-crop rows when balanceNegativeCrops is set. Without a target label rows split on is_crop.
func (l *Labels) ConstructPositiveAndNegativePaths(bbox *geo.BBox, targetLabel string, filterTest, balanceNegativeCrops bool) ([]string, []string, error) {
	rows := l.rows
	if filterTest {
		rows = filterRows(rows, func(r Row) bool { return !r.IsTest })
	}
	if bbox != nil {
		rows = filterRows(rows, func(r Row) bool { return bbox.ContainsPoint(r.Point) })
	}

	var positives, negatives []Row
	if targetLabel != "" {
		first := slices.IndexFunc(rows, func(r Row) bool { return r.HasLabel(targetLabel) })
		if first < 0 {
			return nil, nil, fmt.Errorf("no rows carry the label %q: %w", targetLabel, errs.ErrDataInconsistency)
		}
		targetIsCrop := rows[first].IsCrop
		positives = filterRows(rows, func(r Row) bool { return r.HasLabel(targetLabel) })

		if !targetIsCrop {
			negatives = filterRows(rows, func(r Row) bool {
				isNull := r.Label == nil
				return (isNull && r.IsCrop) || (!isNull && !r.HasLabel(targetLabel))
			})
		} else {
			nonCrop := filterRows(rows, func(r Row) bool { return !r.IsCrop })
			otherCrop := filterRows(rows, func(r Row) bool {
				return r.IsCrop && r.Label != nil && !r.HasLabel(targetLabel)
			})
			if balanceNegativeCrops {
				otherCrop = sampleRows(otherCrop, len(nonCrop), l.seed)
			}
			negatives = append(nonCrop, otherCrop...)
		}
	} else {
		positives = filterRows(rows, func(r Row) bool { return r.IsCrop })
		negatives = filterRows(rows, func(r Row) bool { return !r.IsCrop })
	}

	return l.existingPaths(positives), l.existingPaths(negatives), nil
}

func (l *Labels) existingPaths(rows []Row) []string {
	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		id := RowPath(row)
		if l.arrays.Exists(id) {
			paths = append(paths, id)
		}
	}
	return paths
}

func filterRows(rows []Row, keep func(Row) bool) []Row {
	var out []Row
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// sampleRows picks up to n rows with a seeded shuffle and returns them in collection order.
func sampleRows(rows []Row, n int, seed uint64) []Row {
	if n >= len(rows) {
		return rows
	}
	picked := DeterministicShuffle(indexes(len(rows)), seed)[:n]
	slices.Sort(picked)

	out := make([]Row, 0, n)
	for _, i := range picked {
		out = append(out, rows[i])
	}
	return out
}

// DeterministicShuffle returns a shuffled copy of items. The same seed and input always
// give the same output.
func DeterministicShuffle[T any](items []T, seed uint64) []T {
	out := slices.Clone(items)
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
