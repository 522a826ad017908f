package dataset

import (
	"fmt"

	"github.com/forest-guardian/cropharvest-cli/internal/features"
	"github.com/forest-guardian/cropharvest-cli/internal/labels"
	"github.com/forest-guardian/cropharvest-cli/internal/regions"
)

// BuildBenchmarks creates the evaluation suite: one crop task per country box holding an
// evaluation region, then one crop/non-crop task per standalone test dataset.
func BuildBenchmarks(l *labels.Labels, tests features.TestStore, registry *regions.Registry, balanceNegativeCrops bool) ([]*Dataset, error) {
	var output []*Dataset
	seen := make(map[string]bool)

	for _, region := range registry.EvaluationRegions {
		country, crop, err := region.CountryAndCrop()
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%s_%s", country, crop)
		if seen[key] {
			continue
		}

		for _, countryBBox := range registry.CountryBBoxes(country) {
			if !countryBBox.ContainsBBox(region.BBox) {
				continue
			}
			d, err := New(l, tests, Config{
				BBox:                 countryBBox,
				TargetLabel:          crop,
				BalanceNegativeCrops: balanceNegativeCrops,
				TestIdentifier:       key,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to build benchmark %s: %w", region.ID, err)
			}
			output = append(output, d)
			seen[key] = true
		}
	}

	for _, test := range registry.TestDatasets {
		boxes := registry.CountryBBoxes(test.Country)
		if len(boxes) == 0 {
			return nil, fmt.Errorf("no bounding box registered for %s", test.Country)
		}
		d, err := New(l, tests, Config{
			BBox:                 boxes[0],
			BalanceNegativeCrops: balanceNegativeCrops,
			TestIdentifier:       test.TestIdentifier,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build benchmark %s: %w", test.TestIdentifier, err)
		}
		output = append(output, d)
	}

	return output, nil
}
