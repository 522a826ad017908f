// Package regions holds the benchmark registry: evaluation regions, standalone test
// datasets and the country bounding boxes they are resolved against.
package regions

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/forest-guardian/cropharvest-cli/internal/geo"
	"github.com/paulmach/orb/geojson"
)

//go:embed countries.geojson
var countriesGeoJSON []byte

// Region is an evaluation area. ID has the form "{country}_{crop}_...".
type Region struct {
	ID   string
	BBox geo.BBox
}

// CountryAndCrop splits the region identifier into its first two parts.
func (r Region) CountryAndCrop() (string, string, error) {
	parts := strings.SplitN(r.ID, "_", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("region identifier %q should look like {country}_{crop}_...", r.ID)
	}
	return parts[0], parts[1], nil
}

type TestDataset struct {
	Country        string
	TestIdentifier string
}

type Registry struct {
	EvaluationRegions []Region
	TestDatasets      []TestDataset
	countries         map[string][]geo.BBox
}

func NewRegistry(regions []Region, testDatasets []TestDataset, countries map[string][]geo.BBox) *Registry {
	return &Registry{
		EvaluationRegions: regions,
		TestDatasets:      testDatasets,
		countries:         countries,
	}
}

// CountryBBoxes returns the boxes registered for a country in registration order.
func (r *Registry) CountryBBoxes(country string) []geo.BBox {
	return r.countries[country]
}

// Default returns the built-in registry backed by the embedded country boxes.
func Default() (*Registry, error) {
	countries, err := ParseCountries(countriesGeoJSON)
	if err != nil {
		return nil, err
	}

	evaluation := []Region{
		{ID: "Kenya_maize_2020_busia", BBox: geo.BBox{Name: "Kenya_maize_2020_busia", MinLat: 0.47190, MaxLat: 0.47749, MinLon: 34.22847, MaxLon: 34.23266}},
		{ID: "Kenya_maize_2020_kakamega", BBox: geo.BBox{Name: "Kenya_maize_2020_kakamega", MinLat: 0.26850, MaxLat: 0.28590, MinLon: 34.74310, MaxLon: 34.76120}},
		{ID: "Brazil_coffee_2020_minas", BBox: geo.BBox{Name: "Brazil_coffee_2020_minas", MinLat: -12.19950, MaxLat: -11.98280, MinLon: -46.07150, MaxLon: -45.80760}},
	}
	testDatasets := []TestDataset{
		{Country: "Togo", TestIdentifier: "togo-eval"},
	}
	return NewRegistry(evaluation, testDatasets, countries), nil
}

// ParseCountries reads a feature collection with a "country" property per feature and
// returns the bound of every geometry keyed by country.
func ParseCountries(data []byte) (map[string][]geo.BBox, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse country boxes: %w", err)
	}

	countries := make(map[string][]geo.BBox)
	for i, feature := range fc.Features {
		country := feature.Properties.MustString("country", "")
		if country == "" || feature.Geometry == nil {
			return nil, fmt.Errorf("country feature %d is missing its country or geometry", i)
		}
		name := feature.Properties.MustString("name", fmt.Sprintf("%s_%d", country, len(countries[country])))
		countries[country] = append(countries[country], geo.FromBound(name, feature.Geometry.Bound()))
	}
	return countries, nil
}
