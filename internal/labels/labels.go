package labels

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"github.com/forest-guardian/cropharvest-cli/internal/features"
	"github.com/forest-guardian/cropharvest-cli/internal/properties"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	columnIndex   = "index"
	columnDataset = "dataset"
	columnLabel   = "label"
	columnIsCrop  = "is_crop"
	columnIsTest  = "is_test"
)

// Row is one labelled point.
type Row struct {
	Point   orb.Point
	IsCrop  bool
	Label   *string
	IsTest  bool
	Index   int
	Dataset string
}

func (r Row) HasLabel(label string) bool {
	return r.Label != nil && *r.Label == label
}

type Options struct {
	// Seed drives the sampling of other-crop negatives.
	Seed uint64
}

// Labels is the label collection of a dataset root, loaded once.
type Labels struct {
	collection *geojson.FeatureCollection
	rows       []Row
	arrays     features.Store
	seed       uint64
}

// Load reads {root}/labels.geojson. Existence checks on rows go through arrays.
func Load(root string, arrays features.Store, opts Options) (*Labels, error) {
	if err := properties.CheckRoot(root); err != nil {
		return nil, err
	}
	path := filepath.Join(root, properties.LabelsFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s does not exist, it can be downloaded with the download command: %w", path, errs.ErrConfiguration)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return New(fc, arrays, opts)
}

func New(fc *geojson.FeatureCollection, arrays features.Store, opts Options) (*Labels, error) {
	rows := make([]Row, 0, len(fc.Features))
	for i, feature := range fc.Features {
		row, err := parseRow(feature)
		if err != nil {
			return nil, fmt.Errorf("label feature %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return &Labels{collection: fc, rows: rows, arrays: arrays, seed: opts.Seed}, nil
}

func (l *Labels) AsGeoJSON() *geojson.FeatureCollection {
	return l.collection
}

func (l *Labels) Len() int {
	return len(l.rows)
}

func (l *Labels) Row(i int) Row {
	return l.rows[i]
}

// Rows returns the rows in collection order. The slice must not be modified.
func (l *Labels) Rows() []Row {
	return l.rows
}

func (l *Labels) Arrays() features.Store {
	return l.arrays
}

// RowPath returns the identifier of the row's feature array.
func RowPath(row Row) string {
	return fmt.Sprintf("%d_%s", row.Index, row.Dataset)
}

func parseRow(feature *geojson.Feature) (Row, error) {
	if feature.Geometry == nil {
		return Row{}, errors.New("missing geometry")
	}
	point, ok := feature.Geometry.(orb.Point)
	if !ok {
		point = feature.Geometry.Bound().Center()
	}

	props := feature.Properties
	index, err := intProperty(props, columnIndex)
	if err != nil {
		return Row{}, err
	}
	dataset, ok := props[columnDataset].(string)
	if !ok || dataset == "" {
		return Row{}, fmt.Errorf("missing %q property", columnDataset)
	}
	isCrop, err := boolProperty(props, columnIsCrop)
	if err != nil {
		return Row{}, err
	}
	isTest, err := boolProperty(props, columnIsTest)
	if err != nil {
		return Row{}, err
	}

	var label *string
	switch v := props[columnLabel].(type) {
	case nil:
	case string:
		label = &v
	default:
		return Row{}, fmt.Errorf("property %q should be a string or null, got %T", columnLabel, v)
	}

	return Row{
		Point:   point,
		IsCrop:  isCrop,
		Label:   label,
		IsTest:  isTest,
		Index:   index,
		Dataset: dataset,
	}, nil
}

func intProperty(props geojson.Properties, key string) (int, error) {
	switch v := props[key].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("property %q should be a number, got %T", key, v)
	}
}

// boolProperty accepts booleans as well as 0/1 numbers, both appear in released label files.
func boolProperty(props geojson.Properties, key string) (bool, error) {
	switch v := props[key].(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("property %q should be a boolean, got %T", key, v)
	}
}
