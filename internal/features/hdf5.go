package features

import "fmt"

// hdf5Subdataset names one dataset inside an HDF5 file for the GDAL HDF5 driver.
func hdf5Subdataset(path, name string) string {
	return fmt.Sprintf(`HDF5:"%s"://%s`, path, name)
}

func loadHDF5Array(path string) (*Array, error) {
	ds, err := openQuiet(hdf5Subdataset(path, "array"))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()

	data, width, height, err := readBand(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewArray(height, width, data), nil
}

// loadHDF5TestInstance reads X as one band per pixel, and y, lats and lons as single-row
// rasters.
func loadHDF5TestInstance(path string) (*TestInstance, error) {
	ds, err := openQuiet(hdf5Subdataset(path, "X"))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s X: %w", path, err)
	}
	defer ds.Close()

	ti := &TestInstance{}
	structure := ds.Structure()
	width, height := structure.SizeX, structure.SizeY
	for i, band := range ds.Bands() {
		data := make([]float64, width*height)
		if err := band.Read(0, 0, data, width, height); err != nil {
			return nil, fmt.Errorf("failed to read %s X[%d]: %w", path, i, err)
		}
		ti.X = append(ti.X, NewArray(height, width, data))
	}

	for name, dst := range map[string]*[]float64{"y": &ti.Y, "lats": &ti.Lats, "lons": &ti.Lons} {
		values, err := readHDF5Vector(path, name)
		if err != nil {
			return nil, err
		}
		*dst = values
	}

	if err := ti.validate(); err != nil {
		return nil, fmt.Errorf("test instance %s: %w", path, err)
	}
	return ti, nil
}

func readHDF5Vector(path, name string) ([]float64, error) {
	ds, err := openQuiet(hdf5Subdataset(path, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s %s: %w", path, name, err)
	}
	defer ds.Close()

	data, _, _, err := readBand(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", path, name, err)
	}
	return data, nil
}
