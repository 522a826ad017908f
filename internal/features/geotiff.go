package features

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/cropharvest-cli/internal/errs"
)

const (
	extension     = ".tif"
	hdf5Extension = ".h5"
)

// GeoTIFFStore keeps each array as a single Float64 band, one raster row per timestep
// and one raster column per channel. Test instances stack their arrays vertically and
// carry labels and coordinates as dataset metadata.
//
// Files published as HDF5 (an "array" dataset per example, X/y/lats/lons per test file)
// are read through the GDAL HDF5 driver when no GeoTIFF of the same id exists. Saving
// always writes the GeoTIFF, which then takes precedence.
type GeoTIFFStore struct {
	dir string
}

func NewGeoTIFFStore(dir string) *GeoTIFFStore {
	godal.RegisterAll()
	return &GeoTIFFStore{dir: dir}
}

func (s *GeoTIFFStore) Dir() string {
	return s.dir
}

// Path returns the file backing id: the GeoTIFF, or the HDF5 file when only that exists.
func (s *GeoTIFFStore) Path(id string) string {
	tif := s.tiffPath(id)
	if h5 := s.hdf5Path(id); !fileExists(tif) && fileExists(h5) {
		return h5
	}
	return tif
}

func (s *GeoTIFFStore) Exists(id string) bool {
	return fileExists(s.tiffPath(id)) || fileExists(s.hdf5Path(id))
}

func (s *GeoTIFFStore) Load(id string) (*Array, error) {
	path := s.Path(id)
	if !fileExists(path) {
		return nil, fmt.Errorf("array %s: %w", path, errs.ErrStorageMissing)
	}
	if strings.HasSuffix(path, hdf5Extension) {
		return loadHDF5Array(path)
	}
	ds, err := openQuiet(path)
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

func (s *GeoTIFFStore) Save(id string, a *Array) error {
	timesteps, channels := a.Shape()
	return s.write(s.tiffPath(id), a.Values(), channels, timesteps, nil)
}

func (s *GeoTIFFStore) ListMatching(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, ext := range []string{extension, hdf5Extension} {
			if strings.HasSuffix(name, ext) {
				ids = append(ids, strings.TrimSuffix(name, ext))
			}
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (s *GeoTIFFStore) SaveTestInstance(id string, ti *TestInstance) error {
	if err := ti.validate(); err != nil {
		return err
	}
	if ti.Len() == 0 {
		return fmt.Errorf("test instance %s is empty", id)
	}
	timesteps, channels := ti.X[0].Shape()
	data := make([]float64, 0, ti.Len()*timesteps*channels)
	for _, x := range ti.X {
		data = append(data, x.Values()...)
	}
	metadata := map[string]string{
		"timesteps": strconv.Itoa(timesteps),
		"y":         joinFloats(ti.Y),
		"lats":      joinFloats(ti.Lats),
		"lons":      joinFloats(ti.Lons),
	}
	return s.write(s.tiffPath(id), data, channels, ti.Len()*timesteps, metadata)
}

func (s *GeoTIFFStore) LoadTestInstance(id string) (*TestInstance, error) {
	path := s.Path(id)
	if !fileExists(path) {
		return nil, fmt.Errorf("test instance %s: %w", path, errs.ErrStorageMissing)
	}
	if strings.HasSuffix(path, hdf5Extension) {
		return loadHDF5TestInstance(path)
	}
	ds, err := openQuiet(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()

	timesteps, err := strconv.Atoi(ds.Metadata("timesteps"))
	if err != nil || timesteps <= 0 {
		return nil, fmt.Errorf("test instance %s has no valid timesteps metadata", path)
	}
	ti := &TestInstance{}
	for key, dst := range map[string]*[]float64{"y": &ti.Y, "lats": &ti.Lats, "lons": &ti.Lons} {
		values, err := splitFloats(ds.Metadata(key))
		if err != nil {
			return nil, fmt.Errorf("test instance %s has invalid %s metadata: %w", path, key, err)
		}
		*dst = values
	}

	data, width, height, err := readBand(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if height%timesteps != 0 {
		return nil, fmt.Errorf("test instance %s has %d rows, not a multiple of %d timesteps", path, height, timesteps)
	}
	block := timesteps * width
	for i := 0; i < height/timesteps; i++ {
		ti.X = append(ti.X, NewArray(timesteps, width, data[i*block:(i+1)*block]))
	}
	if err := ti.validate(); err != nil {
		return nil, fmt.Errorf("test instance %s: %w", path, err)
	}
	return ti, nil
}

func (s *GeoTIFFStore) tiffPath(id string) string {
	return filepath.Join(s.dir, id+extension)
}

func (s *GeoTIFFStore) hdf5Path(id string) string {
	return filepath.Join(s.dir, id+hdf5Extension)
}

// write creates the raster next to path and renames it over the destination so a
// reader never sees a half written file.
func (s *GeoTIFFStore) write(path string, data []float64, width, height int, metadata map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmpFile := path + ".tmp"

	ds, err := godal.Create(godal.GTiff, tmpFile, 1, godal.Float64, width, height)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpFile, err)
	}
	if err := ds.Bands()[0].Write(0, 0, data, width, height); err != nil {
		ds.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write %s: %w", tmpFile, err)
	}
	for key, value := range metadata {
		if err := ds.SetMetadata(key, value); err != nil {
			ds.Close()
			os.Remove(tmpFile)
			return fmt.Errorf("failed to set %s metadata on %s: %w", key, tmpFile, err)
		}
	}
	if err := ds.Close(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to flush %s: %w", tmpFile, err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename %s: %w", tmpFile, err)
	}
	return nil
}

func openQuiet(path string) (*godal.Dataset, error) {
	return godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	}))
}

func readBand(ds *godal.Dataset) ([]float64, int, int, error) {
	structure := ds.Structure()
	if structure.NBands < 1 {
		return nil, 0, 0, errors.New("raster has no bands")
	}
	width, height := structure.SizeX, structure.SizeY
	data := make([]float64, width*height)
	if err := ds.Bands()[0].Read(0, 0, data, width, height); err != nil {
		return nil, 0, 0, err
	}
	return data, width, height, nil
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func splitFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
