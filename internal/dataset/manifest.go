package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

type ManifestRow struct {
	Path  string `csv:"path"`
	Label int    `csv:"label"`
}

func (d *Dataset) Manifest() []ManifestRow {
	rows := make([]ManifestRow, d.Len())
	for i, path := range d.filepaths {
		rows[i] = ManifestRow{Path: path, Label: d.yVals[i]}
	}
	return rows
}

func WriteManifest(w io.Writer, d *Dataset) error {
	rows := d.Manifest()
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write manifest for %s: %w", d.ID(), err)
	}
	return nil
}

// SaveManifest writes {dir}/{id}.csv and returns its path.
func SaveManifest(dir string, d *Dataset) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}
	filePath := filepath.Join(dir, d.ID()+".csv")
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create manifest file: %w", err)
	}
	defer file.Close()

	if err := WriteManifest(file, d); err != nil {
		return "", err
	}

	fmt.Printf("Manifest with %d rows successfully saved to %s.\n", d.Len(), filePath)
	return filePath, nil
}

func ReadManifest(r io.Reader) ([]ManifestRow, error) {
	var rows []ManifestRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return rows, nil
}
