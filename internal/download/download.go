package download

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/forest-guardian/cropharvest-cli/internal/properties"
	"github.com/gammazero/workerpool"
	"github.com/klauspost/compress/gzip"
	"github.com/schollz/progressbar/v3"
)

// RetryPause is the wait between two attempts of the same request.
var RetryPause = 5 * time.Second

type Options struct {
	Retries int
	Quiet   bool
	Client  *http.Client
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

func (o Options) retries() int {
	if o.Retries < 1 {
		return 1
	}
	return o.Retries
}

// File downloads url to dest unless dest already exists. The body is written to a
// temporary file next to dest and renamed once complete.
func File(ctx context.Context, url, dest string, opts Options) error {
	if _, err := os.Stat(dest); err == nil {
		fmt.Printf("Files already downloaded: %s\n", dest)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	var err error
	for attempt := 1; attempt <= opts.retries(); attempt++ {
		err = fetch(ctx, url, dest, opts)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Printf("Attempt %d failed: %v\n", attempt, err)
		if attempt < opts.retries() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(RetryPause):
			}
		}
	}
	return fmt.Errorf("failed to download %s after %d attempts: %w", url, opts.retries(), err)
}

func fetch(ctx context.Context, url, dest string, opts Options) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := opts.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmp := dest + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	var w io.Writer = file
	if !opts.Quiet {
		w = io.MultiWriter(file, progressbar.DefaultBytes(resp.ContentLength, "Downloading "+filepath.Base(dest)))
	}
	_, err = io.Copy(w, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// Archive downloads a .tar.gz archive into destDir and extracts it there. The archive is
// removed after a successful extraction.
func Archive(ctx context.Context, url, destDir string, opts Options) error {
	archivePath := filepath.Join(destDir, archiveName(url))
	if err := File(ctx, url, archivePath, opts); err != nil {
		return err
	}
	if err := Extract(archivePath, destDir); err != nil {
		return err
	}
	return os.Remove(archivePath)
}

// Extract unpacks a gzip compressed tarball below destDir.
func Extract(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", archivePath, err)
	}
	defer gz.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", archivePath, err)
		}

		target := filepath.Join(root, header.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes %s", header.Name, destDir)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return fmt.Errorf("failed to extract %s: %w", header.Name, err)
			}
		}
	}
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func archiveName(url string) string {
	name := url
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return filepath.Base(name)
}

// All fetches the labels and the feature archives into root, and the test feature archive
// when withTest is set. The transfers run concurrently; the first error is returned.
func All(ctx context.Context, cfg properties.Config, root string, withTest bool) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", root, err)
	}
	opts := Options{Retries: cfg.DownloadRetries}

	jobs := []func() error{
		func() error {
			return File(ctx, cfg.LabelsURL, filepath.Join(root, properties.LabelsFilename), opts)
		},
		func() error {
			if _, err := os.Stat(filepath.Join(root, properties.ArraysDir)); err == nil {
				fmt.Println("Files already downloaded.")
				return nil
			}
			return Archive(ctx, cfg.FeaturesURL, root, opts)
		},
	}
	if withTest {
		jobs = append(jobs, func() error {
			if _, err := os.Stat(filepath.Join(root, properties.TestFeaturesDir)); err == nil {
				fmt.Println("Files already downloaded.")
				return nil
			}
			return Archive(ctx, cfg.TestFeaturesURL, root, opts)
		})
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	wp := workerpool.New(len(jobs))
	for _, job := range jobs {
		wp.Submit(func() {
			if err := job(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
	}
	wp.StopWait()
	return firstErr
}
