package properties

import (
	"fmt"
	"os"
	"strconv"

	"github.com/forest-guardian/cropharvest-cli/internal/errs"
	"github.com/joho/godotenv"
)

const (
	LabelsFilename      = "labels.geojson"
	FeaturesDir         = "features"
	ArraysDir           = "features/arrays"
	TestFeaturesDir     = "test_features"
	DefaultSeed         = 42
	DefaultSoilFactor   = 0.4
	defaultLabelsURL    = "https://zenodo.org/record/5021762/files/labels.geojson?download=1"
	defaultFeaturesURL  = "https://zenodo.org/record/5021762/files/features.tar.gz?download=1"
	defaultTestURL      = "https://zenodo.org/record/5021762/files/test_features.tar.gz?download=1"
	defaultDownloadTrys = 10
)

type Config struct {
	RootPath        string
	Seed            uint64
	SoilFactor      float64
	LabelsURL       string
	FeaturesURL     string
	TestFeaturesURL string
	DownloadRetries int

	DiscordErrorNotificationURL   string
	DiscordSuccessNotificationURL string
}

// LoadEnv reads the first .env file found next to the binary or one level up.
// A missing file is not an error, the process environment is used as is.
func LoadEnv() {
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("../.env")
	}
}

func Load() (Config, error) {
	cfg := Config{
		RootPath:                      os.Getenv("CROPHARVEST_ROOT"),
		Seed:                          DefaultSeed,
		SoilFactor:                    DefaultSoilFactor,
		LabelsURL:                     getenv("CROPHARVEST_LABELS_URL", defaultLabelsURL),
		FeaturesURL:                   getenv("CROPHARVEST_FEATURES_URL", defaultFeaturesURL),
		TestFeaturesURL:               getenv("CROPHARVEST_TEST_FEATURES_URL", defaultTestURL),
		DownloadRetries:               defaultDownloadTrys,
		DiscordErrorNotificationURL:   os.Getenv("DISCORD_ERROR_NOTIFICATION_URL"),
		DiscordSuccessNotificationURL: os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL"),
	}

	if v := os.Getenv("CROPHARVEST_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CROPHARVEST_SEED %q: %w", v, errs.ErrConfiguration)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv("CROPHARVEST_SAVI_L"); v != "" {
		l, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CROPHARVEST_SAVI_L %q: %w", v, errs.ErrConfiguration)
		}
		cfg.SoilFactor = l
	}
	if v := os.Getenv("CROPHARVEST_DOWNLOAD_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid CROPHARVEST_DOWNLOAD_RETRIES %q: %w", v, errs.ErrConfiguration)
		}
		cfg.DownloadRetries = n
	}

	return cfg, nil
}

// CheckRoot verifies that the dataset root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%s should be a directory: %w", root, errs.ErrConfiguration)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s should be a directory: %w", root, errs.ErrConfiguration)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
