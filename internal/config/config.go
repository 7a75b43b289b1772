package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/trips"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/weather"
)

// ErrMissingCredential is returned when NOAA_TOKEN is not set. A missing
// credential is an operator mistake distinct from any network failure.
var ErrMissingCredential = errors.New("NOAA_TOKEN is not set; the weather API requires a credential")

// DefaultStation is LaGuardia Airport, the weather station covering the
// CitiBike service area.
const DefaultStation = "GHCND:USW00014732"

type AppConfig struct {
	// Weather API credential and query parameters.
	NOAAToken   string `validate:"required"`
	NOAAStation string `validate:"required"`
	NOAABaseURL string `validate:"required,url"`

	// Year under analysis; bounds the weather date range.
	Year int `validate:"required,min=2013"`

	// Twelve monthly trip sources, chronological.
	Sources []trips.Source `validate:"required,len=12,dive"`

	// Destination of the merged table.
	OutputPath string `validate:"required"`

	// Timeout for outbound HTTP calls.
	HTTPTimeout time.Duration
}

// WeatherRange returns the inclusive date range to request from the
// weather API.
func (c *AppConfig) WeatherRange() (time.Time, time.Time) {
	from := time.Date(c.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(c.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return from, to
}

// manifest is the YAML source manifest listing the monthly input files.
type manifest struct {
	Year   int            `yaml:"year" validate:"required"`
	Months []trips.Source `yaml:"months" validate:"required,len=12,dive"`
}

// Load reads configuration from environment with sensible defaults, plus the
// source manifest named by TRIP_SOURCES.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.NOAAToken = os.Getenv("NOAA_TOKEN")
	if cfg.NOAAToken == "" {
		return nil, ErrMissingCredential
	}
	cfg.NOAAStation = getenvDefault("NOAA_STATION", DefaultStation)
	cfg.NOAABaseURL = getenvDefault("NOAA_BASE_URL", weather.DefaultBaseURL)
	cfg.OutputPath = getenvDefault("OUTPUT_PATH", "citibike_weather_2022.csv")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	manifestPath := getenvDefault("TRIP_SOURCES", "config/sources.yaml")
	m, err := loadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	cfg.Year = m.Year
	cfg.Sources = m.Months

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

func loadManifest(path string) (*manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading source manifest %s", path)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing source manifest %s", path)
	}

	if err := validator.New().Struct(&m); err != nil {
		return nil, errors.Wrapf(err, "invalid source manifest %s", path)
	}

	if err := checkChronological(m.Year, m.Months); err != nil {
		return nil, errors.Wrapf(err, "invalid source manifest %s", path)
	}

	return &m, nil
}

// checkChronological enforces that the manifest lists the twelve months of
// the configured year, in order.
func checkChronological(year int, months []trips.Source) error {
	for i, src := range months {
		t, err := time.Parse("2006-01", src.Month)
		if err != nil {
			return errors.Errorf("month %q is not YYYY-MM", src.Month)
		}
		if t.Year() != year {
			return errors.Errorf("month %s is outside year %d", src.Month, year)
		}
		if int(t.Month()) != i+1 {
			return errors.Errorf("months out of order: %s at position %d", src.Month, i+1)
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
