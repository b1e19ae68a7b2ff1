// Package appconf loads the catalog builder configuration from an optional
// YAML file and environment overrides.
package appconf

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment names.
const (
	Development = "development"
	Test        = "test"
	Production  = "production"
)

// Config is the catalog builder configuration.
type Config struct {
	Env          string `yaml:"env" validate:"required,oneof=development test production"`
	Experimental bool   `yaml:"experimental"`
	OutputDir    string `yaml:"outputDir" validate:"required"`
	SQLitePath   string `yaml:"sqlitePath"`

	Workers           int           `yaml:"workers" validate:"gte=1,lte=64"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond" validate:"gt=0"`
	Retries           int           `yaml:"retries" validate:"gte=0,lte=10"`
	RetryDelay        time.Duration `yaml:"retryDelay" validate:"gte=0"`

	Feeds FeedConfig `yaml:"feeds"`
}

// FeedConfig lists upstream locations. Any of them may be a local path.
type FeedConfig struct {
	DataSheetURL    string `yaml:"dataSheetURL" validate:"required"`
	KMBRoutesURL    string `yaml:"kmbRoutesURL"`
	CTBRoutesURL    string `yaml:"ctbRoutesURL"`
	NLBRoutesURL    string `yaml:"nlbRoutesURL"`
	GMBRoutesURL    string `yaml:"gmbRoutesURL"`
	CTBRouteStopURL string `yaml:"ctbRouteStopURL" validate:"omitempty,contains={route}"`
	HeadwayGTFSURL  string `yaml:"headwayGTFSURL"`
}

// Default returns the production feed locations with conservative fan-out.
func Default() Config {
	return Config{
		Env:               Development,
		OutputDir:         ".",
		Workers:           8,
		RequestsPerSecond: 20,
		Retries:           3,
		RetryDelay:        2 * time.Second,
		Feeds: FeedConfig{
			DataSheetURL:    "https://crawling-data.hkbuseta.com/routeFareList.min.json",
			KMBRoutesURL:    "https://data.etabus.gov.hk/v1/transport/kmb/route/",
			CTBRoutesURL:    "https://rt.data.gov.hk/v2/transport/citybus/route/ctb",
			NLBRoutesURL:    "https://rt.data.gov.hk/v2/transport/nlb/route.php?action=list",
			GMBRoutesURL:    "https://data.etagmb.gov.hk/route",
			CTBRouteStopURL: "https://rt.data.gov.hk/v2/transport/citybus/route-stop/CTB/{route}/{direction}",
			HeadwayGTFSURL:  "https://static.data.gov.hk/td/pt-headway-tc/gtfs.zip",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path when
// path is non-empty, then environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field at once.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"CATALOG_ENV":                &cfg.Env,
		"CATALOG_OUTPUT_DIR":         &cfg.OutputDir,
		"CATALOG_SQLITE_PATH":        &cfg.SQLitePath,
		"CATALOG_DATA_SHEET_URL":     &cfg.Feeds.DataSheetURL,
		"CATALOG_KMB_ROUTES_URL":     &cfg.Feeds.KMBRoutesURL,
		"CATALOG_CTB_ROUTES_URL":     &cfg.Feeds.CTBRoutesURL,
		"CATALOG_NLB_ROUTES_URL":     &cfg.Feeds.NLBRoutesURL,
		"CATALOG_GMB_ROUTES_URL":     &cfg.Feeds.GMBRoutesURL,
		"CATALOG_CTB_ROUTE_STOP_URL": &cfg.Feeds.CTBRouteStopURL,
		"CATALOG_HEADWAY_GTFS_URL":   &cfg.Feeds.HeadwayGTFSURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("CATALOG_EXPERIMENTAL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CATALOG_EXPERIMENTAL: %w", err)
		}
		cfg.Experimental = b
	}
	ints := map[string]*int{
		"CATALOG_WORKERS": &cfg.Workers,
		"CATALOG_RETRIES": &cfg.Retries,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v, ok := lookup("CATALOG_REQUESTS_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CATALOG_REQUESTS_PER_SECOND: %w", err)
		}
		cfg.RequestsPerSecond = f
	}
	if v, ok := lookup("CATALOG_RETRY_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CATALOG_RETRY_DELAY: %w", err)
		}
		cfg.RetryDelay = d
	}
	return nil
}

// OutputPrefix is prepended to every output file name.
func (c Config) OutputPrefix() string {
	if c.Experimental {
		return "experimental_"
	}
	return ""
}
