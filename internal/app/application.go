package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"

	"routecatalog.transit.hk/internal/catalog"
	"routecatalog.transit.hk/internal/models"
)

// Application holds the dependencies shared by the HTTP handlers and
// middleware: configuration, logger and the catalog being served.
type Application struct {
	Config  Config
	Logger  *slog.Logger
	Catalog *models.CatalogFile
	Bounds  *catalog.BoundClassifier
}

// Config holds the server settings read from command-line flags.
type Config struct {
	Port        int
	Env         string
	APIKeys     []string
	RateLimit   int
	CatalogPath string
}

// New wires an Application around an already loaded catalog file.
func New(cfg Config, logger *slog.Logger, file *models.CatalogFile) *Application {
	if file.DataSheet == nil {
		file.DataSheet = models.NewCatalog()
	}
	return &Application{
		Config:  cfg,
		Logger:  logger,
		Catalog: file,
		Bounds:  catalog.NewBoundClassifier(file.DataSheet, logger),
	}
}

// LoadCatalog reads a data_full.json (or data.json) file written by the builder.
func LoadCatalog(path string) (*models.CatalogFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}
	var file models.CatalogFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("error decoding catalog file %s: %w", path, err)
	}
	if file.DataSheet == nil {
		return nil, fmt.Errorf("catalog file %s has no dataSheet", path)
	}
	c := file.DataSheet
	if c.RouteList == nil {
		c.RouteList = make(map[string]*models.Route)
	}
	if c.StopList == nil {
		c.StopList = make(map[string]*models.Stop)
	}
	if c.StopMap == nil {
		c.StopMap = make(models.StopMap)
	}
	return &file, nil
}
