package pipeline

import (
	"context"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/monitoring"
)

// LoadCatalog reads the catalog a configuration points at.
func LoadCatalog(ctx context.Context, c *config.CatalogConfig) (*catalog.Catalog, error) {
	path := c.GetPath()
	if path == "" {
		return nil, massmap.ConfigErrorf("catalog.path is required")
	}
	defer monitoring.Stage("load " + path)()

	switch c.GetSource() {
	case config.SourceParquet:
		return catalog.ReadParquet(path, c.GetFormat())
	case config.SourceSQLite:
		return catalog.ReadSQLite(ctx, path, c.GetTable(), c.GetFormat())
	}
	return nil, massmap.NotImplementedf("catalog source %q", c.GetSource())
}
