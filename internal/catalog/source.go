// internal/catalog/source.go
package catalog

import (
	"context"
	"fmt"
	"time"

	"rental-chatbot/internal/common/config"
	"rental-chatbot/internal/common/database"
	"rental-chatbot/internal/common/logger"
)

// Source loads the catalog once before the first session starts.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Load opens the backend selected by cfg.Catalog.Source, reads the catalog and releases the
// backend again. The catalog is immutable afterwards so no connection is kept.
func Load(ctx context.Context, cfg *config.Config, log logger.Logger) (*Catalog, error) {
	log = log.WithFields(map[string]interface{}{"catalogSource": cfg.Catalog.Source})
	start := time.Now()

	var (
		cat *Catalog
		err error
	)

	switch cfg.Catalog.Source {
	case "file", "":
		cat, err = NewFileSource(cfg.Catalog.Path, cfg.Catalog.Delimiter).Load(ctx)

	case "postgres":
		pg, perr := database.NewPostgres(ctx, cfg.Database.Postgres, 5*time.Second)
		if perr != nil {
			return nil, perr
		}
		defer pg.Close()
		cat, err = NewPostgresSource(pg.DB, cfg.Catalog.Table).Load(ctx)

	case "elasticsearch":
		es, eerr := database.NewElasticsearch(ctx, cfg.Database.Elasticsearch)
		if eerr != nil {
			return nil, eerr
		}
		cat, err = NewElasticsearchSource(es, cfg.Catalog.Index).Load(ctx)

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}

	if err != nil {
		log.Error("catalog load failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	minPrice, maxPrice := cat.PriceRange()
	log.Info("catalog loaded", map[string]interface{}{
		"rows":       cat.Len(),
		"brands":     len(cat.Brands()),
		"categories": len(cat.Categories()),
		"minPrice":   minPrice,
		"maxPrice":   maxPrice,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return cat, nil
}
