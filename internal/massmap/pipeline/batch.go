package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/config"
)

// Job is one independent reconstruction. A nil Catalog is loaded from
// Config.Catalog.
type Job struct {
	Config  *config.RunConfig
	Catalog *catalog.Catalog
}

// RunBatch runs jobs concurrently, at most limit at a time (limit < 1 means
// no limit). Results are returned in job order. The first failure cancels
// the remaining jobs.
func RunBatch(ctx context.Context, jobs []Job, limit int) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			cat := job.Catalog
			if cat == nil {
				var err error
				if cat, err = LoadCatalog(ctx, &job.Config.Catalog); err != nil {
					return fmt.Errorf("job %d: %w", i, err)
				}
			}
			res, err := Run(ctx, job.Config, cat)
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", i, job.Config.Output.GetName(&job.Config.Catalog), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
