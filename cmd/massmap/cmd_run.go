package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/db"
	"github.com/banshee-data/massmap/internal/massmap/pipeline"
)

var (
	parallel int
	noStore  bool
)

var runCmd = &cobra.Command{
	Use:   "run [config...]",
	Short: "Reconstruct convergence maps from one or more run configurations",
	Long: `Each argument is a .json or .yaml run configuration. Runs execute
concurrently (see --parallel); the first failure cancels the rest.

Results are saved to the database named by --db or output.db of each
configuration, and exported to output.png_dir and output.html_dir when set.

Example:
  massmap run config/spherical.example.yaml --db maps.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReconstruct,
}

func init() {
	runCmd.Flags().IntVarP(&parallel, "parallel", "j", 2, "Number of runs to execute at once")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "Skip saving results to the database")
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs := make([]pipeline.Job, 0, len(args))
	for _, path := range args {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		jobs = append(jobs, pipeline.Job{Config: cfg})
	}

	results, err := pipeline.RunBatch(ctx, jobs, parallel)
	if err != nil {
		return err
	}

	stores := map[string]*db.DB{}
	defer func() {
		for _, s := range stores {
			s.Close()
		}
	}()

	out := cmd.OutOrStdout()
	for _, r := range results {
		logResult(logger, r)

		files, err := pipeline.Export(r)
		if err != nil {
			return fmt.Errorf("export %s: %w", r.Name, err)
		}
		for _, f := range files {
			logger.Debug("wrote map", zap.String("path", f))
		}

		path := dbPath
		if path == "" {
			path = r.Config.Output.GetDB()
		}
		if noStore || path == "" {
			fmt.Fprintf(out, "%s\t-\n", r.Name)
			continue
		}
		store, ok := stores[path]
		if !ok {
			if store, err = db.NewDB(path); err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			stores[path] = store
		}
		id, err := pipeline.Save(ctx, store, r)
		if err != nil {
			return fmt.Errorf("save %s: %w", r.Name, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", r.Name, id)
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func logResult(l *zap.Logger, r *pipeline.Result) {
	l.Info("run complete",
		zap.String("name", r.Name),
		zap.String("algorithm", r.Algorithm),
		zap.Int("input", r.NInput),
		zap.Int("selected", r.NSelected),
		zap.Duration("elapsed", r.Elapsed),
	)
	if r.Responsivity.Degenerate {
		l.Warn("responsivity is degenerate; pseudoinverse applied with reduced confidence",
			zap.String("name", r.Name),
			zap.Int("rank", r.Responsivity.Rank),
			zap.Float64("condition", r.Responsivity.Condition),
		)
	}
}
