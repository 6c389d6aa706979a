package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/massmap/internal/api"
	"github.com/banshee-data/massmap/internal/db"
)

var listen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Browse stored runs over HTTP",
	Long: `Serves the run index, a JSON API under /api/runs and echarts heat maps of
every stored plane. Database debugging (tailsql, backups) is mounted
under /debug/.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listen, "listen", ":8080", "Listen address")
}

func newHandler(store *db.DB) (http.Handler, error) {
	mux := api.NewServer(store).ServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return api.LoggingMiddleware(mux), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if dbPath == "" {
		return errors.New("--db is required")
	}
	store, err := db.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	h, err := newHandler(store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	logger.Info("serving", zap.String("addr", ln.Addr().String()), zap.String("db", dbPath))

	errc := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
		if err := server.Close(); err != nil {
			logger.Warn("HTTP server force close error", zap.Error(err))
		}
	}
	return <-errc
}
