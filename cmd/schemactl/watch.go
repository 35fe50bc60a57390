package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asakaida/mdschema/internal/infrastructure/cache"
	"github.com/spf13/cobra"
)

const metricsUpdateInterval = 10 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch [name]",
	Short: "Keep a document resolved and serve metrics",
	Long: `Resolve a document, keep the resolved-schema cache consistent with the
database through LISTEN/NOTIFY and serve Prometheus metrics on METRICS_PORT.
Change notifications require the postgres source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	name := documentName(args)
	if _, err := app.service.Resolve(ctx, name, ""); err != nil {
		return fmt.Errorf("initial resolution failed: %w", err)
	}
	log.Printf("Resolved %s", name)

	if app.pg != nil {
		listener := cache.NewChangeListener(app.cfg.Database.ConnectionString(), app.service)
		if err := listener.Start(ctx); err != nil {
			return fmt.Errorf("failed to start change listener: %w", err)
		}
		defer listener.Stop()
		log.Printf("Listening for schema changes")
	} else {
		log.Printf("Schema source is %s: change notifications are disabled", app.cfg.Schema.Source)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.exporter.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if app.pg != nil {
			if err := app.pg.HealthCheck(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Metrics server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case err := <-serverErrors:
			return err
		case <-ticker.C:
			app.exporter.Update()
		case sig := <-sigChan:
			log.Printf("Received signal: %v", sig)

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error shutting down metrics server: %v", err)
			}
			log.Println("Shutdown complete")
			return nil
		}
	}
}
