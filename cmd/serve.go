// cmd/serve.go - HTTP API server command
package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/valpere/vtedit/internal/api"
	"github.com/valpere/vtedit/internal/batch"
	"github.com/valpere/vtedit/internal/config"
	"github.com/valpere/vtedit/internal/tile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve composite and localize over HTTP",
	Long: `Start an HTTP API server exposing POST /v1/composite and POST /v1/localize,
batch job submission under /v1/batch/jobs, and a GET /healthz liveness probe.
OpenAPI documentation is generated automatically by the underlying huma/v2 router.

Examples:
  vtedit serve --listen-addr :8080
  vtedit serve --listen-addr :8080 --log-file /var/log/vtedit/server.log`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen-addr", "", "address to listen on (overrides http.listen_addr)")
	serveCmd.Flags().String("log-file", "", "rotate server logs to this file instead of stderr")

	viper.BindPFlag("http.listen_addr", serveCmd.Flags().Lookup("listen-addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, _ := cmd.Flags().GetString("log-file")
	if logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		})
	}

	listenAddr := cfg.HTTP.ListenAddr
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		host, port = "localhost", listenAddr
	}
	if host == "" {
		host = "localhost"
	}

	var store *batch.DuckDBStore
	var jobStore batch.JobStore
	store, err = batch.NewDuckDBStore(cfg.Batch.StorePath)
	if err != nil {
		log.Printf("warning: batch job store unavailable, jobs will not persist across restarts: %v", err)
	} else {
		jobStore = store
	}

	factory := tile.NewFetcherFactory(cfg)
	fetcher, err := factory.CreateOptimalFetcher()
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	processor := batch.NewBatchProcessor(fetcher, cfg, nil)
	coordinator := batch.NewDefaultCoordinator(processor, jobStore)

	server := api.New(api.Config{
		Host:        host,
		Port:        port,
		Coordinator: coordinator,
	})

	var handler http.Handler = server
	if cfg.HTTP.Compression {
		adapter, err := httpcompression.DefaultAdapter()
		if err != nil {
			return fmt.Errorf("failed to build compression middleware: %w", err)
		}
		handler = adapter(handler)
	}

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("vtedit serve listening on %s", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
		log.Println("shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		coordinator.Shutdown()
		if store != nil {
			store.Close()
		}
		return httpServer.Shutdown(ctx)
	}
}
