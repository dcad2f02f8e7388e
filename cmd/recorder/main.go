package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediscribe/audit"
	"mediscribe/auth"
	"mediscribe/client"
	"mediscribe/domain/event"
	"mediscribe/infrastructure/storage"
	"mediscribe/integrity"
	"mediscribe/internal"
	"mediscribe/moderation"
	"mediscribe/observability"
	"mediscribe/projection"
	"mediscribe/runtime"
	"mediscribe/runtime/workers"
	"mediscribe/services"
	"mediscribe/sink"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recorder terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups (database close, index flush) always execute before the process exits,
// and keeping the logic out of main makes the wiring testable.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeCfg := bluge.DefaultConfig(config.BlugeFilepath)
	blugeWriter, err := bluge.OpenWriter(blugeCfg)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	events := storage.NewEventRepository(db, logger)
	jobs := storage.NewJobRepository(db, logger)
	search := storage.NewSearchRepository(blugeWriter, blugeCfg, logger)

	// 3. Startup integrity sweep
	// A broken chain means the store was tampered with or corrupted on disk.
	// The damage is local to one consultation: its chain is quarantined so
	// it stops taking writes, and everything else keeps serving. Only a
	// failure to read the store at all aborts startup.
	verifier := integrity.NewVerifier(events, logger)
	quarantine := integrity.NewQuarantine()
	if failures := verifier.VerifyAll(ctx); len(failures) > 0 {
		for _, failure := range failures {
			var chainErr *integrity.ChainError
			if !errors.As(failure, &chainErr) {
				return exitRuntime, fmt.Errorf("startup verification: %w", failure)
			}
			logger.Error("Chain verification failed, consultation quarantined",
				"consultation", chainErr.ConsultationID, "error", failure)
			quarantine.Add(chainErr.ConsultationID)
		}
		logger.Warn("Serving with quarantined consultations", "count", quarantine.Size())
	} else {
		logger.Info("All hash chains verified")
	}

	// 4. Domain wiring
	flagger, err := moderation.NewFlagger(config.RedFlagTermList())
	if err != nil {
		return exitConfig, fmt.Errorf("red flag term list: %w", err)
	}

	eventChan := make(chan event.Event, config.BufferSize)
	projector := projection.NewNoteProjector(events, logger)
	gateway := runtime.NewGateway(jobs, events, eventChan, flagger, logger)
	coordinator := runtime.NewCoordinator(events, projector, gateway, quarantine, eventChan, logger)
	exporter := audit.NewExporter(events, verifier)
	transcriber := client.NewPoolClient(config.WorkerPoolURL, config.WorkerPoolTimeout, logger)
	service := services.NewConsultationService(coordinator, projector, verifier, exporter, search)
	attribution := auth.NewAttribution([]byte(config.ActorTokenSecret), config.ActorTokenTTL)

	monitoring := observability.NewMonitoringManager(logger, jobs.PendingCount)

	if config.DebugPort > 0 {
		endpoint := "/inspect"
		logger.Info("Debug stats endpoint available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(logger, config.DebugPort, endpoint, monitoring.AsStatsProvider())
	}

	// 5. Supervision
	fanout := workers.NewEventFanout(logger, eventChan).
		Add(projector,
			sink.NewSearchSink(search, logger),
			sink.NewTelemetrySink(monitoring))

	sup := workers.NewSupervisor(logger, config.RestartInterval).
		Add(fanout,
			workers.NewDispatchWorker(jobs, transcriber, monitoring, config.DispatchInterval, config.DispatchBatchSize, logger),
			workers.NewResultWorker(transcriber, gateway, monitoring, config.PollInterval, logger),
			workers.NewIntegritySweepWorker(verifier, quarantine, config.SweepInterval, logger),
			workers.NewReporterWorker(monitoring, config.MetricInterval))

	// 6. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 7. HTTP intent adapter
	api := newAPIServer(service, attribution, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: api.routes(),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// In-flight requests finish and workers drain their channels.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
