package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type StatsProvider func() map[string]any

// StartDebugServer exposes a JSON snapshot of the pipeline's counters for
// local troubleshooting. It is never part of the inbound API surface.
func StartDebugServer(log *slog.Logger, port int, endpoint string, stats StatsProvider) {
	mux := http.NewServeMux()
	mux.HandleFunc(endpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
}
