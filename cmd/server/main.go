// Command server replays recorded debates as a debate server would stream
// them, so the viewer can be demoed without a live backend.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/debatecast/internal/storage"
	"github.com/alienxp03/debatecast/web/handlers"
)

func main() {
	port := flag.Int("port", 8000, "Server port")
	dbPath := flag.String("db", "", "Database path (default: ~/.debatecast/debatecast.db)")
	session := flag.String("session", "", "Replay this session ID (or prefix) for every topic")
	delay := flag.Duration("delay", handlers.DefaultDelay, "Pause between replayed events")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if *debug {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	path := *dbPath
	if path == "" {
		path = storage.DefaultDBPath()
	}

	slog.Info("Initializing storage", "path", path)
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	h := handlers.New(store, handlers.WithSession(*session), handlers.WithDelay(*delay))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	h.RegisterRoutes(router)

	addr := fmt.Sprintf(":%d", *port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("Shutting down...")
		server.Close()
	}()

	slog.Info("Starting replay server", "url", fmt.Sprintf("http://localhost%s/debate", addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
