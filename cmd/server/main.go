package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prasadg/examsift"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := examsift.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	// Override from environment variables.
	if v := os.Getenv("EXAMSIFT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("EXAMSIFT_TEMP_DIR"); v != "" {
		cfg.TempDir = v
	}
	if v := os.Getenv("EXAMSIFT_VISION_BASE_URL"); v != "" {
		cfg.Vision.BaseURL = v
	}
	if v := os.Getenv("EXAMSIFT_VISION_API_KEY"); v != "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("EXAMSIFT_VISION_MODEL"); v != "" {
		cfg.Vision.Model = v
	}
	if v := os.Getenv("EXAMSIFT_VISION_PROVIDER"); v != "" {
		cfg.Vision.Provider = v
	}

	// Fallback: check well-known provider env vars for API keys.
	if cfg.Vision.APIKey == "" {
		switch cfg.Vision.Provider {
		case "openai":
			cfg.Vision.APIKey = os.Getenv("OPENAI_API_KEY")
		case "openrouter":
			cfg.Vision.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case "nebius":
			cfg.Vision.APIKey = os.Getenv("NEBIUS_API_KEY")
		}
	}

	apiKey := os.Getenv("EXAMSIFT_API_KEY")
	corsOrigins := os.Getenv("EXAMSIFT_CORS_ORIGINS")

	engine, err := examsift.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	mux := newMux(newHandler(engine))

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // extraction responses can take minutes
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

func newMux(h *handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /extract", h.handleExtract)
	mux.HandleFunc("POST /save", h.handleSave)
	mux.HandleFunc("GET /questions", h.handleListQuestions)
	mux.HandleFunc("GET /questions/search", h.handleSearchQuestions)
	mux.HandleFunc("GET /questions/export", h.handleExportQuestions)
	mux.HandleFunc("GET /questions/{qno}", h.handleGetQuestion)
	mux.HandleFunc("DELETE /questions", h.handleDeleteQuestions)
	mux.HandleFunc("GET /uploads", h.handleListUploads)
	mux.HandleFunc("GET /health", h.handleHealth)

	return mux
}
