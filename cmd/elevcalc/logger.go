package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// dualHandler writes every record to the core handler and errors also to a
// file.
type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var coreErr, fileErr error

	if h.coreHandler.Enabled(ctx, r.Level) {
		coreErr = h.coreHandler.Handle(ctx, r)
	}
	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		fileErr = h.errorHandler.Handle(ctx, r.Clone())
	}

	return errors.Join(coreErr, fileErr)
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env, logDir string) *slog.Logger {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	var coreHandler slog.Handler
	switch env {
	case envDev, envProd:
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		slog.Warn("cannot create log directory", slog.String("error", err.Error()))
		return slog.New(coreHandler)
	}
	errorFile, err := os.OpenFile(filepath.Join(logDir, "errors.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("cannot open error log file", slog.String("error", err.Error()))
		return slog.New(coreHandler)
	}

	errorHandler := slog.NewJSONHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	})
}
