package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	getadmin "elevcalc/http-server/admin/get"
	"elevcalc/internal/config"
	"elevcalc/internal/constants"
	"elevcalc/internal/service/bom"
	"elevcalc/internal/service/calculators"
	"elevcalc/internal/service/pricing"
	"elevcalc/internal/service/quote"
	"elevcalc/internal/service/rules"
	"elevcalc/internal/storage/migrations"
	"elevcalc/internal/storage/mysql"
)

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env, cfg.LogDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := mysql.New(ctx, *cfg, log)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	if cfg.Migrate {
		if err := migrations.Up(storage.DB()); err != nil {
			log.Error("failed to migrate db", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	fallback := bom.FallbackCosts{
		ByCategory: cfg.FallbackCosts.ByCategory,
		Default:    cfg.FallbackCosts.Default,
	}

	cache := rules.NewCache(storage, log)
	engine := rules.NewEngine(storage, fallback, log)
	manager := rules.NewManager(storage, storage, cache, engine, log)

	var calcs []bom.Calculator
	for _, c := range calculators.All(storage, fallback, log) {
		calcs = append(calcs, rules.NewFallback(cache, engine, c, log))
	}

	ratios := pricing.Ratios{
		Labor:        cfg.Pricing.LaborRatio,
		Indirect:     cfg.Pricing.IndirectRatio,
		Installation: cfg.Pricing.InstallationRatio,
	}
	rates := pricing.Rates{
		Margin:     cfg.Pricing.MarginRate,
		Commission: cfg.Pricing.CommissionRate,
		Tax: pricing.TaxTable{
			Lines:   cfg.Pricing.TaxRates,
			Default: cfg.Pricing.DefaultTaxRate,
		},
	}
	quotes := quote.New(log, cache, calcs, ratios, pricing.NewFormation(rates))

	if err := cache.Warm(ctx, constants.Categories...); err != nil {
		log.Warn("rule cache warm-up failed", slog.String("error", err.Error()))
	}

	coefficients := getadmin.Coefficients{Ratios: ratios, Rates: rates, FallbackCosts: fallback}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, storage, quotes, manager, coefficients),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}
