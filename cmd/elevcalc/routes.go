package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getadmin "elevcalc/http-server/admin/get"
	"elevcalc/http-server/calculation/calculate"
	getcalculation "elevcalc/http-server/calculation/get"
	getparts "elevcalc/http-server/parts/get"
	getrules "elevcalc/http-server/rules/get"
	"elevcalc/http-server/rules/lifecycle"
	saverules "elevcalc/http-server/rules/save"
	"elevcalc/internal/config"
	"elevcalc/internal/middleware/auth"
	"elevcalc/internal/service/quote"
	"elevcalc/internal/service/rules"
	"elevcalc/internal/storage/mysql"
)

const frontendDir = "./frontend-dist"

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage, quotes *quote.Service, manager *rules.Manager,
	coefficients getadmin.Coefficients) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Post("/api/calculations", calculate.Calculate(log, quotes, storage))
	router.Get("/api/calculations/{id}", getcalculation.GetCalculation(log, storage))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Get("/coefficients", getadmin.GetCoefficients(coefficients))
	adminRouter.Get("/parts/{code}", getparts.GetPart(log, storage))
	adminRouter.Get("/rules", getrules.GetRuleDocuments(log, manager))
	adminRouter.Get("/rules/{id}", getrules.GetRuleDocument(log, manager))
	adminRouter.Post("/rules", saverules.SaveRuleDocument(log, manager))
	adminRouter.Post("/rules/{id}/validate", lifecycle.ValidateRuleDocument(log, manager))
	adminRouter.Put("/rules/{id}/activate", lifecycle.ActivateRuleDocument(log, manager))
	adminRouter.Put("/rules/{id}/deactivate", lifecycle.DeactivateRuleDocument(log, manager))
	adminRouter.Post("/rules/{id}/preview", lifecycle.PreviewRuleDocument(log, manager))
	adminRouter.Post("/rules/cache/reload", lifecycle.ReloadRuleCache(log, manager))

	router.Mount("/api/admin", adminRouter)

	if _, err := os.Stat(frontendDir); err != nil {
		log.Info("frontend not found, serving API only", slog.String("path", frontendDir))
		return router
	}

	fileServer := http.FileServer(http.Dir(frontendDir))
	router.Handle("/assets/*", fileServer)

	// SPA fallback: unknown paths get index.html
	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})

	return router
}
