package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invoice-reconciliation-backend/internal/config"
	handler "invoice-reconciliation-backend/internal/handlers"
	"invoice-reconciliation-backend/internal/loader"
	"invoice-reconciliation-backend/internal/repository"
	"invoice-reconciliation-backend/internal/services/columns"
	"invoice-reconciliation-backend/internal/services/matching"
	"invoice-reconciliation-backend/internal/services/normalizer"
	service "invoice-reconciliation-backend/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, cfg config.Config, log zerolog.Logger) {
	store := repository.NewSessionStore()
	resolver := columns.NewResolver(log)
	norm := normalizer.New(resolver, cfg.PreambleRows, log)
	engine := matching.NewEngine(matching.Params{
		ValueTolerance:      cfg.ValueTolerance,
		DateToleranceDays:   cfg.DateToleranceDays,
		SimilarityThreshold: cfg.SimilarityThreshold,
	}, resolver, log)

	reconService := service.NewService(store, norm, engine, log)
	reconHandler := handler.NewReconciliationHandler(reconService, loader.New(log), log)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	recon := api.Group("/reconciliation")
	recon.POST("/sessions", reconHandler.CreateSession)
	recon.POST("/sessions/:id/upload/dian", reconHandler.UploadDian)
	recon.POST("/sessions/:id/upload/contable", reconHandler.UploadContable)
	recon.POST("/sessions/:id/run", reconHandler.Run)
	recon.GET("/sessions/:id", reconHandler.GetSession)
	recon.GET("/sessions/:id/matches", reconHandler.GetMatches)
	recon.GET("/sessions/:id/unmatched", reconHandler.GetUnmatched)
	recon.GET("/sessions/:id/statistics", reconHandler.GetStatistics)
	recon.GET("/sessions/:id/export", reconHandler.Export)
}
