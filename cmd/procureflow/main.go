package main

import (
	"fmt"
	"os"

	"github.com/nurpe/procureflow/internal/auth"
	"github.com/nurpe/procureflow/internal/config"
	"github.com/nurpe/procureflow/internal/db"
	"github.com/nurpe/procureflow/internal/excel"
	httphandler "github.com/nurpe/procureflow/internal/http"
	"github.com/nurpe/procureflow/internal/http/middleware"
	"github.com/nurpe/procureflow/internal/logger"
	"github.com/nurpe/procureflow/internal/pdf"
	"github.com/nurpe/procureflow/internal/repository"
	"github.com/nurpe/procureflow/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	var store service.Store
	if cfg.DB.DSN != "" {
		database, err := db.New(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		store = repository.NewWorkflowRepository(database)
	} else {
		log.Warn().Msg("no DB_DSN configured, using in-memory store")
		store = repository.NewMemoryStore()
	}

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	procurement := service.NewProcurementService(store, excelGenerator, pdfGenerator, cfg)

	issuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.TokenTTL)
	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(procurement, issuer, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting procurement service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
