package main

import (
	"context"
	"log"

	"kertas/internal/config"
	"kertas/internal/database"
	"kertas/internal/handler"
	"kertas/internal/logger"
	"kertas/internal/repository"
	"kertas/internal/server"
	"kertas/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	appLog := logger.WithComponent("main")

	db, err := database.NewPostgresDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	invoiceRepo := repository.NewPostgresInvoiceRepository(db.GetPool())
	customerRepo := repository.NewPostgresCustomerRepository(db.GetPool())

	invoiceService := service.NewInvoiceService(invoiceRepo, customerRepo)

	appServer := server.NewServer(cfg)

	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	invoiceHandler.RegisterRoutes(appServer.GetRouter())

	customerHandler := handler.NewCustomerHandler(customerRepo)
	customerHandler.RegisterRoutes(appServer.GetRouter())

	if err := appServer.Start(); err != nil {
		appLog.Fatal().Err(err).Msg("server error")
	}
}
