package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eanlabs/bioplast/internal/app"
	"github.com/eanlabs/bioplast/internal/handlers"
)

func main() {
	service, err := app.NewService("config.toml")
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	sessionHandler := handlers.NewSessionHandler(service)
	experimentHandler := handlers.NewExperimentHandler(service)
	practiceHandler := handlers.NewPracticeHandler(service)
	adminHandler := handlers.NewAdminHandler(service)

	http.HandleFunc("POST /api/v1/login", sessionHandler.HandleLogin)
	http.HandleFunc("POST /api/v1/logout", sessionHandler.HandleLogout)

	http.HandleFunc("POST /api/v1/experiments", experimentHandler.HandleStart)
	http.HandleFunc("GET /api/v1/practices", experimentHandler.HandleSearch)
	http.HandleFunc("GET /api/v1/experiments/{number}", experimentHandler.HandleGroup)
	http.HandleFunc("GET /api/v1/experiments/{number}/reliability", experimentHandler.HandleReliability)
	http.HandleFunc("GET /api/v1/experiments/{number}/export", experimentHandler.HandleExportCSV)
	http.HandleFunc("POST /api/v1/experiments/{number}/close", experimentHandler.HandleClose)
	http.HandleFunc("DELETE /api/v1/experiments/{number}", experimentHandler.HandleDelete)

	http.HandleFunc("GET /api/v1/practices/{code}", practiceHandler.HandleGet)
	http.HandleFunc("PATCH /api/v1/practices/{code}", practiceHandler.HandleUpdate)
	http.HandleFunc("POST /api/v1/practices/{code}/heat", practiceHandler.HandleSaveHeat)
	http.HandleFunc("POST /api/v1/practices/{code}/photo", practiceHandler.HandleAttachPhoto)
	http.HandleFunc("DELETE /api/v1/practices/{code}", practiceHandler.HandleDelete)

	http.HandleFunc("GET /api/v1/users", adminHandler.HandleListUsers)
	http.HandleFunc("POST /api/v1/users", adminHandler.HandleRegisterUser)
	http.HandleFunc("PATCH /api/v1/users/{id}", adminHandler.HandleUpdateUser)
	http.HandleFunc("DELETE /api/v1/users/{id}", adminHandler.HandleDeleteUser)

	http.HandleFunc("GET /api/v1/audit", adminHandler.HandleAuditLog)
	http.HandleFunc("DELETE /api/v1/audit", adminHandler.HandleClearAudit)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting bioplast server on %s", service.Config.Server.Port)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Bioplast server failed: %v", err)
	}
}
