package main

import (
	"context"
	"log"
	"net/http"

	"confirmo-gateway/internal/admin"
	"confirmo-gateway/internal/auditlog"
	"confirmo-gateway/internal/checkout"
	"confirmo-gateway/internal/config"
	"confirmo-gateway/internal/confirmo"
	"confirmo-gateway/internal/db"
	"confirmo-gateway/internal/logger"
	"confirmo-gateway/internal/middleware"
	"confirmo-gateway/internal/order"
	"confirmo-gateway/internal/reconcile"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	settingsStore := config.NewSettingsStore(database)
	auditRepo := auditlog.NewRepository(database)
	orderStore := order.NewRepository(database)
	client := confirmo.NewClient(cfg.ConfirmoBaseURL)

	checkoutSvc := checkout.NewService(
		orderStore, client, settingsStore, auditRepo,
		cfg.NotificationURL(), cfg.ReturnURL,
	)
	checkoutHandler := checkout.NewHandler(checkoutSvc)

	engine := reconcile.NewEngine(orderStore, client, auditRepo)
	webhookHandler := reconcile.NewHandler(engine, settingsStore)

	adminHandler := admin.NewHandler(auditRepo, settingsStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go auditlog.NewSweeper(auditRepo).Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /confirmo/webhook", webhookHandler.Notification)
	mux.HandleFunc("POST /checkout/pay", checkoutHandler.Pay)
	mux.HandleFunc("POST /checkout/custom-pay", checkoutHandler.CustomPay)
	mux.HandleFunc("POST /admin/login", adminHandler.Login)

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /admin/logs", adminHandler.ListLogs)
	adminMux.HandleFunc("GET /admin/logs/export", adminHandler.ExportLogs)
	adminMux.HandleFunc("POST /admin/logs/purge", adminHandler.PurgeLogs)
	adminMux.HandleFunc("DELETE /admin/logs", adminHandler.DeleteLogs)
	adminMux.HandleFunc("GET /admin/settings", adminHandler.GetSettings)
	adminMux.HandleFunc("PUT /admin/settings", adminHandler.UpdateSettings)
	mux.Handle("/admin/", middleware.RequireAdmin(adminMux))

	handler := logger.RequestIDMiddleware(
		logger.LoggingMiddleware(
			middleware.RateLimitMiddleware(mux),
		),
	)

	log.Printf("Confirmo gateway listening on :%s", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, handler))
}
