// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bengkelhub/wa-bridge/internal/config"
	"github.com/bengkelhub/wa-bridge/internal/db"
	"github.com/bengkelhub/wa-bridge/internal/dispatch"
	"github.com/bengkelhub/wa-bridge/internal/handler"
	"github.com/bengkelhub/wa-bridge/internal/logger"
	"github.com/bengkelhub/wa-bridge/internal/repository"
	"github.com/bengkelhub/wa-bridge/internal/session"
	"github.com/bengkelhub/wa-bridge/internal/transport"
	"github.com/bengkelhub/wa-bridge/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}
	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zlog.Sync()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	configRepo := &repository.GatewayConfigRepository{DB: conn}
	outboundRepo := &repository.OutboundMessageRepository{DB: conn}
	inboundRepo := &repository.InboundMessageRepository{DB: conn}

	warnOnEmptySecret(configRepo, zlog)

	client := transport.NewHTTPClient(configRepo, zlog)
	manager := session.NewManager(client, configRepo, zlog)

	dispatcher := &dispatch.Dispatcher{
		Configs:   configRepo,
		Outbound:  outboundRepo,
		Transport: client,
		Log:       zlog,
	}
	receiver := &webhook.Receiver{
		Configs:  configRepo,
		Outbound: outboundRepo,
		Inbound:  inboundRepo,
		Sessions: manager,
		Log:      zlog,
	}

	webhookHandler := &handler.WebhookHandler{Receiver: receiver}
	sessionHandler := &handler.SessionHandler{Manager: manager}
	messageHandler := &handler.MessageHandler{Dispatcher: dispatcher, Transport: client}
	healthHandler := &handler.HealthHandler{Manager: manager}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler.Health)
	r.Post("/webhook", webhookHandler.Receive)

	r.Get("/session/status", sessionHandler.Status)
	r.Get("/session/qr", sessionHandler.QR)
	r.Post("/session/start", sessionHandler.Start)
	r.Delete("/session/terminate", sessionHandler.Terminate)

	r.Post("/messages/send", messageHandler.Send)
	r.Post("/messages/{id}/resend", messageHandler.Resend)
	r.Post("/numbers/check", messageHandler.CheckNumber)

	zlog.Info("server listening", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

// warnOnEmptySecret surfaces the open question around unsigned webhooks:
// an active configuration without a secret accepts any caller.
func warnOnEmptySecret(repo *repository.GatewayConfigRepository, zlog *zap.Logger) {
	cfg, err := repo.GetActive()
	if err != nil {
		zlog.Warn("could not check gateway configuration", zap.Error(err))
		return
	}
	if cfg == nil {
		zlog.Warn("no active gateway configuration; messaging is disabled until one is created")
		return
	}
	if cfg.WebhookSecret == "" {
		zlog.Warn("active gateway configuration has an empty webhook secret; webhook signature verification is DISABLED")
	}
}
