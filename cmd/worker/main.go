// cmd/worker/main.go
package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/bengkelhub/wa-bridge/internal/config"
	"github.com/bengkelhub/wa-bridge/internal/db"
	"github.com/bengkelhub/wa-bridge/internal/dispatch"
	"github.com/bengkelhub/wa-bridge/internal/followup"
	"github.com/bengkelhub/wa-bridge/internal/logger"
	"github.com/bengkelhub/wa-bridge/internal/queue"
	"github.com/bengkelhub/wa-bridge/internal/repository"
	"github.com/bengkelhub/wa-bridge/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}
	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zlog.Sync()

	if cfg.AMQPURL == "" {
		zlog.Fatal("AMQP_URL is required for the dispatch worker")
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	configRepo := &repository.GatewayConfigRepository{DB: conn}
	outboundRepo := &repository.OutboundMessageRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	followupRepo := &repository.FollowUpRepository{DB: conn}

	client := transport.NewHTTPClient(configRepo, zlog)
	dispatcher := &dispatch.Dispatcher{
		Configs:   configRepo,
		Outbound:  outboundRepo,
		Transport: client,
		Log:       zlog,
	}
	worker := &followup.Worker{
		Entries:    followupRepo,
		Customers:  customerRepo,
		Templates:  templateRepo,
		Sender:     dispatcher,
		Log:        zlog,
		MaxRetries: cfg.FollowUp.MaxRetries,
	}

	q, err := queue.NewAMQPQueue(cfg.AMQPURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to broker", zap.Error(err))
	}
	defer q.Close()

	if err := followup.StartDispatchSubscriber(q, worker, zlog); err != nil {
		zlog.Fatal("failed to start dispatch subscriber", zap.Error(err))
	}

	zlog.Info("dispatch worker running, waiting for jobs")
	forever := make(chan bool)
	<-forever
}
