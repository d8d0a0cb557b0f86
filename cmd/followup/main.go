// cmd/followup/main.go
//
// Follow-up batch CLI, intended to run from cron. Exit code is always 0:
// failures are counted and logged, never propagated, so one bad run can't
// wedge the schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
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
	var (
		limit  int
		dryRun bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Select eligible customers and queue follow-up messages",
		Run: func(cmd *cobra.Command, args []string) {
			runBatch(limit, dryRun)
		},
	}
	runCmd.Flags().IntVar(&limit, "limit", followup.DefaultBatchLimit, "maximum customers to process in one batch")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "select and render without creating or sending anything")

	rootCmd := &cobra.Command{
		Use:   "followup",
		Short: "Workshop follow-up scheduler",
	}
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	// never a non-zero exit; cron must not see this as a failure
}

func runBatch(limit int, dryRun bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		return
	}
	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zlog.Sync()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Error("failed to connect to database", zap.Error(err))
		return
	}
	defer conn.Close()

	configRepo := &repository.GatewayConfigRepository{DB: conn}
	outboundRepo := &repository.OutboundMessageRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	followupRepo := &repository.FollowUpRepository{DB: conn}

	var q queue.Queue
	var inMem *queue.InMemoryQueue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL, zlog)
		if err != nil {
			zlog.Error("failed to connect to broker", zap.Error(err))
			return
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		// No broker configured: dispatch in-process and wait for the
		// queue to drain before exiting.
		inMem = queue.NewInMemoryQueue(zlog)
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
		if err := followup.StartDispatchSubscriber(inMem, worker, zlog); err != nil {
			zlog.Error("failed to start in-process subscriber", zap.Error(err))
			return
		}
		q = inMem
	}

	scheduler := &followup.Scheduler{
		Customers: customerRepo,
		Templates: templateRepo,
		Entries:   followupRepo,
		Queue:     q,
		Workshop:  cfg.Workshop,
		Log:       zlog,
		Pace:      time.Duration(cfg.FollowUp.PaceMillis) * time.Millisecond,
	}

	res, err := scheduler.RunBatch(context.Background(), limit, dryRun)
	if err != nil {
		zlog.Error("batch run failed", zap.Error(err))
	}
	if inMem != nil {
		// Block until every in-process job is acked or dropped; exiting
		// earlier would strand pending entries nothing ever sweeps up.
		inMem.Wait()
	}

	fmt.Printf("follow-up batch done: created=%d skipped=%d dry_run=%v\n", res.Created, res.Skipped, dryRun)
}
