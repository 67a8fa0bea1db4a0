// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"coincoach-backend/internal/common/aws"
	"coincoach-backend/internal/common/config"
	"coincoach-backend/internal/common/database"
	"coincoach-backend/internal/common/genai"
	commonhttp "coincoach-backend/internal/common/http"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/common/observability"
	"coincoach-backend/internal/flow"
	"coincoach-backend/internal/flows"
	"coincoach-backend/internal/notify"
	"coincoach-backend/internal/server"
	"coincoach-backend/internal/signals"
	"coincoach-backend/internal/tools/price"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// noopSNS stands in for SNS when push delivery is disabled so the fan-out
// path stays wired.
type noopSNS struct{}

func (noopSNS) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return &sns.PublishOutput{}, nil
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting coincoach backend...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) with retry ---
	var indexer *signals.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = signals.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.SignalIndex, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Signal persistence ---
	store := signals.NewPostgresStore(pg.DB, log)
	cache := signals.NewCache(rdb.Client, log)
	signalService := signals.NewService(store, indexer, cache, log)

	// --- Notifications ---
	deviceRegistry := notify.NewDeviceRegistry(rdb.Client, log)
	var pusher *notify.Pusher
	if cfg.Notifications.Push.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		pusher = notify.NewPusher(snsClient, cfg.Notifications.Push.Title, log)
	} else {
		pusher = notify.NewPusher(noopSNS{}, cfg.Notifications.Push.Title, log)
	}

	var emailer server.DigestSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		emailer = notify.NewEmailer(sesClient, cfg.Notifications.Email.FromEmail, log)
	}

	// --- Model client, price tool, and flow registry ---
	priceClient := commonhttp.NewClient(time.Duration(cfg.PriceAPI.Timeout) * time.Millisecond)
	priceLookup := price.NewLookup(priceClient, cfg.PriceAPI.BaseURL, log)

	model := genai.NewClient(cfg.GenAI, log)
	flowRegistry := flows.BuildRegistry(priceLookup.Tool())
	invoker := flow.NewInvoker(model, log)

	zapLog.Info("All service clients initialized",
		zap.Strings("flows", flowRegistry.Names()),
	)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Scheduler ---
	if cfg.Scheduler.Enabled {
		sched := server.NewScheduler(cfg, log, signalService, deviceRegistry, pusher, emailer)
		if err := sched.Start(); err != nil {
			zapLog.Fatal("scheduler start failed", zap.Error(err))
		}
		defer sched.Stop()
	}

	// --- HTTP server ---
	srv := server.New(cfg, log, signalService, pusher, deviceRegistry, invoker, flowRegistry)
	if err := srv.Run(runCtx); err != nil {
		zapLog.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}

	zapLog.Info("Shutdown complete")
}
