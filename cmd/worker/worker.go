package main

import (
	"context"

	"github.com/aquaguard/water-quality-worker/internal/anomaly"
	"github.com/aquaguard/water-quality-worker/internal/config"
	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/mq"
	"github.com/aquaguard/water-quality-worker/internal/notify"
	"github.com/aquaguard/water-quality-worker/internal/service"
	"github.com/aquaguard/water-quality-worker/internal/store"
	"github.com/aquaguard/water-quality-worker/internal/validator"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func startWorker(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	processor *service.ProcessorService,
) (*mq.Consumer, error) {
	// Create context for consumer that will be cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:       conn,
		Queue:            cfg.RabbitMQ.IngestQueue,
		DLQQueue:         cfg.RabbitMQ.DLQQueue,
		Exchange:         cfg.RabbitMQ.IngestExchange,
		RoutingKey:       cfg.RabbitMQ.IngestRoutingKey,
		PrefetchCount:    cfg.RabbitMQ.PrefetchCount,
		Logger:           logger,
		MessageProcessor: processor.ProcessMessage,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	// Register lifecycle hooks
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting worker consumer",
				zap.String("queue", cfg.RabbitMQ.IngestQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
				return err
			}
			logger.Info("worker stopped gracefully")
			return nil
		},
	})

	return consumer, nil
}

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideStore creates the Postgres-backed store
func ProvideStore(pool *db.Pool) store.Store {
	return store.NewPostgres(pool)
}

// ProvideValidator creates a new validator instance
func ProvideValidator(cfg *config.Config) *validator.Validator {
	return validator.NewValidator(cfg.Validation.TimestampToleranceMinutes)
}

// ProvideDetector creates the anomaly detector instance
func ProvideDetector() *anomaly.Detector {
	return anomaly.NewDetector()
}

// ProvideMQConnection creates a new RabbitMQ connection instance
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates a new event publisher instance
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	return mq.NewPublisher(conn, cfg.RabbitMQ.EventExchange, logger)
}

// ProvideDispatcher creates the notification dispatcher with all channels
func ProvideDispatcher(publisher *mq.Publisher, cfg *config.Config, logger *zap.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(logger,
		notify.NewSMSNotifier(cfg.Notify, logger),
		notify.NewEmailNotifier(cfg.Notify, logger),
		notify.NewPushNotifier(publisher, cfg.RabbitMQ.AlertRoutingKey, logger),
	)
}

// ProvideSensorService creates a new sensor service instance
func ProvideSensorService(st store.Store, logger *zap.Logger) *service.SensorService {
	return service.NewSensorService(st, logger)
}

// ProvideAlertService creates a new alert service instance
func ProvideAlertService(st store.Store, dispatcher *notify.Dispatcher, logger *zap.Logger) *service.AlertService {
	return service.NewAlertService(st, dispatcher, logger)
}

// ProvideReadingService creates a new reading service instance
func ProvideReadingService(st store.Store, v *validator.Validator, alerts *service.AlertService, logger *zap.Logger) *service.ReadingService {
	return service.NewReadingService(st, v, alerts, logger)
}

// ProvideAnomalyService creates a new anomaly service instance
func ProvideAnomalyService(st store.Store, detector *anomaly.Detector, cfg *config.Config, logger *zap.Logger) *service.AnomalyService {
	return service.NewAnomalyService(st, detector, cfg.Detection.ReadingFetchLimit, logger)
}

// ProvideStatsService creates a new statistics service instance
func ProvideStatsService(st store.Store, cfg *config.Config, logger *zap.Logger) *service.StatsService {
	return service.NewStatsService(st, cfg.Detection.ReadingFetchLimit, logger)
}

// ProvideProcessorService creates a new processor service instance
func ProvideProcessorService(
	readings *service.ReadingService,
	v *validator.Validator,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *service.ProcessorService {
	return service.NewProcessorService(readings, v, publisher, cfg, logger)
}
