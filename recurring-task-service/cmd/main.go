package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/pkg/bus"
	"puretasks/pkg/db"
	"puretasks/pkg/logger"
	"puretasks/pkg/mq"
	pkgredis "puretasks/pkg/redis"
	"puretasks/pkg/util"
	"puretasks/recurring-task-service/internal/client"
	"puretasks/recurring-task-service/internal/config"
	"puretasks/recurring-task-service/internal/handler"
	"puretasks/recurring-task-service/internal/httpserver"
	"puretasks/recurring-task-service/internal/redelivery"
	"puretasks/recurring-task-service/internal/repository"
	"puretasks/recurring-task-service/internal/service"
)

const serviceName = "recurring-task-service"

func main() {
	cfg := config.Load()

	log := logger.New()
	defer log.Sync()

	log.Info("Starting recurring-task-service...",
		zap.String("port", cfg.Server.Port),
		zap.String("sidecar_port", cfg.Bus.SidecarPort),
		zap.String("backend_app_id", cfg.Bus.BackendAppID),
	)

	// Outbound path to the task-owning backend.
	var tokens bus.TokenSource
	if cfg.Auth.ServiceSecret != "" {
		secret := cfg.Auth.ServiceSecret
		tokens = func() (string, error) {
			return util.GenerateServiceToken(serviceName, secret, 5*time.Minute)
		}
	}
	invoker := bus.NewSidecarClient(cfg.Bus.SidecarPort, cfg.Bus.BackendAppID, tokens)
	backend := client.NewBackendClient(invoker, log)

	// Occurrence dedup (optional, fail-open without redis).
	var deduper *util.Deduper
	if cfg.Redis.Addr != "" {
		rdb, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to init redis", zap.Error(err))
		}
		defer rdb.Close()
		deduper = util.NewDeduper(rdb, 48*time.Hour, log)
		log.Info("Occurrence dedup enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	// Failed-event journal (optional, enabled when DB is configured).
	var journal service.FailureJournal
	var failedEventRepo *repository.FailedEventRepository
	var dbConn *pgxpool.Pool
	if cfg.DB.Host != "" {
		var err error
		dbConn, err = db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()
		failedEventRepo = repository.NewFailedEventRepository(dbConn)
		journal = failedEventRepo
		log.Info("Failed-event journal enabled")
	}

	processor := service.NewProcessor(backend, deduper, journal, log)

	// Redelivery dispatcher replays journaled failures.
	dispatcherCtx, dispatcherCancel := context.WithCancel(context.Background())
	defer dispatcherCancel()
	if failedEventRepo != nil {
		dispatcher := redelivery.NewDispatcher(
			failedEventRepo,
			processor,
			backend,
			time.Duration(cfg.Redelivery.IntervalSeconds)*time.Second,
			cfg.Redelivery.MaxRetries,
			log,
		)
		go dispatcher.Start(dispatcherCtx)
	}

	// Broker ingress (optional): same processor fed straight from the
	// events exchange instead of the sidecar push.
	var consumer *mq.Consumer
	if cfg.MQ.URL != "" {
		var err error
		consumer, err = mq.NewConsumer(cfg.MQ.URL, "recurring-task.events.q", "recurring_task.#", log)
		if err != nil {
			log.Fatal("Failed to init MQ consumer", zap.Error(err))
		}
		consumer.SetHandler(func(ctx context.Context, raw json.RawMessage) error {
			ack, err := processor.ProcessRaw(ctx, raw)
			if err != nil {
				return err
			}
			if ack.Status == events.StatusError {
				// Acked with error status: journal + redelivery own the
				// retry, not the broker.
				log.Warn("Task event acknowledged with error status", zap.String("message", ack.Message))
			}
			return nil
		})
		go func() {
			if err := consumer.StartConsuming(); err != nil {
				log.Error("Task events consumer stopped", zap.Error(err))
			}
		}()
	}

	// HTTP ingress.
	taskEventHandler := handler.NewTaskEventHandler(processor, log)
	router := httpserver.NewRouter(taskEventHandler, cfg.Bus.PubSubName, dbConn)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("recurring-task-service is fully initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down recurring-task-service gracefully...")

	dispatcherCancel()
	if consumer != nil {
		consumer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("recurring-task-service shutdown complete")
}
