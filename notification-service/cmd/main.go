package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/notification-service/internal/client"
	"puretasks/notification-service/internal/config"
	"puretasks/notification-service/internal/handler"
	"puretasks/notification-service/internal/httpserver"
	"puretasks/notification-service/internal/service"
	"puretasks/pkg/bus"
	"puretasks/pkg/logger"
	"puretasks/pkg/mq"
	"puretasks/pkg/util"
)

const serviceName = "notification-service"

func main() {
	cfg := config.Load()

	log := logger.New()
	defer log.Sync()

	log.Info("Starting notification-service...",
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

	// Lifecycle event publisher (optional, needs the broker).
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
		var err error
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
	}

	var lifecycle service.EventPublisher
	if publisher != nil {
		lifecycle = publisher
	}
	processor := service.NewProcessor(backend, lifecycle, log)

	// Broker ingress (optional): reminders straight off the events
	// exchange instead of the sidecar push.
	var consumer *mq.Consumer
	if cfg.MQ.URL != "" {
		var err error
		consumer, err = mq.NewConsumer(cfg.MQ.URL, "notification.reminders.q", "reminder.#", log)
		if err != nil {
			log.Fatal("Failed to init MQ consumer", zap.Error(err))
		}
		consumer.SetHandler(func(ctx context.Context, raw json.RawMessage) error {
			ack, err := processor.ProcessRaw(ctx, raw)
			if err != nil {
				return err
			}
			if ack.Status == events.StatusError {
				log.Warn("Reminder event acknowledged with error status", zap.String("message", ack.Message))
			}
			return nil
		})
		go func() {
			if err := consumer.StartConsuming(); err != nil {
				log.Error("Reminders consumer stopped", zap.Error(err))
			}
		}()
	}

	// HTTP ingress.
	reminderHandler := handler.NewReminderEventHandler(processor, log)
	router := httpserver.NewRouter(reminderHandler, cfg.Bus.PubSubName)
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

	log.Info("notification-service is fully initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down notification-service gracefully...")

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

	log.Info("notification-service shutdown complete")
}
