package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"puretasks/contracts/events"
	"puretasks/pkg/metrics"
)

// BackendClient is the slice of the task-owning service the reminder
// processor needs.
type BackendClient interface {
	GetUser(ctx context.Context, userID int) (*events.User, error)
	SendEmail(ctx context.Context, req events.EmailNotificationRequest) error
}

// EventPublisher emits notification lifecycle events. A nil publisher
// disables them.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Processor turns reminder events into outbound notifications. Only the
// email channel is implemented; push and in-app are declared in events
// but logged as unimplemented and never affect the outcome.
type Processor struct {
	backend   BackendClient
	publisher EventPublisher
	logger    *zap.Logger
}

func NewProcessor(backend BackendClient, publisher EventPublisher, logger *zap.Logger) *Processor {
	return &Processor{
		backend:   backend,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessRaw handles one raw delivery. A non-nil error means the
// envelope or event was structurally invalid.
func (p *Processor) ProcessRaw(ctx context.Context, body []byte) (events.Ack, error) {
	data, err := events.UnwrapData(body)
	if err != nil {
		return events.Ack{}, fmt.Errorf("failed to parse event envelope: %w", err)
	}

	var evt events.ReminderEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return events.Ack{}, fmt.Errorf("failed to parse reminder event: %w", err)
	}

	return p.Process(ctx, evt), nil
}

// Process resolves the user's contact address, renders the notification
// and dispatches it over each requested channel. The result is the AND
// of all implemented channel attempts.
func (p *Processor) Process(ctx context.Context, evt events.ReminderEvent) events.Ack {
	log := p.logger.With(
		zap.String("event_id", evt.EventID),
		zap.Int("reminder_id", evt.ReminderID),
		zap.Int("task_id", evt.TaskID),
		zap.Int("user_id", evt.UserID),
	)

	log.Info("Processing reminder event")

	user, err := p.backend.GetUser(ctx, evt.UserID)
	if err != nil {
		log.Error("Could not resolve user email", zap.Error(err))
		return events.Ack{Status: events.StatusError, Message: "failed to resolve user email"}
	}
	if user == nil || user.Email == "" {
		log.Error("User has no email address")
		return events.Ack{Status: events.StatusError, Message: "user has no email address"}
	}

	subject, body, err := RenderReminderEmail(evt.Data)
	if err != nil {
		log.Error("Failed to render reminder email", zap.Error(err))
		return events.Ack{Status: events.StatusError, Message: "failed to render notification"}
	}

	success := true
	for _, channel := range evt.Data.Channels() {
		switch channel {
		case events.ChannelEmail:
			if err := p.dispatchEmail(ctx, log, evt, user.Email, subject, body); err != nil {
				success = false
			}
		case events.ChannelPush, events.ChannelInApp:
			log.Info("Notification channel not yet implemented",
				zap.String("channel", channel),
			)
			metrics.IncrementNotificationDispatch(channel, "skipped")
		default:
			log.Warn("Unknown notification channel, skipping",
				zap.String("channel", channel),
			)
			metrics.IncrementNotificationDispatch(channel, "skipped")
		}
	}

	if !success {
		log.Warn("Partially processed reminder event")
		return events.Ack{Status: events.StatusError, Message: "one or more notification channels failed"}
	}

	log.Info("Reminder event processed")
	return events.Ack{Status: events.StatusSuccess}
}

func (p *Processor) dispatchEmail(ctx context.Context, log *zap.Logger, evt events.ReminderEvent, toEmail, subject, body string) error {
	err := p.backend.SendEmail(ctx, events.EmailNotificationRequest{
		ToEmail: toEmail,
		Subject: subject,
		Body:    body,
		UserID:  evt.UserID,
	})
	if err != nil {
		log.Error("Failed to send email notification", zap.Error(err))
		metrics.IncrementNotificationDispatch(events.ChannelEmail, "failed")
		p.publishLifecycle(log, events.NotificationFailedType, events.NotificationFailedPayload{
			ReminderID: evt.ReminderID,
			TaskID:     evt.TaskID,
			UserID:     evt.UserID,
			Channel:    events.ChannelEmail,
			Error:      err.Error(),
		})
		return err
	}

	log.Info("Email notification sent", zap.String("to", toEmail))
	metrics.IncrementNotificationDispatch(events.ChannelEmail, "sent")
	p.publishLifecycle(log, events.NotificationSentType, events.NotificationSentPayload{
		ReminderID: evt.ReminderID,
		TaskID:     evt.TaskID,
		UserID:     evt.UserID,
		Channel:    events.ChannelEmail,
		SentAt:     time.Now().UTC(),
	})
	return nil
}

func (p *Processor) publishLifecycle(log *zap.Logger, routingKey string, payload any) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(routingKey, payload); err != nil {
		log.Error("Failed to publish notification lifecycle event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
