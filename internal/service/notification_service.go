package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Delivery is stubbed: sinks log what they would send.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventQueryCreated, n.handleQueryEvent)
	n.dispatcher.Subscribe(events.EventQueryAssigned, n.handleQueryEvent)
	n.dispatcher.Subscribe(events.EventQueryResolved, n.handleQueryEvent)
	n.dispatcher.Subscribe(events.EventQueryEscalated, n.handleQueryEvent)
	n.dispatcher.Subscribe(events.EventQueryReopened, n.handleQueryEvent)
}

func (n *NotificationService) handleQueryEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("query event",
		zap.String("type", string(event.Type)),
		zap.String("query_id", event.QueryID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("query_id", event.QueryID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("query_id", event.QueryID),
		zap.String("event_type", string(event.Type)))
}
