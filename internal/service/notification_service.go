package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
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
	n.dispatcher.Subscribe(events.EventPublicationCreated, n.handlePublicationCreated)
	n.dispatcher.Subscribe(events.EventPublicationReserved, n.handlePublicationReserved)
	n.dispatcher.Subscribe(events.EventPublicationUnreserved, n.handlePublicationUnreserved)
	n.dispatcher.Subscribe(events.EventPublicationRetired, n.handlePublicationRetired)
}

func (n *NotificationService) handlePublicationCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("PublicationCreated", zap.Int64("publication_id", event.PublicationID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePublicationReserved(ctx context.Context, event events.Event) error {
	n.logger.Info("PublicationReserved", zap.Int64("publication_id", event.PublicationID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePublicationUnreserved(ctx context.Context, event events.Event) error {
	n.logger.Info("PublicationUnreserved", zap.Int64("publication_id", event.PublicationID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePublicationRetired(ctx context.Context, event events.Event) error {
	n.logger.Info("PublicationRetired", zap.Int64("publication_id", event.PublicationID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("publication_id", event.PublicationID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("publication_id", event.PublicationID),
		zap.String("event_type", string(event.Type)))
}
