package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jlr/user-service/internal/events"
)

// AuditService writes an audit trail line for every account event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.record)
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.record)
	a.dispatcher.Subscribe(events.EventUserLoggedOut, a.record)
	a.dispatcher.Subscribe(events.EventUserDeactivated, a.record)
	a.dispatcher.Subscribe(events.EventUserPasswordChanged, a.record)
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("user_id", event.UserID),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Actor.Username != "" {
		fields = append(fields, zap.String("actor", event.Actor.Username))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info("account event", fields...)
	return nil
}
