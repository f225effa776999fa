package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/events"
)

var auditedEvents = []events.EventType{
	events.EventUserRegistered,
	events.EventUserUpdated,
	events.EventUserDeleted,
	events.EventProductCreated,
	events.EventProductUpdated,
	events.EventProductDeleted,
	events.EventOrderCreated,
	events.EventOrderUpdated,
	events.EventOrderDeleted,
	events.EventCartItemAdded,
	events.EventCartItemRemoved,
}

// AuditService writes account, catalog and order changes to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
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
	for _, eventType := range auditedEvents {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.UserID != "" {
		fields = append(fields, zap.String("actor_id", event.Actor.UserID), zap.String("actor_status", string(event.Actor.Status)))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}
