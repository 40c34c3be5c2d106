package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/faraddouglas/conecsa-api/internal/events"
	"github.com/faraddouglas/conecsa-api/internal/observability"
)

// ActivityService records auth activity published on the dispatcher.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleInfo)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleInfo)
	a.dispatcher.Subscribe(events.EventPasswordResetRequested, a.handleInfo)
	a.dispatcher.Subscribe(events.EventPasswordResetCompleted, a.handleInfo)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleRejected)
	a.dispatcher.Subscribe(events.EventPasswordResetRejected, a.handleRejected)
}

func (a *ActivityService) handleInfo(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Info(string(event.Type), a.fields(event)...)
	return nil
}

func (a *ActivityService) handleRejected(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Warn(string(event.Type), append(a.fields(event), zap.String("reason", event.Reason))...)
	return nil
}

func (a *ActivityService) fields(event events.Event) []zap.Field {
	fields := []zap.Field{zap.Time("at", event.Timestamp)}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if len(event.Payload) > 0 {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	return fields
}
