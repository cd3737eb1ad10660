package service

import (
	"context"

	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type auditor struct {
	store   AuditLogger
	service string
	logger  *zap.Logger
}

func newAuditor(store AuditLogger, service string, logger *zap.Logger) *auditor {
	return &auditor{store: store, service: service, logger: logger}
}

func (a *auditor) record(ctx context.Context, action, entityID string, data bson.M) {
	if a == nil || a.store == nil {
		return
	}
	err := a.store.CreateAuditLog(ctx, &repository.AuditLog{
		Service:  a.service,
		Action:   action,
		EntityID: entityID,
		Data:     data,
	})
	if err != nil {
		a.logger.Warn("Failed to write audit log", zap.String("action", action), zap.String("entity_id", entityID), zap.Error(err))
	}
}
