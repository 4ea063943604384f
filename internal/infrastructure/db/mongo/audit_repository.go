package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

const auditCollection = "audit_log"

// AuditRepository appends audit entries to the audit_log collection.
type AuditRepository struct {
	db *mongo.Database
}

func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	if _, err := r.db.Collection(auditCollection).InsertOne(ctx, auditDocument(entry)); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func auditDocument(entry domain.AuditEntry) bson.M {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	doc := bson.M{
		"action":      string(entry.Action),
		"at":          at.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	optional := map[string]string{
		"user_id":   entry.UserID,
		"tenant_id": entry.TenantID,
		"branch_id": entry.BranchID,
		"target":    entry.Target,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}
	if len(entry.Details) > 0 {
		details := bson.M{}
		for k, v := range entry.Details {
			details[k] = v
		}
		doc["details"] = details
	}
	return doc
}
