// Package ports defines shared interfaces for the sync module. Interfaces
// live here when consumed by multiple packages to avoid duplication.
package ports

import (
	"context"
	"log/slog"
	"time"

	"syncgate/internal/sync/models"
	"syncgate/pkg/attrs"
	audit "syncgate/pkg/platform/audit"
	"syncgate/pkg/requestcontext"
)

// RecordStore persists syncable records with their version metadata.
type RecordStore interface {
	// Get returns the record, or nil when it does not exist.
	Get(ctx context.Context, domain, recordID string) (*models.Record, error)

	// Upsert writes the record unconditionally. Version checks happen in
	// the service; the store is a dumb write.
	Upsert(ctx context.Context, record *models.Record) error

	// List returns every record in a domain.
	List(ctx context.Context, domain string) ([]*models.Record, error)
}

// DedupeStore remembers the outcome of client request IDs so offline retries
// replay the stored result instead of re-applying the change.
type DedupeStore interface {
	// Get returns the stored result, or nil on a miss.
	Get(ctx context.Context, clientRequestID string) (*models.ApplyResult, error)

	// Put stores the outcome under the request ID for the given TTL.
	Put(ctx context.Context, clientRequestID string, result *models.ApplyResult, ttl time.Duration) error
}

// DomainConfigStore persists admin-registered domain configs.
type DomainConfigStore interface {
	Save(ctx context.Context, cfg *models.DomainConfig) error
	List(ctx context.Context) ([]*models.DomainConfig, error)
}

// AuditPublisher emits audit events for security-relevant sync decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs audit events to both the structured logger and the audit
// publisher. It enriches events with the request ID and extracts the common
// fields from attrList.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, category audit.EventCategory, action string, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	if logger != nil {
		args := append(attrList, "event", action, "log_type", "audit")
		logger.InfoContext(ctx, action, args...)
	}

	if publisher == nil {
		return
	}

	var actorID string
	if p := requestcontext.GetPrincipal(ctx); p != nil {
		actorID = p.ID
	}

	_ = publisher.Emit(ctx, audit.Event{
		Category:  category,
		Action:    action,
		Domain:    attrs.ExtractString(attrList, "domain"),
		RecordID:  attrs.ExtractString(attrList, "record_id"),
		Decision:  attrs.ExtractString(attrList, "decision"),
		Reason:    attrs.ExtractString(attrList, "reason"),
		ActorID:   actorID,
		RequestID: requestID,
	})
}
