// Package service orchestrates sync change application: transition
// validation through the state machine registry, optimistic-lock conflict
// resolution, idempotent replay of retried uploads, and audit emission.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"syncgate/internal/statemachine"
	"syncgate/internal/sync/metrics"
	"syncgate/internal/sync/models"
	"syncgate/internal/sync/ports"
	domainerrors "syncgate/pkg/domainerrors"
	audit "syncgate/pkg/platform/audit"
	"syncgate/pkg/requestcontext"
)

const defaultDedupeTTL = 24 * time.Hour

// Service is the sync module's application service. The registry answers
// policy questions; everything stateful lives behind the store ports.
type Service struct {
	registry   *statemachine.Registry
	records    ports.RecordStore
	dedupe     ports.DedupeStore
	domainCfgs ports.DomainConfigStore
	publisher  ports.AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	dedupeTTL  time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithDedupeStore(store ports.DedupeStore) Option {
	return func(s *Service) {
		s.dedupe = store
	}
}

func WithDomainConfigStore(store ports.DomainConfigStore) Option {
	return func(s *Service) {
		s.domainCfgs = store
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

func New(registry *statemachine.Registry, records ports.RecordStore, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("transition registry is required")
	}
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}

	svc := &Service{
		registry:  registry,
		records:   records,
		logger:    slog.Default(),
		tracer:    otel.Tracer("syncgate/sync"),
		dedupeTTL: defaultDedupeTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Validate answers whether a transition is legal without touching any
// record. The caller principal (when present) is injected under the engine's
// user key unless the request context already carries one.
func (s *Service) Validate(ctx context.Context, domain, fromStatus, toStatus string, evalCtx map[string]any) statemachine.Result {
	evalCtx = s.withPrincipal(ctx, evalCtx)
	result := s.registry.ValidateTransition(domain, fromStatus, toStatus, evalCtx)

	s.metrics.ObserveValidation(domain, result.Allowed)
	s.auditValidation(ctx, domain, "", fromStatus, toStatus, result)
	return result
}

// Apply runs one client change request through validation, conflict
// resolution and persistence. Policy denials and version conflicts come back
// inside the ApplyResult; Go errors are reserved for infrastructure faults.
func (s *Service) Apply(ctx context.Context, req *models.ChangeRequest) (*models.ApplyResult, error) {
	ctx, span := s.tracer.Start(ctx, "sync.Apply", trace.WithAttributes(
		attribute.String("sync.domain", req.Domain),
		attribute.String("sync.record_id", req.RecordID),
		attribute.String("sync.to_status", req.ToStatus),
	))
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = models.StrategyServerWins
	}

	if req.ClientRequestID != "" && s.dedupe != nil {
		cached, err := s.dedupe.Get(ctx, req.ClientRequestID)
		if err != nil {
			// Dedupe is best-effort: a failing lookup must not block sync.
			s.logger.WarnContext(ctx, "dedupe lookup failed",
				"domain", req.Domain, "client_request_id", req.ClientRequestID, "error", err)
		} else if cached != nil {
			cached.Deduped = true
			if s.metrics != nil {
				s.metrics.DedupeHits.WithLabelValues(req.Domain).Inc()
			}
			ports.LogAudit(ctx, s.logger, s.publisher, audit.CategoryOperations, audit.ActionChangeDeduplicated,
				"domain", req.Domain,
				"record_id", req.RecordID,
				"client_request_id", req.ClientRequestID,
			)
			return cached, nil
		}
	}

	record, err := s.records.Get(ctx, req.Domain, req.RecordID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load sync record")
	}
	if record == nil {
		// First sight of this record: it starts at the domain default
		// with version 0, so the engine sees default → requested.
		record = &models.Record{Domain: req.Domain, RecordID: req.RecordID}
	}

	// The server's current status is authoritative; the client's view of
	// the from-status is implicit in its base version.
	validation := s.registry.ValidateTransition(req.Domain, record.Status, req.ToStatus, s.withPrincipal(ctx, req.Context))
	s.metrics.ObserveValidation(req.Domain, validation.Allowed)
	s.auditValidation(ctx, req.Domain, req.RecordID, record.Status, req.ToStatus, validation)

	result := &models.ApplyResult{Validation: validation}
	if !validation.Allowed {
		return s.finish(ctx, req, result)
	}

	if req.BaseVersion != record.Version {
		conflict := &models.VersionConflict{
			BaseVersion:    req.BaseVersion,
			CurrentVersion: record.Version,
		}
		result.Conflict = conflict

		applyAnyway := false
		switch strategy {
		case models.StrategyClientWins:
			applyAnyway = true
			conflict.Resolution = models.StrategyClientWins.String()
		case models.StrategyLastWriteWins:
			applyAnyway = !req.ChangedAt.IsZero() && req.ChangedAt.After(record.UpdatedAt)
			if applyAnyway {
				conflict.Resolution = models.StrategyLastWriteWins.String()
			} else {
				conflict.Resolution = "rejected"
			}
		default:
			conflict.Resolution = "rejected"
		}

		if s.metrics != nil {
			s.metrics.VersionConflicts.WithLabelValues(req.Domain, conflict.Resolution).Inc()
		}
		ports.LogAudit(ctx, s.logger, s.publisher, audit.CategoryOperations, audit.ActionVersionConflict,
			"domain", req.Domain,
			"record_id", req.RecordID,
			"base_version", req.BaseVersion,
			"current_version", record.Version,
			"decision", conflict.Resolution,
		)
		if !applyAnyway {
			return s.finish(ctx, req, result)
		}
	}

	record.Status = strings.ToUpper(req.ToStatus)
	record.Version++
	record.UpdatedAt = requestcontext.Now(ctx)
	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to persist sync record")
	}

	result.Applied = true
	result.Record = record.Clone()
	if s.metrics != nil {
		s.metrics.ChangesApplied.WithLabelValues(req.Domain).Inc()
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.CategoryOperations, audit.ActionChangeApplied,
		"domain", req.Domain,
		"record_id", req.RecordID,
		"status", record.Status,
		"version", record.Version,
	)
	return s.finish(ctx, req, result)
}

// finish stores the outcome for retried uploads before returning it.
func (s *Service) finish(ctx context.Context, req *models.ChangeRequest, result *models.ApplyResult) (*models.ApplyResult, error) {
	if req.ClientRequestID != "" && s.dedupe != nil {
		if err := s.dedupe.Put(ctx, req.ClientRequestID, result, s.dedupeTTL); err != nil {
			s.logger.WarnContext(ctx, "dedupe store failed",
				"domain", req.Domain, "client_request_id", req.ClientRequestID, "error", err)
		}
	}
	return result, nil
}

// RegisterDomain validates, persists and installs an admin-supplied domain
// config. Registration replaces any previous config for the domain.
func (s *Service) RegisterDomain(ctx context.Context, cfg *models.DomainConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.UpdatedAt = requestcontext.Now(ctx)

	if s.domainCfgs != nil {
		if err := s.domainCfgs.Save(ctx, cfg); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to persist domain config")
		}
	}
	s.registry.RegisterDomain(cfg.Domain, cfg.EngineTransitions(), statemachine.Policy(cfg.Policy), cfg.DefaultStatus)

	ports.LogAudit(ctx, s.logger, s.publisher, audit.CategorySecurity, audit.ActionDomainRegistered,
		"domain", cfg.Domain,
		"policy", cfg.Policy,
		"transitions", len(cfg.Transitions),
	)
	return nil
}

// LoadDomains replays persisted domain configs into the registry. Called at
// startup after the built-ins are seeded, so stored overrides win.
func (s *Service) LoadDomains(ctx context.Context) error {
	if s.domainCfgs == nil {
		return nil
	}
	configs, err := s.domainCfgs.List(ctx)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load domain configs")
	}
	for _, cfg := range configs {
		s.registry.RegisterDomain(cfg.Domain, cfg.EngineTransitions(), statemachine.Policy(cfg.Policy), cfg.DefaultStatus)
	}
	if len(configs) > 0 {
		s.logger.InfoContext(ctx, "replayed persisted domain configs", "count", len(configs))
	}
	return nil
}

// AllowedTransitions lists the one-hop targets from a status.
func (s *Service) AllowedTransitions(domain, fromStatus string) []string {
	return s.registry.AllowedTransitions(domain, fromStatus)
}

// DomainStatuses lists every status known to a domain.
func (s *Service) DomainStatuses(domain string) []string {
	return s.registry.DomainStatuses(domain)
}

// ListRecords exposes a domain's records for admin inspection.
func (s *Service) ListRecords(ctx context.Context, domain string) ([]*models.Record, error) {
	records, err := s.records.List(ctx, domain)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list sync records")
	}
	return records, nil
}

// withPrincipal injects the request principal under the engine's user key
// when the evaluation context does not already carry one.
func (s *Service) withPrincipal(ctx context.Context, evalCtx map[string]any) map[string]any {
	p := requestcontext.GetPrincipal(ctx)
	if p == nil {
		return evalCtx
	}
	if _, exists := evalCtx[statemachine.ContextUserKey]; exists {
		return evalCtx
	}
	out := make(map[string]any, len(evalCtx)+1)
	for k, v := range evalCtx {
		out[k] = v
	}
	out[statemachine.ContextUserKey] = p
	return out
}

// auditValidation surfaces denials and warnings. Admin bypasses get their
// own security event so they can be alerted on.
func (s *Service) auditValidation(ctx context.Context, domain, recordID, fromStatus, toStatus string, result statemachine.Result) {
	if !result.Allowed {
		ports.LogAudit(ctx, s.logger, s.publisher, audit.CategorySecurity, audit.ActionTransitionDenied,
			"domain", domain,
			"record_id", recordID,
			"from_status", fromStatus,
			"to_status", toStatus,
			"reason", result.Reason,
		)
		return
	}
	for _, warning := range result.Warnings {
		action := audit.ActionTransitionWarning
		if strings.HasPrefix(warning, "Admin bypassed permission") {
			action = audit.ActionAdminBypass
			if s.metrics != nil {
				s.metrics.AdminBypasses.WithLabelValues(domain).Inc()
			}
		}
		ports.LogAudit(ctx, s.logger, s.publisher, audit.CategorySecurity, action,
			"domain", domain,
			"record_id", recordID,
			"from_status", fromStatus,
			"to_status", toStatus,
			"reason", warning,
		)
	}
}
