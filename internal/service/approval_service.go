package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	"github.com/noah-isme/terra-erp-api/internal/repository"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type approvalStore interface {
	Create(ctx context.Context, request *models.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
	MarkReviewed(ctx context.Context, params repository.ReviewParams) error
	RevertReview(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (models.ApprovalStats, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ChangeApplier applies a mutation for a particular entity. It is invoked on
// approval and on the direct admin path, and returns the resulting entity
// snapshot for the audit trail.
type ChangeApplier interface {
	Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error)
}

// ChangeApplierFunc allows using plain functions.
type ChangeApplierFunc func(ctx context.Context, change *models.ChangeSet) ([]byte, error)

// Apply implements ChangeApplier.
func (f ChangeApplierFunc) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	return f(ctx, change)
}

// ApprovalService orchestrates the approval-gated mutation workflow.
type ApprovalService struct {
	repo     approvalStore
	audit    auditLogger
	appliers map[models.ApprovalEntity]ChangeApplier
	cache    *CacheService
	statsTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// ApprovalServiceOption configures the service.
type ApprovalServiceOption func(*ApprovalService)

// WithAppliers registers the applier map keyed by entity.
func WithAppliers(appliers map[models.ApprovalEntity]ChangeApplier) ApprovalServiceOption {
	return func(s *ApprovalService) {
		for k, v := range appliers {
			s.appliers[k] = v
		}
	}
}

// WithStatsCache caches the stats endpoint payload with the given TTL.
func WithStatsCache(cache *CacheService, ttl time.Duration) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.cache = cache
		if ttl > 0 {
			s.statsTTL = ttl
		}
	}
}

// WithApprovalMetrics records decision counters on review outcomes.
func WithApprovalMetrics(metrics *MetricsService) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.metrics = metrics
	}
}

// NewApprovalService constructs the service with defaults.
func NewApprovalService(repo approvalStore, audit auditLogger, logger *zap.Logger, opts ...ApprovalServiceOption) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ApprovalService{
		repo:     repo,
		audit:    audit,
		logger:   logger,
		appliers: make(map[models.ApprovalEntity]ChangeApplier),
		statsTTL: time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

const statsCacheKey = "approvals:stats"

// Submit stores a new approval request after validating the payload. Only
// non-privileged actors land here; privileged writes bypass the queue via the
// dispatcher.
func (s *ApprovalService) Submit(ctx context.Context, req dto.SubmitApprovalRequest, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role.Privileged() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "privileged users mutate records directly")
	}
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	request := &models.ApprovalRequest{
		Entity:        req.Entity,
		Operation:     req.Operation,
		Payload:       append([]byte(nil), req.Payload...),
		Status:        models.ApprovalStatusPending,
		Reason:        strings.TrimSpace(req.Reason),
		RequestedBy:   actor.UserID,
		RequesterRole: actor.Role,
	}
	if req.Operation == models.OperationUpdate {
		entityID := strings.TrimSpace(req.EntityID)
		request.EntityID = &entityID
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval request")
	}

	if s.metrics != nil {
		s.metrics.RecordApprovalSubmission()
	}
	s.invalidateStats(ctx)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionApprovalSubmit,
		Resource:   string(request.Entity),
		ResourceID: request.EntityID,
		NewValues:  request.Payload,
	})
	return request, nil
}

// Approve transitions a pending request to APPROVED and applies its payload.
// The request is claimed first via the conditional status update, so a racing
// reviewer loses with a conflict; if the applier then fails, the claim is
// reverted and the request stays PENDING.
func (s *ApprovalService) Approve(ctx context.Context, id string, actor *models.JWTClaims, note string) (*models.ApprovalRequest, error) {
	request, err := s.loadForReview(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	applier := s.appliers[request.Entity]
	if applier == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported approval entity: %s", request.Entity))
	}

	now := time.Now().UTC()
	params := repository.ReviewParams{
		ID:         request.ID,
		Status:     models.ApprovalStatusApproved,
		ReviewedBy: actor.UserID,
		ReviewedAt: now,
		AdminNote:  optionalString(note),
	}
	if err := s.repo.MarkReviewed(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval request")
	}

	snapshot, applyErr := applier.Apply(ctx, changeSetFor(request, actor.UserID))
	if applyErr != nil {
		if revertErr := s.repo.RevertReview(ctx, request.ID); revertErr != nil {
			s.logger.Error("failed to revert claimed approval after apply failure",
				zap.String("request_id", request.ID), zap.Error(revertErr))
		}
		if s.metrics != nil {
			s.metrics.RecordApplyFailure()
		}
		return nil, appErrors.Wrap(applyErr, appErrors.ErrApplyFailed.Code, appErrors.ErrApplyFailed.Status, "approved change could not be applied; request remains pending")
	}

	request.Status = models.ApprovalStatusApproved
	request.ReviewedBy = &actor.UserID
	request.ReviewedAt = &now
	request.AdminNote = params.AdminNote

	s.recordDecision(models.ApprovalStatusApproved)
	s.invalidateStats(ctx)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionApprovalReview,
		Resource:   string(request.Entity),
		ResourceID: request.EntityID,
		OldValues:  request.Payload,
		NewValues:  snapshot,
	})
	return request, nil
}

// Reject transitions a pending request to REJECTED. The note is mandatory so
// the requester always learns why.
func (s *ApprovalService) Reject(ctx context.Context, id string, actor *models.JWTClaims, note string) (*models.ApprovalRequest, error) {
	if strings.TrimSpace(note) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a rejection note is required")
	}
	request, err := s.loadForReview(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	params := repository.ReviewParams{
		ID:         request.ID,
		Status:     models.ApprovalStatusRejected,
		ReviewedBy: actor.UserID,
		ReviewedAt: now,
		AdminNote:  optionalString(note),
	}
	if err := s.repo.MarkReviewed(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval request")
	}

	request.Status = models.ApprovalStatusRejected
	request.ReviewedBy = &actor.UserID
	request.ReviewedAt = &now
	request.AdminNote = params.AdminNote

	s.recordDecision(models.ApprovalStatusRejected)
	s.invalidateStats(ctx)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionApprovalReview,
		Resource:   string(request.Entity),
		ResourceID: request.EntityID,
		OldValues:  request.Payload,
	})
	return request, nil
}

// Delete removes a request. Only its requester may delete it, and never once
// it has been approved: an approved request documents an applied change.
func (s *ApprovalService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	if request.RequestedBy != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requester may delete a request")
	}
	if request.Status == models.ApprovalStatusApproved {
		return appErrors.Clone(appErrors.ErrForbidden, "approved requests cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete approval request")
	}
	s.invalidateStats(ctx)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionApprovalDelete,
		Resource:   string(request.Entity),
		ResourceID: request.EntityID,
		OldValues:  request.Payload,
	})
	return nil
}

// List returns accessible requests respecting actor role: operators only see
// their own, reviewers see everything.
func (s *ApprovalService) List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.ApprovalFilter{
		Status:    query.Status,
		Entity:    query.Entity,
		Operation: query.Operation,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	if !actor.Role.Privileged() {
		filter.RequestedBy = actor.UserID
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval requests")
	}
	return requests, nil
}

// Get returns a request enforcing the same scope constraints as List.
func (s *ApprovalService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	if !actor.Role.Privileged() && request.RequestedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Stats returns per-status request counts for reviewers.
func (s *ApprovalService) Stats(ctx context.Context, actor *models.JWTClaims) (models.ApprovalStats, error) {
	if actor == nil {
		return models.ApprovalStats{}, appErrors.ErrUnauthorized
	}
	if !actor.Role.Privileged() {
		return models.ApprovalStats{}, appErrors.ErrForbidden
	}

	var stats models.ApprovalStats
	if s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, statsCacheKey, &stats); err == nil && hit {
			return stats, nil
		}
	}
	stats, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return models.ApprovalStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approval requests")
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.statsTTL); err != nil {
			s.logger.Warn("failed to cache approval stats", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *ApprovalService) loadForReview(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.Privileged() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only reviewers may decide requests")
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	if request.Status != models.ApprovalStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request already reviewed")
	}
	return request, nil
}

func (s *ApprovalService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "approval-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *ApprovalService) invalidateStats(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate approval stats cache", zap.Error(err))
	}
}

func (s *ApprovalService) recordDecision(status models.ApprovalStatus) {
	if s.metrics != nil {
		s.metrics.RecordApprovalDecision(status)
	}
}

func validateSubmission(req dto.SubmitApprovalRequest) error {
	if !models.KnownEntity(req.Entity) {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported entity")
	}
	switch req.Operation {
	case models.OperationCreate:
		if strings.TrimSpace(req.EntityID) != "" {
			return appErrors.Clone(appErrors.ErrValidation, "entityId is not allowed for create requests")
		}
	case models.OperationUpdate:
		if strings.TrimSpace(req.EntityID) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "entityId is required for update requests")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "operation must be CREATE or UPDATE")
	}
	if len(req.Payload) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "payload is required")
	}
	if !json.Valid(req.Payload) {
		return appErrors.Clone(appErrors.ErrValidation, "payload must be valid JSON")
	}
	return nil
}

func changeSetFor(request *models.ApprovalRequest, actorID string) *models.ChangeSet {
	change := &models.ChangeSet{
		Entity:    request.Entity,
		Operation: request.Operation,
		Payload:   request.Payload,
		ActorID:   actorID,
	}
	if request.EntityID != nil {
		change.EntityID = *request.EntityID
	}
	return change
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
