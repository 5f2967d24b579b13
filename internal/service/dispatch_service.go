package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

// DispatchService is the single decision point for domain writes. Privileged
// actors have their change applied immediately through the same appliers the
// approval flow uses; everyone else has it queued as an approval request.
type DispatchService struct {
	appliers  map[models.ApprovalEntity]ChangeApplier
	approvals *ApprovalService
	audit     auditLogger
	logger    *zap.Logger
}

// NewDispatchService constructs the dispatcher. The applier map must be the
// same one handed to the approval service so both paths produce identical
// effects.
func NewDispatchService(appliers map[models.ApprovalEntity]ChangeApplier, approvals *ApprovalService, audit auditLogger, logger *zap.Logger) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		appliers:  appliers,
		approvals: approvals,
		audit:     audit,
		logger:    logger,
	}
}

// Dispatch routes a mutation by actor role. The returned result reports which
// branch ran: direct carries the applied entity snapshot, deferred carries the
// queued approval request.
func (s *DispatchService) Dispatch(ctx context.Context, input dto.MutationInput, actor *models.JWTClaims) (*dto.DispatchResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.Privileged() {
		request, err := s.approvals.Submit(ctx, dto.SubmitApprovalRequest{
			Entity:    input.Entity,
			Operation: input.Operation,
			EntityID:  input.EntityID,
			Reason:    input.Reason,
			Payload:   input.Payload,
		}, actor)
		if err != nil {
			return nil, err
		}
		return &dto.DispatchResult{Mode: dto.DispatchModeDeferred, Request: request}, nil
	}

	if err := validateSubmission(dto.SubmitApprovalRequest{
		Entity:    input.Entity,
		Operation: input.Operation,
		EntityID:  input.EntityID,
		Payload:   input.Payload,
	}); err != nil {
		return nil, err
	}
	applier := s.appliers[input.Entity]
	if applier == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported entity")
	}

	change := &models.ChangeSet{
		Entity:    input.Entity,
		Operation: input.Operation,
		EntityID:  strings.TrimSpace(input.EntityID),
		Payload:   input.Payload,
		ActorID:   actor.UserID,
	}
	snapshot, err := applier.Apply(ctx, change)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, change, snapshot)
	return &dto.DispatchResult{Mode: dto.DispatchModeDirect, Result: json.RawMessage(snapshot)}, nil
}

func (s *DispatchService) emitAudit(ctx context.Context, actor *models.JWTClaims, change *models.ChangeSet, snapshot []byte) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:    &actor.UserID,
		Action:    models.AuditActionDirectMutation,
		Resource:  string(change.Entity),
		OldValues: change.Payload,
		NewValues: snapshot,
		IPAddress: "system",
		UserAgent: "dispatch-service",
	}
	if change.EntityID != "" {
		id := change.EntityID
		log.ResourceID = &id
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
