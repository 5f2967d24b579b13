package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
	"github.com/noah-isme/terra-erp-api/pkg/response"
)

// ChangeReasonHeader optionally carries the requester's justification for a
// write. It ends up on the approval request when the write is deferred.
const ChangeReasonHeader = "X-Change-Reason"

type mutationDispatcher interface {
	Dispatch(ctx context.Context, input dto.MutationInput, actor *models.JWTClaims) (*dto.DispatchResult, error)
}

// EntityWriteHandler funnels create/update calls for one entity through the
// dispatcher. The request body is the entity payload itself; the handler does
// not interpret it, the entity's applier does.
type EntityWriteHandler struct {
	entity     models.ApprovalEntity
	dispatcher mutationDispatcher
}

// NewEntityWriteHandler constructs a write handler bound to one entity.
func NewEntityWriteHandler(entity models.ApprovalEntity, dispatcher mutationDispatcher) *EntityWriteHandler {
	return &EntityWriteHandler{entity: entity, dispatcher: dispatcher}
}

// Create handles POST. Responds 200 with the new record when the write was
// applied directly, 202 with the queued request when it was deferred.
func (h *EntityWriteHandler) Create(c *gin.Context) {
	h.dispatch(c, models.OperationCreate, "")
}

// Update handles PUT with an id path parameter.
func (h *EntityWriteHandler) Update(c *gin.Context) {
	h.dispatch(c, models.OperationUpdate, c.Param("id"))
}

func (h *EntityWriteHandler) dispatch(c *gin.Context, operation models.ApprovalOperation, entityID string) {
	if h.dispatcher == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dispatcher not configured"))
		return
	}
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "failed to read request body"))
		return
	}
	result, err := h.dispatcher.Dispatch(c.Request.Context(), dto.MutationInput{
		Entity:    h.entity,
		Operation: operation,
		EntityID:  entityID,
		Reason:    c.GetHeader(ChangeReasonHeader),
		Payload:   payload,
	}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Mode == dto.DispatchModeDeferred {
		response.Accepted(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
