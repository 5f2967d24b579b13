package dto

import (
	"encoding/json"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

// DispatchMode reports which branch the role gate took.
type DispatchMode string

const (
	DispatchModeDirect   DispatchMode = "direct"
	DispatchModeDeferred DispatchMode = "deferred"
)

// MutationInput is the entity-agnostic write coming off an entity endpoint.
type MutationInput struct {
	Entity    models.ApprovalEntity
	Operation models.ApprovalOperation
	EntityID  string
	Reason    string
	Payload   json.RawMessage
}

// DispatchResult is either the applied entity snapshot (direct) or the
// pending approval request (deferred).
type DispatchResult struct {
	Mode    DispatchMode            `json:"mode"`
	Result  json.RawMessage         `json:"result,omitempty"`
	Request *models.ApprovalRequest `json:"request,omitempty"`
}
