package dto

import (
	"encoding/json"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

// SubmitApprovalRequest payload for deferring a mutation into review.
type SubmitApprovalRequest struct {
	Entity    models.ApprovalEntity    `json:"entity"`
	Operation models.ApprovalOperation `json:"operation"`
	EntityID  string                   `json:"entityId"`
	Reason    string                   `json:"reason"`
	Payload   json.RawMessage          `json:"payload"`
}

// ReviewApprovalRequest captures the reviewer note for approve/reject calls.
type ReviewApprovalRequest struct {
	Note string `json:"note"`
}

// ApprovalQuery mirrors supported listing filters.
type ApprovalQuery struct {
	Status    []models.ApprovalStatus
	Entity    models.ApprovalEntity
	Operation models.ApprovalOperation
	Limit     int
	Offset    int
}
