package models

import "time"

// ApprovalEntity identifies the domain record an approval request targets.
type ApprovalEntity string

const (
	EntityProject      ApprovalEntity = "project"
	EntityPlot         ApprovalEntity = "plot"
	EntityCustomer     ApprovalEntity = "customer"
	EntitySupplier     ApprovalEntity = "supplier"
	EntityCashPayment  ApprovalEntity = "cash_payment"
	EntityBankPayment  ApprovalEntity = "bank_payment"
	EntitySalesInvoice ApprovalEntity = "sales_invoice"
	EntityUser         ApprovalEntity = "user"
)

// KnownEntity reports whether the entity participates in the workflow.
func KnownEntity(e ApprovalEntity) bool {
	switch e {
	case EntityProject, EntityPlot, EntityCustomer, EntitySupplier,
		EntityCashPayment, EntityBankPayment, EntitySalesInvoice, EntityUser:
		return true
	}
	return false
}

// ApprovalOperation is the kind of mutation being requested.
type ApprovalOperation string

const (
	OperationCreate ApprovalOperation = "CREATE"
	OperationUpdate ApprovalOperation = "UPDATE"
)

// ApprovalStatus captures workflow states for change requests.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest stores a proposed mutation awaiting admin review. The
// payload is opaque to the workflow; the entity's applier interprets it once
// the request is approved.
type ApprovalRequest struct {
	ID            string            `db:"id" json:"id"`
	Entity        ApprovalEntity    `db:"entity" json:"entity"`
	Operation     ApprovalOperation `db:"operation" json:"operation"`
	EntityID      *string           `db:"entity_id" json:"entityId,omitempty"`
	Payload       []byte            `db:"payload" json:"payload"`
	Status        ApprovalStatus    `db:"status" json:"status"`
	Reason        string            `db:"reason" json:"reason"`
	RequestedBy   string            `db:"requested_by" json:"requestedBy"`
	RequesterRole UserRole          `db:"requester_role" json:"requesterRole"`
	ReviewedBy    *string           `db:"reviewed_by" json:"reviewedBy,omitempty"`
	RequestedAt   time.Time         `db:"requested_at" json:"requestedAt"`
	ReviewedAt    *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	AdminNote     *string           `db:"admin_note" json:"adminNote,omitempty"`
}

// ApprovalFilter constrains listing queries.
type ApprovalFilter struct {
	Status      []ApprovalStatus
	Entity      ApprovalEntity
	Operation   ApprovalOperation
	EntityID    string
	RequestedBy string
	ReviewerID  string
	Limit       int
	Offset      int
}

// ApprovalStats aggregates request counts per status.
type ApprovalStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// ChangeSet is the applier-facing view of a mutation: either an approved
// request or a direct admin write, normalised to one shape.
type ChangeSet struct {
	Entity    ApprovalEntity
	Operation ApprovalOperation
	EntityID  string
	Payload   []byte
	ActorID   string
}
