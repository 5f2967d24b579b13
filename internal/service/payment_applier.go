package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type paymentApplierRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ExistsByVoucherNo(ctx context.Context, kind models.PaymentKind, voucherNo, excludeID string) (bool, error)
}

// PaymentApplier creates and updates payment vouchers of a fixed kind. One
// instance is registered for the cash entity and another for the bank entity.
type PaymentApplier struct {
	repo   paymentApplierRepository
	kind   models.PaymentKind
	logger *zap.Logger
}

// NewPaymentApplier constructs the applier for the given voucher kind.
func NewPaymentApplier(repo paymentApplierRepository, kind models.PaymentKind, logger *zap.Logger) *PaymentApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentApplier{repo: repo, kind: kind, logger: logger}
}

// Apply implements ChangeApplier.
func (a *PaymentApplier) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	if a.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "payment repository not configured")
	}
	payload, err := decodePayload(change.Payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid payment payload")
	}
	switch change.Operation {
	case models.OperationCreate:
		return a.create(ctx, payload, change.ActorID)
	case models.OperationUpdate:
		return a.update(ctx, change.EntityID, payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported operation for payment")
	}
}

func (a *PaymentApplier) create(ctx context.Context, payload map[string]json.RawMessage, actorID string) ([]byte, error) {
	payment := models.Payment{Kind: a.kind, CreatedBy: actorID}
	if str, ok, err := readString(payload, "voucher_no", "voucherNo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "voucherNo must be a string")
	} else if ok {
		payment.VoucherNo = *str
	}
	if str, ok, err := readString(payload, "paid_to", "paidTo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paidTo must be a string")
	} else if ok {
		payment.PaidTo = *str
	}
	if str, ok, err := readString(payload, "account_code", "accountCode"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "accountCode must be a string")
	} else if ok {
		payment.AccountCode = *str
	}
	if val, ok, err := readDecimal(payload, "amount"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be numeric")
	} else if ok {
		payment.Amount = val
	}
	if ts, ok, err := readDate(payload, "payment_date", "paymentDate"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paymentDate must be YYYY-MM-DD")
	} else if ok {
		payment.PaymentDate = ts
	}
	if str, ok, err := readString(payload, "memo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "memo must be a string")
	} else if ok {
		payment.Memo = *str
	}
	if payment.VoucherNo == "" || payment.PaidTo == "" || payment.AccountCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "voucherNo, paidTo and accountCode are required")
	}
	if !payment.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	if payment.PaymentDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paymentDate is required")
	}
	exists, err := a.repo.ExistsByVoucherNo(ctx, a.kind, payment.VoucherNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate voucher number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "voucher number already used")
	}
	if err := a.repo.Create(ctx, &payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	return marshalSnapshot(a.logger, "payment", payment), nil
}

func (a *PaymentApplier) update(ctx context.Context, id string, payload map[string]json.RawMessage) ([]byte, error) {
	payment, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "payment not found")
	}
	if payment.Kind != a.kind {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment kind mismatch")
	}
	changes := 0
	if str, ok, err := readString(payload, "voucher_no", "voucherNo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "voucherNo must be a string")
	} else if ok {
		if *str != payment.VoucherNo {
			exists, err := a.repo.ExistsByVoucherNo(ctx, a.kind, *str, payment.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate voucher number")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "voucher number already used")
			}
			payment.VoucherNo = *str
		}
		changes++
	}
	if str, ok, err := readString(payload, "paid_to", "paidTo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paidTo must be a string")
	} else if ok {
		payment.PaidTo = *str
		changes++
	}
	if str, ok, err := readString(payload, "account_code", "accountCode"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "accountCode must be a string")
	} else if ok {
		payment.AccountCode = *str
		changes++
	}
	if val, ok, err := readDecimal(payload, "amount"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be numeric")
	} else if ok {
		if !val.IsPositive() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
		}
		payment.Amount = val
		changes++
	}
	if ts, ok, err := readDate(payload, "payment_date", "paymentDate"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paymentDate must be YYYY-MM-DD")
	} else if ok {
		payment.PaymentDate = ts
		changes++
	}
	if str, ok, err := readString(payload, "memo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "memo must be a string")
	} else if ok {
		payment.Memo = *str
		changes++
	}
	if changes == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no supported payment fields provided")
	}
	if err := a.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	return marshalSnapshot(a.logger, "payment", payment), nil
}
