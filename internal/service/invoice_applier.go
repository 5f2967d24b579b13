package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type invoiceApplierRepository interface {
	Create(ctx context.Context, invoice *models.SalesInvoice) error
	Update(ctx context.Context, invoice *models.SalesInvoice) error
	FindByID(ctx context.Context, id string) (*models.SalesInvoice, error)
	ExistsByInvoiceNo(ctx context.Context, invoiceNo, excludeID string) (bool, error)
}

// InvoiceApplier creates and updates sales invoices.
type InvoiceApplier struct {
	repo      invoiceApplierRepository
	customers customerApplierRepository
	logger    *zap.Logger
}

// NewInvoiceApplier constructs the applier. The customer repository guards
// against invoices billed to unknown customers.
func NewInvoiceApplier(repo invoiceApplierRepository, customers customerApplierRepository, logger *zap.Logger) *InvoiceApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceApplier{repo: repo, customers: customers, logger: logger}
}

// Apply implements ChangeApplier.
func (a *InvoiceApplier) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	if a.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "invoice repository not configured")
	}
	payload, err := decodePayload(change.Payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid invoice payload")
	}
	switch change.Operation {
	case models.OperationCreate:
		return a.create(ctx, payload, change.ActorID)
	case models.OperationUpdate:
		return a.update(ctx, change.EntityID, payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported operation for invoice")
	}
}

func (a *InvoiceApplier) create(ctx context.Context, payload map[string]json.RawMessage, actorID string) ([]byte, error) {
	invoice := models.SalesInvoice{CreatedBy: actorID}
	if str, ok, err := readString(payload, "invoice_no", "invoiceNo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoiceNo must be a string")
	} else if ok {
		invoice.InvoiceNo = *str
	}
	if str, ok, err := readString(payload, "customer_id", "customerId"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "customerId must be a string")
	} else if ok {
		invoice.CustomerID = *str
	}
	if str, ok, err := readString(payload, "plot_id", "plotId"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "plotId must be a string")
	} else if ok && *str != "" {
		invoice.PlotID = str
	}
	if val, ok, err := readDecimal(payload, "amount"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be numeric")
	} else if ok {
		invoice.Amount = val
	}
	if ts, ok, err := readDate(payload, "invoice_date", "invoiceDate"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoiceDate must be YYYY-MM-DD")
	} else if ok {
		invoice.InvoiceDate = ts
	}
	if str, ok, err := readString(payload, "memo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "memo must be a string")
	} else if ok {
		invoice.Memo = *str
	}
	if invoice.InvoiceNo == "" || invoice.CustomerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoiceNo and customerId are required")
	}
	if !invoice.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	if invoice.InvoiceDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoiceDate is required")
	}
	if a.customers != nil {
		if _, err := a.customers.FindByID(ctx, invoice.CustomerID); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown customer")
		}
	}
	exists, err := a.repo.ExistsByInvoiceNo(ctx, invoice.InvoiceNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate invoice number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "invoice number already used")
	}
	if err := a.repo.Create(ctx, &invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	return marshalSnapshot(a.logger, "sales_invoice", invoice), nil
}

func (a *InvoiceApplier) update(ctx context.Context, id string, payload map[string]json.RawMessage) ([]byte, error) {
	invoice, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "invoice not found")
	}
	changes := 0
	if str, ok, err := readString(payload, "invoice_no", "invoiceNo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoiceNo must be a string")
	} else if ok {
		if *str != invoice.InvoiceNo {
			exists, err := a.repo.ExistsByInvoiceNo(ctx, *str, invoice.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate invoice number")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "invoice number already used")
			}
			invoice.InvoiceNo = *str
		}
		changes++
	}
	if val, ok, err := readDecimal(payload, "amount"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be numeric")
	} else if ok {
		if !val.IsPositive() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
		}
		invoice.Amount = val
		changes++
	}
	if ts, ok, err := readDate(payload, "invoice_date", "invoiceDate"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoiceDate must be YYYY-MM-DD")
	} else if ok {
		invoice.InvoiceDate = ts
		changes++
	}
	if str, ok, err := readString(payload, "memo"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "memo must be a string")
	} else if ok {
		invoice.Memo = *str
		changes++
	}
	if changes == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no supported invoice fields provided")
	}
	if err := a.repo.Update(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}
	return marshalSnapshot(a.logger, "sales_invoice", invoice), nil
}
