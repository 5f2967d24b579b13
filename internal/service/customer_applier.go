package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type customerApplierRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id string) (*models.Customer, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
}

// CustomerApplier creates and updates customers from change payloads.
type CustomerApplier struct {
	repo   customerApplierRepository
	logger *zap.Logger
}

// NewCustomerApplier constructs the applier.
func NewCustomerApplier(repo customerApplierRepository, logger *zap.Logger) *CustomerApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerApplier{repo: repo, logger: logger}
}

// Apply implements ChangeApplier.
func (a *CustomerApplier) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	if a.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "customer repository not configured")
	}
	payload, err := decodePayload(change.Payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid customer payload")
	}
	switch change.Operation {
	case models.OperationCreate:
		return a.create(ctx, payload)
	case models.OperationUpdate:
		return a.update(ctx, change.EntityID, payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported operation for customer")
	}
}

func (a *CustomerApplier) create(ctx context.Context, payload map[string]json.RawMessage) ([]byte, error) {
	customer := models.Customer{Active: true}
	if str, ok, err := readString(payload, "code"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code must be a string")
	} else if ok {
		customer.Code = *str
	}
	if str, ok, err := readString(payload, "name"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must be a string")
	} else if ok {
		customer.Name = *str
	}
	if str, ok, err := readString(payload, "phone"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone must be a string")
	} else if ok {
		customer.Phone = *str
	}
	if str, ok, err := readString(payload, "address"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "address must be a string")
	} else if ok {
		customer.Address = *str
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		customer.Active = val
	}
	if customer.Code == "" || customer.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code and name are required")
	}
	exists, err := a.repo.ExistsByCode(ctx, customer.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate customer code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "customer code already used")
	}
	if err := a.repo.Create(ctx, &customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create customer")
	}
	return marshalSnapshot(a.logger, "customer", customer), nil
}

func (a *CustomerApplier) update(ctx context.Context, id string, payload map[string]json.RawMessage) ([]byte, error) {
	customer, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "customer not found")
	}
	changes := 0
	if str, ok, err := readString(payload, "code"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code must be a string")
	} else if ok {
		if *str != customer.Code {
			exists, err := a.repo.ExistsByCode(ctx, *str, customer.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate customer code")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "customer code already used")
			}
			customer.Code = *str
		}
		changes++
	}
	if str, ok, err := readString(payload, "name"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must be a string")
	} else if ok {
		customer.Name = *str
		changes++
	}
	if str, ok, err := readString(payload, "phone"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone must be a string")
	} else if ok {
		customer.Phone = *str
		changes++
	}
	if str, ok, err := readString(payload, "address"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "address must be a string")
	} else if ok {
		customer.Address = *str
		changes++
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		customer.Active = val
		changes++
	}
	if changes == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no supported customer fields provided")
	}
	if err := a.repo.Update(ctx, customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update customer")
	}
	return marshalSnapshot(a.logger, "customer", customer), nil
}

type supplierApplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	Update(ctx context.Context, supplier *models.Supplier) error
	FindByID(ctx context.Context, id string) (*models.Supplier, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
}

// SupplierApplier creates and updates suppliers from change payloads.
type SupplierApplier struct {
	repo   supplierApplierRepository
	logger *zap.Logger
}

// NewSupplierApplier constructs the applier.
func NewSupplierApplier(repo supplierApplierRepository, logger *zap.Logger) *SupplierApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierApplier{repo: repo, logger: logger}
}

// Apply implements ChangeApplier.
func (a *SupplierApplier) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	if a.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "supplier repository not configured")
	}
	payload, err := decodePayload(change.Payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid supplier payload")
	}
	switch change.Operation {
	case models.OperationCreate:
		return a.create(ctx, payload)
	case models.OperationUpdate:
		return a.update(ctx, change.EntityID, payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported operation for supplier")
	}
}

func (a *SupplierApplier) create(ctx context.Context, payload map[string]json.RawMessage) ([]byte, error) {
	supplier := models.Supplier{Active: true}
	if str, ok, err := readString(payload, "code"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code must be a string")
	} else if ok {
		supplier.Code = *str
	}
	if str, ok, err := readString(payload, "name"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must be a string")
	} else if ok {
		supplier.Name = *str
	}
	if str, ok, err := readString(payload, "phone"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone must be a string")
	} else if ok {
		supplier.Phone = *str
	}
	if str, ok, err := readString(payload, "address"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "address must be a string")
	} else if ok {
		supplier.Address = *str
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		supplier.Active = val
	}
	if supplier.Code == "" || supplier.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code and name are required")
	}
	exists, err := a.repo.ExistsByCode(ctx, supplier.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate supplier code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "supplier code already used")
	}
	if err := a.repo.Create(ctx, &supplier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supplier")
	}
	return marshalSnapshot(a.logger, "supplier", supplier), nil
}

func (a *SupplierApplier) update(ctx context.Context, id string, payload map[string]json.RawMessage) ([]byte, error) {
	supplier, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "supplier not found")
	}
	changes := 0
	if str, ok, err := readString(payload, "code"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code must be a string")
	} else if ok {
		if *str != supplier.Code {
			exists, err := a.repo.ExistsByCode(ctx, *str, supplier.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate supplier code")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "supplier code already used")
			}
			supplier.Code = *str
		}
		changes++
	}
	if str, ok, err := readString(payload, "name"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must be a string")
	} else if ok {
		supplier.Name = *str
		changes++
	}
	if str, ok, err := readString(payload, "phone"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone must be a string")
	} else if ok {
		supplier.Phone = *str
		changes++
	}
	if str, ok, err := readString(payload, "address"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "address must be a string")
	} else if ok {
		supplier.Address = *str
		changes++
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		supplier.Active = val
		changes++
	}
	if changes == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no supported supplier fields provided")
	}
	if err := a.repo.Update(ctx, supplier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update supplier")
	}
	return marshalSnapshot(a.logger, "supplier", supplier), nil
}
