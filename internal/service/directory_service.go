package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type projectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Project, error)
}

type plotReader interface {
	FindByID(ctx context.Context, id string) (*models.Plot, error)
	List(ctx context.Context, projectID string, limit, offset int) ([]models.Plot, error)
}

type customerReader interface {
	FindByID(ctx context.Context, id string) (*models.Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Customer, error)
}

type supplierReader interface {
	FindByID(ctx context.Context, id string) (*models.Supplier, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.Supplier, error)
}

type paymentReader interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context, kind models.PaymentKind, limit, offset int) ([]models.Payment, error)
}

type invoiceReader interface {
	FindByID(ctx context.Context, id string) (*models.SalesInvoice, error)
	List(ctx context.Context, customerID string, limit, offset int) ([]models.SalesInvoice, error)
}

// DirectoryService serves the read side of the domain records. All writes go
// through the dispatcher; reads come straight off the repositories.
type DirectoryService struct {
	projects  projectReader
	plots     plotReader
	customers customerReader
	suppliers supplierReader
	payments  paymentReader
	invoices  invoiceReader
	logger    *zap.Logger
}

// NewDirectoryService constructs the read service.
func NewDirectoryService(projects projectReader, plots plotReader, customers customerReader, suppliers supplierReader, payments paymentReader, invoices invoiceReader, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		projects:  projects,
		plots:     plots,
		customers: customers,
		suppliers: suppliers,
		payments:  payments,
		invoices:  invoices,
		logger:    logger,
	}
}

func (s *DirectoryService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	return project, readErr(err, "failed to load project")
}

func (s *DirectoryService) ListProjects(ctx context.Context, search string, limit, offset int) ([]models.Project, error) {
	projects, err := s.projects.List(ctx, search, limit, offset)
	return projects, readErr(err, "failed to list projects")
}

func (s *DirectoryService) GetPlot(ctx context.Context, id string) (*models.Plot, error) {
	plot, err := s.plots.FindByID(ctx, id)
	return plot, readErr(err, "failed to load plot")
}

func (s *DirectoryService) ListPlots(ctx context.Context, projectID string, limit, offset int) ([]models.Plot, error) {
	plots, err := s.plots.List(ctx, projectID, limit, offset)
	return plots, readErr(err, "failed to list plots")
}

func (s *DirectoryService) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.customers.FindByID(ctx, id)
	return customer, readErr(err, "failed to load customer")
}

func (s *DirectoryService) ListCustomers(ctx context.Context, search string, limit, offset int) ([]models.Customer, error) {
	customers, err := s.customers.List(ctx, search, limit, offset)
	return customers, readErr(err, "failed to list customers")
}

func (s *DirectoryService) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	return supplier, readErr(err, "failed to load supplier")
}

func (s *DirectoryService) ListSuppliers(ctx context.Context, search string, limit, offset int) ([]models.Supplier, error) {
	suppliers, err := s.suppliers.List(ctx, search, limit, offset)
	return suppliers, readErr(err, "failed to list suppliers")
}

func (s *DirectoryService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	return payment, readErr(err, "failed to load payment")
}

func (s *DirectoryService) ListPayments(ctx context.Context, kind models.PaymentKind, limit, offset int) ([]models.Payment, error) {
	payments, err := s.payments.List(ctx, kind, limit, offset)
	return payments, readErr(err, "failed to list payments")
}

func (s *DirectoryService) GetInvoice(ctx context.Context, id string) (*models.SalesInvoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	return invoice, readErr(err, "failed to load invoice")
}

func (s *DirectoryService) ListInvoices(ctx context.Context, customerID string, limit, offset int) ([]models.SalesInvoice, error) {
	invoices, err := s.invoices.List(ctx, customerID, limit, offset)
	return invoices, readErr(err, "failed to list invoices")
}

func readErr(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
