package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/terra-erp-api/internal/models"
	"github.com/noah-isme/terra-erp-api/internal/service"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
	"github.com/noah-isme/terra-erp-api/pkg/response"
)

// DirectoryHandler serves the read endpoints of the domain records.
type DirectoryHandler struct {
	service *service.DirectoryService
}

// NewDirectoryHandler constructs the handler.
func NewDirectoryHandler(svc *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: svc}
}

// ListProjects godoc
// @Summary List projects
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *DirectoryHandler) ListProjects(c *gin.Context) {
	projects, err := h.service.ListProjects(c.Request.Context(), strings.TrimSpace(c.Query("search")), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, nil)
}

// GetProject godoc
// @Summary Get project detail
// @Tags Directory
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *DirectoryHandler) GetProject(c *gin.Context) {
	project, err := h.service.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// ListPlots godoc
// @Summary List plots
// @Tags Directory
// @Produce json
// @Param project_id query string false "Project filter"
// @Success 200 {object} response.Envelope
// @Router /plots [get]
func (h *DirectoryHandler) ListPlots(c *gin.Context) {
	plots, err := h.service.ListPlots(c.Request.Context(), strings.TrimSpace(c.Query("project_id")), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plots, nil)
}

// GetPlot godoc
// @Summary Get plot detail
// @Tags Directory
// @Produce json
// @Param id path string true "Plot ID"
// @Success 200 {object} response.Envelope
// @Router /plots/{id} [get]
func (h *DirectoryHandler) GetPlot(c *gin.Context) {
	plot, err := h.service.GetPlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plot, nil)
}

// ListCustomers godoc
// @Summary List customers
// @Tags Directory
// @Produce json
// @Param search query string false "Name or code search"
// @Success 200 {object} response.Envelope
// @Router /customers [get]
func (h *DirectoryHandler) ListCustomers(c *gin.Context) {
	customers, err := h.service.ListCustomers(c.Request.Context(), strings.TrimSpace(c.Query("search")), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customers, nil)
}

// GetCustomer godoc
// @Summary Get customer detail
// @Tags Directory
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} response.Envelope
// @Router /customers/{id} [get]
func (h *DirectoryHandler) GetCustomer(c *gin.Context) {
	customer, err := h.service.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customer, nil)
}

// ListSuppliers godoc
// @Summary List suppliers
// @Tags Directory
// @Produce json
// @Param search query string false "Name or code search"
// @Success 200 {object} response.Envelope
// @Router /suppliers [get]
func (h *DirectoryHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.service.ListSuppliers(c.Request.Context(), strings.TrimSpace(c.Query("search")), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suppliers, nil)
}

// GetSupplier godoc
// @Summary Get supplier detail
// @Tags Directory
// @Produce json
// @Param id path string true "Supplier ID"
// @Success 200 {object} response.Envelope
// @Router /suppliers/{id} [get]
func (h *DirectoryHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.service.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supplier, nil)
}

// ListPayments godoc
// @Summary List payment vouchers
// @Tags Directory
// @Produce json
// @Param kind query string false "CASH or BANK"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *DirectoryHandler) ListPayments(c *gin.Context) {
	var kind models.PaymentKind
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("kind"))); raw != "" {
		kind = models.PaymentKind(raw)
		if kind != models.PaymentKindCash && kind != models.PaymentKindBank {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind must be CASH or BANK"))
			return
		}
	}
	payments, err := h.service.ListPayments(c.Request.Context(), kind, queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// GetPayment godoc
// @Summary Get payment voucher detail
// @Tags Directory
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *DirectoryHandler) GetPayment(c *gin.Context) {
	payment, err := h.service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// ListInvoices godoc
// @Summary List sales invoices
// @Tags Directory
// @Produce json
// @Param customer_id query string false "Customer filter"
// @Success 200 {object} response.Envelope
// @Router /sales-invoices [get]
func (h *DirectoryHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.service.ListInvoices(c.Request.Context(), strings.TrimSpace(c.Query("customer_id")), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, nil)
}

// GetInvoice godoc
// @Summary Get sales invoice detail
// @Tags Directory
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /sales-invoices/{id} [get]
func (h *DirectoryHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.service.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}
