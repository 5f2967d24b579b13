package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/terra-erp-api/internal/dto"
	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
	"github.com/noah-isme/terra-erp-api/pkg/response"
)

type journalService interface {
	CheckBalance(lines []dto.JournalLineInput) models.BalanceResult
	Create(ctx context.Context, req dto.CreateJournalEntryRequest, actor *models.JWTClaims) (*models.JournalEntry, error)
	Get(ctx context.Context, id string) (*models.JournalEntry, error)
	List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error)
}

// JournalHandler exposes REST endpoints for journal entries.
type JournalHandler struct {
	service journalService
}

// NewJournalHandler constructs the handler.
func NewJournalHandler(service journalService) *JournalHandler {
	return &JournalHandler{service: service}
}

// Create godoc
// @Summary Post a journal entry
// @Tags Journal
// @Accept json
// @Produce json
// @Param payload body dto.CreateJournalEntryRequest true "Journal entry"
// @Success 201 {object} response.Envelope
// @Router /journal-entries [post]
func (h *JournalHandler) Create(c *gin.Context) {
	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid journal payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// CheckBalance godoc
// @Summary Check whether a set of lines balances
// @Tags Journal
// @Accept json
// @Produce json
// @Param payload body dto.CheckBalanceRequest true "Lines to check"
// @Success 200 {object} response.Envelope
// @Router /journal-entries/check-balance [post]
func (h *JournalHandler) CheckBalance(c *gin.Context) {
	var req dto.CheckBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid balance check payload"))
		return
	}
	result := h.service.CheckBalance(req.Lines)
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get a journal entry with its lines
// @Tags Journal
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /journal-entries/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// List godoc
// @Summary List journal entries
// @Tags Journal
// @Produce json
// @Param from query string false "Start date YYYY-MM-DD"
// @Param to query string false "End date YYYY-MM-DD"
// @Param reference query string false "Reference filter"
// @Success 200 {object} response.Envelope
// @Router /journal-entries [get]
func (h *JournalHandler) List(c *gin.Context) {
	filter := models.JournalFilter{
		Reference: strings.TrimSpace(c.Query("reference")),
		Limit:     queryInt(c, "limit", 0),
		Offset:    queryInt(c, "offset", 0),
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		filter.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		filter.To = &ts
	}
	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
