package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "gestops/internal/errors"
	"gestops/internal/pagination"
	"gestops/internal/services"
)

// OperationHandler handles financial operation requests.
type OperationHandler struct {
	operationService services.OperationServicer
	exportService    services.ExportServicer
	auditService     services.AuditServicer
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(operationService services.OperationServicer, exportService services.ExportServicer, auditService services.AuditServicer) *OperationHandler {
	return &OperationHandler{
		operationService: operationService,
		exportService:    exportService,
		auditService:     auditService,
	}
}

// CreateOperationRequest represents the request payload for creating an operation
type CreateOperationRequest struct {
	Date          string          `json:"date" binding:"required,iso_date"`
	Type          string          `json:"type" binding:"required,operation_type"`
	Character     string          `json:"character" binding:"required,operation_character"`
	Nature        string          `json:"nature" binding:"required,operation_nature"`
	PersonID      uint            `json:"person_id" binding:"required"`
	DocumentKind  string          `json:"document_kind" binding:"required,document_kind"`
	DocumentCode  string          `json:"document_code" binding:"required"`
	Observations  string          `json:"observations" binding:"max=1000"`
	PaymentMethod string          `json:"payment_method" binding:"required,payment_method"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	SubcategoryID uint            `json:"subcategory_id" binding:"required"`
}

// BulkUpdateRequest represents the request payload for a bulk update
type BulkUpdateRequest struct {
	Operations []services.BulkOperationUpdate `json:"operations" binding:"required,min=1,dive"`
}

// ListOperations returns a filtered page of operations
// @Summary     List operations
// @Description List operations with column, relation, and global filters
// @Tags        operations
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number (omit with page_size for the full set)"
// @Param       page_size query int false "Page size (max 100)"
// @Param       global query string false "Term matched against every searchable field"
// @Success     200 {object} pagination.PageResponse[models.OperationResponse]
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /operations [get]
func (h *OperationHandler) ListOperations(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.operationService.ListOperations(c.Request.URL.Query(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOperation returns one operation by id
// @Summary     Get an operation
// @Tags        operations
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Operation ID"
// @Success     200 {object} models.OperationResponse
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /operations/{id} [get]
func (h *OperationHandler) GetOperation(c *gin.Context) {
	operationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	operation, err := h.operationService.GetOperationByID(operationID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operation": operation.ToResponse()})
}

// CreateOperation registers a new operation
// @Summary     Create an operation
// @Description Create a financial operation; the creator is the authenticated user
// @Tags        operations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateOperationRequest true "Operation details"
// @Success     201 {object} models.OperationResponse "Operation created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /operations [post]
func (h *OperationHandler) CreateOperation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	operation, err := h.operationService.CreateOperation(userID, services.OperationCreate{
		Date:          req.Date,
		Type:          req.Type,
		Character:     req.Character,
		Nature:        req.Nature,
		PersonID:      req.PersonID,
		DocumentKind:  req.DocumentKind,
		DocumentCode:  req.DocumentCode,
		Observations:  req.Observations,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		SubcategoryID: req.SubcategoryID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_OPERATION", "operation", operation.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount.String(), "person_id": req.PersonID})

	c.JSON(http.StatusCreated, gin.H{"operation": operation.ToResponse()})
}

// UpdateOperation applies a partial update to one operation
// @Summary     Update an operation
// @Description Partially update an operation; only the creator or a supervisor may do so
// @Tags        operations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Operation ID"
// @Param       request body services.OperationUpdate true "Fields to change"
// @Success     200 {object} models.OperationResponse "Operation updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the creator or a supervisor"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /operations/{id} [patch]
func (h *OperationHandler) UpdateOperation(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	operationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.OperationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	operation, updatedFields, err := h.operationService.UpdateOperation(actor, operationID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.ID, "UPDATE_OPERATION", "operation", operation.ID, c.ClientIP(),
		map[string]interface{}{"updated_fields": updatedFields})

	c.JSON(http.StatusOK, gin.H{
		"operation":      operation.ToResponse(),
		"updated_fields": updatedFields,
	})
}

// BulkUpdateOperations applies one partial update to many operations
// @Summary     Bulk update operations
// @Description Apply updates to many operations atomically; missing or forbidden ids are reported per id
// @Tags        operations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkUpdateRequest true "Per-operation updates"
// @Success     200 {object} services.BulkUpdateResult "Per-id outcome"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /operations/bulk [patch]
func (h *OperationHandler) BulkUpdateOperations(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.operationService.BulkUpdateOperations(actor, req.Operations)
	if err != nil {
		respondWithError(c, err)
		return
	}

	for _, updated := range result.Updated {
		h.auditService.Log(actor.ID, "UPDATE_OPERATION", "operation", updated.ID, c.ClientIP(),
			map[string]interface{}{"updated_fields": updated.UpdatedFields, "bulk": true})
	}

	c.JSON(http.StatusOK, result)
}

// DeleteOperation removes an operation and its attachments
// @Summary     Delete an operation
// @Tags        operations
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Operation ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     403 {object} ErrorResponse "Not the creator or a supervisor"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /operations/{id} [delete]
func (h *OperationHandler) DeleteOperation(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	operationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.operationService.DeleteOperation(actor, operationID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.ID, "DELETE_OPERATION", "operation", operationID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Operation deleted"})
}

// GetTotals aggregates the filtered operation set
// @Summary     Operation totals
// @Description Income, expense, and net totals over the same filters as the listing
// @Tags        operations
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.OperationTotals
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /operations/totals [get]
func (h *OperationHandler) GetTotals(c *gin.Context) {
	totals, err := h.operationService.GetTotals(c.Request.URL.Query())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// ExportOperations downloads the filtered operation set as an Excel workbook
// @Summary     Export operations
// @Description Export the filtered operation set as an xlsx workbook
// @Tags        operations
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Success     200 {file} binary "Workbook"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /operations/export [get]
func (h *OperationHandler) ExportOperations(c *gin.Context) {
	data, err := h.exportService.ExportOperations(c.Request.URL.Query())
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("operations_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
