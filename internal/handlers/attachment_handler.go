package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gestops/internal/errors"
	"gestops/internal/models"
	"gestops/internal/services"
)

// AttachmentHandler handles the file slots attached to operations.
type AttachmentHandler struct {
	operationService services.OperationServicer
	auditService     services.AuditServicer
	maxUploadSize    int64
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(operationService services.OperationServicer, auditService services.AuditServicer, maxUploadSize int64) *AttachmentHandler {
	return &AttachmentHandler{
		operationService: operationService,
		auditService:     auditService,
		maxUploadSize:    maxUploadSize,
	}
}

func parseSlot(c *gin.Context) (models.AttachmentSlot, error) {
	return models.ParseAttachmentSlot(c.Param("slot"))
}

// DownloadAttachment streams the file stored in a slot
// @Summary     Download an attachment
// @Tags        attachments
// @Produce     octet-stream
// @Security    BearerAuth
// @Param       id path int true "Operation ID"
// @Param       slot path string true "Slot" Enums(voucher, file1, file2, file3)
// @Success     200 {file} binary "File contents"
// @Failure     404 {object} ErrorResponse "Operation or attachment not found"
// @Router      /operations/{id}/attachments/{slot} [get]
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	operationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	slot, err := parseSlot(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	path, err := h.operationService.AttachmentPath(operationID, slot)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.File(path)
}

// UploadAttachment stores a file in a slot, replacing any previous file
// @Summary     Upload an attachment
// @Description Store a file in the slot; only the creator or a supervisor may do so
// @Tags        attachments
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Operation ID"
// @Param       slot path string true "Slot" Enums(voucher, file1, file2, file3)
// @Param       file formData file true "File to store"
// @Success     200 {object} models.OperationResponse "Operation with updated slots"
// @Failure     400 {object} ErrorResponse "Invalid file"
// @Failure     403 {object} ErrorResponse "Not the creator or a supervisor"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /operations/{id}/attachments/{slot} [put]
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
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
	slot, err := parseSlot(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidFile, "A file field is required"))
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidFile, "File exceeds the maximum upload size"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer src.Close()

	operation, err := h.operationService.ReplaceAttachment(
		actor,
		operationID,
		slot,
		src,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.ID, "UPLOAD_ATTACHMENT", "operation", operationID, c.ClientIP(),
		map[string]interface{}{"slot": string(slot), "original_name": fileHeader.Filename})

	c.JSON(http.StatusOK, gin.H{"operation": operation.ToResponse()})
}

// DeleteAttachment clears a slot and removes its file
// @Summary     Delete an attachment
// @Tags        attachments
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Operation ID"
// @Param       slot path string true "Slot" Enums(voucher, file1, file2, file3)
// @Success     200 {object} map[string]string "Deleted"
// @Failure     403 {object} ErrorResponse "Not the creator or a supervisor"
// @Failure     404 {object} ErrorResponse "Operation or attachment not found"
// @Router      /operations/{id}/attachments/{slot} [delete]
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
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
	slot, err := parseSlot(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.operationService.DeleteAttachment(actor, operationID, slot); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.ID, "DELETE_ATTACHMENT", "operation", operationID, c.ClientIP(),
		map[string]interface{}{"slot": string(slot)})

	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted"})
}
