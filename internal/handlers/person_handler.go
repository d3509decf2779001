package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gestops/internal/errors"
	"gestops/internal/models"
	"gestops/internal/pagination"
	"gestops/internal/services"
)

// PersonHandler handles counterparty requests.
type PersonHandler struct {
	personService services.PersonServicer
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(personService services.PersonServicer) *PersonHandler {
	return &PersonHandler{personService: personService}
}

// CreatePersonRequest represents the request payload for creating a person
type CreatePersonRequest struct {
	TaxID     string `json:"tax_id" binding:"required,tax_id"`
	LegalName string `json:"legal_name" binding:"required,max=255"`
}

// UpdatePersonRequest represents the request payload for updating a person
type UpdatePersonRequest struct {
	TaxID     *string `json:"tax_id" binding:"omitempty,tax_id"`
	LegalName *string `json:"legal_name" binding:"omitempty,max=255"`
}

// ListPersons returns a page of counterparties
// @Summary     List persons
// @Tags        persons
// @Produce     json
// @Security    BearerAuth
// @Param       search query string false "Match on legal name or tax id"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size (max 100)"
// @Success     200 {object} pagination.PageResponse[models.PersonResponse]
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /persons [get]
func (h *PersonHandler) ListPersons(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.personService.ListPersons(c.Query("search"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPage(result, func(m models.Person) models.PersonResponse { return m.ToResponse() }))
}

// GetPerson returns one counterparty by id
// @Summary     Get a person
// @Tags        persons
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Person ID"
// @Success     200 {object} models.PersonResponse
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /persons/{id} [get]
func (h *PersonHandler) GetPerson(c *gin.Context) {
	personID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	person, err := h.personService.GetPersonByID(personID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"person": person.ToResponse()})
}

// CreatePerson registers a new counterparty
// @Summary     Create a person
// @Tags        persons
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePersonRequest true "Person details"
// @Success     201 {object} models.PersonResponse "Person created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Tax id already registered"
// @Router      /persons [post]
func (h *PersonHandler) CreatePerson(c *gin.Context) {
	var req CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	person, err := h.personService.CreatePerson(req.TaxID, req.LegalName)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"person": person.ToResponse()})
}

// UpdatePerson applies a partial update to a counterparty
// @Summary     Update a person
// @Tags        persons
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Person ID"
// @Param       request body UpdatePersonRequest true "Fields to change"
// @Success     200 {object} models.PersonResponse "Person updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Tax id already registered"
// @Router      /persons/{id} [patch]
func (h *PersonHandler) UpdatePerson(c *gin.Context) {
	personID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	person, err := h.personService.UpdatePerson(personID, req.TaxID, req.LegalName)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"person": person.ToResponse()})
}

// DeletePerson removes a counterparty with no operations
// @Summary     Delete a person
// @Tags        persons
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Person ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Person is referenced by operations"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /persons/{id} [delete]
func (h *PersonHandler) DeletePerson(c *gin.Context) {
	personID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.personService.DeletePerson(personID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Person deleted"})
}
