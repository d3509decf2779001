package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "gestops/internal/errors"
	"gestops/internal/models"
	"gestops/internal/pagination"
	"gestops/internal/services"
)

// TaxonomyHandler handles the concept, category, and subcategory levels of
// the operation taxonomy.
type TaxonomyHandler struct {
	conceptService     services.ConceptServicer
	categoryService    services.CategoryServicer
	subcategoryService services.SubcategoryServicer
}

// NewTaxonomyHandler creates a new TaxonomyHandler.
func NewTaxonomyHandler(conceptService services.ConceptServicer, categoryService services.CategoryServicer, subcategoryService services.SubcategoryServicer) *TaxonomyHandler {
	return &TaxonomyHandler{
		conceptService:     conceptService,
		categoryService:    categoryService,
		subcategoryService: subcategoryService,
	}
}

// NameRequest is the payload for taxonomy levels with only a name
type NameRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// CreateCategoryRequest is the payload for creating a category
type CreateCategoryRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	ConceptID uint   `json:"concept_id" binding:"required"`
}

// UpdateCategoryRequest is the payload for updating a category
type UpdateCategoryRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=255"`
	ConceptID *uint   `json:"concept_id"`
}

// CreateSubcategoryRequest is the payload for creating a subcategory
type CreateSubcategoryRequest struct {
	Name       string `json:"name" binding:"required,max=255"`
	CategoryID uint   `json:"category_id" binding:"required"`
}

// UpdateSubcategoryRequest is the payload for updating a subcategory
type UpdateSubcategoryRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=255"`
	CategoryID *uint   `json:"category_id"`
}

// parentFilter reads an optional parent id query parameter.
func parentFilter(c *gin.Context, param string) (*uint, error) {
	raw := c.Query(param)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	parsed := uint(id)
	return &parsed, nil
}

func bindPage(c *gin.Context) (pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return page, nil
}

// ListConcepts returns a page of concepts
// @Summary     List concepts
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       search query string false "Match on name"
// @Success     200 {object} pagination.PageResponse[models.ConceptResponse]
// @Router      /concepts [get]
func (h *TaxonomyHandler) ListConcepts(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	result, err := h.conceptService.ListConcepts(c.Query("search"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPage(result, func(m models.Concept) models.ConceptResponse { return m.ToResponse() }))
}

// GetConcept returns one concept by id
// @Summary     Get a concept
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Concept ID"
// @Success     200 {object} models.ConceptResponse
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /concepts/{id} [get]
func (h *TaxonomyHandler) GetConcept(c *gin.Context) {
	conceptID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	concept, err := h.conceptService.GetConceptByID(conceptID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"concept": concept.ToResponse()})
}

// CreateConcept registers a new concept
// @Summary     Create a concept
// @Tags        taxonomy
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body NameRequest true "Concept name"
// @Success     201 {object} models.ConceptResponse "Concept created"
// @Failure     409 {object} ErrorResponse "Name already in use"
// @Router      /concepts [post]
func (h *TaxonomyHandler) CreateConcept(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	concept, err := h.conceptService.CreateConcept(req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"concept": concept.ToResponse()})
}

// UpdateConcept renames a concept
// @Summary     Update a concept
// @Tags        taxonomy
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Concept ID"
// @Param       request body NameRequest true "New name"
// @Success     200 {object} models.ConceptResponse "Concept updated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Name already in use"
// @Router      /concepts/{id} [patch]
func (h *TaxonomyHandler) UpdateConcept(c *gin.Context) {
	conceptID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	concept, err := h.conceptService.UpdateConcept(conceptID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"concept": concept.ToResponse()})
}

// DeleteConcept removes a concept with no categories
// @Summary     Delete a concept
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Concept ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Concept has categories"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /concepts/{id} [delete]
func (h *TaxonomyHandler) DeleteConcept(c *gin.Context) {
	conceptID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.conceptService.DeleteConcept(conceptID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Concept deleted"})
}

// ListCategories returns a page of categories
// @Summary     List categories
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       search query string false "Match on name"
// @Param       concept_id query int false "Restrict to one concept"
// @Success     200 {object} pagination.PageResponse[models.CategoryResponse]
// @Router      /categories [get]
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	conceptID, err := parentFilter(c, "concept_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	result, err := h.categoryService.ListCategories(c.Query("search"), conceptID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPage(result, func(m models.Category) models.CategoryResponse { return m.ToResponse() }))
}

// GetCategory returns one category by id
// @Summary     Get a category
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} models.CategoryResponse
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /categories/{id} [get]
func (h *TaxonomyHandler) GetCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	category, err := h.categoryService.GetCategoryByID(categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category.ToResponse()})
}

// CreateCategory registers a new category under a concept
// @Summary     Create a category
// @Tags        taxonomy
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.CategoryResponse "Category created"
// @Failure     404 {object} ErrorResponse "Concept not found"
// @Router      /categories [post]
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	category, err := h.categoryService.CreateCategory(req.Name, req.ConceptID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category.ToResponse()})
}

// UpdateCategory applies a partial update to a category
// @Summary     Update a category
// @Tags        taxonomy
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} models.CategoryResponse "Category updated"
// @Failure     404 {object} ErrorResponse "Category or concept not found"
// @Router      /categories/{id} [patch]
func (h *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	category, err := h.categoryService.UpdateCategory(categoryID, req.Name, req.ConceptID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category.ToResponse()})
}

// DeleteCategory removes a category with no subcategories
// @Summary     Delete a category
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Category has subcategories"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /categories/{id} [delete]
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.categoryService.DeleteCategory(categoryID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// ListSubcategories returns a page of subcategories
// @Summary     List subcategories
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       search query string false "Match on name"
// @Param       category_id query int false "Restrict to one category"
// @Success     200 {object} pagination.PageResponse[models.SubcategoryResponse]
// @Router      /subcategories [get]
func (h *TaxonomyHandler) ListSubcategories(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := parentFilter(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	result, err := h.subcategoryService.ListSubcategories(c.Query("search"), categoryID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPage(result, func(m models.Subcategory) models.SubcategoryResponse { return m.ToResponse() }))
}

// GetSubcategory returns one subcategory by id
// @Summary     Get a subcategory
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Subcategory ID"
// @Success     200 {object} models.SubcategoryResponse
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /subcategories/{id} [get]
func (h *TaxonomyHandler) GetSubcategory(c *gin.Context) {
	subcategoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	subcategory, err := h.subcategoryService.GetSubcategoryByID(subcategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategory": subcategory.ToResponse()})
}

// CreateSubcategory registers a new subcategory under a category
// @Summary     Create a subcategory
// @Tags        taxonomy
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSubcategoryRequest true "Subcategory details"
// @Success     201 {object} models.SubcategoryResponse "Subcategory created"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /subcategories [post]
func (h *TaxonomyHandler) CreateSubcategory(c *gin.Context) {
	var req CreateSubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	subcategory, err := h.subcategoryService.CreateSubcategory(req.Name, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subcategory": subcategory.ToResponse()})
}

// UpdateSubcategory applies a partial update to a subcategory
// @Summary     Update a subcategory
// @Tags        taxonomy
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Subcategory ID"
// @Param       request body UpdateSubcategoryRequest true "Fields to change"
// @Success     200 {object} models.SubcategoryResponse "Subcategory updated"
// @Failure     404 {object} ErrorResponse "Subcategory or category not found"
// @Router      /subcategories/{id} [patch]
func (h *TaxonomyHandler) UpdateSubcategory(c *gin.Context) {
	subcategoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateSubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	subcategory, err := h.subcategoryService.UpdateSubcategory(subcategoryID, req.Name, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategory": subcategory.ToResponse()})
}

// DeleteSubcategory removes a subcategory with no operations
// @Summary     Delete a subcategory
// @Tags        taxonomy
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Subcategory ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Subcategory is referenced by operations"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /subcategories/{id} [delete]
func (h *TaxonomyHandler) DeleteSubcategory(c *gin.Context) {
	subcategoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.subcategoryService.DeleteSubcategory(subcategoryID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subcategory deleted"})
}
