package services

import (
	"strings"

	"gorm.io/gorm"

	"gestops/internal/errors"
	"gestops/internal/models"
	"gestops/internal/pagination"
)

// ConceptService implements ConceptServicer, the top taxonomy level.
type ConceptService struct {
	db *gorm.DB
}

func NewConceptService(db *gorm.DB) *ConceptService {
	return &ConceptService{db: db}
}

func (s *ConceptService) CreateConcept(name string) (*models.Concept, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidation("name", "name is required")
	}
	if err := s.checkNameAvailable(name, 0); err != nil {
		return nil, err
	}

	concept := &models.Concept{Name: name}
	if err := s.db.Create(concept).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return concept, nil
}

func (s *ConceptService) GetConceptByID(conceptID uint) (*models.Concept, error) {
	var concept models.Concept
	if err := s.db.First(&concept, conceptID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrConceptNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &concept, nil
}

func (s *ConceptService) ListConcepts(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Concept], error) {
	query := s.db.Model(&models.Concept{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	query = query.Order("name ASC")

	var concepts []models.Concept
	if page.Unpaged() {
		if err := query.Find(&concepts).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		resp := pagination.NewUnpagedResponse(concepts)
		return &resp, nil
	}

	page.Defaults()
	if err := query.Scopes(pagination.Paginate(page)).Find(&concepts).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	resp := pagination.NewPageResponse(concepts, page.Page, page.PageSize, total)
	return &resp, nil
}

func (s *ConceptService) UpdateConcept(conceptID uint, name string) (*models.Concept, error) {
	concept, err := s.GetConceptByID(conceptID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidation("name", "name is required")
	}
	if err := s.checkNameAvailable(name, concept.ID); err != nil {
		return nil, err
	}

	concept.Name = name
	if err := s.db.Save(concept).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return concept, nil
}

func (s *ConceptService) DeleteConcept(conceptID uint) error {
	concept, err := s.GetConceptByID(conceptID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Category{}).Where("concept_id = ?", conceptID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return errors.NewValidation("concept_id", "concept has categories")
	}

	if err := s.db.Delete(concept).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}

func (s *ConceptService) checkNameAvailable(name string, excludeID uint) error {
	var count int64
	query := s.db.Model(&models.Concept{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return errors.ErrDuplicateConceptName
	}
	return nil
}

// CategoryService implements CategoryServicer, the middle taxonomy level.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) CreateCategory(name string, conceptID uint) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidation("name", "name is required")
	}
	if err := s.checkConceptExists(conceptID); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, ConceptID: conceptID}
	if err := s.db.Create(category).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return s.GetCategoryByID(category.ID)
}

func (s *CategoryService) GetCategoryByID(categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.Preload("Concept").First(&category, categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *CategoryService) ListCategories(search string, conceptID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	query := s.db.Model(&models.Category{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if conceptID != nil {
		query = query.Where("concept_id = ?", *conceptID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	query = query.Preload("Concept").Order("name ASC")

	var categories []models.Category
	if page.Unpaged() {
		if err := query.Find(&categories).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		resp := pagination.NewUnpagedResponse(categories)
		return &resp, nil
	}

	page.Defaults()
	if err := query.Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	resp := pagination.NewPageResponse(categories, page.Page, page.PageSize, total)
	return &resp, nil
}

func (s *CategoryService) UpdateCategory(categoryID uint, name *string, conceptID *uint) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, errors.NewValidation("name", "name is required")
		}
		category.Name = trimmed
	}
	if conceptID != nil {
		if err := s.checkConceptExists(*conceptID); err != nil {
			return nil, err
		}
		category.ConceptID = *conceptID
	}

	if err := s.db.Save(category).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return s.GetCategoryByID(category.ID)
}

func (s *CategoryService) DeleteCategory(categoryID uint) error {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Subcategory{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return errors.NewValidation("category_id", "category has subcategories")
	}

	if err := s.db.Delete(category).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}

func (s *CategoryService) checkConceptExists(conceptID uint) error {
	var count int64
	if err := s.db.Model(&models.Concept{}).Where("id = ?", conceptID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count == 0 {
		return errors.ErrConceptNotFound
	}
	return nil
}

// SubcategoryService implements SubcategoryServicer, the leaf taxonomy level.
type SubcategoryService struct {
	db *gorm.DB
}

func NewSubcategoryService(db *gorm.DB) *SubcategoryService {
	return &SubcategoryService{db: db}
}

func (s *SubcategoryService) CreateSubcategory(name string, categoryID uint) (*models.Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidation("name", "name is required")
	}
	if err := s.checkCategoryExists(categoryID); err != nil {
		return nil, err
	}

	subcategory := &models.Subcategory{Name: name, CategoryID: categoryID}
	if err := s.db.Create(subcategory).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return s.GetSubcategoryByID(subcategory.ID)
}

func (s *SubcategoryService) GetSubcategoryByID(subcategoryID uint) (*models.Subcategory, error) {
	var subcategory models.Subcategory
	if err := s.db.Preload("Category.Concept").First(&subcategory, subcategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrSubcategoryNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &subcategory, nil
}

func (s *SubcategoryService) ListSubcategories(search string, categoryID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.Subcategory], error) {
	query := s.db.Model(&models.Subcategory{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	query = query.Preload("Category.Concept").Order("name ASC")

	var subcategories []models.Subcategory
	if page.Unpaged() {
		if err := query.Find(&subcategories).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		resp := pagination.NewUnpagedResponse(subcategories)
		return &resp, nil
	}

	page.Defaults()
	if err := query.Scopes(pagination.Paginate(page)).Find(&subcategories).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	resp := pagination.NewPageResponse(subcategories, page.Page, page.PageSize, total)
	return &resp, nil
}

func (s *SubcategoryService) UpdateSubcategory(subcategoryID uint, name *string, categoryID *uint) (*models.Subcategory, error) {
	subcategory, err := s.GetSubcategoryByID(subcategoryID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, errors.NewValidation("name", "name is required")
		}
		subcategory.Name = trimmed
	}
	if categoryID != nil {
		if err := s.checkCategoryExists(*categoryID); err != nil {
			return nil, err
		}
		subcategory.CategoryID = *categoryID
	}

	if err := s.db.Save(subcategory).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return s.GetSubcategoryByID(subcategory.ID)
}

func (s *SubcategoryService) DeleteSubcategory(subcategoryID uint) error {
	subcategory, err := s.GetSubcategoryByID(subcategoryID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Operation{}).Where("subcategory_id = ?", subcategoryID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return errors.NewValidation("subcategory_id", "subcategory is referenced by existing operations")
	}

	if err := s.db.Delete(subcategory).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}

func (s *SubcategoryService) checkCategoryExists(categoryID uint) error {
	var count int64
	if err := s.db.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count == 0 {
		return errors.ErrCategoryNotFound
	}
	return nil
}
