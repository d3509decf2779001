package services

import (
	"testing"

	"gestops/internal/models"
	"gestops/internal/pagination"
	"gestops/internal/testutil"
)

func TestConceptService(t *testing.T) {
	t.Run("creates_and_trims_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewConceptService(db)

		concept, err := service.CreateConcept("  Office Expenses  ")
		testutil.AssertNoError(t, err)
		if concept.Name != "Office Expenses" {
			t.Errorf("expected trimmed name, got %q", concept.Name)
		}
	})

	t.Run("duplicate_name_is_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewConceptService(db)

		_, err := service.CreateConcept("Office")
		testutil.AssertNoError(t, err)

		_, err = service.CreateConcept("OFFICE")
		testutil.AssertAppError(t, err, "DUPLICATE_CONCEPT_NAME")
	})

	t.Run("rename_to_own_name_is_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewConceptService(db)

		concept, err := service.CreateConcept("Office")
		testutil.AssertNoError(t, err)

		_, err = service.UpdateConcept(concept.ID, "office")
		testutil.AssertNoError(t, err)
	})

	t.Run("rename_to_another_concepts_name_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewConceptService(db)

		_, err := service.CreateConcept("Office")
		testutil.AssertNoError(t, err)
		concept, err := service.CreateConcept("Travel")
		testutil.AssertNoError(t, err)

		_, err = service.UpdateConcept(concept.ID, "Office")
		testutil.AssertAppError(t, err, "DUPLICATE_CONCEPT_NAME")
	})

	t.Run("delete_blocked_while_categories_exist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewConceptService(db)

		subcategory := testutil.CreateTestTaxonomy(t, db)
		conceptID := subcategory.Category.ConceptID

		err := service.DeleteConcept(conceptID)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("delete_empty_concept", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewConceptService(db)

		concept, err := service.CreateConcept("Short Lived")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, service.DeleteConcept(concept.ID))

		_, err = service.GetConceptByID(concept.ID)
		testutil.AssertAppError(t, err, "CONCEPT_NOT_FOUND")
	})
}

func TestCategoryService(t *testing.T) {
	t.Run("creates_under_existing_concept", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewCategoryService(db)

		concept := &models.Concept{Name: "Office"}
		if err := db.Create(concept).Error; err != nil {
			t.Fatalf("failed to create concept: %v", err)
		}

		category, err := service.CreateCategory("Supplies", concept.ID)
		testutil.AssertNoError(t, err)
		if category.Concept.ID != concept.ID {
			t.Error("expected the parent concept preloaded")
		}
	})

	t.Run("rejects_unknown_concept", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewCategoryService(db)

		_, err := service.CreateCategory("Supplies", 9999)
		testutil.AssertAppError(t, err, "CONCEPT_NOT_FOUND")
	})

	t.Run("moving_to_unknown_concept_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewCategoryService(db)

		subcategory := testutil.CreateTestTaxonomy(t, db)

		missing := uint(9999)
		_, err := service.UpdateCategory(subcategory.CategoryID, nil, &missing)
		testutil.AssertAppError(t, err, "CONCEPT_NOT_FOUND")
	})

	t.Run("delete_blocked_while_subcategories_exist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewCategoryService(db)

		subcategory := testutil.CreateTestTaxonomy(t, db)

		err := service.DeleteCategory(subcategory.CategoryID)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("list_filters_by_parent_concept", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewCategoryService(db)

		first := testutil.CreateTestTaxonomy(t, db)
		testutil.CreateTestTaxonomy(t, db)

		conceptID := first.Category.ConceptID
		page, err := service.ListCategories("", &conceptID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 || page.Data[0].ID != first.CategoryID {
			t.Fatalf("expected only the first concept's category, got %d rows", len(page.Data))
		}
	})
}

func TestSubcategoryService(t *testing.T) {
	t.Run("creates_with_chain_preloaded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewSubcategoryService(db)

		existing := testutil.CreateTestTaxonomy(t, db)

		subcategory, err := service.CreateSubcategory("Paper", existing.CategoryID)
		testutil.AssertNoError(t, err)
		if subcategory.Category.Concept.ID == 0 {
			t.Error("expected the concept reachable through the chain")
		}
	})

	t.Run("rejects_unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewSubcategoryService(db)

		_, err := service.CreateSubcategory("Paper", 9999)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("delete_blocked_while_operations_reference_it", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewSubcategoryService(db)

		subcategory := testutil.CreateTestTaxonomy(t, db)
		testutil.CreateTestOperation(t, db, testutil.OperationParams{SubcategoryID: subcategory.ID})

		err := service.DeleteSubcategory(subcategory.ID)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("delete_unreferenced_subcategory", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewSubcategoryService(db)

		subcategory := testutil.CreateTestTaxonomy(t, db)

		testutil.AssertNoError(t, service.DeleteSubcategory(subcategory.ID))

		_, err := service.GetSubcategoryByID(subcategory.ID)
		testutil.AssertAppError(t, err, "SUBCATEGORY_NOT_FOUND")
	})

	t.Run("list_filters_by_parent_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewSubcategoryService(db)

		first := testutil.CreateTestTaxonomy(t, db)
		testutil.CreateTestTaxonomy(t, db)

		categoryID := first.CategoryID
		page, err := service.ListSubcategories("", &categoryID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 || page.Data[0].ID != first.ID {
			t.Fatalf("expected only the first category's subcategory, got %d rows", len(page.Data))
		}
	})
}
