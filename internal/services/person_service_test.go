package services

import (
	"testing"

	"gestops/internal/models"
	"gestops/internal/pagination"
	"gestops/internal/testutil"
)

func TestPersonServiceCreate(t *testing.T) {
	t.Run("creates_person", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		person, err := service.CreatePerson("20123456789", "  Acme SA  ")
		testutil.AssertNoError(t, err)

		if person.TaxID != "20123456789" {
			t.Errorf("unexpected tax id %q", person.TaxID)
		}
		if person.LegalName != "Acme SA" {
			t.Errorf("expected trimmed legal name, got %q", person.LegalName)
		}
	})

	t.Run("rejects_invalid_tax_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		_, err := service.CreatePerson("1234", "Acme SA")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("rejects_blank_legal_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		_, err := service.CreatePerson("20123456789", "   ")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("rejects_duplicate_tax_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		_, err := service.CreatePerson("20123456789", "Acme SA")
		testutil.AssertNoError(t, err)

		_, err = service.CreatePerson("20123456789", "Other SA")
		testutil.AssertAppError(t, err, "DUPLICATE_TAX_ID")
	})
}

func TestPersonServiceUpdate(t *testing.T) {
	t.Run("partial_update_leaves_other_fields_alone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		person := testutil.CreateTestPerson(t, db)

		name := "Renamed SA"
		updated, err := service.UpdatePerson(person.ID, nil, &name)
		testutil.AssertNoError(t, err)

		if updated.LegalName != name {
			t.Errorf("expected legal name %q, got %q", name, updated.LegalName)
		}
		if updated.TaxID != person.TaxID {
			t.Errorf("expected tax id unchanged, got %q", updated.TaxID)
		}
	})

	t.Run("rejects_tax_id_taken_by_another_person", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		first := testutil.CreateTestPerson(t, db)
		second := testutil.CreateTestPerson(t, db)

		taken := first.TaxID
		_, err := service.UpdatePerson(second.ID, &taken, nil)
		testutil.AssertAppError(t, err, "DUPLICATE_TAX_ID")
	})

	t.Run("keeping_own_tax_id_is_not_a_duplicate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		person := testutil.CreateTestPerson(t, db)

		same := person.TaxID
		_, err := service.UpdatePerson(person.ID, &same, nil)
		testutil.AssertNoError(t, err)
	})

	t.Run("unknown_person", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		name := "Ghost"
		_, err := service.UpdatePerson(9999, nil, &name)
		testutil.AssertAppError(t, err, "PERSON_NOT_FOUND")
	})
}

func TestPersonServiceDelete(t *testing.T) {
	t.Run("deletes_unreferenced_person", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		person := testutil.CreateTestPerson(t, db)

		err := service.DeletePerson(person.ID)
		testutil.AssertNoError(t, err)

		_, err = service.GetPersonByID(person.ID)
		testutil.AssertAppError(t, err, "PERSON_NOT_FOUND")
	})

	t.Run("refuses_to_delete_referenced_person", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		person := testutil.CreateTestPerson(t, db)
		testutil.CreateTestOperation(t, db, testutil.OperationParams{PersonID: person.ID})

		err := service.DeletePerson(person.ID)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")

		_, err = service.GetPersonByID(person.ID)
		testutil.AssertNoError(t, err)
	})
}

func TestPersonServiceList(t *testing.T) {
	t.Run("search_matches_name_and_tax_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		acme := &models.Person{TaxID: "20111111119", LegalName: "Acme SA"}
		other := &models.Person{TaxID: "27333333339", LegalName: "Otro SRL"}
		for _, p := range []*models.Person{acme, other} {
			if err := db.Create(p).Error; err != nil {
				t.Fatalf("failed to create person: %v", err)
			}
		}

		page, err := service.ListPersons("Acme", pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 || page.Data[0].ID != acme.ID {
			t.Fatalf("expected only Acme, got %d rows", len(page.Data))
		}

		page, err = service.ListPersons("2733", pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 || page.Data[0].ID != other.ID {
			t.Fatalf("expected the tax id match, got %d rows", len(page.Data))
		}
	})

	t.Run("orders_by_legal_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewPersonService(db)

		for _, p := range []*models.Person{
			{TaxID: "20111111119", LegalName: "Zeta SA"},
			{TaxID: "20222222229", LegalName: "Alfa SA"},
		} {
			if err := db.Create(p).Error; err != nil {
				t.Fatalf("failed to create person: %v", err)
			}
		}

		page, err := service.ListPersons("", pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 2 || page.Data[0].LegalName != "Alfa SA" {
			t.Fatalf("expected alphabetical order, got %+v", page.Data)
		}
	})
}
