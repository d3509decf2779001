package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gestops/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with the given role, a hashed password, and
// a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email, role)
}

// CreateTestUserWithEmail creates a user with the given email and role. The
// password is always "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", nextID()),
		Email:     email,
		Password:  string(hash),
		Role:      role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPerson creates a counterparty with a unique tax id.
func CreateTestPerson(t *testing.T, db *gorm.DB) *models.Person {
	t.Helper()

	n := nextID()
	person := &models.Person{
		TaxID:     fmt.Sprintf("%011d", 20000000000+n),
		LegalName: fmt.Sprintf("Person %d", n),
	}
	if err := db.Create(person).Error; err != nil {
		t.Fatalf("failed to create test person: %v", err)
	}
	return person
}

// CreateTestTaxonomy creates a concept, a category under it, and a
// subcategory under that, returning the subcategory with the chain loaded.
func CreateTestTaxonomy(t *testing.T, db *gorm.DB) *models.Subcategory {
	t.Helper()

	n := nextID()
	concept := &models.Concept{Name: fmt.Sprintf("Concept %d", n)}
	if err := db.Create(concept).Error; err != nil {
		t.Fatalf("failed to create test concept: %v", err)
	}

	category := &models.Category{Name: fmt.Sprintf("Category %d", n), ConceptID: concept.ID}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	subcategory := &models.Subcategory{Name: fmt.Sprintf("Subcategory %d", n), CategoryID: category.ID}
	if err := db.Create(subcategory).Error; err != nil {
		t.Fatalf("failed to create test subcategory: %v", err)
	}

	var loaded models.Subcategory
	if err := db.Preload("Category.Concept").First(&loaded, subcategory.ID).Error; err != nil {
		t.Fatalf("failed to reload test subcategory: %v", err)
	}
	return &loaded
}

// OperationParams overrides fixture defaults for CreateTestOperation.
type OperationParams struct {
	Date          time.Time
	Type          models.OperationType
	Character     models.OperationCharacter
	Nature        models.OperationNature
	DocumentKind  models.DocumentKind
	DocumentCode  string
	Observations  string
	PaymentMethod models.PaymentMethod
	Amount        decimal.Decimal
	PersonID      uint
	SubcategoryID uint
	UserID        uint
}

// CreateTestOperation creates an operation, filling in any zero-valued
// params with sensible fixtures. The amount is signed through SetAmount so
// the stored sign always matches the type.
func CreateTestOperation(t *testing.T, db *gorm.DB, params OperationParams) *models.Operation {
	t.Helper()

	if params.Date.IsZero() {
		params.Date = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	}
	if params.Type == "" {
		params.Type = models.OperationIncome
	}
	if params.Character == "" {
		params.Character = models.CharacterOffice
	}
	if params.Nature == "" {
		params.Nature = models.NatureCorporate
	}
	if params.DocumentKind == "" {
		params.DocumentKind = models.DocumentInvoice
	}
	if params.DocumentCode == "" {
		params.DocumentCode = "00001-00000001"
	}
	if params.PaymentMethod == "" {
		params.PaymentMethod = models.PaymentCash
	}
	if params.Amount.IsZero() {
		params.Amount = decimal.NewFromInt(100)
	}
	if params.PersonID == 0 {
		params.PersonID = CreateTestPerson(t, db).ID
	}
	if params.SubcategoryID == 0 {
		params.SubcategoryID = CreateTestTaxonomy(t, db).ID
	}
	if params.UserID == 0 {
		params.UserID = CreateTestUser(t, db, models.RoleAdmin).ID
	}

	operation := &models.Operation{
		Date:          params.Date,
		Type:          params.Type,
		Character:     params.Character,
		Nature:        params.Nature,
		PersonID:      params.PersonID,
		DocumentKind:  params.DocumentKind,
		DocumentCode:  params.DocumentCode,
		Observations:  params.Observations,
		PaymentMethod: params.PaymentMethod,
		SubcategoryID: params.SubcategoryID,
		UserID:        params.UserID,
	}
	operation.SetAmount(params.Amount)

	if err := db.Create(operation).Error; err != nil {
		t.Fatalf("failed to create test operation: %v", err)
	}
	return operation
}
