package services

import (
	"io"
	"net/url"

	"github.com/shopspring/decimal"

	"gestops/internal/models"
	"gestops/internal/pagination"
)

// Actor is the authenticated identity performing a mutation, as supplied
// by the auth middleware.
type Actor struct {
	ID   uint
	Role models.Role
}

// OperationCreate holds the fields for creating an operation. Enum fields
// arrive as raw strings and are normalized by the service.
type OperationCreate struct {
	Date          string
	Type          string
	Character     string
	Nature        string
	PersonID      uint
	DocumentKind  string
	DocumentCode  string
	Observations  string
	PaymentMethod string
	Amount        decimal.Decimal
	SubcategoryID uint
}

// OperationUpdate holds the allow-listed mutable fields of an operation.
// Nil pointers leave the field untouched. Internal-only fields (creator,
// modified-by-other flag, attachment slots) are deliberately absent.
type OperationUpdate struct {
	Date          *string          `json:"date"`
	Type          *string          `json:"type"`
	Character     *string          `json:"character"`
	Nature        *string          `json:"nature"`
	PersonID      *uint            `json:"person_id"`
	DocumentKind  *string          `json:"document_kind"`
	DocumentCode  *string          `json:"document_code"`
	Observations  *string          `json:"observations"`
	PaymentMethod *string          `json:"payment_method"`
	Amount        *decimal.Decimal `json:"amount"`
	SubcategoryID *uint            `json:"subcategory_id"`
}

// BulkOperationUpdate addresses one operation inside a bulk mutation.
type BulkOperationUpdate struct {
	ID uint `json:"id" binding:"required"`
	OperationUpdate
}

// BulkUpdatedOperation reports one successfully updated operation.
type BulkUpdatedOperation struct {
	ID            uint     `json:"id"`
	UpdatedFields []string `json:"updated_fields"`
}

// BulkUpdateResult reports the per-id outcome of a bulk mutation.
// Not-found and no-permission ids are skipped, everything else commits in
// one transaction.
type BulkUpdateResult struct {
	Updated      []BulkUpdatedOperation `json:"updated"`
	NotFound     []uint                 `json:"not_found,omitempty"`
	NoPermission []uint                 `json:"no_permission,omitempty"`
}

// OperationTotals aggregates a filtered operation set.
type OperationTotals struct {
	IncomeTotal  float64 `json:"income_total"`
	ExpenseTotal float64 `json:"expense_total"`
	Net          float64 `json:"net"`
	Count        int64   `json:"count"`
}

// OperationServicer defines the contract for the operation core: filtered
// listing, authorized mutation, attachments, and totals.
type OperationServicer interface {
	CreateOperation(creatorID uint, in OperationCreate) (*models.Operation, error)
	GetOperationByID(operationID uint) (*models.Operation, error)
	ListOperations(params url.Values, page pagination.PageRequest) (*pagination.PageResponse[models.OperationResponse], error)
	UpdateOperation(actor Actor, operationID uint, upd OperationUpdate) (*models.Operation, []string, error)
	BulkUpdateOperations(actor Actor, updates []BulkOperationUpdate) (*BulkUpdateResult, error)
	DeleteOperation(actor Actor, operationID uint) error
	GetTotals(params url.Values) (*OperationTotals, error)

	AttachmentPath(operationID uint, slot models.AttachmentSlot) (string, error)
	ReplaceAttachment(actor Actor, operationID uint, slot models.AttachmentSlot, src io.Reader, originalName, contentType string, size int64) (*models.Operation, error)
	DeleteAttachment(actor Actor, operationID uint, slot models.AttachmentSlot) error
}

// ExportServicer renders a filtered operation set as an Excel workbook.
type ExportServicer interface {
	ExportOperations(params url.Values) ([]byte, error)
}

// PersonServicer defines the contract for counterparty management.
type PersonServicer interface {
	CreatePerson(taxID, legalName string) (*models.Person, error)
	GetPersonByID(personID uint) (*models.Person, error)
	ListPersons(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Person], error)
	UpdatePerson(personID uint, taxID, legalName *string) (*models.Person, error)
	DeletePerson(personID uint) error
}

// ConceptServicer defines the contract for the top taxonomy level.
type ConceptServicer interface {
	CreateConcept(name string) (*models.Concept, error)
	GetConceptByID(conceptID uint) (*models.Concept, error)
	ListConcepts(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Concept], error)
	UpdateConcept(conceptID uint, name string) (*models.Concept, error)
	DeleteConcept(conceptID uint) error
}

// CategoryServicer defines the contract for the middle taxonomy level.
type CategoryServicer interface {
	CreateCategory(name string, conceptID uint) (*models.Category, error)
	GetCategoryByID(categoryID uint) (*models.Category, error)
	ListCategories(search string, conceptID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	UpdateCategory(categoryID uint, name *string, conceptID *uint) (*models.Category, error)
	DeleteCategory(categoryID uint) error
}

// SubcategoryServicer defines the contract for the leaf taxonomy level.
type SubcategoryServicer interface {
	CreateSubcategory(name string, categoryID uint) (*models.Subcategory, error)
	GetSubcategoryByID(subcategoryID uint) (*models.Subcategory, error)
	ListSubcategories(search string, categoryID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.Subcategory], error)
	UpdateSubcategory(subcategoryID uint, name *string, categoryID *uint) (*models.Subcategory, error)
	DeleteSubcategory(subcategoryID uint) error
}

// UserServicer defines the contract for user management and credentials.
type UserServicer interface {
	CreateUser(firstName, lastName, email, role string) (*models.User, error)
	GetUserByID(userID uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	UpdateUser(userID uint, firstName, lastName, email, role *string) (*models.User, error)
	DeleteUser(userID uint) error
	AttemptLogin(email, password string) (*models.User, error)
	UpdatePassword(userID uint, currentPassword, newPassword string) error
	RequestPasswordReset(email string) error
	ResetPassword(userID uint, passwordStamp, newPassword string) error
}

// Mailer is the outbound mail boundary. Implementations must not block the
// caller on transient mail failures beyond returning an error.
type Mailer interface {
	SendWelcome(to, name, initialPassword string) error
	SendPasswordReset(to, name, resetToken string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
