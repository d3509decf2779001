package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "gestops/internal/errors"
)

// OperationType drives the sign of the stored amount.
type OperationType string

const (
	OperationIncome  OperationType = "income"
	OperationExpense OperationType = "expense"
)

// OperationCharacter distinguishes home and office operations.
type OperationCharacter string

const (
	CharacterHome   OperationCharacter = "home"
	CharacterOffice OperationCharacter = "office"
)

// OperationNature distinguishes corporate and personal operations.
type OperationNature string

const (
	NatureCorporate OperationNature = "corporate"
	NaturePersonal  OperationNature = "personal"
)

// DocumentKind determines the format the document code must follow.
type DocumentKind string

const (
	DocumentInvoice DocumentKind = "invoice"
	DocumentReceipt DocumentKind = "receipt"
)

// PaymentMethod enumerates the accepted payment methods.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentMixed    PaymentMethod = "mixed"
	PaymentOther    PaymentMethod = "other"
)

// DateLayout is the wire format for operation dates.
const DateLayout = "2006-01-02"

var (
	invoiceCodeRegex = regexp.MustCompile(`^\d{5}-\d{8}$`)
	receiptCodeRegex = regexp.MustCompile(`^\d+$`)
)

// ParseOperationType normalizes and validates an operation type.
func ParseOperationType(value string) (OperationType, error) {
	switch t := OperationType(strings.ToLower(value)); t {
	case OperationIncome, OperationExpense:
		return t, nil
	default:
		return "", apperrors.NewValidation("type", "type must be one of: income, expense")
	}
}

// ParseOperationCharacter normalizes and validates an operation character.
func ParseOperationCharacter(value string) (OperationCharacter, error) {
	switch c := OperationCharacter(strings.ToLower(value)); c {
	case CharacterHome, CharacterOffice:
		return c, nil
	default:
		return "", apperrors.NewValidation("character", "character must be one of: home, office")
	}
}

// ParseOperationNature normalizes and validates an operation nature.
func ParseOperationNature(value string) (OperationNature, error) {
	switch n := OperationNature(strings.ToLower(value)); n {
	case NatureCorporate, NaturePersonal:
		return n, nil
	default:
		return "", apperrors.NewValidation("nature", "nature must be one of: corporate, personal")
	}
}

// ParseDocumentKind normalizes and validates a document kind.
func ParseDocumentKind(value string) (DocumentKind, error) {
	switch k := DocumentKind(strings.ToLower(value)); k {
	case DocumentInvoice, DocumentReceipt:
		return k, nil
	default:
		return "", apperrors.NewValidation("document_kind", "document kind must be one of: invoice, receipt")
	}
}

// ParsePaymentMethod normalizes and validates a payment method.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(value)); m {
	case PaymentCash, PaymentTransfer, PaymentMixed, PaymentOther:
		return m, nil
	default:
		return "", apperrors.NewValidation("payment_method", "payment method must be one of: cash, transfer, mixed, other")
	}
}

// ParseOperationDate parses an ISO YYYY-MM-DD date at UTC midnight.
func ParseOperationDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.NewValidation("date", "date must be in YYYY-MM-DD format")
	}
	return t, nil
}

// ValidateDocumentCode checks a document code against the format required
// by the given document kind. Invoice codes are 5 digits, a dash, and
// 8 digits; receipt codes are purely numeric. Empty codes always fail.
func ValidateDocumentCode(kind DocumentKind, code string) error {
	if code == "" {
		return apperrors.NewValidation("document_code", "document code cannot be empty")
	}
	switch kind {
	case DocumentInvoice:
		if !invoiceCodeRegex.MatchString(code) {
			return apperrors.NewValidation("document_code", "invoice code must match the format 12345-12345678")
		}
	case DocumentReceipt:
		if !receiptCodeRegex.MatchString(code) {
			return apperrors.NewValidation("document_code", "receipt code must be numeric")
		}
	}
	return nil
}

// AttachmentSlot names one of the four file slots on an operation.
type AttachmentSlot string

const (
	SlotVoucher AttachmentSlot = "voucher"
	SlotFile1   AttachmentSlot = "file1"
	SlotFile2   AttachmentSlot = "file2"
	SlotFile3   AttachmentSlot = "file3"
)

// ParseAttachmentSlot validates an attachment slot name.
func ParseAttachmentSlot(value string) (AttachmentSlot, error) {
	switch s := AttachmentSlot(strings.ToLower(value)); s {
	case SlotVoucher, SlotFile1, SlotFile2, SlotFile3:
		return s, nil
	default:
		return "", apperrors.ErrInvalidSlot
	}
}

// Operation is one income or expense financial record.
type Operation struct {
	Base
	Date      time.Time          `gorm:"not null" json:"date"`
	Type      OperationType      `gorm:"size:10;not null" json:"type"`
	Character OperationCharacter `gorm:"size:10;not null" json:"character"`
	Nature    OperationNature    `gorm:"size:10;not null" json:"nature"`

	PersonID uint   `gorm:"not null" json:"person_id"`
	Person   Person `gorm:"foreignKey:PersonID" json:"person,omitempty"`

	DocumentKind  DocumentKind  `gorm:"size:10;not null" json:"document_kind"`
	DocumentCode  string        `gorm:"size:20;not null" json:"document_code"`
	Observations  string        `gorm:"size:255" json:"observations"`
	PaymentMethod PaymentMethod `gorm:"size:20;not null" json:"payment_method"`

	// Amount is stored signed: positive for income, negative for expense.
	// Always assign through SetAmount or ChangeType so the sign invariant
	// holds.
	Amount decimal.Decimal `gorm:"type:decimal(30,5);not null" json:"amount"`

	SubcategoryID uint        `gorm:"not null" json:"subcategory_id"`
	Subcategory   Subcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`

	// UserID references the creator of the operation.
	UserID uint `gorm:"not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Voucher            *string `gorm:"size:255" json:"voucher"`
	VoucherContentType *string `gorm:"size:100" json:"-"`
	File1              *string `gorm:"size:255" json:"file1"`
	File1ContentType   *string `gorm:"size:100" json:"-"`
	File2              *string `gorm:"size:255" json:"file2"`
	File2ContentType   *string `gorm:"size:100" json:"-"`
	File3              *string `gorm:"size:255" json:"file3"`
	File3ContentType   *string `gorm:"size:100" json:"-"`

	ModifiedByOther bool `gorm:"not null;default:false" json:"modified_by_other"`
}

// TableName pins the table name for the filter compiler's subqueries.
func (Operation) TableName() string { return "operations" }

// SetAmount stores the magnitude of value signed according to the current
// operation type: positive for income, negative for expense.
func (o *Operation) SetAmount(value decimal.Decimal) {
	abs := value.Abs()
	if o.Type == OperationExpense {
		o.Amount = abs.Neg()
	} else {
		o.Amount = abs
	}
}

// ChangeType updates the operation type and re-signs the stored amount
// without changing its magnitude.
func (o *Operation) ChangeType(newType OperationType) {
	if newType == o.Type {
		return
	}
	o.Type = newType
	o.SetAmount(o.Amount)
}

// Attachment returns the stored filename and content type for a slot.
func (o *Operation) Attachment(slot AttachmentSlot) (filename, contentType string) {
	switch slot {
	case SlotVoucher:
		return deref(o.Voucher), deref(o.VoucherContentType)
	case SlotFile1:
		return deref(o.File1), deref(o.File1ContentType)
	case SlotFile2:
		return deref(o.File2), deref(o.File2ContentType)
	case SlotFile3:
		return deref(o.File3), deref(o.File3ContentType)
	}
	return "", ""
}

// SetAttachment stores a filename and content type in a slot.
func (o *Operation) SetAttachment(slot AttachmentSlot, filename, contentType string) {
	switch slot {
	case SlotVoucher:
		o.Voucher, o.VoucherContentType = &filename, &contentType
	case SlotFile1:
		o.File1, o.File1ContentType = &filename, &contentType
	case SlotFile2:
		o.File2, o.File2ContentType = &filename, &contentType
	case SlotFile3:
		o.File3, o.File3ContentType = &filename, &contentType
	}
}

// ClearAttachment empties a slot.
func (o *Operation) ClearAttachment(slot AttachmentSlot) {
	switch slot {
	case SlotVoucher:
		o.Voucher, o.VoucherContentType = nil, nil
	case SlotFile1:
		o.File1, o.File1ContentType = nil, nil
	case SlotFile2:
		o.File2, o.File2ContentType = nil, nil
	case SlotFile3:
		o.File3, o.File3ContentType = nil, nil
	}
}

// AttachmentFilenames returns every stored filename, for cascading file
// removal when the operation is deleted.
func (o *Operation) AttachmentFilenames() []string {
	var names []string
	for _, f := range []*string{o.Voucher, o.File1, o.File2, o.File3} {
		if f != nil && *f != "" {
			names = append(names, *f)
		}
	}
	return names
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OperationResponse is the JSON shape for an operation. Person, subcategory
// chain, and creator must be preloaded.
type OperationResponse struct {
	ID              uint                `json:"id"`
	Date            string              `json:"date"`
	Type            OperationType       `json:"type"`
	Character       OperationCharacter  `json:"character"`
	Nature          OperationNature     `json:"nature"`
	Person          PersonResponse      `json:"person"`
	Voucher         *string             `json:"voucher"`
	DocumentKind    DocumentKind        `json:"document_kind"`
	DocumentCode    string              `json:"document_code"`
	Observations    string              `json:"observations"`
	PaymentMethod   PaymentMethod       `json:"payment_method"`
	Amount          float64             `json:"amount"`
	Subcategory     SubcategoryResponse `json:"subcategory"`
	User            string              `json:"user"`
	File1           *string             `json:"file1"`
	File2           *string             `json:"file2"`
	File3           *string             `json:"file3"`
	ModifiedByOther bool                `json:"modified_by_other"`
}

// ToResponse converts an operation to its JSON shape.
func (o *Operation) ToResponse() OperationResponse {
	amount, _ := o.Amount.Float64()
	return OperationResponse{
		ID:              o.ID,
		Date:            o.Date.Format(DateLayout),
		Type:            o.Type,
		Character:       o.Character,
		Nature:          o.Nature,
		Person:          o.Person.ToResponse(),
		Voucher:         o.Voucher,
		DocumentKind:    o.DocumentKind,
		DocumentCode:    o.DocumentCode,
		Observations:    o.Observations,
		PaymentMethod:   o.PaymentMethod,
		Amount:          amount,
		Subcategory:     o.Subcategory.ToResponse(),
		User:            o.User.DisplayName(),
		File1:           o.File1,
		File2:           o.File2,
		File3:           o.File3,
		ModifiedByOther: o.ModifiedByOther,
	}
}

// ExportHeaders is the header row for the tabular export, aligned with
// ExportRow.
var ExportHeaders = []string{
	"ID", "Date", "Type", "Character", "Nature", "Tax ID", "Legal name",
	"Document kind", "Document code", "Observations", "Payment method",
	"Amount", "Concept", "Category", "Subcategory", "User",
	"Modified by another",
}

// ExportRow flattens the operation into one tabular row with the taxonomy
// chain resolved. Person, subcategory chain, and creator must be preloaded.
func (o *Operation) ExportRow() []interface{} {
	amount, _ := o.Amount.Float64()
	modified := "No"
	if o.ModifiedByOther {
		modified = "Yes"
	}
	return []interface{}{
		o.ID,
		o.Date.Format(DateLayout),
		string(o.Type),
		string(o.Character),
		string(o.Nature),
		o.Person.TaxID,
		o.Person.LegalName,
		string(o.DocumentKind),
		o.DocumentCode,
		o.Observations,
		string(o.PaymentMethod),
		amount,
		o.Subcategory.Category.Concept.Name,
		o.Subcategory.Category.Name,
		o.Subcategory.Name,
		o.User.DisplayName(),
		modified,
	}
}
