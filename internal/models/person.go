package models

import (
	"regexp"

	apperrors "gestops/internal/errors"
)

var taxIDRegex = regexp.MustCompile(`^\d{11}$`)

// Person represents a counterparty that operations are recorded against.
type Person struct {
	Base
	TaxID     string `gorm:"size:11;uniqueIndex;not null" json:"tax_id"`
	LegalName string `gorm:"size:255;not null" json:"legal_name"`

	Operations []Operation `gorm:"foreignKey:PersonID" json:"operations,omitempty"`
}

// TableName pins the table name; the operation filter compiler references it
// in correlated subqueries.
func (Person) TableName() string { return "persons" }

// ValidateTaxID checks that the tax ID is exactly 11 digits.
func ValidateTaxID(taxID string) error {
	if !taxIDRegex.MatchString(taxID) {
		return apperrors.NewValidation("tax_id", "tax ID must be exactly 11 digits")
	}
	return nil
}

// PersonResponse is the JSON shape for a person.
type PersonResponse struct {
	ID        uint   `json:"id"`
	TaxID     string `json:"tax_id"`
	LegalName string `json:"legal_name"`
}

// ToResponse converts a person to its JSON shape.
func (p *Person) ToResponse() PersonResponse {
	return PersonResponse{ID: p.ID, TaxID: p.TaxID, LegalName: p.LegalName}
}
