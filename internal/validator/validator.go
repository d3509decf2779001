// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var taxIDRegex = regexp.MustCompile(`^\d{11}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("operation_type", validateOperationType)
		_ = v.RegisterValidation("operation_character", validateOperationCharacter)
		_ = v.RegisterValidation("operation_nature", validateOperationNature)
		_ = v.RegisterValidation("document_kind", validateDocumentKind)
		_ = v.RegisterValidation("payment_method", validatePaymentMethod)
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("tax_id", validateTaxID)
		_ = v.RegisterValidation("iso_date", validateISODate)
	}
}

func validateOperationType(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "income", "expense":
		return true
	}
	return false
}

func validateOperationCharacter(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "home", "office":
		return true
	}
	return false
}

func validateOperationNature(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "corporate", "personal":
		return true
	}
	return false
}

func validateDocumentKind(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "invoice", "receipt":
		return true
	}
	return false
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "cash", "transfer", "mixed", "other":
		return true
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "user", "admin", "supervisor":
		return true
	}
	return false
}

func validateTaxID(fl validator.FieldLevel) bool {
	return taxIDRegex.MatchString(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}
