package models

import (
	"regexp"
	"strings"

	apperrors "gestops/internal/errors"
)

// Role represents the permission level of a user.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.~]{2,}@[a-zA-Z0-9_\-.~]{2,}\.[a-zA-Z]{2,4}$`)

// User represents an application user. The password column only ever holds
// a bcrypt hash.
type User struct {
	Base
	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Email     string `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	Role      Role   `gorm:"size:20;not null" json:"role"`

	Operations []Operation `gorm:"foreignKey:UserID" json:"operations,omitempty"`
}

// TableName pins the table name for the filter compiler's subqueries.
func (User) TableName() string { return "users" }

// DisplayName returns the user's full name as shown in listings and exports.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ParseRole normalizes and validates a role value.
func ParseRole(value string) (Role, error) {
	switch r := Role(strings.ToLower(value)); r {
	case RoleUser, RoleAdmin, RoleSupervisor:
		return r, nil
	default:
		return "", apperrors.NewValidation("role", "role must be one of: user, admin, supervisor")
	}
}

// ValidateEmail checks the email format: at least 2-character local and
// domain parts and a 2-4 character TLD.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return apperrors.NewValidation("email", "invalid email format")
	}
	return nil
}

// UserResponse is the JSON shape for a user.
type UserResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// ToResponse converts a user to its JSON shape.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// UserShortResponse is the compact user shape embedded in login responses.
type UserShortResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ToShortResponse converts a user to its compact JSON shape.
func (u *User) ToShortResponse() UserShortResponse {
	return UserShortResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}
