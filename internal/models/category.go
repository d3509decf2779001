package models

// Category is the middle level of the taxonomy. Each category belongs to
// exactly one concept.
type Category struct {
	Base
	Name      string  `gorm:"size:255;not null" json:"name"`
	ConceptID uint    `gorm:"not null" json:"concept_id"`
	Concept   Concept `gorm:"foreignKey:ConceptID" json:"concept,omitempty"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

// TableName pins the table name for the filter compiler's subqueries.
func (Category) TableName() string { return "categories" }

// CategoryResponse is the JSON shape for a category, with its concept resolved.
type CategoryResponse struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Concept ConceptResponse `json:"concept"`
}

// ToResponse converts a category to its JSON shape. The concept must be
// preloaded.
func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:      c.ID,
		Name:    c.Name,
		Concept: c.Concept.ToResponse(),
	}
}
