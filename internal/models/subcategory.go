package models

// Subcategory is the leaf level of the taxonomy. Each subcategory belongs
// to exactly one category and is what operations reference.
type Subcategory struct {
	Base
	Name       string   `gorm:"size:255;not null" json:"name"`
	CategoryID uint     `gorm:"not null" json:"category_id"`
	Category   Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Operations []Operation `gorm:"foreignKey:SubcategoryID" json:"operations,omitempty"`
}

// TableName pins the table name for the filter compiler's subqueries.
func (Subcategory) TableName() string { return "subcategories" }

// SubcategoryResponse is the JSON shape for a subcategory with the full
// taxonomy chain resolved.
type SubcategoryResponse struct {
	ID       uint             `json:"id"`
	Name     string           `json:"name"`
	Category CategoryResponse `json:"category"`
}

// ToResponse converts a subcategory to its JSON shape. Category and concept
// must be preloaded.
func (s *Subcategory) ToResponse() SubcategoryResponse {
	return SubcategoryResponse{
		ID:       s.ID,
		Name:     s.Name,
		Category: s.Category.ToResponse(),
	}
}
