package models

// Concept is the top level of the three-level operation taxonomy.
// Concept names are unique.
type Concept struct {
	Base
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`

	Categories []Category `gorm:"foreignKey:ConceptID" json:"categories,omitempty"`
}

// TableName pins the table name for the filter compiler's subqueries.
func (Concept) TableName() string { return "concepts" }

// ConceptResponse is the JSON shape for a concept.
type ConceptResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ToResponse converts a concept to its JSON shape.
func (c *Concept) ToResponse() ConceptResponse {
	return ConceptResponse{ID: c.ID, Name: c.Name}
}
