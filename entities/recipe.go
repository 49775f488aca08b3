package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Recipe is one immutable version of a recipe. Versions of the same recipe
// share a LineageID, which is the id of the version-1 row.
type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null;index" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Private     bool      `gorm:"not null;default:false" json:"private"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`

	FormatVersion    datatypes.JSON `json:"format_version"`
	RecipeMetadata   datatypes.JSON `json:"recipe_metadata"`
	Ingredients      datatypes.JSON `json:"ingredients"`
	Instructions     datatypes.JSON `json:"instructions"`
	Nutrition        datatypes.JSON `json:"nutrition"`
	ServingInfo      datatypes.JSON `json:"serving_info"`
	Validation       datatypes.JSON `json:"validation"`
	VisualReferences datatypes.JSON `json:"visual_references"`

	SaveCount         int        `gorm:"not null;default:0" json:"save_count"`
	LineageID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_recipes_lineage_version,priority:1" json:"lineage_id"`
	VersionNumber     int        `gorm:"not null;uniqueIndex:idx_recipes_lineage_version,priority:2" json:"version_number"`
	OriginalRecipeID  *uuid.UUID `gorm:"type:uuid;index" json:"original_recipe_id"`
	PreviousVersionID *uuid.UUID `gorm:"type:uuid;index" json:"previous_version_id"`

	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastModifiedAt time.Time `gorm:"autoUpdateTime" json:"last_modified_at"`
}

// LineageRoot returns the id other versions use as original_recipe_id.
func (r *Recipe) LineageRoot() uuid.UUID {
	if r.OriginalRecipeID != nil {
		return *r.OriginalRecipeID
	}
	return r.ID
}

func (r *Recipe) IsLineageRoot() bool {
	return r.OriginalRecipeID == nil
}

// UserRecipeSave records that a user saved one specific recipe version.
type UserRecipeSave struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"recipe_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
