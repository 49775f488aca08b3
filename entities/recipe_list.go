package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecipeList struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string    `gorm:"size:255;not null;index" json:"name"`
	Private bool      `gorm:"not null;default:false" json:"private"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Timestamp
}

func (l *RecipeList) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type RecipeListRecipe struct {
	RecipeListID uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_list_id"`
	RecipeID     uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"recipe_id"`
	AddedAt      time.Time `gorm:"autoCreateTime" json:"added_at"`
}
