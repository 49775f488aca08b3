package recipe

import (
	"time"

	"recipe-vault/entities"

	"github.com/google/uuid"
)

// nextVersion copies base into a new, unsaved version authored by editorID.
// The lineage pointers are derived from base and never taken from input.
func nextVersion(base *entities.Recipe, editorID uuid.UUID) *entities.Recipe {
	next := *base

	baseID := base.ID
	rootID := base.LineageRoot()

	next.ID = uuid.New()
	next.LineageID = rootID
	next.VersionNumber = base.VersionNumber + 1
	next.PreviousVersionID = &baseID
	next.OriginalRecipeID = &rootID
	next.AuthorID = editorID
	next.SaveCount = 0
	next.CreatedAt = time.Time{}
	next.LastModifiedAt = time.Time{}

	return &next
}

// newLineageRoot returns an empty version-1 recipe owned by authorID.
func newLineageRoot(authorID uuid.UUID) *entities.Recipe {
	id := uuid.New()
	return &entities.Recipe{
		ID:            id,
		LineageID:     id,
		VersionNumber: 1,
		AuthorID:      authorID,
	}
}
