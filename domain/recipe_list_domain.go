package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	MessageSuccessCreateList       = "recipe list created successfully"
	MessageSuccessGetLists         = "success get recipe lists"
	MessageSuccessGetList          = "success get recipe list"
	MessageSuccessDeleteList       = "recipe list deleted successfully"
	MessageSuccessAddListRecipe    = "recipe added to list successfully"
	MessageSuccessRemoveListRecipe = "recipe removed from list successfully"

	MessageFailedCreateList       = "failed to create recipe list"
	MessageFailedGetLists         = "failed to get recipe lists"
	MessageFailedGetList          = "failed to get recipe list"
	MessageFailedDeleteList       = "failed to delete recipe list"
	MessageFailedAddListRecipe    = "failed to add recipe to list"
	MessageFailedRemoveListRecipe = "failed to remove recipe from list"

	ErrRecipeListNotFound  = fmt.Errorf("%w: recipe list not found", ErrNotFound)
	ErrRecipeNotInList     = fmt.Errorf("%w: recipe is not in this list", ErrNotFound)
	ErrRecipeAlreadyInList = fmt.Errorf("%w: recipe already in list", ErrConflict)
	ErrNotRecipeListOwner  = fmt.Errorf("%w: cannot modify another user's recipe list", ErrForbidden)
)

type (
	CreateRecipeListRequest struct {
		Name    string `json:"name" validate:"required,max=255"`
		Private bool   `json:"private"`
	}

	RecipeListPublic struct {
		ID             uuid.UUID `json:"id"`
		Name           string    `json:"name"`
		Private        bool      `json:"private"`
		UserID         uuid.UUID `json:"user_id"`
		CreatedAt      time.Time `json:"created_at"`
		LastModifiedAt time.Time `json:"last_modified_at"`
	}

	RecipeListsPublic struct {
		Data  []RecipeListPublic `json:"data"`
		Count int64              `json:"count"`
	}

	RecipeListDetail struct {
		RecipeListPublic
		Recipes RecipesPublic `json:"recipes"`
	}
)
