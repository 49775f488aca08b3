package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessDeriveVersion   = "recipe version created successfully"
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessGetVersions     = "success get recipe versions"
	MessageSuccessSaveRecipe      = "recipe saved successfully"
	MessageSuccessUnsaveRecipe    = "recipe unsaved successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessUploadImage     = "recipe image uploaded successfully"

	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedDeriveVersion   = "failed to create recipe version"
	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedGetVersions     = "failed to get recipe versions"
	MessageFailedSaveRecipe      = "failed to save recipe"
	MessageFailedUnsaveRecipe    = "failed to unsave recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedUploadImage     = "failed to upload recipe image"

	ErrRecipeNotFound      = fmt.Errorf("%w: recipe not found", ErrNotFound)
	ErrSavedRecipeNotFound = fmt.Errorf("%w: saved recipe not found", ErrNotFound)
	ErrRecipeAlreadySaved  = fmt.Errorf("%w: recipe already saved", ErrConflict)
	ErrVersionConflict     = fmt.Errorf("%w: a newer version of this recipe already exists", ErrConflict)
	ErrRecipeHasVersions   = fmt.Errorf("%w: recipe is the root of other versions", ErrConflict)
	ErrNotRecipeAuthor     = fmt.Errorf("%w: cannot modify another user's recipe", ErrForbidden)
	ErrInvalidImage        = fmt.Errorf("%w: invalid recipe image", ErrValidation)
)

const (
	RecipeSortDate      = "date"
	RecipeSortSaveCount = "save_count"

	IngredientTypeRawMaterial = "raw_material"
	IngredientTypeSubRecipe   = "sub_recipe"
)

// RecipeFields is a sparse set of recipe fields keyed by JSON name. Only keys
// present in the map are applied.
type RecipeFields map[string]json.RawMessage

type (
	RecipeListRequest struct {
		Pagination
		Sort string `json:"sort" query:"sort" validate:"omitempty,oneof=date save_count"`
	}

	RecipeSearchRequest struct {
		Pagination
		Query string `json:"query" query:"query" validate:"required,max=255"`
	}

	RecipePublic struct {
		ID                uuid.UUID       `json:"id"`
		Title             string          `json:"title"`
		Description       string          `json:"description"`
		Private           bool            `json:"private"`
		AuthorID          uuid.UUID       `json:"author_id"`
		FormatVersion     json.RawMessage `json:"format_version"`
		RecipeMetadata    json.RawMessage `json:"recipe_metadata"`
		Ingredients       json.RawMessage `json:"ingredients"`
		Instructions      json.RawMessage `json:"instructions"`
		Nutrition         json.RawMessage `json:"nutrition"`
		ServingInfo       json.RawMessage `json:"serving_info"`
		Validation        json.RawMessage `json:"validation"`
		VisualReferences  json.RawMessage `json:"visual_references"`
		SaveCount         int             `json:"save_count"`
		VersionNumber     int             `json:"version_number"`
		OriginalRecipeID  *uuid.UUID      `json:"original_recipe_id"`
		PreviousVersionID *uuid.UUID      `json:"previous_version_id"`
		CreatedAt         time.Time       `json:"created_at"`
		LastModifiedAt    time.Time       `json:"last_modified_at"`
	}

	RecipesPublic struct {
		Data  []RecipePublic `json:"data"`
		Count int64          `json:"count"`
	}

	RecipeImage struct {
		URN         string `json:"urn"`
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
		Size        int    `json:"size"`
	}
)

// Structured recipe payload blocks. They are validated on the way in and
// stored verbatim.
type (
	TimedQuantity struct {
		Value  float64 `json:"value" validate:"gte=0"`
		UnitID string  `json:"unit_id" validate:"required,unit_id"`
	}

	ComponentReference struct {
		InternalID string        `json:"internal_id" validate:"required,component_id"`
		Quantity   TimedQuantity `json:"quantity"`
	}

	FormatVersion struct {
		Major             int     `json:"major" validate:"gte=1"`
		Minor             int     `json:"minor" validate:"gte=0"`
		CompatibilityHash *string `json:"compatibility_hash" validate:"omitempty,compatibility_hash"`
	}

	RestingTime struct {
		Value               float64 `json:"value"`
		UnitID              string  `json:"unit_id" validate:"required,unit_id"`
		RestingDefinitionID string  `json:"resting_definition_id" validate:"required,resting_id"`
	}

	// Metadata accepts extra keys; only the known ones are checked.
	Metadata struct {
		RecipeCode   string        `json:"recipe_code" validate:"required,recipe_code"`
		BaseIdeaFrom *string       `json:"base_idea_from"`
		RestingTimes []RestingTime `json:"resting_times" validate:"dive"`
	}

	Ingredient struct {
		Type         string        `json:"type" validate:"required,oneof=raw_material sub_recipe"`
		IngredientID string        `json:"ingredient_id,omitempty"`
		InternalID   string        `json:"internal_id" validate:"required,component_id"`
		Quantity     TimedQuantity `json:"quantity"`
	}

	Step struct {
		StepID         string               `json:"step_id" validate:"required,step_id"`
		Components     []ComponentReference `json:"components" validate:"dive"`
		CCPCheckpoints []string             `json:"ccp_checkpoints" validate:"dive,ccp_id"`
	}

	Instructions struct {
		Steps []Step `json:"steps" validate:"required,dive"`
	}

	NutritionValue struct {
		NutritionID string   `json:"nutrition_id" validate:"required,nutrition_id"`
		PerServing  *float64 `json:"per_serving"`
		Per100g     *float64 `json:"per_100g"`
		Per100ml    *float64 `json:"per_100ml"`
		UnitID      string   `json:"unit_id" validate:"required,unit_id"`
	}

	Nutrition struct {
		Values    []NutritionValue `json:"values" validate:"required,dive"`
		BaseUnits []string         `json:"base_units" validate:"dive,oneof=per_serving per_100g per_100ml"`
	}

	Container struct {
		ID string `json:"id" validate:"required,container_id"`
	}

	ServingInfo struct {
		Count     int        `json:"count" validate:"gte=1"`
		Container *Container `json:"container"`
	}

	DigitalSignature struct {
		Algorithm string  `json:"algorithm" validate:"required,oneof=ED25519 ECDSA RSA"`
		PublicKey *string `json:"public_key"`
		Signature string  `json:"signature" validate:"required"`
	}

	Validation struct {
		DigitalSignature DigitalSignature `json:"digital_signature"`
	}

	Image struct {
		URN     string  `json:"urn" validate:"required,image_urn"`
		License *string `json:"license"`
	}

	VisualReferences struct {
		System string  `json:"system" validate:"required,image_system"`
		Images []Image `json:"images" validate:"dive"`
	}
)
