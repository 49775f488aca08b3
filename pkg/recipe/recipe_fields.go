package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"recipe-vault/domain"
	"recipe-vault/entities"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

type (
	applyFunc func(r *entities.Recipe, key string, raw json.RawMessage, v *validator.Validate) map[string]string

	// recipeField describes one writable recipe field. clear is nil for
	// fields that may not be null.
	recipeField struct {
		apply    applyFunc
		clear    func(r *entities.Recipe)
		required bool
	}
)

var recipeFields = map[string]recipeField{
	"title": {
		apply:    applyTitle,
		required: true,
	},
	"description": {
		apply: applyDescription,
		clear: func(r *entities.Recipe) { r.Description = "" },
	},
	"private": {
		apply: applyPrivate,
	},
	"format_version": {
		apply:    structBlock[domain.FormatVersion](func(r *entities.Recipe) *datatypes.JSON { return &r.FormatVersion }, true),
		required: true,
	},
	"recipe_metadata": {
		apply:    structBlock[domain.Metadata](func(r *entities.Recipe) *datatypes.JSON { return &r.RecipeMetadata }, false),
		required: true,
	},
	"ingredients": {
		apply:    applyIngredients,
		required: true,
	},
	"instructions": {
		apply:    structBlock[domain.Instructions](func(r *entities.Recipe) *datatypes.JSON { return &r.Instructions }, true),
		required: true,
	},
	"nutrition": {
		apply:    structBlock[domain.Nutrition](func(r *entities.Recipe) *datatypes.JSON { return &r.Nutrition }, true),
		required: true,
	},
	"serving_info": {
		apply:    structBlock[domain.ServingInfo](func(r *entities.Recipe) *datatypes.JSON { return &r.ServingInfo }, true),
		required: true,
	},
	"validation": {
		apply: structBlock[domain.Validation](func(r *entities.Recipe) *datatypes.JSON { return &r.Validation }, true),
		clear: func(r *entities.Recipe) { r.Validation = nil },
	},
	"visual_references": {
		apply: structBlock[domain.VisualReferences](func(r *entities.Recipe) *datatypes.JSON { return &r.VisualReferences }, true),
		clear: func(r *entities.Recipe) { r.VisualReferences = nil },
	},
}

// applyRecipeFields overlays the present keys of fields onto recipe. Every
// problem is collected into a single *domain.ValidationError; on failure the
// recipe may be partially modified and must be discarded.
func applyRecipeFields(recipe *entities.Recipe, fields domain.RecipeFields, v *validator.Validate) error {
	problems := make(map[string]string)

	for _, key := range sortedKeys(fields) {
		raw := fields[key]
		field, ok := recipeFields[key]
		if !ok {
			problems[key] = "unknown or read-only field"
			continue
		}

		if isNull(raw) {
			if field.clear == nil {
				problems[key] = "must not be null"
				continue
			}
			field.clear(recipe)
			continue
		}

		for k, msg := range field.apply(recipe, key, raw, v) {
			problems[k] = msg
		}
	}

	if len(problems) > 0 {
		return domain.NewValidationError(problems)
	}
	return nil
}

// missingRequiredFields reports the fields a new lineage root must carry.
func missingRequiredFields(fields domain.RecipeFields) error {
	problems := make(map[string]string)
	for key, field := range recipeFields {
		if !field.required {
			continue
		}
		if _, ok := fields[key]; !ok {
			problems[key] = "is required"
		}
	}
	if len(problems) > 0 {
		return domain.NewValidationError(problems)
	}
	return nil
}

func applyTitle(r *entities.Recipe, key string, raw json.RawMessage, v *validator.Validate) map[string]string {
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		return map[string]string{key: "must be a string"}
	}
	title = strings.TrimSpace(title)
	if err := v.Var(title, "required,max=255"); err != nil {
		return fieldErrors(err, key)
	}
	r.Title = title
	return nil
}

func applyDescription(r *entities.Recipe, key string, raw json.RawMessage, _ *validator.Validate) map[string]string {
	var description string
	if err := json.Unmarshal(raw, &description); err != nil {
		return map[string]string{key: "must be a string"}
	}
	r.Description = description
	return nil
}

func applyPrivate(r *entities.Recipe, key string, raw json.RawMessage, _ *validator.Validate) map[string]string {
	var private bool
	if err := json.Unmarshal(raw, &private); err != nil {
		return map[string]string{key: "must be a boolean"}
	}
	r.Private = private
	return nil
}

func applyIngredients(r *entities.Recipe, key string, raw json.RawMessage, v *validator.Validate) map[string]string {
	var ingredients []domain.Ingredient
	if err := decodeStrict(raw, &ingredients); err != nil {
		return map[string]string{key: "must be a list of ingredient objects"}
	}
	if len(ingredients) == 0 {
		return map[string]string{key: "must contain at least one ingredient"}
	}

	problems := make(map[string]string)
	for i := range ingredients {
		if err := v.Struct(&ingredients[i]); err != nil {
			for k, msg := range fieldErrors(err, fmt.Sprintf("%s[%d]", key, i)) {
				problems[k] = msg
			}
		}
	}
	if len(problems) > 0 {
		return problems
	}

	r.Ingredients = compactJSON(raw)
	return nil
}

// structBlock decodes a JSON object into T, validates it and stores the
// original bytes in the column. Non-strict blocks accept unknown keys.
func structBlock[T any](column func(r *entities.Recipe) *datatypes.JSON, strict bool) applyFunc {
	return func(r *entities.Recipe, key string, raw json.RawMessage, v *validator.Validate) map[string]string {
		var block T
		var err error
		if strict {
			err = decodeStrict(raw, &block)
		} else {
			err = json.Unmarshal(raw, &block)
		}
		if err != nil {
			return map[string]string{key: "must be a valid " + key + " object"}
		}

		if err := v.Struct(&block); err != nil {
			return fieldErrors(err, key)
		}

		*column(r) = compactJSON(raw)
		return nil
	}
}

// fieldErrors converts validator errors into JSON-path keyed messages
// rooted at prefix, e.g. "ingredients[2].quantity.unit_id".
func fieldErrors(err error, prefix string) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{prefix: err.Error()}
	}

	problems := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := prefix
		// Namespace starts with the struct type name; drop it.
		if _, path, ok := strings.Cut(fe.Namespace(), "."); ok && path != "" {
			key = prefix + "." + path
		}
		problems[key] = describeFieldError(fe)
	}
	return problems
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "nutrition_amount":
		return "at least one of per_serving, per_100g or per_100ml is required"
	default:
		return "does not match the " + fe.Tag() + " format"
	}
}

func decodeStrict(raw json.RawMessage, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func compactJSON(raw json.RawMessage) datatypes.JSON {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return datatypes.JSON(append([]byte(nil), raw...))
	}
	return datatypes.JSON(buf.Bytes())
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func sortedKeys(fields domain.RecipeFields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
