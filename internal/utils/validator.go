package utils

import (
	"reflect"
	"regexp"
	"strings"

	"recipe-vault/domain"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var patternTags = map[string]*regexp.Regexp{
	"unit_id":            regexp.MustCompile(`^B[0-9A-F]{3}$`),
	"component_id":       regexp.MustCompile(`^C[0-9A-F]{3}$`),
	"compatibility_hash": regexp.MustCompile(`^[A-F0-9]{4}-[A-F0-9]{4}$`),
	"resting_id":         regexp.MustCompile(`^R[0-9A-F]{3}$`),
	"recipe_code":        regexp.MustCompile(`^[1-9A-F]{7}-[1-9A-F]{5}$`),
	"ingredient_code":    regexp.MustCompile(`^[A-F0-9]{7}$`),
	"step_id":            regexp.MustCompile(`^S[0-9A-F]{3}$`),
	"ccp_id":             regexp.MustCompile(`^M[0-9A-F]{3}$`),
	"nutrition_id":       regexp.MustCompile(`^H[0-9A-F]{3}$`),
	"container_id":       regexp.MustCompile(`^P[0-9A-F]{3}$`),
	"image_urn":          regexp.MustCompile(`^urn:recipeimg:sha3-[a-f0-9]{64}$`),
	"image_system":       regexp.MustCompile(`^urn:recipeimg:v[1-9]$`),
}

func InitValidator() {
	Validate = NewValidator()
}

// NewValidator returns a validator that knows the recipe code formats and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, pattern := range patternTags {
		pattern := pattern
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return pattern.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}

	v.RegisterStructValidation(validateIngredient, domain.Ingredient{})
	v.RegisterStructValidation(validateNutritionValue, domain.NutritionValue{})
	return v
}

func validateIngredient(sl validator.StructLevel) {
	ingredient := sl.Current().Interface().(domain.Ingredient)
	if ingredient.Type != domain.IngredientTypeRawMaterial {
		return
	}
	if !patternTags["ingredient_code"].MatchString(ingredient.IngredientID) {
		sl.ReportError(ingredient.IngredientID, "ingredient_id", "IngredientID", "ingredient_code", "")
	}
}

func validateNutritionValue(sl validator.StructLevel) {
	value := sl.Current().Interface().(domain.NutritionValue)
	if value.PerServing == nil && value.Per100g == nil && value.Per100ml == nil {
		sl.ReportError(value.PerServing, "per_serving", "PerServing", "nutrition_amount", "")
	}
}
