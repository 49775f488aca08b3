package recipe

import (
	"context"
	"errors"
	"strings"
	"time"

	"recipe-vault/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows a recipe query. Scopes compose with gorm's Scopes.
type Scope func(*gorm.DB) *gorm.DB

type (
	RecipeRepository interface {
		WithTransaction(ctx context.Context, fn func(repo RecipeRepository) error) error

		CreateRecipe(ctx context.Context, recipe *entities.Recipe) error
		GetRecipeByID(ctx context.Context, id uuid.UUID) (*entities.Recipe, error)
		GetRecipeByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Recipe, error)
		LatestVersionNumber(ctx context.Context, lineageID uuid.UUID) (int, error)
		CountLineageMembers(ctx context.Context, lineageID uuid.UUID) (int64, error)
		UpdateRecipeFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
		AdjustSaveCount(ctx context.Context, id uuid.UUID, delta int) error
		DeleteRecipe(ctx context.Context, recipe *entities.Recipe) error
		QueryRecipes(ctx context.Context, order string, skip, limit int, scopes ...Scope) ([]*entities.Recipe, int64, error)

		GetSave(ctx context.Context, userID, recipeID uuid.UUID) (*entities.UserRecipeSave, error)
		CreateSave(ctx context.Context, save *entities.UserRecipeSave) error
		DeleteSave(ctx context.Context, userID, recipeID uuid.UUID) (int64, error)
		FindSaveCountDrifts(ctx context.Context) ([]SaveCountDrift, error)
		RepairSaveCount(ctx context.Context, id uuid.UUID) (SaveCountDrift, bool, error)
	}

	// SaveCountDrift is a recipe whose cached save_count disagreed with the
	// number of save relations.
	SaveCountDrift struct {
		RecipeID uuid.UUID
		Cached   int
		Actual   int
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) WithTransaction(ctx context.Context, fn func(repo RecipeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&recipeRepository{db: tx})
	})
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uuid.UUID) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetRecipeByIDForUpdate locks the row until the surrounding transaction
// ends. Drivers without row locks ignore the clause.
func (r *recipeRepository) GetRecipeByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// LatestVersionNumber returns the highest version number in the lineage, or
// 0 when the lineage has no rows.
func (r *recipeRepository) LatestVersionNumber(ctx context.Context, lineageID uuid.UUID) (int, error) {
	var latest int
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Select("COALESCE(MAX(version_number), 0)").
		Where("lineage_id = ?", lineageID).
		Scan(&latest).Error; err != nil {
		return 0, err
	}
	return latest, nil
}

func (r *recipeRepository) CountLineageMembers(ctx context.Context, lineageID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("lineage_id = ?", lineageID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recipeRepository) UpdateRecipeFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustSaveCount adds delta to save_count in a single statement and never
// lets the counter drop below zero.
func (r *recipeRepository) AdjustSaveCount(ctx context.Context, id uuid.UUID, delta int) error {
	return r.UpdateRecipeFields(ctx, id, map[string]interface{}{
		"save_count":       gorm.Expr("CASE WHEN save_count + ? < 0 THEN 0 ELSE save_count + ? END", delta, delta),
		"last_modified_at": time.Now(),
	})
}

// DeleteRecipe removes the recipe together with its save relations and
// collection memberships, and unlinks its direct successor.
func (r *recipeRepository) DeleteRecipe(ctx context.Context, recipe *entities.Recipe) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("recipe_id = ?", recipe.ID).Delete(&entities.UserRecipeSave{}).Error; err != nil {
		return err
	}
	if err := db.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeListRecipe{}).Error; err != nil {
		return err
	}
	if err := db.Model(&entities.Recipe{}).
		Where("previous_version_id = ?", recipe.ID).
		Update("previous_version_id", nil).Error; err != nil {
		return err
	}

	result := db.Delete(&entities.Recipe{}, "id = ?", recipe.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// QueryRecipes returns one page of the recipes matching scopes, plus the
// total number of matches regardless of paging.
func (r *recipeRepository) QueryRecipes(ctx context.Context, order string, skip, limit int, scopes ...Scope) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64

	query := r.db.WithContext(ctx).Model(&entities.Recipe{})
	for _, scope := range scopes {
		query = query.Scopes(scope)
	}

	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order(order).
		Offset(skip).
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) GetSave(ctx context.Context, userID, recipeID uuid.UUID) (*entities.UserRecipeSave, error) {
	var save entities.UserRecipeSave
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&save).Error; err != nil {
		return nil, err
	}
	return &save, nil
}

func (r *recipeRepository) CreateSave(ctx context.Context, save *entities.UserRecipeSave) error {
	return r.db.WithContext(ctx).Create(save).Error
}

func (r *recipeRepository) DeleteSave(ctx context.Context, userID, recipeID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.UserRecipeSave{})
	return result.RowsAffected, result.Error
}

// FindSaveCountDrifts lists the recipes whose save_count disagrees with the
// save relation table at the time of the read. The result is only a hint:
// RepairSaveCount recounts under a row lock before writing.
func (r *recipeRepository) FindSaveCountDrifts(ctx context.Context) ([]SaveCountDrift, error) {
	var drifts []SaveCountDrift
	if err := r.db.WithContext(ctx).Raw(`
		SELECT r.id AS recipe_id, r.save_count AS cached, COUNT(s.recipe_id) AS actual
		FROM recipes r
		LEFT JOIN user_recipe_saves s ON s.recipe_id = r.id
		GROUP BY r.id, r.save_count
		HAVING r.save_count <> COUNT(s.recipe_id)`).
		Scan(&drifts).Error; err != nil {
		return nil, err
	}
	return drifts, nil
}

// RepairSaveCount locks the recipe row, recounts its save relations and
// writes the count back if it differs. Saves and unsaves update the same row,
// so they serialize behind the lock and cannot be overwritten by a stale
// count. It reports false when nothing had to change or the recipe is gone.
func (r *recipeRepository) RepairSaveCount(ctx context.Context, id uuid.UUID) (SaveCountDrift, bool, error) {
	var drift SaveCountDrift
	var repaired bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe entities.Recipe
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&recipe).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var actual int64
		if err := tx.Model(&entities.UserRecipeSave{}).
			Where("recipe_id = ?", id).
			Count(&actual).Error; err != nil {
			return err
		}
		if int64(recipe.SaveCount) == actual {
			return nil
		}

		if err := tx.Model(&entities.Recipe{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"save_count":       actual,
				"last_modified_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		drift = SaveCountDrift{RecipeID: id, Cached: recipe.SaveCount, Actual: int(actual)}
		repaired = true
		return nil
	})
	if err != nil {
		return SaveCountDrift{}, false, err
	}
	return drift, repaired, nil
}

func InLineage(rootID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("original_recipe_id = ? OR id = ?", rootID, rootID)
	}
}

func ByAuthor(authorID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ?", authorID)
	}
}

func TitleContains(query string) Scope {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern)
	}
}

func SavedBy(userID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&entities.UserRecipeSave{}).
				Select("recipe_id").
				Where("user_id = ?", userID),
		)
	}
}

// Visible hides other users' private recipes from catalogue listings.
func Visible(viewerID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("private = ? OR author_id = ?", false, viewerID)
	}
}

func InRecipeList(listID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&entities.RecipeListRecipe{}).
				Select("recipe_id").
				Where("recipe_list_id = ?", listID),
		)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
