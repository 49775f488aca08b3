package collection

import (
	"context"
	"time"

	"recipe-vault/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeListRepository interface {
		WithTransaction(ctx context.Context, fn func(repo RecipeListRepository) error) error

		CreateRecipeList(ctx context.Context, list *entities.RecipeList) error
		GetRecipeListByID(ctx context.Context, id uuid.UUID) (*entities.RecipeList, error)
		GetRecipeListsByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*entities.RecipeList, int64, error)
		DeleteRecipeList(ctx context.Context, id uuid.UUID) error
		GetListEntry(ctx context.Context, listID, recipeID uuid.UUID) (*entities.RecipeListRecipe, error)
		AddListEntry(ctx context.Context, entry *entities.RecipeListRecipe) error
		RemoveListEntry(ctx context.Context, listID, recipeID uuid.UUID) (int64, error)
		TouchRecipeList(ctx context.Context, id uuid.UUID) error
	}

	recipeListRepository struct {
		db *gorm.DB
	}
)

func NewRecipeListRepository(db *gorm.DB) RecipeListRepository {
	return &recipeListRepository{db: db}
}

func (r *recipeListRepository) WithTransaction(ctx context.Context, fn func(repo RecipeListRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&recipeListRepository{db: tx})
	})
}

func (r *recipeListRepository) CreateRecipeList(ctx context.Context, list *entities.RecipeList) error {
	return r.db.WithContext(ctx).Create(list).Error
}

func (r *recipeListRepository) GetRecipeListByID(ctx context.Context, id uuid.UUID) (*entities.RecipeList, error) {
	var list entities.RecipeList
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *recipeListRepository) GetRecipeListsByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*entities.RecipeList, int64, error) {
	var lists []*entities.RecipeList
	var count int64

	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeList{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name, id").
		Offset(skip).
		Limit(limit).
		Find(&lists).Error; err != nil {
		return nil, 0, err
	}

	return lists, count, nil
}

// DeleteRecipeList removes the list and its entries. The recipes stay.
func (r *recipeListRepository) DeleteRecipeList(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_list_id = ?", id).Delete(&entities.RecipeListRecipe{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.RecipeList{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *recipeListRepository) GetListEntry(ctx context.Context, listID, recipeID uuid.UUID) (*entities.RecipeListRecipe, error) {
	var entry entities.RecipeListRecipe
	if err := r.db.WithContext(ctx).
		Where("recipe_list_id = ? AND recipe_id = ?", listID, recipeID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *recipeListRepository) AddListEntry(ctx context.Context, entry *entities.RecipeListRecipe) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *recipeListRepository) RemoveListEntry(ctx context.Context, listID, recipeID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("recipe_list_id = ? AND recipe_id = ?", listID, recipeID).
		Delete(&entities.RecipeListRecipe{})
	return result.RowsAffected, result.Error
}

func (r *recipeListRepository) TouchRecipeList(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.RecipeList{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}
