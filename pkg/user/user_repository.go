package user

import (
	"context"
	"time"

	"recipe-vault/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	UserRepository interface {
		RegisterUser(ctx context.Context, user *entities.User) error
		GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
		CheckUserByEmail(ctx context.Context, email string) (bool, error)
		CheckUserByUsername(ctx context.Context, username string) (bool, error)
		GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
		GetUsers(ctx context.Context, skip, limit int) ([]*entities.User, int64, error)
		UpdateUser(ctx context.Context, user *entities.User) error
		CountAuthoredRecipes(ctx context.Context, id uuid.UUID) (int64, error)
		DeleteUser(ctx context.Context, id uuid.UUID) error
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) RegisterUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CheckUserByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) CheckUserByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUsers(ctx context.Context, skip, limit int) ([]*entities.User, int64, error) {
	var users []*entities.User
	var count int64

	if err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Order("created_at").
		Offset(skip).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, count, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).
		Model(user).
		Select("username", "email", "password_hash", "is_active", "is_superuser", "updated_at").
		Updates(user).Error
}

func (r *userRepository) CountAuthoredRecipes(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Recipe{}).Where("author_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteUser removes the user with their recipe lists and saves. The save
// counters of the recipes they had saved go down by one.
func (r *userRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		saved := tx.Model(&entities.UserRecipeSave{}).Select("recipe_id").Where("user_id = ?", id)
		if err := tx.Model(&entities.Recipe{}).
			Where("id IN (?)", saved).
			Updates(map[string]interface{}{
				"save_count":       gorm.Expr("CASE WHEN save_count > 0 THEN save_count - 1 ELSE 0 END"),
				"last_modified_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entities.UserRecipeSave{}).Error; err != nil {
			return err
		}

		lists := tx.Model(&entities.RecipeList{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("recipe_list_id IN (?)", lists).Delete(&entities.RecipeListRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entities.RecipeList{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entities.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
