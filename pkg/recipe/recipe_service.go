package recipe

import (
	"context"
	"encoding/json"
	"errors"

	"recipe-vault/domain"
	"recipe-vault/entities"
	"recipe-vault/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, fields domain.RecipeFields, userID string) (domain.RecipePublic, error)
		DeriveVersion(ctx context.Context, baseID string, fields domain.RecipeFields, userID string) (domain.RecipePublic, error)
		GetRecipe(ctx context.Context, recipeID string) (domain.RecipePublic, error)
		ListLineage(ctx context.Context, recipeID string, page domain.Pagination) (domain.RecipesPublic, error)
		ListRecipes(ctx context.Context, req domain.RecipeListRequest, viewerID string) (domain.RecipesPublic, error)
		SearchRecipes(ctx context.Context, req domain.RecipeSearchRequest, viewerID string) (domain.RecipesPublic, error)
		ListAuthoredRecipes(ctx context.Context, userID string, page domain.Pagination) (domain.RecipesPublic, error)
		ListSavedRecipes(ctx context.Context, userID string, page domain.Pagination) (domain.RecipesPublic, error)
		SaveRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipePublic, error)
		UnsaveRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipePublic, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		ReconcileSaveCounts(ctx context.Context) (int, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		validate         *validator.Validate
		log              *zap.Logger
	}
)

func NewRecipeService(recipeRepository RecipeRepository, validate *validator.Validate, log *zap.Logger) RecipeService {
	return &recipeService{
		recipeRepository: recipeRepository,
		validate:         validate,
		log:              log.Named("recipe"),
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, fields domain.RecipeFields, userID string) (domain.RecipePublic, error) {
	authorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipePublic{}, domain.ErrParseUUID
	}

	if err := missingRequiredFields(fields); err != nil {
		return domain.RecipePublic{}, err
	}

	recipe := newLineageRoot(authorID)
	if err := applyRecipeFields(recipe, fields, s.validate); err != nil {
		return domain.RecipePublic{}, err
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe); err != nil {
		return domain.RecipePublic{}, err
	}

	metrics.RecipesCreated.Inc()
	s.log.Info("recipe created", zap.Stringer("recipe_id", recipe.ID), zap.Stringer("author_id", authorID))
	return toRecipePublic(recipe), nil
}

// DeriveVersion creates the next version of the recipe baseID with fields
// overlaid. Only the newest version of a lineage can be derived from. The
// base row is locked for the duration of the transaction and the
// (lineage, version) unique index rejects a concurrent derivation.
func (s *recipeService) DeriveVersion(ctx context.Context, baseID string, fields domain.RecipeFields, userID string) (domain.RecipePublic, error) {
	baseUUID, err := uuid.Parse(baseID)
	if err != nil {
		return domain.RecipePublic{}, domain.ErrParseUUID
	}
	editorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipePublic{}, domain.ErrParseUUID
	}

	var created *entities.Recipe
	err = s.recipeRepository.WithTransaction(ctx, func(repo RecipeRepository) error {
		base, err := repo.GetRecipeByIDForUpdate(ctx, baseUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRecipeNotFound
			}
			return err
		}

		latest, err := repo.LatestVersionNumber(ctx, base.LineageID)
		if err != nil {
			return err
		}
		if base.VersionNumber != latest {
			return domain.ErrVersionConflict
		}

		next := nextVersion(base, editorID)
		if err := applyRecipeFields(next, fields, s.validate); err != nil {
			return err
		}

		if err := repo.CreateRecipe(ctx, next); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrVersionConflict
			}
			return err
		}

		created = next
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			metrics.RecipeVersionsDerived.WithLabelValues("conflict").Inc()
			s.log.Warn("version derivation lost the race", zap.String("base_id", baseID))
		}
		return domain.RecipePublic{}, err
	}

	metrics.RecipeVersionsDerived.WithLabelValues("created").Inc()
	s.log.Info("recipe version derived",
		zap.Stringer("recipe_id", created.ID),
		zap.String("base_id", baseID),
		zap.Int("version_number", created.VersionNumber),
	)
	return toRecipePublic(created), nil
}

func (s *recipeService) GetRecipe(ctx context.Context, recipeID string) (domain.RecipePublic, error) {
	recipe, err := s.getRecipe(ctx, s.recipeRepository, recipeID)
	if err != nil {
		return domain.RecipePublic{}, err
	}
	return toRecipePublic(recipe), nil
}

// ListLineage lists every version in the lineage of recipeID, newest first.
func (s *recipeService) ListLineage(ctx context.Context, recipeID string, page domain.Pagination) (domain.RecipesPublic, error) {
	member, err := s.getRecipe(ctx, s.recipeRepository, recipeID)
	if err != nil {
		return domain.RecipesPublic{}, err
	}

	recipes, count, err := s.recipeRepository.QueryRecipes(ctx,
		"version_number desc",
		page.Skip,
		page.Limit,
		InLineage(member.LineageRoot()),
	)
	if err != nil {
		return domain.RecipesPublic{}, err
	}
	return ToRecipesPublic(recipes, count), nil
}

func (s *recipeService) ListRecipes(ctx context.Context, req domain.RecipeListRequest, viewerID string) (domain.RecipesPublic, error) {
	viewer, err := uuid.Parse(viewerID)
	if err != nil {
		return domain.RecipesPublic{}, domain.ErrParseUUID
	}

	order := "created_at desc, id"
	if req.Sort == domain.RecipeSortSaveCount {
		order = "save_count desc, created_at desc, id"
	}

	recipes, count, err := s.recipeRepository.QueryRecipes(ctx, order, req.Skip, req.Limit, Visible(viewer))
	if err != nil {
		return domain.RecipesPublic{}, err
	}
	return ToRecipesPublic(recipes, count), nil
}

func (s *recipeService) SearchRecipes(ctx context.Context, req domain.RecipeSearchRequest, viewerID string) (domain.RecipesPublic, error) {
	viewer, err := uuid.Parse(viewerID)
	if err != nil {
		return domain.RecipesPublic{}, domain.ErrParseUUID
	}

	recipes, count, err := s.recipeRepository.QueryRecipes(ctx,
		"title, version_number desc",
		req.Skip,
		req.Limit,
		Visible(viewer),
		TitleContains(req.Query),
	)
	if err != nil {
		return domain.RecipesPublic{}, err
	}
	return ToRecipesPublic(recipes, count), nil
}

func (s *recipeService) ListAuthoredRecipes(ctx context.Context, userID string, page domain.Pagination) (domain.RecipesPublic, error) {
	authorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipesPublic{}, domain.ErrParseUUID
	}

	recipes, count, err := s.recipeRepository.QueryRecipes(ctx, "created_at desc, id", page.Skip, page.Limit, ByAuthor(authorID))
	if err != nil {
		return domain.RecipesPublic{}, err
	}
	return ToRecipesPublic(recipes, count), nil
}

func (s *recipeService) ListSavedRecipes(ctx context.Context, userID string, page domain.Pagination) (domain.RecipesPublic, error) {
	saverID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipesPublic{}, domain.ErrParseUUID
	}

	recipes, count, err := s.recipeRepository.QueryRecipes(ctx, "created_at desc, id", page.Skip, page.Limit, SavedBy(saverID))
	if err != nil {
		return domain.RecipesPublic{}, err
	}
	return ToRecipesPublic(recipes, count), nil
}

// SaveRecipe records that userID saved recipeID and bumps its save_count.
// Saving twice is a conflict.
func (s *recipeService) SaveRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipePublic, error) {
	saverID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipePublic{}, domain.ErrParseUUID
	}

	var saved *entities.Recipe
	err = s.recipeRepository.WithTransaction(ctx, func(repo RecipeRepository) error {
		recipe, err := s.getRecipe(ctx, repo, recipeID)
		if err != nil {
			return err
		}

		_, err = repo.GetSave(ctx, saverID, recipe.ID)
		switch {
		case err == nil:
			return domain.ErrRecipeAlreadySaved
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := repo.CreateSave(ctx, &entities.UserRecipeSave{UserID: saverID, RecipeID: recipe.ID}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrRecipeAlreadySaved
			}
			return err
		}

		if err := repo.AdjustSaveCount(ctx, recipe.ID, 1); err != nil {
			return err
		}

		saved, err = repo.GetRecipeByID(ctx, recipe.ID)
		return err
	})
	if err != nil {
		return domain.RecipePublic{}, err
	}

	metrics.RecipeSaves.WithLabelValues("save").Inc()
	return toRecipePublic(saved), nil
}

// UnsaveRecipe removes the save relation and decrements save_count, which
// never drops below zero.
func (s *recipeService) UnsaveRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipePublic, error) {
	saverID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipePublic{}, domain.ErrParseUUID
	}

	var unsaved *entities.Recipe
	err = s.recipeRepository.WithTransaction(ctx, func(repo RecipeRepository) error {
		recipe, err := s.getRecipe(ctx, repo, recipeID)
		if err != nil {
			return err
		}

		deleted, err := repo.DeleteSave(ctx, saverID, recipe.ID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return domain.ErrSavedRecipeNotFound
		}

		if err := repo.AdjustSaveCount(ctx, recipe.ID, -1); err != nil {
			return err
		}

		unsaved, err = repo.GetRecipeByID(ctx, recipe.ID)
		return err
	})
	if err != nil {
		return domain.RecipePublic{}, err
	}

	metrics.RecipeSaves.WithLabelValues("unsave").Inc()
	return toRecipePublic(unsaved), nil
}

// DeleteRecipe removes a recipe owned by userID. A lineage root can only go
// once every later version is gone. Deleting any other version drops its
// saves and list entries and clears the previous_version_id of its direct
// successor; original_recipe_id of the remaining versions is untouched.
func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	callerID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	return s.recipeRepository.WithTransaction(ctx, func(repo RecipeRepository) error {
		recipe, err := s.getRecipe(ctx, repo, recipeID)
		if err != nil {
			return err
		}

		if recipe.AuthorID != callerID {
			return domain.ErrNotRecipeAuthor
		}

		if recipe.IsLineageRoot() {
			members, err := repo.CountLineageMembers(ctx, recipe.LineageID)
			if err != nil {
				return err
			}
			if members > 1 {
				return domain.ErrRecipeHasVersions
			}
		}

		if err := repo.DeleteRecipe(ctx, recipe); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRecipeNotFound
			}
			return err
		}

		s.log.Info("recipe deleted", zap.Stringer("recipe_id", recipe.ID), zap.Stringer("author_id", callerID))
		return nil
	})
}

// ReconcileSaveCounts repairs save_count drift and returns the number of
// recipes it changed.
func (s *recipeService) ReconcileSaveCounts(ctx context.Context) (int, error) {
	candidates, err := s.recipeRepository.FindSaveCountDrifts(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, candidate := range candidates {
		drift, changed, err := s.recipeRepository.RepairSaveCount(ctx, candidate.RecipeID)
		if err != nil {
			metrics.SaveCountDriftRepaired.Add(float64(repaired))
			return repaired, err
		}
		if !changed {
			continue
		}

		s.log.Warn("save_count drift repaired",
			zap.Stringer("recipe_id", drift.RecipeID),
			zap.Int("cached", drift.Cached),
			zap.Int("actual", drift.Actual),
		)
		repaired++
	}
	metrics.SaveCountDriftRepaired.Add(float64(repaired))
	return repaired, nil
}

func (s *recipeService) getRecipe(ctx context.Context, repo RecipeRepository, recipeID string) (*entities.Recipe, error) {
	id, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	recipe, err := repo.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func toRecipePublic(recipe *entities.Recipe) domain.RecipePublic {
	return domain.RecipePublic{
		ID:                recipe.ID,
		Title:             recipe.Title,
		Description:       recipe.Description,
		Private:           recipe.Private,
		AuthorID:          recipe.AuthorID,
		FormatVersion:     rawOrNull(recipe.FormatVersion),
		RecipeMetadata:    rawOrNull(recipe.RecipeMetadata),
		Ingredients:       rawOrNull(recipe.Ingredients),
		Instructions:      rawOrNull(recipe.Instructions),
		Nutrition:         rawOrNull(recipe.Nutrition),
		ServingInfo:       rawOrNull(recipe.ServingInfo),
		Validation:        rawOrNull(recipe.Validation),
		VisualReferences:  rawOrNull(recipe.VisualReferences),
		SaveCount:         recipe.SaveCount,
		VersionNumber:     recipe.VersionNumber,
		OriginalRecipeID:  recipe.OriginalRecipeID,
		PreviousVersionID: recipe.PreviousVersionID,
		CreatedAt:         recipe.CreatedAt,
		LastModifiedAt:    recipe.LastModifiedAt,
	}
}

// ToRecipesPublic converts one page of recipes.
func ToRecipesPublic(recipes []*entities.Recipe, count int64) domain.RecipesPublic {
	data := make([]domain.RecipePublic, 0, len(recipes))
	for _, recipe := range recipes {
		data = append(data, toRecipePublic(recipe))
	}
	return domain.RecipesPublic{Data: data, Count: count}
}

func rawOrNull(data []byte) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(data)
}
