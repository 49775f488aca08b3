package collection

import (
	"context"
	"errors"

	"recipe-vault/domain"
	"recipe-vault/entities"
	"recipe-vault/pkg/recipe"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type (
	CollectionService interface {
		CreateRecipeList(ctx context.Context, req domain.CreateRecipeListRequest, userID string) (domain.RecipeListPublic, error)
		GetMyRecipeLists(ctx context.Context, userID string, page domain.Pagination) (domain.RecipeListsPublic, error)
		GetRecipeList(ctx context.Context, listID string, viewerID string, page domain.Pagination) (domain.RecipeListDetail, error)
		AddRecipe(ctx context.Context, listID string, recipeID string, userID string) error
		RemoveRecipe(ctx context.Context, listID string, recipeID string, userID string) error
		DeleteRecipeList(ctx context.Context, listID string, userID string) error
	}

	collectionService struct {
		recipeListRepository RecipeListRepository
		recipeRepository     recipe.RecipeRepository
		log                  *zap.Logger
	}
)

func NewCollectionService(recipeListRepository RecipeListRepository, recipeRepository recipe.RecipeRepository, log *zap.Logger) CollectionService {
	return &collectionService{
		recipeListRepository: recipeListRepository,
		recipeRepository:     recipeRepository,
		log:                  log.Named("collection"),
	}
}

func (s *collectionService) CreateRecipeList(ctx context.Context, req domain.CreateRecipeListRequest, userID string) (domain.RecipeListPublic, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeListPublic{}, domain.ErrParseUUID
	}

	list := entities.RecipeList{
		ID:      uuid.New(),
		Name:    req.Name,
		Private: req.Private,
		UserID:  ownerID,
	}
	if err := s.recipeListRepository.CreateRecipeList(ctx, &list); err != nil {
		return domain.RecipeListPublic{}, err
	}
	return toRecipeListPublic(&list), nil
}

func (s *collectionService) GetMyRecipeLists(ctx context.Context, userID string, page domain.Pagination) (domain.RecipeListsPublic, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeListsPublic{}, domain.ErrParseUUID
	}

	lists, count, err := s.recipeListRepository.GetRecipeListsByUser(ctx, ownerID, page.Skip, page.Limit)
	if err != nil {
		return domain.RecipeListsPublic{}, err
	}

	data := make([]domain.RecipeListPublic, 0, len(lists))
	for _, list := range lists {
		data = append(data, toRecipeListPublic(list))
	}
	return domain.RecipeListsPublic{Data: data, Count: count}, nil
}

// GetRecipeList returns a list with one page of its recipes. Private lists
// of other users look absent.
func (s *collectionService) GetRecipeList(ctx context.Context, listID string, viewerID string, page domain.Pagination) (domain.RecipeListDetail, error) {
	viewer, err := uuid.Parse(viewerID)
	if err != nil {
		return domain.RecipeListDetail{}, domain.ErrParseUUID
	}

	list, err := s.getRecipeList(ctx, listID)
	if err != nil {
		return domain.RecipeListDetail{}, err
	}
	if list.Private && list.UserID != viewer {
		return domain.RecipeListDetail{}, domain.ErrRecipeListNotFound
	}

	recipes, count, err := s.recipeRepository.QueryRecipes(ctx,
		"title, version_number desc",
		page.Skip,
		page.Limit,
		recipe.InRecipeList(list.ID),
		recipe.Visible(viewer),
	)
	if err != nil {
		return domain.RecipeListDetail{}, err
	}

	return domain.RecipeListDetail{
		RecipeListPublic: toRecipeListPublic(list),
		Recipes:          recipe.ToRecipesPublic(recipes, count),
	}, nil
}

func (s *collectionService) AddRecipe(ctx context.Context, listID string, recipeID string, userID string) error {
	list, err := s.getOwnedRecipeList(ctx, listID, userID)
	if err != nil {
		return err
	}

	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return domain.ErrParseUUID
	}
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	return s.recipeListRepository.WithTransaction(ctx, func(repo RecipeListRepository) error {
		_, err := repo.GetListEntry(ctx, list.ID, recipeUUID)
		switch {
		case err == nil:
			return domain.ErrRecipeAlreadyInList
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := repo.AddListEntry(ctx, &entities.RecipeListRecipe{
			RecipeListID: list.ID,
			RecipeID:     recipeUUID,
		}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrRecipeAlreadyInList
			}
			return err
		}

		return repo.TouchRecipeList(ctx, list.ID)
	})
}

func (s *collectionService) RemoveRecipe(ctx context.Context, listID string, recipeID string, userID string) error {
	list, err := s.getOwnedRecipeList(ctx, listID, userID)
	if err != nil {
		return err
	}

	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return domain.ErrParseUUID
	}

	return s.recipeListRepository.WithTransaction(ctx, func(repo RecipeListRepository) error {
		removed, err := repo.RemoveListEntry(ctx, list.ID, recipeUUID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return domain.ErrRecipeNotInList
		}

		return repo.TouchRecipeList(ctx, list.ID)
	})
}

func (s *collectionService) DeleteRecipeList(ctx context.Context, listID string, userID string) error {
	list, err := s.getOwnedRecipeList(ctx, listID, userID)
	if err != nil {
		return err
	}

	if err := s.recipeListRepository.DeleteRecipeList(ctx, list.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeListNotFound
		}
		return err
	}

	s.log.Info("recipe list deleted", zap.Stringer("list_id", list.ID))
	return nil
}

func (s *collectionService) getRecipeList(ctx context.Context, listID string) (*entities.RecipeList, error) {
	id, err := uuid.Parse(listID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	list, err := s.recipeListRepository.GetRecipeListByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeListNotFound
		}
		return nil, err
	}
	return list, nil
}

// getOwnedRecipeList loads a list the caller may modify. A private list of
// another user is reported as missing, a public one as forbidden.
func (s *collectionService) getOwnedRecipeList(ctx context.Context, listID string, userID string) (*entities.RecipeList, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	list, err := s.getRecipeList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list.UserID != ownerID {
		if list.Private {
			return nil, domain.ErrRecipeListNotFound
		}
		return nil, domain.ErrNotRecipeListOwner
	}
	return list, nil
}

func toRecipeListPublic(list *entities.RecipeList) domain.RecipeListPublic {
	return domain.RecipeListPublic{
		ID:             list.ID,
		Name:           list.Name,
		Private:        list.Private,
		UserID:         list.UserID,
		CreatedAt:      list.CreatedAt,
		LastModifiedAt: list.UpdatedAt,
	}
}
