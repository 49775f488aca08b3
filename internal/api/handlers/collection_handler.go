package handlers

import (
	"recipe-vault/domain"
	"recipe-vault/internal/api/presenters"
	"recipe-vault/pkg/collection"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	CollectionHandler interface {
		CreateRecipeList(c *fiber.Ctx) error
		GetMyRecipeLists(c *fiber.Ctx) error
		GetRecipeList(c *fiber.Ctx) error
		AddRecipe(c *fiber.Ctx) error
		RemoveRecipe(c *fiber.Ctx) error
		DeleteRecipeList(c *fiber.Ctx) error
	}

	collectionHandler struct {
		collectionService collection.CollectionService
		validator         *validator.Validate
	}
)

func NewCollectionHandler(collectionService collection.CollectionService, validator *validator.Validate) CollectionHandler {
	return &collectionHandler{
		collectionService: collectionService,
		validator:         validator,
	}
}

func (h *collectionHandler) CreateRecipeList(c *fiber.Ctx) error {
	req := new(domain.CreateRecipeListRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedCreateList, err)
	}

	res, err := h.collectionService.CreateRecipeList(c.Context(), *req, currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedCreateList, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateList)
}

func (h *collectionHandler) GetMyRecipeLists(c *fiber.Ctx) error {
	page, err := h.pagination(c)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetLists, err)
	}

	res, err := h.collectionService.GetMyRecipeLists(c.Context(), currentUserID(c), page)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetLists, err)
	}

	return presenters.ListResponse(c, res.Data, res.Count, fiber.StatusOK, domain.MessageSuccessGetLists)
}

func (h *collectionHandler) GetRecipeList(c *fiber.Ctx) error {
	page, err := h.pagination(c)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetList, err)
	}

	res, err := h.collectionService.GetRecipeList(c.Context(), c.Params("id"), currentUserID(c), page)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetList, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetList)
}

func (h *collectionHandler) AddRecipe(c *fiber.Ctx) error {
	if err := h.collectionService.AddRecipe(c.Context(), c.Params("id"), c.Params("recipe_id"), currentUserID(c)); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedAddListRecipe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusCreated, domain.MessageSuccessAddListRecipe)
}

func (h *collectionHandler) RemoveRecipe(c *fiber.Ctx) error {
	if err := h.collectionService.RemoveRecipe(c.Context(), c.Params("id"), c.Params("recipe_id"), currentUserID(c)); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedRemoveListRecipe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRemoveListRecipe)
}

func (h *collectionHandler) DeleteRecipeList(c *fiber.Ctx) error {
	if err := h.collectionService.DeleteRecipeList(c.Context(), c.Params("id"), currentUserID(c)); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedDeleteList, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteList)
}

func (h *collectionHandler) pagination(c *fiber.Ctx) (domain.Pagination, error) {
	page := defaultPagination()
	if err := c.QueryParser(&page); err != nil {
		return page, domain.NewValidationError(map[string]string{"query": err.Error()})
	}
	return page, validateRequest(h.validator, page)
}
