package handlers

import (
	"encoding/json"
	"io"
	"strings"

	"recipe-vault/domain"
	"recipe-vault/internal/api/presenters"
	"recipe-vault/pkg/recipe"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	RecipeHandler interface {
		CreateRecipe(c *fiber.Ctx) error
		DeriveVersion(c *fiber.Ctx) error
		GetRecipe(c *fiber.Ctx) error
		GetRecipes(c *fiber.Ctx) error
		SearchRecipes(c *fiber.Ctx) error
		GetVersions(c *fiber.Ctx) error
		SaveRecipe(c *fiber.Ctx) error
		UnsaveRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		GetMyRecipes(c *fiber.Ctx) error
		GetMySavedRecipes(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		validator:     validator,
	}
}

// CreateRecipe accepts the recipe either as a JSON body or as a JSON
// document in the multipart field "file".
func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	body, err := recipeDocument(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	var fields domain.RecipeFields
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, fiber.ErrBadRequest)
	}

	res, err := h.recipeService.CreateRecipe(c.Context(), fields, currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedCreateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) DeriveVersion(c *fiber.Ctx) error {
	var fields domain.RecipeFields
	if err := json.Unmarshal(c.Body(), &fields); err != nil || fields == nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, fiber.ErrBadRequest)
	}

	res, err := h.recipeService.DeriveVersion(c.Context(), c.Params("id"), fields, currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedDeriveVersion, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessDeriveVersion)
}

func (h *recipeHandler) GetRecipe(c *fiber.Ctx) error {
	res, err := h.recipeService.GetRecipe(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipeDetail, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	req := domain.RecipeListRequest{Pagination: defaultPagination()}
	if err := c.QueryParser(&req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	res, err := h.recipeService.ListRecipes(c.Context(), req, currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	return presenters.ListResponse(c, res.Data, res.Count, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) SearchRecipes(c *fiber.Ctx) error {
	req := domain.RecipeSearchRequest{Pagination: defaultPagination()}
	if err := c.QueryParser(&req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	res, err := h.recipeService.SearchRecipes(c.Context(), req, currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	return presenters.ListResponse(c, res.Data, res.Count, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetVersions(c *fiber.Ctx) error {
	page, err := h.pagination(c)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetVersions, err)
	}

	res, err := h.recipeService.ListLineage(c.Context(), c.Params("id"), page)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetVersions, err)
	}

	return presenters.ListResponse(c, res.Data, res.Count, fiber.StatusOK, domain.MessageSuccessGetVersions)
}

func (h *recipeHandler) SaveRecipe(c *fiber.Ctx) error {
	res, err := h.recipeService.SaveRecipe(c.Context(), c.Params("id"), currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedSaveRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessSaveRecipe)
}

func (h *recipeHandler) UnsaveRecipe(c *fiber.Ctx) error {
	res, err := h.recipeService.UnsaveRecipe(c.Context(), c.Params("id"), currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedUnsaveRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUnsaveRecipe)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	if err := h.recipeService.DeleteRecipe(c.Context(), c.Params("id"), currentUserID(c)); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedDeleteRecipe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteRecipe)
}

func (h *recipeHandler) GetMyRecipes(c *fiber.Ctx) error {
	page, err := h.pagination(c)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	res, err := h.recipeService.ListAuthoredRecipes(c.Context(), currentUserID(c), page)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	return presenters.ListResponse(c, res.Data, res.Count, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetMySavedRecipes(c *fiber.Ctx) error {
	page, err := h.pagination(c)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	res, err := h.recipeService.ListSavedRecipes(c.Context(), currentUserID(c), page)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetRecipes, err)
	}

	return presenters.ListResponse(c, res.Data, res.Count, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) pagination(c *fiber.Ctx) (domain.Pagination, error) {
	page := defaultPagination()
	if err := c.QueryParser(&page); err != nil {
		return page, domain.NewValidationError(map[string]string{"query": err.Error()})
	}
	if err := validateRequest(h.validator, page); err != nil {
		return page, err
	}
	return page, nil
}

func recipeDocument(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
