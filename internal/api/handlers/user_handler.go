package handlers

import (
	"recipe-vault/domain"
	"recipe-vault/internal/api/presenters"
	"recipe-vault/pkg/user"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	UserHandler interface {
		Register(c *fiber.Ctx) error
		Login(c *fiber.Ctx) error
		Me(c *fiber.Ctx) error
		UpdateMe(c *fiber.Ctx) error
		DeleteMe(c *fiber.Ctx) error
		GetUser(c *fiber.Ctx) error
		GetUsers(c *fiber.Ctx) error
		CreateUser(c *fiber.Ctx) error
		UpdateUser(c *fiber.Ctx) error
		DeleteUser(c *fiber.Ctx) error
	}

	userHandler struct {
		userService user.UserService
		validator   *validator.Validate
	}
)

func NewUserHandler(userService user.UserService, validator *validator.Validate) UserHandler {
	return &userHandler{
		userService: userService,
		validator:   validator,
	}
}

func (h *userHandler) Register(c *fiber.Ctx) error {
	req := new(domain.RegisterRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedRegister, err)
	}

	res, err := h.userService.Register(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedRegister, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessRegister)
}

func (h *userHandler) Login(c *fiber.Ctx) error {
	req := new(domain.LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedLogin, err)
	}

	res, err := h.userService.Login(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedLogin, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessLogin)
}

func (h *userHandler) Me(c *fiber.Ctx) error {
	res, err := h.userService.GetUser(c.Context(), currentUserID(c))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetUser, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUser)
}

func (h *userHandler) UpdateMe(c *fiber.Ctx) error {
	req := new(domain.UpdateMeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedUpdate, err)
	}

	res, err := h.userService.UpdateMe(c.Context(), currentUserID(c), *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedUpdate, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdate)
}

func (h *userHandler) DeleteMe(c *fiber.Ctx) error {
	if err := h.userService.DeleteMe(c.Context(), currentUserID(c)); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedDelete, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDelete)
}

func (h *userHandler) GetUser(c *fiber.Ctx) error {
	res, err := h.userService.GetUserByID(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetUser, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUser)
}

func (h *userHandler) GetUsers(c *fiber.Ctx) error {
	page, err := h.pagination(c)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetUsers, err)
	}

	res, err := h.userService.ListUsers(c.Context(), currentUserID(c), page)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedGetUsers, err)
	}

	return presenters.ListResponse(c, res.Data, res.Count, fiber.StatusOK, domain.MessageSuccessGetUsers)
}

func (h *userHandler) CreateUser(c *fiber.Ctx) error {
	req := new(domain.CreateUserRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedCreate, err)
	}

	res, err := h.userService.CreateUser(c.Context(), currentUserID(c), *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedCreate, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreate)
}

func (h *userHandler) UpdateUser(c *fiber.Ctx) error {
	req := new(domain.UpdateUserRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := validateRequest(h.validator, req); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedUpdate, err)
	}

	res, err := h.userService.UpdateUser(c.Context(), currentUserID(c), c.Params("id"), *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedUpdate, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdate)
}

func (h *userHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userService.DeleteUser(c.Context(), currentUserID(c), c.Params("id")); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedDelete, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDelete)
}

func (h *userHandler) pagination(c *fiber.Ctx) (domain.Pagination, error) {
	page := defaultPagination()
	if err := c.QueryParser(&page); err != nil {
		return page, domain.NewValidationError(map[string]string{"query": err.Error()})
	}
	if err := validateRequest(h.validator, page); err != nil {
		return page, err
	}
	return page, nil
}
