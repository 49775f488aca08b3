package handlers

import (
	"errors"

	"recipe-vault/domain"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

func defaultPagination() domain.Pagination {
	return domain.Pagination{Skip: domain.DefaultSkip, Limit: domain.DefaultLimit}
}

// validateRequest runs struct validation and reports failures as a
// *domain.ValidationError keyed by JSON or query name.
func validateRequest(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
	}
	return domain.NewValidationError(fields)
}
