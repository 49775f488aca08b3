package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	MessageSuccessRegister = "user registered successfully"
	MessageSuccessLogin    = "user logged in successfully"
	MessageSuccessGetUser  = "success get user"
	MessageSuccessGetUsers = "success get users"
	MessageSuccessCreate   = "user created successfully"
	MessageSuccessUpdate   = "user updated successfully"
	MessageSuccessDelete   = "user deleted successfully"

	MessageFailedRegister = "failed to register user"
	MessageFailedLogin    = "failed to login"
	MessageFailedGetUser  = "failed to get user"
	MessageFailedGetUsers = "failed to get users"
	MessageFailedCreate   = "failed to create user"
	MessageFailedUpdate   = "failed to update user"
	MessageFailedDelete   = "failed to delete user"
	MessageFailedGetToken = "failed to get token"

	ErrUserNotFound        = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailTaken          = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameTaken       = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrUserInactive        = fmt.Errorf("%w: user is inactive", ErrForbidden)
	ErrNotSuperuser        = fmt.Errorf("%w: the user doesn't have enough privileges", ErrForbidden)
	ErrSuperuserSelfDelete = fmt.Errorf("%w: super users are not allowed to delete themselves", ErrForbidden)
	ErrUserHasRecipes      = fmt.Errorf("%w: user still authors recipes", ErrConflict)
	ErrTokenNotFound       = fmt.Errorf("%w: token not found", ErrUnauthorized)
	ErrTokenInvalid        = fmt.Errorf("%w: token invalid", ErrUnauthorized)
	ErrTokenExpired        = fmt.Errorf("%w: token expired", ErrUnauthorized)
)

type (
	RegisterRequest struct {
		Email    string `json:"email" validate:"required,email,max=255"`
		Username string `json:"username" validate:"required,max=255"`
		Password string `json:"password" validate:"required,min=8,max=40"`
	}

	// UpdateMeRequest changes the caller's own profile. Absent fields stay.
	UpdateMeRequest struct {
		Username *string `json:"username" validate:"omitnil,min=1,max=255"`
		Email    *string `json:"email" validate:"omitnil,email,max=255"`
	}

	CreateUserRequest struct {
		Email       string `json:"email" validate:"required,email,max=255"`
		Username    string `json:"username" validate:"required,max=255"`
		Password    string `json:"password" validate:"required,min=8,max=40"`
		IsActive    *bool  `json:"is_active"`
		IsSuperuser bool   `json:"is_superuser"`
	}

	UpdateUserRequest struct {
		Username    *string `json:"username" validate:"omitnil,min=1,max=255"`
		Email       *string `json:"email" validate:"omitnil,email,max=255"`
		Password    *string `json:"password" validate:"omitnil,min=8,max=40"`
		IsActive    *bool   `json:"is_active"`
		IsSuperuser *bool   `json:"is_superuser"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	UserPublic struct {
		ID          uuid.UUID `json:"id"`
		Username    string    `json:"username"`
		Email       string    `json:"email"`
		IsActive    bool      `json:"is_active"`
		IsSuperuser bool      `json:"is_superuser"`
		JoinedDate  time.Time `json:"joined_date"`
	}

	UsersPublic struct {
		Data  []UserPublic `json:"data"`
		Count int64        `json:"count"`
	}
)
