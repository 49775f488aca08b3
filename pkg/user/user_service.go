package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-vault/domain"
	"recipe-vault/entities"
	"recipe-vault/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserPublic, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		GetUser(ctx context.Context, userID string) (domain.UserPublic, error)
		UpdateMe(ctx context.Context, userID string, req domain.UpdateMeRequest) (domain.UserPublic, error)
		DeleteMe(ctx context.Context, userID string) error
		EnsureSuperusers(ctx context.Context, emails []string, password string) error

		// Superuser operations. callerID is checked on every call.
		GetUserByID(ctx context.Context, callerID string, userID string) (domain.UserPublic, error)
		ListUsers(ctx context.Context, callerID string, page domain.Pagination) (domain.UsersPublic, error)
		CreateUser(ctx context.Context, callerID string, req domain.CreateUserRequest) (domain.UserPublic, error)
		UpdateUser(ctx context.Context, callerID string, userID string, req domain.UpdateUserRequest) (domain.UserPublic, error)
		DeleteUser(ctx context.Context, callerID string, userID string) error
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		log            *zap.Logger
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, log *zap.Logger) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		log:            log.Named("user"),
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserPublic, error) {
	user, err := s.createUser(ctx, domain.CreateUserRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return domain.UserPublic{}, err
	}

	s.log.Info("user registered", zap.Stringer("user_id", user.ID))
	return toUserPublic(user), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.LoginResponse{}, domain.ErrUserInactive
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (domain.UserPublic, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return domain.UserPublic{}, err
	}
	return toUserPublic(user), nil
}

func (s *userService) UpdateMe(ctx context.Context, userID string, req domain.UpdateMeRequest) (domain.UserPublic, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return domain.UserPublic{}, err
	}

	if err := s.applyIdentity(ctx, user, req.Username, req.Email); err != nil {
		return domain.UserPublic{}, err
	}
	if err := s.saveUser(ctx, user); err != nil {
		return domain.UserPublic{}, err
	}
	return toUserPublic(user), nil
}

func (s *userService) DeleteMe(ctx context.Context, userID string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsSuperuser {
		return domain.ErrSuperuserSelfDelete
	}
	return s.deleteUser(ctx, user.ID)
}

// EnsureSuperusers creates a superuser for every email that has no account
// yet. Existing accounts are left as they are.
func (s *userService) EnsureSuperusers(ctx context.Context, emails []string, password string) error {
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" {
			continue
		}

		exists, err := s.userRepository.CheckUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		user, err := s.createUser(ctx, domain.CreateUserRequest{
			Email:       email,
			Username:    email,
			Password:    password,
			IsSuperuser: true,
		})
		if err != nil {
			return fmt.Errorf("create superuser %s: %w", email, err)
		}
		s.log.Info("superuser created", zap.Stringer("user_id", user.ID))
	}
	return nil
}

// GetUserByID lets users read themselves and superusers read anyone.
func (s *userService) GetUserByID(ctx context.Context, callerID string, userID string) (domain.UserPublic, error) {
	target, err := uuid.Parse(userID)
	if err != nil {
		return domain.UserPublic{}, domain.ErrParseUUID
	}
	if callerID != target.String() {
		if _, err := s.requireSuperuser(ctx, callerID); err != nil {
			return domain.UserPublic{}, err
		}
	}
	return s.GetUser(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, callerID string, page domain.Pagination) (domain.UsersPublic, error) {
	if _, err := s.requireSuperuser(ctx, callerID); err != nil {
		return domain.UsersPublic{}, err
	}

	users, count, err := s.userRepository.GetUsers(ctx, page.Skip, page.Limit)
	if err != nil {
		return domain.UsersPublic{}, err
	}

	data := make([]domain.UserPublic, 0, len(users))
	for _, user := range users {
		data = append(data, toUserPublic(user))
	}
	return domain.UsersPublic{Data: data, Count: count}, nil
}

func (s *userService) CreateUser(ctx context.Context, callerID string, req domain.CreateUserRequest) (domain.UserPublic, error) {
	if _, err := s.requireSuperuser(ctx, callerID); err != nil {
		return domain.UserPublic{}, err
	}

	user, err := s.createUser(ctx, req)
	if err != nil {
		return domain.UserPublic{}, err
	}
	s.log.Info("user created", zap.Stringer("user_id", user.ID), zap.String("created_by", callerID))
	return toUserPublic(user), nil
}

func (s *userService) UpdateUser(ctx context.Context, callerID string, userID string, req domain.UpdateUserRequest) (domain.UserPublic, error) {
	if _, err := s.requireSuperuser(ctx, callerID); err != nil {
		return domain.UserPublic{}, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return domain.UserPublic{}, err
	}

	if err := s.applyIdentity(ctx, user, req.Username, req.Email); err != nil {
		return domain.UserPublic{}, err
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.UserPublic{}, err
		}
		user.PasswordHash = string(hash)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}

	if err := s.saveUser(ctx, user); err != nil {
		return domain.UserPublic{}, err
	}
	return toUserPublic(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, callerID string, userID string) error {
	caller, err := s.requireSuperuser(ctx, callerID)
	if err != nil {
		return err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.ID == caller.ID {
		return domain.ErrSuperuserSelfDelete
	}
	return s.deleteUser(ctx, user.ID)
}

func (s *userService) loadUser(ctx context.Context, userID string) (*entities.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) requireSuperuser(ctx context.Context, callerID string) (*entities.User, error) {
	caller, err := s.loadUser(ctx, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotSuperuser
		}
		return nil, err
	}
	if !caller.IsSuperuser || !caller.IsActive {
		return nil, domain.ErrNotSuperuser
	}
	return caller, nil
}

func (s *userService) createUser(ctx context.Context, req domain.CreateUserRequest) (*entities.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	taken, err := s.userRepository.CheckUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	taken, err = s.userRepository.CheckUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user := entities.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     active,
		IsSuperuser:  req.IsSuperuser,
	}
	if err := s.userRepository.RegisterUser(ctx, &user); err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// applyIdentity sets a new username or email on user, refusing values that
// belong to another account.
func (s *userService) applyIdentity(ctx context.Context, user *entities.User, username, email *string) error {
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		existing, err := s.userRepository.GetUserByEmail(ctx, normalized)
		switch {
		case err == nil && existing.ID != user.ID:
			return domain.ErrEmailTaken
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		user.Email = normalized
	}

	if username != nil {
		existing, err := s.userRepository.GetUserByUsername(ctx, *username)
		switch {
		case err == nil && existing.ID != user.ID:
			return domain.ErrUsernameTaken
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		user.Username = *username
	}
	return nil
}

func (s *userService) saveUser(ctx context.Context, user *entities.User) error {
	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

// deleteUser refuses to remove an author: their recipes anchor lineages that
// other users keep deriving from.
func (s *userService) deleteUser(ctx context.Context, id uuid.UUID) error {
	authored, err := s.userRepository.CountAuthoredRecipes(ctx, id)
	if err != nil {
		return err
	}
	if authored > 0 {
		return domain.ErrUserHasRecipes
	}

	if err := s.userRepository.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	s.log.Info("user deleted", zap.Stringer("user_id", id))
	return nil
}

func toUserPublic(user *entities.User) domain.UserPublic {
	return domain.UserPublic{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		JoinedDate:  user.CreatedAt,
	}
}
