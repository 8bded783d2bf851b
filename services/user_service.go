package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cookseyplate/tipping-system/models"
	"github.com/cookseyplate/tipping-system/repositories"
)

type UserService interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id int, input UpdateUserInput) (*models.User, error)
	// CanTipFor reports whether the acting user may submit tips on behalf of
	// the target: self, admin, or same family group.
	CanTipFor(ctx context.Context, actingUserID, targetUserID int) (bool, error)
	// UsersCanTipFor lists every user the acting user may tip for.
	UsersCanTipFor(ctx context.Context, actingUserID int) ([]*models.User, error)
	ListFamilyGroups(ctx context.Context) ([]*models.FamilyGroup, error)
	GetFamilyGroup(ctx context.Context, id int) (*models.FamilyGroup, error)
}

type CreateUserInput struct {
	Name          string          `json:"name"`
	Email         *string         `json:"email,omitempty"`
	FamilyGroupID int             `json:"family_group_id"`
	Role          models.UserRole `json:"role,omitempty"`
}

type UpdateUserInput struct {
	Name          *string          `json:"name,omitempty"`
	Email         *string          `json:"email,omitempty"`
	FamilyGroupID *int             `json:"family_group_id,omitempty"`
	Role          *models.UserRole `json:"role,omitempty"`
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	user, err := s.userRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %q: %w", name, err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrUserNameRequired
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrValidationFailed
	}

	user := &models.User{
		Name:          name,
		Email:         input.Email,
		FamilyGroupID: input.FamilyGroupID,
		Role:          role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNameConflict):
			return nil, ErrUserNameConflict
		case errors.Is(err, repositories.ErrUserInvalidGroup):
			return nil, ErrFamilyGroupNotFound
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrUserNameRequired
		}
		user.Name = name
	}
	if input.Email != nil {
		user.Email = input.Email
	}
	if input.FamilyGroupID != nil {
		user.FamilyGroupID = *input.FamilyGroupID
	}
	if input.Role != nil {
		if *input.Role != models.RoleUser && *input.Role != models.RoleAdmin {
			return nil, ErrValidationFailed
		}
		user.Role = *input.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrUserNameConflict):
			return nil, ErrUserNameConflict
		case errors.Is(err, repositories.ErrUserInvalidGroup):
			return nil, ErrFamilyGroupNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) CanTipFor(ctx context.Context, actingUserID, targetUserID int) (bool, error) {
	if actingUserID == targetUserID {
		return true, nil
	}

	acting, err := s.userRepo.GetByID(ctx, actingUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to get user %d: %w", actingUserID, err)
	}
	if acting.IsAdmin() {
		return true, nil
	}

	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to get user %d: %w", targetUserID, err)
	}
	return acting.FamilyGroupID == target.FamilyGroupID, nil
}

func (s *userService) UsersCanTipFor(ctx context.Context, actingUserID int) ([]*models.User, error) {
	acting, err := s.userRepo.GetByID(ctx, actingUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", actingUserID, err)
	}

	if acting.IsAdmin() {
		return s.userRepo.List(ctx)
	}
	return s.userRepo.ListByFamilyGroup(ctx, acting.FamilyGroupID)
}

func (s *userService) ListFamilyGroups(ctx context.Context) ([]*models.FamilyGroup, error) {
	groups, err := s.userRepo.ListFamilyGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list family groups: %w", err)
	}
	return groups, nil
}

func (s *userService) GetFamilyGroup(ctx context.Context, id int) (*models.FamilyGroup, error) {
	group, err := s.userRepo.GetFamilyGroup(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrFamilyGroupNotFound) {
			return nil, ErrFamilyGroupNotFound
		}
		return nil, fmt.Errorf("failed to get family group %d: %w", id, err)
	}
	return group, nil
}
