package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookseyplate/tipping-system/models"
)

func TestCreateUser(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	user, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "  Alice  ", FamilyGroupID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name, "name is trimmed")
	assert.Equal(t, models.RoleUser, user.Role, "role defaults to user")

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "   ", FamilyGroupID: 1})
	assert.ErrorIs(t, err, ErrUserNameRequired)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "Bob", FamilyGroupID: 1, Role: "superuser"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "Alice", FamilyGroupID: 2})
	assert.ErrorIs(t, err, ErrUserNameConflict)
}

func TestCanTipFor(t *testing.T) {
	alice := &models.User{ID: 1, Name: "Alice", FamilyGroupID: 1}
	bob := &models.User{ID: 2, Name: "Bob", FamilyGroupID: 1}
	carol := &models.User{ID: 3, Name: "Carol", FamilyGroupID: 2}
	admin := &models.User{ID: 4, Name: "Dana", FamilyGroupID: 2, Role: models.RoleAdmin}
	svc := NewUserService(newFakeUserRepo(alice, bob, carol, admin))

	tests := []struct {
		name   string
		acting int
		target int
		want   bool
	}{
		{"self", 1, 1, true},
		{"same family group", 1, 2, true},
		{"different family group", 1, 3, false},
		{"admin crosses groups", 4, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanTipFor(context.Background(), tt.acting, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUsersCanTipFor(t *testing.T) {
	alice := &models.User{ID: 1, Name: "Alice", FamilyGroupID: 1}
	bob := &models.User{ID: 2, Name: "Bob", FamilyGroupID: 1}
	carol := &models.User{ID: 3, Name: "Carol", FamilyGroupID: 2}
	admin := &models.User{ID: 4, Name: "Dana", FamilyGroupID: 2, Role: models.RoleAdmin}
	svc := NewUserService(newFakeUserRepo(alice, bob, carol, admin))

	users, err := svc.UsersCanTipFor(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2, "non-admins see their family group only")

	users, err = svc.UsersCanTipFor(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Len(t, users, 4, "admins see everyone")
}

func TestUpdateUser_PartialUpdate(t *testing.T) {
	email := "alice@example.com"
	svc := NewUserService(newFakeUserRepo(&models.User{ID: 1, Name: "Alice", FamilyGroupID: 1}))

	updated, err := svc.UpdateUser(context.Background(), 1, UpdateUserInput{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name, "unset fields are left alone")
	require.NotNil(t, updated.Email)
	assert.Equal(t, email, *updated.Email)

	_, err = svc.UpdateUser(context.Background(), 99, UpdateUserInput{Email: &email})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByName(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(&models.User{ID: 1, Name: "Alice", FamilyGroupID: 1}))

	user, err := svc.GetUserByName(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	_, err = svc.GetUserByName(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrUserNotFound, "name lookup is exact")
}
