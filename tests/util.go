package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
	logsvc "github.com/masomo/dashboard/services/logger"
)

// NewLogger returns a core.Logger that reports nowhere.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Env: "TEST", TestMode: true})
}

func CreateUser(
	t *testing.T,
	repo identity.Repository,
	name, uname, email, pwd string,
	role identity.Role,
	isActive bool,
	createdAt ...time.Time,
) identity.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := identity.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CheckUserRepository runs the identity.Repository contract against an empty repo.
func CheckUserRepository(t *testing.T, repo identity.Repository) {
	ctx := context.Background()
	t0 := time.Now().UTC().Truncate(time.Second)

	admin := CreateUser(t, repo, "Admin", "admin", "admin@test.cd", "pwd", identity.RoleAdmin, true, t0)
	student := CreateUser(t, repo, "Hero", "hero", "hero@test.cd", "pwd", identity.RoleStudent, true, t0.Add(time.Hour))
	require.NotEmpty(t, admin.ID)
	require.NotEqual(t, admin.ID, student.ID)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, student.Identity(), got.Identity())
		assert.NoError(t, got.CheckPassword("pwd"))

		_, err = repo.GetUserByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.Equal(t, identity.ErrNotFound, err)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "admin@test.cd")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)
		assert.Equal(t, identity.RoleAdmin, got.Role)

		_, err = repo.GetUserByEmail(ctx, "nobody@test.cd")
		assert.Equal(t, identity.ErrNotFound, err)
	})

	t.Run("query all", func(t *testing.T) {
		users, err := repo.QueryAllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, admin.ID, users[0].ID)
		assert.Equal(t, student.ID, users[1].ID)
	})

	t.Run("uniqueness", func(t *testing.T) {
		tests := []struct {
			name    string
			uname   string
			email   string
			excl    []identity.User
			wantErr error
		}{
			{name: "free", uname: "new", email: "new@test.cd"},
			{name: "username taken", uname: "admin", email: "new@test.cd", wantErr: identity.ErrUsernameExists},
			{name: "email taken", uname: "new", email: "hero@test.cd", wantErr: identity.ErrEmailExists},
			{name: "own values", uname: "hero", email: "hero@test.cd", excl: []identity.User{student}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := repo.CheckUniqueness(ctx, tt.uname, tt.email, tt.excl...)
				if err != tt.wantErr {
					t.Errorf("CheckUniqueness() error = %v; wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		usr := student
		usr.Username = "heroine"
		usr.IsActive = false
		usr.LastLogin = t0.Add(2 * time.Hour)
		got, err := repo.UpdateUser(ctx, usr)
		require.NoError(t, err)
		assert.Equal(t, "heroine", got.Username)
		assert.False(t, got.IsActive)
		assert.True(t, got.LastLogin.Equal(usr.LastLogin))

		reloaded, err := repo.GetUserByID(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, "heroine", reloaded.Username)

		_, err = repo.UpdateUser(ctx, identity.User{ID: "00000000-0000-0000-0000-000000000000"})
		assert.Equal(t, identity.ErrNotFound, err)
	})
}
