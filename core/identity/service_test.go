package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
	inmemdb "github.com/masomo/dashboard/storage/database/inmem"
	"github.com/masomo/dashboard/tests"
)

func setup(t *testing.T) (*identity.Service, identity.Repository) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return identity.NewService(repo), repo
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	hero := testutil.CreateUser(t, repo, "Hero", "hero", "hero@test.cd", "secret", identity.RoleStudent, true)
	testutil.CreateUser(t, repo, "N Dog", "ndog", "ndog@test.cd", "secret", identity.RoleStudent, false)

	tests := []struct {
		name    string
		creds   identity.Credentials
		wantErr error
	}{
		{name: "unknown email", creds: identity.Credentials{Email: "nobody@test.cd", Password: "secret"}, wantErr: identity.ErrInvalidCredentials},
		{name: "wrong password", creds: identity.Credentials{Email: "hero@test.cd", Password: "nope"}, wantErr: identity.ErrInvalidCredentials},
		{name: "deactivated", creds: identity.Credentials{Email: "ndog@test.cd", Password: "secret"}, wantErr: identity.ErrAccountDeactivated},
		{name: "deactivated, wrong password", creds: identity.Credentials{Email: "ndog@test.cd", Password: "nope"}, wantErr: identity.ErrInvalidCredentials},
		{name: "success", creds: identity.Credentials{Email: "  HERO@test.cd", Password: "secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.creds)
			if err != tt.wantErr {
				t.Fatalf("Authenticate() error = %v; wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			assert.Equal(t, hero.ID, usr.ID)
			assert.False(t, usr.LastLogin.IsZero())

			stored, err := repo.GetUserByID(ctx, hero.ID)
			require.NoError(t, err)
			assert.True(t, stored.LastLogin.Equal(usr.LastLogin))
		})
	}
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	validate, _ := core.NewValidator()
	ctx := context.Background()

	nu := identity.NewUser{
		Name:            " Mwalimu ",
		Username:        "Mwalimu",
		Email:           "MWALIMU@test.cd ",
		Role:            "Teacher",
		Password:        "pwd",
		PasswordConfirm: "pwd",
	}
	require.NoError(t, nu.Validate(validate, svc))
	usr, err := svc.Create(ctx, nu)
	require.NoError(t, err)

	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "Mwalimu", usr.Name)
	assert.Equal(t, "mwalimu", usr.Username)
	assert.Equal(t, "mwalimu@test.cd", usr.Email)
	assert.Equal(t, identity.RoleTeacher, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("pwd"))

	dup := identity.NewUser{Username: "other", Email: "mwalimu@test.cd", Role: "student", Password: "x", PasswordConfirm: "x"}
	err = dup.Validate(validate, svc)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "email", vErr.Fields[0].Field)
	assert.Equal(t, identity.ErrEmailExists, vErr.Err)

	got, err := svc.GetByEmail(ctx, " MWALIMU@TEST.CD")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
}

func TestService_UpdateProfile(t *testing.T) {
	svc, repo := setup(t)
	validate, _ := core.NewValidator()
	ctx := context.Background()

	hero := testutil.CreateUser(t, repo, "Hero", "hero", "hero@test.cd", "pwd", identity.RoleStudent, true)
	testutil.CreateUser(t, repo, "Other", "other", "other@test.cd", "pwd", identity.RoleStudent, true)

	tests := []struct {
		name      string
		up        identity.UpdateProfile
		wantField string
		want      identity.UpdateProfile
	}{
		{name: "keep everything", want: identity.UpdateProfile{Name: "Hero", Username: "hero", Email: "hero@test.cd"}},
		{name: "own values", up: identity.UpdateProfile{Username: "HERO", Email: "hero@test.cd"}, want: identity.UpdateProfile{Name: "Hero", Username: "hero", Email: "hero@test.cd"}},
		{name: "username taken", up: identity.UpdateProfile{Username: "other"}, wantField: "username"},
		{name: "email taken", up: identity.UpdateProfile{Email: "other@test.cd"}, wantField: "email"},
		{name: "rename", up: identity.UpdateProfile{Name: "Heroine", Username: "heroine"}, want: identity.UpdateProfile{Name: "Heroine", Username: "heroine", Email: "hero@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := tt.up
			err := up.Validate(hero, validate, svc)
			if tt.wantField != "" {
				vErr, ok := err.(*core.ValidationError)
				require.True(t, ok, "got %v", err)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, up)

			usr, err := svc.UpdateProfile(ctx, hero, up)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Username, usr.Username)
			assert.Equal(t, hero.Role, usr.Role, "role is not editable")
		})
	}
}

func TestService_SetPassword(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "N Dog", "ndog", "ndog@test.cd", "old", identity.RoleStudent, false)
	usr, err := svc.SetPassword(ctx, usr, "new")
	require.NoError(t, err)
	assert.True(t, usr.IsActive)

	_, err = svc.Authenticate(ctx, identity.Credentials{Email: "ndog@test.cd", Password: "old"})
	assert.Equal(t, identity.ErrInvalidCredentials, err)
	_, err = svc.Authenticate(ctx, identity.Credentials{Email: "ndog@test.cd", Password: "new"})
	assert.NoError(t, err)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want identity.Role
	}{
		{in: "admin", want: identity.RoleAdmin},
		{in: " Teacher ", want: identity.RoleTeacher},
		{in: "STUDENT", want: identity.RoleStudent},
		{in: "principal", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := identity.ParseRole(tt.in); got != tt.want {
				t.Errorf("ParseRole() = %q; want %q", got, tt.want)
			}
			if got := tt.want.IsKnown(); got != (tt.want != "") {
				t.Errorf("IsKnown() = %v", got)
			}
		})
	}
}
