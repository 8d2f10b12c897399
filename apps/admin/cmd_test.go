package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
	inmemdb "github.com/masomo/dashboard/storage/database/inmem"
	"github.com/masomo/dashboard/tests"
)

var usrRepo identity.Repository

func setup(t *testing.T) *commandLine {
	usrRepo = inmemdb.NewUserRepository(inmemdb.Open())
	validate, translator := core.NewValidator()

	// start CLI
	return &commandLine{
		svc:        identity.NewService(usrRepo),
		validate:   validate,
		translator: translator,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type passwords []string

func mockPasswords(tt cliTest) {
	var i int
	readPasswordFunc = func(fd int) ([]byte, error) {
		pwds, _ := tt.extra.(passwords)
		if i >= len(pwds) {
			return nil, nil
		}
		i++
		return []byte(pwds[i-1]), nil
	}
}

func checkRunErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "pwd", identity.RoleAdmin, true)

	add := func(uname, email, role string) []string {
		return []string{"adduser", "-username", uname, "-email", email, "-role", role}
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: add("hero", "hero@test.cd", "student"), wantErr: errHelp},
		{
			name: "unknown role", args: add("hero", "hero@test.cd", "janitor"), extra: passwords{"pwd", "pwd"},
			wantErrStr: "role: role must be one of: admin teacher student",
		},
		{
			name: "passwords differ", args: add("hero", "hero@test.cd", "student"), extra: passwords{"pwd", "typo"},
			wantErrStr: "password_confirm: password_confirm must be equal to Password",
		},
		{
			name: "username taken", args: add("ADMIN", "hero@test.cd", "student"), extra: passwords{"pwd", "pwd"},
			wantErrStr: "a user with this username already exists",
		},
		{name: "created", args: add("Hero", " Hero@Test.cd", "Student"), extra: passwords{"pwd", "pwd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPasswords(tt)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, tt, cli.run(args))
		})
	}

	usr, err := usrRepo.GetUserByEmail(context.Background(), "hero@test.cd")
	require.NoError(t, err)
	assert.Equal(t, "hero", usr.Username)
	assert.Equal(t, identity.RoleStudent, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("pwd"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", identity.RoleTeacher, false)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: passwords{"lol"}, wantErr: identity.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: passwords{"lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPasswords(tt)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkRunErr(t, tt, err)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				assert.True(t, refreshedUsr.IsActive, "reset activates the account")
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	t.Run("in-memory store", func(t *testing.T) {
		checkRunErr(t, cliTest{wantErr: errNoDatabase}, cli.run([]string{"admin", "migrate"}))
	})

	var called bool
	migrateFunc = func(ctx context.Context, db *sqlx.DB) error {
		called = true
		return errors.New("boom")
	}
	cli.db = &sqlx.DB{}

	t.Run("database", func(t *testing.T) {
		checkRunErr(t, cliTest{wantErrStr: "boom"}, cli.run([]string{"admin", "migrate"}))
		assert.True(t, called)
	})
}
