package inmemdb

import (
	"context"
	"time"

	"github.com/masomo/dashboard/core/identity"
)

// DemoPasswords are the passwords of the users created by Seed, keyed by email.
var DemoPasswords = map[string]string{
	"admin@masomo.cd":   "admin",
	"teacher@masomo.cd": "teacher",
	"student@masomo.cd": "student",
}

// Seed fills repo with one active user per role.
func Seed(ctx context.Context, repo identity.Repository) error {
	now := time.Now().UTC()
	users := []identity.User{
		{Name: "Admin", Username: "admin", Email: "admin@masomo.cd", Role: identity.RoleAdmin},
		{Name: "Teacher", Username: "teacher", Email: "teacher@masomo.cd", Role: identity.RoleTeacher},
		{Name: "Student", Username: "student", Email: "student@masomo.cd", Role: identity.RoleStudent},
	}
	for i, usr := range users {
		usr.IsActive = true
		usr.CreatedAt = now.Add(time.Duration(i) * time.Second)
		usr.UpdatedAt = usr.CreatedAt
		if err := usr.SetPassword(DemoPasswords[usr.Email]); err != nil {
			return err
		}
		if _, err := repo.CreateUser(ctx, usr); err != nil {
			return err
		}
	}
	return nil
}
