package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/masomo/dashboard/core/identity"
)

const userColumns = `id, name, username, email, role, is_active, password_hash, created_at, updated_at, last_login`

type (
	userRepository struct {
		db *sqlx.DB
	}

	userRow struct {
		ID           string       `db:"id"`
		Name         string       `db:"name"`
		Username     string       `db:"username"`
		Email        string       `db:"email"`
		Role         string       `db:"role"`
		IsActive     bool         `db:"is_active"`
		PasswordHash []byte       `db:"password_hash"`
		CreatedAt    time.Time    `db:"created_at"`
		UpdatedAt    time.Time    `db:"updated_at"`
		LastLogin    sql.NullTime `db:"last_login"`
	}
)

var _ identity.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) identity.Repository {
	return &userRepository{db: db}
}

func (r userRow) user() identity.User {
	usr := identity.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Role:         identity.ParseRole(r.Role),
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...identity.User) error {
	ids := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		ids = append(ids, usr.ID)
	}
	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := repo.db.SelectContext(ctx, &taken,
		`SELECT username, email FROM users WHERE (username = $1 OR email = $2) AND NOT (id::text = ANY($3))`,
		username, email, pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	for _, t := range taken {
		if t.Username == username {
			return identity.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return identity.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr identity.User) (identity.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO users (name, username, email, role, is_active, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+userColumns,
		usr.Name, usr.Username, usr.Email, string(usr.Role), usr.IsActive, usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt, nullTime(usr.LastLogin),
	)
	if err != nil {
		return identity.User{}, errors.Wrap(translate(err), "inserting user")
	}
	return row.user(), nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]identity.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY created_at, username`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]identity.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo *userRepository) getOne(ctx context.Context, where string, arg interface{}) (identity.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		if err == sql.ErrNoRows {
			return identity.User{}, identity.ErrNotFound
		}
		return identity.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (identity.User, error) {
	return repo.getOne(ctx, `id::text = $1`, id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	return repo.getOne(ctx, `email = $1`, email)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr identity.User) (identity.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE users SET name = $2, username = $3, email = $4, role = $5, is_active = $6,
			password_hash = $7, updated_at = $8, last_login = $9
		WHERE id::text = $1 RETURNING `+userColumns,
		usr.ID, usr.Name, usr.Username, usr.Email, string(usr.Role), usr.IsActive,
		usr.PasswordHash, usr.UpdatedAt, nullTime(usr.LastLogin),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return identity.User{}, identity.ErrNotFound
		}
		return identity.User{}, errors.Wrap(translate(err), "updating user")
	}
	return row.user(), nil
}

// translate maps unique violations onto the identity errors.
func translate(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "username") {
			return identity.ErrUsernameExists
		}
		return identity.ErrEmailExists
	}
	return err
}
