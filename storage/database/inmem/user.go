package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/masomo/dashboard/core/identity"
)

type userRepository struct {
	db *userTable
}

var _ identity.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) identity.Repository {
	return &userRepository{db: db.user}
}

// query returns users ordered by creation time. Caller holds the lock.
func (repo *userRepository) query() []identity.User {
	users := make([]identity.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Username < users[j].Username
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedUsers ...identity.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.table {
		if isExcluded(*usr, excludedUsers) {
			continue
		}
		if usr.Username == username {
			return identity.ErrUsernameExists
		}
		if usr.Email == email {
			return identity.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr identity.User) (identity.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]identity.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (identity.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return identity.User{}, identity.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (identity.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return identity.User{}, identity.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr identity.User) (identity.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return identity.User{}, identity.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func isExcluded(usr identity.User, excludedUsers []identity.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
