package inmemdb

import (
	"sync"

	"github.com/masomo/dashboard/core/identity"
)

type (
	DB struct {
		user *userTable
	}

	userTable struct {
		table map[string]*identity.User
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*identity.User)},
	}
}
