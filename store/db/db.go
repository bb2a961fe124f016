// Package db provides the database driver constructor.
package db

import (
	"github.com/pkg/errors"

	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store/db/postgres"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown database driver %q", profile.Driver)
	}
}
