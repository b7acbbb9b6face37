// Package storage holds the contract every persistence gateway implements.
package storage

import (
	"context"
	"errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// ErrNoData means nothing was ever saved, as opposed to an empty save.
var ErrNoData = errors.New("no persisted data")

// Gateway saves and restores the school registry along with the user store.
type Gateway interface {
	// Save overwrites the previously saved state.
	Save(ctx context.Context, reg *school.Registry, users *user.Store) error
	// Load restores the saved state through the restore entry points, keeping persisted ids.
	// Nothing is restored unless the whole state could be read.
	Load(ctx context.Context, reg *school.Registry, users *user.Store) error
	Close() error
}
