//go:generate go run go.uber.org/mock/mockgen -source=identity.go -destination=../mocks/mock_identity_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// IdentityKey is the single key holding the display name.
const IdentityKey = "username"

type IIdentityRepository interface {
	Load() (string, bool, error)
	Save(name string) error
	Delete() error
}

// IdentityRepository persists the display name across restarts.
type IdentityRepository struct {
	db *badger.DB
}

func NewIdentityRepository(db *badger.DB) IIdentityRepository {
	return &IdentityRepository{db: db}
}

// Load returns the stored name, false when nothing was saved yet.
func (r IdentityRepository) Load() (string, bool, error) {
	var name string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(IdentityKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load identity: %w", err)
	}
	return name, true, nil
}

func (r IdentityRepository) Save(name string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(IdentityKey), []byte(name))
	})
}

// Delete removes the stored name. Deleting a missing key is not an error.
func (r IdentityRepository) Delete() error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(IdentityKey))
	})
}
