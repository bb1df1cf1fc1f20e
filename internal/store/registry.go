package store

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/mahirjain10/image-ingest/internal/types"
	"github.com/mahirjain10/image-ingest/internal/utils"
)

var ErrNotFound = errors.New("asset not found")

const keyPrefix = "asset/"

// Registry keeps one AssetRecord per stored filename in a local badger database.
type Registry struct {
	db *badger.DB
}

func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	return &Registry{db: db}, nil
}

func key(filename string) []byte {
	return []byte(keyPrefix + filename)
}

func (r *Registry) Record(rec types.AssetRecord) error {
	if rec.Filename == "" {
		return fmt.Errorf("asset record without filename")
	}
	data, err := utils.SerializeJSON(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal asset record: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(rec.Filename), data)
	})
}

func (r *Registry) Get(filename string) (*types.AssetRecord, error) {
	var rec types.AssetRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(filename))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, filename)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return utils.ParseJSON(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every record, oldest first.
func (r *Registry) List() ([]types.AssetRecord, error) {
	records := []types.AssetRecord{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec types.AssetRecord
			if err := it.Item().Value(func(val []byte) error {
				return utils.ParseJSON(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to read asset record: %w", err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StoredAt.Before(records[j].StoredAt)
	})
	return records, nil
}

func (r *Registry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
