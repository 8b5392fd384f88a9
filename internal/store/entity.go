package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// multiSep separates the indexed value from the record ID in multi-valued
// index keys, so values containing ':' stay unambiguous.
const multiSep = "\x00"

// Entity provides generic document operations for one collection.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
}

// Index defines a secondary index on an entity.
type Index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string // Optional transformation for lookups
	multi           bool                // many records may share a value
}

// NewEntity creates a new Entity instance for type T stored under prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:   s,
		prefix:  prefix,
		indexes: make([]Index[T], 0),
	}
}

// WithIndex adds a unique secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

// WithIndexTransform adds a unique secondary index with lookup transformation.
// The lookupTransform function is applied to search values before index lookup,
// enabling case-insensitive searches, normalization, etc.
func (e *Entity[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

// WithMultiIndex adds a non-unique secondary index. Use ListByIndex and
// CountByIndex to query it.
func (e *Entity[T]) WithMultiIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen, multi: true})
	return e
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if the ID or a unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.update(ctx, func(txn *badger.Txn) error {
		return e.create(txn, id, entity)
	})
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByIndex retrieves an entity by a unique secondary index.
// If the index has a lookup transform, it will be applied to the value before lookup.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.getByIndex(txn, indexName, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Update replaces an existing entity and moves its index entries.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.update(ctx, func(txn *badger.Txn) error {
		return e.replace(txn, id, entity)
	})
}

// List returns an iterator over all entities in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		err := e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if e.isIndexKey(it.Item().Key()) {
					continue
				}

				var entity T
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				}); err != nil {
					return fmt.Errorf("failed to unmarshal entity: %w", err)
				}

				if !yield(&entity, nil) {
					return errStopped
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(nil, err)
		}
	}
}

// Collect drains List into a slice.
func (e *Entity[T]) Collect(ctx context.Context) ([]*T, error) {
	var out []*T
	for entity, err := range e.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// Count returns the number of entities without decoding them.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
			if !e.isIndexKey(it.Item().Key()) {
				count++
			}
		}
		return nil
	})
	return count, err
}

// ListByIndex returns every entity whose multi-valued index contains value.
func (e *Entity[T]) ListByIndex(ctx context.Context, indexName, value string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*T
	err := e.store.db.View(func(txn *badger.Txn) error {
		ids, err := e.scanMulti(txn, indexName, value)
		if err != nil {
			return err
		}
		for _, id := range ids {
			entity, err := e.get(txn, id)
			if err != nil {
				return fmt.Errorf("index %s points at %s: %w", indexName, id, err)
			}
			out = append(out, entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountByIndex counts entities whose multi-valued index contains value.
func (e *Entity[T]) CountByIndex(ctx context.Context, indexName, value string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int
	err := e.store.db.View(func(txn *badger.Txn) error {
		ids, err := e.scanMulti(txn, indexName, value)
		count = len(ids)
		return err
	})
	return count, err
}

// errStopped signals that a List consumer stopped early.
var errStopped = errors.New("iteration stopped")

// Transaction-scoped helpers. These let store methods compose several entity
// operations inside one badger transaction.

func (e *Entity[T]) create(txn *badger.Txn, id string, entity *T) error {
	key := []byte(e.prefix + id)

	if _, err := txn.Get(key); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check existing key: %w", err)
	}

	if err := e.checkUnique(txn, id, entity, nil); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	for _, k := range e.indexKeys(id, entity) {
		if err := txn.Set([]byte(k), []byte(id)); err != nil {
			return fmt.Errorf("failed to set index key: %w", err)
		}
	}
	return nil
}

func (e *Entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get([]byte(e.prefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}

func (e *Entity[T]) getByIndex(txn *badger.Txn, indexName, value string) (*T, error) {
	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	item, err := txn.Get([]byte(e.uniqueKey(indexName, value)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index key: %w", err)
	}

	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read index key: %w", err)
	}
	return e.get(txn, string(id))
}

func (e *Entity[T]) replace(txn *badger.Txn, id string, entity *T) error {
	old, err := e.get(txn, id)
	if err != nil {
		return err
	}

	oldKeys := e.indexKeys(id, old)
	newKeys := e.indexKeys(id, entity)

	if err := e.checkUnique(txn, id, entity, oldKeys); err != nil {
		return err
	}

	keep := make(map[string]bool, len(newKeys))
	for _, k := range newKeys {
		keep[k] = true
	}
	for _, k := range oldKeys {
		if keep[k] {
			continue
		}
		if err := txn.Delete([]byte(k)); err != nil {
			return fmt.Errorf("failed to delete old index key: %w", err)
		}
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if err := txn.Set([]byte(e.prefix+id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	for _, k := range newKeys {
		if err := txn.Set([]byte(k), []byte(id)); err != nil {
			return fmt.Errorf("failed to set index key: %w", err)
		}
	}
	return nil
}

// checkUnique fails if any unique index value of entity is held by another
// record. Keys listed in owned already belong to this record.
func (e *Entity[T]) checkUnique(txn *badger.Txn, id string, entity *T, owned []string) error {
	mine := make(map[string]bool, len(owned))
	for _, k := range owned {
		mine[k] = true
	}

	for _, idx := range e.indexes {
		if idx.multi {
			continue
		}
		for _, value := range idx.keyGen(entity) {
			k := e.uniqueKey(idx.name, value)
			if mine[k] {
				continue
			}
			item, err := txn.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to check index key: %w", err)
			}
			holder, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read index key: %w", err)
			}
			if string(holder) != id {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, value, ErrAlreadyExists)
			}
		}
	}
	return nil
}

func (e *Entity[T]) scanMulti(txn *badger.Txn, indexName, value string) ([]string, error) {
	prefix := []byte(e.multiPrefix(indexName, value))

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids, nil
}

// indexKeys returns every index key entity occupies.
func (e *Entity[T]) indexKeys(id string, entity *T) []string {
	var keys []string
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if value == "" {
				continue
			}
			if idx.multi {
				keys = append(keys, e.multiPrefix(idx.name, value)+id)
			} else {
				keys = append(keys, e.uniqueKey(idx.name, value))
			}
		}
	}
	return keys
}

func (e *Entity[T]) uniqueKey(indexName, value string) string {
	return e.prefix + "idx:" + indexName + ":" + value
}

func (e *Entity[T]) multiPrefix(indexName, value string) string {
	return e.prefix + "idx:" + indexName + ":" + value + multiSep
}

func (e *Entity[T]) isIndexKey(key []byte) bool {
	return strings.HasPrefix(string(key[len(e.prefix):]), "idx:")
}
