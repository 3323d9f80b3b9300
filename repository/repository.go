// Package repository combines a record store, its index and the slot codec
// into key-addressed persistence for one entity kind.
package repository

import (
	"fmt"
	"iter"

	"github.com/arsendavydov/de-project-bibip/index"
	"github.com/arsendavydov/de-project-bibip/slot"
	"github.com/arsendavydov/de-project-bibip/store"
)

// Record is any domain value the repository can persist.
type Record interface {
	// Key returns the business key the record is indexed under.
	Key() string
	// Fields returns the record's slot fields in wire order.
	Fields() []string
}

// DecodeFunc reconstructs a record from decoded slot fields.
type DecodeFunc[T Record] func(fields []string) (T, error)

// Repository persists one entity kind in a store/index file pair.
type Repository[T Record] struct {
	store  *store.Store
	index  *index.Index
	codec  slot.Codec
	decode DecodeFunc[T]
}

// Open returns a repository over the given data and index files, creating
// both if absent.
func Open[T Record](dataPath, indexPath string, codec slot.Codec, decode DecodeFunc[T]) (*Repository[T], error) {
	st, err := store.Open(dataPath, codec.Size())
	if err != nil {
		return nil, err
	}
	ix, err := index.Open(indexPath)
	if err != nil {
		return nil, err
	}
	return &Repository[T]{store: st, index: ix, codec: codec, decode: decode}, nil
}

// Insert appends the record to the store and indexes it under its business
// key, returning the slot position. Duplicate keys are not rejected; the
// earlier record keeps winning lookups.
func (r *Repository[T]) Insert(rec T) (int, error) {
	payload, err := r.codec.Encode(rec.Fields())
	if err != nil {
		return 0, err
	}
	pos, err := r.store.Append(payload)
	if err != nil {
		return 0, err
	}
	if err := r.index.Append(rec.Key(), pos); err != nil {
		return 0, err
	}
	return pos, nil
}

// PositionOf returns the slot position indexed for key.
func (r *Repository[T]) PositionOf(key string) (int, bool) {
	return r.index.Lookup(key)
}

// FindByKey returns the record stored under key, or false if the key is not
// indexed.
func (r *Repository[T]) FindByKey(key string) (T, bool, error) {
	var zero T
	pos, ok := r.index.Lookup(key)
	if !ok {
		return zero, false, nil
	}
	rec, err := r.At(pos)
	if err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

// At returns the record stored at the given slot position.
func (r *Repository[T]) At(pos int) (T, error) {
	var zero T
	payload, err := r.store.Read(pos)
	if err != nil {
		return zero, err
	}
	fields, err := r.codec.Decode(payload)
	if err != nil {
		return zero, err
	}
	rec, err := r.decode(fields)
	if err != nil {
		return zero, fmt.Errorf("slot %d: %w", pos, err)
	}
	return rec, nil
}

// UpdateAt rewrites the slot at pos with the mutated record. The record
// keeps its position; the index is not touched.
func (r *Repository[T]) UpdateAt(pos int, rec T) error {
	payload, err := r.codec.Encode(rec.Fields())
	if err != nil {
		return err
	}
	return r.store.Rewrite(pos, payload)
}

// Rename rekeys the record from oldKey to newKey in the index, leaving the
// slot position unchanged. The index file is re-sorted by key as part of
// the rewrite.
func (r *Repository[T]) Rename(oldKey, newKey string) error {
	return r.index.Rename(oldKey, newKey)
}

// ReplaceAll re-encodes every record and rewrites the whole data file in
// the given order. Positions are reassigned front to back, so callers must
// pass records in their current file order.
func (r *Repository[T]) ReplaceAll(recs []T) error {
	payloads := make([][]byte, 0, len(recs))
	for _, rec := range recs {
		payload, err := r.codec.Encode(rec.Fields())
		if err != nil {
			return err
		}
		payloads = append(payloads, payload)
	}
	return r.store.ReplaceAll(payloads)
}

// All iterates every record in file order. The sequence re-opens the store
// on each call and stops at the first slot that fails to decode.
func (r *Repository[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for pos, payload := range r.store.All() {
			fields, err := r.codec.Decode(payload)
			if err != nil {
				return
			}
			rec, err := r.decode(fields)
			if err != nil {
				return
			}
			if !yield(pos, rec) {
				return
			}
		}
	}
}
