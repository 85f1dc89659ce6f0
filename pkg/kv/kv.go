// Package kv defines a small key-value store interface with hierarchical
// keys, used for local catalog state: synced voice snapshots and generation
// history records. Keys are slices of string segments (for example
// ["voices", fingerprint, voiceID]) joined by a separator byte when encoded
// for storage.
//
// Two implementations are provided: Badger for on-disk persistence and
// Memory for tests.
package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical key as a slice of segments. Segments must not
// contain the store's separator byte; Set and Get panic if one does.
type Key []string

// String renders the key with ':' between segments. Display only; the
// stored encoding depends on the configured separator.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry pairs a key with its value, as yielded by List and consumed by
// BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with hierarchical keys.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// List yields all entries under prefix in lexicographic order of the
	// encoded key. A prefix matches whole segments only: listing
	// ["voices", "ab"] does not yield keys under ["voices", "abc"].
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet stores all entries in one write.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete removes all keys in one write.
	BatchDelete(ctx context.Context, keys []Key) error

	// Close releases the store's resources.
	Close() error
}

// DefaultSeparator joins key segments in the stored encoding.
const DefaultSeparator byte = ':'

// Options carries settings shared by all Store implementations.
type Options struct {
	// Separator overrides DefaultSeparator when non-zero.
	Separator byte
}

func (o *Options) sep() byte {
	if o == nil || o.Separator == 0 {
		return DefaultSeparator
	}
	return o.Separator
}

// encode joins the key segments with the separator. Panics if a segment
// contains the separator, since that would alias a different key.
func (o *Options) encode(k Key) []byte {
	s := o.sep()
	for _, seg := range k {
		if strings.IndexByte(seg, s) >= 0 {
			panic(fmt.Sprintf("kv: key segment %q contains separator %q", seg, s))
		}
	}
	return []byte(strings.Join(k, string(s)))
}

// decode splits a stored key back into segments.
func (o *Options) decode(b []byte) Key {
	return Key(strings.Split(string(b), string(o.sep())))
}
