package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB v4. The catalog opens one under the
// tool's data directory.
type Badger struct {
	db   *badger.DB
	opts *Options
}

// BadgerOptions configures a Badger store.
type BadgerOptions struct {
	// Options carries the common store settings. May be nil.
	Options *Options

	// Dir is the BadgerDB data directory. Required unless InMemory is set.
	Dir string

	// InMemory keeps all data in memory, nothing touches disk. Used by
	// tests that want the real badger engine.
	InMemory bool

	// Logger receives badger's own log output. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewBadger opens a BadgerDB-backed Store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("kv: BadgerOptions.Dir is required unless InMemory is set")
	}
	logger := bopts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts := badger.DefaultOptions(bopts.Dir).
		WithInMemory(bopts.InMemory).
		WithLogger(badgerLogger{logger})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger: %w", err)
	}
	return &Badger{db: db, opts: bopts.Options}, nil
}

func (b *Badger) Get(_ context.Context, key Key) ([]byte, error) {
	val, err := b.get(b.opts.encode(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

// get reads one encoded key in its own read transaction.
func (b *Badger) get(k []byte) (val []byte, err error) {
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err == nil {
			val, err = item.ValueCopy(nil)
		}
		return err
	})
	return val, err
}

func (b *Badger) Set(_ context.Context, key Key, value []byte) error {
	k := b.opts.encode(key)
	return b.db.Update(func(txn *badger.Txn) error { return txn.Set(k, value) })
}

func (b *Badger) Delete(_ context.Context, key Key) error {
	k := b.opts.encode(key)
	err := b.db.Update(func(txn *badger.Txn) error { return txn.Delete(k) })
	if errors.Is(err, badger.ErrKeyNotFound) {
		err = nil
	}
	return err
}

func (b *Badger) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	// Same segment-boundary rule as Memory: a non-empty prefix is extended
	// with the separator before matching.
	var p []byte
	if enc := b.opts.encode(prefix); len(enc) > 0 {
		p = append(enc, b.opts.sep())
	}

	return func(yield func(Entry, error) bool) {
		scan := func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = p
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				entry, err := b.entryFromItem(it.Item())
				if !yield(entry, err) {
					return nil
				}
			}
			return nil
		}
		if err := b.db.View(scan); err != nil {
			yield(Entry{}, err)
		}
	}
}

func (b *Badger) entryFromItem(item *badger.Item) (Entry, error) {
	val, err := item.ValueCopy(nil)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: b.opts.decode(item.KeyCopy(nil)), Value: val}, nil
}

func (b *Badger) BatchSet(_ context.Context, entries []Entry) error {
	return b.batch(func(wb *badger.WriteBatch) error {
		for _, e := range entries {
			if err := wb.Set(b.opts.encode(e.Key), e.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) BatchDelete(_ context.Context, keys []Key) error {
	return b.batch(func(wb *badger.WriteBatch) error {
		for _, key := range keys {
			if err := wb.Delete(b.opts.encode(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// batch runs fn against a fresh write batch and flushes it on success.
func (b *Badger) batch(fn func(*badger.WriteBatch) error) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	if err := fn(wb); err != nil {
		return err
	}
	return wb.Flush()
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger adapts slog to badger's Logger interface. Badger is chatty
// at info level during compaction, so info and debug go to slog debug.
type badgerLogger struct {
	l *slog.Logger
}

func (bl badgerLogger) Errorf(f string, v ...any)   { bl.log(slog.LevelError, f, v...) }
func (bl badgerLogger) Warningf(f string, v ...any) { bl.log(slog.LevelWarn, f, v...) }
func (bl badgerLogger) Infof(f string, v ...any)    { bl.log(slog.LevelDebug, f, v...) }
func (bl badgerLogger) Debugf(f string, v ...any)   { bl.log(slog.LevelDebug, f, v...) }

func (bl badgerLogger) log(level slog.Level, f string, v ...any) {
	// Badger terminates its messages with a newline.
	msg := strings.TrimRight(fmt.Sprintf(f, v...), "\n")
	bl.l.Log(context.Background(), level, "badger: "+msg)
}
