// Package badgerstore persists frecency records in BadgerDB.
//
// Keys are "frec:<type>:<id>"; values are msgpack encoded {count, time}.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/bastiangx/rootsearch/pkg/ranking"
	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	keyPrefix  = "frec"
	maxRetries = 3
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("frecency store is closed")

type value struct {
	Count int       `msgpack:"c"`
	At    time.Time `msgpack:"t"`
}

// Store is a ranking.Store on BadgerDB.
type Store struct {
	db  *badger.DB
	now func() time.Time
	log *log.Logger
}

var _ ranking.Store = (*Store)(nil)

// badgerLogger routes badger's own logging to a charm logger. Badger is
// chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	l *log.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (b *badgerLogger) Errorf(msg string, args ...any) { b.l.Errorf(msg, args...) }
func (b *badgerLogger) Warningf(msg string, args ...any) { b.l.Warnf(msg, args...) }
func (b *badgerLogger) Infof(msg string, args ...any) { b.l.Debugf(msg, args...) }
func (b *badgerLogger) Debugf(msg string, args ...any) { b.l.Debugf(msg, args...) }

// Open opens the database in dir, creating the directory if needed. With
// inMemory set, dir is ignored and nothing touches the disk.
func Open(dir string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating %s: %w", dir, err)
			}
		} else if err != nil {
			return nil, err
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		opts = badger.DefaultOptions(dir)
	}

	l := logger.New("badger")
	opts.Logger = &badgerLogger{l: l}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening frecency db: %w", err)
	}
	log.Debugf("Opened frecency store (in-memory=%v) at %q", inMemory, dir)

	return &Store{db: db, now: time.Now, log: l}, nil
}

// WithClock replaces time.Now for visit stamps and returns s.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func recordKey(itemType, id string) []byte {
	return []byte(keyPrefix + ":" + itemType + ":" + id)
}

func typePrefix(itemType string) []byte {
	return []byte(keyPrefix + ":" + itemType + ":")
}

// withTx runs fn in a transaction, committing write transactions when fn
// succeeds.
func (s *Store) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	tx := s.db.NewTransaction(isWrite)
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return err
	}
	if isWrite {
		return tx.Commit()
	}
	return nil
}

func (s *Store) UpsertIncrement(ctx context.Context, itemType, id string) (int, time.Time, error) {
	key := recordKey(itemType, id)
	var v value

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return 0, time.Time{}, err
		}
		err = s.withTx(func(tx *badger.Txn) error {
			v = value{}
			item, err := tx.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if err := item.Value(func(raw []byte) error {
					return msgpack.Unmarshal(raw, &v)
				}); err != nil {
					return fmt.Errorf("decoding %s: %w", key, err)
				}
			}

			v.Count++
			v.At = s.now().UTC()
			raw, err := msgpack.Marshal(&v)
			if err != nil {
				return err
			}
			return tx.Set(key, raw)
		}, true)

		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.log.Debugf("Conflict on %s, retrying", key)
	}
	if err != nil {
		return 0, time.Time{}, err
	}
	return v.Count, v.At, nil
}

func (s *Store) LoadAll(ctx context.Context, itemType string) ([]ranking.StoredRecord, error) {
	prefix := typePrefix(itemType)
	var out []ranking.StoredRecord

	err := s.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := string(item.Key()[len(prefix):])

			var v value
			if err := item.Value(func(raw []byte) error {
				return msgpack.Unmarshal(raw, &v)
			}); err != nil {
				s.log.Warnf("Skipping undecodable frecency record %s: %v", item.Key(), err)
				continue
			}
			out = append(out, ranking.StoredRecord{ItemID: id, VisitedCount: v.Count, LastVisitedAt: v.At})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}
