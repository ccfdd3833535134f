// Package badger implements pkg/kvs.Store over an embedded BadgerDB,
// namespacing the fs/seq/ver tables with a one-byte key prefix — the same
// prefixed-keyspace discipline the teacher's metadata store uses for its
// "f:"/"p:"/"c:" namespaces, adapted from string prefixes to a fixed byte
// so table boundaries sort cleanly regardless of key content.
package badger

import (
	"context"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/yeetbox/yeetbox/pkg/kvs"
)

// Store wraps a single BadgerDB instance providing the three yeetbox
// tables.
type Store struct {
	db *badgerdb.DB
}

// Open opens or creates a BadgerDB database at path, ensuring the three
// tables are addressable (BadgerDB needs no explicit table creation; the
// prefix namespacing means "ensuring tables exist" is a no-op beyond
// opening the database, per spec.md §4.1).
func Open(path string) (*Store, error) {
	opts := badgerdb.DefaultOptions(path).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kvs/badger: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) BeginRead(ctx context.Context) (kvs.ReadTxn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := s.db.NewTransaction(false)
	return &readTxn{txn: txn}, nil
}

func (s *Store) BeginWrite(ctx context.Context) (kvs.WriteTxn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := s.db.NewTransaction(true)
	return &writeTxn{readTxn: readTxn{txn: txn}}, nil
}

func tableKey(table kvs.Table, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(table)
	copy(out[1:], key)
	return out
}

type readTxn struct {
	txn *badgerdb.Txn
}

func (r *readTxn) Get(table kvs.Table, key []byte) ([]byte, bool, error) {
	item, err := r.txn.Get(tableKey(table, key))
	if err == badgerdb.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kvs/badger: get: %w", err)
	}
	var out []byte
	err = item.Value(func(val []byte) error {
		out = append([]byte(nil), val...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("kvs/badger: read value: %w", err)
	}
	return out, true, nil
}

func (r *readTxn) Scan(table kvs.Table, prefix []byte) (kvs.Iterator, error) {
	full := tableKey(table, prefix)
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = full
	it := r.txn.NewIterator(opts)
	it.Seek(full)
	return &iterator{it: it, prefix: full, started: false}, nil
}

func (r *readTxn) Discard() {
	r.txn.Discard()
}

type writeTxn struct {
	readTxn
}

func (w *writeTxn) Put(table kvs.Table, key, value []byte) error {
	if err := w.txn.Set(tableKey(table, key), value); err != nil {
		return fmt.Errorf("kvs/badger: put: %w", err)
	}
	return nil
}

func (w *writeTxn) Insert(table kvs.Table, key, value []byte) ([]byte, bool, error) {
	prev, had, err := w.Get(table, key)
	if err != nil {
		return nil, false, err
	}
	if err := w.Put(table, key, value); err != nil {
		return nil, false, err
	}
	return prev, had, nil
}

func (w *writeTxn) Delete(table kvs.Table, key []byte) error {
	if err := w.txn.Delete(tableKey(table, key)); err != nil && err != badgerdb.ErrKeyNotFound {
		return fmt.Errorf("kvs/badger: delete: %w", err)
	}
	return nil
}

func (w *writeTxn) Commit() error {
	if err := w.txn.Commit(); err != nil {
		return fmt.Errorf("kvs/badger: commit: %w", err)
	}
	return nil
}

type iterator struct {
	it      *badgerdb.Iterator
	prefix  []byte
	started bool
	err     error
}

func (i *iterator) Next() bool {
	if i.err != nil {
		return false
	}
	if !i.started {
		i.started = true
	} else {
		i.it.Next()
	}
	return i.it.ValidForPrefix(i.prefix)
}

func (i *iterator) Key() []byte {
	full := i.it.Item().KeyCopy(nil)
	return full[1:] // strip the one-byte table prefix
}

func (i *iterator) Value() ([]byte, error) {
	var out []byte
	err := i.it.Item().Value(func(val []byte) error {
		out = append([]byte(nil), val...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("kvs/badger: read value: %w", err)
	}
	return out, nil
}

func (i *iterator) Err() error {
	return i.err
}

func (i *iterator) Close() {
	i.it.Close()
}
