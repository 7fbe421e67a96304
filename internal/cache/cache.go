// Package cache stores lint results keyed by file content so unchanged
// files are not re-analyzed.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/imyousuf/arelcop/internal/rules"
)

// Current schema version - increment when the Entry format changes.
const schemaVersion uint16 = 1

const prefixResult = "r:"

// ErrMiss is returned by Get when no usable entry exists.
var ErrMiss = errors.New("cache miss")

// Entry is the stored form of one file's lint result.
type Entry struct {
	Schema      uint16             `msgpack:"schema"`
	Diagnostics []rules.Diagnostic `msgpack:"diags"`
}

// Store is a BadgerDB-backed result cache. A nil *Store is a valid cache
// that never hits.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a cache at dir.
func Open(dir string) (*Store, error) {
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	opts.Logger = nil // suppress badger logs
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Key derives the cache key for a file's content under a configuration
// fingerprint.
func Key(fingerprint string, content []byte) []byte {
	h := sha256.New()
	var schema [2]byte
	binary.BigEndian.PutUint16(schema[:], schemaVersion)
	h.Write(schema[:])
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(content)
	return []byte(prefixResult + hex.EncodeToString(h.Sum(nil)))
}

// Fingerprint identifies everything besides file content that affects lint
// results: the tool version, the enabled rules and their configuration.
func Fingerprint(version string, ruleNames []string, cfg *rules.Config, bases []string) (string, error) {
	data, err := msgpack.Marshal(struct {
		Version string
		Rules   []string
		Config  *rules.Config
		Bases   []string
	}{version, ruleNames, cfg, bases})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the diagnostics stored under key.
func (s *Store) Get(key []byte) ([]rules.Diagnostic, error) {
	if s == nil {
		return nil, ErrMiss
	}
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrMiss
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if entry.Schema != schemaVersion {
		return nil, ErrMiss
	}
	return entry.Diagnostics, nil
}

// Put stores diagnostics under key.
func (s *Store) Put(key []byte, diags []rules.Diagnostic) error {
	if s == nil {
		return nil
	}
	data, err := msgpack.Marshal(&Entry{Schema: schemaVersion, Diagnostics: diags})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Len returns the number of stored results.
func (s *Store) Len() (int, error) {
	if s == nil {
		return 0, nil
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixResult)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Clear removes every stored result.
func (s *Store) Clear() error {
	if s == nil {
		return nil
	}
	return s.db.DropPrefix([]byte(prefixResult))
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
