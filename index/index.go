// Package index defines the contract shared by every key → record locator
// index in this module.
package index

import "github.com/cockroachdb/errors"

// ErrDuplicateKey is returned by Insert when the key is already present.
var ErrDuplicateKey = errors.New("index: duplicate key")

// Locator identifies where a full record lives in the backing record store.
type Locator int64

// Entry is one stored (key, locator) pair.
type Entry struct {
	Key   int64
	Value Locator
}

// Index is the common interface for all implementations.
//
// Absence of a key is a normal outcome: Search and Delete report it through
// their boolean result. Insert rejects keys that are already present with
// ErrDuplicateKey; Upsert overwrites them.
type Index interface {
	Insert(key int64, value Locator) error
	Upsert(key int64, value Locator) (prev Locator, replaced bool)
	Search(key int64) (Locator, bool)
	Delete(key int64) bool
	Scan() []Entry
	Range(start, end int64) Iterator
	Len() int

	SaveTo(path string) error
	LoadFrom(path string) error
}
