// Package records defines the student record kept in the backing store and
// the store contract the command layer persists through.
package records

import (
	"math"
	"math/rand/v2"

	"github.com/cockroachdb/errors"
	"github.com/go-faker/faker/v4"

	"github.com/student-index/sidx/index"
)

// ErrNotFound is returned by Store.Remove when no record has the given id.
var ErrNotFound = errors.New("records: student not found")

// Student is one row of the record store. RecordID is the locator the index
// maps the student id to.
type Student struct {
	ID       int64
	Name     string
	Major    string
	Level    string
	Age      int
	RecordID int64
}

func (s Student) Locator() index.Locator { return index.Locator(s.RecordID) }

// Store persists students outside the index.
type Store interface {
	// Load returns every stored student. Unreadable rows are skipped.
	Load() ([]Student, error)
	Put(s Student) error
	Remove(id int64) error
	Close() error
}

// NewLocator returns a random positive record locator.
func NewLocator(rng *rand.Rand) int64 {
	return rng.Int64N(math.MaxInt64) + 1
}

var (
	majors = []string{"CS", "Math", "Physics", "Biology", "History", "Economics", "Art"}
	levels = []string{"Freshman", "Sophomore", "Junior", "Senior", "Graduate"}
)

// Fake generates n students with distinct ids and generated names.
func Fake(rng *rand.Rand, n int) []Student {
	seen := make(map[int64]struct{}, n)
	out := make([]Student, 0, n)
	for len(out) < n {
		id := 10_000_000 + rng.Int64N(90_000_000)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Student{
			ID:       id,
			Name:     faker.FirstName() + " " + faker.LastName(),
			Major:    majors[rng.IntN(len(majors))],
			Level:    levels[rng.IntN(len(levels))],
			Age:      17 + rng.IntN(14),
			RecordID: NewLocator(rng),
		})
	}
	return out
}
