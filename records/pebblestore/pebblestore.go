// Package pebblestore keeps students in a Pebble database.
//
// Keys are the student id encoded as 8 big-endian bytes with the sign bit
// flipped, so that Pebble's byte order matches numeric order.
//
// Value format:
//
//	[0-7]   int64   record locator
//	[8-9]   uint16  age
//	then name, major, level, each as uint16 length + bytes
package pebblestore

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"

	"github.com/student-index/sidx/logging"
	"github.com/student-index/sidx/records"
)

var _ records.Store = (*Store)(nil)

type Store struct {
	db  *pebble.DB
	log *zap.Logger
}

// Open opens (or creates) a Pebble database at dir.
func Open(dir string, log *zap.Logger) (*Store, error) {
	return open(dir, vfs.Default, log)
}

// OpenInMemory opens a store whose files live in memory.
func OpenInMemory(log *zap.Logger) (*Store, error) {
	return open("", vfs.NewMem(), log)
}

func open(dir string, fs vfs.FS, log *zap.Logger) (*Store, error) {
	log = log.Named("pebblestore")
	opts := &pebble.Options{
		FS:                          fs,
		MemTableSize:                4 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
		Logger:                      logging.Pebble(log),
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "pebblestore: open %q", dir)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Load() ([]records.Student, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "pebblestore: iterate")
	}
	var out []records.Student
	for valid := iter.First(); valid; valid = iter.Next() {
		st, err := decode(iter.Key(), iter.Value())
		if err != nil {
			s.log.Warn("skipping undecodable record", zap.Binary("key", iter.Key()), zap.Error(err))
			continue
		}
		out = append(out, st)
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return nil, errors.Wrap(err, "pebblestore: iterate")
	}
	return out, errors.Wrap(iter.Close(), "pebblestore: close iterator")
}

func (s *Store) Put(st records.Student) error {
	val, err := encodeValue(st)
	if err != nil {
		return err
	}
	return errors.Wrap(s.db.Set(encodeKey(st.ID), val, pebble.Sync), "pebblestore: set")
}

func (s *Store) Remove(id int64) error {
	key := encodeKey(id)
	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return errors.Wrapf(records.ErrNotFound, "id %d", id)
	}
	if err != nil {
		return errors.Wrap(err, "pebblestore: get")
	}
	closer.Close()
	return errors.Wrap(s.db.Delete(key, pebble.Sync), "pebblestore: delete")
}

// Close cleanly shuts down Pebble, flushing any in-memory state.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Encoding ────────────────────────────────────────────────────────────────

func encodeKey(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id)^(1<<63))
	return b
}

func decodeKey(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, errors.Newf("key length %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63)), nil
}

func encodeValue(st records.Student) ([]byte, error) {
	if st.Age < 0 || st.Age > math.MaxUint16 {
		return nil, errors.Newf("pebblestore: age %d out of range", st.Age)
	}
	strs := []string{st.Name, st.Major, st.Level}
	size := 10
	for _, s := range strs {
		if len(s) > math.MaxUint16 {
			return nil, errors.Newf("pebblestore: field of %d bytes too long", len(s))
		}
		size += 2 + len(s)
	}
	b := make([]byte, 10, size)
	binary.LittleEndian.PutUint64(b[0:8], uint64(st.RecordID))
	binary.LittleEndian.PutUint16(b[8:10], uint16(st.Age))
	for _, s := range strs {
		b = binary.LittleEndian.AppendUint16(b, uint16(len(s)))
		b = append(b, s...)
	}
	return b, nil
}

func decode(key, val []byte) (records.Student, error) {
	id, err := decodeKey(key)
	if err != nil {
		return records.Student{}, err
	}
	if len(val) < 10 {
		return records.Student{}, errors.Newf("value length %d", len(val))
	}
	st := records.Student{
		ID:       id,
		RecordID: int64(binary.LittleEndian.Uint64(val[0:8])),
		Age:      int(binary.LittleEndian.Uint16(val[8:10])),
	}
	rest := val[10:]
	var strs [3]string
	for i := range strs {
		if len(rest) < 2 {
			return records.Student{}, errors.New("truncated string length")
		}
		n := int(binary.LittleEndian.Uint16(rest))
		rest = rest[2:]
		if len(rest) < n {
			return records.Student{}, errors.New("truncated string")
		}
		strs[i] = string(rest[:n])
		rest = rest[n:]
	}
	st.Name, st.Major, st.Level = strs[0], strs[1], strs[2]
	return st, nil
}
