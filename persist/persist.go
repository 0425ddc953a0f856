// Package persist writes and reads index snapshots: the ordered (key,
// locator) export of an index, compressed with the snappy framing format.
//
// Snapshot layout (before compression):
//
//	[0-3]   magic "SIDX"
//	[4-5]   uint16  format version
//	[6-13]  uint64  entry count
//	[14+]   entries, 16 bytes each: int64 key, int64 locator
//
// All integers are little-endian. Entries are strictly ascending by key.
package persist

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"

	"github.com/student-index/sidx/index"
)

const (
	version    = 1
	headerSize = 4 + 2 + 8
	entrySize  = 16
)

var magic = [4]byte{'S', 'I', 'D', 'X'}

// ErrCorrupt is returned when a snapshot cannot be decoded.
var ErrCorrupt = errors.New("persist: corrupt snapshot")

// Save writes entries to path, replacing any existing file. The file is
// written to a temporary name first and renamed into place.
func Save(path string, entries []index.Entry) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "persist: create %s", tmp)
	}
	if err := Write(f, entries); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "persist: sync")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "persist: close")
	}
	return errors.Wrap(os.Rename(tmp, path), "persist: rename")
}

// Load reads a snapshot written by Save.
func Load(path string) ([]index.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "persist: open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes entries to w.
func Write(w io.Writer, entries []index.Entry) error {
	sw := snappy.NewBufferedWriter(w)

	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], version)
	binary.LittleEndian.PutUint64(hdr[6:14], uint64(len(entries)))
	if _, err := sw.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "persist: write header")
	}

	var buf [entrySize]byte
	for _, e := range entries {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(e.Key))
		binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Value))
		if _, err := sw.Write(buf[:]); err != nil {
			return errors.Wrap(err, "persist: write entry")
		}
	}
	return errors.Wrap(sw.Close(), "persist: flush")
}

// Read decodes a snapshot from r.
func Read(r io.Reader) ([]index.Entry, error) {
	br := bufio.NewReader(snappy.NewReader(r))

	var hdr [headerSize]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "persist: read header"), ErrCorrupt)
	}
	if [4]byte(hdr[:4]) != magic {
		return nil, errors.Wrapf(ErrCorrupt, "bad magic %q", hdr[:4])
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != version {
		return nil, errors.Wrapf(ErrCorrupt, "unsupported version %d", v)
	}
	n := binary.LittleEndian.Uint64(hdr[6:14])

	entries := make([]index.Entry, 0, min(n, 1<<20))
	var buf [entrySize]byte
	for i := uint64(0); i < n; i++ {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "persist: read entry %d of %d", i, n), ErrCorrupt)
		}
		e := index.Entry{
			Key:   int64(binary.LittleEndian.Uint64(buf[0:8])),
			Value: index.Locator(binary.LittleEndian.Uint64(buf[8:16])),
		}
		if len(entries) > 0 && e.Key <= entries[len(entries)-1].Key {
			return nil, errors.Wrapf(ErrCorrupt, "entry %d out of order", i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
