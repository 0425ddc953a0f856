// Package csvstore keeps students in a plain CSV file, one row per student:
//
//	id,name,major,level,age,recordID
//
// Rows with the wrong number of fields or unparsable numbers are skipped on
// load and preserved on rewrite.
package csvstore

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/student-index/sidx/records"
)

var _ records.Store = (*Store)(nil)

const fields = 6

type Store struct {
	path string
	log  *zap.Logger
}

// Open returns a store backed by path. A missing file is treated as an empty
// store and created on first write.
func Open(path string, log *zap.Logger) (*Store, error) {
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return nil, errors.Newf("csvstore: %s is a directory", path)
	}
	return &Store{path: path, log: log.Named("csvstore")}, nil
}

func (s *Store) Load() ([]records.Student, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}
	out := make([]records.Student, 0, len(rows))
	for i, row := range rows {
		st, err := decode(row)
		if err != nil {
			s.log.Warn("skipping malformed row", zap.Int("line", i+1), zap.Error(err))
			continue
		}
		out = append(out, st)
	}
	s.log.Debug("loaded students", zap.String("path", s.path), zap.Int("count", len(out)))
	return out, nil
}

func (s *Store) Put(st records.Student) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "csvstore: open %s", s.path)
	}
	w := csv.NewWriter(f)
	if err := w.Write(encode(st)); err != nil {
		f.Close()
		return errors.Wrap(err, "csvstore: append")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrap(err, "csvstore: append")
	}
	return errors.Wrap(f.Close(), "csvstore: close")
}

// Remove rewrites the file without the rows for id.
func (s *Store) Remove(id int64) error {
	rows, err := s.readRows()
	if err != nil {
		return err
	}
	want := strconv.FormatInt(id, 10)
	keep := rows[:0]
	for _, row := range rows {
		if len(row) > 0 && row[0] == want {
			continue
		}
		keep = append(keep, row)
	}
	if len(keep) == len(rows) {
		return errors.Wrapf(records.ErrNotFound, "id %d", id)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "csvstore: create %s", tmp)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(keep); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "csvstore: rewrite")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "csvstore: close")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "csvstore: rename")
}

func (s *Store) Close() error { return nil }

func (s *Store) readRows() ([][]string, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "csvstore: open %s", s.path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "csvstore: read %s", s.path)
		}
		rows = append(rows, row)
	}
}

func encode(st records.Student) []string {
	return []string{
		strconv.FormatInt(st.ID, 10),
		st.Name,
		st.Major,
		st.Level,
		strconv.Itoa(st.Age),
		strconv.FormatInt(st.RecordID, 10),
	}
}

func decode(row []string) (records.Student, error) {
	if len(row) != fields {
		return records.Student{}, errors.Newf("want %d fields, got %d", fields, len(row))
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return records.Student{}, errors.Wrap(err, "id")
	}
	age, err := strconv.Atoi(row[4])
	if err != nil {
		return records.Student{}, errors.Wrap(err, "age")
	}
	rid, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return records.Student{}, errors.Wrap(err, "recordID")
	}
	return records.Student{
		ID:       id,
		Name:     row[1],
		Major:    row[2],
		Level:    row[3],
		Age:      age,
		RecordID: rid,
	}, nil
}
