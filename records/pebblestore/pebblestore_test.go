package pebblestore

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"
	"go.uber.org/zap"

	"github.com/student-index/sidx/records"
)

func TestStore(t *testing.T) {
	s, err := OpenInMemory(zap.NewNop())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer s.Close()

	students := []records.Student{
		{ID: 30, Name: "Cy Park", Major: "Art", Level: "Senior", Age: 24, RecordID: 3},
		{ID: -5, Name: "Di Ng", Major: "CS", Level: "Junior", Age: 19, RecordID: 4},
		{ID: 7, Name: "Ed Roe", Major: "Math", Level: "Graduate", Age: 29, RecordID: 5},
	}
	for _, st := range students {
		if err := s.Put(st); err != nil {
			t.Fatalf("Put(%d): %v", st.ID, err)
		}
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Load returns students in id order, negative ids first.
	want := []records.Student{students[1], students[2], students[0]}
	if diff := pretty.Diff(want, got); len(diff) != 0 {
		t.Fatalf("Load mismatch: %v", diff)
	}

	if err := s.Remove(7); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(7); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("second Remove = %v, want ErrNotFound", err)
	}
	got, _ = s.Load()
	if len(got) != 2 {
		t.Fatalf("Load after remove returned %d students", len(got))
	}
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	alice := records.Student{ID: 1, Name: "Alice", Major: "CS", Level: "Junior", Age: 20, RecordID: 99}
	if err := s.Put(alice); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0] != alice {
		t.Fatalf("Load after reopen = %v", got)
	}
}

func TestKeyEncodingPreservesOrder(t *testing.T) {
	ids := []int64{-1 << 63, -2, -1, 0, 1, 2, 1<<63 - 1}
	for i := 1; i < len(ids); i++ {
		a, b := encodeKey(ids[i-1]), encodeKey(ids[i])
		if string(a) >= string(b) {
			t.Fatalf("encodeKey(%d) >= encodeKey(%d)", ids[i-1], ids[i])
		}
		if back, _ := decodeKey(b); back != ids[i] {
			t.Fatalf("decodeKey(encodeKey(%d)) = %d", ids[i], back)
		}
	}
}
