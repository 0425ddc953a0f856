package bplustree

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"

	"github.com/student-index/sidx/index"
)

func mustNew(t *testing.T, degree int) *Tree {
	t.Helper()
	bt, err := New(degree)
	if err != nil {
		t.Fatalf("New(%d): %v", degree, err)
	}
	return bt
}

func mustCheck(t *testing.T, bt *Tree) {
	t.Helper()
	if err := bt.Check(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func mustInsert(t *testing.T, bt *Tree, keys ...int64) {
	t.Helper()
	for _, k := range keys {
		if err := bt.Insert(k, index.Locator(k*100)); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
		mustCheck(t, bt)
	}
}

func keysOf(entries []index.Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestNewRejectsSmallDegree(t *testing.T) {
	for _, d := range []int{-1, 0, 1} {
		if _, err := New(d); !errors.Is(err, ErrInvalidDegree) {
			t.Errorf("New(%d) = %v, want ErrInvalidDegree", d, err)
		}
	}
}

func TestEmptyTree(t *testing.T) {
	bt := mustNew(t, 2)
	if _, ok := bt.Search(42); ok {
		t.Fatal("search on empty tree found a key")
	}
	if bt.Delete(42) {
		t.Fatal("delete on empty tree reported success")
	}
	if got := bt.Scan(); len(got) != 0 {
		t.Fatalf("scan of empty tree = %v", got)
	}
	if h := bt.Height(); h != 0 {
		t.Fatalf("height = %d, want 0", h)
	}
	mustCheck(t, bt)
}

// With t=2 the root leaf fills after three inserts and the tree grows to two
// levels before the fifth insert completes. The tree is then emptied again.
func TestInsertThenDeleteAll(t *testing.T) {
	bt := mustNew(t, 2)
	keys := []int64{10, 20, 5, 6, 12, 30, 7, 17}

	for i, k := range keys {
		mustInsert(t, bt, k)
		switch i + 1 {
		case 3:
			if h := bt.Height(); h != 1 {
				t.Fatalf("height after 3 inserts = %d, want 1", h)
			}
		case 5:
			if h := bt.Height(); h != 2 {
				t.Fatalf("height after 5 inserts = %d, want 2", h)
			}
		}
	}

	want := []index.Entry{
		{Key: 5, Value: 500}, {Key: 6, Value: 600}, {Key: 7, Value: 700}, {Key: 10, Value: 1000},
		{Key: 12, Value: 1200}, {Key: 17, Value: 1700}, {Key: 20, Value: 2000}, {Key: 30, Value: 3000},
	}
	if got := bt.Scan(); !slices.Equal(got, want) {
		t.Fatalf("scan mismatch:\n%s", strings.Join(pretty.Diff(want, got), "\n"))
	}
	for _, e := range want {
		if v, ok := bt.Search(e.Key); !ok || v != e.Value {
			t.Errorf("Search(%d) = %d, %v; want %d", e.Key, v, ok, e.Value)
		}
	}
	if st := bt.Stats(); st.Splits != 3 || st.Height != 2 || st.Keys != 8 {
		t.Errorf("stats = %+v", st)
	}

	// Delete from a leaf that has a key to spare.
	if !bt.Delete(6) {
		t.Fatal("Delete(6) = false")
	}
	mustCheck(t, bt)
	wantKeys := []int64{5, 7, 10, 12, 17, 20, 30}
	if got := keysOf(bt.Scan()); !slices.Equal(got, wantKeys) {
		t.Fatalf("keys after delete = %v, want %v", got, wantKeys)
	}
	if _, ok := bt.Search(6); ok {
		t.Fatal("deleted key still found")
	}

	// Delete everything ascending.
	for _, k := range wantKeys {
		if !bt.Delete(k) {
			t.Fatalf("Delete(%d) = false", k)
		}
		mustCheck(t, bt)
	}
	if bt.Len() != 0 || bt.Height() != 0 {
		t.Fatalf("tree not empty: len=%d height=%d", bt.Len(), bt.Height())
	}
	for _, k := range keys {
		if _, ok := bt.Search(k); ok {
			t.Fatalf("Search(%d) found a key in an empty tree", k)
		}
	}
	if n := bt.Stats().Nodes; n != 0 {
		t.Fatalf("%d nodes still live", n)
	}
}

func TestInsertDuplicateRejected(t *testing.T) {
	bt := mustNew(t, 3)
	mustInsert(t, bt, 1, 2, 3)

	err := bt.Insert(2, 999)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("Insert duplicate = %v, want ErrDuplicateKey", err)
	}
	if v, _ := bt.Search(2); v != 200 {
		t.Fatalf("duplicate insert changed value to %d", v)
	}
	if bt.Len() != 3 {
		t.Fatalf("len = %d, want 3", bt.Len())
	}
	mustCheck(t, bt)
}

func TestUpsert(t *testing.T) {
	bt := mustNew(t, 2)
	if _, replaced := bt.Upsert(7, 70); replaced {
		t.Fatal("upsert of new key reported a replacement")
	}
	mustInsert(t, bt, 1, 2, 3, 4, 5)
	prev, replaced := bt.Upsert(7, 71)
	if !replaced || prev != 70 {
		t.Fatalf("Upsert = %d, %v; want 70, true", prev, replaced)
	}
	if v, _ := bt.Search(7); v != 71 {
		t.Fatalf("Search(7) = %d, want 71", v)
	}
	if bt.Len() != 6 {
		t.Fatalf("len = %d, want 6", bt.Len())
	}
	mustCheck(t, bt)
}

func TestDeleteAbsentKeyLeavesTreeUnchanged(t *testing.T) {
	bt := mustNew(t, 2)
	mustInsert(t, bt, 10, 20, 30, 40, 50, 60, 70)
	before := bt.Scan()
	st := bt.Stats()

	for _, k := range []int64{0, 15, 45, 100} {
		if bt.Delete(k) {
			t.Fatalf("Delete(%d) = true for absent key", k)
		}
	}
	if got := bt.Scan(); !slices.Equal(got, before) {
		t.Fatalf("scan changed:\n%s", strings.Join(pretty.Diff(before, got), "\n"))
	}
	if got := bt.Stats(); got != st {
		t.Fatalf("stats changed: %+v -> %+v", st, got)
	}
}

func TestDeleteBorrowFromRight(t *testing.T) {
	bt := mustNew(t, 2)
	mustInsert(t, bt, 1, 2, 3, 4) // [2] -> [1] [2 3 4]

	if !bt.Delete(1) {
		t.Fatal("Delete(1) = false")
	}
	mustCheck(t, bt)
	if got := bt.Stats().BorrowsRight; got != 1 {
		t.Fatalf("borrows from right = %d, want 1", got)
	}
	if got := bt.node(bt.root).keys; !slices.Equal(got, []int64{3}) {
		t.Fatalf("root keys = %v, want [3]", got)
	}
	if got := keysOf(bt.Scan()); !slices.Equal(got, []int64{2, 3, 4}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestDeleteBorrowFromLeft(t *testing.T) {
	bt := mustNew(t, 2)
	mustInsert(t, bt, 10, 20, 30, 40, 5) // [20] -> [5 10] [20 30 40]
	for _, k := range []int64{30, 40} {
		bt.Delete(k)
		mustCheck(t, bt)
	}

	if !bt.Delete(20) {
		t.Fatal("Delete(20) = false")
	}
	mustCheck(t, bt)
	if got := bt.Stats().BorrowsLeft; got != 1 {
		t.Fatalf("borrows from left = %d, want 1", got)
	}
	if got := bt.node(bt.root).keys; !slices.Equal(got, []int64{10}) {
		t.Fatalf("root keys = %v, want [10]", got)
	}
	if got := keysOf(bt.Scan()); !slices.Equal(got, []int64{5, 10}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestDeleteMergeShrinksHeight(t *testing.T) {
	bt := mustNew(t, 2)
	mustInsert(t, bt, 1, 2, 3, 4) // [2] -> [1] [2 3 4]
	bt.Delete(4)
	bt.Delete(3) // [2] -> [1] [2]
	mustCheck(t, bt)
	if h := bt.Height(); h != 2 {
		t.Fatalf("height = %d, want 2", h)
	}

	if !bt.Delete(1) {
		t.Fatal("Delete(1) = false")
	}
	mustCheck(t, bt)
	st := bt.Stats()
	if st.Merges != 1 || st.Height != 1 || st.Nodes != 1 {
		t.Fatalf("stats = %+v, want one merge and a single leaf", st)
	}
	if got := keysOf(bt.Scan()); !slices.Equal(got, []int64{2}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestDeleteSeparatorKeyIsReplaced(t *testing.T) {
	bt := mustNew(t, 2)
	mustInsert(t, bt, 1, 2, 3, 4) // [2] -> [1] [2 3 4]

	if !bt.Delete(2) {
		t.Fatal("Delete(2) = false")
	}
	mustCheck(t, bt)
	if got := bt.node(bt.root).keys; !slices.Equal(got, []int64{3}) {
		t.Fatalf("root keys = %v, want successor [3]", got)
	}
}

func TestDeleteDescendingAndInterleaved(t *testing.T) {
	for _, degree := range []int{2, 3, 5} {
		bt := mustNew(t, degree)
		for k := int64(0); k < 300; k++ {
			mustInsert(t, bt, k)
		}
		// odd keys from the top, then even keys from the bottom
		for k := int64(299); k >= 0; k -= 2 {
			if !bt.Delete(k) {
				t.Fatalf("t=%d Delete(%d) = false", degree, k)
			}
			mustCheck(t, bt)
		}
		for k := int64(0); k < 300; k += 2 {
			if !bt.Delete(k) {
				t.Fatalf("t=%d Delete(%d) = false", degree, k)
			}
			mustCheck(t, bt)
		}
		if bt.Len() != 0 {
			t.Fatalf("t=%d len = %d after deleting everything", degree, bt.Len())
		}
	}
}

func TestArenaReusesReleasedNodes(t *testing.T) {
	bt := mustNew(t, 2)
	slots := 0
	for round := 0; round < 5; round++ {
		for k := int64(0); k < 100; k++ {
			mustInsert(t, bt, k)
		}
		for k := int64(0); k < 100; k++ {
			bt.Delete(k)
		}
		if round == 0 {
			slots = len(bt.nodes.nodes)
		}
	}
	mustCheck(t, bt)
	if n := len(bt.nodes.nodes); n != slots {
		t.Fatalf("arena grew from %d to %d slots", slots, n)
	}
}

func TestLocators(t *testing.T) {
	bt := mustNew(t, 3)
	mustInsert(t, bt, 3, 1, 2)
	want := []index.Locator{100, 200, 300}
	if got := bt.Locators(); !slices.Equal(got, want) {
		t.Fatalf("Locators() = %v, want %v", got, want)
	}
}

func TestSaveAndLoad(t *testing.T) {
	bt := mustNew(t, 3)
	for k := int64(0); k < 200; k++ {
		mustInsert(t, bt, k*3)
	}
	path := filepath.Join(t.TempDir(), "tree.snap")
	if err := bt.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := mustNew(t, 2)
	mustInsert(t, loaded, 1)
	if err := loaded.LoadFrom(path); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	mustCheck(t, loaded)
	if want, got := bt.Scan(), loaded.Scan(); !slices.Equal(want, got) {
		t.Fatalf("loaded tree differs:\n%s", strings.Join(pretty.Diff(want, got), "\n"))
	}
}

func TestExportDOT(t *testing.T) {
	bt := mustNew(t, 2)
	mustInsert(t, bt, 1, 2, 3, 4, 5, 6)

	var buf bytes.Buffer
	if err := bt.ExportDOT(&buf); err != nil {
		t.Fatalf("ExportDOT: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"digraph BPlusTree {", "LEAF", "NODE", "style=dashed"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q", want)
		}
	}
}
