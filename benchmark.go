package main

import (
	"encoding/csv"
	"runtime"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/student-index/sidx/index"
	"github.com/student-index/sidx/index/bplustree"
)

// BenchResult is one row of the results file. The shape columns stay zero
// for indexes that are not trees.
type BenchResult struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	Heap      HeapSample
	Shape     bplustree.Stats
}

// HeapSample is the live heap after a forced collection.
type HeapSample struct {
	AllocMB uint64
	Objects uint64
}

func sampleHeap() HeapSample {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return HeapSample{AllocMB: m.Alloc >> 20, Objects: m.HeapObjects}
}

// shapeOf reports the structure of idx if it exposes tree statistics.
func shapeOf(idx index.Index) bplustree.Stats {
	if s, ok := idx.(interface{ Stats() bplustree.Stats }); ok {
		return s.Stats()
	}
	return bplustree.Stats{}
}

var resultHeader = []string{
	"Structure", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects",
	"Height", "Nodes", "Splits", "Merges", "Borrows",
}

func (r BenchResult) row() []string {
	return []string{
		r.Name,
		r.Config,
		r.Operation,
		strconv.FormatInt(r.LatencyNs, 10),
		strconv.FormatUint(r.Heap.AllocMB, 10),
		strconv.FormatUint(r.Heap.Objects, 10),
		strconv.Itoa(r.Shape.Height),
		strconv.Itoa(r.Shape.Nodes),
		strconv.FormatUint(r.Shape.Splits, 10),
		strconv.FormatUint(r.Shape.Merges, 10),
		strconv.FormatUint(r.Shape.BorrowsLeft+r.Shape.BorrowsRight, 10),
	}
}

// Record writes res as a CSV row.
func Record(w *csv.Writer, res BenchResult) error {
	return errors.Wrapf(w.Write(res.row()), "record %s %s", res.Name, res.Operation)
}
