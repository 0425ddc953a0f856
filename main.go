// Benchmark driver: sweeps the B+ tree's minimum degree against a sorted-list
// baseline and writes latency and memory figures to CSV and PNG plots.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"github.com/student-index/sidx/index"
	"github.com/student-index/sidx/index/bplustree"
	"github.com/student-index/sidx/index/sortedlist"
)

func main() {
	scale := flag.Int("n", 200000, "keys loaded before the workloads run")
	out := flag.String("out", "final_thesis_results.csv", "results file")
	plots := flag.String("plots", ".", "directory for latency plots, empty to skip")
	dot := flag.String("dot", "", "write a Graphviz dump of a small tree to this file")
	flag.Parse()

	if err := smokeTest(*dot); err != nil {
		color.Red("smoke test failed: %v", err)
		os.Exit(1)
	}
	if err := run(*scale, *out, *plots); err != nil {
		color.Red("benchmark failed: %v", err)
		os.Exit(1)
	}
	fmt.Println("Benchmark complete. Data ready for analysis.")
}

var degrees = []int{2, 8, 32, 128}

func run(scale int, out, plots string) error {
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create results file")
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(resultHeader); err != nil {
		return errors.Wrap(err, "write results header")
	}

	var results []BenchResult
	for _, d := range degrees {
		tree, err := bplustree.New(d)
		if err != nil {
			return err
		}
		res, err := runSuite(w, "BPlusTree", strconv.Itoa(d), tree, scale)
		if err != nil {
			return err
		}
		results = append(results, res...)
		color.Cyan("  %+v", tree.Stats())
	}
	res, err := runSuite(w, "SortedList", "-", sortedlist.New(), scale)
	if err != nil {
		return err
	}
	results = append(results, res...)

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "write results")
	}

	if plots == "" {
		return nil
	}
	for _, op := range []WorkloadType{OLTP, OLAP, Churn, Reporting} {
		path := filepath.Join(plots, "latency_"+slug(op)+".png")
		if err := PlotLatency(path, results, "Workload_"+string(op), degrees); err != nil {
			return err
		}
	}
	return nil
}

func runSuite(w *csv.Writer, name, conf string, i index.Index, n int) ([]BenchResult, error) {
	fmt.Printf("Testing %s (Config: %s)\n", name, conf)
	rng := rand.New(rand.NewPCG(1, 2))
	var results []BenchResult
	record := func(op string, start time.Time, ops int) error {
		res := BenchResult{
			Name:      name,
			Config:    conf,
			Operation: op,
			LatencyNs: time.Since(start).Nanoseconds() / int64(ops),
			Heap:      sampleHeap(),
			Shape:     shapeOf(i),
		}
		results = append(results, res)
		return Record(w, res)
	}

	// Initial load.
	start := time.Now()
	for k := 0; k < n; k++ {
		i.Insert(int64(k), index.Locator(k))
	}
	if err := record("Footprint_SteadyState", start, n); err != nil {
		return nil, err
	}

	workloads := []struct {
		wType WorkloadType
		ops   int
	}{
		{OLTP, n / 2},
		{OLAP, n / 2},
		{Churn, n / 10},
		{Reporting, 100},
	}
	for _, wl := range workloads {
		start = time.Now()
		ExecuteWorkload(i, wl.wType, wl.ops, n, rng)
		if err := record("Workload_"+string(wl.wType), start, wl.ops); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// smokeTest grows a small tree over several levels and checks lookups, a
// range scan and the structural invariants before the timed runs.
func smokeTest(dotPath string) error {
	tree, err := bplustree.New(3)
	if err != nil {
		return err
	}
	for k := int64(1); k <= 50; k++ {
		if err := tree.Insert(k*10, index.Locator(k)); err != nil {
			return err
		}
	}
	if h := tree.Height(); h < 3 {
		return errors.Newf("height %d after 50 inserts", h)
	}
	if v, ok := tree.Search(250); !ok || v != 25 {
		return errors.Newf("Search(250) = %d, %v", v, ok)
	}
	it := tree.Range(100, 150)
	n := 0
	for it.Next() {
		n++
	}
	it.Close()
	if n != 6 {
		return errors.Newf("Range(100, 150) returned %d keys", n)
	}
	for k := int64(1); k <= 50; k += 2 {
		tree.Delete(k * 10)
	}
	if err := tree.Check(); err != nil {
		return err
	}
	if dotPath == "" {
		return nil
	}
	f, err := os.Create(dotPath)
	if err != nil {
		return errors.Wrap(err, "create dot file")
	}
	defer f.Close()
	return tree.ExportDOT(f)
}

func slug(w WorkloadType) string {
	switch w {
	case OLTP:
		return "oltp"
	case OLAP:
		return "olap"
	case Churn:
		return "churn"
	default:
		return "range"
	}
}
