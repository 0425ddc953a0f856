// Package command executes a stream of student index operations against an
// index and keeps the record store in step with it.
//
// Each input line holds one or more whitespace-separated operations:
//
//	insert <id> <first> <last> <major> <level> <age> [recordID]
//	delete <id>
//	search <id>
//	print
//	range <lo> <hi>
//	stats
//	check
//	tree
//	save <path>
//
// A missing recordID is generated. Successful inserts and deletes are written
// through to the store.
package command

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/student-index/sidx/index"
	"github.com/student-index/sidx/index/bplustree"
	"github.com/student-index/sidx/metrics"
	"github.com/student-index/sidx/records"
)

// ErrUsage marks a malformed operation.
var ErrUsage = errors.New("command: malformed operation")

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	infoColor = color.New(color.FgCyan)
)

// Options configures a Processor. Zero values are replaced with defaults.
type Options struct {
	Out     io.Writer
	Log     *zap.Logger
	Rand    *rand.Rand
	Metrics *metrics.Metrics
}

type Processor struct {
	idx     index.Index
	store   records.Store
	out     io.Writer
	log     *zap.Logger
	rng     *rand.Rand
	metrics *metrics.Metrics
}

func New(idx index.Index, store records.Store, opts Options) *Processor {
	p := &Processor{
		idx:     idx,
		store:   store,
		out:     opts.Out,
		log:     opts.Log,
		rng:     opts.Rand,
		metrics: opts.Metrics,
	}
	if p.out == nil {
		p.out = io.Discard
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p.log = p.log.Named("command")
	return p
}

// Bootstrap loads previously stored students into the index. Students whose
// id is already indexed are skipped.
func (p *Processor) Bootstrap(students []records.Student) (loaded int) {
	for _, s := range students {
		if err := p.idx.Insert(s.ID, s.Locator()); err != nil {
			p.log.Warn("skipping stored student", zap.Int64("id", s.ID), zap.Error(err))
			continue
		}
		loaded++
	}
	p.log.Info("bootstrapped index", zap.Int("loaded", loaded), zap.Int("stored", len(students)))
	return loaded
}

// Seed inserts n generated students into the index and the store.
func (p *Processor) Seed(n int) (int, error) {
	added := 0
	for _, s := range records.Fake(p.rng, n) {
		if _, exists := p.idx.Search(s.ID); exists {
			continue
		}
		if err := p.idx.Insert(s.ID, s.Locator()); err != nil {
			return added, err
		}
		if err := p.store.Put(s); err != nil {
			p.idx.Delete(s.ID)
			return added, err
		}
		added++
	}
	return added, nil
}

// Run executes every operation read from r. Malformed operations are
// reported and skipped; only a read error stops the run.
func (p *Processor) Run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		toks := &tokens{fields: strings.Fields(sc.Text())}
		for !toks.done() {
			op, _ := toks.next()
			if err := p.exec(strings.ToLower(op), toks); err != nil {
				p.log.Warn("operation failed", zap.Int("line", lineNo), zap.String("op", op), zap.Error(err))
				if errors.Is(err, ErrUsage) {
					failColor.Fprintf(p.out, "Invalid %s operation: %v\n", op, err)
					break
				}
			}
		}
	}
	return errors.Wrap(sc.Err(), "command: read input")
}

func (p *Processor) exec(op string, toks *tokens) error {
	switch op {
	case "insert":
		return p.insertOp(toks)
	case "delete":
		return p.deleteOp(toks)
	case "search":
		return p.searchOp(toks)
	case "print":
		fmt.Fprintf(p.out, "List of recordIDs in B+Tree %s\n", formatList(p.locators()))
		p.observe("print", metrics.ResultOK)
		return nil
	case "range":
		return p.rangeOp(toks)
	case "stats":
		return p.stats()
	case "check":
		return p.check()
	case "tree":
		return p.treeOp()
	case "save":
		return p.save(toks)
	default:
		fmt.Fprintln(p.out, "Wrong Operation")
		return nil
	}
}

func (p *Processor) insertOp(toks *tokens) error {
	id, err := toks.integer()
	if err != nil {
		return err
	}
	var fields [4]string
	for i := range fields {
		if fields[i], err = toks.word(); err != nil {
			return err
		}
	}
	age, err := toks.integer()
	if err != nil {
		return err
	}
	rid, ok := toks.optionalInt64()
	if !ok {
		rid = records.NewLocator(p.rng)
	}

	s := records.Student{
		ID:       id,
		Name:     fields[0] + " " + fields[1],
		Major:    fields[2],
		Level:    fields[3],
		Age:      int(age),
		RecordID: rid,
	}
	if err := p.idx.Insert(s.ID, s.Locator()); err != nil {
		p.observe("insert", metrics.ResultError)
		if errors.Is(err, index.ErrDuplicateKey) {
			failColor.Fprintf(p.out, "Student insertion failed (Id: %d): already exists.\n", id)
		} else {
			failColor.Fprintf(p.out, "Student insertion failed (Id: %d): %v\n", id, err)
		}
		return err
	}
	if err := p.store.Put(s); err != nil {
		p.log.Error("store append failed", zap.Int64("id", id), zap.Error(err))
		failColor.Fprintf(p.out, "Record store append failed: %v\n", err)
	}
	p.observe("insert", metrics.ResultOK)
	okColor.Fprintf(p.out, "Student inserted successfully (Id: %d).\n", id)
	return nil
}

func (p *Processor) deleteOp(toks *tokens) error {
	id, err := toks.integer()
	if err != nil {
		return err
	}
	if !p.idx.Delete(id) {
		p.observe("delete", metrics.ResultNotFound)
		failColor.Fprintf(p.out, "Student deletion failed (Id: %d).\n", id)
		return nil
	}
	p.observe("delete", metrics.ResultOK)
	okColor.Fprintf(p.out, "Student deleted successfully (Id: %d).\n", id)
	if err := p.store.Remove(id); err != nil {
		p.log.Error("store remove failed", zap.Int64("id", id), zap.Error(err))
		failColor.Fprintf(p.out, "Record store remove failed: %v\n", err)
	}
	return nil
}

func (p *Processor) searchOp(toks *tokens) error {
	id, err := toks.integer()
	if err != nil {
		return err
	}
	loc, ok := p.idx.Search(id)
	if !ok {
		p.observe("search", metrics.ResultNotFound)
		fmt.Fprintf(p.out, "Student does not exist (Id: %d).\n", id)
		return nil
	}
	p.observe("search", metrics.ResultOK)
	fmt.Fprintf(p.out, "Student exists in the database at %d\n", loc)
	return nil
}

func (p *Processor) rangeOp(toks *tokens) error {
	lo, err := toks.integer()
	if err != nil {
		return err
	}
	hi, err := toks.integer()
	if err != nil {
		return err
	}
	it := p.idx.Range(lo, hi)
	defer it.Close()
	var pairs []string
	for it.Next() {
		pairs = append(pairs, fmt.Sprintf("(%d, %d)", it.Key(), it.Value()))
	}
	if err := it.Error(); err != nil {
		p.observe("range", metrics.ResultError)
		return err
	}
	p.observe("range", metrics.ResultOK)
	fmt.Fprintf(p.out, "Students in [%d, %d] [%s]\n", lo, hi, strings.Join(pairs, ", "))
	return nil
}

func (p *Processor) stats() error {
	src, ok := p.idx.(interface{ Stats() bplustree.Stats })
	if !ok {
		fmt.Fprintf(p.out, "Keys: %d\n", p.idx.Len())
		return nil
	}
	s := src.Stats()
	infoColor.Fprintf(p.out, "Height: %d, Nodes: %d, Keys: %d, Splits: %d, Merges: %d, Borrows: %d\n",
		s.Height, s.Nodes, s.Keys, s.Splits, s.Merges, s.BorrowsLeft+s.BorrowsRight)
	return nil
}

func (p *Processor) check() error {
	c, ok := p.idx.(interface{ Check() error })
	if !ok {
		fmt.Fprintln(p.out, "Index has no structural check.")
		return nil
	}
	if err := c.Check(); err != nil {
		failColor.Fprintf(p.out, "B+Tree invariant violated: %v\n", err)
		return err
	}
	okColor.Fprintln(p.out, "B+Tree invariants hold.")
	return nil
}

func (p *Processor) treeOp() error {
	d, ok := p.idx.(interface{ ExportDOT(io.Writer) error })
	if !ok {
		fmt.Fprintln(p.out, "Index cannot be drawn.")
		return nil
	}
	return d.ExportDOT(p.out)
}

func (p *Processor) save(toks *tokens) error {
	path, err := toks.word()
	if err != nil {
		return err
	}
	if err := p.idx.SaveTo(path); err != nil {
		failColor.Fprintf(p.out, "Snapshot failed: %v\n", err)
		return err
	}
	okColor.Fprintf(p.out, "Snapshot written to %s.\n", path)
	return nil
}

func (p *Processor) locators() []index.Locator {
	if l, ok := p.idx.(interface{ Locators() []index.Locator }); ok {
		return l.Locators()
	}
	entries := p.idx.Scan()
	out := make([]index.Locator, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

func (p *Processor) observe(op, result string) {
	if p.metrics != nil {
		p.metrics.Observe(op, result)
	}
}

func formatList(locs []index.Locator) string {
	parts := make([]string, len(locs))
	for i, l := range locs {
		parts[i] = strconv.FormatInt(int64(l), 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ─── Tokens ──────────────────────────────────────────────────────────────────

type tokens struct {
	fields []string
	i      int
}

func (t *tokens) done() bool { return t.i >= len(t.fields) }

func (t *tokens) next() (string, bool) {
	if t.done() {
		return "", false
	}
	t.i++
	return t.fields[t.i-1], true
}

func (t *tokens) word() (string, error) {
	w, ok := t.next()
	if !ok {
		return "", errors.Wrap(ErrUsage, "missing argument")
	}
	return w, nil
}

func (t *tokens) integer() (int64, error) {
	w, err := t.word()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(w, 10, 64)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "not a number: %q", w), ErrUsage)
	}
	return v, nil
}

// optionalInt64 consumes the next token only if it is a number.
func (t *tokens) optionalInt64() (int64, bool) {
	if t.done() {
		return 0, false
	}
	v, err := strconv.ParseInt(t.fields[t.i], 10, 64)
	if err != nil {
		return 0, false
	}
	t.i++
	return v, true
}
