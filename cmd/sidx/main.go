// Command sidx maintains a B+ tree index of student records and executes a
// stream of insert, delete, search and print operations against it.
//
// The input starts with the tree's minimum degree unless -degree is given:
//
//	3
//	insert 1001 Ada Lovelace CS Senior 21
//	search 1001
//	print
//
// Students are persisted to a CSV file or a Pebble database and replayed into
// the index at startup.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/student-index/sidx/command"
	"github.com/student-index/sidx/config"
	"github.com/student-index/sidx/index/bplustree"
	"github.com/student-index/sidx/logging"
	"github.com/student-index/sidx/metrics"
	"github.com/student-index/sidx/records"
	"github.com/student-index/sidx/records/csvstore"
	"github.com/student-index/sidx/records/pebblestore"
)

func main() {
	if err := run(os.Args[1:], os.LookupEnv, os.Stdin, color.Output); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "sidx: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, lookup func(string) (string, bool), stdin io.Reader, stdout io.Writer) error {
	cfg := config.Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		return err
	}
	fs := flag.NewFlagSet("sidx", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "\nsidx: student B+ tree index\n\nArguments:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	in, closeInput, err := openInput(cfg.Input, stdin)
	if err != nil {
		return err
	}
	defer closeInput()

	degree := cfg.Degree
	if degree == 0 {
		if _, err := fmt.Fscan(in, &degree); err != nil {
			return errors.Wrap(err, "read minimum degree from input")
		}
	}
	tree, err := bplustree.New(degree)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("close store", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg, tree)
	if err != nil {
		return err
	}

	p := command.New(tree, store, command.Options{Out: stdout, Log: log, Metrics: m})

	students, err := store.Load()
	if err != nil {
		return err
	}
	p.Bootstrap(students)

	if cfg.Seed > 0 {
		added, err := p.Seed(cfg.Seed)
		if err != nil {
			return errors.Wrap(err, "seed")
		}
		log.Info("seeded students", zap.Int("added", added))
	}

	if err := p.Run(in); err != nil {
		return err
	}

	if cfg.Snapshot != "" {
		if err := tree.SaveTo(cfg.Snapshot); err != nil {
			return err
		}
		log.Info("wrote snapshot", zap.String("path", cfg.Snapshot), zap.Int("keys", tree.Len()))
	}
	if cfg.MetricsOut != "" {
		if err := writeMetrics(cfg.MetricsOut, reg); err != nil {
			return err
		}
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return bufio.NewReader(stdin), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input")
	}
	return bufio.NewReader(f), func() { f.Close() }, nil
}

func openStore(cfg config.StoreConfig, log *zap.Logger) (records.Store, error) {
	switch cfg.Kind {
	case config.StorePebble:
		return pebblestore.Open(cfg.Path, log)
	default:
		return csvstore.Open(cfg.Path, log)
	}
}

func writeMetrics(path string, g prometheus.Gatherer) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create metrics file")
	}
	if err := metrics.WriteText(f, g); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close metrics file")
}
