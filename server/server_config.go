// Package server provides the process-level configuration and CLI flag
// surface for the qlever-server binary: a thin wiring shim over the
// execution core, not a functioning HTTP server (the HTTP layer itself is
// out of core scope). Mirrors go-mysql-server's server/server_config.go
// Config struct shape (flat, field-per-option, a NewConfig defaulting
// hook), adapted from MySQL server options to the SPARQL engine's CLI
// surface.
package server

import (
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ad-freiburg/qlever-engine/memlimit"
)

// Config holds every command-line option qlever-server accepts.
type Config struct {
	// Port the server listens on.
	Port int
	// IndexPath is the on-disk path of the (pre-built) index to load.
	IndexPath string
	// TextIndexPath is the on-disk path of the optional full-text index.
	TextIndexPath string
	// OnDiskLiterals keeps large literals on disk instead of in the vocabulary.
	OnDiskLiterals bool
	// AllPermutations builds all six permutation orderings instead of the
	// default two.
	AllPermutations bool
	// NumThreads is the requested number of worker threads. It is
	// validated and logged at startup; no package in this module sizes its
	// goroutines by it (package external compresses with one goroutine per
	// column).
	NumThreads int
	// CacheMaxSizeGB is the byte budget for the non-pinned cache partition,
	// in gigabytes.
	CacheMaxSizeGB float64
	// MemoryMaxSizeGB is the process-wide memory budget, in gigabytes.
	MemoryMaxSizeGB float64

	// Logger is the logger to use; defaults to stderr if nil, matching
	// go-mysql-server's server.Config.Logger default.
	Logger *logrus.Entry
}

// DefaultConfig returns a Config with sane defaults for the fields
// RegisterFlags would otherwise leave zero.
func DefaultConfig() Config {
	return Config{
		Port:            7001,
		NumThreads:      4,
		CacheMaxSizeGB:  10,
		MemoryMaxSizeGB: 20,
	}
}

// RegisterFlags binds Config's fields to a flag.FlagSet, matching the CLI
// surface: --port, --index, --text, --on-disk-literals,
// --all-permutations, --num-threads, --cache-max-size-gb,
// --memory-max-size-gb.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Port, "port", c.Port, "port to listen on")
	fs.StringVar(&c.IndexPath, "index", c.IndexPath, "path to the index to load")
	fs.StringVar(&c.TextIndexPath, "text", c.TextIndexPath, "path to the optional full-text index")
	fs.BoolVar(&c.OnDiskLiterals, "on-disk-literals", c.OnDiskLiterals, "keep large literals on disk instead of in the vocabulary")
	fs.BoolVar(&c.AllPermutations, "all-permutations", c.AllPermutations, "build all six permutation orderings instead of the default two")
	fs.IntVar(&c.NumThreads, "num-threads", c.NumThreads, "number of worker threads")
	fs.Float64Var(&c.CacheMaxSizeGB, "cache-max-size-gb", c.CacheMaxSizeGB, "byte budget for the non-pinned cache partition, in GB")
	fs.Float64Var(&c.MemoryMaxSizeGB, "memory-max-size-gb", c.MemoryMaxSizeGB, "process-wide memory budget, in GB")
}

// Validate checks the parsed Config for the minimal set of invariants the
// server needs before it can start: an index path, a positive thread
// count, a non-negative cache size and a positive memory budget.
func (c Config) Validate() error {
	if c.IndexPath == "" {
		return fmt.Errorf("server: --index is required")
	}
	if c.NumThreads <= 0 {
		return fmt.Errorf("server: --num-threads must be positive, got %d", c.NumThreads)
	}
	if c.CacheMaxSizeGB < 0 {
		return fmt.Errorf("server: --cache-max-size-gb must not be negative, got %v", c.CacheMaxSizeGB)
	}
	if c.MemoryMaxSizeGB <= 0 {
		return fmt.Errorf("server: --memory-max-size-gb must be positive, got %v", c.MemoryMaxSizeGB)
	}
	return nil
}

// MemoryBudget builds the process-wide memlimit.Budget implied by
// MemoryMaxSizeGB.
func (c Config) MemoryBudget() *memlimit.Budget {
	bytes := int64(c.MemoryMaxSizeGB * (1 << 30))
	return memlimit.NewBudget(bytes)
}

// CacheMaxSizeBytes converts CacheMaxSizeGB to a byte count, for
// cache.NewLRU's maxBytes argument.
func (c Config) CacheMaxSizeBytes() int64 {
	return int64(c.CacheMaxSizeGB * (1 << 30))
}

// NewLogger returns Logger if set, otherwise a stderr logrus.Entry,
// matching go-mysql-server's "Logger is the logger to use, otherwise
// uses stderr" default.
func (c Config) NewLogger() *logrus.Entry {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
