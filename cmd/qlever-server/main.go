// Command qlever-server is a thin wiring shim around the execution core:
// it parses the CLI surface, builds a qlever.Context and the shared cache,
// and would hand off to an HTTP layer that is out of core scope. Mirrors
// go-mysql-server's server package wiring style (a flat Config struct,
// flag-driven, logged through logrus), not any particular HTTP framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ad-freiburg/qlever-engine/cache"
	"github.com/ad-freiburg/qlever-engine/qlever"
	"github.com/ad-freiburg/qlever-engine/server"
)

func main() {
	cfg := server.DefaultConfig()
	fs := flag.NewFlagSet("qlever-server", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "qlever-server: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

func run(cfg server.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := cfg.NewLogger()
	log.WithField("port", cfg.Port).
		WithField("index", cfg.IndexPath).
		WithField("num_threads", cfg.NumThreads).
		Info("starting qlever-server")

	sizeOf := func(rowCount int) int64 { return int64(rowCount) }
	queryCache := cache.NewAdapter(cache.NewLRU[string, int](cfg.CacheMaxSizeBytes(), sizeOf))

	qctx := qlever.NewContext(context.Background(), nil, log, cfg.MemoryBudget())
	qctx.Log().
		WithField("cache_entries", queryCache.NumCachedElements()).
		WithField("free_bytes", qctx.Memory.NumFreeBytes()).
		Info("qlever-server initialized, no HTTP listener wired (out of core scope)")
	return nil
}
