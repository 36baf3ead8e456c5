package server

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterFlagsParsesAllOptions(t *testing.T) {
	c := DefaultConfig()
	fs := flag.NewFlagSet("qlever-server", flag.ContinueOnError)
	c.RegisterFlags(fs)

	err := fs.Parse([]string{
		"--port", "9999",
		"--index", "/data/idx",
		"--text", "/data/text",
		"--on-disk-literals",
		"--all-permutations",
		"--num-threads", "8",
		"--cache-max-size-gb", "5",
		"--memory-max-size-gb", "40",
	})
	require.NoError(t, err)

	require.Equal(t, 9999, c.Port)
	require.Equal(t, "/data/idx", c.IndexPath)
	require.Equal(t, "/data/text", c.TextIndexPath)
	require.True(t, c.OnDiskLiterals)
	require.True(t, c.AllPermutations)
	require.Equal(t, 8, c.NumThreads)
	require.Equal(t, 5.0, c.CacheMaxSizeGB)
	require.Equal(t, 40.0, c.MemoryMaxSizeGB)
}

func TestValidateRequiresIndexPath(t *testing.T) {
	c := DefaultConfig()
	require.Error(t, c.Validate())
	c.IndexPath = "/data/idx"
	require.NoError(t, c.Validate())
}

func TestValidateRejectsNonPositiveThreads(t *testing.T) {
	c := DefaultConfig()
	c.IndexPath = "/data/idx"
	c.NumThreads = 0
	require.Error(t, c.Validate())
}

func TestMemoryBudgetConvertsGigabytes(t *testing.T) {
	c := DefaultConfig()
	c.MemoryMaxSizeGB = 1
	require.Equal(t, int64(1<<30), c.MemoryBudget().NumFreeBytes())
}

func TestCacheMaxSizeBytesConvertsGigabytes(t *testing.T) {
	c := DefaultConfig()
	c.CacheMaxSizeGB = 2
	require.Equal(t, int64(2<<30), c.CacheMaxSizeBytes())
}
