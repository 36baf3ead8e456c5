package external

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ad-freiburg/qlever-engine/idtable"
	"github.com/ad-freiburg/qlever-engine/stream"
	"github.com/ad-freiburg/qlever-engine/valueid"
)

func intLess(a, b []idtable.Id) bool { return a[0].Int() < b[0].Int() }

func collectSortedRows(t *testing.T, src stream.Source[[]idtable.Id]) [][]idtable.Id {
	t.Helper()
	rows, err := stream.Collect(src)
	require.NoError(t, err)
	return rows
}

func TestSorterSmallInputSortsInMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch")
	s, err := NewSorter(path, 1, nil, 4096, intLess)
	require.NoError(t, err)
	defer s.Close()

	for _, v := range []int64{5, 1, 4, 2, 3} {
		require.NoError(t, s.Push([]idtable.Id{valueid.MakeInt(v)}))
	}

	rows, err := s.SortedRows()
	require.NoError(t, err)
	got := collectSortedRows(t, rows)
	require.Len(t, got, 5)
	for i, row := range got {
		require.Equal(t, int64(i+1), row[0].Int())
	}
}

func TestSorterLargeInputMergesSpilledRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch")
	s, err := NewSorter(path, 1, nil, 64, intLess)
	require.NoError(t, err)
	defer s.Close()

	r := rand.New(rand.NewSource(42))
	const n = 2000
	values := make([]int64, n)
	for i := range values {
		values[i] = int64(r.Intn(10000))
	}
	for _, v := range values {
		require.NoError(t, s.Push([]idtable.Id{valueid.MakeInt(v)}))
	}
	require.Greater(t, s.numBlocks, 1)

	rows, err := s.SortedRows()
	require.NoError(t, err)
	got := collectSortedRows(t, rows)
	require.Len(t, got, n)
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1][0].Int(), got[i][0].Int())
	}
}
