package join

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ad-freiburg/qlever-engine/valueid"
)

func row(vals ...int64) Row {
	r := make(Row, len(vals))
	for i, v := range vals {
		r[i] = valueid.MakeInt(v)
	}
	return r
}

func TestZipperJoinInnerMatch(t *testing.T) {
	left := []Row{row(3), row(7), row(11), row(14)}
	right := []Row{row(7), row(9), row(14), row(33)}

	var pairs [][2]int
	order, err := ZipperJoinWithUndef(left, right, func(i, j int) {
		pairs = append(pairs, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, OrderSorted, order.Kind)
	require.Equal(t, [][2]int{{1, 0}, {3, 2}}, pairs)
}

func TestZipperJoinOptionalNotFound(t *testing.T) {
	left := []Row{row(1), row(2), row(3)}
	right := []Row{row(2)}

	var notFound []int
	_, err := ZipperJoinWithUndef(left, right, func(i, j int) {}, func(i int) {
		notFound = append(notFound, i)
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, notFound)
}

func TestZipperJoinUndefCompatibility(t *testing.T) {
	left := []Row{{valueid.Undefined}, row(5)}
	right := []Row{row(5)}

	var pairs [][2]int
	order, err := ZipperJoinWithUndef(left, right, func(i, j int) {
		pairs = append(pairs, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)
	// UNDEF on the left matches every right row; exact match (5,5) also found.
	require.Contains(t, pairs, [2]int{0, 0})
	require.Contains(t, pairs, [2]int{1, 0})
	require.Equal(t, OrderFullyUnsorted, order.Kind)
}

func TestZipperJoinEmptyInputs(t *testing.T) {
	var calls int
	order, err := ZipperJoinWithUndef(nil, nil, func(i, j int) { calls++ }, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, calls)
	require.Equal(t, OrderSorted, order.Kind)
}

func TestZipperJoinCartesianOnEqualRuns(t *testing.T) {
	left := []Row{row(1), row(1), row(2)}
	right := []Row{row(1), row(1)}

	var pairs [][2]int
	_, err := ZipperJoinWithUndef(left, right, func(i, j int) {
		pairs = append(pairs, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, pairs)
}
