package join

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ad-freiburg/qlever-engine/stream"
)

func blockSource(blocks []Block) stream.Source[Block] {
	return stream.FromSlice(blocks)
}

func TestBlockAtATimeJoinMatchesZipperJoin(t *testing.T) {
	left := []Row{row(1), row(3), row(5), row(7), row(9), row(11)}
	right := []Row{row(3), row(5), row(5), row(8), row(11)}

	var zipperPairs [][2]int
	_, err := ZipperJoinWithUndef(left, right, func(i, j int) {
		zipperPairs = append(zipperPairs, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)

	leftBlocks := []Block{
		{Rows: left[:2], BaseIndex: 0},
		{Rows: left[2:4], BaseIndex: 2},
		{Rows: left[4:], BaseIndex: 4},
	}
	rightBlocks := []Block{
		{Rows: right[:3], BaseIndex: 0},
		{Rows: right[3:], BaseIndex: 3},
	}

	var blockPairs [][2]int
	order, err := BlockAtATimeJoin(blockSource(leftBlocks), blockSource(rightBlocks), func(i, j int) {
		blockPairs = append(blockPairs, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, OrderFullyUnsorted, order.Kind)
	require.ElementsMatch(t, zipperPairs, blockPairs)
}

func TestBlockAtATimeJoinNotFoundTracksUncoveredLeftRows(t *testing.T) {
	left := []Row{row(1), row(2), row(3), row(4)}
	right := []Row{row(2), row(4)}

	leftBlocks := []Block{
		{Rows: left[:2], BaseIndex: 0},
		{Rows: left[2:], BaseIndex: 2},
	}
	rightBlocks := []Block{
		{Rows: right, BaseIndex: 0},
	}

	var matched [][2]int
	var notFound []int
	_, err := BlockAtATimeJoin(blockSource(leftBlocks), blockSource(rightBlocks), func(i, j int) {
		matched = append(matched, [2]int{i, j})
	}, func(i int) {
		notFound = append(notFound, i)
	}, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, [][2]int{{1, 0}, {3, 1}}, matched)
	require.ElementsMatch(t, []int{0, 2}, notFound)
}

func TestBlockAtATimeJoinEmptySides(t *testing.T) {
	var calls int
	order, err := BlockAtATimeJoin(blockSource(nil), blockSource(nil), func(i, j int) { calls++ }, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, calls)
	require.Equal(t, OrderSorted, order.Kind)
}

func TestBlockAtATimeJoinOneSideEmptyWithNotFound(t *testing.T) {
	left := []Row{row(1), row(2)}
	leftBlocks := []Block{{Rows: left, BaseIndex: 0}}

	var notFound []int
	_, err := BlockAtATimeJoin(blockSource(leftBlocks), blockSource(nil), func(i, j int) {
		t.Fatalf("unexpected match")
	}, func(i int) {
		notFound = append(notFound, i)
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, notFound)
}
