package join

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGallopingJoinMatchesZipperJoin(t *testing.T) {
	left := []Row{row(1), row(3), row(5), row(7), row(9), row(11)}
	right := []Row{row(5)}

	var zipperPairs, gallopPairs [][2]int
	_, err := ZipperJoinWithUndef(left, right, func(i, j int) {
		zipperPairs = append(zipperPairs, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)

	_, err = GallopingJoin(left, right, func(i, j int) {
		gallopPairs = append(gallopPairs, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)

	require.ElementsMatch(t, zipperPairs, gallopPairs)
}

func TestGallopingJoinSmallerSideCanBeLeftOrRight(t *testing.T) {
	bigSide := []Row{row(1), row(2), row(3), row(4), row(5)}
	smallSide := []Row{row(3)}

	var pairsLeftSmall [][2]int
	_, err := GallopingJoin(smallSide, bigSide, func(i, j int) {
		pairsLeftSmall = append(pairsLeftSmall, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, [][2]int{{0, 2}}, pairsLeftSmall)

	var pairsRightSmall [][2]int
	_, err = GallopingJoin(bigSide, smallSide, func(i, j int) {
		pairsRightSmall = append(pairsRightSmall, [2]int{i, j})
	}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, [][2]int{{2, 0}}, pairsRightSmall)
}

func TestGallopingJoinNoMatch(t *testing.T) {
	left := []Row{row(1), row(2), row(3)}
	right := []Row{row(100)}
	var calls int
	_, err := GallopingJoin(left, right, func(i, j int) { calls++ }, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, calls)
}
