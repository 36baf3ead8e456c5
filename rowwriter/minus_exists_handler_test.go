package rowwriter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ad-freiburg/qlever-engine/idtable"
)

func TestMinusExcludesMatchingIndices(t *testing.T) {
	input := makeInput(t, [][]int64{{1}, {2}, {3}, {4}, {5}})
	result := idtable.New(1, nil)

	h := NewMinusRowHandler(1, result)
	require.NoError(t, h.SetInput(input, nil))
	h.AddOptionalRow(0)
	h.AddRow(1) // exclude row index 1 (value 2)
	h.AddOptionalRow(2)
	h.AddRow(3) // exclude row index 3 (value 4)
	h.AddOptionalRow(4)
	out, err := h.ResultTable()
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3, 5}, ints(out.View(), 0))
}

func TestMinusWithNothingRecordedWritesNoRows(t *testing.T) {
	input := makeInput(t, [][]int64{{1}, {2}, {3}})
	result := idtable.New(1, nil)

	h := NewMinusRowHandler(1, result)
	require.NoError(t, h.SetInput(input, nil))
	// No index was recorded via AddRow or AddOptionalRow, so the flush has
	// an empty range and copies nothing.
	require.NoError(t, h.Flush())
	out, err := h.ResultTable()
	require.NoError(t, err)
	require.Equal(t, 0, out.NumRows())
}

func TestExistsMarksNonMatchingFalse(t *testing.T) {
	input := makeInput(t, [][]int64{{1}, {2}, {3}})
	result := idtable.New(2, nil)

	h := NewExistsRowHandler(1, result)
	require.NoError(t, h.SetInput(input, nil))
	h.AddRow(0)
	h.AddOptionalRow(1) // row index 1 has no match
	h.AddRow(2)
	out, err := h.ResultTable()
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())
	require.Equal(t, []int64{1, 2, 3}, ints(out.View(), 0))
	require.True(t, out.Column(1)[0].Bool())
	require.False(t, out.Column(1)[1].Bool())
	require.True(t, out.Column(1)[2].Bool())
}

func TestExistsWrongColumnCountRejected(t *testing.T) {
	input := makeInput(t, [][]int64{{1}})
	result := idtable.New(1, nil)
	h := NewExistsRowHandler(1, result)
	require.NoError(t, h.SetInput(input, nil))
	h.AddOptionalRow(0)
	_, err := h.ResultTable()
	require.Error(t, err)
}
