package rowwriter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ad-freiburg/qlever-engine/idtable"
	"github.com/ad-freiburg/qlever-engine/localvocab"
	"github.com/ad-freiburg/qlever-engine/valueid"
)

func makeInput(t *testing.T, rows [][]int64) *idtable.View {
	t.Helper()
	tbl := idtable.New(len(rows[0]), nil)
	for _, r := range rows {
		row := make([]valueid.Id, len(r))
		for i, v := range r {
			row[i] = valueid.MakeInt(v)
		}
		require.NoError(t, tbl.PushBack(row))
	}
	return tbl.View()
}

func ints(v *idtable.View, col int) []int64 {
	out := make([]int64, v.NumRows())
	for i := 0; i < v.NumRows(); i++ {
		out[i] = v.Get(i, col).Int()
	}
	return out
}

func TestInnerJoinWritesMatchingRows(t *testing.T) {
	left := makeInput(t, [][]int64{{1, 100}, {2, 200}, {3, 300}})
	right := makeInput(t, [][]int64{{1, 1000}, {3, 3000}})
	result := idtable.New(3, nil)

	w, err := New(1, left, right, result)
	require.NoError(t, err)
	require.NoError(t, w.AddRow(0, 0))
	require.NoError(t, w.AddRow(2, 1))
	out, err := w.ResultTable()
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, []int64{1, 3}, ints(out.View(), 0))
	require.Equal(t, []int64{100, 300}, ints(out.View(), 1))
	require.Equal(t, []int64{1000, 3000}, ints(out.View(), 2))
}

func TestOptionalRowSetsRightColumnsUndefined(t *testing.T) {
	left := makeInput(t, [][]int64{{1, 100}})
	right := makeInput(t, [][]int64{{9, 900}})
	result := idtable.New(3, nil)

	w, err := New(1, left, right, result)
	require.NoError(t, err)
	require.NoError(t, w.AddOptionalRow(0))
	out, err := w.ResultTable()
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	require.Equal(t, int64(1), out.Column(0)[0].Int())
	require.Equal(t, int64(100), out.Column(1)[0].Int())
	require.True(t, out.Column(2)[0].IsUndefined())
}

func TestDropJoinColumns(t *testing.T) {
	left := makeInput(t, [][]int64{{1, 100}})
	right := makeInput(t, [][]int64{{1, 1000}})
	result := idtable.New(2, nil)

	w, err := New(1, left, right, result, WithKeepJoinColumns(false))
	require.NoError(t, err)
	require.NoError(t, w.AddRow(0, 0))
	out, err := w.ResultTable()
	require.NoError(t, err)
	require.Equal(t, 2, out.NumColumns())
	require.Equal(t, int64(100), out.Column(0)[0].Int())
	require.Equal(t, int64(1000), out.Column(1)[0].Int())
}

func TestBufferFlushesAutomatically(t *testing.T) {
	left := makeInput(t, [][]int64{{1, 100}, {2, 200}, {3, 300}})
	right := makeInput(t, [][]int64{{1, 1000}, {2, 2000}, {3, 3000}})
	result := idtable.New(3, nil)

	w, err := New(1, left, right, result, WithBufferSize(1))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.AddRow(i, i))
	}
	out, err := w.ResultTable()
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())
}

func TestNumUndefinedPerColumnCountsOptionalGaps(t *testing.T) {
	left := makeInput(t, [][]int64{{1, 100}})
	right := makeInput(t, [][]int64{{9, 900}})
	result := idtable.New(3, nil)

	w, err := New(1, left, right, result)
	require.NoError(t, err)
	require.NoError(t, w.AddOptionalRow(0))
	counts, err := w.NumUndefinedPerColumn()
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 1}, counts)
}

func TestSetOnlyLeftInputForOptionalJoinScenarioA(t *testing.T) {
	left := makeInput(t, [][]int64{{3, 4}, {7, 8}, {11, 10}, {14, 11}})
	right := makeInput(t, [][]int64{{7, 14, 0}, {9, 10, 1}, {14, 8, 2}, {33, 5, 3}})
	result := idtable.New(4, nil)

	w, err := New(1, left, right, result)
	require.NoError(t, err)

	require.NoError(t, w.AddRow(1, 0))

	require.NoError(t, w.SetOnlyLeftInputForOptionalJoin(left))
	require.Error(t, w.AddRow(0, 0))
	require.NoError(t, w.AddOptionalRow(2))

	require.NoError(t, w.SetInput(left, right, localvocab.New(), localvocab.New()))
	require.NoError(t, w.AddRow(3, 2))

	out, err := w.ResultTable()
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())
	require.Equal(t, []int64{7, 11, 14}, ints(out.View(), 0))
	require.Equal(t, []int64{8, 10, 11}, ints(out.View(), 1))
	require.Equal(t, int64(14), out.Column(2)[0].Int())
	require.True(t, out.Column(2)[1].IsUndefined())
	require.Equal(t, int64(8), out.Column(2)[2].Int())
	require.Equal(t, int64(0), out.Column(3)[0].Int())
	require.True(t, out.Column(3)[1].IsUndefined())
	require.Equal(t, int64(2), out.Column(3)[2].Int())

	counts, err := w.NumUndefinedPerColumn()
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 1, 1}, counts)
}

func TestMismatchedColumnCountRejected(t *testing.T) {
	left := makeInput(t, [][]int64{{1, 100}})
	right := makeInput(t, [][]int64{{1, 1000}})
	result := idtable.New(99, nil)
	_, err := New(1, left, right, result)
	require.Error(t, err)
}
