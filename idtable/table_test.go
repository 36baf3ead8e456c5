package idtable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ad-freiburg/qlever-engine/valueid"
)

func TestNewTableIsEmpty(t *testing.T) {
	tbl := New(3, nil)
	require.Equal(t, 3, tbl.NumColumns())
	require.Equal(t, 0, tbl.NumRows())
}

func TestPushBackAndResizeZeroInitializes(t *testing.T) {
	tbl := New(2, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(1), valueid.MakeInt(2)}))
	require.NoError(t, tbl.Resize(3))
	require.Equal(t, 3, tbl.NumRows())
	require.True(t, tbl.Column(0)[1].IsUndefined())
	require.True(t, tbl.Column(1)[2].IsUndefined())
}

func TestPushBackWrongArityPanics(t *testing.T) {
	tbl := New(2, nil)
	require.Panics(t, func() {
		_ = tbl.PushBack([]Id{valueid.MakeInt(1)})
	})
}

func TestClearKeepsColumnCount(t *testing.T) {
	tbl := New(2, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(1), valueid.MakeInt(2)}))
	tbl.Clear()
	require.Equal(t, 0, tbl.NumRows())
	require.Equal(t, 2, tbl.NumColumns())
}

func TestEraseColumnShiftsIndices(t *testing.T) {
	tbl := New(3, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(1), valueid.MakeInt(2), valueid.MakeInt(3)}))
	tbl.EraseColumn(1)
	require.Equal(t, 2, tbl.NumColumns())
	require.Equal(t, int64(1), tbl.Column(0)[0].Int())
	require.Equal(t, int64(3), tbl.Column(1)[0].Int())
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New(1, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(1)}))
	clone := tbl.Clone()
	clone.Column(0)[0] = valueid.MakeInt(99)
	require.Equal(t, int64(1), tbl.Column(0)[0].Int())
	require.Equal(t, int64(99), clone.Column(0)[0].Int())
}

func TestViewAliasesTableStorage(t *testing.T) {
	tbl := New(1, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(1)}))
	v := tbl.View()
	v.Set(0, 0, valueid.MakeInt(42))
	require.Equal(t, int64(42), tbl.Column(0)[0].Int())
}

func TestSubViewNarrowsRowRange(t *testing.T) {
	tbl := New(1, nil)
	for i := int64(0); i < 5; i++ {
		require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(i)}))
	}
	sv := tbl.SubView(1, 3)
	require.Equal(t, 2, sv.NumRows())
	require.Equal(t, int64(1), sv.Get(0, 0).Int())
	require.Equal(t, int64(2), sv.Get(1, 0).Int())
}

func TestColumnSubsetReordersColumns(t *testing.T) {
	tbl := New(3, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(1), valueid.MakeInt(2), valueid.MakeInt(3)}))
	v := tbl.View().ColumnSubset([]int{2, 0})
	require.Equal(t, int64(3), v.Get(0, 0).Int())
	require.Equal(t, int64(1), v.Get(0, 1).Int())
}

func TestConstViewHasNoSet(t *testing.T) {
	tbl := New(1, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(7)}))
	cv := tbl.View().AsConst()
	require.Equal(t, int64(7), cv.Get(0, 0).Int())
}

func TestReserveDoesNotChangeNumRows(t *testing.T) {
	tbl := New(1, nil)
	require.NoError(t, tbl.Reserve(100))
	require.Equal(t, 0, tbl.NumRows())
}

func TestAsStaticViewAcceptsMatchingArity(t *testing.T) {
	tbl := New(2, nil)
	require.NoError(t, tbl.PushBack([]Id{valueid.MakeInt(1), valueid.MakeInt(2)}))
	sv, err := AsStaticView[Two](tbl.View(), 2)
	require.NoError(t, err)
	require.Equal(t, int64(1), sv.Get(0, 0).Int())
}

func TestAsStaticViewRejectsViewColumnMismatch(t *testing.T) {
	tbl := New(3, nil)
	_, err := AsStaticView[Two](tbl.View(), 2)
	require.Error(t, err)
}

func TestAsStaticViewRejectsTagMismatchedWithN(t *testing.T) {
	tbl := New(3, nil)
	_, err := AsStaticView[Two](tbl.View(), 3)
	require.Error(t, err)
}
