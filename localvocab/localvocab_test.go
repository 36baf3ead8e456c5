package localvocab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternDedups(t *testing.T) {
	lv := New()
	a := lv.GetIndex("hello")
	b := lv.GetIndex("world")
	c := lv.GetIndex("hello")
	require.Equal(t, a, c)
	require.NotEqual(t, a, b)
	require.Equal(t, 2, lv.Size())
}

func TestWordRoundTrip(t *testing.T) {
	lv := New()
	idx := lv.GetIndex("some computed literal")
	require.Equal(t, "some computed literal", lv.Word(idx))
}

func TestCloneIsIndependent(t *testing.T) {
	lv := New()
	lv.GetIndex("a")
	clone := lv.Clone()
	clone.GetIndex("b")
	require.Equal(t, 1, lv.Size())
	require.Equal(t, 2, clone.Size())
}

func TestMergeWithDedupsAndMaps(t *testing.T) {
	dst := New()
	dst.GetIndex("shared")
	src := New()
	sharedIdx := src.GetIndex("shared")
	freshIdx := src.GetIndex("fresh")

	mapping := dst.MergeWith(src)
	require.Equal(t, dst.GetIndex("shared"), mapping[sharedIdx])
	require.Equal(t, dst.GetIndex("fresh"), mapping[freshIdx])
	require.Equal(t, 2, dst.Size())
}

func TestMergeWithNilIsNoop(t *testing.T) {
	dst := New()
	dst.GetIndex("x")
	require.Nil(t, dst.MergeWith(nil))
	require.Equal(t, 1, dst.Size())
}

func TestEmptyVocabIsEmpty(t *testing.T) {
	lv := New()
	require.True(t, lv.IsEmpty())
	lv.GetIndex("x")
	require.False(t, lv.IsEmpty())
}
