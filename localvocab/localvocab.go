// Package localvocab implements LocalVocab: a per-query, append-only
// string table for terms that are computed at query time (e.g. the result
// of a string-concatenation expression) and therefore have no entry in the
// global, on-disk vocabulary. A valueid.Id with Kind() == KindLocalVocabIndex
// only makes sense together with the LocalVocab that produced it.
//
// Grounded on the original source's LocalVocab and its use throughout
// AddCombinedRowToTable.h, in particular mergeVocab/mergeWith: whenever a
// result row is copied from an input table into an output table, the
// input's LocalVocab must be merged into the output's so that any
// LocalVocabIndex values copied along with the row keep resolving to the
// right string.
package localvocab

// LocalVocab is an append-only, deduplicating string table. It is not safe
// for concurrent use; each goroutine computing part of a result owns its
// own LocalVocab until the results are merged.
type LocalVocab struct {
	words []string
	index map[string]int
}

// New returns an empty LocalVocab.
func New() *LocalVocab {
	return &LocalVocab{index: make(map[string]int)}
}

// Size returns the number of distinct strings stored.
func (lv *LocalVocab) Size() int {
	return len(lv.words)
}

// IsEmpty reports whether no strings have been interned yet. MergeWith uses
// it to skip a nil or empty source vocab.
func (lv *LocalVocab) IsEmpty() bool {
	return len(lv.words) == 0
}

// GetIndex interns s, returning its stable index within this LocalVocab.
// Calling GetIndex twice with equal strings returns the same index.
func (lv *LocalVocab) GetIndex(s string) int {
	if idx, ok := lv.index[s]; ok {
		return idx
	}
	idx := len(lv.words)
	lv.words = append(lv.words, s)
	lv.index[s] = idx
	return idx
}

// Word returns the string stored at idx. It panics if idx is out of range,
// which indicates a ValueId was resolved against the wrong LocalVocab.
func (lv *LocalVocab) Word(idx int) string {
	return lv.words[idx]
}

// Clone returns a deep copy that shares no storage with lv.
func (lv *LocalVocab) Clone() *LocalVocab {
	clone := &LocalVocab{
		words: append([]string(nil), lv.words...),
		index: make(map[string]int, len(lv.index)),
	}
	for k, v := range lv.index {
		clone.index[k] = v
	}
	return clone
}

// MergeWith merges every word of other into lv, returning a mapping from
// other's indices to lv's indices. Callers must apply this mapping to any
// already-produced LocalVocabIndex ValueIds that referred to other before
// treating those values as indices into lv. Merging is idempotent: words
// already present in lv keep their existing index and are not duplicated.
//
// A nil other is treated as empty, matching the original source's
// "local vocabs ... default-constructed, hence trivially mergeable"
// convention for operators whose input happened to carry no local vocab.
func (lv *LocalVocab) MergeWith(other *LocalVocab) map[int]int {
	if other == nil || other.IsEmpty() {
		return nil
	}
	mapping := make(map[int]int, len(other.words))
	for i, w := range other.words {
		mapping[i] = lv.GetIndex(w)
	}
	return mapping
}
