// Package stream implements an input-range / generator abstraction used in
// place of stackful coroutines: an input-iterator / input-stream type with
// an explicit next() -> (value, ok, err) step. Grounded on the original
// source's InputRangeUtils.h (src/util/InputRangeUtils.h) generator
// concept, and used throughout package external (block/row generators) and
// package join (the block-at-a-time driver's per-side buffers).
package stream

// Source is a forward-only, input-only sequence of T, modeling the
// original source's lazy generator. It is explicitly not restartable:
// once Next reports done, or returns an error, the Source must not be
// called again.
type Source[T any] interface {
	// Next returns the next element. ok is false when the source is
	// exhausted (no error). A non-nil error aborts iteration immediately,
	// e.g. propagating a cancel.Handle firing mid-stream.
	Next() (value T, ok bool, err error)
}

// Func adapts a plain function into a Source.
type Func[T any] func() (T, bool, error)

func (f Func[T]) Next() (T, bool, error) { return f() }

// FromSlice returns a Source that yields the elements of s in order.
func FromSlice[T any](s []T) Source[T] {
	i := 0
	return Func[T](func() (T, bool, error) {
		if i >= len(s) {
			var zero T
			return zero, false, nil
		}
		v := s[i]
		i++
		return v, true, nil
	})
}

// Collect drains a Source into a slice. Intended for tests and small
// results; production code should consume a Source incrementally.
func Collect[T any](s Source[T]) ([]T, error) {
	var out []T
	for {
		v, ok, err := s.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Map lazily transforms each element of s with f.
func Map[T, U any](s Source[T], f func(T) (U, error)) Source[U] {
	return Func[U](func() (U, bool, error) {
		v, ok, err := s.Next()
		if err != nil || !ok {
			var zero U
			return zero, ok, err
		}
		u, err := f(v)
		return u, true, err
	})
}

// Flatten turns a Source of Sources into a single Source that yields every
// element of the first inner Source, then the second, and so on. Mirrors
// the original source's ql::views::join over a vector of row-generators
// (CompressedExternalIdTableWriter::getGeneratorForAllRows).
func Flatten[T any](outer Source[Source[T]]) Source[T] {
	var current Source[T]
	return Func[T](func() (T, bool, error) {
		for {
			if current != nil {
				v, ok, err := current.Next()
				if err != nil {
					var zero T
					return zero, false, err
				}
				if ok {
					return v, true, nil
				}
				current = nil
			}
			next, ok, err := outer.Next()
			if err != nil {
				var zero T
				return zero, false, err
			}
			if !ok {
				var zero T
				return zero, false, nil
			}
			current = next
		}
	})
}
