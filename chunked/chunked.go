// Package chunked implements a cancellation-checked chunked iteration
// primitive: a shared, buffered loop helper used anywhere a large column
// or buffer is copied, filled, or walked, so that cooperative cancellation
// is checked periodically rather than once per element or not at all.
// Grounded directly on the original source's chunkedForLoop / chunkedCopy /
// chunkedFill (src/util/ChunkedForLoop.h).
package chunked

import "github.com/ad-freiburg/qlever-engine/cancel"

// DefaultChunkSize matches the 100'000-row chunk used by the original
// source's MinusAndExistsRowHandler (detail::CHUNK_SIZE).
const DefaultChunkSize = 100_000

// For runs action(i) for i in [start, end), calling the cancellation
// handle's ThrowIfCancelled once every chunkSize iterations (and once at
// the end of a non-empty range). It returns the first error encountered,
// either from a cancellation check or from action itself, and stops
// iterating immediately.
func For(start, end, chunkSize int, h *cancel.Handle, action func(i int) error) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	for start < end {
		chunkEnd := start + chunkSize
		if chunkEnd > end {
			chunkEnd = end
		}
		for ; start < chunkEnd; start++ {
			if err := action(start); err != nil {
				return err
			}
		}
		if h != nil {
			if err := h.ThrowIfCancelled(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Copy copies src into dst (which must have at least len(src) capacity
// starting at dstOffset), checking cancellation every chunkSize elements.
// Mirrors chunkedCopy.
func Copy[T any](dst []T, dstOffset int, src []T, chunkSize int, h *cancel.Handle) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	n := len(src)
	i := 0
	for i < n {
		end := i + chunkSize
		if end > n {
			end = n
		}
		copy(dst[dstOffset+i:dstOffset+end], src[i:end])
		i = end
		if h != nil {
			if err := h.ThrowIfCancelled(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Fill sets every element of dst[offset:offset+n] to value, checking
// cancellation every chunkSize elements. Mirrors chunkedFill.
func Fill[T any](dst []T, offset, n int, value T, chunkSize int, h *cancel.Handle) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	i := 0
	for i < n {
		end := i + chunkSize
		if end > n {
			end = n
		}
		for j := offset + i; j < offset+end; j++ {
			dst[j] = value
		}
		i = end
		if h != nil {
			if err := h.ThrowIfCancelled(); err != nil {
				return err
			}
		}
	}
	return nil
}
