package util

// Chunk splits items into consecutive slices of at most size elements.
// The returned slices share the backing array of items.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size:size])
	}
	return append(chunks, items)
}
