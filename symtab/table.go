package symtab

// Table is a bucket-chain hash table keyed by name, generic over Variable
// and Function (spec.md §4.8). Each bucket is a chain of heap nodes; an
// empty bucket is simply a nil chain head, the distinct-sentinel
// representation the §9 redesign note asks for in place of the original's
// in-place-then-chain scheme.
//
// A plain Go map would give the same lookup semantics, but it can't express
// the spec's "namespace table takes priority, collisions chain, cleanup
// walks every bucket" shape as directly, and it hides the hash-collision
// behavior spec.md §8 treats as testable (two names with the same hash% in
// the same bucket). Table keeps that shape explicit.
type Table[T any] struct {
	buckets [][]*entry[T]
	size    int
}

type entry[T any] struct {
	name  string
	hash  uint64
	value *T
}

// NewTable creates a Table with the given number of buckets. spec.md §4.8
// calls for size-71 tables for both namespace-local and process-wide
// functions/variables.
func NewTable[T any](size int) *Table[T] {
	return &Table[T]{buckets: make([][]*entry[T], size)}
}

// Hash implements §4.8's "h = h*31 + byte" running hash.
func Hash(name string) uint64 {
	var h uint64
	for i := 0; i < len(name); i++ {
		h = h*31 + uint64(name[i])
	}
	return h
}

func (t *Table[T]) bucketIndex(hash uint64) int {
	return int(hash % uint64(len(t.buckets)))
}

// Insert adds value under name, chaining onto any existing bucket
// collisions. It does not check for duplicates — callers that must reject
// duplicate names (prescan, §4.3) call Lookup first and raise NAMES_MATCH
// themselves.
func (t *Table[T]) Insert(name string, value *T) {
	h := Hash(name)
	idx := t.bucketIndex(h)
	t.buckets[idx] = append(t.buckets[idx], &entry[T]{name: name, hash: h, value: value})
	t.size++
}

// Lookup finds value by exact name match, comparing hash first then name
// as §4.8 specifies.
func (t *Table[T]) Lookup(name string) (*T, bool) {
	h := Hash(name)
	idx := t.bucketIndex(h)
	for _, e := range t.buckets[idx] {
		if e.hash == h && e.name == name {
			return e.value, true
		}
	}
	return nil, false
}

// Len reports the number of entries across all buckets.
func (t *Table[T]) Len() int { return t.size }

// Clear empties every bucket, the Go-GC-backed equivalent of the original's
// "walk every bucket, free all heap chain nodes, zero bucket" cleanup
// (there is nothing to free explicitly; the chains simply become
// unreachable).
func (t *Table[T]) Clear() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.size = 0
}

// Each calls fn for every entry in the table. Iteration order is bucket
// order then chain order, not insertion order — callers that need
// insertion order (none in QC do) must track it themselves.
func (t *Table[T]) Each(fn func(name string, value *T)) {
	for _, bucket := range t.buckets {
		for _, e := range bucket {
			fn(e.name, e.value)
		}
	}
}
