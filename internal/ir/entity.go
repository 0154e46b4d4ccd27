// Package ir implements the typed SSA intermediate representation:
// entity arenas, the type lattice, constants, instructions, blocks,
// functions and modules, plus a builder and a structural verifier.
package ir

// EntityRef is any dense 32-bit arena key. Concrete keys (FuncId,
// BlockId, InstId, ValueId) are plain uint32 newtypes so arena
// indexing is a slice access, not a map lookup.
type EntityRef interface {
	~uint32
}

// Invalid is the entity-key sentinel, mirroring u32::MAX in the
// original. It never denotes a live arena slot.
const Invalid uint32 = ^uint32(0)

type FuncId uint32
type BlockId uint32
type InstId uint32
type ValueId uint32

func (id BlockId) IsValid() bool { return uint32(id) != Invalid }
func (id FuncId) IsValid() bool  { return uint32(id) != Invalid }
func (id InstId) IsValid() bool  { return uint32(id) != Invalid }
func (id ValueId) IsValid() bool { return uint32(id) != Invalid }

// PrimaryMap is a dense, push-only arena keyed by K. Entries are never
// removed individually; Compact rebuilds the arena from a predicate and
// hands back an old->new remap table so callers can rewrite references.
type PrimaryMap[K EntityRef, V any] struct {
	items []V
}

// Push appends v and returns its freshly allocated key.
func (m *PrimaryMap[K, V]) Push(v V) K {
	k := K(len(m.items))
	m.items = append(m.items, v)
	return k
}

// Len reports the number of live entries.
func (m *PrimaryMap[K, V]) Len() int { return len(m.items) }

// Get returns the value stored at k.
func (m *PrimaryMap[K, V]) Get(k K) V { return m.items[uint32(k)] }

// Set overwrites the value stored at k.
func (m *PrimaryMap[K, V]) Set(k K, v V) { m.items[uint32(k)] = v }

// Ptr returns a pointer to the slot at k, for in-place mutation of
// struct-valued entries (e.g. appending to a Block's instruction list).
// The pointer is invalidated by any subsequent Push on the same map.
func (m *PrimaryMap[K, V]) Ptr(k K) *V { return &m.items[uint32(k)] }

// Keys returns every live key in arena order.
func (m *PrimaryMap[K, V]) Keys() []K {
	ks := make([]K, len(m.items))
	for i := range ks {
		ks[i] = K(i)
	}
	return ks
}

// Range calls fn for every (key, value) pair in arena order.
func (m *PrimaryMap[K, V]) Range(fn func(K, V)) {
	for i, v := range m.items {
		fn(K(i), v)
	}
}

// Compact rebuilds the arena keeping only entries for which keep
// returns true, preserving relative order, and returns the map from
// every surviving old key to its new key. Callers are responsible for
// rewriting any stored references using the returned remap.
func (m *PrimaryMap[K, V]) Compact(keep func(K) bool) map[K]K {
	old := m.items
	m.items = m.items[:0]
	remap := make(map[K]K, len(old))
	for i, v := range old {
		k := K(i)
		if keep(k) {
			nk := K(len(m.items))
			m.items = append(m.items, v)
			remap[k] = nk
		}
	}
	return remap
}
