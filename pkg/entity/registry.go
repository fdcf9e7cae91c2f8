// pkg/entity/registry.go
package entity

// Registry is the ordered set of entities taking part in the update and
// render passes. It is used from the game loop goroutine only.
//
// Removal leaves a nil tombstone in place; Compact squeezes them out in a
// single pass, so removing many entities during one pass stays linear.
type Registry struct {
	entries []Entity
	index   map[Entity]int
	holes   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[Entity]int)}
}

// Add inserts e unless it is already present. It reports whether e was added.
func (r *Registry) Add(e Entity) bool {
	if e == nil {
		return false
	}
	if _, ok := r.index[e]; ok {
		return false
	}
	r.index[e] = len(r.entries)
	r.entries = append(r.entries, e)
	return true
}

// Remove deletes e if present. The order of the remaining entries is kept.
// It reports whether anything was removed.
func (r *Registry) Remove(e Entity) bool {
	i, ok := r.index[e]
	if !ok {
		return false
	}
	delete(r.index, e)
	r.entries[i] = nil
	r.holes++
	return true
}

// Compact drops the tombstones left by Remove.
func (r *Registry) Compact() {
	if r.holes == 0 {
		return
	}
	n := 0
	for _, e := range r.entries {
		if e == nil {
			continue
		}
		r.entries[n] = e
		r.index[e] = n
		n++
	}
	clear(r.entries[n:])
	r.entries = r.entries[:n]
	r.holes = 0
}

// Contains reports whether e is registered.
func (r *Registry) Contains(e Entity) bool {
	_, ok := r.index[e]
	return ok
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.index)
}

// Snapshot compacts the registry and returns the entities in insertion
// order. The slice is a copy, so entities may add or remove others while the
// caller iterates it.
func (r *Registry) Snapshot() []Entity {
	r.Compact()
	out := make([]Entity, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many registered entities satisfy match.
func (r *Registry) Count(match func(Entity) bool) int {
	n := 0
	for _, e := range r.entries {
		if e != nil && match(e) {
			n++
		}
	}
	return n
}
