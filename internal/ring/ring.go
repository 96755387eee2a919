// Package ring implements BoundedRingIndex, the hash-indexed ring buffer
// that underlies the predictor's recording table, its prefetch table and its
// prefetch-association sets, and PlainRing, the unindexed ring that holds
// the predictor's mining set.
//
// The design mirrors two things in the teacher repository at once:
//   - internal/genring.Ring, which already owns a capacity-fixed ring of
//     slots with virtual front/back and ID-based tracking (there: time-
//     bounded generations; here: arbitrary keyed values);
//   - pkg/shard.go's map[uint64]*entry hash index, which resolves a key to
//     its slot without a linear scan.
//
// BoundedRingIndex fuses the two into one reusable generic primitive: O(1)
// find-by-key, O(1) push with oldest-entry eviction, O(1) extraction of a
// tracked slot. The hash index stores slot positions (ints), not pointers,
// so the backing array may be copied or moved without invalidating it.
//
// © 2025 dbsp authors. MIT License.
package ring

// BoundedRingIndex is a capacity-C ring buffer paired with a hash index from
// a caller-supplied key to the slot holding the value with that key.
//
// Not safe for concurrent use; callers serialize access externally (the
// predictor's record/compute locks, or a single goroutine's private state).
type BoundedRingIndex[T any] struct {
    slots []T
    valid []bool
    index map[uint64]int
    keyFn func(T) uint64

    front int // index of the oldest valid slot
    count int // number of valid slots
}

// New constructs a ring of the given capacity. keyFn extracts the dedup/
// lookup key from a value; it must be stable for the value's lifetime in the
// ring. capacity must be > 0.
func New[T any](capacity int, keyFn func(T) uint64) *BoundedRingIndex[T] {
    if capacity <= 0 {
        panic("ring: capacity must be > 0")
    }
    if keyFn == nil {
        panic("ring: keyFn must not be nil")
    }
    return &BoundedRingIndex[T]{
        slots: make([]T, capacity),
        valid: make([]bool, capacity),
        index: make(map[uint64]int, capacity),
        keyFn: keyFn,
    }
}

// Cap returns the fixed capacity.
func (r *BoundedRingIndex[T]) Cap() int { return len(r.slots) }

// Len returns the number of valid entries. Invariant: Len() == len(index).
func (r *BoundedRingIndex[T]) Len() int { return r.count }

// Full reports whether the ring has reached capacity.
func (r *BoundedRingIndex[T]) Full() bool { return r.count == len(r.slots) }

// Find returns the value stored under key, if present. O(1), does not
// reorder the ring.
func (r *BoundedRingIndex[T]) Find(key uint64) (T, bool) {
    v, _, ok := r.FindIdx(key)
    return v, ok
}

// FindIdx is Find plus the slot index, for callers that want to mutate the
// entry in place via Set.
func (r *BoundedRingIndex[T]) FindIdx(key uint64) (T, int, bool) {
    idx, ok := r.index[key]
    if !ok {
        var zero T
        return zero, -1, false
    }
    return r.slots[idx], idx, true
}

// Push inserts v keyed by keyFn(v). If the key is already present, the
// existing slot is left untouched and returned with inserted=false. Otherwise
// v is placed at the logical back of the ring; if the ring is full this first
// evicts the front slot (removing its key from the index). Returns the value
// now occupying the slot (== v on insert), its slot index, and whether an
// insertion took place.
func (r *BoundedRingIndex[T]) Push(v T) (stored T, idx int, inserted bool) {
    key := r.keyFn(v)
    if existingIdx, ok := r.index[key]; ok {
        return r.slots[existingIdx], existingIdx, false
    }

    var writeIdx int
    if r.Full() {
        writeIdx = r.front
        oldKey := r.keyFn(r.slots[r.front])
        delete(r.index, oldKey)
        r.front = (r.front + 1) % len(r.slots)
    } else {
        writeIdx = (r.front + r.count) % len(r.slots)
        r.count++
    }

    r.slots[writeIdx] = v
    r.valid[writeIdx] = true
    r.index[key] = writeIdx
    return v, writeIdx, true
}

// At returns the value currently stored at slot idx. idx must have been
// returned by Push/Find/ForEach for this ring and must still be valid.
func (r *BoundedRingIndex[T]) At(idx int) T { return r.slots[idx] }

// Set overwrites the value at slot idx in place, without touching the index.
// The caller must not change the key (keyFn result) of the stored value.
func (r *BoundedRingIndex[T]) Set(idx int, v T) { r.slots[idx] = v }

// Front returns the oldest valid entry, if any.
func (r *BoundedRingIndex[T]) Front() (T, bool) {
    if r.count == 0 {
        var zero T
        return zero, false
    }
    return r.slots[r.front], true
}

// ExtractAt removes the slot at idx from the index and ring, and returns its
// former content. The freed slot is backfilled from the logical back (the
// most recently pushed slot) so the ring stays contiguous in front/count
// terms; the index entry for the backfilled value is redirected to its new
// position.
func (r *BoundedRingIndex[T]) ExtractAt(idx int) (T, bool) {
    if !r.valid[idx] {
        var zero T
        return zero, false
    }

    out := r.slots[idx]
    delete(r.index, r.keyFn(out))

    backIdx := (r.front + r.count - 1 + len(r.slots)) % len(r.slots)
    if idx != backIdx {
        backVal := r.slots[backIdx]
        r.slots[idx] = backVal
        r.index[r.keyFn(backVal)] = idx
    }

    var zero T
    r.slots[backIdx] = zero
    r.valid[backIdx] = false
    r.count--

    return out, true
}

// Extract removes the entry keyed by key, if present. See ExtractAt.
func (r *BoundedRingIndex[T]) Extract(key uint64) (T, bool) {
    idx, ok := r.index[key]
    if !ok {
        var zero T
        return zero, false
    }
    return r.ExtractAt(idx)
}

// ForEach visits valid entries in ring order (oldest first), stopping early
// if fn returns false. fn must not mutate the ring.
func (r *BoundedRingIndex[T]) ForEach(fn func(idx int, v T) bool) {
    for i := 0; i < r.count; i++ {
        idx := (r.front + i) % len(r.slots)
        if !fn(idx, r.slots[idx]) {
            return
        }
    }
}

// Values returns a snapshot slice of valid entries, oldest first.
func (r *BoundedRingIndex[T]) Values() []T {
    out := make([]T, 0, r.count)
    r.ForEach(func(_ int, v T) bool {
        out = append(out, v)
        return true
    })
    return out
}

// Clear empties the ring.
func (r *BoundedRingIndex[T]) Clear() {
    for i := range r.slots {
        var zero T
        r.slots[i] = zero
        r.valid[i] = false
    }
    r.index = make(map[uint64]int, len(r.slots))
    r.front = 0
    r.count = 0
}

// Merge pushes entries from other into r, oldest-first, until r is full or
// other is exhausted. It does not modify other.
func (r *BoundedRingIndex[T]) Merge(other *BoundedRingIndex[T]) {
    other.ForEach(func(_ int, v T) bool {
        if r.Full() {
            return false
        }
        r.Push(v)
        return true
    })
}
