package dataflow

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/tidwall/btree"
)

// Entry is one key/value pair of an ActorBTreeMap, ordered by key.
type Entry[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

// Maybe is the presence-aware value emitted by per-key signals.
type Maybe[V any] struct {
	Value V
	Valid bool
}

// mapCell owns the ordered key/value mapping plus the derived views that
// make its changes observable: ordered key and value sequences (diffed at
// the key's rank), a full-entries signal, a length signal, and per-key
// watcher cells.
type mapCell[K cmp.Ordered, V any] struct {
	mu       sync.RWMutex
	tree     *btree.Map[K, V]
	sorted   []K // rank bookkeeping for diff emission
	keys     *vecCell[K]
	values   *vecCell[V]
	entries  *cell[[]Entry[K, V]]
	ln       *cell[int]
	watchers map[K]*cell[Maybe[V]]
}

func newMapCell[K cmp.Ordered, V any](initial []Entry[K, V]) *mapCell[K, V] {
	tree := btree.NewMap[K, V](0)
	for _, e := range initial {
		tree.Set(e.Key, e.Value)
	}
	sorted := tree.Keys()

	return &mapCell[K, V]{
		tree:     tree,
		sorted:   sorted,
		keys:     newVecCell(sorted),
		values:   newVecCell(tree.Values()),
		entries:  newCell(zipEntries(sorted, tree.Values())),
		ln:       newCell(tree.Len()),
		watchers: make(map[K]*cell[Maybe[V]]),
	}
}

func zipEntries[K cmp.Ordered, V any](keys []K, values []V) []Entry[K, V] {
	return lo.Map(keys, func(k K, i int) Entry[K, V] {
		return Entry[K, V]{Key: k, Value: values[i]}
	})
}

func (c *mapCell[K, V]) publishMeta() {
	c.ln.set(c.tree.Len())
	c.entries.set(zipEntries(c.tree.Keys(), c.tree.Values()))
}

func (c *mapCell[K, V]) insert(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, existed := c.tree.Set(k, v)
	rank, _ := slices.BinarySearch(c.sorted, k)
	if existed {
		c.values.apply(VecDiff[V]{Op: VecDiffUpdateAt, Index: rank, Item: v})
	} else {
		c.sorted = slices.Insert(c.sorted, rank, k)
		c.keys.apply(VecDiff[K]{Op: VecDiffInsertAt, Index: rank, Item: k})
		c.values.apply(VecDiff[V]{Op: VecDiffInsertAt, Index: rank, Item: v})
	}
	c.publishMeta()
	if w, ok := c.watchers[k]; ok {
		w.set(Maybe[V]{Value: v, Valid: true})
	}
}

func (c *mapCell[K, V]) remove(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, existed := c.tree.Delete(k)
	if !existed {
		return old, false
	}
	rank, _ := slices.BinarySearch(c.sorted, k)
	c.sorted = slices.Delete(c.sorted, rank, rank+1)
	c.keys.apply(VecDiff[K]{Op: VecDiffRemoveAt, Index: rank})
	c.values.apply(VecDiff[V]{Op: VecDiffRemoveAt, Index: rank})
	c.publishMeta()
	if w, ok := c.watchers[k]; ok {
		w.set(Maybe[V]{})
	}
	return old, true
}

func (c *mapCell[K, V]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tree.Len() == 0 {
		return
	}
	c.tree = btree.NewMap[K, V](0)
	c.sorted = c.sorted[:0]
	c.keys.apply(VecDiff[K]{Op: VecDiffClear})
	c.values.apply(VecDiff[V]{Op: VecDiffClear})
	c.publishMeta()
	for _, w := range c.watchers {
		w.set(Maybe[V]{})
	}
}

func (c *mapCell[K, V]) get(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Get(k)
}

func (c *mapCell[K, V]) watcher(k K) *cell[Maybe[V]] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.watchers[k]; ok {
		return w
	}
	v, ok := c.tree.Get(k)
	w := newCell(Maybe[V]{Value: v, Valid: ok})
	c.watchers[k] = w
	return w
}

func (c *mapCell[K, V]) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keys.close()
	c.values.close()
	c.entries.close()
	c.ln.close()
	for _, w := range c.watchers {
		w.close()
	}
}

// MapState is the exclusive write handle to an ActorBTreeMap, valid only
// inside the actor's processing loop.
type MapState[K cmp.Ordered, V any] struct {
	cellWriter
	c *mapCell[K, V]
}

// Insert sets key to value, creating or updating the entry.
func (s *MapState[K, V]) Insert(key K, value V) {
	s.assertWriter()
	s.c.insert(key, value)
}

// Remove deletes key and returns its previous value.
func (s *MapState[K, V]) Remove(key K) (V, bool) {
	s.assertWriter()
	return s.c.remove(key)
}

// Clear removes every entry.
func (s *MapState[K, V]) Clear() {
	s.assertWriter()
	s.c.clear()
}

// Get looks key up in the owned map.
func (s *MapState[K, V]) Get(key K) (V, bool) {
	s.assertWriter()
	return s.c.get(key)
}

// Len returns the number of entries.
func (s *MapState[K, V]) Len() int {
	s.assertWriter()
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	return s.c.tree.Len()
}

// ActorBTreeMap owns an ordered key-to-value mapping with the same
// single-writer contract as Actor. Keys are unique and totally ordered;
// observers receive incremental per-rank diffs rather than full snapshots.
type ActorBTreeMap[K cmp.Ordered, V any] struct {
	c        *mapCell[K, V]
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewActorBTreeMap starts the processing loop over a map seeded with
// initial. The loop contract is the same as NewActor's.
func NewActorBTreeMap[K cmp.Ordered, V any](initial []Entry[K, V], setup func(ctx context.Context, st *MapState[K, V])) *ActorBTreeMap[K, V] {
	a := &ActorBTreeMap[K, V]{
		c:    newMapCell(initial),
		done: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	st := &MapState[K, V]{c: a.c}
	go func() {
		defer close(a.done)
		defer a.c.close()
		st.adoptWriter()
		setup(ctx, st)
		if ctx.Err() == nil {
			logger.Error("actor processing loop returned before cancellation; actor is now inert")
		}
	}()
	return a
}

// Get is a synchronous point lookup on the resident map. It is the one
// sanctioned exception to signal-only reads: immediately after an event
// that set key is fully applied, Get observes that write.
func (a *ActorBTreeMap[K, V]) Get(key K) (V, bool) {
	return a.c.get(key)
}

// SignalForKey resolves to the current value for key, or an invalid Maybe
// when absent, and updates whenever that key is inserted, updated, or
// removed.
func (a *ActorBTreeMap[K, V]) SignalForKey(key K) *Signal[Maybe[V]] {
	return &Signal[Maybe[V]]{c: a.c.watcher(key)}
}

// KeysSignalVec is the incremental view of the keys, ordered by key.
func (a *ActorBTreeMap[K, V]) KeysSignalVec() *VecSignal[K] {
	return &VecSignal[K]{c: a.c.keys}
}

// ValuesSignalVec is the incremental view of the values, ordered by key.
func (a *ActorBTreeMap[K, V]) ValuesSignalVec() *VecSignal[V] {
	return &VecSignal[V]{c: a.c.values}
}

// EntriesSignal emits the full ordered entry list on every change.
func (a *ActorBTreeMap[K, V]) EntriesSignal() *Signal[[]Entry[K, V]] {
	return &Signal[[]Entry[K, V]]{c: a.c.entries}
}

// LenSignal emits the entry count on every change.
func (a *ActorBTreeMap[K, V]) LenSignal() *Signal[int] {
	return &Signal[int]{c: a.c.ln}
}

// Stop cancels the processing loop and waits for it to exit.
func (a *ActorBTreeMap[K, V]) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		<-a.done
	})
}

// Done returns a channel closed once the processing loop has exited.
func (a *ActorBTreeMap[K, V]) Done() <-chan struct{} {
	return a.done
}

// MapSignalRef derives a deduplicated signal over the whole map through
// project, re-emitting only when the projected value changes.
func MapSignalRef[K cmp.Ordered, V any, U comparable](m *ActorBTreeMap[K, V], project func([]Entry[K, V]) U) *Signal[U] {
	return SignalRef(m.EntriesSignal(), project)
}
