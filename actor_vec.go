package dataflow

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/NovyWave/dataflow/internal/broadcast"
)

// VecDiffOp enumerates the structural change operations emitted by an
// ActorVec. Subscribers always receive a Replace carrying the full snapshot
// first; applying the snapshot plus every following diff reconstructs the
// sequence exactly.
type VecDiffOp int

const (
	VecDiffReplace VecDiffOp = iota
	VecDiffInsertAt
	VecDiffUpdateAt
	VecDiffRemoveAt
	VecDiffPush
	VecDiffPop
	VecDiffClear
)

func (op VecDiffOp) String() string {
	switch op {
	case VecDiffReplace:
		return "Replace"
	case VecDiffInsertAt:
		return "InsertAt"
	case VecDiffUpdateAt:
		return "UpdateAt"
	case VecDiffRemoveAt:
		return "RemoveAt"
	case VecDiffPush:
		return "Push"
	case VecDiffPop:
		return "Pop"
	case VecDiffClear:
		return "Clear"
	default:
		return "Unknown"
	}
}

// VecDiff is one incremental change to an ordered sequence. Index and Item
// are meaningful for the positional ops; Items only for Replace.
type VecDiff[T any] struct {
	Op    VecDiffOp
	Index int
	Item  T
	Items []T
}

// ApplyVecDiff applies one diff to items and returns the resulting slice.
// It is the reconstruction rule subscribers use to maintain a mirror of the
// actor's sequence.
func ApplyVecDiff[T any](items []T, d VecDiff[T]) []T {
	switch d.Op {
	case VecDiffReplace:
		return slices.Clone(d.Items)
	case VecDiffInsertAt:
		return slices.Insert(items, d.Index, d.Item)
	case VecDiffUpdateAt:
		items[d.Index] = d.Item
		return items
	case VecDiffRemoveAt:
		return slices.Delete(items, d.Index, d.Index+1)
	case VecDiffPush:
		return append(items, d.Item)
	case VecDiffPop:
		return items[:len(items)-1]
	case VecDiffClear:
		return items[:0]
	default:
		return items
	}
}

// vecCell owns an ordered sequence and broadcasts diffs. New subscribers are
// seeded with a Replace snapshot under the same lock that orders mutations,
// so the snapshot plus subsequent diffs is always gapless.
type vecCell[T any] struct {
	mu    sync.RWMutex
	items []T
	hub   *broadcast.Hub[VecDiff[T]]
}

func newVecCell[T any](initial []T) *vecCell[T] {
	return &vecCell[T]{
		items: slices.Clone(initial),
		hub:   broadcast.NewHub[VecDiff[T]](),
	}
}

func (c *vecCell[T]) apply(d VecDiff[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = ApplyVecDiff(c.items, d)
	c.hub.Publish(d)
}

func (c *vecCell[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *vecCell[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *vecCell[T]) subscribe() (string, <-chan VecDiff[T]) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seed := VecDiff[T]{Op: VecDiffReplace, Items: slices.Clone(c.items)}
	return c.hub.Subscribe(seed)
}

func (c *vecCell[T]) close() {
	c.hub.Close()
}

// VecSignal is the incremental view of an ActorVec: a restartable stream
// that delivers a snapshot first, then insert/remove/update operations.
type VecSignal[T any] struct {
	c *vecCell[T]
}

// Subscribe returns a diff stream beginning with a Replace snapshot of the
// current sequence.
func (s *VecSignal[T]) Subscribe() *Subscription[VecDiff[T]] {
	id, out := s.c.subscribe()
	return &Subscription[VecDiff[T]]{hub: s.c.hub, id: id, out: out}
}

// VecState is the exclusive write handle to an ActorVec's sequence, valid
// only inside the actor's processing loop. Out-of-range indices are dropped
// with a diagnostic instead of panicking.
type VecState[T any] struct {
	cellWriter
	c  *vecCell[T]
	ln *cell[int]
}

func (s *VecState[T]) publishMeta() {
	s.ln.set(s.c.len())
}

// Push appends item to the end of the sequence.
func (s *VecState[T]) Push(item T) {
	s.assertWriter()
	s.c.apply(VecDiff[T]{Op: VecDiffPush, Item: item})
	s.publishMeta()
}

// InsertAt inserts item so it occupies position index.
func (s *VecState[T]) InsertAt(index int, item T) {
	s.assertWriter()
	if index < 0 || index > s.c.len() {
		logger.Warn("vec insert index out of range, dropped", zap.Int("index", index), zap.Int("len", s.c.len()))
		return
	}
	s.c.apply(VecDiff[T]{Op: VecDiffInsertAt, Index: index, Item: item})
	s.publishMeta()
}

// UpdateAt replaces the item at index.
func (s *VecState[T]) UpdateAt(index int, item T) {
	s.assertWriter()
	if index < 0 || index >= s.c.len() {
		logger.Warn("vec update index out of range, dropped", zap.Int("index", index), zap.Int("len", s.c.len()))
		return
	}
	s.c.apply(VecDiff[T]{Op: VecDiffUpdateAt, Index: index, Item: item})
	s.publishMeta()
}

// RemoveAt removes and returns the item at index.
func (s *VecState[T]) RemoveAt(index int) (T, bool) {
	s.assertWriter()
	var zero T
	if index < 0 || index >= s.c.len() {
		logger.Warn("vec remove index out of range, dropped", zap.Int("index", index), zap.Int("len", s.c.len()))
		return zero, false
	}
	removed := s.c.items[index]
	s.c.apply(VecDiff[T]{Op: VecDiffRemoveAt, Index: index})
	s.publishMeta()
	return removed, true
}

// Pop removes and returns the last item.
func (s *VecState[T]) Pop() (T, bool) {
	s.assertWriter()
	var zero T
	n := s.c.len()
	if n == 0 {
		return zero, false
	}
	last := s.c.items[n-1]
	s.c.apply(VecDiff[T]{Op: VecDiffPop})
	s.publishMeta()
	return last, true
}

// Replace swaps the whole sequence for items.
func (s *VecState[T]) Replace(items []T) {
	s.assertWriter()
	s.c.apply(VecDiff[T]{Op: VecDiffReplace, Items: slices.Clone(items)})
	s.publishMeta()
}

// Clear removes all items.
func (s *VecState[T]) Clear() {
	s.assertWriter()
	s.c.apply(VecDiff[T]{Op: VecDiffClear})
	s.publishMeta()
}

// Retain keeps only items satisfying keep and returns how many were removed.
// Each removal is emitted as its own RemoveAt diff.
func (s *VecState[T]) Retain(keep func(T) bool) int {
	s.assertWriter()
	removed := 0
	for i := s.c.len() - 1; i >= 0; i-- {
		if !keep(s.c.items[i]) {
			s.c.apply(VecDiff[T]{Op: VecDiffRemoveAt, Index: i})
			removed++
		}
	}
	if removed > 0 {
		s.publishMeta()
	}
	return removed
}

// Len returns the current number of items.
func (s *VecState[T]) Len() int {
	s.assertWriter()
	return s.c.len()
}

// Get returns the item at index.
func (s *VecState[T]) Get(index int) (T, bool) {
	s.assertWriter()
	var zero T
	if index < 0 || index >= s.c.len() {
		return zero, false
	}
	return s.c.items[index], true
}

// ActorVec owns an ordered sequence with the same single-writer contract as
// Actor, and exposes incremental change notifications so downstream
// recomputation stays proportional to the change, not the collection.
type ActorVec[T any] struct {
	c        *vecCell[T]
	ln       *cell[int]
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewActorVec starts the processing loop over a sequence seeded with
// initial. The loop contract is the same as NewActor's.
func NewActorVec[T any](initial []T, setup func(ctx context.Context, st *VecState[T])) *ActorVec[T] {
	a := &ActorVec[T]{
		c:    newVecCell(initial),
		ln:   newCell(len(initial)),
		done: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	st := &VecState[T]{c: a.c, ln: a.ln}
	go func() {
		defer close(a.done)
		defer a.ln.close()
		defer a.c.close()
		st.adoptWriter()
		setup(ctx, st)
		if ctx.Err() == nil {
			logger.Error("actor processing loop returned before cancellation; actor is now inert")
		}
	}()
	return a
}

// SignalVec returns the incremental snapshot-plus-diffs view.
func (a *ActorVec[T]) SignalVec() *VecSignal[T] {
	return &VecSignal[T]{c: a.c}
}

// LenSignal emits the sequence length on every structural change.
func (a *ActorVec[T]) LenSignal() *Signal[int] {
	return &Signal[int]{c: a.ln}
}

// Signal is the full-snapshot convenience view, derived by folding the diff
// stream. Prefer SignalVec when the collection is large: each emission here
// carries the whole sequence.
func (a *ActorVec[T]) Signal() *Signal[[]T] {
	sub := a.SignalVec().Subscribe()

	first, ok := <-sub.Events()
	if !ok {
		dst := newCell[[]T](nil)
		dst.close()
		return &Signal[[]T]{c: dst}
	}

	// The fold keeps a private mirror and emits clones so subscribers never
	// share a backing array with later in-place updates.
	mirror := ApplyVecDiff(nil, first)
	dst := newCell(slices.Clone(mirror))
	go func() {
		defer dst.close()
		for d := range sub.Events() {
			mirror = ApplyVecDiff(mirror, d)
			dst.set(slices.Clone(mirror))
		}
	}()
	return &Signal[[]T]{c: dst}
}

// Stop cancels the processing loop and waits for it to exit.
func (a *ActorVec[T]) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		<-a.done
	})
}

// Done returns a channel closed once the processing loop has exited.
func (a *ActorVec[T]) Done() <-chan struct{} {
	return a.done
}
