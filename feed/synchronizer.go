package feed

import (
	"context"
	"sync"

	"echonest/models"
)

// Source is a live ordered query over the post collection. It delivers a
// full-replacement snapshot on every change to the matching set.
type Source interface {
	Watch(ctx context.Context, onSnapshot func([]models.Post), onError func(error)) (func(), error)
}

// Synchronizer owns the live ordered post feed. Every change to the
// underlying collection replays the entire matching set, a deliberate
// simplicity/cost tradeoff that holds only at small feed sizes.
type Synchronizer struct {
	source Source
}

func New(source Source) *Synchronizer {
	return &Synchronizer{source: source}
}

// Subscribe registers a live listener. Snapshots are forwarded verbatim in
// the order the store emits them. On a listener-level failure onError fires
// exactly once and delivery stops until a fresh Subscribe; there is no
// automatic reconnect. The returned unsubscribe is idempotent, and no
// callback fires after it returns.
func (s *Synchronizer) Subscribe(ctx context.Context, onSnapshot func([]models.Post), onError func(error)) (func(), error) {
	sub := &subscription{
		onSnapshot: onSnapshot,
		onError:    onError,
	}

	stop, err := s.source.Watch(ctx, sub.deliver, sub.fail)
	if err != nil {
		return nil, err
	}
	sub.stop = stop

	return sub.unsubscribe, nil
}

type subscription struct {
	mu         sync.Mutex
	done       bool
	stop       func()
	stopOnce   sync.Once
	onSnapshot func([]models.Post)
	onError    func(error)
}

func (s *subscription) deliver(posts []models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.onSnapshot(posts)
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.onError(err)
}

func (s *subscription) unsubscribe() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}
