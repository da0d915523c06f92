package store

import (
	"context"
	"sort"
	"sync"

	"echonest/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-memory post store with the same contract as PostStore,
// including live full-replacement snapshots. Snapshot delivery is synchronous
// with the mutation that caused it, which keeps tests deterministic.
type Memory struct {
	mu       sync.Mutex
	posts    map[string]models.Post
	watchers map[int]*memWatcher
	nextID   int
}

type memWatcher struct {
	onSnapshot func([]models.Post)
	onError    func(error)
}

func NewMemory() *Memory {
	return &Memory{
		posts:    make(map[string]models.Post),
		watchers: make(map[int]*memWatcher),
	}
}

func (m *Memory) Create(ctx context.Context, post models.Post) (string, error) {
	m.mu.Lock()
	post.ID = primitive.NewObjectID()
	if post.Likes == nil {
		post.Likes = []string{}
	}
	m.posts[post.ID.Hex()] = post
	m.mu.Unlock()

	m.notify()
	return post.ID.Hex(), nil
}

func (m *Memory) Get(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := post
	copied.Likes = append([]string(nil), post.Likes...)
	return &copied, nil
}

func (m *Memory) Update(ctx context.Context, id string, patch models.PostPatch) error {
	m.mu.Lock()
	post, ok := m.posts[id]
	if !ok {
		m.mu.Unlock()
		return models.ErrNotFound
	}
	post.Title = patch.Title
	post.Description = patch.Description
	if patch.PostImageURL != "" {
		post.PostImageURL = patch.PostImageURL
	}
	m.posts[id] = post
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.posts[id]; !ok {
		m.mu.Unlock()
		return models.ErrNotFound
	}
	delete(m.posts, id)
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) AddLike(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	post, ok := m.posts[id]
	if !ok {
		m.mu.Unlock()
		return models.ErrNotFound
	}
	if !post.LikedBy(userID) {
		post.Likes = append(post.Likes, userID)
		m.posts[id] = post
	}
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) RemoveLike(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	post, ok := m.posts[id]
	if !ok {
		m.mu.Unlock()
		return models.ErrNotFound
	}
	likes := post.Likes[:0:0]
	for _, uid := range post.Likes {
		if uid != userID {
			likes = append(likes, uid)
		}
	}
	post.Likes = likes
	m.posts[id] = post
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) List(ctx context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(), nil
}

// Watch registers a live listener. The initial snapshot is delivered before
// Watch returns; later snapshots fire synchronously from each mutation.
func (m *Memory) Watch(ctx context.Context, onSnapshot func([]models.Post), onError func(error)) (func(), error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = &memWatcher{onSnapshot: onSnapshot, onError: onError}
	initial := m.snapshotLocked()
	m.mu.Unlock()

	onSnapshot(initial)

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}, nil
}

// FailSubscriptions delivers err to every live watcher and detaches them,
// simulating a listener-level failure episode.
func (m *Memory) FailSubscriptions(err error) {
	m.mu.Lock()
	watchers := m.watchers
	m.watchers = make(map[int]*memWatcher)
	m.mu.Unlock()

	for _, w := range watchers {
		w.onError(err)
	}
}

func (m *Memory) snapshotLocked() []models.Post {
	posts := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		copied := p
		copied.Likes = append([]string(nil), p.Likes...)
		posts = append(posts, copied)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt != posts[j].CreatedAt {
			return posts[i].CreatedAt > posts[j].CreatedAt
		}
		return posts[i].ID.Hex() > posts[j].ID.Hex()
	})
	return posts
}

func (m *Memory) notify() {
	m.mu.Lock()
	watchers := make([]*memWatcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		watchers = append(watchers, w)
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	for _, w := range watchers {
		w.onSnapshot(snapshot)
	}
}
