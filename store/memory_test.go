package store

import (
	"context"
	"errors"
	"testing"

	"echonest/models"

	"github.com/go-playground/assert/v2"
)

func TestMemoryOrdering(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	for _, ts := range []int64{100, 200, 300} {
		_, err := mem.Create(ctx, models.Post{Title: "t", Description: "d", CreatedAt: ts})
		assert.Equal(t, nil, err)
	}

	posts, err := mem.List(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(posts))
	assert.Equal(t, int64(300), posts[0].CreatedAt)
	assert.Equal(t, int64(200), posts[1].CreatedAt)
	assert.Equal(t, int64(100), posts[2].CreatedAt)
}

func TestMemoryTieBreakStable(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	// Equal timestamps: later insertion wins, and repeated reads agree.
	firstID, _ := mem.Create(ctx, models.Post{Title: "first", Description: "d", CreatedAt: 100})
	secondID, _ := mem.Create(ctx, models.Post{Title: "second", Description: "d", CreatedAt: 100})

	for i := 0; i < 5; i++ {
		posts, err := mem.List(ctx)
		assert.Equal(t, nil, err)
		assert.Equal(t, secondID, posts[0].ID.Hex())
		assert.Equal(t, firstID, posts[1].ID.Hex())
	}
}

func TestMemoryGetAbsent(t *testing.T) {
	mem := NewMemory()

	_, err := mem.Get(context.Background(), "missing")
	assert.Equal(t, true, errors.Is(err, models.ErrNotFound))
}

func TestMemoryDeleteRemovesFromSnapshot(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, _ := mem.Create(ctx, models.Post{Title: "t", Description: "d", CreatedAt: 100})

	var latest []models.Post
	stop, err := mem.Watch(ctx, func(posts []models.Post) { latest = posts }, func(error) {})
	assert.Equal(t, nil, err)
	defer stop()
	assert.Equal(t, 1, len(latest))

	assert.Equal(t, nil, mem.Delete(ctx, id))
	assert.Equal(t, 0, len(latest))

	_, err = mem.Get(ctx, id)
	assert.Equal(t, true, errors.Is(err, models.ErrNotFound))
}

func TestMemoryLikeSetSemantics(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, _ := mem.Create(ctx, models.Post{Title: "t", Description: "d", CreatedAt: 100})

	// Adding twice keeps a single membership.
	assert.Equal(t, nil, mem.AddLike(ctx, id, "u1"))
	assert.Equal(t, nil, mem.AddLike(ctx, id, "u1"))

	post, err := mem.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, post.LikeCount())
	assert.Equal(t, true, post.LikedBy("u1"))

	// Removing an absent member is a no-op.
	assert.Equal(t, nil, mem.RemoveLike(ctx, id, "u2"))
	post, _ = mem.Get(ctx, id)
	assert.Equal(t, 1, post.LikeCount())

	assert.Equal(t, nil, mem.RemoveLike(ctx, id, "u1"))
	post, _ = mem.Get(ctx, id)
	assert.Equal(t, 0, post.LikeCount())
}

func TestMemoryUpdateNeverTouchesHistory(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, _ := mem.Create(ctx, models.Post{
		Title: "before", Description: "d", CreatedAt: 100, Likes: []string{"u1"},
	})

	err := mem.Update(ctx, id, models.PostPatch{Title: "after", Description: "d2"})
	assert.Equal(t, nil, err)

	post, _ := mem.Get(ctx, id)
	assert.Equal(t, "after", post.Title)
	assert.Equal(t, "d2", post.Description)
	assert.Equal(t, int64(100), post.CreatedAt)
	assert.Equal(t, true, post.LikedBy("u1"))
}

func TestMemoryUpdateEmptyImageURLPreserves(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	id, _ := mem.Create(ctx, models.Post{
		Title: "t", Description: "d", CreatedAt: 100,
		PostImageURL: "https://img.example/prior.png",
	})

	err := mem.Update(ctx, id, models.PostPatch{Title: "t", Description: "d"})
	assert.Equal(t, nil, err)

	post, _ := mem.Get(ctx, id)
	assert.Equal(t, "https://img.example/prior.png", post.PostImageURL)
}

func TestMemoryFailSubscriptions(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	var got error
	snapshots := 0
	_, err := mem.Watch(ctx, func([]models.Post) { snapshots++ }, func(e error) { got = e })
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, snapshots)

	boom := errors.New("stream broken")
	mem.FailSubscriptions(boom)
	assert.Equal(t, boom, got)

	// Detached: further mutations deliver nothing.
	mem.Create(ctx, models.Post{Title: "t", Description: "d", CreatedAt: 1})
	assert.Equal(t, 1, snapshots)
}
