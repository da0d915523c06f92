package websocket

import (
	"errors"
	"testing"

	"echonest/models"

	"github.com/go-playground/assert/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSnapshotCacheLookup(t *testing.T) {
	m := NewManager()
	go m.Start()

	_, ok := m.Post("missing")
	assert.Equal(t, false, ok)

	first := models.Post{ID: primitive.NewObjectID(), Title: "a", CreatedAt: 2}
	second := models.Post{ID: primitive.NewObjectID(), Title: "b", CreatedAt: 1}
	m.BroadcastSnapshot([]models.Post{first, second})

	got, ok := m.Post(first.ID.Hex())
	assert.Equal(t, true, ok)
	assert.Equal(t, "a", got.Title)

	// A later snapshot fully replaces the cached view.
	m.BroadcastSnapshot([]models.Post{second})
	_, ok = m.Post(first.ID.Hex())
	assert.Equal(t, false, ok)
}

func TestFeedErrorDoesNotClearCache(t *testing.T) {
	m := NewManager()
	go m.Start()

	post := models.Post{ID: primitive.NewObjectID(), Title: "a", CreatedAt: 1}
	m.BroadcastSnapshot([]models.Post{post})

	m.BroadcastFeedError(errors.New("listener lost"))

	_, ok := m.Post(post.ID.Hex())
	assert.Equal(t, true, ok)
}
