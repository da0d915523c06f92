package likes

import (
	"context"
	"errors"

	"echonest/models"
	"echonest/session"
)

// Store is the single-field slice of the post store the toggle writes
// through. Both operations are idempotent at the store, so a redundant call
// from a racing double-toggle still converges on the right final state.
type Store interface {
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
}

// Snapshot is the locally-held copy of the live feed. Membership is decided
// against it, not against a fresh store read.
type Snapshot interface {
	Post(id string) (models.Post, bool)
}

// Coordinator flips a user's membership in a post's liker set. No optimistic
// local mutation happens here: the visible state changes only when the next
// feed snapshot arrives.
type Coordinator struct {
	store    Store
	snapshot Snapshot
	sessions session.Provider
}

func NewCoordinator(store Store, snapshot Snapshot, sessions session.Provider) *Coordinator {
	return &Coordinator{store: store, snapshot: snapshot, sessions: sessions}
}

// Toggle adds the current user to the post's liker set if the snapshot shows
// them absent, otherwise removes them.
func (c *Coordinator) Toggle(ctx context.Context, postID string) error {
	sess, ok := c.sessions.Current(ctx)
	if !ok {
		return models.ErrUnauthenticated
	}

	post, ok := c.snapshot.Post(postID)
	if !ok {
		return models.ErrNotFound
	}

	var err error
	if post.LikedBy(sess.UserID) {
		err = c.store.RemoveLike(ctx, postID, sess.UserID)
	} else {
		err = c.store.AddLike(ctx, postID, sess.UserID)
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return &models.StoreWriteError{Op: "toggle-like", Err: err}
	}
	return nil
}
