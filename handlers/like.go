package handlers

import (
	"context"
	"net/http"
	"time"

	"echonest/session"

	"github.com/gin-gonic/gin"
)

// ToggleLike flips the caller's membership in the post's liker set. The
// response carries no post state: the visible like count changes when the
// next feed snapshot arrives.
func ToggleLike(c *gin.Context) {
	sess, _ := session.FromContext(c.Request.Context())
	postID := c.Param("id")

	// Direction is read from the snapshot before the toggle so the author
	// can be notified on a like, not an unlike.
	wasLiked := false
	if post, ok := wsManager.Post(postID); ok && sess != nil {
		wasLiked = post.LikedBy(sess.UserID)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := likeCoordinator.Toggle(ctx, postID); err != nil {
		renderError(c, err)
		return
	}

	if !wasLiked && sess != nil {
		if post, ok := wsManager.Post(postID); ok {
			go notifier.PostLiked(post, *sess)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Like toggled"})
}
