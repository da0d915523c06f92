package handlers

import (
	"context"
	"errors"
	"net/http"

	"echonest/likes"
	"echonest/models"
	"echonest/posting"
	"echonest/push"
	"echonest/websocket"

	"github.com/gin-gonic/gin"
)

const fallbackAvatar = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"

// FeedReader serves the one-shot REST read of the ordered feed.
type FeedReader interface {
	List(ctx context.Context) ([]models.Post, error)
}

var (
	postCoordinator *posting.Coordinator
	likeCoordinator *likes.Coordinator
	feedReader      FeedReader
	notifier        *push.Notifier
	wsManager       *websocket.Manager
)

// Deps carries everything the handlers delegate to.
type Deps struct {
	Posts    *posting.Coordinator
	Likes    *likes.Coordinator
	Feed     FeedReader
	Notifier *push.Notifier
	WS       *websocket.Manager
}

// Configure wires the handlers to their coordinators. Call once from main
// before the router starts serving.
func Configure(d Deps) {
	postCoordinator = d.Posts
	likeCoordinator = d.Likes
	feedReader = d.Feed
	notifier = d.Notifier
	wsManager = d.WS
}

// renderError maps the mutation error taxonomy onto HTTP. Collaborator
// failures are surfaced in the body so the client can show a corrective
// message; nothing is retried here.
func renderError(c *gin.Context, err error) {
	var (
		validationErr *models.ValidationError
		uploadErr     *models.UploadError
		writeErr      *models.StoreWriteError
		readErr       *models.StoreReadError
	)

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &uploadErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": uploadErr.Error()})
	case errors.As(err, &writeErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": writeErr.Error()})
	case errors.As(err, &readErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": readErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
