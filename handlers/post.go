package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"echonest/images"
	"echonest/posting"
	"echonest/session"

	"github.com/gin-gonic/gin"
)

// ListPosts is the one-shot read of the ordered feed; live viewers use /ws.
func ListPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	posts, err := feedReader.List(ctx)
	if err != nil {
		log.Printf("ListPosts error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost serves the edit-mode prefetch. A missing post is a 404 and the
// client is expected to leave the edit flow.
func GetPost(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := postCoordinator.Load(ctx, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost accepts a multipart form (title, description, optional image)
// and runs the upload-then-write submit.
func CreatePost(c *gin.Context) {
	form, ok := bindPostForm(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := postCoordinator.Submit(ctx, form, ""); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully"})
}

// UpdatePost edits an existing post. Only the author may edit; the check
// happens here at the transport, the coordinator itself is ownership-blind.
func UpdatePost(c *gin.Context) {
	sess, _ := session.FromContext(c.Request.Context())
	postID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	existing, err := postCoordinator.Load(ctx, postID)
	if err != nil {
		renderError(c, err)
		return
	}
	if existing.UserID != sess.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can edit this post"})
		return
	}

	form, ok := bindPostForm(c)
	if !ok {
		return
	}
	// An edit without a new file keeps the recorded image.
	form.ExistingImageURL = existing.PostImageURL

	if err := postCoordinator.Submit(ctx, form, postID); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully"})
}

func DeletePost(c *gin.Context) {
	sess, _ := session.FromContext(c.Request.Context())
	postID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	existing, err := postCoordinator.Load(ctx, postID)
	if err != nil {
		renderError(c, err)
		return
	}
	if existing.UserID != sess.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can delete this post"})
		return
	}

	if err := postCoordinator.Delete(ctx, postID); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func bindPostForm(c *gin.Context) (posting.Form, bool) {
	form := posting.Form{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	fh, err := c.FormFile("image")
	if err == nil {
		file, ferr := images.FromMultipart(fh)
		if ferr != nil {
			renderError(c, ferr)
			return posting.Form{}, false
		}
		form.Image = file
	}

	return form, true
}
