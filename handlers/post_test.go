package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"echonest/feed"
	"echonest/handlers"
	"echonest/images"
	"echonest/likes"
	"echonest/models"
	"echonest/posting"
	"echonest/push"
	"echonest/routes"
	"echonest/session"
	"echonest/store"
	"echonest/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
)

const testSecret = "test-secret"

type noopUploader struct {
	url string
}

func (u noopUploader) Upload(ctx context.Context, f *images.File) (string, error) {
	return u.url, nil
}

func setup(t *testing.T) (*gin.Engine, *store.Memory) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()

	wsManager := websocket.NewManager()
	go wsManager.Start()

	sessions := session.ContextProvider{}
	handlers.Configure(handlers.Deps{
		Posts:    posting.NewCoordinator(mem, noopUploader{url: "https://img.example/u.png"}, sessions),
		Likes:    likes.NewCoordinator(mem, wsManager, sessions),
		Feed:     mem,
		Notifier: push.NewNotifier(nil),
		WS:       wsManager,
	})

	_, err := feed.New(mem).Subscribe(context.Background(),
		wsManager.BroadcastSnapshot,
		func(error) {})
	assert.Equal(t, nil, err)

	return routes.SetupRouter(), mem
}

func tokenFor(t *testing.T, userID, name string) string {
	t.Helper()
	token, err := session.Mint(testSecret, models.Session{UserID: userID, Name: name})
	assert.Equal(t, nil, err)
	return token
}

func postForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		assert.Equal(t, nil, writer.WriteField(key, value))
	}
	assert.Equal(t, nil, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(router *gin.Engine, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRequiresAuth(t *testing.T) {
	router, mem := setup(t)

	body, ct := postForm(t, map[string]string{"title": "T", "description": "D"})
	w := doRequest(router, http.MethodPost, "/api/posts", "", body, ct)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	posts, _ := mem.List(context.Background())
	assert.Equal(t, 0, len(posts))
}

func TestCreateAndList(t *testing.T) {
	router, mem := setup(t)
	token := tokenFor(t, "author-1", "Dana")

	body, ct := postForm(t, map[string]string{"title": "T", "description": "D"})
	w := doRequest(router, http.MethodPost, "/api/posts", token, body, ct)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(router, http.MethodGet, "/api/posts", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var posts []models.Post
	assert.Equal(t, nil, json.Unmarshal(w.Body.Bytes(), &posts))
	assert.Equal(t, 1, len(posts))
	assert.Equal(t, "T", posts[0].Title)
	assert.Equal(t, "author-1", posts[0].UserID)
	assert.Equal(t, "Dana", posts[0].Username)

	stored, _ := mem.List(context.Background())
	assert.Equal(t, 1, len(stored))
}

func TestCreateMissingTitle(t *testing.T) {
	router, mem := setup(t)
	token := tokenFor(t, "author-1", "Dana")

	body, ct := postForm(t, map[string]string{"description": "D"})
	w := doRequest(router, http.MethodPost, "/api/posts", token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	posts, _ := mem.List(context.Background())
	assert.Equal(t, 0, len(posts))
}

func TestEditByNonAuthorForbidden(t *testing.T) {
	router, mem := setup(t)

	id, _ := mem.Create(context.Background(), models.Post{
		Title: "T", Description: "D", UserID: "author-1", CreatedAt: 1,
	})

	body, ct := postForm(t, map[string]string{"title": "X", "description": "Y"})
	w := doRequest(router, http.MethodPut, "/api/posts/"+id, tokenFor(t, "intruder", "Mal"), body, ct)
	assert.Equal(t, http.StatusForbidden, w.Code)

	post, _ := mem.Get(context.Background(), id)
	assert.Equal(t, "T", post.Title)
}

func TestEditByAuthor(t *testing.T) {
	router, mem := setup(t)

	id, _ := mem.Create(context.Background(), models.Post{
		Title: "T", Description: "D", UserID: "author-1",
		PostImageURL: "https://img.example/prior.png", CreatedAt: 1,
	})

	body, ct := postForm(t, map[string]string{"title": "T2", "description": "D2"})
	w := doRequest(router, http.MethodPut, "/api/posts/"+id, tokenFor(t, "author-1", "Dana"), body, ct)
	assert.Equal(t, http.StatusOK, w.Code)

	post, _ := mem.Get(context.Background(), id)
	assert.Equal(t, "T2", post.Title)
	// No new file: the recorded image survives the edit.
	assert.Equal(t, "https://img.example/prior.png", post.PostImageURL)
}

func TestDeleteThenGet(t *testing.T) {
	router, mem := setup(t)

	id, _ := mem.Create(context.Background(), models.Post{
		Title: "T", Description: "D", UserID: "author-1", CreatedAt: 1,
	})

	w := doRequest(router, http.MethodDelete, "/api/posts/"+id, tokenFor(t, "author-1", "Dana"), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/posts/"+id, "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleLike(t *testing.T) {
	router, mem := setup(t)

	id, _ := mem.Create(context.Background(), models.Post{
		Title: "T", Description: "D", UserID: "author-1", CreatedAt: 1,
	})

	token := tokenFor(t, "fan-1", "Fan")

	w := doRequest(router, http.MethodPost, "/api/posts/"+id+"/like", token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	post, _ := mem.Get(context.Background(), id)
	assert.Equal(t, true, post.LikedBy("fan-1"))

	w = doRequest(router, http.MethodPost, "/api/posts/"+id+"/like", token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	post, _ = mem.Get(context.Background(), id)
	assert.Equal(t, false, post.LikedBy("fan-1"))
}
