package posting

import (
	"context"
	"errors"
	"strings"
	"time"

	"echonest/images"
	"echonest/models"
	"echonest/session"
)

// Store is the slice of the post store the coordinator writes through.
type Store interface {
	Create(ctx context.Context, post models.Post) (string, error)
	Update(ctx context.Context, id string, patch models.PostPatch) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Post, error)
}

// Uploader is the image host boundary: one binary in, one public URL out.
type Uploader interface {
	Upload(ctx context.Context, f *images.File) (string, error)
}

// Form is the user's post input. Image is nil when no new file was chosen;
// ExistingImageURL carries the previously recorded URL through an edit so a
// no-new-file edit preserves it. Clearing an image is not supported.
type Form struct {
	Title            string
	Description      string
	Image            *images.File
	ExistingImageURL string
}

// Coordinator owns the create/edit lifecycle, including the two-step
// upload-then-write saga. The steps are sequential, not transactional: a
// store-write failure after a successful upload leaves the image orphaned on
// the host, an accepted leak with no compensating delete.
type Coordinator struct {
	store    Store
	uploader Uploader
	sessions session.Provider
}

func NewCoordinator(store Store, uploader Uploader, sessions session.Provider) *Coordinator {
	return &Coordinator{store: store, uploader: uploader, sessions: sessions}
}

// Submit validates the form, uploads the new image if one is attached, then
// issues exactly one store write: an update when existingPostID is given,
// otherwise a create with an empty liker set and a fresh creation timestamp.
// Validation failures cost zero collaborator calls; an upload failure blocks
// the record write.
func (c *Coordinator) Submit(ctx context.Context, form Form, existingPostID string) error {
	sess, ok := c.sessions.Current(ctx)
	if !ok {
		return models.ErrUnauthenticated
	}

	if err := validate(form); err != nil {
		return err
	}

	imageURL := form.ExistingImageURL
	if form.Image != nil {
		url, err := c.uploader.Upload(ctx, form.Image)
		if err != nil {
			return &models.UploadError{Reason: err.Error(), Err: err}
		}
		imageURL = url
	}

	if existingPostID != "" {
		patch := models.PostPatch{
			Title:        form.Title,
			Description:  form.Description,
			PostImageURL: imageURL,
		}
		if err := c.store.Update(ctx, existingPostID, patch); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return err
			}
			return &models.StoreWriteError{Op: "update", Err: err}
		}
		return nil
	}

	post := models.Post{
		Title:        form.Title,
		Description:  form.Description,
		UserID:       sess.UserID,
		Username:     sess.Name,
		PhotoURL:     sess.AvatarURL,
		PostImageURL: imageURL,
		Likes:        []string{},
		CreatedAt:    time.Now().UnixMilli(),
	}
	if _, err := c.store.Create(ctx, post); err != nil {
		return &models.StoreWriteError{Op: "create", Err: err}
	}
	return nil
}

// Load is the edit-mode prefetch: it fetches the record whose fields seed the
// form. A missing record reports models.ErrNotFound and the caller is
// expected to leave the edit flow.
func (c *Coordinator) Load(ctx context.Context, postID string) (*models.Post, error) {
	post, err := c.store.Get(ctx, postID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, &models.StoreReadError{Op: "get", Err: err}
	}
	return post, nil
}

// Delete removes a post. Authorship is checked by the caller before the
// write, not re-verified here.
func (c *Coordinator) Delete(ctx context.Context, postID string) error {
	if _, ok := c.sessions.Current(ctx); !ok {
		return models.ErrUnauthenticated
	}

	if err := c.store.Delete(ctx, postID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return &models.StoreWriteError{Op: "delete", Err: err}
	}
	return nil
}

func validate(form Form) error {
	if strings.TrimSpace(form.Title) == "" {
		return &models.ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(form.Description) == "" {
		return &models.ValidationError{Field: "description", Reason: "required"}
	}
	if form.Image != nil {
		if err := images.Validate(form.Image); err != nil {
			return err
		}
	}
	return nil
}
