package store

import (
	"context"

	"echonest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostStore is the Mongo-backed post collection. Mutations are single-document
// operations: field updates overwrite, like set-add/set-remove commute, so no
// client-side locking is needed.
type PostStore struct {
	coll *mongo.Collection
}

func NewPostStore(coll *mongo.Collection) *PostStore {
	return &PostStore{coll: coll}
}

// Create inserts the post and returns its assigned id.
func (s *PostStore) Create(ctx context.Context, post models.Post) (string, error) {
	post.ID = primitive.NewObjectID()
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, post); err != nil {
		return "", err
	}
	return post.ID.Hex(), nil
}

// Get fetches a single post. A missing or malformed id reports
// models.ErrNotFound.
func (s *PostStore) Get(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	var post models.Post
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update applies a field-level edit. Creation timestamp, likes and author
// fields are never part of the patch.
func (s *PostStore) Update(ctx context.Context, id string, patch models.PostPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	set := bson.M{
		"title":       patch.Title,
		"description": patch.Description,
	}
	if patch.PostImageURL != "" {
		set["postImageUrl"] = patch.PostImageURL
	}

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddLike adds userID to the post's liker set. Adding an already-present
// member is a no-op at the store, so redundant toggles stay harmless.
func (s *PostStore) AddLike(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$addToSet": bson.M{"likes": userID}})
	return err
}

// RemoveLike removes userID from the post's liker set. Removing an absent
// member is a no-op.
func (s *PostStore) RemoveLike(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"likes": userID}})
	return err
}

// List returns every post ordered by descending creation timestamp, ties
// broken by descending id so the order is stable per listener.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Watch opens a change stream on the post collection and redelivers the full
// ordered result set on every insert, update or delete. The initial snapshot
// is delivered as soon as the stream is open. The returned stop function
// detaches the listener; after a delivery error the stream stays dead until
// Watch is called again.
func (s *PostStore) Watch(ctx context.Context, onSnapshot func([]models.Post), onError func(error)) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)

	stream, err := s.coll.Watch(wctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, &models.StoreReadError{Op: "watch", Err: err}
	}

	go func() {
		defer stream.Close(context.Background())

		deliver := func() bool {
			posts, err := s.List(wctx)
			if err != nil {
				if wctx.Err() == nil {
					onError(&models.StoreReadError{Op: "list", Err: err})
				}
				return false
			}
			onSnapshot(posts)
			return true
		}

		if !deliver() {
			return
		}
		for stream.Next(wctx) {
			if !deliver() {
				return
			}
		}
		if err := stream.Err(); err != nil && wctx.Err() == nil {
			onError(&models.StoreReadError{Op: "watch", Err: err})
		}
	}()

	return cancel, nil
}
