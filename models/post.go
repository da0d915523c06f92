package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Post is a single feed entry. The likes slice is treated as a set of user
// ids: membership and count are meaningful, order is not.
type Post struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	UserID       string             `bson:"userId" json:"userId"`
	Username     string             `bson:"username" json:"username"`
	PhotoURL     string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	PostImageURL string             `bson:"postImageUrl,omitempty" json:"postImageUrl,omitempty"`
	Likes        []string           `bson:"likes" json:"likes"`
	CreatedAt    int64              `bson:"createdAt" json:"createdAt"` // unix millis, set once at create
}

func (p *Post) LikedBy(userID string) bool {
	for _, uid := range p.Likes {
		if uid == userID {
			return true
		}
	}
	return false
}

func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// PostPatch is the set of fields an edit may touch. CreatedAt, likes and the
// author identity fields are deliberately absent: edits never move a post in
// the feed or rewrite its history.
type PostPatch struct {
	Title        string
	Description  string
	PostImageURL string
}
