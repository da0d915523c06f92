package push

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"echonest/models"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Subscription ties a browser push endpoint to a user.
type Subscription struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty"`
	UserID string               `bson:"userId"`
	Sub    webpush.Subscription `bson:"sub"`
}

// Notifier delivers best-effort web-push notifications. Delivery failures are
// logged and never surfaced to the user whose action triggered them.
type Notifier struct {
	subs         *mongo.Collection
	vapidPublic  string
	vapidPrivate string
	subject      string
}

func NewNotifier(subs *mongo.Collection) *Notifier {
	return &Notifier{
		subs:         subs,
		vapidPublic:  os.Getenv("VAPID_PUBLIC_KEY"),
		vapidPrivate: os.Getenv("VAPID_PRIVATE_KEY"),
		subject:      "mailto:admin@echonest.app",
	}
}

func (n *Notifier) Configured() bool {
	return n.vapidPublic != "" && n.vapidPrivate != ""
}

// Save upserts a user's push subscription, one per user.
func (n *Notifier) Save(ctx context.Context, userID string, sub webpush.Subscription) error {
	record := Subscription{
		UserID: userID,
		Sub:    sub,
	}
	_, err := n.subs.UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": record},
		options.Update().SetUpsert(true),
	)
	return err
}

// PostLiked notifies the post's author that someone liked their post. Authors
// liking their own posts are not notified.
func (n *Notifier) PostLiked(post models.Post, liker models.Session) {
	if !n.Configured() || post.UserID == liker.UserID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var record Subscription
	err := n.subs.FindOne(ctx, bson.M{"userId": post.UserID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return
	}
	if err != nil {
		log.Printf("Push subscription lookup failed: %v", err)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": "New like on your post",
		"body":  liker.Name + " liked \"" + post.Title + "\"",
		"tag":   "like-" + post.ID.Hex(),
	})
	if err != nil {
		return
	}

	resp, err := webpush.SendNotification(payload, &record.Sub, &webpush.Options{
		Subscriber:      n.subject,
		VAPIDPublicKey:  n.vapidPublic,
		VAPIDPrivateKey: n.vapidPrivate,
		TTL:             3600,
	})
	if err != nil {
		log.Printf("Push notification failed for user %s: %v", post.UserID, err)
		return
	}
	resp.Body.Close()
}
