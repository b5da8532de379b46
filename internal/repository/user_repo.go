package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
)

// UserRepository maintains the friends-feed fields of storefront user documents.
type UserRepository struct {
	client *firestore.Client
	now    func() time.Time
}

func NewUserRepository(client *firestore.Client) *UserRepository {
	return &UserRepository{client: client, now: func() time.Time { return time.Now().UTC() }}
}

// RecordFeed stores the latest contact selection and appends feedID to the
// user's feed history, creating the document if needed.
func (r *UserRepository) RecordFeed(ctx context.Context, userID string, contactIDs []string, feedID string) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"id":               userID,
		"selectedContacts": contactIDs,
		"friendsFeeds":     firestore.ArrayUnion(feedID),
		"updatedAt":        r.now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("record feed on user %s: %w", userID, err)
	}
	return nil
}
