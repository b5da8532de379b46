package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// FeedRepository handles Firestore read/write for friends feeds.
//
// Expired feeds are removed by a Firestore TTL policy on expiresAt:
//
//	gcloud firestore fields ttls update expiresAt --collection-group=friends_feeds --enable-ttl
type FeedRepository struct {
	client *firestore.Client
}

func NewFeedRepository(client *firestore.Client) *FeedRepository {
	return &FeedRepository{client: client}
}

func (r *FeedRepository) coll() *firestore.CollectionRef {
	return r.client.Collection(feedsCollection)
}

func (r *FeedRepository) activeQuery(userID string) firestore.Query {
	return r.coll().Where("userId", "==", userID).Where("isActive", "==", true)
}

// FindActiveBySelection returns the user's active feed with the given selection key, or nil.
func (r *FeedRepository) FindActiveBySelection(ctx context.Context, userID, selectionKey string) (*model.Feed, error) {
	docs, err := r.activeQuery(userID).Where("selectionKey", "==", selectionKey).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query feed by selection: %w", err)
	}
	return firstFeed(docs)
}

// GetActive returns the user's active feed, or nil.
func (r *FeedRepository) GetActive(ctx context.Context, userID string) (*model.Feed, error) {
	docs, err := r.activeQuery(userID).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query active feed: %w", err)
	}
	return firstFeed(docs)
}

// Activate stores feed as the user's only active feed inside one transaction.
// If an active feed with the same selection key already exists it is returned
// unchanged with reused=true.
func (r *FeedRepository) Activate(ctx context.Context, feed model.Feed) (model.Feed, bool, error) {
	var (
		saved  model.Feed
		reused bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		reused = false
		snaps, err := tx.Documents(r.activeQuery(feed.UserID)).GetAll()
		if err != nil {
			return fmt.Errorf("query active feeds: %w", err)
		}
		active, err := decodeAll(snaps, setFeedID)
		if err != nil {
			return err
		}
		for _, f := range active {
			if f.SelectionKey == feed.SelectionKey {
				saved, reused = f, true
				return nil
			}
		}

		for _, snap := range snaps {
			if err := tx.Update(snap.Ref, []firestore.Update{{Path: "isActive", Value: false}}); err != nil {
				return fmt.Errorf("deactivate feed %s: %w", snap.Ref.ID, err)
			}
		}
		feed.IsActive = true
		if err := tx.Create(r.coll().Doc(feed.ID), feed); err != nil {
			return fmt.Errorf("create feed %s: %w", feed.ID, err)
		}
		saved = feed
		return nil
	})
	if err != nil {
		return model.Feed{}, false, err
	}
	return saved, reused, nil
}

// UpdateFilters replaces the filters of the user's active feed and returns the
// updated feed. It fails with a no-active-feed error when there is none.
func (r *FeedRepository) UpdateFilters(ctx context.Context, userID string, filters model.FeedFilters, now time.Time) (model.Feed, error) {
	var updated model.Feed
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(r.activeQuery(userID).Limit(1)).GetAll()
		if err != nil {
			return fmt.Errorf("query active feed: %w", err)
		}
		active, err := decodeAll(snaps, setFeedID)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return apperr.NoActiveFeed()
		}
		if err := tx.Update(snaps[0].Ref, []firestore.Update{
			{Path: "filters", Value: filters},
			{Path: "feedMetadata.lastUpdated", Value: now},
		}); err != nil {
			return fmt.Errorf("update filters: %w", err)
		}
		updated = active[0]
		updated.Filters = filters
		updated.FeedMetadata.LastUpdated = now
		return nil
	})
	if err != nil {
		return model.Feed{}, err
	}
	return updated, nil
}

func firstFeed(snaps []*firestore.DocumentSnapshot) (*model.Feed, error) {
	feeds, err := decodeAll(snaps, setFeedID)
	if err != nil || len(feeds) == 0 {
		return nil, err
	}
	return &feeds[0], nil
}

func setFeedID(f *model.Feed, id string) {
	if f.ID == "" {
		f.ID = id
	}
}
