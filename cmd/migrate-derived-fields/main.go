package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/config"
	firestoreclient "github.com/weiwei-tsao/friendsfeed/internal/platform/firestore"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
	"github.com/weiwei-tsao/friendsfeed/pkg/util"
)

// Backfills fields the service derives on write: contacts.nameLower and
// contacts.metadata, and friends_feeds.selectionKey.
func main() {
	ctx := context.Background()

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client, credsSource, err := firestoreclient.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer client.Close()

	log.Printf("Connected to Firestore project %s using %s credentials", cfg.FirebaseProjectID, credsSource)

	fmt.Println("Starting migration: backfilling derived fields...")
	fmt.Println("========================================")

	if err := migrateContacts(ctx, client); err != nil {
		log.Fatalf("Failed to migrate contacts: %v", err)
	}
	if err := migrateFeeds(ctx, client); err != nil {
		log.Fatalf("Failed to migrate friends_feeds: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("Migration completed successfully!")
}

// updateFn returns the updates for one document, or nil to skip it.
type updateFn func(doc *firestore.DocumentSnapshot) ([]firestore.Update, error)

func migrateCollection(ctx context.Context, client *firestore.Client, collection string, fn updateFn) error {
	docs, err := client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", collection, err)
	}

	total := len(docs)
	fmt.Printf("Found %d %s documents\n", total, collection)

	batchSize := 100
	updated := 0
	skipped := 0

	for i := 0; i < total; i += batchSize {
		end := i + batchSize
		if end > total {
			end = total
		}

		batch := client.Batch()
		batchCount := 0

		for _, doc := range docs[i:end] {
			updates, err := fn(doc)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", collection, doc.Ref.ID, err)
			}
			if len(updates) == 0 {
				skipped++
				continue
			}
			batch.Update(doc.Ref, updates)
			batchCount++
			updated++
		}

		if batchCount > 0 {
			if _, err := batch.Commit(ctx); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			fmt.Printf("  Processed %d/%d documents...\n", end, total)
		}
	}

	fmt.Printf("%s migration complete: %d updated, %d skipped\n", collection, updated, skipped)
	return nil
}

func migrateContacts(ctx context.Context, client *firestore.Client) error {
	fmt.Println("\n[1/2] Migrating contacts collection...")
	return migrateCollection(ctx, client, "contacts", func(doc *firestore.DocumentSnapshot) ([]firestore.Update, error) {
		var c model.Contact
		if err := doc.DataTo(&c); err != nil {
			return nil, err
		}
		before := c.Metadata
		c.RecomputeMetadata()
		nameLower := strings.ToLower(strings.TrimSpace(c.Name))
		email := model.NormalizeEmail(c.Email)
		if c.NameLower == nameLower && c.Email == email && c.Metadata == before {
			return nil, nil
		}
		return []firestore.Update{
			{Path: "nameLower", Value: nameLower},
			{Path: "email", Value: email},
			{Path: "metadata", Value: c.Metadata},
		}, nil
	})
}

func migrateFeeds(ctx context.Context, client *firestore.Client) error {
	fmt.Println("\n[2/2] Migrating friends_feeds collection...")
	return migrateCollection(ctx, client, "friends_feeds", func(doc *firestore.DocumentSnapshot) ([]firestore.Update, error) {
		var f model.Feed
		if err := doc.DataTo(&f); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(f.SelectedContacts))
		for _, sc := range f.SelectedContacts {
			ids = append(ids, sc.ContactID)
		}
		key := util.SelectionKey(ids)
		if f.SelectionKey == key {
			return nil, nil
		}
		return []firestore.Update{{Path: "selectionKey", Value: key}}, nil
	})
}
