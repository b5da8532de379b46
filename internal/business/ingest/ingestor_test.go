package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwei-tsao/friendsfeed/internal/repository"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

func pendingUpload(id string) model.DataUpload {
	return model.DataUpload{
		ID:               id,
		UserID:           "user-1",
		UploadType:       model.UploadTypeExcel,
		ProcessingStatus: model.UploadPending,
	}
}

func TestProcessMergesContactsByEmail(t *testing.T) {
	contacts := newMemContacts()
	existing := model.Contact{
		ID:       repository.ContactIDForEmail("bob@example.com"),
		Name:     "Bob",
		Email:    "bob@example.com",
		Avatar:   "https://example.com/bob.png",
		IsActive: true,
	}
	contacts.byEmail[existing.Email] = existing
	uploads := newMemUploads()
	in := newTestIngestor(contacts, newMemProducts(), uploads, nil)

	result := in.Process(context.Background(), pendingUpload("u1"), Payload{Contacts: []Row{
		contactRow("Alice", "Alice@Example.com"),
		{"name": "Robert", "email": "BOB@example.com", "productDatasets": map[string]any{
			"wishlist":  []any{map[string]any{"productId": "p1", "priority": 2}},
			"watchTime": []any{map[string]any{"productId": "p2", "timeSpent": 120}},
		}},
	}})

	assert.Equal(t, model.UploadCompleted, result.ProcessingStatus)
	assert.False(t, result.CompletedAt.IsZero())
	r := result.ProcessingResults
	assert.Equal(t, 2, r.ContactsProcessed)
	assert.Equal(t, 1, r.ContactsCreated)
	assert.Equal(t, 1, r.ContactsUpdated)
	assert.Empty(t, r.Errors)

	alice, ok := contacts.get("alice@example.com")
	require.True(t, ok, "email should be stored lower-cased")
	assert.Equal(t, repository.ContactIDForEmail("alice@example.com"), alice.ID)
	assert.True(t, alice.IsActive)
	assert.Equal(t, "alice", alice.NameLower)

	bob, _ := contacts.get("bob@example.com")
	assert.Equal(t, existing.ID, bob.ID)
	assert.Equal(t, "Robert", bob.Name)
	assert.Equal(t, existing.Avatar, bob.Avatar, "fields absent from the row are kept")
	assert.Equal(t, 2, bob.Metadata.TotalProducts)
	assert.Equal(t, 2.0, bob.Metadata.TotalWatchTime)

	assert.Equal(t, model.UploadProcessing, uploads.statuses[0])
	assert.Equal(t, model.UploadCompleted, uploads.get("u1").ProcessingStatus)
}

func TestProcessSkipsInvalidRows(t *testing.T) {
	contacts := newMemContacts()
	products := newMemProducts()
	in := newTestIngestor(contacts, products, newMemUploads(), nil)

	result := in.Process(context.Background(), pendingUpload("u1"), Payload{
		Contacts: []Row{
			contactRow("Alice", "alice@example.com"),
			contactRow("Broken", "broken"),
			contactRow("Carol", "carol@example.com"),
		},
		Products: []Row{
			productRow("p1", "Lamp", 20.0),
			productRow("p2", "Chair", "free"),
		},
	})

	assert.Equal(t, model.UploadCompleted, result.ProcessingStatus)
	r := result.ProcessingResults
	assert.Equal(t, 2, r.ContactsCreated)
	assert.Equal(t, 1, r.ProductsProcessed)
	require.Len(t, r.Errors, 2)
	assert.Equal(t, 2, r.Errors[0].Row)
	assert.Equal(t, "Invalid email format", r.Errors[0].Message)
	assert.Equal(t, "products.price", r.Errors[1].Field)

	_, ok := contacts.get("broken")
	assert.False(t, ok)
	assert.Contains(t, products.products, "p1")
	assert.NotContains(t, products.products, "p2")
}

func TestProcessFailsOnMissingSets(t *testing.T) {
	contacts := newMemContacts()
	in := newTestIngestor(contacts, newMemProducts(), newMemUploads(), nil)

	result := in.Process(context.Background(), pendingUpload("u1"), Payload{})

	assert.Equal(t, model.UploadFailed, result.ProcessingStatus)
	require.Len(t, result.ProcessingResults.Errors, 2)
	assert.Equal(t, 0, result.ProcessingResults.ContactsProcessed)
}

func TestProcessRecordsPersistenceErrorsAndContinues(t *testing.T) {
	contacts := newMemContacts()
	contacts.failEmail = "bad@example.com"
	in := newTestIngestor(contacts, newMemProducts(), newMemUploads(), nil)

	result := in.Process(context.Background(), pendingUpload("u1"), Payload{Contacts: []Row{
		contactRow("Bad", "bad@example.com"),
		contactRow("Good", "good@example.com"),
	}})

	assert.Equal(t, model.UploadCompleted, result.ProcessingStatus)
	assert.Equal(t, 1, result.ProcessingResults.ContactsCreated)
	require.Len(t, result.ProcessingResults.Errors, 1)
	e := result.ProcessingResults.Errors[0]
	assert.Equal(t, model.UploadErrPersistence, e.Kind)
	assert.Equal(t, 1, e.Row)
}

func TestProcessRecoversFromCreateRace(t *testing.T) {
	contacts := newMemContacts()
	contacts.raceOnCreate = true
	in := newTestIngestor(contacts, newMemProducts(), newMemUploads(), nil)

	result := in.Process(context.Background(), pendingUpload("u1"), Payload{Contacts: []Row{
		contactRow("Alice", "alice@example.com"),
	}})

	assert.Equal(t, 1, result.ProcessingResults.ContactsUpdated)
	assert.Equal(t, 0, result.ProcessingResults.ContactsCreated)
	alice, _ := contacts.get("alice@example.com")
	assert.Equal(t, "Alice", alice.Name)
}

func TestProcessURLSource(t *testing.T) {
	t.Run("fills missing sets, inline wins", func(t *testing.T) {
		contacts := newMemContacts()
		products := newMemProducts()
		fetcher := &fakeFetcher{payload: Payload{
			Contacts: []Row{contactRow("Remote", "remote@example.com")},
			Products: []Row{productRow("remote-p", "Remote Product", 5.0)},
		}}
		in := newTestIngestor(contacts, products, newMemUploads(), fetcher)
		upload := pendingUpload("u1")
		upload.URLSource = &model.URLSource{URL: "https://example.com/data.json", Type: "api"}

		result := in.Process(context.Background(), upload, Payload{
			Contacts: []Row{contactRow("Inline", "inline@example.com")},
		})

		assert.Equal(t, model.UploadCompleted, result.ProcessingStatus)
		assert.Equal(t, 1, fetcher.calls)
		assert.False(t, result.URLSource.LastFetched.IsZero())
		_, remote := contacts.get("remote@example.com")
		_, inline := contacts.get("inline@example.com")
		assert.False(t, remote)
		assert.True(t, inline)
		assert.Contains(t, products.products, "remote-p")
	})

	t.Run("fetch failure is reported", func(t *testing.T) {
		fetcher := &fakeFetcher{err: errors.New("connection refused")}
		in := newTestIngestor(newMemContacts(), newMemProducts(), newMemUploads(), fetcher)
		upload := pendingUpload("u1")
		upload.URLSource = &model.URLSource{URL: "https://example.com/data.json"}

		result := in.Process(context.Background(), upload, Payload{})

		assert.Equal(t, model.UploadFailed, result.ProcessingStatus)
		require.NotEmpty(t, result.ProcessingResults.Errors)
		assert.Equal(t, model.UploadErrFetch, result.ProcessingResults.Errors[0].Kind)
	})
}

func TestProcessSavesProgress(t *testing.T) {
	uploads := newMemUploads()
	in := newTestIngestor(newMemContacts(), newMemProducts(), uploads, nil)

	rows := make([]Row, 60)
	for i := range rows {
		rows[i] = contactRow(fmt.Sprintf("Contact %d", i), fmt.Sprintf("c%d@example.com", i))
	}
	in.Process(context.Background(), pendingUpload("u1"), Payload{Contacts: rows})

	// processing, two progress saves at rows 25 and 50, completed
	assert.Equal(t, 4, uploads.updates)
}

func TestProcessCancelled(t *testing.T) {
	uploads := newMemUploads()
	contacts := newMemContacts()
	in := newTestIngestor(contacts, newMemProducts(), uploads, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := in.Process(ctx, pendingUpload("u1"), Payload{Contacts: []Row{contactRow("A", "a@example.com")}})

	assert.Equal(t, model.UploadFailed, result.ProcessingStatus)
	require.Len(t, result.ProcessingResults.Errors, 1)
	assert.Equal(t, "upload cancelled", result.ProcessingResults.Errors[0].Message)
	assert.Equal(t, model.UploadFailed, uploads.get("u1").ProcessingStatus)
	_, ok := contacts.get("a@example.com")
	assert.False(t, ok)
}
