package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
	"github.com/weiwei-tsao/friendsfeed/pkg/util"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

const (
	// getAllChunk bounds the refs sent in one GetAll call.
	getAllChunk = 100
	// getAllParallelism bounds concurrent GetAll calls per lookup.
	getAllParallelism = 4
)

// ContactRepository handles Firestore read/write for contacts.
type ContactRepository struct {
	client *firestore.Client
}

func NewContactRepository(client *firestore.Client) *ContactRepository {
	return &ContactRepository{client: client}
}

// ContactQuery filters and pages a contact search.
type ContactQuery struct {
	Search     string
	ActiveOnly bool
	Page       int
	Limit      int
}

// ContactIDForEmail derives the document id of a contact from its email, so the
// same address always maps to the same document.
func ContactIDForEmail(email string) string {
	return util.HashString(model.NormalizeEmail(email))
}

// GetByIDs loads the contacts that exist among ids. Ids that cannot name a
// document are treated as missing. Lookups are split into chunks fetched
// concurrently.
func (r *ContactRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Contact, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if util.ValidDocID(id) {
			valid = append(valid, id)
		}
	}
	ids = valid
	if len(ids) == 0 {
		return nil, nil
	}
	coll := r.client.Collection(contactsCollection)

	var (
		mu  sync.Mutex
		out = make([]model.Contact, 0, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(getAllParallelism)
	for start := 0; start < len(ids); start += getAllChunk {
		end := start + getAllChunk
		if end > len(ids) {
			end = len(ids)
		}
		refs := make([]*firestore.DocumentRef, 0, end-start)
		for _, id := range ids[start:end] {
			refs = append(refs, coll.Doc(id))
		}
		g.Go(func() error {
			snaps, err := r.client.GetAll(gctx, refs)
			if err != nil {
				return fmt.Errorf("get contacts: %w", err)
			}
			contacts, err := decodeAll(snaps, setContactID)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, contacts...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByEmail returns the contact with the given address (case-insensitive), or nil.
func (r *ContactRepository) FindByEmail(ctx context.Context, email string) (*model.Contact, error) {
	email = model.NormalizeEmail(email)
	snap, err := r.client.Collection(contactsCollection).Doc(ContactIDForEmail(email)).Get(ctx)
	if err == nil {
		var c model.Contact
		if err := snap.DataTo(&c); err != nil {
			return nil, decodeErr(snap, err)
		}
		setContactID(&c, snap.Ref.ID)
		return &c, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("get contact by email: %w", err)
	}

	// documents written before ids were derived from emails
	docs, err := r.client.Collection(contactsCollection).Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query contact by email: %w", err)
	}
	contacts, err := decodeAll(docs, setContactID)
	if err != nil || len(contacts) == 0 {
		return nil, err
	}
	return &contacts[0], nil
}

// Create inserts a new contact; it fails if the document already exists.
func (r *ContactRepository) Create(ctx context.Context, c model.Contact) error {
	if c.ID == "" {
		return fmt.Errorf("contact id is required")
	}
	if _, err := r.client.Collection(contactsCollection).Doc(c.ID).Create(ctx, c); err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("create contact %s: %w", c.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("create contact %s: %w", c.ID, err)
	}
	return nil
}

// Update overwrites an existing contact document.
func (r *ContactRepository) Update(ctx context.Context, c model.Contact) error {
	if c.ID == "" {
		return fmt.Errorf("contact id is required")
	}
	if _, err := r.client.Collection(contactsCollection).Doc(c.ID).Set(ctx, c); err != nil {
		return fmt.Errorf("update contact %s: %w", c.ID, err)
	}
	return nil
}

// BatchUpsert writes contacts in batches to reduce round trips.
func (r *ContactRepository) BatchUpsert(ctx context.Context, contacts []model.Contact) error {
	for start := 0; start < len(contacts); start += batchSize {
		end := start + batchSize
		if end > len(contacts) {
			end = len(contacts)
		}
		batch := r.client.Batch()
		for _, c := range contacts[start:end] {
			if c.ID == "" {
				c.ID = ContactIDForEmail(c.Email)
			}
			batch.Set(r.client.Collection(contactsCollection).Doc(c.ID), c)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("commit batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// Search streams contacts ordered by name and matches the search text against
// name and email case-insensitively. It returns one page and the total match count.
func (r *ContactRepository) Search(ctx context.Context, q ContactQuery) ([]model.Contact, int, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	query := r.client.Collection(contactsCollection).OrderBy("nameLower", firestore.Asc)
	if q.ActiveOnly {
		query = r.client.Collection(contactsCollection).Where("isActive", "==", true).OrderBy("nameLower", firestore.Asc)
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	skip := (q.Page - 1) * q.Limit
	var (
		page  []model.Contact
		total int
	)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("iterate contacts: %w", err)
		}
		var c model.Contact
		if err := doc.DataTo(&c); err != nil {
			return nil, 0, decodeErr(doc, err)
		}
		setContactID(&c, doc.Ref.ID)
		if needle != "" && !strings.Contains(strings.ToLower(c.Name), needle) && !strings.Contains(c.Email, needle) {
			continue
		}
		if total >= skip && len(page) < q.Limit {
			page = append(page, c)
		}
		total++
	}
	return page, total, nil
}

func setContactID(c *model.Contact, id string) {
	if c.ID == "" {
		c.ID = id
	}
}
