package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/weiwei-tsao/friendsfeed/internal/repository"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

type memContacts struct {
	mu        sync.Mutex
	byEmail   map[string]model.Contact
	createErr error
	failEmail string
	// raceOnCreate makes the next Create behave as if another writer won.
	raceOnCreate bool
}

func newMemContacts() *memContacts {
	return &memContacts{byEmail: map[string]model.Contact{}}
}

func (m *memContacts) FindByEmail(_ context.Context, email string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memContacts) Create(_ context.Context, c model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceOnCreate {
		m.raceOnCreate = false
		m.byEmail[c.Email] = model.Contact{ID: c.ID, Name: "Other Writer", Email: c.Email, IsActive: true}
		return fmt.Errorf("create contact %s: %w", c.ID, repository.ErrAlreadyExists)
	}
	if m.createErr != nil || c.Email == m.failEmail {
		return errors.Join(m.createErr, errors.New("write rejected"))
	}
	if _, ok := m.byEmail[c.Email]; ok {
		return repository.ErrAlreadyExists
	}
	m.byEmail[c.Email] = c
	return nil
}

func (m *memContacts) Update(_ context.Context, c model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEmail[c.Email] = c
	return nil
}

func (m *memContacts) get(email string) (model.Contact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[email]
	return c, ok
}

type memProducts struct {
	mu       sync.Mutex
	products map[string]model.Product
	batches  int
	err      error
}

func newMemProducts() *memProducts {
	return &memProducts{products: map[string]model.Product{}}
}

func (m *memProducts) BatchUpsert(_ context.Context, products []model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	if m.err != nil {
		return m.err
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return nil
}

type memUploads struct {
	mu      sync.Mutex
	uploads map[string]model.DataUpload
	// statuses records every status written, in order.
	statuses []string
	updates  int
}

func newMemUploads() *memUploads {
	return &memUploads{uploads: map[string]model.DataUpload{}}
}

func (m *memUploads) Create(_ context.Context, u model.DataUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[u.ID] = u
	m.statuses = append(m.statuses, u.ProcessingStatus)
	return nil
}

func (m *memUploads) Update(_ context.Context, u model.DataUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[u.ID] = u
	m.statuses = append(m.statuses, u.ProcessingStatus)
	m.updates++
	return nil
}

func (m *memUploads) Get(_ context.Context, id string) (*model.DataUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUploads) get(id string) model.DataUpload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads[id]
}

type fakeFetcher struct {
	payload Payload
	err     error
	calls   int
}

func (f *fakeFetcher) FetchPayload(_ context.Context, _ model.URLSource) (Payload, error) {
	f.calls++
	return f.payload, f.err
}

func contactRow(name, email string) Row {
	return Row{"name": name, "email": email}
}

func productRow(id, name string, price any) Row {
	return Row{"productId": id, "name": name, "price": price, "category": "Home", "brand": "Acme"}
}

func newTestIngestor(contacts *memContacts, products *memProducts, uploads *memUploads, fetcher PayloadFetcher) *Ingestor {
	return NewIngestor(contacts, products, uploads, fetcher, nil)
}
