package friends

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

type fakeContactStore struct {
	contacts map[string]model.Contact
	err      error
}

func (f *fakeContactStore) GetByIDs(ctx context.Context, ids []string) ([]model.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Contact
	for _, id := range ids {
		if strings.Contains(id, "/") {
			return nil, fmt.Errorf("invalid document reference %q", id)
		}
		if c, ok := f.contacts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// memFeedStore mirrors the transactional behavior of the Firestore store under a mutex.
type memFeedStore struct {
	mu          sync.Mutex
	feeds       map[string]*model.Feed
	activateErr error
	activations int
}

func newMemFeedStore() *memFeedStore {
	return &memFeedStore{feeds: make(map[string]*model.Feed)}
}

func (m *memFeedStore) FindActiveBySelection(ctx context.Context, userID, key string) (*model.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.feeds {
		if f.UserID == userID && f.IsActive && f.SelectionKey == key {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFeedStore) GetActive(ctx context.Context, userID string) (*model.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.feeds {
		if f.UserID == userID && f.IsActive {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFeedStore) Activate(ctx context.Context, feed model.Feed) (model.Feed, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activateErr != nil {
		return model.Feed{}, false, m.activateErr
	}
	for _, f := range m.feeds {
		if f.UserID == feed.UserID && f.IsActive && f.SelectionKey == feed.SelectionKey {
			return *f, true, nil
		}
	}
	for _, f := range m.feeds {
		if f.UserID == feed.UserID {
			f.IsActive = false
		}
	}
	feed.IsActive = true
	cp := feed
	m.feeds[feed.ID] = &cp
	m.activations++
	return feed, false, nil
}

func (m *memFeedStore) UpdateFilters(ctx context.Context, userID string, filters model.FeedFilters, now time.Time) (model.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.feeds {
		if f.UserID == userID && f.IsActive {
			f.Filters = filters
			f.FeedMetadata.LastUpdated = now
			return *f, nil
		}
	}
	return model.Feed{}, apperr.NoActiveFeed()
}

func (m *memFeedStore) activeCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.feeds {
		if f.UserID == userID && f.IsActive {
			n++
		}
	}
	return n
}

func (m *memFeedStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds)
}

type fakeUserStore struct {
	mu      sync.Mutex
	records map[string][]string
	err     error
}

func (f *fakeUserStore) RecordFeed(ctx context.Context, userID string, contactIDs []string, feedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.records == nil {
		f.records = make(map[string][]string)
	}
	f.records[userID] = append(f.records[userID], feedID)
	return nil
}

type fakeCatalog struct {
	products map[string]model.Product
	order    []string
	lastLim  int
}

func newFakeCatalog(products ...model.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]model.Product)}
	for _, p := range products {
		c.products[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c
}

func (c *fakeCatalog) FindByID(ctx context.Context, id string) (*model.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakeCatalog) FindSimilar(ctx context.Context, target model.Product, limit int) ([]model.Product, error) {
	c.lastLim = limit
	var out []model.Product
	for _, id := range c.order {
		p := c.products[id]
		if p.ID == target.ID {
			continue
		}
		if p.Category == target.Category || p.Brand == target.Brand ||
			(p.Price >= target.Price*0.8 && p.Price <= target.Price*1.2) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func contactID(i int) string { return fmt.Sprintf("contact-%02d", i) }

// newContacts returns n active contacts with empty datasets.
func newContacts(n int) []model.Contact {
	out := make([]model.Contact, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.Contact{
			ID:       contactID(i),
			Name:     fmt.Sprintf("Contact %d", i),
			Email:    fmt.Sprintf("contact%d@example.com", i),
			IsActive: true,
		})
	}
	return out
}

func contactStoreOf(contacts []model.Contact) *fakeContactStore {
	s := &fakeContactStore{contacts: make(map[string]model.Contact)}
	for _, c := range contacts {
		s.contacts[c.ID] = c
	}
	return s
}

func idsOf(contacts []model.Contact) []string {
	ids := make([]string, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}
	return ids
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
