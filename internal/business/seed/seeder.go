// Package seed loads the pre-seeded contacts and catalog used by demos and tests.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

type ContactStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Contact, error)
	BatchUpsert(ctx context.Context, contacts []model.Contact) error
}

type ProductStore interface {
	BatchUpsert(ctx context.Context, products []model.Product) error
}

// Result reports what a seeding run did.
type Result struct {
	Created        int             `json:"contactCount"`
	AlreadySeeded  bool            `json:"alreadySeeded"`
	Products       int             `json:"productCount"`
	SeededContacts []model.Contact `json:"contacts,omitempty"`
}

// Seeder writes the seed data. Runs are idempotent: contacts that already
// exist are left untouched.
type Seeder struct {
	contacts ContactStore
	products ProductStore
	log      *logger.Logger
	now      func() time.Time
}

func NewSeeder(contacts ContactStore, products ProductStore, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{
		contacts: contacts,
		products: products,
		log:      log.With("component", "Seeder"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Seeder) Run(ctx context.Context) (Result, error) {
	now := s.now()
	all := Contacts(now)
	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
	}

	existing, err := s.contacts.GetByIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("load seeded contacts: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		have[c.ID] = struct{}{}
	}
	missing := make([]model.Contact, 0, len(all))
	for _, c := range all {
		if _, ok := have[c.ID]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		s.log.Info("seed data already present", "contacts", len(existing))
		return Result{AlreadySeeded: true}, nil
	}

	products := Products(now)
	if err := s.products.BatchUpsert(ctx, products); err != nil {
		return Result{}, fmt.Errorf("seed products: %w", err)
	}
	if err := s.contacts.BatchUpsert(ctx, missing); err != nil {
		return Result{}, fmt.Errorf("seed contacts: %w", err)
	}
	s.log.Info("seeded data", "contacts", len(missing), "products", len(products))
	return Result{Created: len(missing), Products: len(products), SeededContacts: missing}, nil
}
