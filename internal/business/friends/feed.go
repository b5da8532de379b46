package friends

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/metrics"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
	"github.com/weiwei-tsao/friendsfeed/pkg/util"
)

// ContactStore resolves contact profiles.
type ContactStore interface {
	// GetByIDs returns the contacts that exist among ids, in any order.
	GetByIDs(ctx context.Context, ids []string) ([]model.Contact, error)
}

// FeedStore persists feeds and guards the one-active-feed-per-user invariant.
type FeedStore interface {
	// FindActiveBySelection returns the user's active feed built from the given
	// selection key, or nil when there is none.
	FindActiveBySelection(ctx context.Context, userID, selectionKey string) (*model.Feed, error)
	// GetActive returns the user's active feed, or nil when there is none.
	GetActive(ctx context.Context, userID string) (*model.Feed, error)
	// Activate atomically deactivates the user's active feeds and stores feed as
	// the only active one. If an active feed with the same selection key appears
	// before the commit, that feed is returned with reused=true instead.
	Activate(ctx context.Context, feed model.Feed) (saved model.Feed, reused bool, err error)
	// UpdateFilters replaces the filters of the user's active feed.
	UpdateFilters(ctx context.Context, userID string, filters model.FeedFilters, now time.Time) (model.Feed, error)
}

// UserStore records feed selections on the storefront user document.
type UserStore interface {
	RecordFeed(ctx context.Context, userID string, contactIDs []string, feedID string) error
}

// Service builds and serves friends feeds.
type Service struct {
	contacts ContactStore
	feeds    FeedStore
	users    UserStore
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(contacts ContactStore, feeds FeedStore, users UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		contacts: contacts,
		feeds:    feeds,
		users:    users,
		log:      log.With("service", "FriendsFeed"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// GenerateFeed returns the user's feed for the given contact selection. An
// active feed with the same membership is reused as is; otherwise a new feed is
// aggregated and activated in place of any previous one.
func (s *Service) GenerateFeed(ctx context.Context, userID string, contactIDs []string, filters *model.FeedFilters) (model.Feed, bool, error) {
	start := time.Now()
	feed, reused, err := s.generate(ctx, userID, contactIDs, filters)
	switch {
	case err == nil && reused:
		metrics.FeedGenerationsTotal.WithLabelValues("reused").Inc()
	case err == nil:
		metrics.FeedGenerationsTotal.WithLabelValues("created").Inc()
		metrics.FeedProducts.Observe(float64(len(feed.CombinedProducts)))
	case apperr.KindOf(err) == apperr.KindPersistence:
		metrics.FeedGenerationsTotal.WithLabelValues("failed").Inc()
	default:
		metrics.FeedGenerationsTotal.WithLabelValues("rejected").Inc()
	}
	metrics.FeedGenerationDuration.Observe(time.Since(start).Seconds())
	return feed, reused, err
}

func (s *Service) generate(ctx context.Context, userID string, contactIDs []string, filters *model.FeedFilters) (model.Feed, bool, error) {
	ids := util.DistinctIDs(contactIDs)
	if len(ids) < MinContacts {
		return model.Feed{}, false, apperr.InsufficientSelection(len(ids), MinContacts)
	}
	if filters != nil {
		if err := ValidateFilters(*filters); err != nil {
			return model.Feed{}, false, err
		}
	}

	contacts, err := s.resolveContacts(ctx, ids)
	if err != nil {
		return model.Feed{}, false, err
	}

	key := util.SelectionKey(ids)
	existing, err := s.feeds.FindActiveBySelection(ctx, userID, key)
	if err != nil {
		return model.Feed{}, false, apperr.Persistence("find active feed", err)
	}
	if existing != nil {
		s.log.Debug("reusing active feed", "userId", userID, "feedId", existing.ID)
		return *existing, true, nil
	}

	products, err := Aggregate(contacts)
	if err != nil {
		return model.Feed{}, false, err
	}

	now := s.now()
	feed := model.Feed{
		ID:               s.newID(),
		UserID:           userID,
		SelectionKey:     key,
		SelectedContacts: make([]model.SelectedContact, 0, len(contacts)),
		CombinedProducts: products,
		FeedMetadata: model.FeedMetadata{
			TotalProducts: len(products),
			TotalContacts: len(contacts),
			GeneratedAt:   now,
			LastUpdated:   now,
		},
		Filters:   model.FeedFilters{SortBy: model.SortRelevance},
		IsActive:  true,
		ExpiresAt: now.Add(model.FeedTTL),
	}
	if filters != nil {
		feed.Filters = *filters
		if feed.Filters.SortBy == "" {
			feed.Filters.SortBy = model.SortRelevance
		}
	}
	for _, c := range contacts {
		feed.SelectedContacts = append(feed.SelectedContacts, model.SelectedContact{
			ContactID:       c.ID,
			ContactName:     c.Name,
			SelectionWeight: 1,
		})
	}

	saved, reused, err := s.feeds.Activate(ctx, feed)
	if err != nil {
		return model.Feed{}, false, apperr.Persistence("activate feed", err)
	}
	if reused {
		return saved, true, nil
	}

	if s.users != nil {
		if err := s.users.RecordFeed(ctx, userID, ids, saved.ID); err != nil {
			s.log.Warn("record feed on user failed", "userId", userID, "feedId", saved.ID, "error", err)
		}
	}
	s.log.Info("generated feed", "userId", userID, "feedId", saved.ID,
		"contacts", len(contacts), "products", len(products))
	return saved, false, nil
}

// resolveContacts loads ids and returns them in request order. Unknown and
// retired contacts are reported together.
func (s *Service) resolveContacts(ctx context.Context, ids []string) ([]model.Contact, error) {
	lookup := make([]string, 0, len(ids))
	for _, id := range ids {
		if util.ValidDocID(id) {
			lookup = append(lookup, id)
		}
	}
	var found []model.Contact
	if len(lookup) > 0 {
		var err error
		if found, err = s.contacts.GetByIDs(ctx, lookup); err != nil {
			return nil, apperr.Persistence("load contacts", err)
		}
	}
	byID := make(map[string]model.Contact, len(found))
	for _, c := range found {
		if c.IsActive {
			byID[c.ID] = c
		}
	}

	var missing []string
	ordered := make([]model.Contact, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, c)
	}
	if len(missing) > 0 {
		return nil, apperr.ContactNotFound(missing)
	}
	if len(ordered) < MinContacts {
		return nil, apperr.InsufficientSelection(len(ordered), MinContacts)
	}
	return ordered, nil
}

// ActiveFeed returns the user's active feed.
func (s *Service) ActiveFeed(ctx context.Context, userID string) (model.Feed, error) {
	feed, err := s.feeds.GetActive(ctx, userID)
	if err != nil {
		return model.Feed{}, apperr.Persistence("load active feed", err)
	}
	if feed == nil {
		return model.Feed{}, apperr.NoActiveFeed()
	}
	return *feed, nil
}

// QueryFeed returns one page of the active feed's products with its stored
// filters applied.
func (s *Service) QueryFeed(ctx context.Context, userID string, page, limit int) (FeedPage, error) {
	feed, err := s.ActiveFeed(ctx, userID)
	if err != nil {
		return FeedPage{}, err
	}
	result := Paginate(ApplyFilters(feed.CombinedProducts, feed.Filters), page, limit)
	result.Feed = feed
	return result, nil
}

// UpdateFilters validates and stores new filter preferences on the active feed.
func (s *Service) UpdateFilters(ctx context.Context, userID string, filters model.FeedFilters) (model.Feed, error) {
	if err := ValidateFilters(filters); err != nil {
		return model.Feed{}, err
	}
	if filters.SortBy == "" {
		filters.SortBy = model.SortRelevance
	}
	feed, err := s.feeds.UpdateFilters(ctx, userID, filters, s.now())
	if err != nil {
		if apperr.Is(err, apperr.KindNoActiveFeed) {
			return model.Feed{}, err
		}
		return model.Feed{}, apperr.Persistence("update feed filters", err)
	}
	return feed, nil
}
