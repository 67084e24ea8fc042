// ABOUTME: Social service wiring: repositories, clock, text cleaning and timezones
// ABOUTME: Every relationship, visibility and notification operation hangs off Service

package social

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/sanitize"
	"github.com/lemcom/lemcom-directory/internal/store"
	"github.com/lemcom/lemcom-directory/internal/timezone"
)

// Repository is the persistence the service needs.
type Repository interface {
	store.UserStore
	store.FriendshipStore
	store.NotificationStore
}

// TimezoneResolver resolves timezone names.
type TimezoneResolver interface {
	Lookup(name string) (*time.Location, bool)
	Names() []string
}

// TextCleaner cleans free text before it is stored.
type TextCleaner interface {
	Clean(s string, maxLen int) string
}

// Service implements the social graph operations.
type Service struct {
	repo      Repository
	timezones TimezoneResolver
	cleaner   TextCleaner
	now       func() time.Time
	logger    *slog.Logger
	fanout    int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTimezones sets the timezone registry.
func WithTimezones(r TimezoneResolver) Option {
	return func(s *Service) { s.timezones = r }
}

// WithTextCleaner sets the profile text cleaner.
func WithTextCleaner(c TextCleaner) Option {
	return func(s *Service) { s.cleaner = c }
}

// WithFanout limits concurrent lookups when resolving a page of users.
func WithFanout(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// New creates a Service over repo.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		timezones: timezone.Default(),
		cleaner:   sanitize.NewProfanityFilter(sanitize.DefaultWords),
		now:       time.Now,
		logger:    slog.Default(),
		fanout:    16,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "social")
	return s
}

// findByName resolves a target user by name. Missing users are reported
// with reason.
func (s *Service) findByName(ctx context.Context, name, reason string) (*directory.User, error) {
	clean := sanitize.Alphanumeric(name)
	if clean == "" {
		return nil, notFound(reason)
	}
	u, err := s.repo.GetUserByName(ctx, clean)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(reason)
	}
	if err != nil {
		return nil, storageFault("finding user by name", err)
	}
	return u, nil
}

func (s *Service) saveUser(ctx context.Context, u *directory.User) error {
	if err := s.repo.SaveUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return conflict(reasonNameTaken)
		}
		return storageFault("saving user", err)
	}
	return nil
}

// AreFriends reports whether a and b share a friendship.
func (s *Service) AreFriends(ctx context.Context, a, b string) (bool, error) {
	_, err := s.repo.GetFriendshipByKeys(ctx, a, b)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageFault("finding friendship", err)
	}
	return true, nil
}

// friendsOf lists (other key, since) pairs for every friendship of key.
func (s *Service) friendsOf(ctx context.Context, key string) ([]entry, error) {
	friendships, err := s.repo.ListFriendshipsByKey(ctx, key)
	if err != nil {
		return nil, storageFault("listing friendships", err)
	}
	entries := make([]entry, 0, len(friendships))
	for _, f := range friendships {
		entries = append(entries, entry{key: f.Other(key), at: f.CreatedAt})
	}
	return entries, nil
}
