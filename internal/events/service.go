package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"githubActivity/internal/github"
	"githubActivity/internal/model"

	"go.uber.org/zap"
)

var (
	ErrEmptyResult     = errors.New("no matching activity")
	ErrHistoryDisabled = errors.New("history is not enabled")
)

// EmptyError reports that no event survived filtering. It unwraps to
// ErrEmptyResult. Skipped holds the malformed records that were dropped
// on the way, so callers can still report them.
type EmptyError struct {
	Username string
	Filter   model.Filter
	Skipped  []error
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("%s: %s activity for %s", ErrEmptyResult, e.Filter.Noun(), e.Username)
}

func (e *EmptyError) Unwrap() error { return ErrEmptyResult }

// Fetcher returns the raw events response for a user.
type Fetcher interface {
	UserEvents(ctx context.Context, username string) ([]byte, error)
}

// Report is the classified and filtered activity of one user.
type Report struct {
	Username string        `json:"username"`
	Filter   model.Filter  `json:"filter,omitempty"`
	Events   []model.Event `json:"events"`
	// Skipped holds one error per malformed record.
	Skipped []error `json:"-"`
	Cached  bool    `json:"cached"`
}

type Service interface {
	Activity(ctx context.Context, username string, f model.Filter) (*Report, error)
	History(ctx context.Context, username string, f model.Filter) (*Report, error)
}

type Options struct {
	CacheTTL  time.Duration
	Retention int
}

type service struct {
	fetcher Fetcher
	cache   Cache
	history History
	opts    Options
	lg      *zap.Logger
}

// NewService wires the fetcher with the optional cache and history; either
// may be nil.
func NewService(f Fetcher, c Cache, h History, opts Options, lg *zap.Logger) Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &service{fetcher: f, cache: c, history: h, opts: opts, lg: lg}
}

func (s *service) Activity(ctx context.Context, username string, f model.Filter) (*Report, error) {
	key := cacheKey(username)
	if raws, ok := s.cached(ctx, key); ok {
		return s.report(username, f, raws, true)
	}

	body, err := s.fetcher.UserEvents(ctx, username)
	if err != nil {
		return nil, err
	}

	raws, err := github.Decode(body)
	if err != nil {
		return nil, err
	}

	// a body that does not decode is never cached
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, body, s.opts.CacheTTL); err != nil {
			s.lg.Error("warn: cache store failed", zap.String("key", key), zap.Error(err))
		}
	}

	if s.history != nil {
		for i := range raws {
			if raws[i].Actor.Login == "" {
				raws[i].Actor.Login = username
			}
		}
		if err := s.history.Save(ctx, raws); err != nil {
			s.lg.Error("warn: history save failed", zap.String("username", username), zap.Error(err))
		}
	}

	return s.report(username, f, raws, false)
}

// cached returns the decoded cache entry for key. Lookup failures and
// entries that no longer decode count as a miss.
func (s *service) cached(ctx context.Context, key string) ([]model.RawEvent, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.lg.Error("warn: cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	raws, err := github.Decode(data)
	if err != nil {
		s.lg.Warn("cache_entry_unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	s.lg.Debug("cache_hit", zap.String("key", key))
	return raws, true
}

func (s *service) History(ctx context.Context, username string, f model.Filter) (*Report, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	raws, err := s.history.Recent(ctx, username, s.opts.Retention)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return s.report(username, f, raws, false)
}

func (s *service) report(username string, f model.Filter, raws []model.RawEvent, cached bool) (*Report, error) {
	evs, skipped := ClassifyAll(raws)
	for _, err := range skipped {
		s.lg.Warn("skipped_event", zap.String("username", username), zap.Error(err))
	}

	evs = Filter(evs, f)
	if len(evs) == 0 {
		return nil, &EmptyError{Username: username, Filter: f, Skipped: skipped}
	}
	return &Report{
		Username: username,
		Filter:   f,
		Events:   evs,
		Skipped:  skipped,
		Cached:   cached,
	}, nil
}
