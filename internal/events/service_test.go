package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"githubActivity/internal/github"
	"githubActivity/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) UserEvents(ctx context.Context, username string) ([]byte, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, data, ttl)
	return args.Error(0)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Save(ctx context.Context, evs []model.RawEvent) error {
	args := m.Called(ctx, evs)
	return args.Error(0)
}

func (m *mockHistory) Recent(ctx context.Context, actor string, limit int) ([]model.RawEvent, error) {
	args := m.Called(ctx, actor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawEvent), args.Error(1)
}

const feed = `[
	{"id": "1", "type": "PushEvent", "actor": {"login": "octocat"}, "repo": {"name": "octocat/a"},
	 "payload": {"size": 2}, "created_at": "2025-09-20T10:00:00Z"},
	{"id": "2", "type": "WatchEvent", "actor": {"login": "octocat"}, "repo": {"name": "octocat/b"},
	 "payload": {}, "created_at": "2025-09-20T09:00:00Z"},
	{"id": "3", "type": "ForkEvent", "actor": {"login": "octocat"}, "repo": {"name": "octocat/c"},
	 "payload": {}, "created_at": "2025-09-20T08:00:00Z"},
	{"id": "4", "type": "PushEvent", "actor": {"login": "octocat"}, "repo": {"name": "octocat/d"},
	 "payload": {"commits": [{}]}, "created_at": "2025-09-20T07:00:00Z"}
]`

var ctx = context.Background()

func TestService_Activity(t *testing.T) {
	t.Run("fetches, filters and reports skipped", func(t *testing.T) {
		f := new(mockFetcher)
		f.On("UserEvents", ctx, "octocat").Return([]byte(feed), nil).Once()
		svc := NewService(f, nil, nil, Options{}, nil)

		rep, err := svc.Activity(ctx, "octocat", model.Filter(model.KindPush))

		require.NoError(t, err)
		require.Len(t, rep.Events, 2)
		assert.Equal(t, "1", rep.Events[0].ID)
		assert.Equal(t, "4", rep.Events[1].ID)
		assert.Len(t, rep.Skipped, 1)
		assert.False(t, rep.Cached)
		f.AssertExpectations(t)
	})

	t.Run("no filter keeps everything well formed", func(t *testing.T) {
		f := new(mockFetcher)
		f.On("UserEvents", ctx, "octocat").Return([]byte(feed), nil).Once()
		svc := NewService(f, nil, nil, Options{}, nil)

		rep, err := svc.Activity(ctx, "octocat", model.All)

		require.NoError(t, err)
		assert.Len(t, rep.Events, 3)
	})

	t.Run("empty result", func(t *testing.T) {
		f := new(mockFetcher)
		f.On("UserEvents", ctx, "octocat").Return([]byte(feed), nil).Once()
		svc := NewService(f, nil, nil, Options{}, nil)

		rep, err := svc.Activity(ctx, "octocat", model.Filter(model.KindIssues))

		assert.ErrorIs(t, err, ErrEmptyResult)
		assert.Nil(t, rep)
	})

	t.Run("empty result keeps skipped records", func(t *testing.T) {
		body := `[{"id": "9", "type": "ForkEvent", "actor": {"login": "a"}, "repo": {"name": "a/x"},
			"payload": {}, "created_at": "2025-09-20T08:00:00Z"}]`
		f := new(mockFetcher)
		f.On("UserEvents", ctx, "a").Return([]byte(body), nil).Once()
		svc := NewService(f, nil, nil, Options{}, nil)

		rep, err := svc.Activity(ctx, "a", model.All)

		assert.Nil(t, rep)
		var empty *EmptyError
		require.ErrorAs(t, err, &empty)
		require.Len(t, empty.Skipped, 1)
		assert.ErrorIs(t, empty.Skipped[0], model.ErrMalformedEvent)
	})

	t.Run("fetch error passes through", func(t *testing.T) {
		f := new(mockFetcher)
		f.On("UserEvents", ctx, "ghost").Return(nil, &github.StatusError{Code: 404}).Once()
		svc := NewService(f, nil, nil, Options{}, nil)

		_, err := svc.Activity(ctx, "ghost", model.All)

		assert.ErrorIs(t, err, github.ErrUserNotFound)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := new(mockFetcher)
		f.On("UserEvents", ctx, "octocat").Return([]byte(`{"message": "oops"}`), nil).Once()
		svc := NewService(f, nil, nil, Options{}, nil)

		_, err := svc.Activity(ctx, "octocat", model.All)

		assert.ErrorIs(t, err, github.ErrUnexpectedStatus)
	})
}

func TestService_ActivityCache(t *testing.T) {
	t.Run("cache hit skips fetch and history", func(t *testing.T) {
		f := new(mockFetcher)
		c := new(mockCache)
		h := new(mockHistory)
		c.On("Get", ctx, "activity:octocat").Return([]byte(feed), true, nil).Once()
		svc := NewService(f, c, h, Options{}, nil)

		rep, err := svc.Activity(ctx, "OctoCat", model.All)

		require.NoError(t, err)
		assert.True(t, rep.Cached)
		f.AssertNotCalled(t, "UserEvents", mock.Anything, mock.Anything)
		h.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		c.AssertExpectations(t)
	})

	t.Run("cache miss stores body and records history", func(t *testing.T) {
		f := new(mockFetcher)
		c := new(mockCache)
		h := new(mockHistory)
		c.On("Get", ctx, "activity:octocat").Return(nil, false, nil).Once()
		f.On("UserEvents", ctx, "octocat").Return([]byte(feed), nil).Once()
		c.On("Set", ctx, "activity:octocat", []byte(feed), 5*time.Minute).Return(nil).Once()
		h.On("Save", ctx, mock.MatchedBy(func(evs []model.RawEvent) bool { return len(evs) == 4 })).Return(nil).Once()
		svc := NewService(f, c, h, Options{CacheTTL: 5 * time.Minute}, nil)

		rep, err := svc.Activity(ctx, "octocat", model.All)

		require.NoError(t, err)
		assert.False(t, rep.Cached)
		f.AssertExpectations(t)
		c.AssertExpectations(t)
		h.AssertExpectations(t)
	})

	t.Run("cache and history failures are not fatal", func(t *testing.T) {
		f := new(mockFetcher)
		c := new(mockCache)
		h := new(mockHistory)
		c.On("Get", ctx, "activity:octocat").Return(nil, false, errors.New("redis down")).Once()
		f.On("UserEvents", ctx, "octocat").Return([]byte(feed), nil).Once()
		c.On("Set", ctx, "activity:octocat", []byte(feed), DefaultCacheTTL).Return(errors.New("redis down")).Once()
		h.On("Save", ctx, mock.Anything).Return(errors.New("disk full")).Once()
		svc := NewService(f, c, h, Options{}, nil)

		rep, err := svc.Activity(ctx, "octocat", model.Filter(model.KindWatch))

		require.NoError(t, err)
		assert.Len(t, rep.Events, 1)
	})

	t.Run("unreadable body is not cached", func(t *testing.T) {
		f := new(mockFetcher)
		c := new(mockCache)
		c.On("Get", ctx, "activity:octocat").Return(nil, false, nil).Twice()
		f.On("UserEvents", ctx, "octocat").Return([]byte(`{"message": "weird"}`), nil).Once()
		f.On("UserEvents", ctx, "octocat").Return([]byte(feed), nil).Once()
		c.On("Set", ctx, "activity:octocat", []byte(feed), DefaultCacheTTL).Return(nil).Once()
		svc := NewService(f, c, nil, Options{}, nil)

		_, err := svc.Activity(ctx, "octocat", model.All)
		assert.ErrorIs(t, err, github.ErrUnexpectedStatus)

		rep, err := svc.Activity(ctx, "octocat", model.All)
		require.NoError(t, err)
		assert.Len(t, rep.Events, 3)

		f.AssertNumberOfCalls(t, "UserEvents", 2)
		c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, []byte(`{"message": "weird"}`), mock.Anything)
		c.AssertExpectations(t)
	})

	t.Run("unreadable cache entry is refetched", func(t *testing.T) {
		f := new(mockFetcher)
		c := new(mockCache)
		c.On("Get", ctx, "activity:octocat").Return([]byte(`{"message": "weird"}`), true, nil).Once()
		f.On("UserEvents", ctx, "octocat").Return([]byte(feed), nil).Once()
		c.On("Set", ctx, "activity:octocat", []byte(feed), DefaultCacheTTL).Return(nil).Once()
		svc := NewService(f, c, nil, Options{}, nil)

		rep, err := svc.Activity(ctx, "octocat", model.All)

		require.NoError(t, err)
		assert.False(t, rep.Cached)
		f.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("fetch error is not cached", func(t *testing.T) {
		f := new(mockFetcher)
		c := new(mockCache)
		c.On("Get", ctx, "activity:octocat").Return(nil, false, nil).Once()
		f.On("UserEvents", ctx, "octocat").Return(nil, &github.StatusError{Code: 429}).Once()
		svc := NewService(f, c, nil, Options{}, nil)

		_, err := svc.Activity(ctx, "octocat", model.All)

		assert.ErrorIs(t, err, github.ErrRateLimited)
		c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_History(t *testing.T) {
	stored := []model.RawEvent{
		raw("WatchEvent", "octocat/b", "2025-09-20T09:00:00Z", ""),
		raw("PushEvent", "octocat/a", "2025-09-20T08:00:00Z", `{"size": 1}`),
	}

	t.Run("reads recorded events", func(t *testing.T) {
		h := new(mockHistory)
		h.On("Recent", ctx, "octocat", 30).Return(stored, nil).Once()
		svc := NewService(nil, nil, h, Options{Retention: 30}, nil)

		rep, err := svc.History(ctx, "octocat", model.Filter(model.KindPush))

		require.NoError(t, err)
		require.Len(t, rep.Events, 1)
		assert.Equal(t, "octocat/a", rep.Events[0].Repo)
		h.AssertExpectations(t)
	})

	t.Run("nothing recorded", func(t *testing.T) {
		h := new(mockHistory)
		h.On("Recent", ctx, "nobody", DefaultRetention).Return(nil, nil).Once()
		svc := NewService(nil, nil, h, Options{}, nil)

		_, err := svc.History(ctx, "nobody", model.All)

		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("disabled", func(t *testing.T) {
		svc := NewService(nil, nil, nil, Options{}, nil)

		_, err := svc.History(ctx, "octocat", model.All)

		assert.ErrorIs(t, err, ErrHistoryDisabled)
	})
}
