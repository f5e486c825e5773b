package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/store"
	"trading-bot-backend/internal/types"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ErrInvalidQuery is returned by Normalize for unusable queries.
var ErrInvalidQuery = errors.New("invalid news query")

// Normalize applies defaults and validates q.
func Normalize(q types.NewsQuery, defaultLanguage string) (types.NewsQuery, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return q, fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return q, fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidQuery, MaxPageSize)
	}
	if q.Language == "" {
		q.Language = defaultLanguage
	}
	if q.Language == "" {
		q.Language = "en"
	}
	return q, nil
}

// Service fronts a provider with a TTL cache keyed by the normalized query.
type Service struct {
	provider interfaces.NewsProvider
	cache    *articleCache
	language string
}

var _ interfaces.NewsProvider = (*Service)(nil)

func NewService(provider interfaces.NewsProvider, ttl time.Duration, language string) *Service {
	return &Service{provider: provider, cache: newArticleCache(ttl), language: language}
}

// NewServiceFromConfig builds the configured provider behind a cache.
func NewServiceFromConfig(cfg *store.Config) *Service {
	timeout := time.Duration(cfg.News.TimeoutSeconds) * time.Second
	var p interfaces.NewsProvider
	switch cfg.News.Provider {
	case store.NewsProviderGoogleNews:
		p = NewGoogleNewsProvider("", timeout)
	default:
		p = NewNewsAPIProvider(cfg.News.APIKey, cfg.News.BaseURL, timeout)
	}
	return NewService(p, time.Duration(cfg.News.CacheMinutes)*time.Minute, cfg.News.Language)
}

// Search never fails: invalid queries and provider failures yield an empty slice.
func (s *Service) Search(ctx context.Context, q types.NewsQuery) []types.NewsArticle {
	q, err := Normalize(q, s.language)
	if err != nil {
		logger.Warn(ctx, "Rejected news query", "error", err)
		return []types.NewsArticle{}
	}

	key := cacheKey(q)
	if cached, ok := s.cache.get(key); ok {
		logger.Debug(ctx, "Using cached news", "query", q.Query, "articles", len(cached))
		return cached
	}

	articles := s.provider.Search(ctx, q)
	if len(articles) > 0 {
		s.cache.set(key, articles)
	}
	return articles
}

func cacheKey(q types.NewsQuery) string {
	return fmt.Sprintf("%s|%d|%s", strings.ToLower(q.Query), q.PageSize, q.Language)
}

// articleCache stores results temporarily. Expired entries are dropped on
// access, so no cleanup goroutine outlives the service.
type articleCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	ttl  time.Duration
	now  func() time.Time
}

type cacheEntry struct {
	articles []types.NewsArticle
	stored   time.Time
}

func newArticleCache(ttl time.Duration) *articleCache {
	return &articleCache{data: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

func (c *articleCache) get(key string) ([]types.NewsArticle, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.stored) > c.ttl {
		delete(c.data, key)
		return nil, false
	}
	return append([]types.NewsArticle(nil), e.articles...), true
}

func (c *articleCache) set(key string, articles []types.NewsArticle) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.data {
		if now.Sub(e.stored) > c.ttl {
			delete(c.data, k)
		}
	}
	c.data[key] = cacheEntry{articles: append([]types.NewsArticle(nil), articles...), stored: now}
}
