package state

import (
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	// DefaultCycleTTL bounds how long an abandoned form keeps its state.
	DefaultCycleTTL = 6 * time.Hour
	// DefaultCleanupInterval controls how often expired cycles are purged.
	DefaultCleanupInterval = 10 * time.Minute

	buildIDPrefix = "form-"
)

// Cache keeps one Store per in-flight form, keyed by a form build id that
// travels with every request of the same submission cycle.
type Cache struct {
	entries      *gocache.Cache
	ttl          time.Duration
	logger       *zap.Logger
	storeOptions []Option
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the idle lifetime of a submission cycle.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger used by the cache and the stores it creates.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStoreOptions forwards options to every Store created by Begin.
func WithStoreOptions(options ...Option) CacheOption {
	return func(c *Cache) {
		c.storeOptions = append(c.storeOptions, options...)
	}
}

// NewCache constructs a cache with DefaultCycleTTL unless overridden.
func NewCache(options ...CacheOption) *Cache {
	c := &Cache{
		ttl:    DefaultCycleTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	c.entries = gocache.New(c.ttl, DefaultCleanupInterval)
	return c
}

// Begin starts a submission cycle and returns its build id and store.
func (c *Cache) Begin() (string, *Store) {
	buildID := buildIDPrefix + uuid.NewString()
	opts := append([]Option{WithLogger(c.logger)}, c.storeOptions...)
	store := NewStore(opts...)
	c.entries.Set(buildID, store, gocache.DefaultExpiration)
	c.logger.Debug("submission cycle started", zap.String("build_id", buildID))
	return buildID, store
}

// Resume returns the store for buildID and extends its lifetime. A false
// result means the cycle expired or never existed; callers rebuild the form
// from scratch.
func (c *Cache) Resume(buildID string) (*Store, bool) {
	buildID = strings.TrimSpace(buildID)
	if buildID == "" {
		return nil, false
	}
	value, ok := c.entries.Get(buildID)
	if !ok {
		c.logger.Debug("submission cycle not found", zap.String("build_id", buildID))
		return nil, false
	}
	store, ok := value.(*Store)
	if !ok {
		return nil, false
	}
	c.entries.Set(buildID, store, gocache.DefaultExpiration)
	return store, true
}

// Finish discards the cycle after a successful submission or an explicit
// abandon.
func (c *Cache) Finish(buildID string) {
	c.entries.Delete(strings.TrimSpace(buildID))
	c.logger.Debug("submission cycle finished", zap.String("build_id", buildID))
}

// Len reports the number of live cycles.
func (c *Cache) Len() int {
	return c.entries.ItemCount()
}
