package repository

import (
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db       *gorm.DB
	cache    *redis.Client
	cacheTTL time.Duration
	repos    *Repositories
	once     sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// WithFilmCache puts a Redis read-through cache in front of film lookups.
// A nil client leaves the plain database repository in place.
func (f *Factory) WithFilmCache(client *redis.Client, ttl time.Duration) *Factory {
	f.cache = client
	f.cacheTTL = ttl
	return f
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
		if f.cache != nil {
			f.repos.Film = NewCachedFilmRepository(f.repos.Film, f.cache, f.cacheTTL)
		}
	})
	return f.repos
}
