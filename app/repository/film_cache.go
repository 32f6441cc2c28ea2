package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/FilmPass/app/models"
)

const filmSlugKeyPrefix = "film:slug:"

// cachedFilmRepository serves slug lookups from Redis and falls through to the
// wrapped repository on a miss. Any cache failure degrades to the database.
type cachedFilmRepository struct {
	next   FilmRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedFilmRepository wraps next with a Redis read-through cache
func NewCachedFilmRepository(next FilmRepository, client *redis.Client, ttl time.Duration) FilmRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedFilmRepository{next: next, client: client, ttl: ttl}
}

func filmSlugKey(slug string) string {
	return filmSlugKeyPrefix + slug
}

func (r *cachedFilmRepository) GetBySlug(ctx context.Context, slug string) (*models.Film, error) {
	key := filmSlugKey(slug)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var film models.Film
		if jsonErr := json.Unmarshal(raw, &film); jsonErr == nil {
			return &film, nil
		}
		log.Warnf("[FilmCache] dropping undecodable entry %s", key)
		_ = r.client.Del(ctx, key).Err()
	case !errors.Is(err, redis.Nil):
		log.Warnf("[FilmCache] get %s failed: %v", key, err)
	}

	film, err := r.next.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(film); jsonErr == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			log.Warnf("[FilmCache] set %s failed: %v", key, setErr)
		}
	}
	return film, nil
}

func (r *cachedFilmRepository) GetByID(ctx context.Context, id uint) (*models.Film, error) {
	return r.next.GetByID(ctx, id)
}
