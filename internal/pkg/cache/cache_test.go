package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
)

func TestNew_WithoutHost(t *testing.T) {
	assert.Nil(t, New(config.CacheConfig{}))
	assert.False(t, Reachable(nil))
}

func TestNewLimiterStorage_FallsBackToMemory(t *testing.T) {
	assert.Nil(t, NewLimiterStorage(config.CacheConfig{}, true))
	assert.Nil(t, NewLimiterStorage(config.CacheConfig{Host: "redis", Port: "6379"}, false))
	assert.Nil(t, NewLimiterStorage(config.CacheConfig{Host: "redis", Port: "sixty"}, true))
}
