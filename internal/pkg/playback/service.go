package playback

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/internal/pkg/entitlements"
	"github.com/ManuelReschke/FilmPass/internal/pkg/metrics"
)

// TokenMinter is implemented by Minter
type TokenMinter interface {
	Mint(playbackID string) (*Credentials, error)
}

// Service issues playback credentials to entitled users
type Service struct {
	entitlements *entitlements.Service
	minter       TokenMinter
}

// NewService wires the service. minter may be nil when no signing key is
// configured; Mint then fails with an internal error.
func NewService(ents *entitlements.Service, minter TokenMinter) *Service {
	return &Service{entitlements: ents, minter: minter}
}

// Mint checks the entitlement for slug and signs fresh credentials
func (s *Service) Mint(ctx context.Context, userID, slug string) (*Credentials, error) {
	film, err := s.entitlements.RequireActive(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	if s.minter == nil {
		return nil, errors.New("playback signing is not configured")
	}
	if film.MuxPlaybackID == "" {
		return nil, fmt.Errorf("film %s has no playback id", film.Slug)
	}

	creds, err := s.minter.Mint(film.MuxPlaybackID)
	if err != nil {
		return nil, err
	}

	log.Debugf("[Playback] minted credentials for user %s film %s", userID, film.Slug)
	metrics.PlaybackMints.Inc()
	return creds, nil
}
