// Package playback mints the signed Mux tokens that unlock streaming of an
// entitled film.
package playback

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Audience discriminators understood by Mux signed playback
const (
	AudienceVideo      = "v"
	AudienceStoryboard = "s"
	AudienceThumbnail  = "t"
)

const DefaultTTL = time.Hour

// Tokens holds one signed token per audience
type Tokens struct {
	Playback   string `json:"playback"`
	Storyboard string `json:"storyboard"`
	Thumbnail  string `json:"thumbnail"`
}

// Credentials is a minted set bound to one playback id
type Credentials struct {
	PlaybackID string
	Tokens     Tokens
	ExpiresAt  time.Time
}

// Minter signs RS256 tokens with the Mux signing key
type Minter struct {
	keyID string
	key   *rsa.PrivateKey
	ttl   time.Duration
	now   func() time.Time
}

// NewMinter parses a PEM encoded RSA private key
func NewMinter(keyID string, privateKeyPEM []byte, ttl time.Duration) (*Minter, error) {
	if len(privateKeyPEM) == 0 {
		return nil, errors.New("playback signing key is not configured")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse playback signing key: %w", err)
	}
	return NewMinterWithKey(keyID, key, ttl)
}

func NewMinterWithKey(keyID string, key *rsa.PrivateKey, ttl time.Duration) (*Minter, error) {
	if keyID == "" {
		return nil, errors.New("playback signing key id is not configured")
	}
	if key == nil {
		return nil, errors.New("playback signing key is nil")
	}
	if ttl <= 0 || ttl > DefaultTTL {
		ttl = DefaultTTL
	}
	return &Minter{keyID: keyID, key: key, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of every minted token
func (m *Minter) TTL() time.Duration {
	return m.ttl
}

// Mint signs the playback, storyboard and thumbnail tokens for playbackID.
// All three share one expiry.
func (m *Minter) Mint(playbackID string) (*Credentials, error) {
	if playbackID == "" {
		return nil, errors.New("playback id is required")
	}

	expiresAt := m.now().Add(m.ttl).Truncate(time.Second)
	sign := func(aud string) (string, error) {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"sub": playbackID,
			"aud": aud,
			"exp": expiresAt.Unix(),
			"kid": m.keyID,
		})
		token.Header["kid"] = m.keyID
		return token.SignedString(m.key)
	}

	var (
		tokens Tokens
		err    error
	)
	if tokens.Playback, err = sign(AudienceVideo); err != nil {
		return nil, fmt.Errorf("sign playback token: %w", err)
	}
	if tokens.Storyboard, err = sign(AudienceStoryboard); err != nil {
		return nil, fmt.Errorf("sign storyboard token: %w", err)
	}
	if tokens.Thumbnail, err = sign(AudienceThumbnail); err != nil {
		return nil, fmt.Errorf("sign thumbnail token: %w", err)
	}

	return &Credentials{
		PlaybackID: playbackID,
		Tokens:     tokens,
		ExpiresAt:  expiresAt,
	}, nil
}
