package downloads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/app/models"
	"github.com/ManuelReschke/FilmPass/app/repository"
	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
	"github.com/ManuelReschke/FilmPass/internal/pkg/entitlements"
	"github.com/ManuelReschke/FilmPass/internal/pkg/metrics"
)

const DefaultURLTTL = time.Hour

// Presigner is implemented by s3store.Client
type Presigner interface {
	PresignDownload(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
}

// Link is a minted download link
type Link struct {
	URL       string
	Quality   string
	Filename  string
	ExpiresIn time.Duration
}

type Service struct {
	entitlements *entitlements.Service
	logs         repository.DownloadLogRepository
	presigner    Presigner
	ttl          time.Duration
	strict       bool
}

func NewService(ents *entitlements.Service, logs repository.DownloadLogRepository, presigner Presigner, cfg config.DownloadConfig) *Service {
	ttl := cfg.URLTTL
	if ttl <= 0 || ttl > DefaultURLTTL {
		ttl = DefaultURLTTL
	}
	return &Service{
		entitlements: ents,
		logs:         logs,
		presigner:    presigner,
		ttl:          ttl,
		strict:       cfg.StrictQuality,
	}
}

// MintLink checks the entitlement, presigns the rendition for quality and
// appends a download log entry.
func (s *Service) MintLink(ctx context.Context, userID, slug, quality string) (*Link, error) {
	film, err := s.entitlements.RequireActive(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	effective, tierPath, err := ResolveTier(quality, s.strict)
	if err != nil {
		return nil, err
	}
	if requested := strings.ToLower(strings.TrimSpace(quality)); requested != "" && requested != effective {
		log.Warnf("[Download] unknown quality %q for film %s, serving %s", quality, film.Slug, effective)
	}

	if s.presigner == nil {
		return nil, fmt.Errorf("object storage is not configured: %w", apperror.ErrStorageProvider)
	}

	key := ObjectKey(tierPath, film.Slug)
	filename := Filename(film.Title, effective)
	url, err := s.presigner.PresignDownload(ctx, key, filename, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %v: %w", key, err, apperror.ErrStorageProvider)
	}

	entry := &models.DownloadLog{
		UserID:       userID,
		FilmID:       film.ID,
		Quality:      effective,
		DownloadedAt: time.Now().UTC(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		log.Warnf("[Download] could not log download for user %s film %s: %v", userID, film.Slug, err)
	}

	metrics.DownloadMints.WithLabelValues(effective).Inc()
	return &Link{
		URL:       url,
		Quality:   effective,
		Filename:  filename,
		ExpiresIn: s.ttl,
	}, nil
}
