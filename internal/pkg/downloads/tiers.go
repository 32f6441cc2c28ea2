// Package downloads maps quality tiers to stored objects and mints
// time-limited download links for entitled users.
package downloads

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
)

const DefaultQuality = "1080p"

// Tiers maps a quality tier to the key prefix of its rendition
var Tiers = map[string]string{
	"4k":    "masters/4k",
	"1080p": "derivatives/web/1080p",
	"720p":  "derivatives/web/720p",
	"480p":  "derivatives/mobile/480p",
}

// ResolveTier returns the effective quality and its key prefix. Unknown tiers
// fall back to DefaultQuality unless strict is set, in which case they fail
// with apperror.ErrInvalidArgument.
func ResolveTier(quality string, strict bool) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(quality))
	if q == "" {
		q = DefaultQuality
	}
	if path, ok := Tiers[q]; ok {
		return q, path, nil
	}
	if strict {
		return "", "", fmt.Errorf("unknown quality %q: %w", quality, apperror.ErrInvalidArgument)
	}
	return DefaultQuality, Tiers[DefaultQuality], nil
}

// ObjectKey builds the storage key for a film rendition
func ObjectKey(tierPath, slug string) string {
	return tierPath + "/" + slug + ".mp4"
}

// Filename is the name the browser saves the download as
func Filename(title, quality string) string {
	return title + "-" + quality + ".mp4"
}
