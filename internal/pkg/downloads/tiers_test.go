package downloads

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
)

func TestResolveTier(t *testing.T) {
	tests := []struct {
		in       string
		strict   bool
		wantQ    string
		wantPath string
		wantErr  bool
	}{
		{"4k", false, "4k", "masters/4k", false},
		{"1080p", false, "1080p", "derivatives/web/1080p", false},
		{"720P", false, "720p", "derivatives/web/720p", false},
		{"480p", false, "480p", "derivatives/mobile/480p", false},
		{"", false, "1080p", "derivatives/web/1080p", false},
		{"8k", false, "1080p", "derivatives/web/1080p", false},
		{"", true, "1080p", "derivatives/web/1080p", false},
		{"8k", true, "", "", true},
	}

	for _, tt := range tests {
		q, path, err := ResolveTier(tt.in, tt.strict)
		if tt.wantErr {
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrInvalidArgument))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.wantQ, q, "quality for %q", tt.in)
		assert.Equal(t, tt.wantPath, path, "path for %q", tt.in)
	}
}

func TestObjectKeyAndFilename(t *testing.T) {
	assert.Equal(t, "masters/4k/tony-s1.mp4", ObjectKey("masters/4k", "tony-s1"))
	assert.Equal(t, "T.O.N.Y. Season 1-4k.mp4", Filename("T.O.N.Y. Season 1", "4k"))
}
