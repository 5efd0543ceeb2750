package netease

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const fallbackTemplate = "https://music.163.com/song/media/outer/url?id=%d.mp3"

// FallbackURL is the public redirect URL for a song id, used when the API
// returns no candidate.
func FallbackURL(id int64) string {
	return fmt.Sprintf(fallbackTemplate, id)
}

// URLSource lists candidate URLs for a song.
type URLSource interface {
	SongURLs(ctx context.Context, id int64) ([]string, error)
}

// Resolver implements player.Resolver on top of the song-url API.
type Resolver struct {
	source  URLSource
	cache   *Cache // nil disables caching
	bitrate int
	logger  zerolog.Logger
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(source URLSource, cache *Cache, bitrate int, logger zerolog.Logger) *Resolver {
	return &Resolver{
		source:  source,
		cache:   cache,
		bitrate: bitrate,
		logger:  logger.With().Str("component", "netease").Logger(),
	}
}

// Resolve returns the first candidate URL, or the fallback URL when the API
// has none. Only a failed lookup is an error; it is attempted once.
func (r *Resolver) Resolve(ctx context.Context, id int64) (string, error) {
	if r.cache != nil {
		u, ok, err := r.cache.Get(ctx, id, r.bitrate)
		if err != nil {
			r.logger.Warn().Err(err).Int64("id", id).Msg("URL cache read failed")
		} else if ok {
			r.logger.Debug().Int64("id", id).Msg("URL cache hit")
			return u, nil
		}
	}

	urls, err := r.source.SongURLs(ctx, id)
	if err != nil {
		return "", fmt.Errorf("song %d: %w", id, err)
	}
	if len(urls) == 0 {
		u := FallbackURL(id)
		r.logger.Debug().Int64("id", id).Str("url", u).Msg("No candidate URL, using fallback")
		return u, nil
	}

	u := urls[0]
	if r.cache != nil {
		if err := r.cache.Put(ctx, id, r.bitrate, u); err != nil {
			r.logger.Warn().Err(err).Int64("id", id).Msg("URL cache write failed")
		}
	}
	return u, nil
}
