package lyrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/llehouerou/ncstream/internal/netease"
)

// Client fetches raw lyric text; *netease.Client implements it.
type Client interface {
	Lyric(ctx context.Context, id int64) (netease.LyricText, error)
}

// Source turns NetEase lyric responses into Lyrics.
type Source struct {
	client Client
	logger zerolog.Logger
}

// NewSource creates a Source.
func NewSource(client Client, logger zerolog.Logger) *Source {
	return &Source{
		client: client,
		logger: logger.With().Str("component", "lyrics").Logger(),
	}
}

// Fetch returns the lyrics of song id with the translation merged in. A
// song without timed lyrics yields nil and no error.
func (s *Source) Fetch(ctx context.Context, id int64) (*Lyrics, error) {
	text, err := s.client.Lyric(ctx, id)
	if errors.Is(err, netease.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch lyrics of %d: %w", id, err)
	}

	l := Parse(text.Lyric)
	if l.Empty() {
		s.logger.Debug().Int64("id", id).Msg("No timed lyrics")
		return nil, nil
	}
	if text.Translation != "" {
		l.Merge(Parse(text.Translation))
	}
	s.logger.Debug().Int64("id", id).Int("lines", len(l.Lines)).Msg("Lyrics loaded")
	return l, nil
}
