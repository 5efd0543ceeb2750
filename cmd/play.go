package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llehouerou/ncstream/internal/audio"
	"github.com/llehouerou/ncstream/internal/config"
	"github.com/llehouerou/ncstream/internal/errmsg"
	"github.com/llehouerou/ncstream/internal/icons"
	"github.com/llehouerou/ncstream/internal/lyrics"
	"github.com/llehouerou/ncstream/internal/mpris"
	"github.com/llehouerou/ncstream/internal/notify"
	"github.com/llehouerou/ncstream/internal/player"
	"github.com/llehouerou/ncstream/internal/stderr"
	"github.com/llehouerou/ncstream/internal/tui"
)

type playFlags struct {
	id       int64
	name     string
	duration time.Duration
	source   string
	mode     string
	headless bool
	noMPRIS  bool
	noLyrics bool
}

var playOpts playFlags

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [song-id]",
	Short: "Play a track",
	Long: `Play a NetEase Cloud Music track by id, or a local file / URL with --source.

Audio is decoded while it downloads and played through a small lookahead
buffer. In the terminal UI:

  space        play / pause
  left, right  seek 5s (shift: 30s)
  s            stop
  enter        start over
  q            quit

Lyrics of NetEase tracks, with their translation, follow the playhead.

With --headless the command plays the track once and exits when it ends.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Int64Var(&playOpts.id, "id", 0, "NetEase song id")
	playCmd.Flags().StringVar(&playOpts.name, "name", "", "Display name for the track")
	playCmd.Flags().DurationVar(&playOpts.duration, "duration", 0, "Track duration if known, e.g. 4m29s")
	playCmd.Flags().StringVar(&playOpts.source, "source", "", "Local path or URL to play instead of resolving an id")
	playCmd.Flags().StringVar(&playOpts.mode, "mode", "", "Playback mode: stream or clip (default from config)")
	playCmd.Flags().BoolVar(&playOpts.headless, "headless", false, "Play without the terminal UI")
	playCmd.Flags().BoolVar(&playOpts.noMPRIS, "no-mpris", false, "Do not register on the session bus")
	playCmd.Flags().BoolVar(&playOpts.noLyrics, "no-lyrics", false, "Do not fetch lyrics")
}

// trackFromFlags builds the track to play from the positional id and flags.
func trackFromFlags(args []string, f playFlags) (player.Track, error) {
	t := player.Track{ID: f.id, Name: f.name, Duration: f.duration, Source: f.source}
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return player.Track{}, fmt.Errorf("invalid song id %q", args[0])
		}
		t.ID = id
	}
	if t.ID <= 0 && t.Source == "" {
		return player.Track{}, errors.New("a song id or --source is required")
	}
	if t.Duration < 0 {
		return player.Track{}, errors.New("--duration must not be negative")
	}
	return t, nil
}

// playerOptions merges the [player] config section with the --mode flag.
func playerOptions(cfg config.PlayerConfig, mode string) (player.Options, error) {
	if mode == "" {
		mode = cfg.Mode
	}
	opts := player.Options{
		Mode:        player.Mode(mode),
		Lookahead:   time.Duration(cfg.LookaheadMS) * time.Millisecond,
		ChunkFrames: cfg.ChunkFrames,
	}
	switch opts.Mode {
	case player.ModeStream, player.ModeClip:
		return opts, nil
	}
	return player.Options{}, fmt.Errorf("unknown mode %q (want stream or clip)", mode)
}

func runPlay(cmd *cobra.Command, args []string) error {
	track, err := trackFromFlags(args, playOpts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, !playOpts.headless, true)
	if err != nil {
		return err
	}
	defer a.close()

	pc := a.cfg.GetPlayerConfig()
	opts, err := playerOptions(pc, playOpts.mode)
	if err != nil {
		return err
	}

	if !playOpts.headless {
		icons.Init(a.cfg.Icons)
		if err := stderr.Start(a.logger); err != nil {
			a.logger.Warn().Err(err).Msg("Could not capture stderr")
		}
		defer stderr.Stop()
	}

	device := audio.NewDevice(time.Duration(pc.SpeakerBufferMS)*time.Millisecond, a.logger)
	opener := audio.NewOpener(&http.Client{}, opts.ChunkFrames, a.logger)
	ctrl := player.New(a.resolver, opener, device, opts, a.logger)
	defer ctrl.Close()

	if a.cfg.NotificationsEnabled() {
		announcer := attachNotifications(ctrl, a.logger)
		defer announcer.Wait()
	}
	if !playOpts.noMPRIS {
		if adapter, err := mpris.New(ctrl); err != nil {
			a.logger.Warn().Msg(errmsg.Format(errmsg.OpInitialize, err))
		} else {
			defer adapter.Close()
		}
	}

	ctrl.SetDataSource(track)
	if playOpts.headless {
		return playUntilEnd(ctx, ctrl, a.logger)
	}

	var fetch tui.LyricsFunc
	if !playOpts.noLyrics {
		fetch = lyrics.NewSource(a.client, a.logger).Fetch
	}

	ctrl.Start()
	if err := tui.Run(ctrl, fetch); err != nil {
		stderr.WriteOriginal(fmt.Sprintf("Error running program: %v\n", err))
		return err
	}
	return nil
}

func attachNotifications(p player.Interface, logger zerolog.Logger) *notify.Listener {
	n, err := notify.New()
	if err != nil {
		logger.Warn().Err(err).Msg("Notifications disabled")
		n = notify.Disabled()
	}
	l := notify.NewListener(n, p.Track, logger)
	p.AddListener(l)
	return l
}

// playUntilEnd starts playback and blocks until it finishes, fails, or ctx
// is cancelled. A playback failure is returned as an error.
func playUntilEnd(ctx context.Context, p player.Interface, logger zerolog.Logger) error {
	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	l := &player.ListenerFuncs{
		Status: func(s player.Status) {
			logger.Info().Str("status", s.String()).Msg("Playback status")
			switch s.State {
			case player.Errored:
				finish(statusError(s))
			case player.Stopped:
				finish(nil)
			case player.Idle, player.Started, player.Paused:
			}
		},
	}
	p.AddListener(l)
	defer p.RemoveListener(l)

	p.Start()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		p.Stop()
		return nil
	}
}

func statusError(s player.Status) error {
	if s.Err == nil {
		return errors.New(s.String())
	}
	return s.Err
}
