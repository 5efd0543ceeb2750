// Package netease resolves NetEase Cloud Music song ids to playable URLs.
package netease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned when the API knows nothing about a song.
var ErrNotFound = errors.New("song not found")

const (
	DefaultBaseURL = "https://music.163.com"
	DefaultBitrate = 320000

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) ncstream/1.0"
	codeOK    = 200
)

// Client is a NetEase song-url and lyric API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bitrate    int
}

// NewClient creates a client against baseURL requesting the given bitrate.
func NewClient(baseURL string, bitrate int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		bitrate:    bitrate,
	}
}

// Bitrate returns the requested bitrate.
func (c *Client) Bitrate() int { return c.bitrate }

// SongURL is one candidate returned by the API.
type SongURL struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Bitrate int    `json:"br"`
	Size    int64  `json:"size"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type songURLResponse struct {
	Data []SongURL `json:"data"`
	Code int       `json:"code"`
}

// SongURLs returns the candidate URLs for id in the order the API ranks
// them. Entries without a URL (unlicensed, VIP-only) are dropped, so the
// result may be empty.
func (c *Client) SongURLs(ctx context.Context, id int64) ([]string, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	params.Set("ids", "["+strconv.FormatInt(id, 10)+"]")
	params.Set("br", strconv.Itoa(c.bitrate))

	var result songURLResponse
	if err := c.get(ctx, "/api/song/enhance/player/url", params, &result); err != nil {
		return nil, err
	}
	if result.Code != codeOK {
		return nil, fmt.Errorf("api error code %d", result.Code)
	}

	urls := make([]string, 0, len(result.Data))
	for _, d := range result.Data {
		if d.URL != "" {
			urls = append(urls, d.URL)
		}
	}
	return urls, nil
}

// LyricText is the raw LRC text of a song and its translation. Either may
// be empty.
type LyricText struct {
	Lyric       string
	Translation string
}

type lrcBody struct {
	Version int    `json:"version"`
	Lyric   string `json:"lyric"`
}

type lyricResponse struct {
	Code    int      `json:"code"`
	NoLyric bool     `json:"nolyric"`
	Lrc     *lrcBody `json:"lrc"`
	Tlyric  *lrcBody `json:"tlyric"`
}

// Lyric fetches the synced lyric of id. Instrumental tracks and songs
// nobody has timed come back as an empty LyricText, not an error.
func (c *Client) Lyric(ctx context.Context, id int64) (LyricText, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	params.Set("lv", "-1")
	params.Set("tv", "-1")

	var result lyricResponse
	if err := c.get(ctx, "/api/song/lyric", params, &result); err != nil {
		return LyricText{}, err
	}
	if result.Code != codeOK {
		return LyricText{}, fmt.Errorf("api error code %d", result.Code)
	}
	var text LyricText
	if result.NoLyric {
		return text, nil
	}
	if result.Lrc != nil {
		text.Lyric = result.Lrc.Lyric
	}
	if result.Tlyric != nil {
		text.Translation = result.Tlyric.Lyric
	}
	return text, nil
}

// get issues a GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
