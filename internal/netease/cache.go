package netease

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/llehouerou/ncstream/internal/db"
)

const (
	appName         = "ncstream"
	cacheFileName   = "urls.db"
	DefaultCacheTTL = 15 * time.Minute
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS resolved_urls (
	song_id    INTEGER NOT NULL,
	bitrate    INTEGER NOT NULL,
	url        TEXT    NOT NULL,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (song_id, bitrate)
)`

// Cache keeps resolved URLs in SQLite. NetEase CDN links are signed and
// expire, so entries older than the TTL are ignored and pruned on write.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// DefaultCachePath returns the cache database location under XDG_CACHE_HOME.
func DefaultCachePath() (string, error) {
	return xdg.CacheFile(filepath.Join(appName, cacheFileName))
}

// OpenCache opens the cache database at path.
func OpenCache(ctx context.Context, path string, ttl time.Duration) (*Cache, error) {
	conn, err := db.Open(ctx, path, cacheSchema)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{db: conn, ttl: ttl, now: time.Now}, nil
}

// Get returns a fresh cached URL.
func (c *Cache) Get(ctx context.Context, id int64, bitrate int) (string, bool, error) {
	var (
		u         string
		fetchedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT url, fetched_at FROM resolved_urls WHERE song_id = ? AND bitrate = ?`,
		id, bitrate,
	).Scan(&u, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if c.now().Sub(time.Unix(fetchedAt, 0)) >= c.ttl {
		return "", false, nil
	}
	return u, true, nil
}

// Put stores u for id and prunes expired entries.
func (c *Cache) Put(ctx context.Context, id int64, bitrate int, u string) error {
	now := c.now()
	return db.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM resolved_urls WHERE fetched_at <= ?`,
			now.Add(-c.ttl).Unix(),
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO resolved_urls (song_id, bitrate, url, fetched_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (song_id, bitrate) DO UPDATE SET url = excluded.url, fetched_at = excluded.fetched_at`,
			id, bitrate, u, now.Unix(),
		)
		return err
	})
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resolved_urls`).Scan(&n)
	return n, err
}

func (c *Cache) Close() error {
	return c.db.Close()
}
