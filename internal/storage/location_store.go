package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantumlife/viewerscope/internal/core"
)

// LocationStore caches resolved IP locations with an expiry.
type LocationStore struct {
	db  *DB
	now func() time.Time
}

// NewLocationStore creates a new location cache store
func NewLocationStore(db *DB) *LocationStore {
	return &LocationStore{db: db, now: time.Now}
}

// Get returns the cached record for ip, or core.ErrCacheMiss when absent or expired.
func (s *LocationStore) Get(ip string) (*core.LocationRecord, error) {
	var raw string
	err := s.db.conn.QueryRow(
		`SELECT record FROM location_cache WHERE ip = ? AND expires_at > ?`,
		ip, s.now().Unix(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query location cache: %w", err)
	}

	var rec core.LocationRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode cached location: %w", err)
	}
	return &rec, nil
}

// Put stores rec for ip, replacing any previous entry.
func (s *LocationStore) Put(ip string, rec *core.LocationRecord, source string, ttl time.Duration) error {
	if rec == nil {
		return fmt.Errorf("nil location for %s", ip)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	now := s.now()
	_, err = s.db.conn.Exec(`
		INSERT INTO location_cache (ip, record, source, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ip) DO UPDATE SET
			record = excluded.record,
			source = excluded.source,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at
	`, ip, string(data), source, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("store location: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *LocationStore) PurgeExpired() (int64, error) {
	res, err := s.db.conn.Exec(`DELETE FROM location_cache WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge location cache: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of rows, expired or not.
func (s *LocationStore) Count() (int, error) {
	var n int
	err := s.db.conn.QueryRow(`SELECT COUNT(*) FROM location_cache`).Scan(&n)
	return n, err
}
