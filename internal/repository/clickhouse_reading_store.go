package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"AirCast/internal/domain/models"
	domrepo "AirCast/internal/domain/repository"
	applogger "AirCast/pkg/logger"
)

// ClickHouseReadingStore keeps readings in a ReplacingMergeTree ordered by
// (location_id, captured_at). Merges collapse duplicates eventually, so
// inserts check for an existing row first to report skipped writes.
type ClickHouseReadingStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.ReadingStore = (*ClickHouseReadingStore)(nil)

func NewClickHouseReadingStore(db *sql.DB, table string, l *applogger.Logger) *ClickHouseReadingStore {
	if table == "" {
		table = "air_quality_readings"
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseReadingStore{db: db, table: table, l: l}
}

// ClickHouseSchema returns the DDL for table. The version column keeps the
// earliest insert when duplicates are merged.
func ClickHouseSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            location_id Int64,
            captured_at DateTime64(3, 'UTC'),
            value       Float64,
            raw_json    String DEFAULT '',
            version     UInt64
        ) ENGINE = ReplacingMergeTree(version)
        PARTITION BY toYYYYMM(captured_at)
        ORDER BY (location_id, captured_at)`, table),
	}
}

func (s *ClickHouseReadingStore) Init(ctx context.Context) error {
	for _, stmt := range ClickHouseSchema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

// version decreases with insert time so ReplacingMergeTree keeps the first write.
func version(now time.Time) uint64 {
	return uint64(1<<62) - uint64(now.UnixNano())
}

func (s *ClickHouseReadingStore) Upsert(ctx context.Context, r models.Reading) (bool, error) {
	n, err := s.UpsertBatch(ctx, []models.Reading{r})
	return n == 1, err
}

func (s *ClickHouseReadingStore) UpsertBatch(ctx context.Context, rs []models.Reading) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}
	byLoc := make(map[int64][]models.Reading)
	for _, r := range rs {
		byLoc[r.LocationID] = append(byLoc[r.LocationID], r)
	}

	var fresh []models.Reading
	for loc, group := range byLoc {
		from, to := span(group)
		existing, err := s.existing(ctx, loc, from, to)
		if err != nil {
			return 0, err
		}
		fresh = append(fresh, FilterNew(group, existing)...)
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := s.insert(ctx, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

func span(rs []models.Reading) (time.Time, time.Time) {
	from, to := rs[0].CapturedAt, rs[0].CapturedAt
	for _, r := range rs[1:] {
		if r.CapturedAt.Before(from) {
			from = r.CapturedAt
		}
		if r.CapturedAt.After(to) {
			to = r.CapturedAt
		}
	}
	return from.UTC(), to.UTC()
}

// FilterNew drops readings whose timestamp is in existing or repeats an
// earlier entry of rs.
func FilterNew(rs []models.Reading, existing map[int64]struct{}) []models.Reading {
	seen := make(map[int64]struct{}, len(existing)+len(rs))
	for k := range existing {
		seen[k] = struct{}{}
	}
	out := make([]models.Reading, 0, len(rs))
	for _, r := range rs {
		k := r.CapturedAt.UnixMilli()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (s *ClickHouseReadingStore) existing(ctx context.Context, loc int64, from, to time.Time) (map[int64]struct{}, error) {
	q := fmt.Sprintf(`SELECT DISTINCT captured_at FROM %s
        WHERE location_id = ? AND captured_at >= ? AND captured_at <= ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, loc, from, to)
	if err != nil {
		return nil, fmt.Errorf("existing readings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan existing: %w", err)
		}
		out[ts.UnixMilli()] = struct{}{}
	}
	return out, rows.Err()
}

func (s *ClickHouseReadingStore) insert(ctx context.Context, rs []models.Reading) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (location_id, captured_at, value, raw_json, version)", s.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ver := version(time.Now())
	for _, r := range rs {
		if _, err := stmt.ExecContext(ctx, r.LocationID, r.CapturedAt.UTC(), r.Value, string(r.Raw), ver); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.l.Error("clickhouse insert commit", applogger.Int("rows", len(rs)), applogger.Error(err))
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *ClickHouseReadingStore) Range(ctx context.Context, locationID int64, from, to time.Time) ([]models.Reading, error) {
	q := fmt.Sprintf(`SELECT location_id, captured_at, value
        FROM %s FINAL
        WHERE location_id = ? AND captured_at >= ? AND captured_at <= ?
        ORDER BY captured_at ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, locationID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("range readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.Reading, 0, 768)
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.LocationID, &r.CapturedAt, &r.Value); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.CapturedAt = r.CapturedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHouseReadingStore) Latest(ctx context.Context, locationID int64) (*models.Reading, error) {
	q := fmt.Sprintf(`SELECT location_id, captured_at, value, raw_json
        FROM %s FINAL WHERE location_id = ?
        ORDER BY captured_at DESC LIMIT 1`, s.table)
	var (
		r   models.Reading
		raw string
	)
	err := s.db.QueryRowContext(ctx, q, locationID).Scan(&r.LocationID, &r.CapturedAt, &r.Value, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	r.CapturedAt = r.CapturedAt.UTC()
	if raw != "" {
		r.Raw = []byte(raw)
	}
	return &r, nil
}

func (s *ClickHouseReadingStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseReadingStore) Close() error {
	return nil // connection owned by pkg/clickhouse
}
