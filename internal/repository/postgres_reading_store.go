package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AirCast/internal/domain/models"
	domrepo "AirCast/internal/domain/repository"
	applogger "AirCast/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgConn is the subset of *pgxpool.Pool the store needs.
type PgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
}

// PostgresReadingStore keeps readings in one table with a unique
// (location_id, captured_at) key; the first write for a timestamp wins.
type PostgresReadingStore struct {
	db    PgConn
	table string
	l     *applogger.Logger
}

var _ domrepo.ReadingStore = (*PostgresReadingStore)(nil)

func NewPostgresReadingStore(db PgConn, table string, l *applogger.Logger) *PostgresReadingStore {
	if table == "" {
		table = "air_quality_readings"
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &PostgresReadingStore{db: db, table: table, l: l}
}

// PostgresSchema returns the DDL for table.
func PostgresSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id          BIGSERIAL PRIMARY KEY,
            location_id BIGINT NOT NULL,
            captured_at TIMESTAMPTZ NOT NULL,
            value       DOUBLE PRECISION NOT NULL,
            raw_json    JSONB,
            created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
            UNIQUE (location_id, captured_at)
        )`, table),
	}
}

func (s *PostgresReadingStore) Init(ctx context.Context) error {
	for _, stmt := range PostgresSchema(s.table) {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *PostgresReadingStore) insertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (location_id, captured_at, value, raw_json)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (location_id, captured_at) DO NOTHING`, s.table)
}

func rawArg(r models.Reading) any {
	if len(r.Raw) == 0 {
		return nil
	}
	return string(r.Raw)
}

func (s *PostgresReadingStore) Upsert(ctx context.Context, r models.Reading) (bool, error) {
	tag, err := s.db.Exec(ctx, s.insertSQL(), r.LocationID, r.CapturedAt.UTC(), r.Value, rawArg(r))
	if err != nil {
		s.l.Error("postgres upsert", applogger.Int64("location_id", r.LocationID), applogger.Error(err))
		return false, fmt.Errorf("upsert reading: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresReadingStore) UpsertBatch(ctx context.Context, rs []models.Reading) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}
	const chunkSize = 1000
	inserted := 0
	q := s.insertSQL()
	for start := 0; start < len(rs); start += chunkSize {
		end := start + chunkSize
		if end > len(rs) {
			end = len(rs)
		}
		b := &pgx.Batch{}
		for _, r := range rs[start:end] {
			b.Queue(q, r.LocationID, r.CapturedAt.UTC(), r.Value, rawArg(r))
		}
		n, err := s.runBatch(ctx, b)
		inserted += n
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

func (s *PostgresReadingStore) runBatch(ctx context.Context, b *pgx.Batch) (int, error) {
	br := s.db.SendBatch(ctx, b)
	n := 0
	for i := 0; i < b.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return n, fmt.Errorf("batch upsert row %d: %w", i, err)
		}
		n += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return n, fmt.Errorf("batch close: %w", err)
	}
	return n, nil
}

func (s *PostgresReadingStore) Range(ctx context.Context, locationID int64, from, to time.Time) ([]models.Reading, error) {
	q := fmt.Sprintf(`SELECT location_id, captured_at, value
        FROM %s
        WHERE location_id = $1 AND captured_at >= $2 AND captured_at <= $3
        ORDER BY captured_at ASC`, s.table)
	rows, err := s.db.Query(ctx, q, locationID, from.UTC(), to.UTC())
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

func (s *PostgresReadingStore) Latest(ctx context.Context, locationID int64) (*models.Reading, error) {
	q := fmt.Sprintf(`SELECT location_id, captured_at, value, raw_json
        FROM %s WHERE location_id = $1
        ORDER BY captured_at DESC LIMIT 1`, s.table)
	var (
		r   models.Reading
		raw []byte
	)
	err := s.db.QueryRow(ctx, q, locationID).Scan(&r.LocationID, &r.CapturedAt, &r.Value, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	r.CapturedAt = r.CapturedAt.UTC()
	r.Raw = raw
	return &r, nil
}

func (s *PostgresReadingStore) Health(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresReadingStore) Close() error {
	return nil // pool owned by pkg/postgres
}
