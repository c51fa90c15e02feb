package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"AirCast/internal/domain/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePg inserts into a map keyed by timestamp so conflicts behave like the
// unique constraint.
type fakePg struct {
	rows    map[int64]bool
	execSQL []string
	args    [][]any
	failAt  int
}

func newFakePg() *fakePg { return &fakePg{rows: map[int64]bool{}, failAt: -1} }

func (f *fakePg) insert(args []any) (pgconn.CommandTag, error) {
	f.args = append(f.args, args)
	ts := args[1].(time.Time).Unix()
	if f.rows[ts] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	f.rows[ts] = true
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakePg) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT") {
		return f.insert(args)
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakePg) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakePg) QueryRow(context.Context, string, ...any) pgx.Row { return noRow{} }

func (f *fakePg) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	return &fakeBatch{pg: f, queued: b.QueuedQueries}
}

func (f *fakePg) Ping(context.Context) error { return nil }

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

type fakeBatch struct {
	pg     *fakePg
	queued []*pgx.QueuedQuery
	i      int
}

func (b *fakeBatch) Exec() (pgconn.CommandTag, error) {
	q := b.queued[b.i]
	b.i++
	if b.pg.failAt == b.i-1 {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}
	return b.pg.insert(q.Arguments)
}

func (b *fakeBatch) Query() (pgx.Rows, error) { return nil, errors.New("not used") }
func (b *fakeBatch) QueryRow() pgx.Row        { return noRow{} }
func (b *fakeBatch) Close() error             { return nil }

func reading(hour int, v float64) models.Reading {
	return models.Reading{
		LocationID: 1894637,
		CapturedAt: time.Date(2025, 3, 1, hour, 0, 0, 0, time.UTC),
		Value:      v,
	}
}

func TestPostgresInitCreatesTable(t *testing.T) {
	pg := newFakePg()
	s := NewPostgresReadingStore(pg, "nakuru_readings", nil)
	require.NoError(t, s.Init(context.Background()))
	require.Len(t, pg.execSQL, 1)
	assert.Contains(t, pg.execSQL[0], "CREATE TABLE IF NOT EXISTS nakuru_readings")
	assert.Contains(t, pg.execSQL[0], "UNIQUE (location_id, captured_at)")
}

func TestPostgresUpsertFirstWriteWins(t *testing.T) {
	pg := newFakePg()
	s := NewPostgresReadingStore(pg, "", nil)
	ctx := context.Background()

	ok, err := s.Upsert(ctx, reading(1, 10))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Upsert(ctx, reading(1, 99))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, pg.execSQL[0], "ON CONFLICT (location_id, captured_at) DO NOTHING")
}

func TestPostgresUpsertRawPayload(t *testing.T) {
	pg := newFakePg()
	s := NewPostgresReadingStore(pg, "", nil)

	r := reading(2, 5)
	r.Raw = json.RawMessage(`[{"value":5}]`)
	_, err := s.Upsert(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, `[{"value":5}]`, pg.args[0][3])

	_, err = s.Upsert(context.Background(), reading(3, 5))
	require.NoError(t, err)
	assert.Nil(t, pg.args[1][3])
}

func TestPostgresUpsertBatchCountsInserted(t *testing.T) {
	pg := newFakePg()
	s := NewPostgresReadingStore(pg, "", nil)
	ctx := context.Background()
	_, _ = s.Upsert(ctx, reading(1, 10))

	n, err := s.UpsertBatch(ctx, []models.Reading{reading(0, 1), reading(1, 2), reading(2, 3), reading(2, 4)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPostgresUpsertBatchError(t *testing.T) {
	pg := newFakePg()
	pg.failAt = 1
	s := NewPostgresReadingStore(pg, "", nil)

	n, err := s.UpsertBatch(context.Background(), []models.Reading{reading(0, 1), reading(1, 2), reading(2, 3)})
	require.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestPostgresLatestEmpty(t *testing.T) {
	s := NewPostgresReadingStore(newFakePg(), "", nil)
	r, err := s.Latest(context.Background(), 1894637)
	require.NoError(t, err)
	assert.Nil(t, r)
}
