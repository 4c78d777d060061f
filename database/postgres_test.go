package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"ceramics-booking/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errors.Kind
	}{
		{"no rows", pgx.ErrNoRows, errors.KindNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), errors.KindNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errors.KindConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, errors.KindConflict},
		{"check violation", &pgconn.PgError{Code: "23514"}, errors.KindValidation},
		{"bad datetime", &pgconn.PgError{Code: "22007"}, errors.KindValidation},
		{"deadline", context.DeadlineExceeded, errors.KindServiceUnavailable},
		{"unknown", stderrors.New("syntax error"), errors.KindInternal},
	}
	for _, test := range tests {
		assert.Equalf(t, test.kind, errors.KindOf(mapError(test.err, "slot")), test.name)
	}
	assert.Nil(t, mapError(nil, "slot"))
}

func TestWhereBuilder(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("date >= $%d::date", "2025-08-01")
	w.addRaw("is_available")
	w.add("date <= $%d::date", "2025-08-31")

	assert.Equal(t, " WHERE date >= $1::date AND is_available AND date <= $2::date", w.String())
	assert.Equal(t, []any{"2025-08-01", "2025-08-31"}, w.args)
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("5b3c4a2e-7f1d-4a8b-9c2d-1e0f3a4b5c6d"))
	assert.False(t, validID("42"))
}

// execQuerier answers Exec with a fixed result and records the statement.
type execQuerier struct {
	querier
	tag  pgconn.CommandTag
	err  error
	sql  string
	args []any
}

func (q *execQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql, q.args = sql, args
	return q.tag, q.err
}

func TestPostgresCloseDay(t *testing.T) {
	const id = "5b3c4a2e-7f1d-4a8b-9c2d-1e0f3a4b5c6d"
	tests := []struct {
		description string
		tag         pgconn.CommandTag
		err         error
		rows        int64
		kind        errors.Kind
	}{
		{"closes the whole date", pgconn.NewCommandTag("UPDATE 3"), nil, 3, -1},
		{"day already taken", pgconn.NewCommandTag("UPDATE 0"), nil, 0, -1},
		{"serialization failure", pgconn.CommandTag{}, &pgconn.PgError{Code: "40001"}, 0, -1},
		{"deadlock", pgconn.CommandTag{}, &pgconn.PgError{Code: "40P01"}, 0, -1},
		{"wrapped serialization failure", pgconn.CommandTag{}, fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"}), 0, -1},
		{"connection lost", pgconn.CommandTag{}, context.DeadlineExceeded, 0, errors.KindServiceUnavailable},
		{"other database error", pgconn.CommandTag{}, &pgconn.PgError{Code: "42P01"}, 0, errors.KindInternal},
	}

	for _, test := range tests {
		db := &execQuerier{tag: test.tag, err: test.err}
		store := &PostgresStore{db: db}

		rows, err := store.CloseDay(context.Background(), id)
		assert.Equalf(t, test.rows, rows, test.description)
		if test.kind < 0 {
			assert.NoErrorf(t, err, test.description)
		} else {
			assert.Equalf(t, test.kind, errors.KindOf(err), test.description)
		}

		assert.Equal(t, []any{id}, db.args, test.description)
		assert.Contains(t, db.sql, "t.is_available", test.description)
		assert.Contains(t, db.sql, "s.date = t.date", test.description)
	}
}

func TestPostgresCloseDayIgnoresMalformedID(t *testing.T) {
	db := &execQuerier{}
	store := &PostgresStore{db: db}

	rows, err := store.CloseDay(context.Background(), "not-a-uuid")
	assert.NoError(t, err)
	assert.Zero(t, rows)
	assert.Empty(t, db.sql)
}
