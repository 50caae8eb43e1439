package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var schema = map[string]string{
	DriverPostgres: `
		CREATE TABLE IF NOT EXISTS finished_games (
			id             BIGSERIAL PRIMARY KEY,
			session_id     TEXT NOT NULL UNIQUE,
			start_encoding TEXT NOT NULL,
			final_encoding TEXT NOT NULL,
			moves          TEXT NOT NULL,
			outcome        TEXT NOT NULL,
			started_at     TIMESTAMPTZ NOT NULL,
			ended_at       TIMESTAMPTZ NOT NULL
		)`,
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS finished_games (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id     TEXT NOT NULL UNIQUE,
			start_encoding TEXT NOT NULL,
			final_encoding TEXT NOT NULL,
			moves          TEXT NOT NULL,
			outcome        TEXT NOT NULL,
			started_at     TIMESTAMP NOT NULL,
			ended_at       TIMESTAMP NOT NULL
		)`,
}

// Open connects and creates the table when missing.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	ddl, ok := schema[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported archive driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("archive dsn is empty")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// in-memory databases exist per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate finished_games: %w", err)
	}
	return db, nil
}

type repository struct {
	db *sql.DB
}

// NewRepository works with both drivers: the queries use $N placeholders and
// ON CONFLICT ... RETURNING, which Postgres and SQLite 3.35+ share.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, game *Game) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game payload")
	}
	moves, err := json.Marshal(game.Moves)
	if err != nil {
		return 0, fmt.Errorf("marshal moves: %w", err)
	}

	const query = `
		INSERT INTO finished_games (
			session_id,
			start_encoding,
			final_encoding,
			moves,
			outcome,
			started_at,
			ended_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.SessionID,
		game.StartEncoding,
		game.FinalEncoding,
		string(moves),
		game.Outcome,
		game.StartedAt.UTC(),
		game.EndedAt.UTC(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert finished game: %w", err)
	}
	return id.Int64, nil
}

const selectColumns = `
		SELECT
			id,
			session_id,
			start_encoding,
			final_encoding,
			moves,
			outcome,
			started_at,
			ended_at
		FROM finished_games`

func (r *repository) Get(ctx context.Context, id int64) (*Game, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	return scanOne(row)
}

func (r *repository) GetBySession(ctx context.Context, sessionID string) (*Game, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE session_id = $1`, sessionID)
	return scanOne(row)
}

func (r *repository) Recent(ctx context.Context, limit int) ([]*Game, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY ended_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent games: %w", err)
	}
	defer rows.Close()

	var out []*Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent games: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*Game, error) {
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

func scanGame(s scanner) (*Game, error) {
	var (
		g     Game
		moves string
	)
	if err := s.Scan(
		&g.ID,
		&g.SessionID,
		&g.StartEncoding,
		&g.FinalEncoding,
		&moves,
		&g.Outcome,
		&g.StartedAt,
		&g.EndedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan finished game: %w", err)
	}
	if err := json.Unmarshal([]byte(moves), &g.Moves); err != nil {
		return nil, fmt.Errorf("decode moves: %w", err)
	}
	return &g, nil
}
