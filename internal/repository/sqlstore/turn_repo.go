// Package sqlstore implements turn storage on database/sql for both
// PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/model"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository"
)

// Dialect selects the placeholder style of the target database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS turns (
		id           TEXT PRIMARY KEY,
		game_id      TEXT NOT NULL,
		turn_no      INTEGER NOT NULL,
		year         INTEGER NOT NULL,
		season       TEXT NOT NULL,
		phase_type   TEXT NOT NULL,
		state_before TEXT NOT NULL,
		state_after  TEXT NOT NULL,
		orders       TEXT,
		unresolved   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   BIGINT NOT NULL,
		UNIQUE (game_id, turn_no)
	)`,
	`CREATE TABLE IF NOT EXISTS turn_results (
		turn_id  TEXT NOT NULL REFERENCES turns(id) ON DELETE CASCADE,
		seq      INTEGER NOT NULL,
		kind     TEXT NOT NULL,
		power    TEXT,
		location TEXT,
		outcome  TEXT,
		message  TEXT NOT NULL,
		at       BIGINT,
		PRIMARY KEY (turn_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS turns_game_idx ON turns (game_id, turn_no)`,
}

// TurnRepo handles turn and result database operations.
type TurnRepo struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB, dialect Dialect) *TurnRepo {
	return &TurnRepo{db: db, dialect: dialect, now: time.Now}
}

var _ repository.TurnRepository = (*TurnRepo)(nil)

// Migrate creates the tables if they do not exist.
func (r *TurnRepo) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (r *TurnRepo) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// SaveTurn inserts a turn and its results in one transaction and returns
// the new turn ID.
func (r *TurnRepo) SaveTurn(ctx context.Context, rec model.TurnRecord) (string, error) {
	t := rec.Turn
	if t.GameID == "" {
		return "", fmt.Errorf("save turn: game id is required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	err = tx.QueryRowContext(ctx, r.rebind(`SELECT MAX(turn_no) FROM turns WHERE game_id = ?`), t.GameID).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("next turn number: %w", err)
	}
	t.Number = int(last.Int64) + 1

	_, err = tx.ExecContext(ctx, r.rebind(
		`INSERT INTO turns (id, game_id, turn_no, year, season, phase_type, state_before, state_after, orders, unresolved, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.GameID, t.Number, t.Year, t.Season, t.PhaseType, t.StateBefore, t.StateAfter,
		nullStr(string(t.Orders)), t.Unresolved, toMillis(t.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("insert turn: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.rebind(
		`INSERT INTO turn_results (turn_id, seq, kind, power, location, outcome, message, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return "", fmt.Errorf("prepare insert result: %w", err)
	}
	defer stmt.Close()

	for i, e := range rec.Results {
		var at sql.NullInt64
		if !e.At.IsZero() {
			at = sql.NullInt64{Int64: toMillis(e.At), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, t.ID, i, e.Kind, nullStr(e.Power), nullStr(e.Location), nullStr(e.Outcome), e.Message, at)
		if err != nil {
			return "", fmt.Errorf("insert result %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit turn: %w", err)
	}
	return t.ID, nil
}

// ResultsByTurn returns a turn's result log in order.
func (r *TurnRepo) ResultsByTurn(ctx context.Context, turnID string) ([]model.ResultEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT turn_id, seq, kind, power, location, outcome, message, at
		 FROM turn_results WHERE turn_id = ? ORDER BY seq`), turnID)
	if err != nil {
		return nil, fmt.Errorf("results by turn: %w", err)
	}
	defer rows.Close()

	var out []model.ResultEntry
	for rows.Next() {
		var e model.ResultEntry
		var power, location, outcome sql.NullString
		var at sql.NullInt64
		if err := rows.Scan(&e.TurnID, &e.Seq, &e.Kind, &power, &location, &outcome, &e.Message, &at); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		e.Power = power.String
		e.Location = location.String
		e.Outcome = outcome.String
		if at.Valid {
			e.At = fromMillis(at.Int64)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const turnColumns = `id, game_id, turn_no, year, season, phase_type, state_before, state_after, orders, unresolved, created_at`

// LatestTurn returns the most recent turn of a game, or ErrNotFound.
func (r *TurnRepo) LatestTurn(ctx context.Context, gameID string) (*model.Turn, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+turnColumns+` FROM turns WHERE game_id = ? ORDER BY turn_no DESC LIMIT 1`), gameID)
	t, err := scanTurn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest turn: %w", err)
	}
	return t, nil
}

// ListTurns returns all turns of a game in play order.
func (r *TurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT `+turnColumns+` FROM turns WHERE game_id = ? ORDER BY turn_no`), gameID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, *t)
	}
	return turns, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(s scanner) (*model.Turn, error) {
	var t model.Turn
	var orders sql.NullString
	var created int64
	err := s.Scan(&t.ID, &t.GameID, &t.Number, &t.Year, &t.Season, &t.PhaseType,
		&t.StateBefore, &t.StateAfter, &orders, &t.Unresolved, &created)
	if err != nil {
		return nil, err
	}
	if orders.Valid && orders.String != "" {
		t.Orders = json.RawMessage(orders.String)
	}
	t.CreatedAt = fromMillis(created)
	return &t, nil
}

func toMillis(v time.Time) int64 {
	return v.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
