package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/model"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// TurnRepository defines durable storage of adjudicated turns.
type TurnRepository interface {
	SaveTurn(ctx context.Context, rec model.TurnRecord) (string, error)
	ResultsByTurn(ctx context.Context, turnID string) ([]model.ResultEntry, error)
	LatestTurn(ctx context.Context, gameID string) (*model.Turn, error)
	ListTurns(ctx context.Context, gameID string) ([]model.Turn, error)
}

// TurnCache defines the live board and latest results of a game (Redis).
type TurnCache interface {
	SetState(ctx context.Context, gameID string, state json.RawMessage) error
	GetState(ctx context.Context, gameID string) (json.RawMessage, error)
	AppendResults(ctx context.Context, gameID string, entries []model.ResultEntry) error
	Results(ctx context.Context, gameID string) ([]model.ResultEntry, error)
	Clear(ctx context.Context, gameID string) error
}
