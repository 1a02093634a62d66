package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/model"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository"
)

// mockTurnRepo implements repository.TurnRepository for testing.
type mockTurnRepo struct {
	turns   []model.Turn
	results map[string][]model.ResultEntry
	saveErr error
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{results: make(map[string][]model.ResultEntry)}
}

func (m *mockTurnRepo) SaveTurn(_ context.Context, rec model.TurnRecord) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	t := rec.Turn
	t.ID = fmt.Sprintf("turn-%d", len(m.turns)+1)
	n := 0
	for _, prev := range m.turns {
		if prev.GameID == t.GameID {
			n++
		}
	}
	t.Number = n + 1
	m.turns = append(m.turns, t)
	m.results[t.ID] = rec.Results
	return t.ID, nil
}

func (m *mockTurnRepo) ResultsByTurn(_ context.Context, turnID string) ([]model.ResultEntry, error) {
	return m.results[turnID], nil
}

func (m *mockTurnRepo) LatestTurn(_ context.Context, gameID string) (*model.Turn, error) {
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].GameID == gameID {
			t := m.turns[i]
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockTurnRepo) ListTurns(_ context.Context, gameID string) ([]model.Turn, error) {
	var out []model.Turn
	for _, t := range m.turns {
		if t.GameID == gameID {
			out = append(out, t)
		}
	}
	return out, nil
}

// mockCache implements repository.TurnCache for testing.
type mockCache struct {
	states    map[string]json.RawMessage
	results   map[string][]model.ResultEntry
	appendErr error
	getErr    error
}

func newMockCache() *mockCache {
	return &mockCache{
		states:  make(map[string]json.RawMessage),
		results: make(map[string][]model.ResultEntry),
	}
}

func (c *mockCache) SetState(_ context.Context, gameID string, state json.RawMessage) error {
	c.states[gameID] = state
	return nil
}

func (c *mockCache) GetState(_ context.Context, gameID string) (json.RawMessage, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.states[gameID], nil
}

func (c *mockCache) AppendResults(_ context.Context, gameID string, entries []model.ResultEntry) error {
	if c.appendErr != nil {
		return c.appendErr
	}
	c.results[gameID] = append(c.results[gameID], entries...)
	return nil
}

func (c *mockCache) Results(_ context.Context, gameID string) ([]model.ResultEntry, error) {
	return c.results[gameID], nil
}

func (c *mockCache) Clear(_ context.Context, gameID string) error {
	delete(c.states, gameID)
	delete(c.results, gameID)
	return nil
}

var errBoom = errors.New("boom")
