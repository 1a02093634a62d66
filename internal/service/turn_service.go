package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/logger"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/metrics"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/model"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository"
	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

// TurnService adjudicates turns and records them. The repository, cache
// and metrics are all optional.
type TurnService struct {
	m          *diplomacy.DiplomacyMap
	repo       repository.TurnRepository
	cache      repository.TurnCache
	metrics    *metrics.Metrics
	rules      diplomacy.RuleOptions
	validation diplomacy.ValidationOptions
	victory    diplomacy.VictoryCondition
	now        func() time.Time

	// gameLocks serializes adjudication per game.
	gameLocks sync.Map
}

// TurnOutcome is what one adjudication produced.
type TurnOutcome struct {
	TurnID      string
	Next        *diplomacy.GameState
	Results     []diplomacy.Result
	Entries     []model.ResultEntry
	Substituted []diplomacy.Substitution
	Stats       diplomacy.Stats
}

// NewTurnService creates a TurnService on the standard map. repo and
// cache may be nil.
func NewTurnService(repo repository.TurnRepository, cache repository.TurnCache) *TurnService {
	return &TurnService{
		m:       diplomacy.StandardMap(),
		repo:    repo,
		cache:   cache,
		rules:   diplomacy.DefaultRules(),
		victory: diplomacy.SoloVictory{},
		now:     time.Now,
	}
}

// SetRules configures the rule options and order validation.
func (s *TurnService) SetRules(r diplomacy.RuleOptions, v diplomacy.ValidationOptions) {
	s.rules = r
	s.validation = v
}

// SetVictory replaces the victory condition.
func (s *TurnService) SetVictory(v diplomacy.VictoryCondition) {
	s.victory = v
}

// SetMetrics configures the optional metrics sink.
func (s *TurnService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Adjudicate resolves one phase of gameID and stores the outcome. The
// input state is not modified.
func (s *TurnService) Adjudicate(ctx context.Context, gameID string, gs *diplomacy.GameState, orders []diplomacy.Order) (*TurnOutcome, error) {
	if gs == nil {
		return nil, errors.New("adjudicate: no game state")
	}
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	l := logger.ForTurn(logger.WithGameID(ctx, gameID), gs)
	l.Info().Int("orders", len(orders)).Msg("Adjudicating turn")

	adj := diplomacy.New(s.m, gs, orders,
		diplomacy.WithRules(s.rules),
		diplomacy.WithValidation(s.validation),
		diplomacy.WithVictory(s.victory),
		diplomacy.WithClock(s.now),
		diplomacy.WithLogger(l),
	)
	if err := adj.Process(); err != nil {
		return nil, fmt.Errorf("adjudicate %s: %w", gameID, err)
	}

	out := &TurnOutcome{
		Next:        adj.NextState(),
		Results:     adj.Results().Entries(),
		Substituted: adj.Substituted(),
		Stats:       adj.Stats(),
	}
	out.Entries = ResultEntries(out.Results)
	if s.metrics != nil {
		s.metrics.Observe(gs.Phase, out.Stats)
	}
	if out.Stats.Unresolved {
		l.Warn().Msg("Turn left an unresolved paradox")
	}

	if s.repo != nil {
		rec := model.TurnRecord{
			Turn: model.Turn{
				GameID:      gameID,
				Year:        gs.Year,
				Season:      string(gs.Season),
				PhaseType:   string(gs.Phase),
				StateBefore: diplomacy.EncodeDFEN(gs),
				StateAfter:  diplomacy.EncodeDFEN(out.Next),
				Orders:      ordersJSON(orders),
				Unresolved:  out.Stats.Unresolved,
				CreatedAt:   s.now(),
			},
			Results: out.Entries,
		}
		id, err := s.repo.SaveTurn(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("save turn: %w", err)
		}
		out.TurnID = id
	}

	if s.cache != nil {
		state, err := json.Marshal(out.Next)
		if err != nil {
			return nil, fmt.Errorf("marshal next state: %w", err)
		}
		if err := s.cache.SetState(ctx, gameID, state); err != nil {
			return nil, fmt.Errorf("cache state: %w", err)
		}
		if err := s.cache.AppendResults(ctx, gameID, out.Entries); err != nil {
			l.Warn().Err(err).Msg("Failed to cache results")
		}
	}

	l.Info().
		Str("next", out.Next.PhaseName()).
		Int("results", len(out.Results)).
		Int("passes", out.Stats.Passes).
		Bool("ended", out.Next.Ended).
		Msg("Turn adjudicated")
	return out, nil
}

// CurrentState returns the board a game is waiting on: the cached state
// if there is one, otherwise the state after its latest stored turn.
func (s *TurnService) CurrentState(ctx context.Context, gameID string) (*diplomacy.GameState, error) {
	if s.cache != nil {
		raw, err := s.cache.GetState(ctx, gameID)
		if err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Cache read failed, falling back to repository")
		} else if raw != nil {
			var gs diplomacy.GameState
			if err := json.Unmarshal(raw, &gs); err != nil {
				return nil, fmt.Errorf("unmarshal cached state: %w", err)
			}
			return &gs, nil
		}
	}
	if s.repo == nil {
		return nil, repository.ErrNotFound
	}
	t, err := s.repo.LatestTurn(ctx, gameID)
	if err != nil {
		return nil, err
	}
	gs, err := diplomacy.DecodeDFEN(t.StateAfter)
	if err != nil {
		return nil, fmt.Errorf("decode stored state: %w", err)
	}
	return gs, nil
}

// ResultEntries flattens a result log into storable entries.
func ResultEntries(results []diplomacy.Result) []model.ResultEntry {
	out := make([]model.ResultEntry, 0, len(results))
	for i, r := range results {
		e := model.ResultEntry{
			Seq:     i,
			Kind:    r.Kind.String(),
			Power:   string(r.Power),
			Outcome: r.Outcome.String(),
			Message: r.String(),
			At:      r.At,
		}
		switch {
		case r.Order != nil:
			e.Location = r.Order.Location
		case r.Replacement != nil:
			e.Location = r.Replacement.Location
		}
		out = append(out, e)
	}
	return out
}

// ordersJSON stores orders as DSON text per power.
func ordersJSON(orders []diplomacy.Order) json.RawMessage {
	if len(orders) == 0 {
		return nil
	}
	byPower := make(map[string][]diplomacy.Order)
	for _, o := range orders {
		byPower[string(o.Power)] = append(byPower[string(o.Power)], o)
	}
	text := make(map[string]string, len(byPower))
	for p, list := range byPower {
		text[p] = diplomacy.FormatOrders(list)
	}
	b, err := json.Marshal(text)
	if err != nil {
		return nil
	}
	return b
}
