package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/service"
	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

// gameRecord is one line of a self-play JSONL file: the board before
// every phase and the orders given in it.
type gameRecord struct {
	GameID    int           `json:"game_id"`
	Winner    *string       `json:"winner"` // null for draw
	FinalYear int           `json:"final_year"`
	Phases    []phaseRecord `json:"phases"`
}

type phaseRecord struct {
	DFEN   string            `json:"dfen"`
	Orders map[string]string `json:"orders"` // power -> DSON
}

// replayStats totals a replay run.
type replayStats struct {
	Games      int
	Phases     int
	Mismatches int
	Skipped    int
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		store      string
		namePrefix string
	)
	cmd := &cobra.Command{
		Use:   "replay <games.jsonl>",
		Short: "Re-adjudicate recorded games and compare each phase with the next recorded board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()

			if store == "" {
				store = a.cfg.Store
			}
			repo, closeRepo, err := openStore(cmd.Context(), a.cfg, store)
			if err != nil {
				return err
			}
			defer closeRepo()
			svc := service.NewTurnService(repo, nil)
			svc.SetRules(a.cfg.Rules(), a.cfg.Validation())

			st, err := replay(cmd.Context(), svc, f, namePrefix, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "games: %d  phases: %d  mismatches: %d  skipped lines: %d\n",
				st.Games, st.Phases, st.Mismatches, st.Skipped)
			if st.Mismatches > 0 {
				return fmt.Errorf("%d phase(s) did not match the recorded boards", st.Mismatches)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "persist replayed turns: none, sqlite or postgres (overrides STORE)")
	cmd.Flags().StringVar(&namePrefix, "name-prefix", "selfplay", "game ID prefix for replayed games")
	return cmd
}

func replay(ctx context.Context, svc *service.TurnService, r io.Reader, namePrefix string, w io.Writer) (replayStats, error) {
	var st replayStats
	scanner := bufio.NewScanner(r)
	// Allow large lines (self-play games can be large).
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec gameRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Warn().Err(err).Msg("Skipping line with bad JSON")
			st.Skipped++
			continue
		}
		gameID := fmt.Sprintf("%s-%03d", namePrefix, rec.GameID)
		phases, mismatches, err := replayGame(ctx, svc, gameID, rec, w)
		if err != nil {
			return st, fmt.Errorf("game %s: %w", gameID, err)
		}
		st.Games++
		st.Phases += phases
		st.Mismatches += mismatches
	}
	if err := scanner.Err(); err != nil {
		return st, fmt.Errorf("read input: %w", err)
	}
	return st, nil
}

// replayGame adjudicates every phase that has a recorded successor. While
// the boards agree, the adjudicated state is carried forward so retreat
// phases keep the standoff information DFEN does not hold.
func replayGame(ctx context.Context, svc *service.TurnService, gameID string, rec gameRecord, w io.Writer) (int, int, error) {
	var (
		carried    *diplomacy.GameState
		phases     int
		mismatches int
	)
	for i := 0; i+1 < len(rec.Phases); i++ {
		pe := rec.Phases[i]
		gs := carried
		if gs == nil {
			var err error
			if gs, err = diplomacy.DecodeDFEN(pe.DFEN); err != nil {
				return phases, mismatches, fmt.Errorf("phase %d: %w", i, err)
			}
		}
		orders, err := recordOrders(pe.Orders, gs.Phase)
		if err != nil {
			return phases, mismatches, fmt.Errorf("phase %d: %w", i, err)
		}
		out, err := svc.Adjudicate(ctx, gameID, gs, orders)
		if err != nil {
			return phases, mismatches, fmt.Errorf("phase %d: %w", i, err)
		}
		phases++

		want, err := canonicalDFEN(rec.Phases[i+1].DFEN)
		if err != nil {
			return phases, mismatches, fmt.Errorf("phase %d: %w", i+1, err)
		}
		got := diplomacy.EncodeDFEN(out.Next)
		if got != want {
			mismatches++
			carried = nil
			fmt.Fprintf(w, "%s phase %d (%s): mismatch\n  want %s\n  got  %s\n", gameID, i, gs.PhaseName(), want, got)
			continue
		}
		carried = out.Next
	}
	return phases, mismatches, nil
}

// recordOrders parses the per-power DSON of one recorded phase. Powers are
// taken in standard order so the arena is the same on every run.
func recordOrders(byPower map[string]string, phase diplomacy.PhaseType) ([]diplomacy.Order, error) {
	known := make(map[diplomacy.Power]string, len(byPower))
	for name, dson := range byPower {
		p, err := diplomacy.ParsePower(name)
		if err != nil {
			return nil, err
		}
		known[p] = dson
	}
	var orders []diplomacy.Order
	for _, p := range diplomacy.AllPowers() {
		dson, ok := known[p]
		if !ok {
			continue
		}
		parsed, err := diplomacy.ParseOrders(dson, p, phase)
		if err != nil {
			return nil, fmt.Errorf("%s orders: %w", p, err)
		}
		orders = append(orders, parsed...)
	}
	return orders, nil
}

func canonicalDFEN(s string) (string, error) {
	gs, err := diplomacy.DecodeDFEN(s)
	if err != nil {
		return "", err
	}
	return diplomacy.EncodeDFEN(gs), nil
}
