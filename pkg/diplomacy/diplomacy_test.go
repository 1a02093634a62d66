package diplomacy

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"
)

// Helper to create a game state with specific units (no SCs for resolution tests).
func stateWith(units ...Unit) *GameState {
	return &GameState{
		Year:          1901,
		Season:        Spring,
		Phase:         PhaseMovement,
		Units:         units,
		SupplyCenters: make(map[string]Power),
	}
}

var fixedClock = func() time.Time { return time.Date(1901, time.March, 1, 0, 0, 0, 0, time.UTC) }

// parse turns DSON order strings, keyed by power, into orders for phase.
// Powers are visited in standard order so results are deterministic.
func parse(t *testing.T, phase PhaseType, byPower map[Power]string) []Order {
	t.Helper()
	powers := make([]Power, 0, len(byPower))
	for p := range byPower {
		powers = append(powers, p)
	}
	sort.Slice(powers, func(i, j int) bool { return powers[i] < powers[j] })
	var out []Order
	for _, p := range powers {
		orders, err := ParseOrders(byPower[p], p, phase)
		if err != nil {
			t.Fatalf("parse %s orders: %v", p, err)
		}
		out = append(out, orders...)
	}
	return out
}

// adjudicate runs one phase and fails the test on error.
func adjudicate(t *testing.T, gs *GameState, orders []Order, opts ...Option) *Adjudicator {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	a := New(StandardMap(), gs, orders, opts...)
	if err := a.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	return a
}

// resultFor returns the final outcome of the order for the unit at location.
func resultFor(a *Adjudicator, location string) Decision {
	h := a.StateAt(location)
	if h == NoHandle {
		return Uncertain
	}
	return a.State(h).Outcome()
}

func wantResult(t *testing.T, a *Adjudicator, location string, want Decision) {
	t.Helper()
	if got := resultFor(a, location); got != want {
		t.Errorf("%s: want %s, got %s\n%s", location, want, got, dumpResults(a))
	}
}

func wantDislodged(t *testing.T, a *Adjudicator, location string, want bool) {
	t.Helper()
	h := a.StateAt(location)
	if h == NoHandle {
		t.Fatalf("no order at %s", location)
	}
	if got := a.State(h).Dislodged() == Yes; got != want {
		t.Errorf("%s dislodged: want %v, got %v\n%s", location, want, got, dumpResults(a))
	}
}

// wantUnit checks the next state has power's unit at province.
func wantUnit(t *testing.T, gs *GameState, power Power, province string) {
	t.Helper()
	u := gs.UnitAt(province)
	if u == nil || u.Power != power {
		t.Errorf("want %s unit at %s, got %+v", power, province, u)
	}
}

func dumpResults(a *Adjudicator) string {
	var b strings.Builder
	for _, r := range a.Results().Entries() {
		if r.Kind == ResultTimestamp {
			continue
		}
		b.WriteString("  ")
		b.WriteString(r.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Regression: the next board must move the correct unit when one move's
// destination is another move's source (chained moves).
func TestNextState_ChainedMoves(t *testing.T) {
	gs := stateWith(
		Unit{Army, France, "par", NoCoast},
		Unit{Fleet, England, "bre", NoCoast},
	)
	orders := parse(t, PhaseMovement, map[Power]string{
		France:  "A par - bre",
		England: "F bre - gas",
	})
	a := adjudicate(t, gs, orders)

	wantResult(t, a, "par", Success)
	wantResult(t, a, "bre", Success)

	next := a.NextState()
	wantUnit(t, next, France, "bre")
	wantUnit(t, next, England, "gas")
	if len(next.Units) != 2 {
		t.Errorf("expected 2 units, got %d", len(next.Units))
	}
	if gs.UnitAt("gas") != nil {
		t.Error("input state must not be modified")
	}
}

// Regression: three-way move chain A->B, B->C, C->A must all resolve correctly.
func TestNextState_ThreeWayRotation(t *testing.T) {
	gs := stateWith(
		Unit{Fleet, France, "bre", NoCoast},
		Unit{Fleet, England, "eng", NoCoast},
		Unit{Fleet, Germany, "mao", NoCoast},
	)
	orders := parse(t, PhaseMovement, map[Power]string{
		France:  "F bre - eng",
		England: "F eng - mao",
		Germany: "F mao - bre",
	})
	a := adjudicate(t, gs, orders)

	next := a.NextState()
	wantUnit(t, next, France, "eng")
	wantUnit(t, next, England, "mao")
	wantUnit(t, next, Germany, "bre")
	if next.Season != Fall || next.Phase != PhaseMovement {
		t.Errorf("expected fall movement next, got %s", next.PhaseName())
	}
}

func TestProcess_OnlyOnce(t *testing.T) {
	a := adjudicate(t, stateWith(Unit{Army, France, "par", NoCoast}), nil)
	if err := a.Process(); err != ErrAlreadyProcessed {
		t.Errorf("second Process: want ErrAlreadyProcessed, got %v", err)
	}
}

func TestProcess_TimestampFirst(t *testing.T) {
	a := adjudicate(t, stateWith(Unit{Army, France, "par", NoCoast}), nil)
	entries := a.Results().Entries()
	if len(entries) == 0 || entries[0].Kind != ResultTimestamp {
		t.Fatalf("first entry should be the timestamp, got %+v", entries)
	}
	if !entries[0].At.Equal(fixedClock()) {
		t.Errorf("timestamp: want %v, got %v", fixedClock(), entries[0].At)
	}
}

func TestProcess_UnorderedUnitsHold(t *testing.T) {
	gs := stateWith(
		Unit{Army, France, "par", NoCoast},
		Unit{Army, Germany, "mun", NoCoast},
	)
	a := adjudicate(t, gs, nil)
	subs := a.Substituted()
	if len(subs) != 2 {
		t.Fatalf("expected 2 substitutions, got %d", len(subs))
	}
	for _, s := range subs {
		if s.Original != nil || s.Replacement.Type != OrderHold {
			t.Errorf("expected synthesized hold, got %+v", s)
		}
	}
	wantResult(t, a, "par", Success)
	wantResult(t, a, "mun", Success)
}

func TestProcess_DuplicateOrderLastWins(t *testing.T) {
	gs := stateWith(Unit{Army, France, "par", NoCoast})
	orders := parse(t, PhaseMovement, map[Power]string{France: "A par - bur ; A par - pic"})
	a := adjudicate(t, gs, orders)
	wantUnit(t, a.NextState(), France, "pic")
}

func TestProcess_EliminatedPowerOrdersIgnored(t *testing.T) {
	gs := stateWith(Unit{Army, France, "par", NoCoast})
	gs.Eliminated = map[Power]bool{France: true}
	orders := parse(t, PhaseMovement, map[Power]string{France: "A par - bur"})
	a := adjudicate(t, gs, orders)
	wantUnit(t, a.NextState(), France, "par")
}

func TestProcess_UnknownPhase(t *testing.T) {
	gs := stateWith()
	gs.Phase = "diplomacy"
	err := New(StandardMap(), gs, nil).Process()
	if !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("expected unknown phase error, got %v", err)
	}
}

func TestProcess_SoloVictoryEndsGame(t *testing.T) {
	m := StandardMap()
	gs := stateWith(Unit{Army, France, "rom", NoCoast})
	gs.Year, gs.Season = 1905, Fall

	var centers []string
	for id, p := range m.Provinces {
		if p.IsSupplyCenter && id != "nap" {
			centers = append(centers, id)
		}
	}
	sort.Strings(centers)
	for _, id := range centers[:SoloCenters-1] {
		gs.SupplyCenters[id] = France
	}

	a := adjudicate(t, gs, parse(t, PhaseMovement, map[Power]string{France: "A rom - nap"}))
	next := a.NextState()
	if !next.Ended || !next.Resolved {
		t.Fatalf("game should be over: ended=%v resolved=%v", next.Ended, next.Resolved)
	}
	if len(next.Winners) != 1 || next.Winners[0] != France {
		t.Errorf("winners = %v, want [france]", next.Winners)
	}
	if next.SupplyCenterCount(France) != SoloCenters {
		t.Errorf("France owns %d centers, want %d", next.SupplyCenterCount(France), SoloCenters)
	}
	if next.Year != 1905 || next.Season != Fall || next.Phase != PhaseMovement {
		t.Errorf("phase should not advance after victory, got %s", next.PhaseName())
	}
	won := false
	for _, r := range a.Results().Entries() {
		if r.Kind == ResultGeneric && r.Power == France && r.Message == "wins the game" {
			won = true
		}
	}
	if !won {
		t.Errorf("missing victory entry\n%s", dumpResults(a))
	}
}

func TestProcess_NoVictoryBelowSoloCenters(t *testing.T) {
	gs := stateWith(Unit{Army, France, "rom", NoCoast})
	gs.Year, gs.Season = 1905, Fall
	a := adjudicate(t, gs, parse(t, PhaseMovement, map[Power]string{France: "A rom - nap"}))
	if next := a.NextState(); next.Ended || next.Winners != nil {
		t.Errorf("one center is not a win: ended=%v winners=%v", next.Ended, next.Winners)
	}
}

func TestProcess_RejectedOrderMarkedIllegal(t *testing.T) {
	gs := stateWith(
		Unit{Fleet, England, "nth", NoCoast},
		Unit{Army, France, "par", NoCoast},
	)
	a := adjudicate(t, gs, parse(t, PhaseMovement, map[Power]string{England: "F nth - pic"}))

	if a.State(a.StateAt("nth")).Legal() {
		t.Error("the hold replacing F nth - pic should be marked illegal")
	}
	if !a.State(a.StateAt("par")).Legal() {
		t.Error("a unit with no orders is not illegal")
	}
	for _, s := range a.Substituted() {
		want := s.Original != nil
		if s.Illegal != want {
			t.Errorf("%s: Illegal = %v, want %v", s.Replacement.Describe(), s.Illegal, want)
		}
	}
}
