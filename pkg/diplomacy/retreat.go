package diplomacy

import (
	"fmt"
	"sort"
)

// RetreatChecker answers where dislodged units may retreat, given the
// board after movement and the moves that produced it.
type RetreatChecker struct {
	gs        *GameState
	m         *DiplomacyMap
	moves     []MoveOutcome
	standoffs map[string]bool
}

// NewRetreatChecker builds a checker. Moves are deduplicated by source,
// the last one winning. A province is a standoff when two or more legal
// moves into it failed.
func NewRetreatChecker(gs *GameState, m *DiplomacyMap, moves []MoveOutcome) *RetreatChecker {
	last := make(map[string]int, len(moves))
	var deduped []MoveOutcome
	for _, mv := range moves {
		if i, ok := last[mv.From]; ok {
			deduped[i] = mv
			continue
		}
		last[mv.From] = len(deduped)
		deduped = append(deduped, mv)
	}

	failed := make(map[string]int)
	for _, mv := range deduped {
		if mv.Legal && !mv.Success {
			failed[mv.To]++
		}
	}
	standoffs := make(map[string]bool)
	for prov, n := range failed {
		if n >= 2 {
			standoffs[prov] = true
		}
	}
	return &RetreatChecker{gs: gs, m: m, moves: deduped, standoffs: standoffs}
}

// IsStandoff reports whether province saw a standoff.
func (rc *RetreatChecker) IsStandoff(province string) bool {
	return rc.standoffs[province]
}

// attackerOrigin returns the province the unit dislodged at province was
// attacked from, or "" when it arrived by convoy or is unknown.
func (rc *RetreatChecker) attackerOrigin(province string) string {
	for _, mv := range rc.moves {
		if mv.Success && mv.To == province {
			if mv.Convoyed {
				return ""
			}
			return mv.From
		}
	}
	if d := rc.gs.DislodgedAt(province); d != nil && !d.ViaConvoy {
		return d.AttackerFrom
	}
	return ""
}

// ValidDestinations lists the legal retreats for the dislodged unit at
// from, sorted. Empty if there is no dislodged unit there.
func (rc *RetreatChecker) ValidDestinations(from Location) []Location {
	d := rc.gs.DislodgedAt(from.Province)
	if d == nil {
		return nil
	}
	u := d.Unit
	isFleet := u.Type == Fleet
	origin := rc.attackerOrigin(u.Province)

	seen := make(map[Location]bool)
	var out []Location
	for adj := range rc.m.Borders(u.Province, u.Coast, isFleet) {
		to := Location{Province: adj.To}
		if isFleet {
			to.Coast = adj.ToCoast
		}
		if seen[to] || !rc.open(to.Province, origin) {
			continue
		}
		seen[to] = true
		out = append(out, to)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (rc *RetreatChecker) open(province, origin string) bool {
	return province != origin && rc.gs.UnitAt(province) == nil && !rc.standoffs[province]
}

// IsValid reports whether the unit dislodged at from may retreat to to.
func (rc *RetreatChecker) IsValid(from, to Location) bool {
	_, ok := rc.resolve(from, to)
	return ok
}

// resolve matches to against the legal destinations, filling in the coast
// when only one coast of a split-coast province is reachable.
func (rc *RetreatChecker) resolve(from, to Location) (Location, bool) {
	var match []Location
	for _, dest := range rc.ValidDestinations(from) {
		if dest.Province != to.Province {
			continue
		}
		if to.Coast == NoCoast || dest.Coast == NoCoast || dest.Coast == to.Coast {
			match = append(match, dest)
		}
	}
	if len(match) != 1 {
		return Location{}, false
	}
	return match[0], true
}

// HasAnyRetreat reports whether the unit dislodged at from has somewhere to go.
func (rc *RetreatChecker) HasAnyRetreat(from Location) bool {
	return len(rc.ValidDestinations(from)) > 0
}

func (a *Adjudicator) adjudicateRetreats() error {
	rc := NewRetreatChecker(a.gs, a.m, a.gs.PriorMoves)
	byLoc := a.collectOrders(func(o Order) string {
		if a.gs.DislodgedAt(o.Location) == nil {
			return "no dislodged unit at " + o.Location
		}
		return ""
	})

	orders := make([]Order, 0, len(a.gs.Dislodged))
	var rejected []string
	for _, d := range a.gs.Dislodged {
		o, ok := byLoc[d.Unit.Province]
		if !ok {
			disband := NewDisband(d.Unit)
			a.substitute(nil, disband, "no retreat order")
			orders = append(orders, disband)
			continue
		}
		norm, err := a.normalizeRetreat(o, d, rc)
		if err != nil {
			a.invalid(o, err)
			disband := NewDisband(d.Unit)
			a.substitute(&o, disband, "invalid retreat")
			orders = append(orders, disband)
			rejected = append(rejected, d.Unit.Province)
			continue
		}
		orders = append(orders, norm)
	}
	a.resetArena(orders)
	a.markRejected(rejected)

	for _, h := range a.handles {
		determineDependencies(a, h)
	}
	if err := a.verifyAll(); err != nil {
		return err
	}
	a.stats.Passes++
	for _, h := range a.handles {
		if err := evaluate(a, h); err != nil {
			return err
		}
	}

	next := a.gs.Clone()
	next.Dislodged = nil
	next.PriorMoves = nil
	for _, h := range a.handles {
		st := &a.states[h]
		o := st.Order()
		switch st.Outcome() {
		case Uncertain:
			return fmt.Errorf("%s: %w", o.Describe(), ErrRetreatParadox)
		case Success:
			a.AddResult(h, OutcomeSuccess, "")
			if o.Type == OrderRetreat {
				next.Units = append(next.Units, Unit{Type: o.UnitType, Power: o.Power, Province: o.Target, Coast: o.TargetCoast})
			}
		}
	}

	if a.gs.Season == Fall {
		UpdateSupplyCenterOwnership(next, a.m)
	}
	a.next = next
	if a.checkVictory(next) {
		return nil
	}
	a.advanceNext(next)
	return nil
}

func (a *Adjudicator) normalizeRetreat(o Order, d DislodgedUnit, rc *RetreatChecker) (Order, error) {
	if o.Type != OrderRetreat && o.Type != OrderDisband {
		return o, &ValidationError{Order: o, Message: o.Type.String() + " is not a retreat order"}
	}
	if o.Power != d.Unit.Power {
		return o, &ValidationError{Order: o, Message: fmt.Sprintf("unit belongs to %s, not %s", d.Unit.Power, o.Power)}
	}
	if o.UnitType != d.Unit.Type {
		if a.validation.Strict {
			return o, &ValidationError{Order: o, Message: fmt.Sprintf("unit is %s, not %s", d.Unit.Type, o.UnitType), Warning: true}
		}
		o.UnitType = d.Unit.Type
	}
	o.Coast = d.Unit.Coast
	if o.Type == OrderDisband {
		return o, nil
	}
	dest, ok := rc.resolve(d.Unit.Loc(), o.Dest())
	if !ok {
		return o, &ValidationError{Order: o, Message: "cannot retreat to " + o.Dest().String()}
	}
	o.Target = dest.Province
	o.TargetCoast = dest.Coast
	return o, nil
}
