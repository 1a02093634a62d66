package diplomacy

import "fmt"

func (a *Adjudicator) adjudicateMovement() error {
	a.buildMovementArena()
	for _, h := range a.handles {
		determineDependencies(a, h)
	}
	if err := a.verifyAll(); err != nil {
		return err
	}
	if err := a.evaluateMovement(); err != nil {
		return err
	}
	if err := a.finalizeMovement(); err != nil {
		return err
	}

	next := a.movementBoard()
	a.next = next
	if a.checkVictory(next) {
		return nil
	}
	a.advanceNext(next)
	return nil
}

// buildMovementArena creates one order state per unit on the board, in
// board order. Units without a usable order hold.
func (a *Adjudicator) buildMovementArena() {
	byLoc := a.collectOrders(func(o Order) string {
		u := a.gs.UnitAt(o.Location)
		switch {
		case u == nil:
			return "no unit at " + o.Location
		case a.gs.IsEliminated(o.Power):
			return fmt.Sprintf("%s is no longer in the game", o.Power)
		}
		return ""
	})

	orders := make([]Order, 0, len(a.gs.Units))
	var rejected []string
	for _, u := range a.gs.Units {
		o, ok := byLoc[u.Province]
		if !ok {
			hold := NewHold(u)
			a.substitute(nil, hold, "no order given")
			orders = append(orders, hold)
			continue
		}
		norm, err := NormalizeOrder(o, a.gs, a.m, a.validation)
		if err != nil {
			a.invalid(o, err)
			hold := NewHold(u)
			a.substitute(&o, hold, "invalid order")
			orders = append(orders, hold)
			rejected = append(rejected, u.Province)
			continue
		}
		orders = append(orders, norm)
	}
	a.resetArena(orders)
	a.markRejected(rejected)
}

// evaluateMovement repeats evaluation passes until every order is decided.
// When a pass decides nothing, a paradox is broken: circular movement at
// most once per phase, then the Szykman rule, up to the configured number
// of rounds. A paradox left over after that is logged and the remaining
// orders are settled by finalizeMovement.
func (a *Adjudicator) evaluateMovement() error {
	szykman := 0
	for {
		a.stats.Passes++
		moves, others := a.uncertainCounts()
		for _, h := range a.handles {
			if err := evaluate(a, h); err != nil {
				return err
			}
		}
		moves2, others2 := a.uncertainCounts()
		if moves2+others2 == 0 {
			return nil
		}
		if moves2 < moves || others2 < others {
			continue
		}
		if a.stats.CircularBreaks == 0 {
			broken, err := breakCircularMovement(a)
			if err != nil {
				return err
			}
			if broken > 0 {
				a.stats.CircularBreaks++
				a.log.Info().Int("moves", broken).Msg("Circular movement resolved")
				continue
			}
		}
		if szykman < a.rules.SzykmanRounds {
			failed, err := applySzykman(a)
			if err != nil {
				return err
			}
			if failed > 0 {
				szykman++
				a.stats.SzykmanRounds++
				a.log.Info().Int("moves", failed).Msg("Convoy paradox resolved by Szykman rule")
				continue
			}
		}
		a.stats.Unresolved = true
		a.note(Neutral, "unresolved paradox")
		a.log.Warn().Int("moves", moves2).Int("orders", others2).Msg("Unresolved paradox")
		return nil
	}
}

func (a *Adjudicator) uncertainCounts() (moves, others int) {
	for i := range a.states {
		if a.states[i].Outcome() != Uncertain {
			continue
		}
		if a.states[i].Order().Type == OrderMove {
			moves++
		} else {
			others++
		}
	}
	return moves, others
}

// finalizeMovement settles remaining uncertainty and writes the per-order
// results: successes, convoy paths, and dislodgements.
func (a *Adjudicator) finalizeMovement() error {
	for _, h := range a.handles {
		st := &a.states[h]
		if st.Outcome() == Uncertain {
			d := Success
			if st.Dislodged() == Yes {
				d = Failure
			}
			if err := st.SetOutcome(d); err != nil {
				return err
			}
		}
		if st.Dislodged() == Maybe && st.Outcome() != Success {
			if err := st.SetDislodged(Yes, NoHandle); err != nil {
				return err
			}
		}
	}

	for _, h := range a.handles {
		st := &a.states[h]
		o := st.Order()
		if st.Outcome() == Success {
			a.AddResult(h, OutcomeSuccess, "")
			if o.Type == OrderMove && convoyed(a.m, o) {
				path := convoyRoute(a, h, certain)
				if path == nil {
					path = convoyRoute(a, h, possible)
				}
				r := Result{Kind: ResultOrder, Power: o.Power, Order: &o, Outcome: OutcomeConvoyPath}
				r.Path = append(append([]string{o.Location}, path...), o.Target)
				a.results.add(r)
			}
		}
		if st.Dislodged() == Yes {
			a.stats.Dislodged++
			a.AddDislodged(h)
		}
		if o.Type == OrderMove {
			a.results.moves = append(a.results.moves, MoveOutcome{
				From:     o.Location,
				To:       o.Target,
				Success:  st.Outcome() == Success,
				Convoyed: convoyed(a.m, o),
				Legal:    st.Legal(),
			})
		}
	}
	return nil
}

// movementBoard builds the state after movement: successful moves are
// applied and dislodged units set aside for the retreat phase.
func (a *Adjudicator) movementBoard() *GameState {
	next := a.gs.Clone()
	next.Units = make([]Unit, 0, len(a.gs.Units))
	next.Dislodged = nil
	next.PriorMoves = a.results.MoveOutcomes()

	for _, h := range a.handles {
		st := &a.states[h]
		o := st.Order()
		u := *a.gs.UnitAt(o.Location)
		switch {
		case st.Dislodged() == Yes:
			if next.IsEliminated(u.Power) {
				a.note(u.Power, "dislodged unit at "+u.Province+" removed: power is out of the game")
				continue
			}
			d := DislodgedUnit{Unit: u, DislodgedFrom: u.Province}
			if by := st.Dislodger(); by != NoHandle {
				bo := a.states[by].Order()
				d.AttackerFrom = bo.Location
				d.ViaConvoy = convoyed(a.m, bo)
			}
			next.Dislodged = append(next.Dislodged, d)
		case o.Type == OrderMove && st.Outcome() == Success:
			u.Province = o.Target
			u.Coast = arrivalCoast(a.m, u, o)
			next.Units = append(next.Units, u)
		default:
			next.Units = append(next.Units, u)
		}
	}

	if a.gs.Season == Fall {
		UpdateSupplyCenterOwnership(next, a.m)
	}
	return next
}

// arrivalCoast picks the coast a fleet lands on after moving.
func arrivalCoast(m *DiplomacyMap, u Unit, o Order) Coast {
	if u.Type != Fleet || !m.HasCoasts(o.Target) {
		return NoCoast
	}
	if o.TargetCoast != NoCoast {
		return o.TargetCoast
	}
	if coasts := m.FleetCoastsTo(o.Location, o.Coast, o.Target); len(coasts) == 1 {
		return coasts[0]
	}
	return NoCoast
}
