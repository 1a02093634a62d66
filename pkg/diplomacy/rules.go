package diplomacy

// Judge is the view of an adjudication in progress that order rules work
// against. Rules never see the adjudicator itself.
type Judge interface {
	Map() *DiplomacyMap
	Turn() *GameState
	// StateAt returns the handle of the order for the unit at province.
	StateAt(province string) Handle
	State(h Handle) *OrderState
	Handles() []Handle
	IsSelfSupportedMove(h Handle) bool

	AddResult(h Handle, outcome Outcome, msg string)
	AddBounced(h, by Handle)
	AddDislodged(h Handle)
}

// determineDependencies links the order at h to the orders it affects.
func determineDependencies(j Judge, h Handle) {
	st := j.State(h)
	o := st.Order()
	switch o.Type {
	case OrderSupport:
		target := j.StateAt(o.AuxLoc)
		if target == NoHandle {
			return
		}
		ts := j.State(target)
		to := ts.Order()
		if !supportMatches(o, to) {
			return
		}
		if to.Type == OrderMove {
			def := j.StateAt(to.Target)
			if def != NoHandle {
				dp := j.State(def).Order().Power
				if dp != to.Power && dp == o.Power {
					ts.selfSupports = append(ts.selfSupports, h)
					return
				}
			}
		}
		ts.supports = append(ts.supports, h)

	case OrderMove:
		m := j.Map()
		if dest := j.StateAt(o.Target); dest != NoHandle {
			ds := j.State(dest)
			ds.movesToSource = append(ds.movesToSource, h)
			do := ds.Order()
			if do.Type == OrderMove && do.Target == o.Location && !convoyed(m, o) && !convoyed(m, do) {
				st.headToHead = dest
			}
		}
		st.movesToDestination = movesTo(j, h, OrderMove, o.Target)

	case OrderRetreat:
		st.retreat = 1
		st.movesToDestination = movesTo(j, h, OrderRetreat, o.Target)
	}
}

// movesTo returns every other order of type t targeting province.
func movesTo(j Judge, h Handle, t OrderType, province string) []Handle {
	var out []Handle
	for _, other := range j.Handles() {
		if other == h {
			continue
		}
		oo := j.State(other).Order()
		if oo.Type == t && oo.Target == province {
			out = append(out, other)
		}
	}
	return out
}

// verify checks the order at h against the orders it refers to. It returns
// false when the check depends on orders not yet verified.
func verify(j Judge, h Handle) (bool, error) {
	st := j.State(h)
	if st.Verified() {
		return true, nil
	}
	o := st.Order()
	switch o.Type {
	case OrderSupport:
		target := j.StateAt(o.AuxLoc)
		if target == NoHandle || !supportMatches(o, j.State(target).Order()) {
			if err := fail(j, h, OutcomeFailure, "void: supported unit was ordered otherwise"); err != nil {
				return false, err
			}
		}

	case OrderConvoy:
		target := j.StateAt(o.AuxLoc)
		if target == NoHandle || !convoyMatches(j.Map(), o, j.State(target).Order()) {
			if err := fail(j, h, OutcomeFailure, "void: army was ordered otherwise"); err != nil {
				return false, err
			}
		}

	case OrderMove:
		if convoyed(j.Map(), o) {
			for _, c := range matchingConvoys(j, h) {
				if !j.State(c).Verified() {
					return false, nil
				}
			}
			if convoyRoute(j, h, possible) == nil {
				if err := fail(j, h, OutcomeFailure, "no convoy route"); err != nil {
					return false, err
				}
			}
		}
	}
	return true, st.SetVerified(true)
}

// evaluate tries to decide the order at h. It leaves the outcome Uncertain
// when the decision still depends on undecided orders.
func evaluate(j Judge, h Handle) error {
	st := j.State(h)
	if st.Outcome().IsKnown() {
		return nil
	}
	switch st.Order().Type {
	case OrderMove:
		return evaluateMove(j, h)
	case OrderSupport:
		return evaluateSupport(j, h)
	case OrderHold, OrderConvoy:
		return evaluateStationary(j, h)
	case OrderRetreat:
		return evaluateRetreat(j, h)
	default:
		// Disband, Build and Remove were accepted during validation.
		return st.SetOutcome(Success)
	}
}

func fail(j Judge, h Handle, outcome Outcome, msg string) error {
	if err := j.State(h).SetOutcome(Failure); err != nil {
		return err
	}
	j.AddResult(h, outcome, msg)
	return nil
}

func matchingConvoys(j Judge, h Handle) []Handle {
	o := j.State(h).Order()
	var out []Handle
	for _, c := range j.Handles() {
		co := j.State(c).Order()
		if co.Type == OrderConvoy && co.AuxLoc == o.Location && co.AuxTarget == o.Target {
			out = append(out, c)
		}
	}
	return out
}

func possible(d Decision) bool { return d != Failure }
func certain(d Decision) bool  { return d == Success }

// convoyRoute finds a chain of convoying fleets for the move at h using
// only convoys whose outcome passes ok.
func convoyRoute(j Judge, h Handle, ok func(Decision) bool) []string {
	o := j.State(h).Order()
	fleets := make(map[string]bool)
	for _, c := range matchingConvoys(j, h) {
		cs := j.State(c)
		if ok(cs.Outcome()) {
			fleets[cs.Order().Location] = true
		}
	}
	if len(fleets) == 0 {
		return nil
	}
	return convoyChain(o.Location, o.Target, j.Map(), func(sea string) bool { return fleets[sea] })
}

// routeDecision reports whether the move at h reaches its destination:
// always for land moves, and for convoyed moves once the convoy is decided.
func routeDecision(j Judge, h Handle) Decision {
	st := j.State(h)
	if !convoyed(j.Map(), st.Order()) {
		return Success
	}
	if st.convoyDisrupted {
		return Failure
	}
	if convoyRoute(j, h, certain) != nil {
		return Success
	}
	if convoyRoute(j, h, possible) == nil {
		return Failure
	}
	return Uncertain
}

// preventSpan is the strength with which the move at h keeps other units
// out of its destination.
func preventSpan(j Judge, h Handle) span {
	st := j.State(h)
	route := routeDecision(j, h)
	if route == Failure {
		return exact(0)
	}
	s := st.supportSpan(j).add(st.selfSupportSpan(j))
	if route == Uncertain {
		s.lo = 0
	}
	if p := st.HeadToHead(); p != NoHandle {
		switch j.State(p).Outcome() {
		case Success:
			return exact(0)
		case Uncertain:
			s.lo = 0
		}
	}
	return s
}

// defendSpan is a head-to-head unit's strength against its opponent.
func defendSpan(j Judge, h Handle) span {
	st := j.State(h)
	return st.supportSpan(j).add(st.selfSupportSpan(j))
}

// beats compares attack against the destination's resistance and every
// competing move. On Failure it names the order that stopped the move.
func beats(j Judge, h Handle, attack, resist span, resister Handle) (Decision, Handle) {
	d := gt(attack, resist)
	if d == Failure {
		return Failure, resister
	}
	for _, other := range j.State(h).MovesToDestination() {
		pd := gt(attack, preventSpan(j, other))
		if pd == Failure {
			return Failure, other
		}
		d = d.and(pd)
	}
	return d, NoHandle
}

func evaluateMove(j Judge, h Handle) error {
	st := j.State(h)
	o := st.Order()

	route := routeDecision(j, h)
	if route == Failure {
		msg := "no convoy route"
		if st.convoyDisrupted {
			msg = "convoy disrupted"
		}
		return failMove(j, h, OutcomeFailure, msg)
	}

	sup := st.supportSpan(j)
	self := st.selfSupportSpan(j)
	full := sup.add(self)
	st.setAttack(sup)
	st.setSelfAttack(self)
	st.setDefense(full)

	ds := j.StateAt(o.Target)
	vsDef := sup
	if ds != NoHandle && j.State(ds).Order().Power == o.Power {
		// A unit is never dislodged by its own power.
		vsDef = exact(0)
	}
	if route == Uncertain {
		full.lo = 0
		vsDef.lo = 0
	}

	type scenario struct {
		d  Decision
		by Handle
	}
	var scenarios []scenario
	try := func(attack, resist span) {
		d, by := beats(j, h, attack, resist, ds)
		scenarios = append(scenarios, scenario{d, by})
	}

	switch {
	case ds == NoHandle:
		try(full, exact(0))
	case st.HeadToHead() != NoHandle:
		p := st.HeadToHead()
		if j.State(p).Outcome() == Success {
			j.AddBounced(h, p)
			return failMove(j, h, OutcomeNone, "")
		}
		try(vsDef, defendSpan(j, p))
	default:
		dst := j.State(ds)
		if dst.Order().Type == OrderMove {
			switch dst.Outcome() {
			case Success:
				try(full, exact(0))
			case Failure:
				try(vsDef, exact(1))
			default:
				try(full, exact(0))
				try(vsDef, exact(1))
			}
		} else {
			try(vsDef, dst.supportSpan(j))
		}
	}

	decisions := make([]Decision, len(scenarios))
	for i, s := range scenarios {
		decisions[i] = s.d
	}
	switch anyOf(decisions...) {
	case Success:
		if err := st.SetOutcome(Success); err != nil {
			return err
		}
		if ds != NoHandle {
			dst := j.State(ds)
			switch {
			case dst.Order().Type != OrderMove || dst.Outcome() == Failure:
				return dst.SetDislodged(Yes, h)
			case dst.Outcome() == Uncertain:
				return dst.SetDislodged(Maybe, h)
			}
		}
		return nil
	case Failure:
		by := scenarios[len(scenarios)-1].by
		if by == NoHandle {
			by = ds
		}
		j.AddBounced(h, by)
		return failMove(j, h, OutcomeNone, "")
	}
	return nil
}

// failMove fails a move and, if something already entered its province,
// confirms the dislodgement now that the unit is staying.
func failMove(j Judge, h Handle, outcome Outcome, msg string) error {
	st := j.State(h)
	if err := st.SetOutcome(Failure); err != nil {
		return err
	}
	if outcome != OutcomeNone {
		j.AddResult(h, outcome, msg)
	}
	if st.Dislodged() == Maybe {
		return st.SetDislodged(Yes, NoHandle)
	}
	return nil
}

// incomingPending reports whether a move into the order's province is
// still undecided.
func incomingPending(j Judge, st *OrderState) bool {
	for _, mh := range st.MovesToSource() {
		if j.State(mh).Outcome() == Uncertain {
			return true
		}
	}
	return false
}

func evaluateSupport(j Judge, h Handle) error {
	st := j.State(h)
	if st.Dislodged() == Yes {
		return fail(j, h, OutcomeFailure, "dislodged")
	}
	o := st.Order()
	pending := incomingPending(j, st) || st.Dislodged() == Maybe
	for _, mh := range st.MovesToSource() {
		mo := j.State(mh).Order()
		if mo.Power == o.Power {
			continue
		}
		// A unit cannot cut support aimed at its own province.
		if o.AuxTarget != "" && mo.Location == o.AuxTarget {
			continue
		}
		switch routeDecision(j, mh) {
		case Success:
			return fail(j, h, OutcomeFailure, "cut by "+mo.Describe())
		case Uncertain:
			pending = true
		}
	}
	if pending {
		return nil
	}
	return st.SetOutcome(Success)
}

// evaluateStationary decides holds and convoys: they succeed unless the
// unit is dislodged.
func evaluateStationary(j Judge, h Handle) error {
	st := j.State(h)
	if st.Dislodged() == Yes {
		if st.Order().Type == OrderConvoy {
			return fail(j, h, OutcomeFailure, "convoying fleet dislodged")
		}
		return st.SetOutcome(Failure)
	}
	if incomingPending(j, st) || st.Dislodged() == Maybe {
		return nil
	}
	return st.SetOutcome(Success)
}

func evaluateRetreat(j Judge, h Handle) error {
	st := j.State(h)
	for _, other := range st.MovesToDestination() {
		if j.State(other).RetreatStrength() >= st.RetreatStrength() {
			j.AddBounced(h, other)
			return st.SetOutcome(Failure)
		}
	}
	return st.SetOutcome(Success)
}
