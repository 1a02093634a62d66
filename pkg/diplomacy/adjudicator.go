package diplomacy

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSzykmanRounds caps how many times the Szykman rule is applied
// before a paradox is reported as unresolved.
const DefaultSzykmanRounds = 10

// RuleOptions selects rule variants.
type RuleOptions struct {
	BuildPolicy   BuildPolicy
	SzykmanRounds int
}

// DefaultRules returns the standard rule set.
func DefaultRules() RuleOptions {
	return RuleOptions{BuildPolicy: HomeOnly, SzykmanRounds: DefaultSzykmanRounds}
}

// Option configures an Adjudicator.
type Option func(*Adjudicator)

// WithRules selects the build policy and the Szykman round limit. A limit
// of zero or less means DefaultSzykmanRounds.
func WithRules(r RuleOptions) Option {
	return func(a *Adjudicator) {
		if r.SzykmanRounds <= 0 {
			r.SzykmanRounds = DefaultSzykmanRounds
		}
		a.rules = r
	}
}

// WithValidation sets how strictly orders are checked before adjudication.
func WithValidation(v ValidationOptions) Option {
	return func(a *Adjudicator) { a.validation = v }
}

// WithVictory replaces the solo victory check. A nil condition never ends
// the game.
func WithVictory(v VictoryCondition) Option {
	return func(a *Adjudicator) { a.victory = v }
}

// WithClock sets the time source for the timestamp result.
func WithClock(now func() time.Time) Option {
	return func(a *Adjudicator) { a.now = now }
}

// WithLogger sets the logger for paradox, skipped-phase and victory events.
// The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adjudicator) { a.log = l }
}

// Stats summarizes the work done by one Process call.
type Stats struct {
	Passes         int  // evaluation passes
	CircularBreaks int  // at most one per phase
	SzykmanRounds  int  // never above RuleOptions.SzykmanRounds
	Unresolved     bool // a paradox survived both breakers
	Substituted    int
	Dislodged      int
}

// Adjudicator resolves one phase of a turn. It reads the given state and
// orders and produces a result log and a new next-turn state; the input
// state is never modified. An Adjudicator is used once.
type Adjudicator struct {
	m      *DiplomacyMap
	gs     *GameState
	orders []Order

	rules      RuleOptions
	validation ValidationOptions
	victory    VictoryCondition
	now        func() time.Time
	log        zerolog.Logger

	states  []OrderState
	handles []Handle
	index   map[string]Handle

	results     ResultLog
	substituted []Substitution
	next        *GameState
	stats       Stats
	processed   bool
}

// New returns an Adjudicator for the phase described by gs.
func New(m *DiplomacyMap, gs *GameState, orders []Order, opts ...Option) *Adjudicator {
	a := &Adjudicator{
		m:       m,
		gs:      gs,
		orders:  orders,
		rules:   DefaultRules(),
		victory: SoloVictory{},
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process adjudicates the phase. It may be called once.
func (a *Adjudicator) Process() error {
	if a.processed {
		return ErrAlreadyProcessed
	}
	a.processed = true
	a.log = a.log.With().Int("year", a.gs.Year).Str("season", string(a.gs.Season)).Str("phase", string(a.gs.Phase)).Logger()
	a.results.add(Result{Kind: ResultTimestamp, At: a.now()})

	var err error
	switch a.gs.Phase {
	case PhaseMovement:
		err = a.adjudicateMovement()
	case PhaseRetreat:
		err = a.adjudicateRetreats()
	case PhaseBuild:
		err = a.adjudicateAdjustments()
	default:
		err = fmt.Errorf("%q: %w", a.gs.Phase, ErrUnknownPhase)
	}
	if err != nil {
		return fmt.Errorf("adjudicate %s: %w", a.gs.PhaseName(), err)
	}
	a.log.Debug().Int("results", a.results.Len()).Int("passes", a.stats.Passes).Msg("Phase adjudicated")
	return nil
}

// Results returns the result log.
func (a *Adjudicator) Results() *ResultLog { return &a.results }

// NextState returns the state produced by Process, or nil before it.
func (a *Adjudicator) NextState() *GameState { return a.next }

// Substitution records an order the adjudicator replaced or synthesized.
type Substitution struct {
	Original    *Order `json:",omitempty"` // rejected order; nil when the unit had none
	Replacement Order
	Reason      string
	Illegal     bool // Original failed validation
}

// Substituted returns the substitutions made during adjudication, in the
// order they were made.
func (a *Adjudicator) Substituted() []Substitution {
	return append([]Substitution(nil), a.substituted...)
}

// Stats returns the counters gathered by Process.
func (a *Adjudicator) Stats() Stats { return a.stats }

// Judge implementation.

// Map returns the board the phase is played on.
func (a *Adjudicator) Map() *DiplomacyMap { return a.m }

// Turn returns the input state. It is never modified.
func (a *Adjudicator) Turn() *GameState { return a.gs }

// Handles lists every order state in arena order.
func (a *Adjudicator) Handles() []Handle { return a.handles }

// State returns the order state behind h.
func (a *Adjudicator) State(h Handle) *OrderState { return &a.states[h] }

// StateAt returns the handle of the order given to the unit in province,
// or NoHandle.
func (a *Adjudicator) StateAt(province string) Handle {
	if h, ok := a.index[province]; ok {
		return h
	}
	return NoHandle
}

// IsSelfSupportedMove reports whether h is a move supported by units of the
// power it attacks.
func (a *Adjudicator) IsSelfSupportedMove(h Handle) bool {
	st := &a.states[h]
	return st.Order().Type == OrderMove && len(st.SelfSupports()) > 0
}

// AddResult logs an outcome for the order at h.
func (a *Adjudicator) AddResult(h Handle, outcome Outcome, msg string) {
	o := a.states[h].Order()
	a.results.add(Result{Kind: ResultOrder, Power: o.Power, Order: &o, Outcome: outcome, Message: msg})
}

// AddBounced logs that h bounced, naming the order it bounced against
// when there is one.
func (a *Adjudicator) AddBounced(h, by Handle) {
	msg := ""
	if by != NoHandle {
		msg = "against " + a.states[by].order.Describe()
	}
	a.AddResult(h, OutcomeBounced, msg)
}

// AddDislodged logs that the unit ordered by h was dislodged.
func (a *Adjudicator) AddDislodged(h Handle) {
	st := &a.states[h]
	msg := ""
	if st.Dislodger() != NoHandle {
		msg = "by " + a.states[st.Dislodger()].order.Describe()
	}
	a.AddResult(h, OutcomeDislodged, msg)
}

// arena setup

func (a *Adjudicator) resetArena(orders []Order) {
	a.states = make([]OrderState, len(orders))
	a.handles = make([]Handle, len(orders))
	a.index = make(map[string]Handle, len(orders))
	for i, o := range orders {
		h := Handle(i)
		a.states[i] = NewOrderState(h, o)
		a.handles[i] = h
		a.index[o.Location] = h
	}
}

// markRejected flags the orders standing in for rejected ones, keyed by
// the unit's province.
func (a *Adjudicator) markRejected(provinces []string) {
	for _, p := range provinces {
		a.states[a.index[p]].SetLegal(false)
	}
}

func (a *Adjudicator) note(power Power, msg string) {
	a.results.add(Result{Kind: ResultGeneric, Power: power, Message: msg})
}

func (a *Adjudicator) invalid(o Order, err error) {
	oc := o
	a.results.add(Result{Kind: ResultOrder, Power: o.Power, Order: &oc, Outcome: OutcomeValidationFailure, Message: err.Error()})
}

func (a *Adjudicator) substitute(orig *Order, repl Order, reason string) {
	sub := Substitution{Replacement: repl, Reason: reason, Illegal: orig != nil}
	r := Result{Kind: ResultSubstituted, Power: repl.Power, Replacement: &repl, Message: reason}
	if orig != nil {
		oc := *orig
		sub.Original = &oc
		r.Order = &oc
	}
	a.substituted = append(a.substituted, sub)
	a.stats.Substituted++
	a.results.add(r)
}

// collectOrders keeps the last order given for each province that passes
// filter, logging the orders it discards.
func (a *Adjudicator) collectOrders(filter func(Order) string) map[string]Order {
	byLoc := make(map[string]Order, len(a.orders))
	for _, o := range a.orders {
		if reason := filter(o); reason != "" {
			a.note(o.Power, fmt.Sprintf("order %s ignored: %s", o.Describe(), reason))
			continue
		}
		if prev, ok := byLoc[o.Location]; ok {
			a.note(o.Power, fmt.Sprintf("duplicate order for %s: %s replaced by %s", o.Location, prev.Describe(), o.Describe()))
		}
		byLoc[o.Location] = o
	}
	return byLoc
}

// verifyAll runs verification to a fixed point. Each pass must verify at
// least one order; a pass that does not leaves the rest unverifiable.
func (a *Adjudicator) verifyAll() error {
	for pass := 0; pass <= len(a.states); pass++ {
		pending := 0
		for _, h := range a.handles {
			ok, err := verify(a, h)
			if err != nil {
				return err
			}
			if !ok {
				pending++
			}
		}
		if pending == 0 {
			return nil
		}
	}
	for _, h := range a.handles {
		if !a.states[h].Verified() {
			return fmt.Errorf("%s: %w", a.states[h].order.Describe(), ErrUnverified)
		}
	}
	return nil
}

// checkVictory applies the victory condition to next. It reports whether
// the game ended.
func (a *Adjudicator) checkVictory(next *GameState) bool {
	if a.victory == nil {
		return false
	}
	over, winners := a.victory.Check(next)
	if !over {
		return false
	}
	next.Ended = true
	next.Resolved = true
	next.Winners = winners
	if len(winners) == 0 {
		a.note(Neutral, "game ends in a draw")
	} else {
		for _, w := range winners {
			a.note(w, "wins the game")
		}
	}
	a.log.Info().Interface("winners", winners).Msg("Victory condition met")
	return true
}

// advanceNext moves next forward past phases with nothing to do: a
// retreat phase with no dislodged units (or none that can retreat) and an
// adjustment phase where no power adjusts.
func (a *Adjudicator) advanceNext(next *GameState) {
	advance(next)
	for {
		switch next.Phase {
		case PhaseRetreat:
			if len(next.Dislodged) == 0 {
				a.log.Debug().Msg("Skipping retreat phase: no dislodged units")
				advance(next)
				continue
			}
			a.destroyUnretreatable(next)
			if len(next.Dislodged) == 0 {
				a.note(Neutral, "all dislodged units destroyed; retreat phase skipped")
				advance(next)
				continue
			}
		case PhaseBuild:
			if !anyAdjustment(next, a.m, a.rules.BuildPolicy) {
				a.log.Debug().Msg("Skipping adjustment phase: no adjustments")
				a.note(Neutral, "no adjustments; adjustment phase skipped")
				next.Dislodged = nil
				advance(next)
				continue
			}
		}
		return
	}
}

// destroyUnretreatable removes dislodged units with no legal retreat.
func (a *Adjudicator) destroyUnretreatable(next *GameState) {
	rc := NewRetreatChecker(next, a.m, next.PriorMoves)
	var kept []DislodgedUnit
	for _, d := range next.Dislodged {
		if rc.HasAnyRetreat(d.Unit.Loc()) {
			kept = append(kept, d)
			continue
		}
		o := NewDisband(d.Unit)
		a.results.add(Result{Kind: ResultOrder, Power: d.Unit.Power, Order: &o, Outcome: OutcomeSuccess, Message: "destroyed: no retreat available"})
	}
	next.Dislodged = kept
}
