package diplomacy

import "fmt"

// Handle addresses an OrderState inside an adjudicator's arena.
type Handle int

// NoHandle marks an absent reference.
const NoHandle Handle = -1

// unbounded is the initial upper bound for every strength.
const unbounded = 1 << 16

// OrderState is the per-turn working record for one order. References to
// other orders are handles into the same arena.
type OrderState struct {
	order  Order
	handle Handle

	attack     span
	selfAttack span
	defense    span
	retreat    int

	outcome   Decision
	dislodged Decision
	dislodger Handle

	legal           bool
	verified        bool
	circular        bool
	convoyDisrupted bool

	headToHead         Handle
	supports           []Handle
	selfSupports       []Handle
	movesToSource      []Handle
	movesToDestination []Handle
}

// NewOrderState returns a fresh record: outcome Uncertain, not dislodged,
// unverified, and all strength bounds wide open.
func NewOrderState(h Handle, o Order) OrderState {
	open := span{0, unbounded}
	return OrderState{
		order:      o,
		handle:     h,
		attack:     open,
		selfAttack: open,
		defense:    open,
		dislodged:  No,
		dislodger:  NoHandle,
		legal:      true,
		headToHead: NoHandle,
	}
}

func (os *OrderState) Order() Order        { return os.order }
func (os *OrderState) Handle() Handle      { return os.handle }
func (os *OrderState) Outcome() Decision   { return os.outcome }
func (os *OrderState) Dislodged() Decision { return os.dislodged }
func (os *OrderState) Dislodger() Handle   { return os.dislodger }
func (os *OrderState) Verified() bool      { return os.verified }
func (os *OrderState) Legal() bool         { return os.legal }
func (os *OrderState) Circular() bool      { return os.circular }
func (os *OrderState) HeadToHead() Handle  { return os.headToHead }
func (os *OrderState) RetreatStrength() int {
	return os.retreat
}

// ConvoyDisrupted reports whether the move was failed by the Szykman rule.
func (os *OrderState) ConvoyDisrupted() bool { return os.convoyDisrupted }

func (os *OrderState) Supports() []Handle           { return os.supports }
func (os *OrderState) SelfSupports() []Handle       { return os.selfSupports }
func (os *OrderState) MovesToSource() []Handle      { return os.movesToSource }
func (os *OrderState) MovesToDestination() []Handle { return os.movesToDestination }

// AttackMax and AttackCertain bound the attack strength excluding supports
// from the defender's power.
func (os *OrderState) AttackMax() int     { return os.attack.hi }
func (os *OrderState) AttackCertain() int { return os.attack.lo }

// SelfAttackMax and SelfAttackCertain bound the strength contributed by the
// defender's own power.
func (os *OrderState) SelfAttackMax() int     { return os.selfAttack.hi }
func (os *OrderState) SelfAttackCertain() int { return os.selfAttack.lo }

func (os *OrderState) DefenseMax() int     { return os.defense.hi }
func (os *OrderState) DefenseCertain() int { return os.defense.lo }

// SetOutcome records a decided outcome. An outcome may be written once.
func (os *OrderState) SetOutcome(d Decision) error {
	if os.outcome != Uncertain {
		return fmt.Errorf("%s: %w", os.order.Describe(), ErrOutcomeAlreadySet)
	}
	os.outcome = d
	return nil
}

// SetVerified marks the order verified. Clearing a set flag is an error.
func (os *OrderState) SetVerified(v bool) error {
	if os.verified && !v {
		return fmt.Errorf("%s: %w", os.order.Describe(), ErrVerifiedRegression)
	}
	os.verified = v
	return nil
}

// SetLegal records whether the unit's own order passed validation. A
// substitute for a rejected order is marked false.
func (os *OrderState) SetLegal(v bool) { os.legal = v }

// SetDislodged advances dislodgement along No -> Maybe -> Yes and records
// the dislodging order.
func (os *OrderState) SetDislodged(d Decision, by Handle) error {
	if dislodgeRank(d) < dislodgeRank(os.dislodged) {
		return fmt.Errorf("%s: %s -> %s: %w", os.order.Describe(), os.dislodged, d, ErrDislodgeRegression)
	}
	os.dislodged = d
	if by != NoHandle {
		os.dislodger = by
	}
	return nil
}

func dislodgeRank(d Decision) int {
	switch d {
	case No:
		return 0
	case Maybe:
		return 1
	default:
		return 2
	}
}

// setAttack narrows the attack bounds; bounds never widen.
func (os *OrderState) setAttack(s span) { os.attack = narrow(os.attack, s) }

func (os *OrderState) setSelfAttack(s span) { os.selfAttack = narrow(os.selfAttack, s) }

func (os *OrderState) setDefense(s span) { os.defense = narrow(os.defense, s) }

func narrow(cur, s span) span {
	if s.lo > cur.lo {
		cur.lo = s.lo
	}
	if s.hi < cur.hi {
		cur.hi = s.hi
	}
	if cur.lo > cur.hi {
		cur.lo = cur.hi
	}
	return cur
}

// Support returns the order's own strength plus its supports. With
// certain set, only supports that have succeeded count; otherwise every
// support not yet failed counts. Never negative.
func (os *OrderState) Support(j Judge, certain bool) int {
	n := 1 + os.modifier(j.Map()) + countSupports(j, os.supports, certain)
	if n < 0 {
		return 0
	}
	return n
}

// SelfSupport is Support counted over supports from the defender's power,
// with no base strength.
func (os *OrderState) SelfSupport(j Judge, certain bool) int {
	return countSupports(j, os.selfSupports, certain)
}

func (os *OrderState) modifier(m *DiplomacyMap) int {
	if os.order.Type != OrderMove {
		return 0
	}
	return m.MoveModifier(os.order.Location, os.order.Target)
}

func countSupports(j Judge, hs []Handle, certain bool) int {
	n := 0
	for _, h := range hs {
		switch j.State(h).Outcome() {
		case Success:
			n++
		case Uncertain:
			if !certain {
				n++
			}
		}
	}
	return n
}

// supportSpan is the [certain, max] range of Support.
func (os *OrderState) supportSpan(j Judge) span {
	return span{os.Support(j, true), os.Support(j, false)}
}

func (os *OrderState) selfSupportSpan(j Judge) span {
	return span{os.SelfSupport(j, true), os.SelfSupport(j, false)}
}
