package diplomacy

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// BuildPolicy selects where a power may build and how its build count is
// clamped.
type BuildPolicy int

const (
	// HomeOnly: builds only on owned home centers (the standard rule).
	HomeOnly BuildPolicy = iota
	// AnyOwned: every owned center counts as a home center.
	AnyOwned
	// AnyIfHomeOwned: builds on any owned center, but only while the power
	// still owns at least one home center.
	AnyIfHomeOwned
)

func (p BuildPolicy) String() string {
	switch p {
	case AnyOwned:
		return "any-owned"
	case AnyIfHomeOwned:
		return "any-if-home-owned"
	default:
		return "home-only"
	}
}

// ParseBuildPolicy parses a policy name such as "home-only" or "any_owned".
func ParseBuildPolicy(s string) (BuildPolicy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "", "home-only", "home":
		return HomeOnly, nil
	case "any-owned", "any":
		return AnyOwned, nil
	case "any-if-home-owned":
		return AnyIfHomeOwned, nil
	}
	return HomeOnly, fmt.Errorf("unknown build policy %q", s)
}

// AdjustmentInfo describes one power's position in an adjustment phase.
type AdjustmentInfo struct {
	Power             Power
	Units             int // including dislodged units
	Dislodged         int
	SupplyCenters     int
	HomeSupplyCenters int // owned home centers
	OccupiedHome      int // owned home centers with a unit on them
	OccupiedNonHome   int // owned non-home centers with a unit on them
	EmptyOwnedHome    int
	EmptyOwned        int

	// Amount is the number of units to build (positive) or remove
	// (negative).
	Amount int
}

// ComputeAdjustment returns the adjustment for one power.
func ComputeAdjustment(gs *GameState, m *DiplomacyMap, policy BuildPolicy, power Power) AdjustmentInfo {
	info := AdjustmentInfo{Power: power}
	for _, u := range gs.Units {
		if u.Power == power {
			info.Units++
		}
	}
	for _, d := range gs.Dislodged {
		if d.Unit.Power == power {
			info.Dislodged++
			info.Units++
		}
	}
	for prov, owner := range gs.SupplyCenters {
		if owner != power {
			continue
		}
		info.SupplyCenters++
		home := m.IsHomeCenter(power, prov)
		occupied := gs.UnitAt(prov) != nil
		if home {
			info.HomeSupplyCenters++
		}
		switch {
		case occupied && home:
			info.OccupiedHome++
		case occupied:
			info.OccupiedNonHome++
		case home:
			info.EmptyOwnedHome++
			info.EmptyOwned++
		default:
			info.EmptyOwned++
		}
	}

	delta := info.SupplyCenters - info.Units
	if delta <= 0 {
		info.Amount = delta
		return info
	}
	switch policy {
	case AnyOwned:
		info.Amount = min(delta, info.EmptyOwned)
	case AnyIfHomeOwned:
		if info.HomeSupplyCenters > 0 {
			info.Amount = min(delta, info.EmptyOwned)
		}
	default:
		info.Amount = min(delta, info.EmptyOwnedHome)
	}
	return info
}

// ComputeAdjustments returns the adjustment for each given power.
func ComputeAdjustments(gs *GameState, m *DiplomacyMap, policy BuildPolicy, powers ...Power) map[Power]AdjustmentInfo {
	out := make(map[Power]AdjustmentInfo, len(powers))
	for _, p := range powers {
		out[p] = ComputeAdjustment(gs, m, policy, p)
	}
	return out
}

// powersOf returns the standard powers followed by any other power with
// units or centers on the board.
func powersOf(gs *GameState) []Power {
	powers := AllPowers()
	known := make(map[Power]bool, len(powers))
	for _, p := range powers {
		known[p] = true
	}
	var extra []Power
	add := func(p Power) {
		if p != Neutral && !known[p] {
			known[p] = true
			extra = append(extra, p)
		}
	}
	for _, u := range gs.Units {
		add(u.Power)
	}
	for _, owner := range gs.SupplyCenters {
		add(owner)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(powers, extra...)
}

func anyAdjustment(gs *GameState, m *DiplomacyMap, policy BuildPolicy) bool {
	for _, p := range powersOf(gs) {
		if ComputeAdjustment(gs, m, policy, p).Amount != 0 {
			return true
		}
	}
	return false
}

func (a *Adjudicator) adjudicateAdjustments() error {
	powers := powersOf(a.gs)
	infos := ComputeAdjustments(a.gs, a.m, a.rules.BuildPolicy, powers...)

	byPower := make(map[Power][]Order)
	for _, o := range a.orders {
		if o.Type != OrderBuild && o.Type != OrderRemove {
			a.note(o.Power, fmt.Sprintf("order %s ignored: not an adjustment order", o.Describe()))
			continue
		}
		if _, ok := infos[o.Power]; !ok {
			a.note(o.Power, fmt.Sprintf("order %s ignored: unknown power", o.Describe()))
			continue
		}
		byPower[o.Power] = append(byPower[o.Power], o)
	}

	var accepted []Order
	for _, p := range powers {
		accepted = append(accepted, a.acceptAdjustments(infos[p], byPower[p])...)
	}
	a.resetArena(accepted)

	a.stats.Passes++
	next := a.gs.Clone()
	next.Dislodged = nil
	next.PriorMoves = nil
	for _, h := range a.handles {
		if err := evaluate(a, h); err != nil {
			return err
		}
		o := a.states[h].Order()
		a.AddResult(h, OutcomeSuccess, "")
		switch o.Type {
		case OrderBuild:
			next.Units = append(next.Units, Unit{Type: o.UnitType, Power: o.Power, Province: o.Location, Coast: o.Coast})
		case OrderRemove:
			next.Units = removeUnitAt(next.Units, o.Location)
		}
	}

	for _, p := range powers {
		if next.SupplyCenterCount(p) == 0 && !next.IsEliminated(p) {
			if next.Eliminated == nil {
				next.Eliminated = make(map[Power]bool)
			}
			next.Eliminated[p] = true
			a.note(p, "eliminated")
			a.log.Info().Str("power", string(p)).Msg("Power eliminated")
		}
	}

	a.next = next
	if a.checkVictory(next) {
		return nil
	}
	a.advanceNext(next)
	return nil
}

func removeUnitAt(units []Unit, province string) []Unit {
	for i := range units {
		if units[i].Province == province {
			return append(units[:i], units[i+1:]...)
		}
	}
	return units
}

// acceptAdjustments filters one power's orders down to those that will be
// carried out, then fills any removal shortfall.
func (a *Adjudicator) acceptAdjustments(info AdjustmentInfo, orders []Order) []Order {
	amount := info.Amount
	limit := amount
	if limit < 0 {
		limit = -limit
	}
	seen := make(map[string]bool)
	var out []Order
	for _, o := range orders {
		if seen[o.Location] {
			a.note(o.Power, fmt.Sprintf("duplicate order for %s ignored: %s", o.Location, o.Describe()))
			continue
		}
		seen[o.Location] = true

		var err error
		switch {
		case amount == 0:
			err = &ValidationError{Order: o, Message: "no adjustments available"}
		case o.Type == OrderBuild && amount < 0:
			err = &ValidationError{Order: o, Message: fmt.Sprintf("must remove %d unit(s), not build", limit)}
		case o.Type == OrderRemove && amount > 0:
			err = &ValidationError{Order: o, Message: "cannot remove while builds are available"}
		case len(out) >= limit:
			a.note(o.Power, fmt.Sprintf("order %s ignored: only %d adjustment(s) allowed", o.Describe(), limit))
			continue
		case o.Type == OrderBuild:
			o, err = a.validateBuild(o)
		default:
			o, err = a.validateRemove(o)
		}
		if err != nil {
			a.invalid(o, err)
			continue
		}
		out = append(out, o)
	}

	switch {
	case amount < 0 && len(out) < limit:
		out = append(out, a.autoRemove(info.Power, limit-len(out), out)...)
	case amount > 0 && len(out) < amount:
		a.note(info.Power, fmt.Sprintf("%d build(s) unused", amount-len(out)))
	}
	return out
}

func (a *Adjudicator) validateBuild(o Order) (Order, error) {
	prov := a.m.Provinces[o.Location]
	switch {
	case prov == nil:
		return o, &ValidationError{Order: o, Message: "province does not exist"}
	case !prov.IsSupplyCenter:
		return o, &ValidationError{Order: o, Message: "not a supply center"}
	case a.gs.SupplyCenters[o.Location] != o.Power:
		return o, &ValidationError{Order: o, Message: "supply center not currently owned"}
	case a.rules.BuildPolicy == HomeOnly && !a.m.IsHomeCenter(o.Power, o.Location):
		return o, &ValidationError{Order: o, Message: "not a home supply center"}
	case a.gs.UnitAt(o.Location) != nil:
		return o, &ValidationError{Order: o, Message: "province is occupied"}
	case o.UnitType == Fleet && prov.Type == Land:
		return o, &ValidationError{Order: o, Message: "cannot build fleet in inland province"}
	case o.UnitType == Army && prov.Type == Sea:
		return o, &ValidationError{Order: o, Message: "cannot build army at sea"}
	}

	if o.UnitType == Army {
		if o.Coast != NoCoast {
			if a.validation.Strict {
				return o, &ValidationError{Order: o, Message: "armies do not take a coast", Warning: true}
			}
			o.Coast = NoCoast
		}
		return o, nil
	}
	if len(prov.Coasts) == 0 {
		if o.Coast != NoCoast {
			return o, &ValidationError{Order: o, Message: "province has no separate coasts"}
		}
		return o, nil
	}
	for _, c := range prov.Coasts {
		if c == o.Coast {
			return o, nil
		}
	}
	return o, &ValidationError{Order: o, Message: "must specify coast for fleet build"}
}

func (a *Adjudicator) validateRemove(o Order) (Order, error) {
	unit := a.gs.UnitAt(o.Location)
	if unit == nil {
		return o, &ValidationError{Order: o, Message: "no unit at location"}
	}
	if unit.Power != o.Power {
		return o, &ValidationError{Order: o, Message: "unit belongs to another power"}
	}
	if unit.Type != o.UnitType {
		if a.validation.Strict {
			return o, &ValidationError{Order: o, Message: fmt.Sprintf("unit is %s, not %s", unit.Type, o.UnitType), Warning: true}
		}
		o.UnitType = unit.Type
	}
	o.Coast = unit.Coast
	return o, nil
}

// autoRemove picks count units of power to remove when too few removals
// were ordered: the units farthest from the nearest eligible supply
// center go first, fleets before armies, then by province name.
func (a *Adjudicator) autoRemove(power Power, count int, ordered []Order) []Order {
	taken := make(map[string]bool, len(ordered))
	for _, o := range ordered {
		taken[o.Location] = true
	}
	targets := a.removalTargets(power)

	type candidate struct {
		unit Unit
		dist int
		name string
	}
	var cands []candidate
	for _, u := range a.gs.UnitsOf(power) {
		if taken[u.Province] {
			continue
		}
		d := a.m.Distance(u.Province, targets)
		if d < 0 {
			d = math.MaxInt32
		}
		cands = append(cands, candidate{u, d, a.m.DisplayName(u.Province)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		ci, cj := cands[i], cands[j]
		if ci.dist != cj.dist {
			return ci.dist > cj.dist
		}
		if ci.unit.Type != cj.unit.Type {
			return ci.unit.Type == Fleet
		}
		return ci.name < cj.name
	})

	if len(cands) < count {
		a.note(power, fmt.Sprintf("only %d unit(s) left to remove, %d required", len(cands), count))
		count = len(cands)
	}
	out := make([]Order, 0, count)
	for _, c := range cands[:count] {
		rm := NewRemove(c.unit)
		a.substitute(nil, rm, "civil disorder")
		out = append(out, rm)
	}
	return out
}

// removalTargets returns the supply centers distances are measured to:
// home centers under the standard rule, owned centers otherwise, falling
// back to home centers when nothing is owned.
func (a *Adjudicator) removalTargets(power Power) map[string]bool {
	targets := make(map[string]bool)
	if a.rules.BuildPolicy != HomeOnly {
		for prov, owner := range a.gs.SupplyCenters {
			if owner == power {
				targets[prov] = true
			}
		}
	}
	if len(targets) == 0 {
		for _, prov := range a.m.HomeCenters(power) {
			targets[prov] = true
		}
	}
	return targets
}
