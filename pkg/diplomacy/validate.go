package diplomacy

import (
	"fmt"
	"slices"
)

// ValidationError describes why an order is invalid. A warning is a
// problem the adjudicator can correct on its own; it only rejects the
// order under strict validation.
type ValidationError struct {
	Order   Order
	Message string
	Warning bool
}

func (e *ValidationError) Error() string {
	if e.Warning {
		return fmt.Sprintf("questionable order %s: %s", e.Order.Describe(), e.Message)
	}
	return fmt.Sprintf("invalid order %s: %s", e.Order.Describe(), e.Message)
}

// ValidationOptions controls how forgiving order validation is.
type ValidationOptions struct {
	// Strict rejects orders that would otherwise only draw a warning,
	// such as a wrong unit type or a missing coast on the ordered unit.
	Strict bool
}

// ValidateOrder checks whether a movement order is legal given the current
// game state and map, under strict validation.
// Returns nil if valid, or a ValidationError describing the problem.
func ValidateOrder(order Order, gs *GameState, m *DiplomacyMap) error {
	_, err := NormalizeOrder(order, gs, m, ValidationOptions{Strict: true})
	return err
}

// NormalizeOrder validates a movement order and returns it with correctable
// mistakes fixed. Under lenient validation a mismatched unit type or
// missing unit coast is taken from the board.
func NormalizeOrder(order Order, gs *GameState, m *DiplomacyMap, opts ValidationOptions) (Order, error) {
	if order.Type.Phase() != PhaseMovement {
		return order, &ValidationError{Order: order, Message: order.Type.String() + " is not a movement order"}
	}
	unit := gs.UnitAt(order.Location)
	if unit == nil {
		return order, &ValidationError{Order: order, Message: "no unit at " + order.Location}
	}
	if unit.Power != order.Power {
		return order, &ValidationError{Order: order, Message: fmt.Sprintf("unit belongs to %s, not %s", unit.Power, order.Power)}
	}
	if unit.Type != order.UnitType {
		if opts.Strict {
			return order, &ValidationError{Order: order, Message: fmt.Sprintf("unit is %s, not %s", unit.Type, order.UnitType), Warning: true}
		}
		order.UnitType = unit.Type
	}
	if order.Coast != unit.Coast {
		if order.Coast != NoCoast || opts.Strict {
			return order, &ValidationError{Order: order, Message: fmt.Sprintf("unit is on %s", unit.Loc()), Warning: order.Coast == NoCoast}
		}
		order.Coast = unit.Coast
	}
	if order.Type == OrderSupport {
		if aux := gs.UnitAt(order.AuxLoc); aux != nil && aux.Type != order.AuxUnitType {
			if opts.Strict {
				return order, &ValidationError{Order: order, Message: fmt.Sprintf("supported unit is %s, not %s", aux.Type, order.AuxUnitType), Warning: true}
			}
			order.AuxUnitType = aux.Type
		}
	}

	var err error
	switch order.Type {
	case OrderHold:
	case OrderMove:
		err = validateMove(order, gs, m)
	case OrderSupport:
		err = validateSupport(order, gs, m)
	case OrderConvoy:
		err = validateConvoy(order, gs, m)
	default:
		err = &ValidationError{Order: order, Message: "unknown order type"}
	}
	if err != nil {
		return order, err
	}
	if order.Type == OrderMove && order.UnitType == Fleet && order.TargetCoast == NoCoast && m.HasCoasts(order.Target) {
		if coasts := m.FleetCoastsTo(order.Location, order.Coast, order.Target); len(coasts) == 1 {
			order.TargetCoast = coasts[0]
		}
	}
	return order, nil
}

func invalid(order Order, format string, args ...any) *ValidationError {
	return &ValidationError{Order: order, Message: fmt.Sprintf(format, args...)}
}

func validateMove(order Order, gs *GameState, m *DiplomacyMap) error {
	isFleet := order.UnitType == Fleet
	target := m.Provinces[order.Target]
	switch {
	case target == nil:
		return invalid(order, "target province does not exist: %s", order.Target)
	case order.Target == order.Location:
		return invalid(order, "cannot move to own province")
	case isFleet && target.Type == Land:
		return invalid(order, "fleet cannot move to inland province")
	case !isFleet && target.Type == Sea:
		return invalid(order, "army cannot move to sea province")
	case isFleet && order.ViaConvoy:
		return invalid(order, "fleets cannot be convoyed")
	}

	if !order.ViaConvoy && m.Adjacent(order.Location, order.Coast, order.Target, order.TargetCoast, isFleet) {
		if isFleet && m.HasCoasts(order.Target) {
			return validateFleetCoast(order, m)
		}
		return nil
	}
	if !isFleet && canBeConvoyed(order.Location, order.Target, gs, m) {
		return nil
	}
	return invalid(order, "cannot move from %s to %s", order.Location, order.Target)
}

// validateFleetCoast checks the coast named for a fleet entering a
// split-coast province. Leaving it out is fine when only one is reachable.
func validateFleetCoast(order Order, m *DiplomacyMap) error {
	coasts := m.FleetCoastsTo(order.Location, order.Coast, order.Target)
	switch {
	case order.TargetCoast != NoCoast && slices.Contains(coasts, order.TargetCoast):
		return nil
	case order.TargetCoast != NoCoast:
		return invalid(order, "fleet cannot reach %s from %s", order.Dest(), order.Location)
	case len(coasts) == 0:
		return invalid(order, "fleet cannot reach any coast of %s", order.Target)
	case len(coasts) > 1:
		return invalid(order, "must specify coast for %s", order.Target)
	}
	return nil
}

func validateSupport(order Order, gs *GameState, m *DiplomacyMap) error {
	if order.AuxLoc == order.Location {
		return invalid(order, "unit cannot support itself")
	}
	supported := gs.UnitAt(order.AuxLoc)
	if supported == nil {
		return invalid(order, "no unit at %s to support", order.AuxLoc)
	}
	isFleet := order.UnitType == Fleet

	if order.AuxTarget == "" {
		if !m.Adjacent(order.Location, order.Coast, order.AuxLoc, NoCoast, isFleet) {
			return invalid(order, "cannot support hold at %s from %s", order.AuxLoc, order.Location)
		}
		return nil
	}

	// The supporter only has to reach the destination, not the supported unit.
	if !m.Adjacent(order.Location, order.Coast, order.AuxTarget, NoCoast, isFleet) {
		return invalid(order, "cannot support move to %s from %s", order.AuxTarget, order.Location)
	}
	if m.Adjacent(order.AuxLoc, supported.Coast, order.AuxTarget, NoCoast, supported.Type == Fleet) {
		return nil
	}
	if supported.Type == Army && canBeConvoyed(order.AuxLoc, order.AuxTarget, gs, m) {
		return nil
	}
	return invalid(order, "supported unit at %s cannot reach %s", order.AuxLoc, order.AuxTarget)
}

func validateConvoy(order Order, gs *GameState, m *DiplomacyMap) error {
	if order.UnitType != Fleet {
		return invalid(order, "only fleets can convoy")
	}
	if prov := m.Provinces[order.Location]; prov == nil || prov.Type != Sea {
		return invalid(order, "fleet must be in a sea province to convoy")
	}
	army := gs.UnitAt(order.AuxLoc)
	switch {
	case army == nil:
		return invalid(order, "no unit at %s to convoy", order.AuxLoc)
	case army.Type != Army:
		return invalid(order, "only armies can be convoyed")
	}
	if dst := m.Provinces[order.AuxTarget]; dst == nil || dst.Type == Sea {
		return invalid(order, "convoy destination must be a coastal province")
	}
	return nil
}

// canBeConvoyed reports whether fleets on the board could carry an army
// from src to dst, ignoring what they were ordered to do.
func canBeConvoyed(src, dst string, gs *GameState, m *DiplomacyMap) bool {
	return convoyChain(src, dst, m, func(sea string) bool {
		u := gs.UnitAt(sea)
		return u != nil && u.Type == Fleet
	}) != nil
}

// convoyChain searches breadth-first through the seas accepted by usable
// for a path from a sea touching src to a sea touching dst. It returns
// the seas in order, or nil.
func convoyChain(src, dst string, m *DiplomacyMap, usable func(sea string) bool) []string {
	isSea := func(id string) bool {
		p := m.Provinces[id]
		return p != nil && p.Type == Sea
	}
	if m.Provinces[src] == nil || m.Provinces[dst] == nil || isSea(src) || isSea(dst) {
		return nil
	}

	parent := make(map[string]string)
	var queue []string
	visit := func(sea, from string) {
		if _, seen := parent[sea]; !seen && isSea(sea) && usable(sea) {
			parent[sea] = from
			queue = append(queue, sea)
		}
	}
	for adj := range m.Borders(src, NoCoast, true) {
		visit(adj.To, "")
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if m.Adjacent(current, NoCoast, dst, NoCoast, true) {
			var chain []string
			for p := current; p != ""; p = parent[p] {
				chain = append(chain, p)
			}
			slices.Reverse(chain)
			return chain
		}
		for adj := range m.Borders(current, NoCoast, true) {
			visit(adj.To, current)
		}
	}
	return nil
}
