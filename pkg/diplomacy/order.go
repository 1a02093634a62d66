package diplomacy

import "fmt"

// OrderType represents the type of order a unit can be given.
type OrderType int

const (
	OrderHold    OrderType = iota // Unit holds position
	OrderMove                     // Unit moves to adjacent province, or by convoy
	OrderSupport                  // Unit supports another unit's hold or move
	OrderConvoy                   // Fleet convoys army across sea
	OrderRetreat                  // Dislodged unit retreats
	OrderDisband                  // Dislodged unit disbands
	OrderBuild                    // New unit is built on a home center
	OrderRemove                   // Unit is removed during adjustment
)

func (o OrderType) String() string {
	switch o {
	case OrderHold:
		return "hold"
	case OrderMove:
		return "move"
	case OrderSupport:
		return "support"
	case OrderConvoy:
		return "convoy"
	case OrderRetreat:
		return "retreat"
	case OrderDisband:
		return "disband"
	case OrderBuild:
		return "build"
	case OrderRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Phase returns the phase in which orders of this type are legal.
func (o OrderType) Phase() PhaseType {
	switch o {
	case OrderRetreat, OrderDisband:
		return PhaseRetreat
	case OrderBuild, OrderRemove:
		return PhaseBuild
	default:
		return PhaseMovement
	}
}

// Order represents a single order issued to a unit. The fields used
// depend on Type.
type Order struct {
	// Unit being ordered (or built)
	UnitType UnitType
	Power    Power
	Location string
	Coast    Coast // Coast of the unit being ordered (for fleets on split coasts)

	// Order details
	Type OrderType

	// Target province (for move and retreat)
	Target      string
	TargetCoast Coast // Coast of target (for fleet moves to split-coast provinces)

	// ViaConvoy marks a move that must travel by convoy even when the
	// destination is adjacent.
	ViaConvoy bool

	// Aux fields for support and convoy:
	// For support: the province the supported unit is in
	// For convoy: the province the convoyed army is in
	AuxLoc string
	// For support: the destination the supported unit is moving to (empty if support-hold)
	// For convoy: the destination the convoyed army is moving to
	AuxTarget string
	// For support: the type of the supported unit
	AuxUnitType UnitType
}

// Source returns the ordered unit's location.
func (o Order) Source() Location {
	return Location{Province: o.Location, Coast: o.Coast}
}

// Dest returns the move or retreat destination.
func (o Order) Dest() Location {
	return Location{Province: o.Target, Coast: o.TargetCoast}
}

// NewHold returns a hold order for u.
func NewHold(u Unit) Order {
	return Order{UnitType: u.Type, Power: u.Power, Location: u.Province, Coast: u.Coast, Type: OrderHold}
}

// NewDisband returns a disband order for a dislodged unit.
func NewDisband(u Unit) Order {
	return Order{UnitType: u.Type, Power: u.Power, Location: u.Province, Coast: u.Coast, Type: OrderDisband}
}

// NewRemove returns an adjustment-phase removal of u.
func NewRemove(u Unit) Order {
	return Order{UnitType: u.Type, Power: u.Power, Location: u.Province, Coast: u.Coast, Type: OrderRemove}
}

// Describe returns a human-readable description of the order.
func (o Order) Describe() string {
	unitStr := o.UnitType.Abbrev()
	loc := o.Source().String()
	target := o.Dest().String()

	switch o.Type {
	case OrderHold:
		return fmt.Sprintf("%s %s Hold", unitStr, loc)
	case OrderMove:
		if o.ViaConvoy {
			return fmt.Sprintf("%s %s -> %s via Convoy", unitStr, loc, target)
		}
		return fmt.Sprintf("%s %s -> %s", unitStr, loc, target)
	case OrderSupport:
		auxUnit := o.AuxUnitType.Abbrev()
		if o.AuxTarget == "" {
			return fmt.Sprintf("%s %s S %s %s Hold", unitStr, loc, auxUnit, o.AuxLoc)
		}
		return fmt.Sprintf("%s %s S %s %s -> %s", unitStr, loc, auxUnit, o.AuxLoc, o.AuxTarget)
	case OrderConvoy:
		return fmt.Sprintf("%s %s C A %s -> %s", unitStr, loc, o.AuxLoc, o.AuxTarget)
	case OrderRetreat:
		return fmt.Sprintf("%s %s R %s", unitStr, loc, target)
	case OrderDisband:
		return fmt.Sprintf("%s %s Disband", unitStr, loc)
	case OrderBuild:
		return fmt.Sprintf("Build %s %s", unitStr, loc)
	case OrderRemove:
		return fmt.Sprintf("Remove %s %s", unitStr, loc)
	default:
		return fmt.Sprintf("%s %s ???", unitStr, loc)
	}
}

func (o Order) String() string {
	return fmt.Sprintf("%s: %s", o.Power, o.Describe())
}

// convoyed reports whether a move must travel by convoy: explicitly
// requested, or an army moving to a province it does not border.
func convoyed(m *DiplomacyMap, o Order) bool {
	if o.Type != OrderMove || o.UnitType != Army {
		return false
	}
	if o.ViaConvoy {
		return true
	}
	return !m.Adjacent(o.Location, NoCoast, o.Target, NoCoast, false)
}

// supportMatches reports whether a support order describes what the
// supported unit was actually ordered to do.
func supportMatches(sup, target Order) bool {
	if sup.AuxLoc != target.Location {
		return false
	}
	if sup.AuxTarget == "" {
		return target.Type != OrderMove
	}
	return target.Type == OrderMove && target.Target == sup.AuxTarget
}

// convoyMatches reports whether a convoy order describes the army's move.
func convoyMatches(m *DiplomacyMap, cv, target Order) bool {
	return target.Type == OrderMove &&
		target.UnitType == Army &&
		target.Location == cv.AuxLoc &&
		target.Target == cv.AuxTarget &&
		convoyed(m, target)
}
