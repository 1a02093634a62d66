package diplomacy

import (
	"fmt"
	"strings"
)

// Power represents one of the seven great powers.
type Power string

const (
	Austria Power = "austria"
	England Power = "england"
	France  Power = "france"
	Germany Power = "germany"
	Italy   Power = "italy"
	Russia  Power = "russia"
	Turkey  Power = "turkey"
	Neutral Power = ""
)

// AllPowers returns the seven great powers in standard order.
func AllPowers() []Power {
	return []Power{Austria, England, France, Germany, Italy, Russia, Turkey}
}

// UnitType represents the type of a military unit.
type UnitType int

const (
	Army UnitType = iota
	Fleet
)

func (u UnitType) String() string {
	if u == Army {
		return "army"
	}
	return "fleet"
}

// Unit represents a single military unit on the board.
type Unit struct {
	Type     UnitType
	Power    Power
	Province string
	Coast    Coast // Only relevant for fleets on split-coast provinces
}

// Location identifies a province and, for split-coast provinces, the coast.
type Location struct {
	Province string
	Coast    Coast
}

func (l Location) String() string {
	if l.Coast == NoCoast {
		return l.Province
	}
	return l.Province + "/" + string(l.Coast)
}

// Loc returns the unit's location.
func (u Unit) Loc() Location {
	return Location{Province: u.Province, Coast: u.Coast}
}

// Abbrev returns "A" for armies and "F" for fleets.
func (u UnitType) Abbrev() string {
	if u == Army {
		return "A"
	}
	return "F"
}

// ParsePower maps a power name to a Power. Matching is case-insensitive.
func ParsePower(s string) (Power, error) {
	p := Power(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllPowers() {
		if p == known {
			return p, nil
		}
	}
	return Neutral, fmt.Errorf("unknown power %q", s)
}

// ParseLocation parses "vie" or "stp/nc", ignoring case and surrounding space.
func ParseLocation(s string) (Location, error) {
	return parseLocation(strings.ToLower(strings.TrimSpace(s)))
}
