package diplomacy

import (
	"fmt"
	"maps"
	"slices"
)

// Season represents a game season.
type Season string

const (
	Spring Season = "spring"
	Fall   Season = "fall"
)

// PhaseType represents the type of game phase.
type PhaseType string

const (
	PhaseMovement PhaseType = "movement"
	PhaseRetreat  PhaseType = "retreat"
	PhaseBuild    PhaseType = "build"
)

// GameState represents a complete snapshot of the board at a point in time.
// Adjudication never mutates a GameState; it builds the next one.
type GameState struct {
	Year          int
	Season        Season
	Phase         PhaseType
	Units         []Unit
	SupplyCenters map[string]Power // province ID -> owning power
	Dislodged     []DislodgedUnit  // Units that need retreat orders (retreat phase only)

	// PriorMoves records the previous movement phase's moves so the
	// retreat phase can find standoffs and attacker origins.
	PriorMoves []MoveOutcome `json:",omitempty"`

	// Eliminated powers no longer take part; their orders are ignored.
	Eliminated map[Power]bool `json:",omitempty"`

	// Ended is set once a victory condition is met. Resolved marks the
	// turn itself as adjudicated.
	Ended    bool    `json:",omitempty"`
	Resolved bool    `json:",omitempty"`
	Winners  []Power `json:",omitempty"`
}

// DislodgedUnit is a unit that was dislodged and needs a retreat order.
type DislodgedUnit struct {
	Unit          Unit
	DislodgedFrom string // Province the unit was dislodged from (same as Unit.Province before dislodgement)
	AttackerFrom  string // Province the attacker came from (cannot retreat there)
	ViaConvoy     bool   // Attacker arrived by convoy, so AttackerFrom stays open
}

// MoveOutcome is the result of one move from a movement phase.
type MoveOutcome struct {
	From     string
	To       string
	Success  bool
	Convoyed bool
	Legal    bool
}

// NewInitialState returns the standard Diplomacy starting position (Spring 1901 Movement).
func NewInitialState() *GameState {
	gs, err := DecodeDFEN(openingBoard)
	if err != nil {
		panic(err)
	}
	return gs
}

// UnitAt returns the unit at the given province, or nil if none.
func (gs *GameState) UnitAt(province string) *Unit {
	for i := range gs.Units {
		if gs.Units[i].Province == province {
			return &gs.Units[i]
		}
	}
	return nil
}

// DislodgedAt returns the dislodged unit at the given province, or nil if none.
func (gs *GameState) DislodgedAt(province string) *DislodgedUnit {
	for i := range gs.Dislodged {
		if gs.Dislodged[i].Unit.Province == province {
			return &gs.Dislodged[i]
		}
	}
	return nil
}

// IsEliminated reports whether power has been knocked out of the game.
func (gs *GameState) IsEliminated(power Power) bool {
	return gs.Eliminated[power]
}

// PhaseName returns a compact label such as "1901 spring movement".
func (gs *GameState) PhaseName() string {
	return fmt.Sprintf("%d %s %s", gs.Year, gs.Season, gs.Phase)
}

// SupplyCenterCount returns the number of supply centers owned by the given power.
func (gs *GameState) SupplyCenterCount(power Power) int {
	count := 0
	for _, owner := range gs.SupplyCenters {
		if owner == power {
			count++
		}
	}
	return count
}

// UnitCount returns the number of units belonging to the given power.
func (gs *GameState) UnitCount(power Power) int {
	count := 0
	for _, u := range gs.Units {
		if u.Power == power {
			count++
		}
	}
	return count
}

// UnitsOf returns all units belonging to the given power.
func (gs *GameState) UnitsOf(power Power) []Unit {
	var units []Unit
	for _, u := range gs.Units {
		if u.Power == power {
			units = append(units, u)
		}
	}
	return units
}

// PowerIsAlive returns true if the power still has at least one supply center or unit.
func (gs *GameState) PowerIsAlive(power Power) bool {
	return gs.SupplyCenterCount(power) > 0 || gs.UnitCount(power) > 0
}

// Clone returns a deep copy of the GameState. The adjudicator derives the
// next turn from a clone and never writes to the state it was given.
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.Units = slices.Clone(gs.Units)
	c.SupplyCenters = maps.Clone(gs.SupplyCenters)
	c.Dislodged = slices.Clone(gs.Dislodged)
	c.PriorMoves = slices.Clone(gs.PriorMoves)
	c.Eliminated = maps.Clone(gs.Eliminated)
	c.Winners = slices.Clone(gs.Winners)
	return &c
}

// openingBoard is the standard starting position in DFEN.
const openingBoard = "1901sm/" +
	"Aabud,Aftri,Aavie,Efedi,Eflon,Ealvp,Ffbre,Famar,Fapar,Gaber,Gfkie,Gamun," +
	"Ifnap,Iarom,Iaven,Ramos,Rfsev,Rfstp.sc,Rawar,Tfank,Tacon,Tasmy/" +
	"Abud,Atri,Avie,Eedi,Elon,Elvp,Fbre,Fmar,Fpar,Gber,Gkie,Gmun,Inap,Irom,Iven," +
	"Rmos,Rsev,Rstp,Rwar,Tank,Tcon,Tsmy," +
	"Nbel,Nbul,Nden,Ngre,Nhol,Nnwy,Npor,Nrum,Nser,Nspa,Nswe,Ntun/-"
