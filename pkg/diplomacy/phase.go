package diplomacy

// NextPhase computes the phase that follows the given one, before any
// skipping of empty phases.
// Movement -> Retreat of the same season.
// Spring Retreat -> Fall Movement; Fall Retreat -> Fall Build.
// Build -> Spring Movement of next year.
func NextPhase(season Season, phase PhaseType) (Season, PhaseType, bool) {
	switch phase {
	case PhaseMovement:
		return season, PhaseRetreat, false
	case PhaseRetreat:
		return afterMovement(season)
	}
	return Spring, PhaseMovement, true
}

func afterMovement(season Season) (Season, PhaseType, bool) {
	if season == Spring {
		return Fall, PhaseMovement, false
	}
	return Fall, PhaseBuild, false
}

// advance moves gs one phase forward in place.
func advance(gs *GameState) {
	season, phase, newYear := NextPhase(gs.Season, gs.Phase)
	if newYear {
		gs.Year++
	}
	gs.Season = season
	gs.Phase = phase
}

// MaxYear is the highest year a game can reach before ending as a draw.
const MaxYear = 3000

// SoloCenters is the number of supply centers needed for a solo victory
// on the standard map.
const SoloCenters = 18

// IsYearLimitReached returns true if the game has exceeded the maximum year.
func IsYearLimitReached(gs *GameState) bool {
	return gs.Year > MaxYear
}

// IsGameOver checks if any single power controls 18+ supply centers (solo victory).
func IsGameOver(gs *GameState) (bool, Power) {
	for _, power := range AllPowers() {
		if gs.SupplyCenterCount(power) >= SoloCenters {
			return true, power
		}
	}
	return false, Neutral
}

// VictoryCondition decides whether a turn ends the game.
type VictoryCondition interface {
	// Check reports whether the game is over and who won. A game that
	// ends without a winner (year limit) returns no powers.
	Check(gs *GameState) (bool, []Power)
}

// SoloVictory ends the game when one power owns Centers supply centers,
// or as a draw once the year passes MaxYear. Zero fields use the
// standard values.
type SoloVictory struct {
	Centers int
	MaxYear int
}

func (v SoloVictory) Check(gs *GameState) (bool, []Power) {
	centers, maxYear := v.Centers, v.MaxYear
	if centers == 0 {
		centers = SoloCenters
	}
	if maxYear == 0 {
		maxYear = MaxYear
	}
	for _, power := range AllPowers() {
		if gs.SupplyCenterCount(power) >= centers {
			return true, []Power{power}
		}
	}
	if gs.Year > maxYear {
		return true, nil
	}
	return false, nil
}

// UpdateSupplyCenterOwnership assigns SCs to the power whose unit occupies them.
// If no unit is present, ownership stays with the current owner.
func UpdateSupplyCenterOwnership(gs *GameState, m *DiplomacyMap) {
	for provID, prov := range m.Provinces {
		if !prov.IsSupplyCenter {
			continue
		}
		if unit := gs.UnitAt(provID); unit != nil {
			if gs.SupplyCenters == nil {
				gs.SupplyCenters = make(map[string]Power)
			}
			gs.SupplyCenters[provID] = unit.Power
		}
	}
}
