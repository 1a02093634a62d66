package diplomacy

import (
	"iter"
	"slices"
)

// ProvinceCount is the number of provinces on the standard Diplomacy map.
const ProvinceCount = 75

// ProvinceType classifies a province as land, sea, or coastal.
type ProvinceType int

const (
	Land    ProvinceType = iota // armies only
	Sea                         // fleets only
	Coastal                     // both
)

// Coast names one coast of a split-coast province.
type Coast string

const (
	NoCoast    Coast = ""
	NorthCoast Coast = "nc"
	SouthCoast Coast = "sc"
	EastCoast  Coast = "ec"
)

// Province is a single space on the board.
type Province struct {
	ID             string
	Name           string
	Type           ProvinceType
	IsSupplyCenter bool
	HomePower      Power   // Neutral unless this is a home center
	Coasts         []Coast // only for split-coast provinces
}

// Adjacency is one directed border. FromCoast and ToCoast are set only on
// fleet borders that touch a split-coast province.
type Adjacency struct {
	From      string
	FromCoast Coast
	To        string
	ToCoast   Coast
	ArmyOK    bool
	FleetOK   bool
}

// DiplomacyMap is the province graph. Build it once and share it; nothing
// modifies a map after construction.
type DiplomacyMap struct {
	Provinces   map[string]*Province
	Adjacencies map[string][]Adjacency // keyed by From

	// MoveModifiers adjusts the base strength of a move between two
	// provinces, keyed by "src-dst". Variant maps use it for rivers and
	// mountain passes; the standard map leaves it empty.
	MoveModifiers map[string]int

	homes map[Power][]string
}

// Borders yields the borders out of src that a unit of the given kind
// standing on srcCoast may use.
func (m *DiplomacyMap) Borders(src string, srcCoast Coast, isFleet bool) iter.Seq[Adjacency] {
	return func(yield func(Adjacency) bool) {
		for _, adj := range m.Adjacencies[src] {
			if isFleet && !adj.FleetOK || !isFleet && !adj.ArmyOK {
				continue
			}
			if srcCoast != NoCoast && adj.FromCoast != NoCoast && adj.FromCoast != srcCoast {
				continue
			}
			if !yield(adj) {
				return
			}
		}
	}
}

// Adjacent reports whether a unit can move from src to dst in one step.
// An empty coast on either side matches any coast.
func (m *DiplomacyMap) Adjacent(src string, srcCoast Coast, dst string, dstCoast Coast, isFleet bool) bool {
	for adj := range m.Borders(src, srcCoast, isFleet) {
		if adj.To == dst && (dstCoast == NoCoast || adj.ToCoast == NoCoast || adj.ToCoast == dstCoast) {
			return true
		}
	}
	return false
}

// FleetCoastsTo returns the coasts of dst a fleet on src/srcCoast can reach.
func (m *DiplomacyMap) FleetCoastsTo(src string, srcCoast Coast, dst string) []Coast {
	var coasts []Coast
	for adj := range m.Borders(src, srcCoast, true) {
		if adj.To == dst {
			coasts = append(coasts, adj.ToCoast)
		}
	}
	return coasts
}

// Neighbors returns the provinces a unit on provID/coast can move to, in
// border order and without repeats.
func (m *DiplomacyMap) Neighbors(provID string, coast Coast, isFleet bool) []string {
	var out []string
	for adj := range m.Borders(provID, coast, isFleet) {
		if !slices.Contains(out, adj.To) {
			out = append(out, adj.To)
		}
	}
	return out
}

// HasCoasts reports whether the province has split coasts.
func (m *DiplomacyMap) HasCoasts(provID string) bool {
	p, ok := m.Provinces[provID]
	return ok && len(p.Coasts) > 0
}

// HomeCenters returns the home supply center IDs for a power, sorted.
func (m *DiplomacyMap) HomeCenters(power Power) []string {
	return m.homes[power]
}

// IsHomeCenter reports whether provID is one of power's home supply centers.
func (m *DiplomacyMap) IsHomeCenter(power Power, provID string) bool {
	p, ok := m.Provinces[provID]
	return ok && p.IsSupplyCenter && p.HomePower == power
}

// MoveModifier returns the strength modifier for a move from src to dst.
func (m *DiplomacyMap) MoveModifier(src, dst string) int {
	if len(m.MoveModifiers) == 0 {
		return 0
	}
	return m.MoveModifiers[src+"-"+dst]
}

// DisplayName returns the province's full name, falling back to its ID.
func (m *DiplomacyMap) DisplayName(provID string) string {
	if p, ok := m.Provinces[provID]; ok && p.Name != "" {
		return p.Name
	}
	return provID
}

// Distance returns the fewest steps from src to any province in targets,
// walking every border regardless of unit type. Returns -1 if no target
// is reachable.
func (m *DiplomacyMap) Distance(src string, targets map[string]bool) int {
	if len(targets) == 0 {
		return -1
	}
	if targets[src] {
		return 0
	}
	visited := map[string]bool{src: true}
	frontier := []string{src}
	for dist := 1; len(frontier) > 0; dist++ {
		var next []string
		for _, prov := range frontier {
			for _, adj := range m.Adjacencies[prov] {
				if visited[adj.To] {
					continue
				}
				if targets[adj.To] {
					return dist
				}
				visited[adj.To] = true
				next = append(next, adj.To)
			}
		}
		frontier = next
	}
	return -1
}
