package diplomacy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DFEN is a one-line board notation with four '/'-separated sections:
//
//	<year><season><phase>/<units>/<supply centers>/<dislodged>
//
// e.g. "1901sm/Aabud,...,Rfstp.sc,.../Abud,...,Ntun/-". Units are a power
// letter, 'a' or 'f', and a province with an optional ".coast". Dislodged
// units add "<" and the province the attacker came from. Empty sections
// are written as "-".

// powerLetters lists the power letters in canonical output order; Neutral
// is last and only appears among supply centers.
var powerLetters = []struct {
	c byte
	p Power
}{
	{'A', Austria}, {'E', England}, {'F', France}, {'G', Germany},
	{'I', Italy}, {'R', Russia}, {'T', Turkey}, {'N', Neutral},
}

var (
	powerToChar = make(map[Power]byte, len(powerLetters))
	charToPower = make(map[byte]Power, len(powerLetters))
	powerRank   = make(map[Power]int, len(powerLetters))
)

func init() {
	for i, pl := range powerLetters {
		powerToChar[pl.p] = pl.c
		charToPower[pl.c] = pl.p
		powerRank[pl.p] = i
	}
}

// rank orders powers as in powerLetters; unknown powers sort last.
func rank(p Power) int {
	if r, ok := powerRank[p]; ok {
		return r
	}
	return len(powerLetters)
}

// EncodeDFEN serializes a GameState. Output is deterministic: entries are
// ordered by power (A,E,F,G,I,R,T,N), then by province.
func EncodeDFEN(gs *GameState) string {
	var b strings.Builder
	b.Grow(512)

	b.WriteString(strconv.Itoa(gs.Year))
	b.WriteByte(seasonChar(gs.Season))
	b.WriteByte(phaseChar(gs.Phase))

	units := make([]string, 0, len(gs.Units))
	for _, u := range sortedUnits(gs.Units) {
		units = append(units, unitToken(u))
	}
	writeSection(&b, units)

	provs := make([]string, 0, len(gs.SupplyCenters))
	for prov := range gs.SupplyCenters {
		provs = append(provs, prov)
	}
	sort.Slice(provs, func(i, j int) bool {
		ri, rj := rank(gs.SupplyCenters[provs[i]]), rank(gs.SupplyCenters[provs[j]])
		if ri != rj {
			return ri < rj
		}
		return provs[i] < provs[j]
	})
	centers := make([]string, len(provs))
	for i, prov := range provs {
		centers[i] = string(powerToChar[gs.SupplyCenters[prov]]) + prov
	}
	writeSection(&b, centers)

	dislodged := make([]DislodgedUnit, len(gs.Dislodged))
	copy(dislodged, gs.Dislodged)
	sort.SliceStable(dislodged, func(i, j int) bool { return unitLess(dislodged[i].Unit, dislodged[j].Unit) })
	entries := make([]string, len(dislodged))
	for i, d := range dislodged {
		entries[i] = unitToken(d.Unit) + "<" + d.AttackerFrom
	}
	writeSection(&b, entries)

	return b.String()
}

func writeSection(b *strings.Builder, entries []string) {
	b.WriteByte('/')
	if len(entries) == 0 {
		b.WriteByte('-')
		return
	}
	b.WriteString(strings.Join(entries, ","))
}

func sortedUnits(units []Unit) []Unit {
	out := make([]Unit, len(units))
	copy(out, units)
	sort.SliceStable(out, func(i, j int) bool { return unitLess(out[i], out[j]) })
	return out
}

func unitLess(a, b Unit) bool {
	if ra, rb := rank(a.Power), rank(b.Power); ra != rb {
		return ra < rb
	}
	return a.Province < b.Province
}

func unitToken(u Unit) string {
	kind := byte('a')
	if u.Type == Fleet {
		kind = 'f'
	}
	tok := string([]byte{powerToChar[u.Power], kind}) + u.Province
	if u.Coast != NoCoast {
		tok += "." + string(u.Coast)
	}
	return tok
}

func seasonChar(s Season) byte {
	if s == Fall {
		return 'f'
	}
	return 's'
}

func phaseChar(p PhaseType) byte {
	switch p {
	case PhaseRetreat:
		return 'r'
	case PhaseBuild:
		return 'b'
	default:
		return 'm'
	}
}

// DecodeDFEN parses a DFEN string.
func DecodeDFEN(s string) (*GameState, error) {
	sections := strings.SplitN(s, "/", 4)
	if len(sections) != 4 {
		return nil, fmt.Errorf("dfen: expected 4 sections separated by '/', got %d", len(sections))
	}
	gs := &GameState{SupplyCenters: make(map[string]Power)}
	if err := decodeHeader(sections[0], gs); err != nil {
		return nil, err
	}

	err := eachEntry(sections[1], func(entry string) error {
		u, err := parseUnitEntry(entry)
		if err != nil {
			return fmt.Errorf("dfen: unit %q: %w", entry, err)
		}
		gs.Units = append(gs.Units, u)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachEntry(sections[2], func(entry string) error {
		if len(entry) != 4 {
			return fmt.Errorf("dfen: bad supply center %q", entry)
		}
		power, ok := charToPower[entry[0]]
		if !ok {
			return fmt.Errorf("dfen: invalid power in sc %q", entry)
		}
		gs.SupplyCenters[entry[1:]] = power
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachEntry(sections[3], func(entry string) error {
		unit, from, ok := strings.Cut(entry, "<")
		if !ok {
			return fmt.Errorf("dfen: dislodged %q: missing '<' separator", entry)
		}
		if len(from) != 3 {
			return fmt.Errorf("dfen: dislodged %q: invalid attacker province %q", entry, from)
		}
		u, err := parseUnitEntry(unit)
		if err != nil {
			return fmt.Errorf("dfen: dislodged %q: %w", entry, err)
		}
		gs.Dislodged = append(gs.Dislodged, DislodgedUnit{Unit: u, DislodgedFrom: u.Province, AttackerFrom: from})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}

// eachEntry calls fn for every comma-separated entry of a section. "-" and
// "" are empty sections.
func eachEntry(section string, fn func(string) error) error {
	if section == "-" || section == "" {
		return nil
	}
	for entry := range strings.SplitSeq(section, ",") {
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// decodeHeader parses "1901sm".
func decodeHeader(s string, gs *GameState) error {
	if len(s) < 3 {
		return fmt.Errorf("dfen: phase info too short: %q", s)
	}
	year, err := strconv.Atoi(s[:len(s)-2])
	if err != nil {
		return fmt.Errorf("dfen: invalid year %q: %w", s[:len(s)-2], err)
	}
	gs.Year = year

	switch c := s[len(s)-2]; c {
	case 's':
		gs.Season = Spring
	case 'f':
		gs.Season = Fall
	default:
		return fmt.Errorf("dfen: invalid season %q", string(c))
	}
	switch c := s[len(s)-1]; c {
	case 'm':
		gs.Phase = PhaseMovement
	case 'r':
		gs.Phase = PhaseRetreat
	case 'b':
		gs.Phase = PhaseBuild
	default:
		return fmt.Errorf("dfen: invalid phase %q", string(c))
	}
	return nil
}

// parseUnitEntry parses "Aavie" or "Rfstp.sc".
func parseUnitEntry(s string) (Unit, error) {
	if len(s) < 5 {
		return Unit{}, fmt.Errorf("too short")
	}
	power, ok := charToPower[s[0]]
	if !ok || power == Neutral {
		return Unit{}, fmt.Errorf("invalid power char %q", string(s[0]))
	}
	u := Unit{Power: power}
	switch s[1] {
	case 'a':
		u.Type = Army
	case 'f':
		u.Type = Fleet
	default:
		return Unit{}, fmt.Errorf("invalid unit type %q", string(s[1]))
	}

	prov, coast, hasCoast := strings.Cut(s[2:], ".")
	if len(prov) != 3 {
		return Unit{}, fmt.Errorf("invalid province id %q (must be 3 lowercase letters)", prov)
	}
	u.Province = prov
	if hasCoast {
		switch c := Coast(coast); c {
		case NorthCoast, SouthCoast, EastCoast:
			u.Coast = c
		default:
			return Unit{}, fmt.Errorf("invalid coast %q", coast)
		}
	}
	return u, nil
}
