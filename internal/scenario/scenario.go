package scenario

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

// Scenario is a board position, the orders given on it and, optionally,
// what adjudication should produce.
type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Board       string              `yaml:"board"` // DFEN
	Rules       Rules               `yaml:"rules"`
	Orders      map[string][]string `yaml:"orders"` // power -> DSON orders
	PriorMoves  []PriorMove         `yaml:"prior_moves"`
	Expect      *Expect             `yaml:"expect"`
}

// Rules overrides the configured rule options for one scenario.
type Rules struct {
	BuildPolicy   string `yaml:"build_policy"`
	SzykmanRounds int    `yaml:"szykman_rounds"`
	Strict        *bool  `yaml:"strict"`
}

// PriorMove is a move from the movement phase before a retreat phase.
type PriorMove struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Success  bool   `yaml:"success"`
	Convoyed bool   `yaml:"convoyed"`
	Legal    *bool  `yaml:"legal"` // defaults to true
}

// Expect lists what should come out of adjudication. Empty fields are not
// checked.
type Expect struct {
	Outcomes  map[string][]string `yaml:"outcomes"` // province -> outcomes
	Dislodged []string            `yaml:"dislodged"`
	Next      string              `yaml:"next"`  // e.g. "1901 fall movement"
	Units     map[string][]string `yaml:"units"` // power -> "A bur", "F spa/sc"
	Absent    []string            `yaml:"absent"`
	Ended     *bool               `yaml:"ended"`
}

// Setup is a scenario ready to hand to the adjudicator.
type Setup struct {
	State      *diplomacy.GameState
	Orders     []diplomacy.Order
	Rules      diplomacy.RuleOptions
	Validation diplomacy.ValidationOptions
}

// Options returns the adjudicator options for the setup.
func (s *Setup) Options() []diplomacy.Option {
	return []diplomacy.Option{
		diplomacy.WithRules(s.Rules),
		diplomacy.WithValidation(s.Validation),
	}
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario from YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if strings.TrimSpace(sc.Board) == "" {
		return nil, fmt.Errorf("scenario %q has no board", sc.Name)
	}
	return &sc, nil
}

// Build decodes the board and orders. Rule fields left unset in the
// scenario take their value from base.
func (sc *Scenario) Build(m *diplomacy.DiplomacyMap, base diplomacy.RuleOptions, validation diplomacy.ValidationOptions) (*Setup, error) {
	gs, err := diplomacy.DecodeDFEN(strings.TrimSpace(sc.Board))
	if err != nil {
		return nil, err
	}
	if err := checkProvinces(m, gs); err != nil {
		return nil, err
	}
	for _, pm := range sc.PriorMoves {
		legal := pm.Legal == nil || *pm.Legal
		gs.PriorMoves = append(gs.PriorMoves, diplomacy.MoveOutcome{
			From:     pm.From,
			To:       pm.To,
			Success:  pm.Success,
			Convoyed: pm.Convoyed,
			Legal:    legal,
		})
	}

	setup := &Setup{State: gs, Rules: base, Validation: validation}
	if sc.Rules.BuildPolicy != "" {
		p, err := diplomacy.ParseBuildPolicy(sc.Rules.BuildPolicy)
		if err != nil {
			return nil, err
		}
		setup.Rules.BuildPolicy = p
	}
	if sc.Rules.SzykmanRounds > 0 {
		setup.Rules.SzykmanRounds = sc.Rules.SzykmanRounds
	}
	if sc.Rules.Strict != nil {
		setup.Validation.Strict = *sc.Rules.Strict
	}

	// Map iteration order is random; keep order lists stable per power.
	powers := make([]string, 0, len(sc.Orders))
	for p := range sc.Orders {
		powers = append(powers, p)
	}
	sort.Strings(powers)
	for _, name := range powers {
		power, err := diplomacy.ParsePower(name)
		if err != nil {
			return nil, err
		}
		for _, text := range sc.Orders[name] {
			orders, err := diplomacy.ParseOrders(text, power, gs.Phase)
			if err != nil {
				return nil, fmt.Errorf("%s order %q: %w", power, text, err)
			}
			setup.Orders = append(setup.Orders, orders...)
		}
	}
	return setup, nil
}

func checkProvinces(m *diplomacy.DiplomacyMap, gs *diplomacy.GameState) error {
	for _, u := range gs.Units {
		if m.Provinces[u.Province] == nil {
			return fmt.Errorf("unknown province %q", u.Province)
		}
	}
	for _, d := range gs.Dislodged {
		if m.Provinces[d.Unit.Province] == nil {
			return fmt.Errorf("unknown province %q", d.Unit.Province)
		}
	}
	return nil
}

// Check compares an adjudication against the scenario's expectations and
// returns one line per mismatch.
func (sc *Scenario) Check(results []diplomacy.Result, next *diplomacy.GameState) []string {
	if sc.Expect == nil {
		return nil
	}
	e := sc.Expect
	var problems []string

	provs := make([]string, 0, len(e.Outcomes))
	for p := range e.Outcomes {
		provs = append(provs, p)
	}
	sort.Strings(provs)
	for _, prov := range provs {
		got := outcomesAt(results, prov)
		for _, want := range e.Outcomes[prov] {
			if !slices.Contains(got, strings.ToLower(want)) {
				problems = append(problems, fmt.Sprintf("%s: want outcome %q, got %v", prov, want, got))
			}
		}
	}

	if e.Dislodged != nil {
		var got []string
		for _, r := range results {
			if r.Kind == diplomacy.ResultOrder && r.Outcome == diplomacy.OutcomeDislodged && r.Order != nil {
				got = append(got, r.Order.Location)
			}
		}
		want := slices.Clone(e.Dislodged)
		sort.Strings(got)
		sort.Strings(want)
		got = slices.Compact(got)
		if !slices.Equal(got, want) {
			problems = append(problems, fmt.Sprintf("dislodged: want %v, got %v", want, got))
		}
	}

	if next == nil {
		if e.Next != "" || len(e.Units) > 0 || len(e.Absent) > 0 || e.Ended != nil {
			problems = append(problems, "no next state")
		}
		return problems
	}
	if e.Next != "" && !strings.EqualFold(e.Next, next.PhaseName()) {
		problems = append(problems, fmt.Sprintf("next phase: want %q, got %q", e.Next, next.PhaseName()))
	}
	if e.Ended != nil && *e.Ended != next.Ended {
		problems = append(problems, fmt.Sprintf("ended: want %v, got %v", *e.Ended, next.Ended))
	}

	powers := make([]string, 0, len(e.Units))
	for p := range e.Units {
		powers = append(powers, p)
	}
	sort.Strings(powers)
	for _, name := range powers {
		power, err := diplomacy.ParsePower(name)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		for _, want := range e.Units[name] {
			ut, loc, err := parseUnit(want)
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			u := next.UnitAt(loc.Province)
			if u == nil || u.Power != power || u.Type != ut || (loc.Coast != diplomacy.NoCoast && u.Coast != loc.Coast) {
				problems = append(problems, fmt.Sprintf("%s: want %s %s, got %s", power, ut.Abbrev(), loc, describeUnit(u)))
			}
		}
	}
	for _, prov := range e.Absent {
		if u := next.UnitAt(prov); u != nil {
			problems = append(problems, fmt.Sprintf("%s: want empty, got %s", prov, describeUnit(u)))
		}
	}
	return problems
}

func outcomesAt(results []diplomacy.Result, prov string) []string {
	var out []string
	for _, r := range results {
		if r.Kind == diplomacy.ResultOrder && r.Order != nil && r.Order.Location == prov {
			out = append(out, r.Outcome.String())
		}
	}
	return out
}

// parseUnit parses "A bur" or "F spa/sc".
func parseUnit(s string) (diplomacy.UnitType, diplomacy.Location, error) {
	kind, where, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return 0, diplomacy.Location{}, fmt.Errorf("invalid unit %q", s)
	}
	var ut diplomacy.UnitType
	switch strings.ToUpper(kind) {
	case "A":
		ut = diplomacy.Army
	case "F":
		ut = diplomacy.Fleet
	default:
		return 0, diplomacy.Location{}, fmt.Errorf("invalid unit type in %q", s)
	}
	loc, err := diplomacy.ParseLocation(where)
	if err != nil {
		return 0, diplomacy.Location{}, fmt.Errorf("invalid unit %q: %w", s, err)
	}
	return ut, loc, nil
}

func describeUnit(u *diplomacy.Unit) string {
	if u == nil {
		return "nothing"
	}
	return fmt.Sprintf("%s %s %s", u.Power, u.Type.Abbrev(), u.Loc())
}
