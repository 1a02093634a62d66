package diplomacy

import (
	"fmt"
	"strings"
)

// DSON is the plain-text order notation. Orders are joined by " ; ":
//
//	A vie H              hold
//	A bud - rum          move (append "via" to insist on a convoy)
//	A tyr S A vie H      support hold
//	A gal S A bud - rum  support move
//	F mao C A bre - spa  convoy
//	A vie R boh          retreat
//	F tri D              disband, or remove in the build phase
//	A vie B              build
//	W                    waive a build
const dsonSeparator = " ; "

// FormatOrders writes orders as one DSON string.
func FormatOrders(orders []Order) string {
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = FormatOrder(o)
	}
	return strings.Join(parts, dsonSeparator)
}

// FormatOrder writes a single order in DSON.
func FormatOrder(o Order) string {
	var b strings.Builder
	b.Grow(32)
	b.WriteString(o.UnitType.Abbrev())
	b.WriteByte(' ')
	b.WriteString(o.Source().String())

	switch o.Type {
	case OrderHold:
		b.WriteString(" H")
	case OrderMove:
		b.WriteString(" - " + o.Dest().String())
		if o.ViaConvoy {
			b.WriteString(" via")
		}
	case OrderSupport:
		b.WriteString(" S " + o.AuxUnitType.Abbrev() + " " + o.AuxLoc)
		if o.AuxTarget == "" {
			b.WriteString(" H")
		} else {
			b.WriteString(" - " + o.AuxTarget)
		}
	case OrderConvoy:
		b.WriteString(" C A " + o.AuxLoc + " - " + o.AuxTarget)
	case OrderRetreat:
		b.WriteString(" R " + o.Dest().String())
	case OrderDisband, OrderRemove:
		b.WriteString(" D")
	case OrderBuild:
		b.WriteString(" B")
	}
	return b.String()
}

// ParseOrders parses a DSON string into orders for power. The phase
// decides what "D" means. Waived builds produce no order.
func ParseOrders(s string, power Power, phase PhaseType) ([]Order, error) {
	var orders []Order
	for part := range strings.SplitSeq(s, dsonSeparator) {
		part = strings.TrimSpace(part)
		if part == "" || part == "W" {
			continue
		}
		o, err := parseOrder(part, phase)
		if err != nil {
			return nil, fmt.Errorf("dson: parsing %q: %w", part, err)
		}
		o.Power = power
		orders = append(orders, o)
	}
	return orders, nil
}

func parseOrder(s string, phase PhaseType) (Order, error) {
	sc := &dsonScanner{tokens: strings.Fields(s)}
	ut, loc, err := sc.unit()
	if err != nil {
		return Order{}, err
	}
	o := Order{UnitType: ut, Location: loc.Province, Coast: loc.Coast}

	action, ok := sc.next()
	if !ok {
		return Order{}, fmt.Errorf("missing action")
	}
	switch action {
	case "H":
		o.Type = OrderHold
	case "-", "R":
		o.Type = OrderMove
		if action == "R" {
			o.Type = OrderRetreat
		}
		dest, err := sc.location()
		if err != nil {
			return Order{}, fmt.Errorf("target: %w", err)
		}
		o.Target, o.TargetCoast = dest.Province, dest.Coast
		if o.Type == OrderMove && sc.peek() == "via" {
			sc.next()
			o.ViaConvoy = true
		}
	case "S":
		o.Type = OrderSupport
		aux, auxLoc, err := sc.unit()
		if err != nil {
			return Order{}, fmt.Errorf("supported unit: %w", err)
		}
		o.AuxUnitType, o.AuxLoc = aux, auxLoc.Province
		switch tok, _ := sc.next(); tok {
		case "H":
		case "-":
			dest, err := sc.location()
			if err != nil {
				return Order{}, fmt.Errorf("support target: %w", err)
			}
			o.AuxTarget = dest.Province
		default:
			return Order{}, fmt.Errorf("support: expected H or -, got %q", tok)
		}
	case "C":
		o.Type = OrderConvoy
		o.AuxUnitType = Army
		if err := sc.expect("A"); err != nil {
			return Order{}, fmt.Errorf("convoy: %w", err)
		}
		from, err := sc.location()
		if err != nil {
			return Order{}, fmt.Errorf("convoy source: %w", err)
		}
		if err := sc.expect("-"); err != nil {
			return Order{}, fmt.Errorf("convoy: %w", err)
		}
		to, err := sc.location()
		if err != nil {
			return Order{}, fmt.Errorf("convoy target: %w", err)
		}
		o.AuxLoc, o.AuxTarget = from.Province, to.Province
	case "D":
		o.Type = OrderDisband
		if phase == PhaseBuild {
			o.Type = OrderRemove
		}
	case "B":
		o.Type = OrderBuild
	default:
		return Order{}, fmt.Errorf("unknown action %q", action)
	}

	if extra := sc.peek(); extra != "" {
		return Order{}, fmt.Errorf("unexpected %q", extra)
	}
	return o, nil
}

type dsonScanner struct {
	tokens []string
	pos    int
}

func (sc *dsonScanner) next() (string, bool) {
	if sc.pos >= len(sc.tokens) {
		return "", false
	}
	sc.pos++
	return sc.tokens[sc.pos-1], true
}

func (sc *dsonScanner) peek() string {
	if sc.pos >= len(sc.tokens) {
		return ""
	}
	return sc.tokens[sc.pos]
}

func (sc *dsonScanner) expect(want string) error {
	if tok, _ := sc.next(); tok != want {
		return fmt.Errorf("expected %q, got %q", want, tok)
	}
	return nil
}

// unit reads "A vie" or "F stp/nc".
func (sc *dsonScanner) unit() (UnitType, Location, error) {
	var ut UnitType
	switch tok, _ := sc.next(); tok {
	case "A":
		ut = Army
	case "F":
		ut = Fleet
	default:
		return Army, Location{}, fmt.Errorf("invalid unit type %q (expected A or F)", tok)
	}
	loc, err := sc.location()
	if err != nil {
		return Army, Location{}, fmt.Errorf("unit location: %w", err)
	}
	return ut, loc, nil
}

func (sc *dsonScanner) location() (Location, error) {
	tok, ok := sc.next()
	if !ok {
		return Location{}, fmt.Errorf("missing location")
	}
	return parseLocation(tok)
}

// parseLocation parses "vie" or "stp/nc".
func parseLocation(s string) (Location, error) {
	prov, coast, hasCoast := strings.Cut(s, "/")
	if len(prov) != 3 {
		return Location{}, fmt.Errorf("invalid province %q (must be 3 lowercase letters)", prov)
	}
	loc := Location{Province: prov}
	if hasCoast {
		switch c := Coast(coast); c {
		case NorthCoast, SouthCoast, EastCoast:
			loc.Coast = c
		default:
			return Location{}, fmt.Errorf("invalid coast %q", coast)
		}
	}
	return loc, nil
}
