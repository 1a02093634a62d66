package diplomacy

import (
	"fmt"
	"strings"
	"time"
)

// ResultKind classifies an entry in the result log.
type ResultKind int

const (
	ResultGeneric     ResultKind = iota // Free-form message, optionally about a power
	ResultOrder                         // Outcome of a specific order
	ResultSubstituted                   // An order was replaced or synthesized
	ResultTimestamp                     // Marks when adjudication started
)

func (k ResultKind) String() string {
	switch k {
	case ResultOrder:
		return "order"
	case ResultSubstituted:
		return "substituted"
	case ResultTimestamp:
		return "timestamp"
	default:
		return "generic"
	}
}

// Outcome is the result category of an order entry.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomeDislodged
	OutcomeBounced
	OutcomeValidationFailure
	OutcomeConvoyPath
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeDislodged:
		return "dislodged"
	case OutcomeBounced:
		return "bounced"
	case OutcomeValidationFailure:
		return "invalid"
	case OutcomeConvoyPath:
		return "convoy path"
	default:
		return ""
	}
}

// Result is one entry of the adjudication log.
type Result struct {
	Kind        ResultKind
	Power       Power     `json:",omitempty"`
	Order       *Order    `json:",omitempty"`
	Replacement *Order    `json:",omitempty"` // substituted entries only
	Outcome     Outcome   `json:",omitempty"`
	Message     string    `json:",omitempty"`
	Path        []string  `json:",omitempty"` // convoy path, army source to destination
	At          time.Time `json:",omitempty"` // timestamp entries only
}

func (r Result) String() string {
	var b strings.Builder
	switch r.Kind {
	case ResultTimestamp:
		return "adjudicated at " + r.At.UTC().Format(time.RFC3339)
	case ResultSubstituted:
		if r.Order != nil {
			fmt.Fprintf(&b, "%s: %s replaced by ", r.Power, r.Order.Describe())
		} else {
			fmt.Fprintf(&b, "%s: no order, using ", r.Power)
		}
		if r.Replacement != nil {
			b.WriteString(r.Replacement.Describe())
		}
	case ResultOrder:
		fmt.Fprintf(&b, "%s: %s [%s]", r.Power, r.Order.Describe(), r.Outcome)
		if len(r.Path) > 0 {
			b.WriteString(" via " + strings.Join(r.Path, " "))
		}
	default:
		if r.Power != Neutral {
			fmt.Fprintf(&b, "%s: ", r.Power)
		}
	}
	if r.Message != "" {
		if b.Len() > 0 && r.Kind != ResultGeneric {
			b.WriteString(" ")
		}
		b.WriteString(r.Message)
	}
	return b.String()
}

// ResultLog is an append-only sequence of results.
type ResultLog struct {
	entries []Result
	moves   []MoveOutcome
}

func (l *ResultLog) add(r Result) {
	l.entries = append(l.entries, r)
}

// Entries returns a copy of the log in append order.
func (l *ResultLog) Entries() []Result {
	return append([]Result(nil), l.entries...)
}

func (l *ResultLog) Len() int { return len(l.entries) }

// MoveOutcomes returns the moves adjudicated in a movement phase, in
// arena order. Empty for other phases.
func (l *ResultLog) MoveOutcomes() []MoveOutcome {
	return append([]MoveOutcome(nil), l.moves...)
}

// ForLocation returns the order entries about the unit at province.
func (l *ResultLog) ForLocation(province string) []Result {
	var out []Result
	for _, r := range l.entries {
		if r.Kind == ResultOrder && r.Order != nil && r.Order.Location == province {
			out = append(out, r)
		}
	}
	return out
}

// Has reports whether the log has an order entry for province with the
// given outcome.
func (l *ResultLog) Has(province string, o Outcome) bool {
	for _, r := range l.ForLocation(province) {
		if r.Outcome == o {
			return true
		}
	}
	return false
}
