package diplomacy

// Decision is a three-valued adjudication result. Order outcomes start
// Uncertain and dislodgement starts No; both only ever move toward a
// certain value.
type Decision uint8

const (
	Uncertain Decision = iota
	Success
	Failure
)

// Dislodgement aliases.
const (
	Maybe = Uncertain
	Yes   = Success
	No    = Failure
)

func (d Decision) String() string {
	switch d {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "uncertain"
	}
}

// IsKnown reports whether d is Success or Failure.
func (d Decision) IsKnown() bool {
	return d != Uncertain
}

// DecisionOf maps true to Success and false to Failure.
func DecisionOf(b bool) Decision {
	if b {
		return Success
	}
	return Failure
}

// and combines two decisions: Failure dominates, then Uncertain.
func (d Decision) and(o Decision) Decision {
	if d == Failure || o == Failure {
		return Failure
	}
	if d == Uncertain || o == Uncertain {
		return Uncertain
	}
	return Success
}

// anyOf combines decisions of alternative scenarios: certain only if all
// scenarios agree.
func anyOf(ds ...Decision) Decision {
	if len(ds) == 0 {
		return Uncertain
	}
	first := ds[0]
	for _, d := range ds[1:] {
		if d != first {
			return Uncertain
		}
	}
	return first
}

// span is a closed [lo, hi] bound on a strength that is not yet known.
type span struct {
	lo, hi int
}

func exact(v int) span { return span{v, v} }

func (s span) add(o span) span { return span{s.lo + o.lo, s.hi + o.hi} }

// gt decides whether a is strictly greater than b.
func gt(a, b span) Decision {
	switch {
	case a.lo > b.hi:
		return Success
	case a.hi <= b.lo:
		return Failure
	default:
		return Uncertain
	}
}
