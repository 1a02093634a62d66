package diplomacy

func pendingMove(j Judge, h Handle) bool {
	st := j.State(h)
	return st.Outcome() == Uncertain && st.Order().Type == OrderMove
}

// breakCircularMovement finds rings of undecided moves, each into the
// province the next one leaves, and lets them all succeed. A ring of two
// only counts when a convoy is involved; otherwise it is a head-to-head
// battle. It returns the number of moves decided.
func breakCircularMovement(j Judge) (int, error) {
	onCycle := make(map[Handle]bool)
	var cycles [][]Handle
	for _, start := range j.Handles() {
		if onCycle[start] || !pendingMove(j, start) {
			continue
		}
		seen := make(map[Handle]int)
		var chain []Handle
		for cur := start; cur != NoHandle && pendingMove(j, cur); cur = j.StateAt(j.State(cur).Order().Target) {
			if i, ok := seen[cur]; ok {
				cycle := chain[i:]
				if !onCycle[cycle[0]] && cycleQualifies(j, cycle) {
					cycles = append(cycles, cycle)
					for _, h := range cycle {
						onCycle[h] = true
					}
				}
				break
			}
			seen[cur] = len(chain)
			chain = append(chain, cur)
		}
	}

	n := 0
	for _, cycle := range cycles {
		for _, h := range cycle {
			st := j.State(h)
			st.circular = true
			if err := st.SetOutcome(Success); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func cycleQualifies(j Judge, cycle []Handle) bool {
	if len(cycle) < 2 {
		return false
	}
	anyConvoy := false
	for _, h := range cycle {
		if convoyed(j.Map(), j.State(h).Order()) {
			anyConvoy = true
			if routeDecision(j, h) != Success {
				return false
			}
		}
		if !clearsDestination(j, h) {
			return false
		}
	}
	return len(cycle) >= 3 || anyConvoy
}

// clearsDestination reports whether the move at h certainly succeeds if
// the unit at its destination moves away.
func clearsDestination(j Judge, h Handle) bool {
	st := j.State(h)
	full := st.supportSpan(j).add(st.selfSupportSpan(j))
	d, _ := beats(j, h, full, exact(0), NoHandle)
	return d == Success
}

// applySzykman disrupts every convoyed move whose route still hangs on an
// undecided convoy. Such a move has no effect on the board, including on
// support, and fails if it was not already decided. It returns the number
// of moves disrupted.
func applySzykman(j Judge) (int, error) {
	n := 0
	for _, h := range j.Handles() {
		st := j.State(h)
		o := st.Order()
		if o.Type != OrderMove || st.convoyDisrupted || !convoyed(j.Map(), o) {
			continue
		}
		if routeDecision(j, h) != Uncertain {
			continue
		}
		disrupted := false
		for _, c := range matchingConvoys(j, h) {
			if j.State(c).Outcome() == Uncertain {
				disrupted = true
				break
			}
		}
		if !disrupted {
			continue
		}
		st.convoyDisrupted = true
		n++
		if st.Outcome() != Uncertain {
			j.AddResult(h, OutcomeFailure, "convoy paradox: move has no effect")
			continue
		}
		if err := failMove(j, h, OutcomeFailure, "convoy paradox: move has no effect"); err != nil {
			return n, err
		}
	}
	return n, nil
}
