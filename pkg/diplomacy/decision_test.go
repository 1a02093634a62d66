package diplomacy

import "testing"

func TestDecision_String(t *testing.T) {
	for d, want := range map[Decision]string{Uncertain: "uncertain", Success: "success", Failure: "failure"} {
		if got := d.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", d, got, want)
		}
	}
	if Maybe != Uncertain || Yes != Success || No != Failure {
		t.Error("dislodgement aliases must share values with outcomes")
	}
}

func TestDecision_IsKnown(t *testing.T) {
	if Uncertain.IsKnown() {
		t.Error("Uncertain is not known")
	}
	if !Success.IsKnown() || !Failure.IsKnown() {
		t.Error("Success and Failure are known")
	}
	if DecisionOf(true) != Success || DecisionOf(false) != Failure {
		t.Error("DecisionOf maps bools to Success/Failure")
	}
}

func TestDecision_Combine(t *testing.T) {
	tests := []struct {
		a, b     Decision
		and, any Decision
	}{
		{Success, Success, Success, Success},
		{Success, Failure, Failure, Uncertain},
		{Success, Uncertain, Uncertain, Uncertain},
		{Failure, Failure, Failure, Failure},
		{Failure, Uncertain, Failure, Uncertain},
		{Uncertain, Uncertain, Uncertain, Uncertain},
	}
	for _, tt := range tests {
		if got := tt.a.and(tt.b); got != tt.and {
			t.Errorf("%s and %s = %s, want %s", tt.a, tt.b, got, tt.and)
		}
		if got := anyOf(tt.a, tt.b); got != tt.any {
			t.Errorf("anyOf(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.any)
		}
	}
	if anyOf() != Uncertain {
		t.Error("anyOf() with no scenarios is Uncertain")
	}
}

func TestSpan_GreaterThan(t *testing.T) {
	tests := []struct {
		a, b span
		want Decision
	}{
		{exact(2), exact(1), Success},
		{exact(1), exact(1), Failure},
		{exact(0), exact(1), Failure},
		{span{1, 3}, exact(1), Uncertain},
		{span{2, 3}, span{0, 1}, Success},
		{span{0, 1}, span{1, 2}, Failure},
		{span{1, 2}, span{1, 2}, Uncertain},
	}
	for _, tt := range tests {
		if got := gt(tt.a, tt.b); got != tt.want {
			t.Errorf("gt(%v, %v) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
	if got := exact(1).add(span{0, 2}); got != (span{1, 3}) {
		t.Errorf("add = %v", got)
	}
}
