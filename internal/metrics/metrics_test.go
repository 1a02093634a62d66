package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe(diplomacy.PhaseMovement, diplomacy.Stats{Passes: 3, CircularBreaks: 1, Substituted: 2, Dislodged: 1})
	m.Observe(diplomacy.PhaseMovement, diplomacy.Stats{Passes: 2, SzykmanRounds: 1, Unresolved: true})
	m.Observe(diplomacy.PhaseBuild, diplomacy.Stats{Passes: 1})

	if got := testutil.ToFloat64(m.adjudications.WithLabelValues("movement")); got != 2 {
		t.Errorf("movement adjudications = %v", got)
	}
	if got := testutil.ToFloat64(m.adjudications.WithLabelValues("build")); got != 1 {
		t.Errorf("build adjudications = %v", got)
	}
	for kind, want := range map[string]float64{"circular": 1, "szykman": 1, "unresolved": 1} {
		if got := testutil.ToFloat64(m.paradoxes.WithLabelValues(kind)); got != want {
			t.Errorf("%s paradoxes = %v, want %v", kind, got, want)
		}
	}
	if got := testutil.ToFloat64(m.substituted); got != 2 {
		t.Errorf("substituted = %v", got)
	}
	if got := testutil.ToFloat64(m.dislodged); got != 1 {
		t.Errorf("dislodged = %v", got)
	}
	if n := testutil.CollectAndCount(m.passes); n != 1 {
		t.Errorf("passes histogram series = %d", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(diplomacy.PhaseRetreat, diplomacy.Stats{Passes: 1})

	path := filepath.Join(t.TempDir(), "adjudicator.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `diplomacy_adjudications_total{phase="retreat"} 1`) {
		t.Errorf("unexpected textfile:\n%s", b)
	}
}
