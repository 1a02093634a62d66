package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository/sqlite"
	"github.com/freeeve/polite-betrayal/adjudicator/internal/repository/sqlstore"
	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

const scenarioDir = "../../internal/scenario/testdata"

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	var out, errOut bytes.Buffer
	err := execute(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestRun_Check(t *testing.T) {
	out, _, err := runCLI(t, "run", "--check", filepath.Join(scenarioDir, "opening_bounce.yaml"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{
		"# opening bounce in burgundy",
		"next: 1901 fall movement",
		"dfen: 1901fm/",
		"ok",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "adjudicated at") {
		t.Error("timestamp entries should not be printed")
	}
}

func TestRoot_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjudicate.log")
	t.Setenv("LOG_FILE", path)
	if _, _, err := runCLI(t, "--log-level", "debug", "run", "--check", filepath.Join(scenarioDir, "opening_bounce.yaml")); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "Logger initialized") {
		t.Errorf("log file missing startup line:\n%s", data)
	}
}

func TestRun_CheckFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	body := `name: wrong
board: "1901sm/Fapar,Gamun/Fpar,Gmun/-"
orders:
  france: ["A par - bur"]
  germany: ["A mun - bur"]
expect:
  units:
    france: [A bur]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, err := runCLI(t, "run", "--check", path)
	if !errors.Is(err, errExpectations) {
		t.Fatalf("want errExpectations, got %v", err)
	}
	if !strings.Contains(errOut, "mismatch: france: want A bur, got nothing") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRun_SQLiteStoreAndMetrics(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "turns.db")
	metricsPath := filepath.Join(dir, "adjudicator.prom")
	t.Setenv("SQLITE_PATH", dbPath)

	out, _, err := runCLI(t, "run",
		"--store", "sqlite",
		"--game", "g1",
		"--metrics-file", metricsPath,
		filepath.Join(scenarioDir, "supported_attack.yaml"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "(game g1)") {
		t.Errorf("output should name the stored turn:\n%s", out)
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	turns, err := sqlstore.NewTurnRepo(db, sqlstore.SQLite).ListTurns(context.Background(), "g1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].PhaseType != "movement" {
		t.Fatalf("turns = %+v", turns)
	}
	next, err := diplomacy.DecodeDFEN(turns[0].StateAfter)
	if err != nil {
		t.Fatal(err)
	}
	if next.Phase != diplomacy.PhaseRetreat || len(next.Dislodged) != 1 {
		t.Errorf("stored next state = %s", turns[0].StateAfter)
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(prom), `diplomacy_adjudications_total{phase="movement"} 1`) {
		t.Errorf("metrics file missing adjudication count:\n%s", prom)
	}
}

func TestRun_UnknownStore(t *testing.T) {
	_, _, err := runCLI(t, "run", "--store", "mongo", filepath.Join(scenarioDir, "convoy.yaml"))
	if err == nil || !strings.Contains(err.Error(), `unknown store "mongo"`) {
		t.Errorf("err = %v", err)
	}
}

func TestRun_MissingFile(t *testing.T) {
	if _, _, err := runCLI(t, "run", "does-not-exist.yaml"); err == nil {
		t.Error("expected error")
	}
}

func TestAdjustments(t *testing.T) {
	gs := diplomacy.NewInitialState()
	gs.Season, gs.Phase = diplomacy.Fall, diplomacy.PhaseBuild
	gs.SupplyCenters["spa"] = diplomacy.France
	gs.SupplyCenters["por"] = diplomacy.France

	out, _, err := runCLI(t, "adjustments", "--policy", "any-owned", diplomacy.EncodeDFEN(gs))
	if err != nil {
		t.Fatalf("adjustments: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 8 {
		t.Fatalf("want header and 7 powers, got:\n%s", out)
	}
	if f := strings.Fields(lines[3]); strings.Join(f, " ") != "france 5 3 +2" {
		t.Errorf("france line = %q", lines[3])
	}
	if f := strings.Fields(lines[1]); strings.Join(f, " ") != "austria 3 3 +0" {
		t.Errorf("austria line = %q", lines[1])
	}

	// Every French home center is occupied.
	out, _, err = runCLI(t, "adjustments", "--policy", "home-only", diplomacy.EncodeDFEN(gs))
	if err != nil {
		t.Fatalf("adjustments: %v", err)
	}
	lines = strings.Split(strings.TrimSpace(out), "\n")
	if f := strings.Fields(lines[3]); strings.Join(f, " ") != "france 5 3 +0" {
		t.Errorf("home-only france line = %q", lines[3])
	}
}

func TestAdjustments_BadPolicy(t *testing.T) {
	_, _, err := runCLI(t, "adjustments", "--policy", "anywhere", diplomacy.EncodeDFEN(diplomacy.NewInitialState()))
	if err == nil {
		t.Error("expected error")
	}
}

func TestRetreats(t *testing.T) {
	gs := &diplomacy.GameState{
		Year: 1901, Season: diplomacy.Spring, Phase: diplomacy.PhaseRetreat,
		Units:         []diplomacy.Unit{{Type: diplomacy.Army, Power: diplomacy.Germany, Province: "bur"}},
		SupplyCenters: map[string]diplomacy.Power{"par": diplomacy.France},
		Dislodged: []diplomacy.DislodgedUnit{{
			Unit:          diplomacy.Unit{Type: diplomacy.Army, Power: diplomacy.France, Province: "bur"},
			DislodgedFrom: "bur",
			AttackerFrom:  "mun",
		}},
	}
	out, _, err := runCLI(t, "retreats", diplomacy.EncodeDFEN(gs))
	if err != nil {
		t.Fatalf("retreats: %v", err)
	}
	want := "france A bur: bel gas mar par pic ruh\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRetreats_NoneDislodged(t *testing.T) {
	out, _, err := runCLI(t, "retreats", diplomacy.EncodeDFEN(diplomacy.NewInitialState()))
	if err != nil {
		t.Fatal(err)
	}
	if out != "no dislodged units\n" {
		t.Errorf("got %q", out)
	}
}
