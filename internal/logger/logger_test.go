package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

func TestGameIDContext(t *testing.T) {
	ctx := WithGameID(context.Background(), "g-1")
	if got := GameIDFromContext(ctx); got != "g-1" {
		t.Errorf("GameIDFromContext = %q", got)
	}
	if got := GameIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context should have no game ID, got %q", got)
	}
}

func TestForTurn(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	l := ForTurn(WithGameID(context.Background(), "g-7"), diplomacy.NewInitialState())
	l.Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"gameId":"g-7"`, `"year":1901`, `"season":"spring"`, `"phase":"movement"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %s missing %s", out, want)
		}
	}
}

func TestInit(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	closeLog, err := Init(Options{Level: "WARN", Format: "json", Out: &buf})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer closeLog()
	log.Info().Msg("quiet")
	log.Warn().Str("gameId", "g-1").Msg("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"message":"loud"`) || !strings.Contains(out, `"caller":"logger_test.go:`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestInit_Errors(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	for _, opts := range []Options{
		{Level: "chatty"},
		{Format: "xml"},
		{File: t.TempDir()},
	} {
		if closeLog, err := Init(opts); err == nil || closeLog != nil {
			t.Errorf("Init(%+v) should fail", opts)
		}
	}
}

func TestInit_LogFile(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "adjudicate.log")
	var buf bytes.Buffer
	closeLog, err := Init(Options{Format: "json", File: path, Out: &buf})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	log.Info().Msg("to both")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := closeLog(); err == nil {
		t.Error("closing twice should report the file already closed")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to both") || !strings.Contains(buf.String(), "to both") {
		t.Errorf("file %q, writer %q", data, buf.String())
	}
}

func TestShortCaller(t *testing.T) {
	if got := shortCaller(0, "/a/b/turn_service.go", 42); got != "turn_service.go:42      " {
		t.Errorf("shortCaller = %q", got)
	}
	long := strings.Repeat("x", 40) + ".go"
	if got := shortCaller(0, long, 7); len(got) != 24 || !strings.HasSuffix(got, ".go:7") {
		t.Errorf("shortCaller(long) = %q", got)
	}
}
