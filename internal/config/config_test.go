package config

import (
	"testing"
	"time"

	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreNone || cfg.LogLevel != "info" || cfg.SzykmanRounds != 10 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if r := cfg.Rules(); r.BuildPolicy != diplomacy.HomeOnly || r.SzykmanRounds != 10 {
		t.Errorf("Rules() = %+v", r)
	}
	if cfg.Validation().Strict {
		t.Error("validation should be lenient by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE", "SQLite")
	t.Setenv("BUILD_POLICY", "any_owned")
	t.Setenv("SZYKMAN_ROUNDS", "3")
	t.Setenv("STRICT_VALIDATION", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %q", cfg.Store)
	}
	if r := cfg.Rules(); r.BuildPolicy != diplomacy.AnyOwned || r.SzykmanRounds != 3 {
		t.Errorf("Rules() = %+v", r)
	}
	if !cfg.Validation().Strict {
		t.Error("strict validation should be on")
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORE", "mongo")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown store")
	}

	t.Setenv("STORE", "none")
	t.Setenv("BUILD_POLICY", "anywhere")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown build policy")
	}

	t.Setenv("BUILD_POLICY", "")
	t.Setenv("SZYKMAN_ROUNDS", "lots")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric rounds")
	}
}

func TestLoad_Connections(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBMaxConns != 10 || cfg.DBConnectTimeout != 10*time.Second || cfg.CacheTTL != 0 {
		t.Errorf("unexpected connection defaults: %+v", cfg)
	}

	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("DB_MAX_CONNS", "4")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheTTL != 90*time.Second || cfg.DBMaxConns != 4 {
		t.Errorf("got ttl %v, max conns %d", cfg.CacheTTL, cfg.DBMaxConns)
	}

	t.Setenv("DB_MAX_CONNS", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero connections")
	}
}
