package main

import (
	"path/filepath"
	"testing"
)

func stubConfigPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	orig := RuntimeConfigPath
	t.Cleanup(func() { RuntimeConfigPath = orig })
	RuntimeConfigPath = func() (string, error) { return path, nil }
	return path
}

func TestLoadRuntimeConfigDefaultsWhenMissing(t *testing.T) {
	stubConfigPath(t)

	cfg, err := LoadRuntimeConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scope != "system" {
		t.Fatalf("got scope %q, want system", cfg.Scope)
	}
}

func TestSaveThenLoadRuntimeConfigRoundTrips(t *testing.T) {
	stubConfigPath(t)

	if err := SaveRuntimeConfig(&RuntimeConfig{Scope: "user", RootDir: "/tmp/root"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := LoadRuntimeConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scope != "user" || cfg.RootDir != "/tmp/root" {
		t.Fatalf("got %+v", cfg)
	}
}

func TestResolveRuntimePrefersExplicitFlagsOverConfig(t *testing.T) {
	stubConfigPath(t)
	SaveRuntimeConfig(&RuntimeConfig{Scope: "user", RootDir: "/tmp/root"})

	scope, root, err := ResolveRuntime("system", "/tmp/other")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scope != ScopeSystem || root != "/tmp/other" {
		t.Fatalf("got scope=%v root=%q", scope, root)
	}
}

func TestResolveRuntimeFallsBackToConfig(t *testing.T) {
	stubConfigPath(t)
	SaveRuntimeConfig(&RuntimeConfig{Scope: "global"})

	scope, _, err := ResolveRuntime("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scope != ScopeGlobal {
		t.Fatalf("got scope=%v, want global", scope)
	}
}

func TestSetAndGetConfigValue(t *testing.T) {
	stubConfigPath(t)

	if err := SetConfigValue("scope", "user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := GetConfigValue("scope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "user" {
		t.Fatalf("got %q, want user", v)
	}
}

func TestGetConfigValueRejectsUnknownKey(t *testing.T) {
	stubConfigPath(t)
	if _, err := GetConfigValue("bogus"); !IsKind(err, ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
}
