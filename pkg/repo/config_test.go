package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test 1: set + get round-trip through the TOML file.
func TestConfig_SetGet(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := r.ConfigSet("user.name", "Ada Lovelace"); err != nil {
		t.Fatalf("ConfigSet(user.name): %v", err)
	}
	if err := r.ConfigSet("user.email", "ada@example.com"); err != nil {
		t.Fatalf("ConfigSet(user.email): %v", err)
	}

	name, err := r.ConfigGet("user.name")
	if err != nil {
		t.Fatalf("ConfigGet(user.name): %v", err)
	}
	if name != "Ada Lovelace" {
		t.Errorf("user.name = %q", name)
	}
	email, err := r.ConfigGet("user.email")
	if err != nil {
		t.Fatalf("ConfigGet(user.email): %v", err)
	}
	if email != "ada@example.com" {
		t.Errorf("user.email = %q", email)
	}

	// The on-disk form is a TOML document with a [user] table.
	data, err := os.ReadFile(filepath.Join(r.GritDir, "config.toml"))
	if err != nil {
		t.Fatalf("ReadFile(config.toml): %v", err)
	}
	if !strings.Contains(string(data), "[user]") {
		t.Errorf("config file missing [user] table:\n%s", data)
	}
	if !strings.Contains(string(data), `name = "Ada Lovelace"`) {
		t.Errorf("config file missing name entry:\n%s", data)
	}
}

// Test 2: unknown keys are rejected.
func TestConfig_UnknownKey(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := r.ConfigGet("core.bare"); err == nil {
		t.Error("ConfigGet of unknown key should fail")
	}
	if err := r.ConfigSet("core.bare", "true"); err == nil {
		t.Error("ConfigSet of unknown key should fail")
	}
}

// Test 3: a missing config file reads as empty.
func TestConfig_MissingReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.User.Name != "" || cfg.User.Email != "" {
		t.Errorf("empty repo config = %+v, want zero", cfg)
	}
}

// Test 4: UserSignature falls back to the process owner when unset and
// prefers configured values once they exist.
func TestUserSignature(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	t.Setenv("USER", "worker")

	sig, err := r.UserSignature()
	if err != nil {
		t.Fatalf("UserSignature (unset): %v", err)
	}
	if sig.Name != "worker" || sig.Email != "worker@localhost" {
		t.Errorf("fallback signature = %+v, want worker/worker@localhost", sig)
	}

	// An unset USER degrades to "unknown".
	t.Setenv("USER", "")
	sig, err = r.UserSignature()
	if err != nil {
		t.Fatalf("UserSignature (no USER): %v", err)
	}
	if sig.Name != "unknown" || sig.Email != "unknown@localhost" {
		t.Errorf("fallback signature = %+v, want unknown/unknown@localhost", sig)
	}

	if err := r.SetUser("Ada Lovelace", "ada@example.com"); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	sig, err = r.UserSignature()
	if err != nil {
		t.Fatalf("UserSignature: %v", err)
	}
	if sig.Name != "Ada Lovelace" || sig.Email != "ada@example.com" {
		t.Errorf("signature = %+v", sig)
	}
	if sig.Timestamp == 0 {
		t.Error("signature timestamp not stamped")
	}
}
