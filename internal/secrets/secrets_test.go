package secrets

import (
	"strings"
	"testing"

	"github.com/tsukumogami/waveform/internal/userconfig"
)

func clearTokenEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
}

func TestGetResolvesFromEnvVar(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_env")

	val, err := New(nil).Get(GitHubToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ghp_env" {
		t.Errorf("expected 'ghp_env', got %q", val)
	}
}

func TestGetResolvesAliasesInPriorityOrder(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("GITHUB_TOKEN", "first")
	t.Setenv("GH_TOKEN", "second")

	val, err := New(nil).Get(GitHubToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "first" {
		t.Errorf("expected 'first' (first alias), got %q", val)
	}
}

func TestGetFallsBackToSecondAlias(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("GH_TOKEN", "second")

	val, err := New(nil).Get(GitHubToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "second" {
		t.Errorf("expected 'second', got %q", val)
	}
}

func TestGetFallsBackToConfig(t *testing.T) {
	clearTokenEnv(t)
	cfg := userconfig.DefaultConfig()
	cfg.Secrets = map[string]string{GitHubToken: "ghp_config"}

	val, err := New(cfg).Get(GitHubToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ghp_config" {
		t.Errorf("expected 'ghp_config', got %q", val)
	}
}

func TestEnvVarTakesPrecedenceOverConfig(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	cfg := userconfig.DefaultConfig()
	cfg.Secrets = map[string]string{GitHubToken: "ghp_config"}

	val, _ := New(cfg).Get(GitHubToken)
	if val != "ghp_env" {
		t.Errorf("expected env value to win, got %q", val)
	}
}

func TestGetMissingReturnsGuidance(t *testing.T) {
	clearTokenEnv(t)

	_, err := New(userconfig.DefaultConfig()).Get(GitHubToken)
	if err == nil {
		t.Fatal("expected error when secret is not set")
	}
	for _, want := range []string{"GITHUB_TOKEN or GH_TOKEN", "waveform config set secrets.github_token"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to contain %q, got %q", want, err.Error())
		}
	}
}

func TestGetUnknownKey(t *testing.T) {
	if _, err := New(nil).Get("nonexistent"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestIsSet(t *testing.T) {
	clearTokenEnv(t)
	r := New(nil)
	if r.IsSet(GitHubToken) {
		t.Error("expected IsSet to be false with no sources")
	}
	if r.IsSet("nonexistent") {
		t.Error("expected IsSet to be false for unknown key")
	}

	t.Setenv("GH_TOKEN", "x")
	if !r.IsSet(GitHubToken) {
		t.Error("expected IsSet to be true once GH_TOKEN is set")
	}
}

func TestKnownKeys(t *testing.T) {
	keys := KnownKeys()
	if len(keys) != 1 || keys[0].Name != GitHubToken {
		t.Fatalf("KnownKeys() = %+v", keys)
	}
	if keys[0].EnvVars[0] != "GITHUB_TOKEN" {
		t.Errorf("first env var = %q", keys[0].EnvVars[0])
	}
}
