package main

import (
	"os"
	"path/filepath"
	"testing"

	"markerexpr/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.dbPath)

	chapters := setupCLITestEnv(t, testsupport.WithFFprobeOutput("{}"))
	out, err = chapters.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate with chapters: %v", err)
	}
	requireContains(t, out, "FFprobe:")
	requireContains(t, out, chapters.cfg.Chapters.FFprobeBinary)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, err = runCLI(t, nil, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, nil, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, err := runCLI(t, nil, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, err = runCLI(t, nil, []string{"--config", target, "config", "validate"})
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "WARN")
}

func TestInvalidConfigFailsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[plex]\nunknown_key = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := env.run(t, "check", "5000"); err == nil {
		t.Fatal("expected error for unknown config key")
	}
	if _, err := env.run(t, "config", "validate"); err == nil {
		t.Fatal("expected validate to fail")
	}
}
