package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"markerexpr/internal/config"
	"markerexpr/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	dbPath     string
	clipboard  *fakeClipboard
}

// decodedReport mirrors the JSON form of stateReport.
type decodedReport struct {
	Input      string `json:"input"`
	Canonical  string `json:"canonical"`
	MetadataID int64  `json:"metadata_id"`
	Outcome    string `json:"outcome"`
	ResultMs   *int64 `json:"result_ms"`
	Result     string `json:"result"`
	Error      string `json:"error"`
	State      struct {
		Valid bool   `json:"valid"`
		Code  string `json:"code"`
	} `json:"state"`
}

type fakeClipboard struct {
	content string
	writes  []string
}

func (f *fakeClipboard) read() (string, error) {
	return f.content, nil
}

func (f *fakeClipboard) write(value string) error {
	f.writes = append(f.writes, value)
	f.content = value
	return nil
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_STATE_HOME", filepath.Join(homeDir, ".local", "state"))
	t.Setenv("PLEX_DB_PATH", "")
	t.Setenv("FFPROBE_BINARY", "")

	dbPath := testsupport.NewPlexDB(t, testsupport.SampleShow())
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithPlexDB(dbPath)}, opts...)...)

	configPath := filepath.Join(homeDir, ".config", "markerexpr", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		dbPath:     dbPath,
		clipboard:  &fakeClipboard{},
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, e.clipboard, append([]string{"--config", e.configPath}, args...))
}

func runCLI(t *testing.T, clip *fakeClipboard, args []string) (string, error) {
	t.Helper()
	ctx := newCommandContext()
	if clip != nil {
		ctx.readClipboard = clip.read
		ctx.writeClipboard = clip.write
	}
	cmd := buildRootCommand(ctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, output)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
