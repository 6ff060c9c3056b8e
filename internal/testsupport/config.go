package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"markerexpr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. Chapter
// lookup is disabled unless WithFFprobeOutput is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.History.Path = filepath.Join(base, "state", "history.json")
	cfgVal.Chapters.Enabled = false
	cfgVal.Output.Color = "never"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPlexDB points the config at a database created by NewPlexDB.
func WithPlexDB(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Plex.DatabasePath = path
	}
}

// WithHistoryDisabled turns off the history file.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithFFprobeOutput writes a stub ffprobe that prints payload for any input
// and enables chapter lookup with it.
func WithFFprobeOutput(payload string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Chapters.Enabled = true
		b.cfg.Chapters.FFprobeBinary = writeStub(b, "ffprobe", payload, 0)
	}
}

// WithFailingFFprobe installs an ffprobe stub that exits non-zero.
func WithFailingFFprobe() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Chapters.Enabled = true
		b.cfg.Chapters.FFprobeBinary = writeStub(b, "ffprobe", "", 1)
	}
}

func writeStub(b *configBuilder, name, stdout string, exitCode int) string {
	b.t.Helper()
	if runtime.GOOS == "windows" {
		b.t.Skip("stub binaries require a POSIX shell")
	}
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	payloadPath := filepath.Join(binDir, name+".out")
	if err := os.WriteFile(payloadPath, []byte(stdout), 0o644); err != nil {
		b.t.Fatalf("write stub payload: %v", err)
	}
	script := "#!/bin/sh\ncat '" + payloadPath + "'\n"
	if exitCode != 0 {
		script = "#!/bin/sh\necho 'stub failure' >&2\nexit 1\n"
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
