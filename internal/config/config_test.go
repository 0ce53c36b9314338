package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/recwire/internal/record"
	"github.com/danmuck/recwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recwire.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestTemplateMatchesDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "recwire.toml")
	require.NoError(t, WriteTemplate(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	want := Default()
	want.Schemas = []string{}
	assert.Equal(t, want, cfg)

	assert.Error(t, WriteTemplate(path, false), "existing file must not be overwritten")
	assert.NoError(t, WriteTemplate(path, true))
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load(writeConfig(t, `
default_scheme = "compact"
schemas = [" a.toml ", ""]

[store]
driver = "sqlite"
path = "recs.db"
`))
	require.NoError(t, err)
	assert.Equal(t, ":9400", cfg.Addr)
	assert.Equal(t, record.SchemeCompact, cfg.Scheme())
	assert.Equal(t, []string{"a.toml"}, cfg.Schemas)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.False(t, cfg.Store.Compress)
	assert.Equal(t, Default().Limits, cfg.Limits)
}

func TestLoadLimits(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load(writeConfig(t, `
[store]
driver = "memory"
compress = true

[limits]
max_depth = 8
max_payload_bytes = 1024
`))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ProtocolLimits().MaxDepth)
	assert.Equal(t, uint64(1024), cfg.FrameLimits().MaxPayloadBytes)
	assert.True(t, cfg.Store.Compress)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"scheme":     `default_scheme = "json"`,
		"driver":     "[store]\ndriver = \"mongo\"",
		"empty path": "[store]\npath = \"\"",
		"addr":       `addr = " "`,
		"limits":     "[limits]\nmax_depth = 0",
		"log level":  `log_level = "shouty"`,
		"syntax":     `addr = `,
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
