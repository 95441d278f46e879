package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{
		ConfigDir:      filepath.Join(t.TempDir()),
		Environment:    "development",
		SkipValidation: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 32, cfg.Identity.IDSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Handshake.Deadline)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yamlBody := `
environment: staging
identity:
  id_size: 20
endpoints:
  - protocol: tcp
    bind_address: "0.0.0.0:9000"
handshake:
  deadline: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"), []byte(yamlBody), 0o644))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging"})
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 20, cfg.Identity.IDSize)
	require.Len(t, cfg.Endpoints, 1)
	assert.Equal(t, "tcp", cfg.Endpoints[0].Protocol)
	assert.Equal(t, 2*time.Second, cfg.Handshake.Deadline)
}

func TestValidateRejectsOutOfRangeIdentitySize(t *testing.T) {
	cfg := &Config{Identity: &IdentityConfig{IDSize: 8}}
	issues := Validate(cfg)
	require.NotEmpty(t, issues)
	assert.Equal(t, "error", issues[0].Level)
}

func TestValidateWarnsOnNoEndpoints(t *testing.T) {
	cfg := &Config{Identity: &IdentityConfig{IDSize: 32}}
	issues := Validate(cfg)
	require.NotEmpty(t, issues)
	assert.Equal(t, "warning", issues[0].Level)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("BRYPT_TEST_VALUE", "resolved")
	assert.Equal(t, "resolved", SubstituteEnvVars("${BRYPT_TEST_VALUE}"))
	assert.Equal(t, "fallback", SubstituteEnvVars("${BRYPT_TEST_MISSING:fallback}"))
}

func TestEnvironmentOverridesTakePriority(t *testing.T) {
	t.Setenv("BRYPT_LOG_LEVEL", "debug")
	cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir(), Environment: "development", SkipValidation: true})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
