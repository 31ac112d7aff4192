package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev-gpt.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	// A named path that does not exist is an error; no silent fallbacks.
	assert.Error(t, err)
	assert.Nil(t, cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.General.Provider)
	assert.Equal(t, "microservice", cfg.Generate.Path)
	assert.Equal(t, 10, cfg.Generate.MaxDebugIterations)
	assert.Equal(t, 5, cfg.Generate.NumApproaches)
	assert.Equal(t, 0, cfg.Generate.MaxRefineRounds)
	assert.Equal(t, 3, cfg.Hub.PollIntervalSeconds)
	assert.Equal(t, 15, cfg.Hub.TimeoutMinutes)
	assert.Equal(t, []string{"AttributeError", "NameError", "AssertionError"}, cfg.Generate.CodeErrorMarkers)
	assert.Contains(t, cfg.Generate.ProblematicPackages, "dlib")
	assert.Contains(t, cfg.Generate.UnnecessaryPackages, "jina")
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[general]
provider = "gemini"

[ai.gemini]
api_key = "g-key"
model = "gemini-pro"

[hub]
url = "https://hub.internal"
token = "tok"

[generate]
max_debug_iterations = 4
num_approaches = 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.General.Provider)
	assert.Equal(t, "g-key", cfg.AI["gemini"]["api_key"])
	assert.Equal(t, "https://hub.internal", cfg.Hub.URL)
	assert.Equal(t, 4, cfg.Generate.MaxDebugIterations)
	assert.Equal(t, 2, cfg.Generate.NumApproaches)
	// Untouched keys keep their defaults.
	assert.Equal(t, "microservice", cfg.Generate.Path)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[hub]
url = "https://hub.internal"
token = "file-token"
`)
	t.Setenv("DEVGPT_HUB_TOKEN", "env-token")
	t.Setenv("DEVGPT_GENERAL_PROVIDER", "anthropic")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Hub.Token)
	assert.Equal(t, "anthropic", cfg.General.Provider)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev-gpt.toml")
	require.NoError(t, InitConfig(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[general]")
	assert.Contains(t, string(content), "[hub]")

	// Refuses to clobber an existing file.
	assert.Error(t, InitConfig(path))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.General.Provider = "openai"
		cfg.AI = map[string]map[string]interface{}{
			"openai": {"api_key": "sk-test"},
		}
		cfg.Hub.URL = "https://hub.internal"
		cfg.Generate.MaxDebugIterations = 10
		cfg.Generate.NumApproaches = 5
		return cfg
	}

	assert.NoError(t, Validate(valid()))

	cfg := valid()
	cfg.General.Provider = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.General.Provider = "gemini"
	assert.ErrorContains(t, Validate(cfg), "gemini")

	cfg = valid()
	cfg.AI["openai"]["api_key"] = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Hub.URL = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Generate.MaxDebugIterations = 1
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Generate.NumApproaches = 0
	assert.Error(t, Validate(cfg))
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	cfg := &Config{}
	cfg.General.Provider = "ollama"
	cfg.AI = map[string]map[string]interface{}{
		"ollama": {"model": "codellama"},
	}
	cfg.Hub.URL = "https://hub.internal"
	cfg.Generate.MaxDebugIterations = 10
	cfg.Generate.NumApproaches = 5

	assert.NoError(t, Validate(cfg))
}
