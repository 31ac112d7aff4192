package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration.
type Config struct {
	General struct {
		Provider string `koanf:"provider"`
		Verbose  bool   `koanf:"verbose"`
	} `koanf:"general"`

	// Per-provider backend settings (api_key, model, base_url, ...).
	AI map[string]map[string]interface{} `koanf:"ai"`

	Hub struct {
		URL                 string `koanf:"url"`
		Token               string `koanf:"token"`
		PollIntervalSeconds int    `koanf:"poll_interval_seconds"`
		TimeoutMinutes      int    `koanf:"timeout_minutes"`
	} `koanf:"hub"`

	Generate struct {
		Path                string   `koanf:"path"`
		MaxDebugIterations  int      `koanf:"max_debug_iterations"`
		NumApproaches       int      `koanf:"num_approaches"`
		MaxRefineRounds     int      `koanf:"max_refine_rounds"`
		CodeErrorMarkers    []string `koanf:"code_error_markers"`
		ProblematicPackages []string `koanf:"problematic_packages"`
		UnnecessaryPackages []string `koanf:"unnecessary_packages"`
	} `koanf:"generate"`
}

// LoadConfig loads the configuration from a file, environment, and defaults.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"general.provider":              "openai",
		"hub.poll_interval_seconds":     3,
		"hub.timeout_minutes":           15,
		"generate.path":                 "microservice",
		"generate.max_debug_iterations": 10,
		"generate.num_approaches":       5,
		"generate.code_error_markers":   []string{"AttributeError", "NameError", "AssertionError"},
		"generate.problematic_packages": []string{"detectron2", "dlib", "ffmpeg-python"},
		"generate.unnecessary_packages": []string{"jina", "docarray", "pydantic", "streamlit", "gradio"},
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./dev-gpt.toml", "$HOME/.dev-gpt.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Environment variables with prefix DEVGPT_ override file settings,
	// e.g. DEVGPT_HUB_TOKEN, DEVGPT_GENERAL_PROVIDER.
	k.Load(env.Provider("DEVGPT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DEVGPT_")), "_", ".", -1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &config, nil
}

// InitConfig writes a starter configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# dev-gpt configuration

[general]
provider = "openai"

[ai.openai]
api_key = "your-openai-api-key"
model = "gpt-4"

[hub]
url = "https://hub.example.com"
token = "your-hub-token"

[generate]
path = "microservice"
max_debug_iterations = 10
num_approaches = 5
# 0 keeps the requirement-refinement loop unbounded
max_refine_rounds = 0
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration.
func Validate(config *Config) error {
	provider := config.General.Provider
	if provider == "" {
		return fmt.Errorf("general.provider is required")
	}

	aiConfig, ok := config.AI[provider]
	if !ok {
		return fmt.Errorf("configuration for provider %s not found", provider)
	}
	// Ollama runs locally and needs no key; everything else does.
	if provider != "ollama" {
		if key, _ := aiConfig["api_key"].(string); key == "" {
			return fmt.Errorf("%s api_key is required", provider)
		}
	}

	if config.Hub.URL == "" {
		return fmt.Errorf("hub.url is required")
	}
	if config.Generate.MaxDebugIterations < 2 {
		return fmt.Errorf("generate.max_debug_iterations must be at least 2")
	}
	if config.Generate.NumApproaches < 1 {
		return fmt.Errorf("generate.num_approaches must be at least 1")
	}
	return nil
}
