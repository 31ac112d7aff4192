package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/cunhaax/dev-gpt/internal/config"
	"github.com/cunhaax/dev-gpt/internal/generate"
	"github.com/cunhaax/dev-gpt/internal/hub"
	"github.com/cunhaax/dev-gpt/internal/llm"
	"github.com/cunhaax/dev-gpt/internal/logging"
)

// GenerateCommand returns the generate command
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate, build and publish a microservice from a description",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Initial description of the microservice (refined interactively)",
				EnvVars: []string{"DEVGPT_DESCRIPTION"},
			},
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Directory for generated candidate versions",
				EnvVars: []string{"DEVGPT_PATH"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Override the AI provider to use",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose output for this command",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	providerName := cfg.General.Provider
	if override := c.String("provider"); override != "" {
		providerName = override
		cfg.General.Provider = override
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose := c.Bool("verbose") || cfg.General.Verbose
	logging.Setup(verbose)

	runID := uuid.NewString()[:8]
	runLogger, err := logging.StartRunLogging(runID, verbose)
	if err != nil {
		return fmt.Errorf("failed to start run logging: %w", err)
	}
	defer runLogger.Close()

	model, err := llm.NewModel(c.Context, modelOptions(providerName, cfg.AI[providerName]))
	if err != nil {
		return fmt.Errorf("failed to create AI backend: %w", err)
	}

	hubClient := hub.New(hub.Config{
		URL:          cfg.Hub.URL,
		Token:        cfg.Hub.Token,
		PollInterval: time.Duration(cfg.Hub.PollIntervalSeconds) * time.Second,
		Timeout:      time.Duration(cfg.Hub.TimeoutMinutes) * time.Minute,
	})

	root := c.String("path")
	if root == "" {
		root = cfg.Generate.Path
	}

	orchestrator := generate.NewOrchestrator(
		model,
		hubClient,
		hub.ExtractError,
		generate.TerminalInput,
		generate.Options{
			Root:                root,
			NumApproaches:       cfg.Generate.NumApproaches,
			MaxDebugIterations:  cfg.Generate.MaxDebugIterations,
			MaxRefineRounds:     cfg.Generate.MaxRefineRounds,
			CodeErrorMarkers:    cfg.Generate.CodeErrorMarkers,
			ProblematicPackages: cfg.Generate.ProblematicPackages,
			UnnecessaryPackages: cfg.Generate.UnnecessaryPackages,
		},
	)

	return orchestrator.Run(c.Context, c.String("description"))
}

func modelOptions(providerName string, aiConfig map[string]interface{}) llm.Options {
	options := llm.Options{Provider: llm.Provider(providerName)}
	if apiKey, ok := aiConfig["api_key"].(string); ok {
		options.APIKey = apiKey
	}
	if modelName, ok := aiConfig["model"].(string); ok {
		options.Model = modelName
	}
	if baseURL, ok := aiConfig["base_url"].(string); ok {
		options.BaseURL = baseURL
	}
	if temperature, ok := aiConfig["temperature"].(float64); ok {
		options.Temperature = temperature
	}
	if maxTokens, ok := aiConfig["max_tokens"].(int64); ok {
		options.MaxTokens = int(maxTokens)
	} else if maxTokens, ok := aiConfig["max_tokens"].(float64); ok {
		options.MaxTokens = int(maxTokens)
	}
	return options
}
