package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/cunhaax/dev-gpt/internal/extract"
	devllm "github.com/cunhaax/dev-gpt/internal/llm"
	"github.com/cunhaax/dev-gpt/internal/logging"
	"github.com/cunhaax/dev-gpt/internal/workspace"
)

// Generator produces the first-draft candidate: source, test, requirements
// and build file, requested in that fixed order so each later file sees all
// earlier ones.
type Generator struct {
	model llms.Model
	spec  Specification
}

// NewGenerator creates a generator for a finalized specification.
func NewGenerator(model llms.Model, spec Specification) *Generator {
	return &Generator{model: model, spec: spec}
}

// systemMessage builds the per-request system message. examples selects
// which conceptual snippets the file kind needs.
func (g *Generator) systemMessage(examples []string) (string, error) {
	base, err := formatTemplate(templateSystemBase, map[string]any{
		"task": g.spec.Task,
		"test": g.spec.Test,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(base)
	for _, example := range examples {
		switch example {
		case "gpt":
			b.WriteString("\n" + exampleGPT)
		case "executor":
			b.WriteString("\n" + exampleExecutor)
		case "docarray":
			b.WriteString("\n" + exampleDocarray)
		case "client":
			b.WriteString("\n" + exampleClient)
		}
	}
	return b.String(), nil
}

// allExamples is the default example-context selection.
var allExamples = []string{"gpt", "executor", "docarray", "client"}

// generateAndPersistFile requests one artifact, extracts it (single-block
// fallback enabled), nudges the model exactly once when extraction comes
// back empty, and persists the result when destDir is set. Empty content
// after the nudge is returned as-is; the caller decides what that means.
func (g *Generator) generateAndPersistFile(
	ctx context.Context,
	sectionTitle string,
	template prompts.PromptTemplate,
	destDir string,
	fileName string,
	examples []string,
	vars map[string]any,
) (string, error) {
	printHeader(sectionTitle)

	system, err := g.systemMessage(examples)
	if err != nil {
		return "", err
	}
	session := devllm.NewSession(g.model, devllm.SessionOptions{
		System: system,
		Label:  sectionTitle,
	})

	vars["file_name"] = fileName
	prompt, err := formatTemplate(template, vars)
	if err != nil {
		return "", err
	}

	raw, err := session.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	content := extract.Block(raw, fileName, true)
	if content == "" {
		raw, err = session.Chat(ctx, fmt.Sprintf("You must add the content for %s.", fileName))
		if err != nil {
			return "", err
		}
		content = extract.Block(raw, fileName, true)
	}

	if destDir != "" {
		if err := workspace.PersistFile(destDir, fileName, content); err != nil {
			return "", err
		}
	}
	return content, nil
}

// GenerateMicroservice writes the complete version-1 candidate. The version
// directory is created before writing begins; a failure part-way leaves a
// partially populated directory behind.
func (g *Generator) GenerateMicroservice(ctx context.Context, root, name string, packages []string, approach int) error {
	versionDir := workspace.VersionPath(root, name, packages, approach, 1)
	if err := workspace.EnsureVersionDir(versionDir); err != nil {
		return err
	}
	logging.GetCurrentLogger().Log("Generating first candidate into %s", versionDir)

	microservice, err := g.generateAndPersistFile(ctx, "Microservice", templateGenerateMicroservice,
		versionDir, "microservice.py", allExamples, map[string]any{
			"name":        name,
			"description": g.spec.Task,
			"test":        g.spec.Test,
			"packages":    strings.Join(packages, ", "),
		})
	if err != nil {
		return err
	}

	test, err := g.generateAndPersistFile(ctx, "Test Microservice", templateGenerateTest,
		versionDir, "test_microservice.py", allExamples, map[string]any{
			"code_files_wrapped": extract.RenderFiles(map[string]string{"microservice.py": microservice}, nil),
			"name":               name,
			"test":               g.spec.Test,
		})
	if err != nil {
		return err
	}

	requirements, err := g.generateAndPersistFile(ctx, "Requirements", templateGenerateRequirements,
		versionDir, "requirements.txt", []string{"gpt", "executor"}, map[string]any{
			"code_files_wrapped": extract.RenderFiles(map[string]string{
				"microservice.py":      microservice,
				"test_microservice.py": test,
			}, nil),
		})
	if err != nil {
		return err
	}

	_, err = g.generateAndPersistFile(ctx, "Dockerfile", templateGenerateDockerfile,
		versionDir, "Dockerfile", []string{"gpt", "executor"}, map[string]any{
			"code_files_wrapped": extract.RenderFiles(map[string]string{
				"microservice.py":      microservice,
				"test_microservice.py": test,
				"requirements.txt":     requirements,
			}, nil),
		})
	if err != nil {
		return err
	}

	if err := WriteConfigDescriptor(versionDir, name, "microservice.py"); err != nil {
		return err
	}

	fmt.Println("\nFirst version of the microservice generated. Start iterating on it to make the tests pass...")
	return nil
}

// WriteConfigDescriptor emits the fixed-format config.yml binding a class
// name to its module.
func WriteConfigDescriptor(destDir, className, pythonFile string) error {
	content := fmt.Sprintf("jtype: %s\npy_modules:\n  - %s\nmetas:\n  name: %s\n", className, pythonFile, className)
	return workspace.PersistFile(destDir, "config.yml", content)
}

// GenerateName asks the model for a microservice name.
func (g *Generator) GenerateName(ctx context.Context, description string) (string, error) {
	printHeader("What should be the name of the Microservice?")

	session := devllm.NewSession(g.model, devllm.SessionOptions{Label: "name"})
	prompt, err := formatTemplate(templateGenerateName, map[string]any{"description": description})
	if err != nil {
		return "", err
	}
	raw, err := session.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	name := extract.Block(raw, "name.txt", false)
	if name == "" {
		return "", fmt.Errorf("model did not return a name.txt block")
	}
	return name, nil
}

// PossiblePackages asks the model for candidate package sets, repairing the
// returned JSON when necessary, and truncates to numStrategies.
func (g *Generator) PossiblePackages(ctx context.Context, numStrategies int) ([][]string, error) {
	raw, err := g.generateAndPersistFile(ctx, "What packages to use?", templateGeneratePossiblePackages,
		"", "packages.json", []string{"gpt"}, map[string]any{
			"description":    g.spec.Task,
			"num_strategies": numStrategies,
		})
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, fmt.Errorf("model did not return a packages.json block")
	}

	var packageSets [][]string
	if err := json.Unmarshal([]byte(raw), &packageSets); err != nil {
		repaired, _, repairErr := devllm.RepairJSON(raw)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse package sets: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &packageSets); err != nil {
			return nil, fmt.Errorf("failed to parse repaired package sets: %w", err)
		}
	}

	if len(packageSets) > numStrategies {
		packageSets = packageSets[:numStrategies]
	}
	return packageSets, nil
}
