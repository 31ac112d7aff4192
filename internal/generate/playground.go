package generate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/cunhaax/dev-gpt/internal/extract"
	devllm "github.com/cunhaax/dev-gpt/internal/llm"
	"github.com/cunhaax/dev-gpt/internal/workspace"
)

//go:embed static/gateway
var gatewayStatic embed.FS

// PlaygroundGenerator produces the interactive playground for a finished
// microservice: a generated app.py on top of the static gateway scaffold,
// pushed to the hub as its own executor.
type PlaygroundGenerator struct {
	model   llms.Model
	builder Builder
}

// NewPlaygroundGenerator wires the playground stage.
func NewPlaygroundGenerator(model llms.Model, builder Builder) *PlaygroundGenerator {
	return &PlaygroundGenerator{model: model, builder: builder}
}

// Generate writes gateway/ under the successful version directory, fills in
// the generated app.py and the gateway class name, pushes it and verifies
// publication.
func (p *PlaygroundGenerator) Generate(ctx context.Context, name, versionPath string) error {
	printHeader("Playground")

	files, err := workspace.ReadAll(versionPath)
	if err != nil {
		return err
	}

	// Two turns: context first, then a chain-of-thought request for app.py.
	session := devllm.NewSession(p.model, devllm.SessionOptions{Label: "playground"})
	contextPrompt, err := formatTemplate(templateGeneratePlayground, map[string]any{
		"code_files_wrapped": extract.RenderFiles(files, []string{"microservice.py", "test_microservice.py"}),
		"name":               name,
	})
	if err != nil {
		return err
	}
	if _, err := session.Chat(ctx, contextPrompt); err != nil {
		return err
	}

	appPrompt, err := formatTemplate(templateChainOfThought, map[string]any{
		"file_name_purpose": "app.py/the playground",
		"file_name":         "app.py",
		"tag_name":          "python",
	})
	if err != nil {
		return err
	}
	raw, err := session.Chat(ctx, appPrompt)
	if err != nil {
		return err
	}
	appContent := extract.Block(raw, "app.py", true)
	if appContent == "" {
		raw, err = session.Chat(ctx, "You must add the app.py code. You must not output any other code.")
		if err != nil {
			return err
		}
		appContent = extract.Block(raw, "app.py", true)
	}

	gatewayPath := filepath.Join(versionPath, "gateway")
	gatewayName := "Gateway" + name
	if err := p.writeGatewayScaffold(gatewayPath, gatewayName); err != nil {
		return err
	}
	if err := workspace.PersistFile(gatewayPath, "app.py", appContent); err != nil {
		return err
	}
	if err := WriteConfigDescriptor(gatewayPath, gatewayName, "custom_gateway.py"); err != nil {
		return err
	}

	fmt.Println("Final step...")
	buildLog, err := p.builder.Push(ctx, gatewayPath)
	if err != nil {
		return err
	}
	published, err := p.builder.IsPublished(ctx, gatewayName)
	if err != nil {
		return err
	}
	if !published {
		return &NotPublishedError{Name: gatewayName, Log: buildLog}
	}
	return nil
}

// writeGatewayScaffold copies the embedded static gateway files, renaming
// the gateway class to its per-microservice name.
func (p *PlaygroundGenerator) writeGatewayScaffold(gatewayPath, gatewayName string) error {
	return fs.WalkDir(gatewayStatic, "static/gateway", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := gatewayStatic.ReadFile(path)
		if err != nil {
			return err
		}
		text := string(content)
		if filepath.Base(path) == "custom_gateway.py" {
			text = strings.Replace(text,
				"class CustomGateway(CompositeGateway):",
				fmt.Sprintf("class %s(CompositeGateway):", gatewayName), 1)
		}
		return workspace.PersistFile(gatewayPath, filepath.Base(path), text)
	})
}
