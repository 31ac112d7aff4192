package generate

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"

	devllm "github.com/cunhaax/dev-gpt/internal/llm"
)

// Classifier decides whether a build error is a dependency/environment
// problem or a bug in the generated code. The marker fast path is a
// heuristic, kept configurable rather than hard-baked.
type Classifier struct {
	model llms.Model
	// codeMarkers are runtime exception names treated as unambiguous
	// code-logic signals; a hit skips the model round-trip entirely.
	codeMarkers []string
}

// DefaultCodeMarkers mirrors the exception vocabulary the repair loop has
// been tuned against.
var DefaultCodeMarkers = []string{"AttributeError", "NameError", "AssertionError"}

// NewClassifier creates a classifier. Empty markers fall back to the
// defaults.
func NewClassifier(model llms.Model, codeMarkers []string) *Classifier {
	if len(codeMarkers) == 0 {
		codeMarkers = DefaultCodeMarkers
	}
	return &Classifier{model: model, codeMarkers: codeMarkers}
}

// IsDependencyIssue classifies raw error text. Marker hit → code issue, no
// model call. Otherwise the model is asked directly, with the build file as
// context, and a "yes" anywhere in the reply means dependency issue.
func (c *Classifier) IsDependencyIssue(ctx context.Context, errorText, dockerFile string) (bool, error) {
	for _, marker := range c.codeMarkers {
		if strings.Contains(errorText, marker) {
			return false, nil
		}
	}

	printHeader("Is it a dependency issue?")
	session := devllm.NewSession(c.model, devllm.SessionOptions{Label: "classify-error"})
	prompt, err := formatTemplate(templateIsDependencyIssue, map[string]any{
		"error":       errorText,
		"docker_file": dockerFile,
	})
	if err != nil {
		return false, err
	}
	answer, err := session.Chat(ctx, prompt)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(answer), "yes"), nil
}
