package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/cunhaax/dev-gpt/internal/extract"
	devllm "github.com/cunhaax/dev-gpt/internal/llm"
	"github.com/cunhaax/dev-gpt/internal/logging"
	"github.com/cunhaax/dev-gpt/internal/workspace"
)

// ErrMaxDebugIterations signals bounded-retry exhaustion for one approach.
// The approach selector recovers from it by moving on; nothing else should
// swallow it.
var ErrMaxDebugIterations = errors.New("maximum debugging iterations reached")

// NotPublishedError reports a build that produced no error log yet whose
// executor never appeared in the registry. Retrying cannot fix that, so it
// aborts the approach immediately.
type NotPublishedError struct {
	Name string
	Log  string
}

func (e *NotPublishedError) Error() string {
	return fmt.Sprintf("%s not in hub despite clean build log; hub log: %s", e.Name, e.Log)
}

// Builder is the remote build collaborator the loop needs: push a candidate
// directory and get the raw log back, and check registry presence.
type Builder interface {
	Push(ctx context.Context, dir string) (string, error)
	IsPublished(ctx context.Context, name string) (bool, error)
}

// DebugLoop drives bounded repair iterations for one approach. Iteration i
// is pushed; on error a complete successor version i+1 is written; existing
// versions are never touched again.
type DebugLoop struct {
	model         llms.Model
	builder       Builder
	extractError  func(string) string
	classifier    *Classifier
	spec          Specification
	maxIterations int
}

// NewDebugLoop wires the loop. extractError maps a raw build log to error
// text, "" meaning clean.
func NewDebugLoop(
	model llms.Model,
	builder Builder,
	extractError func(string) string,
	classifier *Classifier,
	spec Specification,
	maxIterations int,
) *DebugLoop {
	return &DebugLoop{
		model:         model,
		builder:       builder,
		extractError:  extractError,
		classifier:    classifier,
		spec:          spec,
		maxIterations: maxIterations,
	}
}

// Debug pushes iterations until one builds and is published, returning that
// version's path. It performs at most maxIterations-1 repairs; reaching the
// bound with errors still occurring returns ErrMaxDebugIterations.
func (d *DebugLoop) Debug(ctx context.Context, root, name string, approach int, packages []string) (string, error) {
	logger := logging.GetCurrentLogger()

	for i := 1; i < d.maxIterations; i++ {
		fmt.Println("Debugging iteration", i)
		fmt.Println("Trying to debug the microservice. Might take a while...")

		currentPath := workspace.VersionPath(root, name, packages, approach, i)
		buildLog, err := d.builder.Push(ctx, currentPath)
		if err != nil {
			return "", fmt.Errorf("failed to push iteration %d: %w", i, err)
		}

		errorText := d.extractError(buildLog)
		if errorText == "" {
			published, err := d.builder.IsPublished(ctx, name)
			if err != nil {
				return "", err
			}
			if !published {
				return "", &NotPublishedError{Name: name, Log: buildLog}
			}
			printSuccess("Successfully built microservice.")
			return currentPath, nil
		}

		fmt.Println("An error occurred during the build process. Feeding the error back to the assistant...")
		logger.Log("Iteration %d failed: %s", i, errorText)

		nextPath := workspace.VersionPath(root, name, packages, approach, i+1)
		if err := d.repairIteration(ctx, errorText, currentPath, nextPath); err != nil {
			return "", err
		}
	}

	return "", ErrMaxDebugIterations
}

// repairIteration writes the complete successor version: dependency repairs
// may only replace requirements.txt and Dockerfile, code repairs may replace
// any recognized file, everything else is carried forward byte-identical.
func (d *DebugLoop) repairIteration(ctx context.Context, errorText, previousPath, nextPath string) error {
	if err := workspace.EnsureVersionDir(nextPath); err != nil {
		return err
	}
	files, err := workspace.ReadAll(previousPath)
	if err != nil {
		return err
	}

	summarized, err := d.summarizeError(ctx, errorText)
	if err != nil {
		return err
	}
	isDependency, err := d.classifier.IsDependencyIssue(ctx, errorText, files["Dockerfile"])
	if err != nil {
		return err
	}

	var query string
	if isDependency {
		query, err = formatTemplate(templateSolveDependencyIssue, map[string]any{
			"summarized_error": summarized,
			"all_files_string": extract.RenderFiles(files, []string{"requirements.txt", "Dockerfile"}),
		})
	} else {
		query, err = formatTemplate(templateSolveCodeIssue, map[string]any{
			"task_description": d.spec.Task,
			"test_description": d.spec.Test,
			"summarized_error": summarized,
			"all_files_string": extract.RenderFiles(files, nil),
		})
	}
	if err != nil {
		return err
	}

	session := devllm.NewSession(d.model, devllm.SessionOptions{Label: "repair"})
	returned, err := session.Chat(ctx, query)
	if err != nil {
		return err
	}

	for _, kind := range extract.FileKinds {
		updated := extract.Block(returned, kind.Name, false)
		if updated == "" {
			continue
		}
		if isDependency && kind.Name != "requirements.txt" && kind.Name != "Dockerfile" {
			continue
		}
		files[kind.Name] = updated
		fmt.Printf("Updated %s\n", kind.Name)
	}

	for fileName, content := range files {
		if err := workspace.PersistFile(nextPath, fileName, content); err != nil {
			return err
		}
	}
	return nil
}

// summarizeError condenses raw error text through a dedicated one-shot turn
// so repair prompts stay small.
func (d *DebugLoop) summarizeError(ctx context.Context, errorText string) (string, error) {
	session := devllm.NewSession(d.model, devllm.SessionOptions{Label: "summarize-error"})
	prompt, err := formatTemplate(templateSummarizeError, map[string]any{"error": errorText})
	if err != nil {
		return "", err
	}
	return session.Chat(ctx, prompt)
}
