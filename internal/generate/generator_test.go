package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cunhaax/dev-gpt/internal/workspace"
)

var testSpec = Specification{
	Task: "Compress PNG images to webp.",
	Test: "A 100x100 PNG comes back smaller.",
}

// draftModel answers the four candidate-file prompts and records the order
// in which the files were requested.
func draftModel(t *testing.T) *scriptedModel {
	t.Helper()
	return &scriptedModel{respond: func(system, last string) (string, bool) {
		switch {
		case strings.Contains(last, "Implement microservice.py"):
			return fencedFile("microservice.py", "python", "class Compressor:\n    pass"), true
		case strings.Contains(last, "Write test_microservice.py"):
			return fencedFile("test_microservice.py", "python", "def test_smaller():\n    assert True"), true
		case strings.Contains(last, "Write requirements.txt"):
			return fencedFile("requirements.txt", "text", "pillow==10.0.0"), true
		case strings.Contains(last, "Write Dockerfile"):
			return fencedFile("Dockerfile", "dockerfile", "FROM python:3.11"), true
		}
		return "", false
	}}
}

func TestGenerateMicroservice_WritesVersionOne(t *testing.T) {
	root := t.TempDir()
	model := draftModel(t)
	generator := NewGenerator(model, testSpec)

	err := generator.GenerateMicroservice(context.Background(), root, "PngCompressor123", []string{"pillow"}, 0)
	require.NoError(t, err)

	versionDir := workspace.VersionPath(root, "PngCompressor123", []string{"pillow"}, 0, 1)
	files, err := workspace.ReadAll(versionDir)
	require.NoError(t, err)

	assert.Equal(t, "class Compressor:\n    pass", files["microservice.py"])
	assert.Equal(t, "def test_smaller():\n    assert True", files["test_microservice.py"])
	assert.Equal(t, "pillow==10.0.0", files["requirements.txt"])
	assert.Equal(t, "FROM python:3.11", files["Dockerfile"])
	assert.Equal(t,
		"jtype: PngCompressor123\npy_modules:\n  - microservice.py\nmetas:\n  name: PngCompressor123\n",
		files["config.yml"])
}

func TestGenerateMicroservice_OrderAndAccumulatedContext(t *testing.T) {
	root := t.TempDir()
	model := draftModel(t)
	generator := NewGenerator(model, testSpec)

	err := generator.GenerateMicroservice(context.Background(), root, "Svc1", []string{"pillow"}, 0)
	require.NoError(t, err)

	require.Len(t, model.calls, 4)
	assert.Contains(t, model.calls[0].last, "Implement microservice.py")
	assert.Contains(t, model.calls[1].last, "Write test_microservice.py")
	assert.Contains(t, model.calls[2].last, "Write requirements.txt")
	assert.Contains(t, model.calls[3].last, "Write Dockerfile")

	// Each later request carries every earlier artifact.
	assert.Contains(t, model.calls[1].last, "class Compressor")
	assert.True(t, containsAll(model.calls[2].last, "class Compressor", "def test_smaller"))
	assert.True(t, containsAll(model.calls[3].last, "class Compressor", "def test_smaller", "pillow==10.0.0"))

	// The allowed package set reaches the source request.
	assert.Contains(t, model.calls[0].last, "pillow")
	// The specification travels in the system message of every request.
	for _, call := range model.calls {
		assert.Contains(t, call.system, testSpec.Task)
		assert.Contains(t, call.system, testSpec.Test)
	}
}

func TestGenerateMicroservice_NudgesOnceOnMissingBlock(t *testing.T) {
	root := t.TempDir()
	attempts := 0
	model := &scriptedModel{respond: func(system, last string) (string, bool) {
		switch {
		case strings.Contains(last, "Implement microservice.py"):
			attempts++
			return "Sure, I will write that for you shortly.", true
		case strings.Contains(last, "You must add the content for microservice.py."):
			attempts++
			return fencedFile("microservice.py", "python", "pass"), true
		case strings.Contains(last, "Write test_microservice.py"):
			return fencedFile("test_microservice.py", "python", "assert True"), true
		case strings.Contains(last, "Write requirements.txt"):
			return fencedFile("requirements.txt", "text", "pillow==10.0.0"), true
		case strings.Contains(last, "Write Dockerfile"):
			return fencedFile("Dockerfile", "dockerfile", "FROM python:3.11"), true
		}
		return "", false
	}}

	generator := NewGenerator(model, testSpec)
	err := generator.GenerateMicroservice(context.Background(), root, "Svc1", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	versionDir := workspace.VersionPath(root, "Svc1", nil, 0, 1)
	content, err := os.ReadFile(filepath.Join(versionDir, "microservice.py"))
	require.NoError(t, err)
	assert.Equal(t, "pass", string(content))
}

func TestGenerateName(t *testing.T) {
	model := &scriptedModel{respond: func(system, last string) (string, bool) {
		if strings.Contains(last, "Suggest a short CamelCase name") {
			return fencedFile("name.txt", "text", "PngCompressor"), true
		}
		return "", false
	}}
	generator := NewGenerator(model, testSpec)

	name, err := generator.GenerateName(context.Background(), testSpec.Task)
	require.NoError(t, err)
	assert.Equal(t, "PngCompressor", name)
}

func TestGenerateName_MissingBlock(t *testing.T) {
	model := &scriptedModel{respond: func(system, last string) (string, bool) {
		return "How about PngCompressor?", true
	}}
	generator := NewGenerator(model, testSpec)

	_, err := generator.GenerateName(context.Background(), testSpec.Task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name.txt")
}

func TestPossiblePackages(t *testing.T) {
	model := &scriptedModel{respond: func(system, last string) (string, bool) {
		if strings.Contains(last, "Propose up to") {
			return fencedFile("packages.json", "json", `[["pillow"], ["opencv-python", "numpy"], ["imageio"]]`), true
		}
		return "", false
	}}
	generator := NewGenerator(model, testSpec)

	sets, err := generator.PossiblePackages(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"pillow"}, {"opencv-python", "numpy"}, {"imageio"}}, sets)
}

func TestPossiblePackages_TruncatesToStrategyCount(t *testing.T) {
	model := &scriptedModel{respond: func(system, last string) (string, bool) {
		return fencedFile("packages.json", "json", `[["a"], ["b"], ["c"], ["d"]]`), true
	}}
	generator := NewGenerator(model, testSpec)

	sets, err := generator.PossiblePackages(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, sets)
}

func TestPossiblePackages_RepairsMalformedJSON(t *testing.T) {
	model := &scriptedModel{respond: func(system, last string) (string, bool) {
		// Trailing comma: invalid JSON that the repair path can fix.
		return fencedFile("packages.json", "json", `[["pillow"], ["numpy"],]`), true
	}}
	generator := NewGenerator(model, testSpec)

	sets, err := generator.PossiblePackages(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"pillow"}, {"numpy"}}, sets)
}

func TestWriteConfigDescriptor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteConfigDescriptor(dir, "GatewayPngSvc", "custom_gateway.py"))

	content, err := os.ReadFile(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Equal(t,
		"jtype: GatewayPngSvc\npy_modules:\n  - custom_gateway.py\nmetas:\n  name: GatewayPngSvc\n",
		string(content))
}
