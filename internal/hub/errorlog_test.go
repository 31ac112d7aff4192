package hub

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractError_CleanLog(t *testing.T) {
	buildLog := "Step 1/5 : FROM python:3.11\nStep 2/5 : COPY . /app\nSuccessfully built 1a2b3c"
	assert.Equal(t, "", ExtractError(buildLog))
}

func TestExtractError_EmptyLog(t *testing.T) {
	assert.Equal(t, "", ExtractError(""))
	assert.Equal(t, "", ExtractError("   \n \n"))
}

func TestExtractError_Traceback(t *testing.T) {
	buildLog := strings.Join([]string{
		"Step 4/5 : RUN python test_microservice.py",
		"Traceback (most recent call last):",
		`  File "microservice.py", line 3, in <module>`,
		"    import dlib",
		"ModuleNotFoundError: No module named 'dlib'",
		"",
		"trailing noise after the blank line",
	}, "\n")

	got := ExtractError(buildLog)
	assert.Contains(t, got, "Traceback (most recent call last):")
	assert.Contains(t, got, "ModuleNotFoundError: No module named 'dlib'")
	assert.NotContains(t, got, "trailing noise")
	assert.NotContains(t, got, "Step 4/5")
}

func TestExtractError_LastTracebackWins(t *testing.T) {
	buildLog := strings.Join([]string{
		"Traceback (most recent call last):",
		"NameError: name 'foo' is not defined",
		"",
		"retrying",
		"Traceback (most recent call last):",
		"AssertionError: expected 3 got 2",
	}, "\n")

	got := ExtractError(buildLog)
	assert.Contains(t, got, "AssertionError")
	assert.NotContains(t, got, "NameError")
}

func TestExtractError_ErrorLinesFallback(t *testing.T) {
	buildLog := strings.Join([]string{
		"Collecting pillow",
		"ERROR: Could not find a version that satisfies the requirement pillow==99.0",
		"Installing collected packages",
		"failed to build image",
	}, "\n")

	got := ExtractError(buildLog)
	assert.Contains(t, got, "ERROR: Could not find a version")
	assert.Contains(t, got, "failed to build image")
	assert.NotContains(t, got, "Collecting pillow")
}

func TestExtractError_CapsLongTracebacks(t *testing.T) {
	lines := []string{"Traceback (most recent call last):"}
	for i := 0; i < 200; i++ {
		lines = append(lines, `  File "microservice.py", line 1, in <module>`)
	}
	got := ExtractError(strings.Join(lines, "\n"))
	assert.LessOrEqual(t, len(strings.Split(got, "\n")), maxErrorLines)
}

func TestWarnIfTokenExpiring_DoesNotPanic(t *testing.T) {
	// These paths only log; the point is that opaque and malformed tokens
	// are tolerated.
	WarnIfTokenExpiring("")
	WarnIfTokenExpiring("opaque-token-value")
	WarnIfTokenExpiring("a.b")
}
