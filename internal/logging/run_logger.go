package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunLogger captures the full transcript of one generation run: every prompt
// sent to the model, every response, and the pipeline's own progress notes.
// One log file per run under run_logs/.
type RunLogger struct {
	runID     string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
	verbose   bool
}

var (
	currentLogger *RunLogger
	loggerMutex   sync.Mutex
)

// Setup configures the global zerolog console writer. verbose switches to
// debug level.
func Setup(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

// StartRunLogging opens a new transcript file for a generation run and makes
// it the current logger. A previous logger, if any, is closed first.
func StartRunLogging(runID string, verbose bool) (*RunLogger, error) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if currentLogger != nil {
		currentLogger.Close()
	}

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join("run_logs", fmt.Sprintf("run_%s_%s.log", runID, timestamp))

	if err := os.MkdirAll("run_logs", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &RunLogger{
		runID:     runID,
		logFile:   logFile,
		startTime: time.Now(),
		verbose:   verbose,
	}
	currentLogger = logger

	logger.Log("dev-gpt run %s started", runID)
	return logger, nil
}

// GetCurrentLogger returns the active run logger, or nil when no run is in
// progress. All methods are nil-safe.
func GetCurrentLogger() *RunLogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	return currentLogger
}

// Log writes a timestamped message to the run log.
func (r *RunLogger) Log(format string, args ...interface{}) {
	if r == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(r.startTime)
	message := fmt.Sprintf("[%s] [+%v] %s\n", timestamp, elapsed.Round(time.Millisecond), fmt.Sprintf(format, args...))
	r.logFile.WriteString(message)
	r.logFile.Sync()

	if r.verbose {
		log.Debug().Msg(strings.TrimSuffix(message, "\n"))
	}
}

// LogSection writes a section header to the log.
func (r *RunLogger) LogSection(title string) {
	if r == nil {
		return
	}
	separator := strings.Repeat("=", 80)
	r.Log("%s", separator)
	r.Log("= %s", title)
	r.Log("%s", separator)
}

// LogRequest logs an outgoing model request transcript.
func (r *RunLogger) LogRequest(label, role, prompt string) {
	if r == nil {
		return
	}
	r.LogSection(fmt.Sprintf("LLM REQUEST - %s", label))
	r.Log("Role: %s", role)
	r.Log("Prompt length: %d characters", len(prompt))
	r.Log("--- PROMPT START ---")
	r.writeRaw(prompt)
	r.Log("--- PROMPT END ---")
}

// LogResponse logs a model response transcript.
func (r *RunLogger) LogResponse(label, response string) {
	if r == nil {
		return
	}
	r.LogSection(fmt.Sprintf("LLM RESPONSE - %s", label))
	r.Log("Response length: %d characters", len(response))
	r.Log("--- RESPONSE START ---")
	r.writeRaw(response)
	r.Log("--- RESPONSE END ---")
}

// LogError logs an error with its surrounding context.
func (r *RunLogger) LogError(context string, err error) {
	if r == nil {
		return
	}
	r.Log("ERROR in %s: %v", context, err)
}

func (r *RunLogger) writeRaw(content string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.logFile.WriteString(content + "\n")
}

// Close finalizes the log file.
func (r *RunLogger) Close() {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.logFile != nil {
		elapsed := time.Since(r.startTime)
		r.logFile.WriteString(fmt.Sprintf("run %s finished after %v\n", r.runID, elapsed.Round(time.Millisecond)))
		r.logFile.Close()
		r.logFile = nil
	}
}
