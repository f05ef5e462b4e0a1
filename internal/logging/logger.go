// Package logging provides categorized file-based logging for the cohort
// engine. Logs are written to one file per category under the configured
// directory. Logging is disabled by default so that report output stays
// deterministic; the CLI enables it from config.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryEngine     Category = "engine"     // Run orchestration, session state
	CategoryPreprocess Category = "preprocess" // Imputation, encoding, scaling, PCA
	CategoryCluster    Category = "cluster"    // Method selection, tuning, fitting
	CategoryProfile    Category = "profile"    // Group statistics, reports
	CategoryCategory   Category = "category"   // Rule engine, classifier
	CategoryStore      Category = "store"      // Run history persistence
)

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers    = make(map[Category]*Logger)
	loggersMu  sync.RWMutex
	logsDir    string
	enabled    bool
	logLevel   int
	categories map[string]bool
	stateMu    sync.RWMutex
)

// Options controls logger initialization.
type Options struct {
	Directory  string
	Level      string // "debug" or "info"
	Categories map[string]bool
}

// Initialize sets up the logging directory. A nil options value or an
// unset directory leaves logging disabled (every call becomes a no-op).
func Initialize(opts *Options) error {
	stateMu.Lock()
	defer stateMu.Unlock()

	if opts == nil || opts.Directory == "" {
		enabled = false
		return nil
	}

	if err := os.MkdirAll(opts.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	logsDir = opts.Directory
	categories = opts.Categories
	if opts.Level == "debug" {
		logLevel = LevelDebug
	} else {
		logLevel = LevelInfo
	}
	enabled = true
	return nil
}

// IsEnabled reports whether logging is active.
func IsEnabled() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return enabled
}

// isCategoryEnabled returns whether a specific category is enabled.
func isCategoryEnabled(category Category) bool {
	stateMu.RLock()
	defer stateMu.RUnlock()

	if !enabled {
		return false
	}
	if categories == nil {
		return true
	}
	on, exists := categories[string(category)]
	if !exists {
		return true
	}
	return on
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger when logging or the category is disabled.
func Get(category Category) *Logger {
	if !isCategoryEnabled(category) {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	path := filepath.Join(logsDir, string(category)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		// Fall back to a no-op logger rather than failing the caller.
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		logger:   log.New(f, "", log.LstdFlags|log.Lmicroseconds),
		file:     f,
	}
	loggers[category] = l
	return l
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[INFO] "+format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] "+format, args...)
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience helpers, one pair per category.

func Engine(format string, args ...interface{})      { Get(CategoryEngine).Info(format, args...) }
func EngineDebug(format string, args ...interface{}) { Get(CategoryEngine).Debug(format, args...) }
func Preprocess(format string, args ...interface{})  { Get(CategoryPreprocess).Info(format, args...) }
func PreprocessDebug(format string, args ...interface{}) {
	Get(CategoryPreprocess).Debug(format, args...)
}
func Cluster(format string, args ...interface{})      { Get(CategoryCluster).Info(format, args...) }
func ClusterDebug(format string, args ...interface{}) { Get(CategoryCluster).Debug(format, args...) }
func Profile(format string, args ...interface{})      { Get(CategoryProfile).Info(format, args...) }
func ProfileDebug(format string, args ...interface{}) { Get(CategoryProfile).Debug(format, args...) }
func Categorize(format string, args ...interface{})   { Get(CategoryCategory).Info(format, args...) }
func CategorizeDebug(format string, args ...interface{}) {
	Get(CategoryCategory).Debug(format, args...)
}
func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// Timer measures the duration of an operation and logs it on Stop.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// Stop ends timing and logs the elapsed duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s took %v", t.operation, elapsed)
	return elapsed
}
