// Package audit keeps a trail of the diagnostics produced by the engine.
package audit

import (
	"coach/internal/diagnostic"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Trail records produced diagnostics.
type Trail interface {
	Append(d diagnostic.Diagnostic)
	Close() error
}

// JSONTrail is a thread-safe trail writing each diagnostic to a JSON lines file with
// rotation and compression via lumberjack. Suitable for long-term collection.
type JSONTrail struct {
	lumberjack *lumberjack.Logger
	logger     *slog.Logger
}

// NewJSONTrail creates a trail writing to file.
// maxSize is the size in MB before rotation, maxBackups the number of old files kept.
func NewJSONTrail(file string, maxSize, maxBackups int) *JSONTrail {
	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return &JSONTrail{
		lumberjack: rotating,
		logger:     slog.New(newJSONLineHandler(rotating)),
	}
}

// Append records d with its evaluation and project identifiers.
func (t *JSONTrail) Append(d diagnostic.Diagnostic) {
	t.logger.Info("", "evaluation", d.EvaluationID, "project", d.ProjectID, "diagnostic", d)
}

// Close closes the underlying file. Should be called when shutting down.
func (t *JSONTrail) Close() error {
	return t.lumberjack.Close()
}

// Discard is a trail dropping everything, used when no audit file is configured.
type Discard struct{}

// Append implements Trail.
func (Discard) Append(diagnostic.Diagnostic) {}

// Close implements Trail.
func (Discard) Close() error {
	return nil
}
