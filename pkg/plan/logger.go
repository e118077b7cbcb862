package plan

import "github.com/pterm/pterm"

// Logger reports planner progress and skipped/destructive-change
// decisions. A process-wide logger handle is optional elsewhere in the
// system; the planner takes one explicitly rather than reaching for
// global state.
type Logger interface {
	LogTableStart(schema, table string)
	LogTableComplete(schema, table string, statementCount int)
	LogSkipped(object, reason string)
	Info(msg string, args ...any)
}

type ptermLogger struct {
	logger pterm.Logger
}

// NewLogger returns a Logger backed by pterm's default structured logger.
func NewLogger() Logger {
	return &ptermLogger{logger: pterm.DefaultLogger}
}

func (l *ptermLogger) LogTableStart(schema, table string) {
	l.logger.Info("planning table", l.logger.Args("schema", schema, "table", table))
}

func (l *ptermLogger) LogTableComplete(schema, table string, statementCount int) {
	l.logger.Info("planned table", l.logger.Args("schema", schema, "table", table, "statements", statementCount))
}

func (l *ptermLogger) LogSkipped(object, reason string) {
	l.logger.Warn("skipped destructive change", l.logger.Args("object", object, "reason", reason))
}

func (l *ptermLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args))
}

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything, for tests.
func NewNoopLogger() Logger { return &noopLogger{} }

func (l *noopLogger) LogTableStart(schema, table string)                   {}
func (l *noopLogger) LogTableComplete(schema, table string, statements int) {}
func (l *noopLogger) LogSkipped(object, reason string)                     {}
func (l *noopLogger) Info(msg string, args ...any)                         {}
