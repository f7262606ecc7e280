package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/trebuchet-org/catapult/internal/usecase"
)

// PlainProgressReporter prints report lines without terminal effects.
// Stage changes only go to the debug log.
type PlainProgressReporter struct {
	out io.Writer
	log *slog.Logger
}

// NewPlainProgressReporter creates a reporter for pipes and CI logs
func NewPlainProgressReporter(out io.Writer, log *slog.Logger) *PlainProgressReporter {
	return &PlainProgressReporter{
		out: out,
		log: log.With("component", "Progress"),
	}
}

// OnProgress logs the stage change
func (r *PlainProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.log.Debug(event.Message, "stage", event.Stage)
}

// Info prints an info message
func (r *PlainProgressReporter) Info(message string) {
	_, _ = fmt.Fprintln(r.out, message)
}

// Warn prints a warning
func (r *PlainProgressReporter) Warn(message string) {
	_, _ = fmt.Fprintln(r.out, "⚠️  "+message)
}

// Error prints an error message
func (r *PlainProgressReporter) Error(message string) {
	_, _ = fmt.Fprintln(r.out, message)
}

// Stop does nothing
func (r *PlainProgressReporter) Stop() {}

var _ usecase.ProgressSink = (*PlainProgressReporter)(nil)
