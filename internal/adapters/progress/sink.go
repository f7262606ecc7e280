package progress

import (
	"log/slog"
	"os"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
	"golang.org/x/term"
)

// Reporter is a ProgressSink that must be stopped when the command ends
type Reporter interface {
	usecase.ProgressSink
	Stop()
}

// NewReporter picks the spinner on an interactive terminal and plain lines otherwise.
// Report lines always go to stdout.
func NewReporter(cfg *config.RuntimeConfig, log *slog.Logger) Reporter {
	if cfg.NonInteractive || cfg.Debug || !term.IsTerminal(int(os.Stdout.Fd())) {
		return NewPlainProgressReporter(os.Stdout, log)
	}
	return NewSpinnerProgressReporter(os.Stdout, os.Stderr)
}

// NewProgressSink provides the reporter as the use case progress port
func NewProgressSink(reporter Reporter) usecase.ProgressSink {
	return reporter
}
