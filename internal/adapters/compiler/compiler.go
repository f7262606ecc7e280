package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// BuildAdapter runs the project build tool before artifacts are loaded
type BuildAdapter struct {
	log          *slog.Logger
	projectRoot  string
	buildCommand string
	layout       models.ArtifactLayout
	debug        bool
	stdout       io.Writer
	startPTY     func(*exec.Cmd) (*os.File, error)
}

// NewBuildAdapter creates a new build adapter
func NewBuildAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *BuildAdapter {
	return &BuildAdapter{
		log:          log.With("component", "BuildAdapter"),
		projectRoot:  cfg.ProjectRoot,
		buildCommand: cfg.BuildCommand,
		layout:       cfg.Layout,
		debug:        cfg.Debug,
		stdout:       os.Stdout,
		startPTY:     pty.Start,
	}
}

// Command returns the build command line
func (b *BuildAdapter) Command() []string {
	if b.buildCommand != "" {
		return []string{"sh", "-c", b.buildCommand}
	}
	if b.layout == models.LayoutFoundry {
		return []string{"forge", "build", "--build-info"}
	}
	return []string{"npx", "hardhat", "compile"}
}

// Compile runs the build tool in the project root
func (b *BuildAdapter) Compile(ctx context.Context) error {
	args := b.Command()
	start := time.Now()
	b.log.Debug("running build", "command", strings.Join(args, " "), "dir", b.projectRoot)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = b.projectRoot

	if b.debug {
		if err := b.stream(ctx, cmd); err != nil {
			return fmt.Errorf("%s failed: %w", args[0], err)
		}
		b.log.Debug("build completed successfully", "duration", time.Since(start))
		return nil
	}

	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if err != nil {
		b.log.Error("build failed", "error", err, "output", string(output), "duration", duration)
		return fmt.Errorf("%s failed: %w\nOutput: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}

	b.log.Debug("build completed successfully", "duration", duration)
	return nil
}

// stream copies build output to stdout, through a PTY when possible so the
// tool keeps its colors
func (b *BuildAdapter) stream(ctx context.Context, cmd *exec.Cmd) error {
	ptyFile, err := b.startPTY(cmd)
	if err != nil {
		b.log.Debug("pty unavailable, streaming plain output", "error", err)
		plain := exec.CommandContext(ctx, cmd.Path, cmd.Args[1:]...)
		plain.Dir = cmd.Dir
		plain.WaitDelay = time.Second
		plain.Stdout = b.stdout
		plain.Stderr = b.stdout
		return plain.Run()
	}
	defer func() {
		// Close PTY after command finishes to avoid read errors
		_ = ptyFile.Close()
	}()

	_, _ = io.Copy(b.stdout, ptyFile)
	return cmd.Wait()
}

var _ usecase.Compiler = (*BuildAdapter)(nil)
