package interactive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
	"golang.org/x/term"
)

// SelectorAdapter handles interactive selection and confirmation
type SelectorAdapter struct {
	config        *config.RuntimeConfig
	isInteractive func() bool
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{
		config: cfg,
		isInteractive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

func (s *SelectorAdapter) interactive() bool {
	return !s.config.NonInteractive && s.isInteractive()
}

// SelectArtifact lets the operator pick one of several artifacts matching name
func (s *SelectorAdapter) SelectArtifact(ctx context.Context, name string, matches []string) (string, error) {
	if !s.interactive() {
		return "", domain.ErrNotInteractive
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no artifacts provided for selection")
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	options := formatArtifactOptions(matches)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             fmt.Sprintf("Multiple artifacts named %s", name),
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(matches),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}

	return matches[index], nil
}

// ConfirmDeployment shows what is about to be sent and asks for approval
func (s *SelectorAdapter) ConfirmDeployment(ctx context.Context, factory *models.ContractFactory) (bool, error) {
	if !s.interactive() {
		return false, domain.ErrNotInteractive
	}

	prompt := promptui.Prompt{
		Label: fmt.Sprintf("Deploy %s to %s (chain %d) from %s",
			color.New(color.Bold).Sprint(factory.Artifact.Name),
			color.New(color.FgCyan).Sprint(factory.Network),
			factory.ChainID,
			factory.Deployer.Hex()),
		IsConfirm: true,
	}

	if _, err := prompt.Run(); err != nil {
		// promptui returns ErrAbort when the answer is not "y"
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

// formatArtifactOptions creates display strings for artifact selection
func formatArtifactOptions(matches []string) []string {
	options := make([]string, len(matches))
	for i, match := range matches {
		// Format as "ContractName (path/to/file.sol)"
		source, name, found := strings.Cut(match, ":")
		if !found {
			options[i] = match
			continue
		}

		contractName := color.New(color.FgWhite, color.Bold).Sprint(name)
		pathStr := color.New(color.FgBlue).Sprint(source)
		options[i] = fmt.Sprintf("%s (%s)", contractName, pathStr)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		// Convert to lowercase for case-insensitive search
		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		// First try simple substring match
		if strings.Contains(item, input) {
			return true
		}

		// Then try fuzzy match
		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interfaces
var (
	_ usecase.ArtifactSelector    = (*SelectorAdapter)(nil)
	_ usecase.DeploymentConfirmer = (*SelectorAdapter)(nil)
)
