package app

import (
	"log/slog"

	"github.com/trebuchet-org/catapult/internal/adapters/blockchain"
	"github.com/trebuchet-org/catapult/internal/adapters/progress"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Progress   progress.Reporter
	Connection *blockchain.Connection

	// Use cases
	DeployContract *usecase.DeployContract
	VerifyContract *usecase.VerifyContract
	ListNetworks   *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	reporter progress.Reporter,
	conn *blockchain.Connection,
	deployContract *usecase.DeployContract,
	verifyContract *usecase.VerifyContract,
	listNetworks *usecase.ListNetworks,
) (*App, error) {
	return &App{
		Config:         cfg,
		Log:            log,
		Progress:       reporter,
		Connection:     conn,
		DeployContract: deployContract,
		VerifyContract: verifyContract,
		ListNetworks:   listNetworks,
	}, nil
}

// Close stops the progress display and releases the RPC connection
func (a *App) Close() {
	if a.Progress != nil {
		a.Progress.Stop()
	}
	if a.Connection != nil {
		a.Connection.Close()
	}
}
