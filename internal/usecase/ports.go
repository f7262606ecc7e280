package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ArtifactRepository provides access to compiled contracts.
// name is either a bare contract name or a sourceName:ContractName reference.
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
}

// Compiler runs the project build tool
type Compiler interface {
	Compile(ctx context.Context) error
}

// ContractDeployer publishes a contract-creation transaction and waits for it
type ContractDeployer interface {
	// Prepare binds the artifact to the configured signer and chain.
	// No transaction is sent.
	Prepare(ctx context.Context, artifact *models.Artifact) (*models.ContractFactory, error)
	// Submit signs and sends the creation transaction and returns without waiting
	Submit(ctx context.Context, factory *models.ContractFactory) (*models.PendingDeployment, error)
	// AwaitConfirmation blocks until the transaction is mined with the
	// configured number of confirmations, or until timeout elapses
	AwaitConfirmation(ctx context.Context, pending *models.PendingDeployment, timeout time.Duration) (*models.Deployment, error)
}

// ContractVerifier publishes contract source on a block explorer.
// Failures are part of the outcome, never returned as an error.
type ContractVerifier interface {
	Verify(ctx context.Context, deployment *models.Deployment, artifact *models.Artifact) models.VerificationOutcome
}

// BlockchainChecker checks on-chain state of already deployed contracts
type BlockchainChecker interface {
	ChainID(ctx context.Context) (uint64, error)
	CheckDeploymentExists(ctx context.Context, address common.Address) (exists bool, err error)
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// ExplorerResolver returns the explorer API URL configured for a network
type ExplorerResolver interface {
	ExplorerAPIURL(ctx context.Context, networkName string) string
}

// DeploymentConfirmer asks the operator to approve an irreversible transaction
type DeploymentConfirmer interface {
	ConfirmDeployment(ctx context.Context, factory *models.ContractFactory) (bool, error)
}

// ArtifactSelector lets the operator pick one of several matching artifacts
type ArtifactSelector interface {
	SelectArtifact(ctx context.Context, name string, matches []string) (string, error)
}

// Progress tracking interfaces

// Progress stages reported by the deploy and verify use cases
const (
	StageCompile = "compile"
	StageLoad    = "load"
	StagePrepare = "prepare"
	StageSubmit  = "submit"
	StageConfirm = "confirm"
	StageVerify  = "verify"
	// StageInput pauses progress output while the operator answers a prompt
	StageInput = "input"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Message string
	Spinner bool
}

// ProgressSink receives progress events and the console report lines
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Warn(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Warn(string)                               {}
func (NopProgress) Error(string)                              {}
