package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// VerifyContract verifies the source of an already deployed contract
type VerifyContract struct {
	config    *config.RuntimeConfig
	artifacts ArtifactRepository
	checker   BlockchainChecker
	verifier  ContractVerifier
	progress  ProgressSink
}

// NewVerifyContract creates a new verify contract use case
func NewVerifyContract(
	cfg *config.RuntimeConfig,
	artifacts ArtifactRepository,
	checker BlockchainChecker,
	verifier ContractVerifier,
	progress ProgressSink,
) *VerifyContract {
	if progress == nil {
		progress = NopProgress{}
	}
	return &VerifyContract{
		config:    cfg,
		artifacts: artifacts,
		checker:   checker,
		verifier:  verifier,
		progress:  progress,
	}
}

// VerifyContractParams contains options for verification
type VerifyContractParams struct {
	Address string
}

// VerifyContractResult contains the result of verification
type VerifyContractResult struct {
	Deployment *models.Deployment
	Artifact   *models.Artifact
	Outcome    models.VerificationOutcome
}

// Run verifies params.Address against the configured contract artifact.
// A failed verification is returned as ErrVerificationFailed; an already
// verified contract is not an error.
func (uc *VerifyContract) Run(ctx context.Context, params VerifyContractParams) (*VerifyContractResult, error) {
	if err := uc.config.ValidateReadOnly(); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(params.Address) {
		return nil, &domain.ConfigError{
			Fields: []string{"address"},
			Reason: fmt.Sprintf("'%s' is not a hex address", params.Address),
		}
	}
	address := common.HexToAddress(params.Address)

	artifact, err := uc.artifacts.GetArtifact(ctx, uc.config.ContractName)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StagePrepare,
		Message: fmt.Sprintf("Connecting to %s", uc.config.Network.Name),
		Spinner: true,
	})

	chainID, err := uc.checker.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if uc.config.Network.ChainID != 0 && uc.config.Network.ChainID != chainID {
		return nil, fmt.Errorf("%w: %s is configured as %d but the RPC reports %d",
			domain.ErrChainIDMismatch, uc.config.Network.Name, uc.config.Network.ChainID, chainID)
	}

	exists, err := uc.checker.CheckDeploymentExists(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to check deployment: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoCode, address.Hex())
	}

	result := &VerifyContractResult{
		Deployment: &models.Deployment{
			ContractName: artifact.Name,
			Address:      address,
			ChainID:      chainID,
			Network:      uc.config.Network.Name,
			ConfirmedAt:  time.Now(),
		},
		Artifact: artifact,
	}

	if config.IsLocalChain(chainID) {
		result.Outcome = models.VerificationSkipped("local chain")
		reportVerification(uc.progress, result.Outcome, result.Deployment)
		return result, nil
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageVerify,
		Message: fmt.Sprintf("Verifying %s at %s", artifact.Name, address.Hex()),
		Spinner: true,
	})

	verifyCtx, cancel := context.WithTimeout(ctx, config.DefaultVerificationTimeout)
	defer cancel()

	result.Outcome = uc.verifier.Verify(verifyCtx, result.Deployment, artifact)
	reportVerification(uc.progress, result.Outcome, result.Deployment)

	if result.Outcome.Status == models.VerificationStatusFailed {
		return result, fmt.Errorf("%w: %s", domain.ErrVerificationFailed, result.Outcome.Detail())
	}
	return result, nil
}
