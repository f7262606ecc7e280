package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// DeployResult contains the result of a deployment run.
// On failure it holds whatever was reached before the failing step.
type DeployResult struct {
	State        models.DeploymentState
	Network      string
	Artifact     *models.Artifact
	Factory      *models.ContractFactory
	Pending      *models.PendingDeployment
	Deployment   *models.Deployment
	Verification models.VerificationOutcome
}

// DeployContract publishes one contract and then tries to verify its source.
// The run succeeds once the deployment is confirmed; verification is best effort.
type DeployContract struct {
	config    *config.RuntimeConfig
	compiler  Compiler
	artifacts ArtifactRepository
	deployer  ContractDeployer
	verifier  ContractVerifier
	confirmer DeploymentConfirmer
	selector  ArtifactSelector
	progress  ProgressSink
}

// NewDeployContract creates a new DeployContract use case
func NewDeployContract(
	cfg *config.RuntimeConfig,
	compiler Compiler,
	artifacts ArtifactRepository,
	deployer ContractDeployer,
	verifier ContractVerifier,
	confirmer DeploymentConfirmer,
	selector ArtifactSelector,
	progress ProgressSink,
) *DeployContract {
	if progress == nil {
		progress = NopProgress{}
	}
	return &DeployContract{
		config:    cfg,
		compiler:  compiler,
		artifacts: artifacts,
		deployer:  deployer,
		verifier:  verifier,
		confirmer: confirmer,
		selector:  selector,
		progress:  progress,
	}
}

// Run executes the deploy-then-verify sequence once.
// It returns a nil error if and only if the deployment was confirmed.
func (uc *DeployContract) Run(ctx context.Context) (*DeployResult, error) {
	result := &DeployResult{
		State:        models.StateStart,
		Verification: models.VerificationSkipped("not attempted"),
	}
	if uc.config.Network != nil {
		result.Network = uc.config.Network.Name
	}

	// Obtain factory
	factory, err := uc.obtainFactory(ctx, result)
	if err != nil {
		result.State = models.StateFactoryError
		return result, err
	}
	result.Factory = factory
	result.State = models.StateFactoryReady

	if err := uc.confirm(ctx, factory); err != nil {
		result.State = models.StateFactoryError
		return result, err
	}

	// Submit deployment
	uc.progress.Info(fmt.Sprintf("Deploying %s to %s ...", factory.Artifact.Name, factory.Network))
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageSubmit,
		Message: "Submitting deployment transaction",
		Spinner: true,
	})

	pending, err := uc.deployer.Submit(ctx, factory)
	if err != nil {
		result.State = models.StateSubmitError
		var submitErr *domain.SubmitError
		if !errors.As(err, &submitErr) {
			err = &domain.SubmitError{Err: err}
		}
		return result, err
	}
	result.Pending = pending
	result.State = models.StateTxSubmitted

	// Await confirmation
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageConfirm,
		Message: fmt.Sprintf("Waiting for confirmation of %s", pending.TxHash.Hex()),
		Spinner: true,
	})

	deployment, err := uc.deployer.AwaitConfirmation(ctx, pending, uc.config.ConfirmationTimeout())
	if err != nil {
		result.State = models.StateConfirmTimeoutOrRevert
		if !domain.IsConfirmationFailure(err) {
			err = &domain.ConfirmationError{TxHash: pending.TxHash.Hex(), Err: err}
		}
		return result, err
	}
	result.Deployment = deployment
	result.State = models.StateConfirmed

	// Report address, exactly once and before verification
	uc.progress.Info(fmt.Sprintf("Deployed: %s", deployment.Address.Hex()))

	// Attempt verification
	result.Verification = uc.verify(ctx, deployment, factory.Artifact)
	result.State = models.StateVerifyAttempted
	reportVerification(uc.progress, result.Verification, deployment)

	result.State = models.StateDone
	return result, nil
}

// obtainFactory validates configuration, optionally builds, loads the
// artifact and binds it to the signer. No transaction is sent.
func (uc *DeployContract) obtainFactory(ctx context.Context, result *DeployResult) (*models.ContractFactory, error) {
	if err := uc.config.Validate(); err != nil {
		return nil, err
	}

	if uc.config.Compile || uc.config.BuildCommand != "" {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageCompile,
			Message: "Compiling contracts",
			Spinner: true,
		})
		if err := uc.compiler.Compile(ctx); err != nil {
			return nil, fmt.Errorf("build failed: %w", err)
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageLoad,
		Message: fmt.Sprintf("Loading artifact for %s", uc.config.ContractName),
	})

	artifact, err := uc.loadArtifact(ctx, uc.config.ContractName)
	if err != nil {
		return nil, err
	}
	result.Artifact = artifact

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StagePrepare,
		Message: fmt.Sprintf("Connecting to %s", uc.config.Network.Name),
		Spinner: true,
	})

	factory, err := uc.deployer.Prepare(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deployment: %w", err)
	}
	return factory, nil
}

// loadArtifact resolves the contract artifact, asking the operator to pick
// one when the name is ambiguous and a terminal is available
func (uc *DeployContract) loadArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	artifact, err := uc.artifacts.GetArtifact(ctx, name)
	if err == nil {
		return artifact, nil
	}

	var ambiguous *domain.AmbiguousArtifactError
	if !errors.As(err, &ambiguous) || uc.selector == nil || uc.config.NonInteractive {
		return nil, err
	}

	uc.awaitInput(ctx, fmt.Sprintf("Choose an artifact for %s", name))
	choice, selErr := uc.selector.SelectArtifact(ctx, name, ambiguous.Matches)
	if selErr != nil {
		if errors.Is(selErr, domain.ErrNotInteractive) {
			return nil, err
		}
		return nil, fmt.Errorf("artifact selection cancelled: %w", selErr)
	}

	return uc.artifacts.GetArtifact(ctx, choice)
}

// confirm asks the operator before sending a transaction to a public chain
func (uc *DeployContract) confirm(ctx context.Context, factory *models.ContractFactory) error {
	if uc.confirmer == nil || uc.config.AssumeYes || uc.config.NonInteractive || config.IsLocalChain(factory.ChainID) {
		return nil
	}

	uc.awaitInput(ctx, fmt.Sprintf("Confirm deployment to %s", factory.Network))
	ok, err := uc.confirmer.ConfirmDeployment(ctx, factory)
	if err != nil {
		if errors.Is(err, domain.ErrNotInteractive) {
			return nil
		}
		return fmt.Errorf("confirmation prompt failed: %w", err)
	}
	if !ok {
		return domain.ErrAborted
	}
	return nil
}

// awaitInput stops the spinner so it does not draw over a prompt
func (uc *DeployContract) awaitInput(ctx context.Context, message string) {
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageInput,
		Message: message,
	})
}

// verify runs the explorer verification under its own deadline
func (uc *DeployContract) verify(ctx context.Context, deployment *models.Deployment, artifact *models.Artifact) models.VerificationOutcome {
	if uc.config.NoVerify {
		return models.VerificationSkipped("disabled with --no-verify")
	}
	if config.IsLocalChain(deployment.ChainID) {
		return models.VerificationSkipped("local chain")
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageVerify,
		Message: fmt.Sprintf("Verifying %s on block explorer", artifact.Name),
		Spinner: true,
	})

	verifyCtx, cancel := context.WithTimeout(ctx, config.DefaultVerificationTimeout)
	defer cancel()

	return uc.verifier.Verify(verifyCtx, deployment, artifact)
}

// reportVerification prints the verification line. Anything other than a
// fresh verification is reported as a warning.
func reportVerification(progress ProgressSink, outcome models.VerificationOutcome, deployment *models.Deployment) {
	switch outcome.Status {
	case models.VerificationStatusVerified:
		target := outcome.URL
		if target == "" {
			target = deployment.Address.Hex()
		}
		progress.Info(fmt.Sprintf("Verified: %s", target))
	case models.VerificationStatusAlreadyVerified:
		progress.Warn("Verification skipped: already verified")
	case models.VerificationStatusSkipped:
		progress.Warn(fmt.Sprintf("Verification skipped: %s", outcome.Detail()))
	default:
		progress.Warn(fmt.Sprintf("ERROR - verify - %s", outcome.Detail()))
	}
}
