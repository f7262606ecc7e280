package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

type deployFixture struct {
	cfg       *config.RuntimeConfig
	compiler  *fakeCompiler
	artifacts *fakeArtifacts
	deployer  *fakeDeployer
	verifier  *fakeVerifier
	confirmer *fakeConfirmer
	selector  *fakeSelector
	progress  *recordingProgress
}

func newDeployFixture() *deployFixture {
	return &deployFixture{
		cfg:       testRuntimeConfig(),
		compiler:  &fakeCompiler{},
		artifacts: &fakeArtifacts{},
		deployer:  &fakeDeployer{},
		verifier:  &fakeVerifier{},
		confirmer: &fakeConfirmer{answer: true},
		selector:  &fakeSelector{},
		progress:  &recordingProgress{},
	}
}

func (f *deployFixture) useCase() *DeployContract {
	return NewDeployContract(f.cfg, f.compiler, f.artifacts, f.deployer, f.verifier, f.confirmer, f.selector, f.progress)
}

func TestDeployContract_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(f *deployFixture)
		wantErr     bool
		wantState   models.DeploymentState
		wantStatus  models.VerificationStatus
		wantLines   []string
		wantVerify  int
		wantAddress bool
	}{
		{
			name:        "A: deployed and verified",
			wantState:   models.StateDone,
			wantStatus:  models.VerificationStatusVerified,
			wantVerify:  1,
			wantAddress: true,
			wantLines: []string{
				"INFO Deploying Registration to arbitrumGoerli ...",
				"INFO Deployed: " + testAddress.Hex(),
				"INFO Verified: https://goerli.arbiscan.io/address/" + testAddress.Hex() + "#code",
			},
		},
		{
			name: "B: explorer reports already verified",
			setup: func(f *deployFixture) {
				f.verifier.verifyFunc = func(context.Context, *models.Deployment, *models.Artifact) models.VerificationOutcome {
					return models.AlreadyVerified("")
				}
			},
			wantState:   models.StateDone,
			wantStatus:  models.VerificationStatusAlreadyVerified,
			wantVerify:  1,
			wantAddress: true,
			wantLines: []string{
				"INFO Deploying Registration to arbitrumGoerli ...",
				"INFO Deployed: " + testAddress.Hex(),
				"WARN Verification skipped: already verified",
			},
		},
		{
			name: "C: underfunded signer",
			setup: func(f *deployFixture) {
				f.deployer.submitFunc = func(context.Context, *models.ContractFactory) (*models.PendingDeployment, error) {
					return nil, errors.New("insufficient funds for gas * price + value")
				}
			},
			wantErr:   true,
			wantState: models.StateSubmitError,
			wantLines: []string{
				"INFO Deploying Registration to arbitrumGoerli ...",
			},
		},
		{
			name: "D: explorer times out",
			setup: func(f *deployFixture) {
				f.verifier.verifyFunc = func(context.Context, *models.Deployment, *models.Artifact) models.VerificationOutcome {
					return models.VerificationFailed(fmt.Errorf("explorer request failed: %w", context.DeadlineExceeded))
				}
			},
			wantState:   models.StateDone,
			wantStatus:  models.VerificationStatusFailed,
			wantVerify:  1,
			wantAddress: true,
			wantLines: []string{
				"INFO Deploying Registration to arbitrumGoerli ...",
				"INFO Deployed: " + testAddress.Hex(),
				"WARN ERROR - verify - explorer request failed: context deadline exceeded",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeployFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			result, err := f.useCase().Run(context.Background())

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, result.Verification.Status)
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.wantState, result.State)
			assert.Equal(t, tt.wantLines, f.progress.lines)
			assert.Equal(t, tt.wantVerify, f.verifier.calls)

			if tt.wantAddress {
				require.NotNil(t, result.Deployment)
				assert.NotEqual(t, common.Address{}, result.Deployment.Address)
				assert.Equal(t, 1, f.progress.countPrefix("INFO Deployed: "))
			} else {
				assert.Nil(t, result.Deployment)
				assert.Zero(t, f.progress.countPrefix("INFO Deployed: "))
			}
		})
	}
}

func TestDeployContract_VerificationNeverChangesOutcome(t *testing.T) {
	outcomes := map[string]models.VerificationOutcome{
		"verified":         models.Verified("https://goerli.arbiscan.io/address/x", "guid"),
		"already verified": models.AlreadyVerified(""),
		"rejected":         models.VerificationFailed(errors.New("Fail - Unable to verify")),
		"rate limited":     models.VerificationFailed(errors.New("Max rate limit reached")),
		"network error":    models.VerificationFailed(errors.New("connection refused")),
		"missing api key":  models.VerificationFailed(domain.ErrMissingAPIKey),
		"skipped":          models.VerificationSkipped("no explorer"),
	}

	for name, outcome := range outcomes {
		t.Run(name, func(t *testing.T) {
			f := newDeployFixture()
			f.verifier.verifyFunc = func(context.Context, *models.Deployment, *models.Artifact) models.VerificationOutcome {
				return outcome
			}

			result, err := f.useCase().Run(context.Background())

			require.NoError(t, err)
			assert.Equal(t, models.StateDone, result.State)
			assert.Equal(t, outcome.Status, result.Verification.Status)
		})
	}
}

func TestDeployContract_AddressReportedBeforeVerification(t *testing.T) {
	f := newDeployFixture()
	var linesAtVerify []string
	f.verifier.verifyFunc = func(_ context.Context, d *models.Deployment, _ *models.Artifact) models.VerificationOutcome {
		linesAtVerify = append([]string(nil), f.progress.lines...)
		return models.VerificationFailed(errors.New("explorer down"))
	}

	_, err := f.useCase().Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, linesAtVerify, "INFO Deployed: "+testAddress.Hex())
	assert.Equal(t, 1, f.progress.countPrefix("INFO Deployed: "))
}

func TestDeployContract_ConfirmationFailures(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "timeout may still be pending",
			err:  &domain.ConfirmationTimeoutError{TxHash: testTxHash.Hex(), Timeout: time.Second},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				var timeoutErr *domain.ConfirmationTimeoutError
				assert.ErrorAs(t, err, &timeoutErr)
				assert.Contains(t, err.Error(), "may still be pending")
				assert.Contains(t, err.Error(), testTxHash.Hex())
			},
		},
		{
			name: "revert is definitive",
			err:  &domain.RevertError{TxHash: testTxHash.Hex(), BlockNumber: 10, GasUsed: 53000},
			check: func(t *testing.T, err error) {
				var revertErr *domain.RevertError
				assert.ErrorAs(t, err, &revertErr)
				assert.NotErrorIs(t, err, context.DeadlineExceeded)
			},
		},
		{
			name: "untyped error is wrapped",
			err:  errors.New("receipt lookup failed"),
			check: func(t *testing.T, err error) {
				var confirmErr *domain.ConfirmationError
				require.ErrorAs(t, err, &confirmErr)
				assert.Equal(t, testTxHash.Hex(), confirmErr.TxHash)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeployFixture()
			f.deployer.awaitFunc = func(context.Context, *models.PendingDeployment, time.Duration) (*models.Deployment, error) {
				return nil, tt.err
			}

			result, err := f.useCase().Run(context.Background())

			require.Error(t, err)
			assert.True(t, domain.IsConfirmationFailure(err))
			tt.check(t, err)

			assert.Equal(t, models.StateConfirmTimeoutOrRevert, result.State)
			assert.NotNil(t, result.Pending)
			assert.Nil(t, result.Deployment)
			assert.Zero(t, f.verifier.calls, "verification must not run without confirmation")
			assert.Zero(t, f.progress.countPrefix("INFO Deployed: "))
		})
	}
}

func TestDeployContract_SubmitError(t *testing.T) {
	t.Run("wraps raw rpc errors", func(t *testing.T) {
		rpcErr := errors.New("nonce too low")
		f := newDeployFixture()
		f.deployer.submitFunc = func(context.Context, *models.ContractFactory) (*models.PendingDeployment, error) {
			return nil, rpcErr
		}

		_, err := f.useCase().Run(context.Background())

		var submitErr *domain.SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.ErrorIs(t, err, rpcErr)
		assert.Zero(t, f.deployer.awaitCalls)
	})

	t.Run("keeps typed submit errors", func(t *testing.T) {
		original := &domain.SubmitError{Err: errors.New("replacement transaction underpriced")}
		f := newDeployFixture()
		f.deployer.submitFunc = func(context.Context, *models.ContractFactory) (*models.PendingDeployment, error) {
			return nil, original
		}

		_, err := f.useCase().Run(context.Background())
		assert.Same(t, original, err)
	})
}

func TestDeployContract_FactoryErrors(t *testing.T) {
	t.Run("configuration error makes no network call", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.Network.PrivateKey = ""
		f.cfg.Network.RPCURL = ""

		result, err := f.useCase().Run(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		var cfgErr *domain.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.ElementsMatch(t, []string{"rpc_url", "private_key"}, cfgErr.Fields)

		assert.Equal(t, models.StateFactoryError, result.State)
		assert.Empty(t, f.artifacts.calls)
		assert.Zero(t, f.deployer.prepareCalls)
		assert.Zero(t, f.deployer.submitCalls)
		assert.Empty(t, f.progress.lines)
	})

	t.Run("missing artifact", func(t *testing.T) {
		f := newDeployFixture()
		f.artifacts.getFunc = func(context.Context, string) (*models.Artifact, error) {
			return nil, fmt.Errorf("%w: Registration", domain.ErrArtifactNotFound)
		}

		result, err := f.useCase().Run(context.Background())

		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
		assert.Equal(t, models.StateFactoryError, result.State)
		assert.Zero(t, f.deployer.prepareCalls)
	})

	t.Run("prepare failure", func(t *testing.T) {
		f := newDeployFixture()
		f.deployer.prepareFunc = func(context.Context, *models.Artifact) (*models.ContractFactory, error) {
			return nil, fmt.Errorf("%w: configured 421613, RPC reports 1", domain.ErrChainIDMismatch)
		}

		result, err := f.useCase().Run(context.Background())

		assert.ErrorIs(t, err, domain.ErrChainIDMismatch)
		assert.Equal(t, models.StateFactoryError, result.State)
		assert.NotNil(t, result.Artifact)
		assert.Zero(t, f.deployer.submitCalls)
	})

	t.Run("build failure", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.Compile = true
		f.compiler.err = errors.New("exit status 1")

		_, err := f.useCase().Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "build failed")
		assert.Equal(t, 1, f.compiler.calls)
		assert.Empty(t, f.artifacts.calls)
	})
}

func TestDeployContract_Compile(t *testing.T) {
	t.Run("skipped by default", func(t *testing.T) {
		f := newDeployFixture()
		_, err := f.useCase().Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, f.compiler.calls)
	})

	t.Run("runs when a build command is configured", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.BuildCommand = "npx hardhat compile"
		_, err := f.useCase().Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, f.compiler.calls)
		assert.Equal(t, []string{StageCompile, StageLoad, StagePrepare, StageSubmit, StageConfirm, StageVerify}, f.progress.stages)
	})
}

func TestDeployContract_Confirmation(t *testing.T) {
	t.Run("declined prompt aborts before submission", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.NonInteractive = false
		f.confirmer.answer = false

		result, err := f.useCase().Run(context.Background())

		assert.ErrorIs(t, err, domain.ErrAborted)
		assert.Equal(t, models.StateFactoryError, result.State)
		assert.Equal(t, 1, f.confirmer.calls)
		assert.Zero(t, f.deployer.submitCalls)
	})

	t.Run("accepted prompt deploys", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.NonInteractive = false

		_, err := f.useCase().Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, f.confirmer.calls)
	})

	t.Run("no terminal proceeds", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.NonInteractive = false
		f.confirmer.err = domain.ErrNotInteractive

		_, err := f.useCase().Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, f.deployer.submitCalls)
	})

	t.Run("yes flag skips prompt", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.NonInteractive = false
		f.cfg.AssumeYes = true

		_, err := f.useCase().Run(context.Background())

		require.NoError(t, err)
		assert.Zero(t, f.confirmer.calls)
	})

	t.Run("local chain skips prompt and verification", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.NonInteractive = false
		f.deployer.prepareFunc = func(_ context.Context, artifact *models.Artifact) (*models.ContractFactory, error) {
			return &models.ContractFactory{Artifact: artifact, Deployer: testDeployer, ChainID: 31337, Network: "local"}, nil
		}

		result, err := f.useCase().Run(context.Background())

		require.NoError(t, err)
		assert.Zero(t, f.confirmer.calls)
		assert.Zero(t, f.verifier.calls)
		assert.Equal(t, models.VerificationStatusSkipped, result.Verification.Status)
		assert.Contains(t, f.progress.lines, "WARN Verification skipped: local chain")
	})
}

func TestDeployContract_NoVerify(t *testing.T) {
	f := newDeployFixture()
	f.cfg.NoVerify = true

	result, err := f.useCase().Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, f.verifier.calls)
	assert.Equal(t, models.VerificationStatusSkipped, result.Verification.Status)
	assert.Equal(t, models.StateDone, result.State)
}

func TestDeployContract_Timeouts(t *testing.T) {
	f := newDeployFixture()
	f.cfg.Network.Timeout = 1500 * time.Millisecond

	before := time.Now()
	_, err := f.useCase().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, f.deployer.lastTimeout)
	assert.WithinDuration(t, before.Add(config.DefaultVerificationTimeout), f.verifier.deadline, 5*time.Second)
}

func TestDeployContract_AmbiguousArtifact(t *testing.T) {
	ambiguous := &domain.AmbiguousArtifactError{
		Name:    "Registration",
		Matches: []string{"contracts/Registration.sol:Registration", "contracts/v2/Registration.sol:Registration"},
	}

	t.Run("non-interactive returns the ambiguity", func(t *testing.T) {
		f := newDeployFixture()
		f.artifacts.getFunc = func(context.Context, string) (*models.Artifact, error) {
			return nil, ambiguous
		}

		_, err := f.useCase().Run(context.Background())

		var ambErr *domain.AmbiguousArtifactError
		assert.ErrorAs(t, err, &ambErr)
		assert.Zero(t, f.selector.calls)
	})

	t.Run("interactive selection loads the chosen artifact", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.NonInteractive = false
		f.cfg.AssumeYes = true
		f.selector.choice = "contracts/v2/Registration.sol:Registration"
		f.artifacts.getFunc = func(_ context.Context, name string) (*models.Artifact, error) {
			if name == "Registration" {
				return nil, ambiguous
			}
			a := testArtifact()
			a.SourceName = "contracts/v2/Registration.sol"
			return a, nil
		}

		result, err := f.useCase().Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"Registration", "contracts/v2/Registration.sol:Registration"}, f.artifacts.calls)
		assert.Equal(t, "contracts/v2/Registration.sol", result.Artifact.SourceName)
	})

	t.Run("no terminal returns the ambiguity", func(t *testing.T) {
		f := newDeployFixture()
		f.cfg.NonInteractive = false
		f.selector.err = domain.ErrNotInteractive
		f.artifacts.getFunc = func(context.Context, string) (*models.Artifact, error) {
			return nil, ambiguous
		}

		_, err := f.useCase().Run(context.Background())

		assert.Same(t, ambiguous, err)
	})
}

func TestDeployContract_PromptsPauseSpinner(t *testing.T) {
	ambiguous := &domain.AmbiguousArtifactError{
		Name:    "Registration",
		Matches: []string{"contracts/Registration.sol:Registration", "contracts/v2/Registration.sol:Registration"},
	}

	f := newDeployFixture()
	f.cfg.NonInteractive = false
	f.cfg.Compile = true
	f.selector.choice = "contracts/v2/Registration.sol:Registration"
	f.artifacts.getFunc = func(_ context.Context, name string) (*models.Artifact, error) {
		if name == "Registration" {
			return nil, ambiguous
		}
		return testArtifact(), nil
	}

	var spinningWhilePrompting []bool
	record := func() { spinningWhilePrompting = append(spinningWhilePrompting, f.progress.spinning) }
	f.selector.onCall = record
	f.confirmer.onCall = record

	_, err := f.useCase().Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, spinningWhilePrompting)
	assert.Equal(t, 2, lo.Count(f.progress.stages, StageInput))
	assert.True(t, f.progress.spinning, "spinner resumes after the prompts")
}
