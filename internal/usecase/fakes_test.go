package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// Well-known anvil/hardhat account #0
const testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testDeployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testAddress  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testTxHash   = common.HexToHash("0x7f9fade1c0d57a7af66ab4ead79fade1c0d57a7af66ab4ead7c2c2eb7b11a91f")
)

func testRuntimeConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		ContractName: "Registration",
		ArtifactsDir: "/project/artifacts",
		Layout:       models.LayoutHardhat,
		Network: &config.Network{
			Name:          "arbitrumGoerli",
			RPCURL:        "https://goerli-rollup.arbitrum.io/rpc",
			ChainID:       421613,
			PrivateKey:    testPrivateKey,
			GasMultiplier: 1,
			Timeout:       36000 * time.Second,
		},
		NonInteractive: true,
	}
}

func testArtifact() *models.Artifact {
	return &models.Artifact{
		Name:       "Registration",
		SourceName: "contracts/Registration.sol",
		Bytecode:   common.FromHex("0x600a600c600039600a6000f3600160005260206000f3"),
	}
}

// fakeArtifacts implements ArtifactRepository
type fakeArtifacts struct {
	getFunc func(ctx context.Context, name string) (*models.Artifact, error)
	calls   []string
}

func (f *fakeArtifacts) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	f.calls = append(f.calls, name)
	if f.getFunc != nil {
		return f.getFunc(ctx, name)
	}
	return testArtifact(), nil
}

// fakeCompiler implements Compiler
type fakeCompiler struct {
	err   error
	calls int
}

func (f *fakeCompiler) Compile(context.Context) error {
	f.calls++
	return f.err
}

// fakeDeployer implements ContractDeployer
type fakeDeployer struct {
	prepareFunc func(ctx context.Context, artifact *models.Artifact) (*models.ContractFactory, error)
	submitFunc  func(ctx context.Context, factory *models.ContractFactory) (*models.PendingDeployment, error)
	awaitFunc   func(ctx context.Context, pending *models.PendingDeployment, timeout time.Duration) (*models.Deployment, error)

	prepareCalls int
	submitCalls  int
	awaitCalls   int
	lastTimeout  time.Duration
}

func (f *fakeDeployer) Prepare(ctx context.Context, artifact *models.Artifact) (*models.ContractFactory, error) {
	f.prepareCalls++
	if f.prepareFunc != nil {
		return f.prepareFunc(ctx, artifact)
	}
	return &models.ContractFactory{
		Artifact: artifact,
		Deployer: testDeployer,
		ChainID:  421613,
		Network:  "arbitrumGoerli",
	}, nil
}

func (f *fakeDeployer) Submit(ctx context.Context, factory *models.ContractFactory) (*models.PendingDeployment, error) {
	f.submitCalls++
	if f.submitFunc != nil {
		return f.submitFunc(ctx, factory)
	}
	return &models.PendingDeployment{
		TxHash:  testTxHash,
		Address: testAddress,
		From:    factory.Deployer,
		ChainID: factory.ChainID,
		Network: factory.Network,
	}, nil
}

func (f *fakeDeployer) AwaitConfirmation(ctx context.Context, pending *models.PendingDeployment, timeout time.Duration) (*models.Deployment, error) {
	f.awaitCalls++
	f.lastTimeout = timeout
	if f.awaitFunc != nil {
		return f.awaitFunc(ctx, pending, timeout)
	}
	return &models.Deployment{
		ContractName: "Registration",
		Address:      pending.Address,
		TxHash:       pending.TxHash,
		BlockNumber:  12,
		ChainID:      pending.ChainID,
		Network:      pending.Network,
		Deployer:     pending.From,
	}, nil
}

// fakeVerifier implements ContractVerifier
type fakeVerifier struct {
	verifyFunc func(ctx context.Context, deployment *models.Deployment, artifact *models.Artifact) models.VerificationOutcome
	calls      int
	deadline   time.Time
}

func (f *fakeVerifier) Verify(ctx context.Context, deployment *models.Deployment, artifact *models.Artifact) models.VerificationOutcome {
	f.calls++
	f.deadline, _ = ctx.Deadline()
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, deployment, artifact)
	}
	return models.Verified("https://goerli.arbiscan.io/address/"+deployment.Address.Hex()+"#code", "guid")
}

// fakeConfirmer implements DeploymentConfirmer
type fakeConfirmer struct {
	answer bool
	err    error
	calls  int
	onCall func()
}

func (f *fakeConfirmer) ConfirmDeployment(context.Context, *models.ContractFactory) (bool, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	return f.answer, f.err
}

// fakeSelector implements ArtifactSelector
type fakeSelector struct {
	choice string
	err    error
	calls  int
	onCall func()
}

func (f *fakeSelector) SelectArtifact(context.Context, string, []string) (string, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	return f.choice, f.err
}

// fakeChecker implements BlockchainChecker
type fakeChecker struct {
	chainID uint64
	exists  bool
	err     error
}

func (f *fakeChecker) ChainID(context.Context) (uint64, error) {
	return f.chainID, f.err
}

func (f *fakeChecker) CheckDeploymentExists(context.Context, common.Address) (bool, error) {
	return f.exists, f.err
}

// recordingProgress captures console lines in order
type recordingProgress struct {
	lines    []string
	stages   []string
	spinning bool
}

func (r *recordingProgress) OnProgress(_ context.Context, event ProgressEvent) {
	r.stages = append(r.stages, event.Stage)
	r.spinning = event.Spinner
}

func (r *recordingProgress) Info(message string) {
	r.lines = append(r.lines, fmt.Sprintf("INFO %s", message))
}

func (r *recordingProgress) Warn(message string) {
	r.lines = append(r.lines, fmt.Sprintf("WARN %s", message))
}

func (r *recordingProgress) Error(message string) {
	r.lines = append(r.lines, fmt.Sprintf("ERROR %s", message))
}

// countPrefix returns how many recorded lines start with prefix
func (r *recordingProgress) countPrefix(prefix string) int {
	return lo.CountBy(r.lines, func(line string) bool {
		return strings.HasPrefix(line, prefix)
	})
}
