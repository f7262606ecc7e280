package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

const (
	defaultPollInterval = 2 * time.Second
	// Upper bound for a single RPC request made before the transaction is sent
	defaultCallTimeout = 30 * time.Second
)

// DeployerAdapter sends contract-creation transactions with go-ethereum
type DeployerAdapter struct {
	log          *slog.Logger
	conn         *Connection
	network      *config.Network
	pollInterval time.Duration
	callTimeout  time.Duration

	key *ecdsa.PrivateKey
}

// NewDeployerAdapter creates a new deployer for the configured network
func NewDeployerAdapter(cfg *config.RuntimeConfig, conn *Connection, log *slog.Logger) *DeployerAdapter {
	return &DeployerAdapter{
		log:          log.With("component", "DeployerAdapter"),
		conn:         conn,
		network:      cfg.Network,
		pollInterval: defaultPollInterval,
		callTimeout:  defaultCallTimeout,
	}
}

// Prepare parses the signing key and checks that the RPC serves the configured chain
func (d *DeployerAdapter) Prepare(ctx context.Context, artifact *models.Artifact) (*models.ContractFactory, error) {
	if len(artifact.Bytecode) == 0 {
		return nil, fmt.Errorf("%w: %s has no creation bytecode", domain.ErrInvalidArtifact, artifact.Name)
	}
	if len(artifact.ABI.Constructor.Inputs) > 0 {
		return nil, fmt.Errorf("%w: %s takes %d constructor arguments, which are not supported",
			domain.ErrInvalidArtifact, artifact.Name, len(artifact.ABI.Constructor.Inputs))
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(d.network.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPrivateKey, err)
	}
	d.key = key

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	chainID, err := d.conn.ChainID(callCtx)
	if err != nil {
		return nil, err
	}
	if d.network.ChainID != 0 && d.network.ChainID != chainID {
		return nil, fmt.Errorf("%w: %s is configured as %d but the RPC reports %d",
			domain.ErrChainIDMismatch, d.network.Name, d.network.ChainID, chainID)
	}

	factory := &models.ContractFactory{
		Artifact: artifact,
		Deployer: crypto.PubkeyToAddress(key.PublicKey),
		ChainID:  chainID,
		Network:  d.network.Name,
	}
	d.log.Debug("factory ready", "contract", artifact.Name, "deployer", factory.Deployer.Hex(), "chainId", chainID)
	return factory, nil
}

// Submit signs and sends the creation transaction without waiting for it
func (d *DeployerAdapter) Submit(ctx context.Context, factory *models.ContractFactory) (*models.PendingDeployment, error) {
	if d.key == nil {
		return nil, fmt.Errorf("deployer not prepared")
	}
	backend, err := d.conn.Backend(ctx)
	if err != nil {
		return nil, err
	}

	nonceCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	opts, err := bind.NewKeyedTransactorWithChainID(d.key, new(big.Int).SetUint64(factory.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	nonce, err := backend.PendingNonceAt(nonceCtx, factory.Deployer)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	opts.Nonce = new(big.Int).SetUint64(nonce)

	gasLimit, err := d.gasLimit(ctx, backend, factory)
	if err != nil {
		return nil, err
	}
	opts.GasLimit = gasLimit

	d.log.Debug("sending deployment", "contract", factory.Artifact.Name, "nonce", nonce, "gasLimit", gasLimit)

	// Fee lookups and the send itself share one deadline
	sendCtx, cancelSend := context.WithTimeout(ctx, d.callTimeout)
	defer cancelSend()
	opts.Context = sendCtx

	address, tx, _, err := bind.DeployContract(opts, factory.Artifact.ABI, factory.Artifact.Bytecode, backend)
	if err != nil {
		return nil, err
	}

	pending := &models.PendingDeployment{
		ContractName: factory.Artifact.Name,
		TxHash:       tx.Hash(),
		Address:      address,
		From:         factory.Deployer,
		Nonce:        nonce,
		GasLimit:     gasLimit,
		ChainID:      factory.ChainID,
		Network:      factory.Network,
		SubmittedAt:  time.Now(),
		Transaction:  tx,
		Artifact:     factory.Artifact,
	}
	d.log.Debug("deployment submitted", "tx", pending.TxHash.Hex(), "address", address.Hex())
	return pending, nil
}

// gasLimit returns the fixed gas limit, or the estimate scaled by the gas multiplier
func (d *DeployerAdapter) gasLimit(ctx context.Context, backend Backend, factory *models.ContractFactory) (uint64, error) {
	if d.network.GasLimit > 0 {
		return d.network.GasLimit, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	estimate, err := backend.EstimateGas(ctx, ethereum.CallMsg{
		From: factory.Deployer,
		Data: factory.Artifact.Bytecode,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}

	multiplier := d.network.GasMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	return uint64(math.Ceil(float64(estimate) * multiplier)), nil
}

// AwaitConfirmation waits for the receipt and the configured confirmations,
// then checks that the address holds code
func (d *DeployerAdapter) AwaitConfirmation(ctx context.Context, pending *models.PendingDeployment, timeout time.Duration) (*models.Deployment, error) {
	txHash := pending.TxHash.Hex()
	backend, err := d.conn.Backend(ctx)
	if err != nil {
		return nil, &domain.ConfirmationError{TxHash: txHash, Err: err}
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wrapWaitErr := func(err error) error {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return &domain.ConfirmationTimeoutError{TxHash: txHash, Timeout: timeout}
		}
		return &domain.ConfirmationError{TxHash: txHash, Err: err}
	}

	receipt, err := d.waitMined(waitCtx, backend, pending)
	if err != nil {
		return nil, wrapWaitErr(err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &domain.RevertError{
			TxHash:      txHash,
			BlockNumber: receipt.BlockNumber.Uint64(),
			GasUsed:     receipt.GasUsed,
		}
	}

	if err := d.waitConfirmations(waitCtx, backend, receipt.BlockNumber.Uint64()); err != nil {
		return nil, wrapWaitErr(err)
	}

	address := pending.Address
	if receipt.ContractAddress != (common.Address{}) {
		address = receipt.ContractAddress
	}

	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, &domain.ConfirmationError{TxHash: txHash, Err: fmt.Errorf("failed to read code: %w", err)}
	}
	if len(code) == 0 {
		return nil, &domain.ConfirmationError{TxHash: txHash, Err: fmt.Errorf("%w: %s", domain.ErrNoCode, address.Hex())}
	}
	if pending.Artifact != nil && len(pending.Artifact.DeployedBytecode) > 0 && !SameRuntimeCode(code, pending.Artifact.DeployedBytecode) {
		d.log.Warn("on-chain code differs from artifact", "address", address.Hex(), "contract", pending.ContractName)
	}

	return &models.Deployment{
		ContractName: pending.ContractName,
		Address:      address,
		TxHash:       pending.TxHash,
		BlockNumber:  receipt.BlockNumber.Uint64(),
		BlockHash:    receipt.BlockHash,
		GasUsed:      receipt.GasUsed,
		ChainID:      pending.ChainID,
		Network:      pending.Network,
		Deployer:     pending.From,
		ConfirmedAt:  time.Now(),
	}, nil
}

func (d *DeployerAdapter) waitMined(ctx context.Context, backend Backend, pending *models.PendingDeployment) (*types.Receipt, error) {
	if pending.Transaction != nil {
		return bind.WaitMined(ctx, backend, pending.Transaction)
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := backend.TransactionReceipt(ctx, pending.TxHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			d.log.Debug("receipt retrieval failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// waitConfirmations blocks until the receipt block is buried under
// the configured number of confirmations
func (d *DeployerAdapter) waitConfirmations(ctx context.Context, backend Backend, minedIn uint64) error {
	confirmations := d.network.Confirmations
	if confirmations <= 1 {
		return nil
	}
	target := minedIn + confirmations - 1

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		head, err := backend.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to get block number: %w", err)
		}
		if head >= target {
			return nil
		}
		d.log.Debug("waiting for confirmations", "head", head, "target", target)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ usecase.ContractDeployer = (*DeployerAdapter)(nil)
