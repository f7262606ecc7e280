package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DeploymentState is the position of a run in the deploy-then-verify sequence
type DeploymentState string

const (
	StateStart           DeploymentState = "START"
	StateFactoryReady    DeploymentState = "FACTORY_READY"
	StateTxSubmitted     DeploymentState = "TX_SUBMITTED"
	StateConfirmed       DeploymentState = "CONFIRMED"
	StateVerifyAttempted DeploymentState = "VERIFY_ATTEMPTED"
	StateDone            DeploymentState = "DONE"

	// Terminal failure states, only reachable before StateConfirmed
	StateFactoryError           DeploymentState = "FACTORY_ERROR"
	StateSubmitError            DeploymentState = "SUBMIT_ERROR"
	StateConfirmTimeoutOrRevert DeploymentState = "CONFIRM_TIMEOUT_OR_REVERT"
)

// IsFailure reports whether the state is a terminal failure
func (s DeploymentState) IsFailure() bool {
	switch s {
	case StateFactoryError, StateSubmitError, StateConfirmTimeoutOrRevert:
		return true
	}
	return false
}

// PendingDeployment is a submitted, not yet confirmed, contract-creation transaction.
// Address is the CREATE address derived from the sender nonce; it is not usable
// until the transaction is confirmed.
type PendingDeployment struct {
	ContractName string
	TxHash       common.Hash
	Address      common.Address
	From         common.Address
	Nonce        uint64
	GasLimit     uint64
	ChainID      uint64
	Network      string
	SubmittedAt  time.Time

	Transaction *types.Transaction `json:"-"`
	Artifact    *Artifact          `json:"-"`
}

// Deployment is a confirmed on-chain deployment. It is never mutated after creation.
type Deployment struct {
	ContractName string         `json:"contractName"`
	Address      common.Address `json:"address"`
	TxHash       common.Hash    `json:"txHash"`
	BlockNumber  uint64         `json:"blockNumber"`
	BlockHash    common.Hash    `json:"blockHash"`
	GasUsed      uint64         `json:"gasUsed"`
	ChainID      uint64         `json:"chainId"`
	Network      string         `json:"network"`
	Deployer     common.Address `json:"deployer"`
	ConfirmedAt  time.Time      `json:"confirmedAt"`
}
