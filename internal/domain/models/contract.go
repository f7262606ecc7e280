package models

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ArtifactLayout identifies the build tool that produced an artifact
type ArtifactLayout string

const (
	LayoutHardhat ArtifactLayout = "hardhat"
	LayoutFoundry ArtifactLayout = "foundry"
)

// Artifact is a compiled contract ready to be deployed
type Artifact struct {
	Name             string          `json:"contractName"`
	SourceName       string          `json:"sourceName"` // e.g. contracts/Registration.sol
	Path             string          `json:"path"`       // artifact file on disk
	Layout           ArtifactLayout  `json:"layout"`
	ABI              abi.ABI         `json:"-"`
	RawABI           json.RawMessage `json:"abi"`
	Bytecode         []byte          `json:"-"`
	DeployedBytecode []byte          `json:"-"`
	BuildInfo        *BuildInfo      `json:"-"`
}

// FullyQualifiedName returns the sourceName:ContractName identifier used by explorers
func (a *Artifact) FullyQualifiedName() string {
	return fmt.Sprintf("%s:%s", a.SourceName, a.Name)
}

// BuildInfo holds the compiler input needed to reproduce the build
type BuildInfo struct {
	ID              string          `json:"id"`
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// CompilerVersion returns the version string in the "v0.8.18+commit.87f61d96" form
func (b *BuildInfo) CompilerVersion() string {
	version := b.SolcLongVersion
	if version == "" {
		version = b.SolcVersion
	}
	if version == "" {
		return ""
	}
	if version[0] != 'v' {
		version = "v" + version
	}
	return version
}

// ContractFactory binds an artifact to a signer on a specific network.
// It is everything needed to build the creation transaction.
type ContractFactory struct {
	Artifact *Artifact
	Deployer common.Address
	ChainID  uint64
	Network  string
}
