package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

const (
	// DefaultConfirmationTimeout applies when the network sets no timeout
	DefaultConfirmationTimeout = 5 * time.Minute

	// DefaultVerificationTimeout bounds the whole explorer round-trip
	DefaultVerificationTimeout = 2 * time.Minute
)

// RuntimeConfig represents the complete runtime configuration.
// It is built once at startup and injected read-only into use cases.
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	ConfigFile  string

	// Contract settings
	ContractName string
	ArtifactsDir string
	Layout       models.ArtifactLayout
	BuildCommand string
	Compile      bool

	// Context settings
	Network  *Network  // nil if not specified
	Explorer *Explorer // nil when no explorer is known for the network

	// Execution settings
	Debug          bool
	NonInteractive bool
	AssumeYes      bool
	NoVerify       bool
	LogLevel       string

	// Resolved configuration file
	DeployFile *DeployFileConfig
}

// Network represents the target chain and signing configuration
type Network struct {
	Name          string
	RPCURL        string
	ChainID       uint64 // 0 means take whatever the RPC reports
	PrivateKey    string
	GasMultiplier float64
	GasLimit      uint64
	Confirmations uint64
	Timeout       time.Duration

	// UnsetEnv maps rpc_url or private_key to the environment variable that
	// catapult.toml referenced but that was not set
	UnsetEnv map[string]string
}

// Explorer represents an Etherscan-compatible verification backend
type Explorer struct {
	APIURL     string
	BrowserURL string
	APIKey     string
}

// IsLocal reports whether the network is a local development chain
func (n *Network) IsLocal() bool {
	return IsLocalChain(n.ChainID)
}

// IsLocalChain reports whether chainID belongs to a local development node
func IsLocalChain(chainID uint64) bool {
	return chainID == 31337 || chainID == 1337
}

// Validate checks that every field required to deploy is present.
// It performs no I/O so it can run before any network call.
func (c *RuntimeConfig) Validate() error {
	return c.validate(true)
}

// ValidateReadOnly checks the fields needed for commands that never sign,
// such as verifying an existing deployment
func (c *RuntimeConfig) ValidateReadOnly() error {
	return c.validate(false)
}

func (c *RuntimeConfig) validate(requireSigner bool) error {
	var missing []string

	if c.ContractName == "" {
		missing = append(missing, "contract")
	}
	if c.ArtifactsDir == "" {
		missing = append(missing, "artifacts")
	}
	if c.Layout != models.LayoutHardhat && c.Layout != models.LayoutFoundry {
		missing = append(missing, "layout")
	}

	if c.Network == nil {
		missing = append(missing, "network")
		return &domain.ConfigError{Fields: missing}
	}

	if c.Network.RPCURL == "" {
		missing = append(missing, "rpc_url")
	} else if u, err := url.Parse(c.Network.RPCURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "rpc_url")
	}

	if requireSigner {
		if c.Network.PrivateKey == "" {
			missing = append(missing, "private_key")
		} else if _, err := crypto.HexToECDSA(strings.TrimPrefix(c.Network.PrivateKey, "0x")); err != nil {
			missing = append(missing, "private_key")
		}
	}

	if c.Network.GasMultiplier < 0 {
		missing = append(missing, "gas_multiplier")
	}
	if c.Network.Timeout < 0 {
		missing = append(missing, "timeout")
	}

	if len(missing) > 0 {
		return &domain.ConfigError{Fields: missing, Reason: c.Network.unsetEnvReason(missing)}
	}
	return nil
}

// unsetEnvReason names the unset variables behind the missing fields
func (n *Network) unsetEnvReason(fields []string) string {
	var vars []string
	for _, field := range fields {
		if name, ok := n.UnsetEnv[field]; ok {
			vars = append(vars, name)
		}
	}
	if len(vars) == 0 {
		return ""
	}
	sort.Strings(vars)
	return fmt.Sprintf("%s not set", strings.Join(vars, ", "))
}

// ConfirmationTimeout returns the network timeout or the default
func (c *RuntimeConfig) ConfirmationTimeout() time.Duration {
	if c.Network == nil || c.Network.Timeout == 0 {
		return DefaultConfirmationTimeout
	}
	return c.Network.Timeout
}
