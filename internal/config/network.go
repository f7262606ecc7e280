package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// EtherscanV2APIURL is the multichain Etherscan endpoint; the chain is selected with ?chainid=
const EtherscanV2APIURL = "https://api.etherscan.io/v2/api"

// NetworkOverrides carries values supplied by flags or CATAPULT_* variables
type NetworkOverrides struct {
	RPCURL         string
	PrivateKey     string
	ChainID        uint64
	GasMultiplier  float64
	TimeoutMillis  int64
	ExplorerAPIKey string
}

// NetworkNames returns the configured network names in sorted order
func NetworkNames(file *config.DeployFileConfig) []string {
	names := make([]string, 0, len(file.Networks))
	for name := range file.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveNetwork builds the Network for name from catapult.toml and overrides.
// A network missing from the file is accepted when an RPC URL override is given.
func ResolveNetwork(file *config.DeployFileConfig, name string, overrides NetworkOverrides) (*config.Network, error) {
	raw, exists := file.Networks[name]
	if !exists && overrides.RPCURL == "" {
		return nil, &domain.ConfigError{
			Fields: []string{"network"},
			Reason: fmt.Sprintf("'%s' is not configured in %s [networks]", name, DeployFileName),
			Err:    domain.ErrNetworkNotFound,
		}
	}

	network := &config.Network{
		Name:          name,
		RPCURL:        raw.URL,
		ChainID:       raw.ChainID,
		PrivateKey:    raw.PrivateKey,
		GasMultiplier: raw.GasMultiplier,
		GasLimit:      raw.GasLimit,
		Confirmations: raw.Confirmations,
		Timeout:       time.Duration(raw.Timeout) * time.Millisecond,
		UnsetEnv:      make(map[string]string),
	}

	if envVar, ok := file.MissingEnv["networks."+name+".url"]; ok && overrides.RPCURL == "" {
		network.UnsetEnv["rpc_url"] = envVar
	}
	if envVar, ok := file.MissingEnv["networks."+name+".private_key"]; ok && overrides.PrivateKey == "" {
		network.UnsetEnv["private_key"] = envVar
	}

	if overrides.RPCURL != "" {
		network.RPCURL = overrides.RPCURL
	}
	if overrides.PrivateKey != "" {
		network.PrivateKey = overrides.PrivateKey
	}
	if overrides.ChainID != 0 {
		network.ChainID = overrides.ChainID
	}
	if overrides.GasMultiplier != 0 {
		network.GasMultiplier = overrides.GasMultiplier
	}
	if overrides.TimeoutMillis != 0 {
		network.Timeout = time.Duration(overrides.TimeoutMillis) * time.Millisecond
	}

	if network.GasMultiplier == 0 {
		network.GasMultiplier = 1
	}
	if network.Confirmations == 0 {
		network.Confirmations = 1
	}

	return network, nil
}

// ResolveExplorer builds the explorer configuration for a network.
// Per-network [etherscan.networks.<name>] values win over the [etherscan] defaults.
func ResolveExplorer(file *config.DeployFileConfig, network *config.Network, apiKeyOverride string) *config.Explorer {
	explorer := &config.Explorer{
		APIURL: EtherscanV2APIURL,
		APIKey: file.Etherscan.APIKey,
	}
	if file.Etherscan.APIURL != "" {
		explorer.APIURL = file.Etherscan.APIURL
	}

	if perNetwork, ok := file.Etherscan.Networks[network.Name]; ok {
		if perNetwork.APIKey != "" {
			explorer.APIKey = perNetwork.APIKey
		}
		if perNetwork.APIURL != "" {
			explorer.APIURL = perNetwork.APIURL
		}
		explorer.BrowserURL = perNetwork.BrowserURL
	}

	if apiKeyOverride != "" {
		explorer.APIKey = apiKeyOverride
	}

	if explorer.BrowserURL == "" {
		explorer.BrowserURL = DefaultBrowserURL(network.ChainID)
	}

	return explorer
}

// DefaultBrowserURL returns the public explorer URL for well-known chains
func DefaultBrowserURL(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 5:
		return "https://goerli.etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 137:
		return "https://polygonscan.com"
	case 8453:
		return "https://basescan.org"
	case 84532:
		return "https://sepolia.basescan.org"
	case 42161:
		return "https://arbiscan.io"
	case 421613:
		return "https://goerli.arbiscan.io"
	case 421614:
		return "https://sepolia.arbiscan.io"
	case 43114:
		return "https://snowtrace.io"
	case 56:
		return "https://bscscan.com"
	case 250:
		return "https://ftmscan.com"
	case 1101:
		return "https://zkevm.polygonscan.com"
	case 42220:
		return "https://celoscan.io"
	case 44787:
		return "https://alfajores.celoscan.io"
	default:
		return ""
	}
}
