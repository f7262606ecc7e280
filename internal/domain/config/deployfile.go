package config

// DeployFileConfig represents the full catapult.toml configuration file
type DeployFileConfig struct {
	Contract  ContractConfig           `toml:"contract"`
	Networks  map[string]NetworkConfig `toml:"networks"`
	Etherscan EtherscanConfig          `toml:"etherscan"`

	// MissingEnv maps a field path such as networks.goerli.private_key to
	// the unset variable its ${VAR} reference pointed at.
	MissingEnv map[string]string `toml:"-"`
}

// ContractConfig represents the [contract] section
type ContractConfig struct {
	Name         string `toml:"name"`
	Artifacts    string `toml:"artifacts,omitempty"`
	Layout       string `toml:"layout,omitempty"`
	BuildCommand string `toml:"build_command,omitempty"`
}

// NetworkConfig represents a [networks.<name>] section
type NetworkConfig struct {
	URL           string  `toml:"url"`
	PrivateKey    string  `toml:"private_key,omitempty"`
	ChainID       uint64  `toml:"chain_id,omitempty"`
	GasMultiplier float64 `toml:"gas_multiplier,omitempty"`
	GasLimit      uint64  `toml:"gas_limit,omitempty"`
	Timeout       int64   `toml:"timeout,omitempty"` // milliseconds
	Confirmations uint64  `toml:"confirmations,omitempty"`
}

// EtherscanConfig represents the [etherscan] section.
// APIKey is the fallback for networks without their own entry.
type EtherscanConfig struct {
	APIKey   string                           `toml:"api_key,omitempty"`
	APIURL   string                           `toml:"api_url,omitempty"`
	Networks map[string]ExplorerNetworkConfig `toml:"networks,omitempty"`
}

// ExplorerNetworkConfig represents an [etherscan.networks.<name>] section
type ExplorerNetworkConfig struct {
	APIKey     string `toml:"api_key,omitempty"`
	APIURL     string `toml:"api_url,omitempty"`
	BrowserURL string `toml:"browser_url,omitempty"`
}
