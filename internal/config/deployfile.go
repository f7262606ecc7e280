package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// DeployFileName is the project configuration file name
const DeployFileName = "catapult.toml"

// loadEnvFiles loads .env files from the project root without overriding
// variables that are already set in the process environment.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadDeployFile loads and parses catapult.toml.
// Returns an empty config when the file does not exist so that flags and
// environment variables alone can drive a run.
func loadDeployFile(projectRoot string) (*config.DeployFileConfig, error) {
	// Load .env files first for variable expansion
	loadEnvFiles(projectRoot)

	cfg := &config.DeployFileConfig{
		Networks:   make(map[string]config.NetworkConfig),
		MissingEnv: make(map[string]string),
	}

	path := filepath.Join(projectRoot, DeployFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DeployFileName, err)
	}

	if cfg.Networks == nil {
		cfg.Networks = make(map[string]config.NetworkConfig)
	}
	if cfg.MissingEnv == nil {
		cfg.MissingEnv = make(map[string]string)
	}
	missing := cfg.MissingEnv

	// Expand environment variables in all string fields that may hold secrets or URLs
	cfg.Contract.Name = os.ExpandEnv(cfg.Contract.Name)
	cfg.Contract.Artifacts = os.ExpandEnv(cfg.Contract.Artifacts)
	cfg.Contract.BuildCommand = os.ExpandEnv(cfg.Contract.BuildCommand)

	for name, network := range cfg.Networks {
		network.URL = expandTracked(network.URL, "networks."+name+".url", missing)
		network.PrivateKey = expandTracked(network.PrivateKey, "networks."+name+".private_key", missing)
		cfg.Networks[name] = network
	}

	cfg.Etherscan.APIKey = expandTracked(cfg.Etherscan.APIKey, "etherscan.api_key", missing)
	cfg.Etherscan.APIURL = os.ExpandEnv(cfg.Etherscan.APIURL)
	for name, explorer := range cfg.Etherscan.Networks {
		explorer.APIKey = expandTracked(explorer.APIKey, "etherscan.networks."+name+".api_key", missing)
		explorer.APIURL = os.ExpandEnv(explorer.APIURL)
		explorer.BrowserURL = os.ExpandEnv(explorer.BrowserURL)
		cfg.Etherscan.Networks[name] = explorer
	}

	return cfg, nil
}
