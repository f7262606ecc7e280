package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// FoundryTOML represents the parts of foundry.toml catapult reads
type FoundryTOML struct {
	RpcEndpoints map[string]string         `toml:"rpc_endpoints"`
	Etherscan    map[string]map[string]any `toml:"etherscan"`
	Profile      map[string]map[string]any `toml:"profile"`
}

// FoundryProject is the resolved foundry.toml view
type FoundryProject struct {
	OutDir       string
	RpcEndpoints map[string]string
	Etherscan    map[string]config.ExplorerNetworkConfig
}

// loadFoundryProject parses foundry.toml from the project root.
// Returns nil without error when the project has no foundry.toml.
func loadFoundryProject(projectRoot string) (*FoundryProject, error) {
	foundryPath := filepath.Join(projectRoot, "foundry.toml")
	if _, err := os.Stat(foundryPath); os.IsNotExist(err) {
		return nil, nil
	}

	var raw FoundryTOML
	if _, err := toml.DecodeFile(foundryPath, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse foundry.toml: %w", err)
	}

	project := &FoundryProject{
		OutDir:       "out",
		RpcEndpoints: make(map[string]string),
		Etherscan:    make(map[string]config.ExplorerNetworkConfig),
	}

	if profile, ok := raw.Profile["default"]; ok {
		if out, ok := profile["out"].(string); ok && out != "" {
			project.OutDir = out
		}
	}

	for name, url := range raw.RpcEndpoints {
		project.RpcEndpoints[name] = os.ExpandEnv(url)
	}

	for name, entry := range raw.Etherscan {
		ec := config.ExplorerNetworkConfig{}
		if key, ok := entry["key"].(string); ok {
			ec.APIKey = os.ExpandEnv(key)
		}
		if url, ok := entry["url"].(string); ok {
			ec.APIURL = os.ExpandEnv(url)
		}
		project.Etherscan[name] = ec
	}

	return project, nil
}

// mergeFoundryProject fills gaps in catapult.toml from foundry.toml.
// Networks and explorer entries already present in catapult.toml are left untouched.
func mergeFoundryProject(file *config.DeployFileConfig, project *FoundryProject) {
	if project == nil {
		return
	}

	for name, url := range project.RpcEndpoints {
		if _, exists := file.Networks[name]; exists {
			continue
		}
		file.Networks[name] = config.NetworkConfig{URL: url}
	}

	if file.Etherscan.Networks == nil {
		file.Etherscan.Networks = make(map[string]config.ExplorerNetworkConfig)
	}
	for name, ec := range project.Etherscan {
		if _, exists := file.Etherscan.Networks[name]; exists {
			continue
		}
		file.Etherscan.Networks[name] = ec
	}
}
