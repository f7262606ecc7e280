package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// Provider creates RuntimeConfig for Wire dependency injection.
// It never validates required fields; use cases call Validate before any I/O.
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	deployFile, err := loadDeployFile(projectRoot)
	if err != nil {
		return nil, &domain.ConfigError{Fields: []string{DeployFileName}, Reason: err.Error(), Err: err}
	}

	foundry, err := loadFoundryProject(projectRoot)
	if err != nil {
		return nil, &domain.ConfigError{Fields: []string{"foundry.toml"}, Reason: err.Error(), Err: err}
	}
	mergeFoundryProject(deployFile, foundry)

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		ConfigFile:     filepath.Join(projectRoot, DeployFileName),
		ContractName:   deployFile.Contract.Name,
		BuildCommand:   deployFile.Contract.BuildCommand,
		Compile:        v.GetBool("compile"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		AssumeYes:      v.GetBool("yes"),
		NoVerify:       v.GetBool("no_verify"),
		LogLevel:       v.GetString("log_level"),
		DeployFile:     deployFile,
	}

	if contract := v.GetString("contract"); contract != "" {
		cfg.ContractName = contract
	}

	cfg.Layout = resolveLayout(projectRoot, deployFile.Contract.Layout)
	cfg.ArtifactsDir = resolveArtifactsDir(projectRoot, deployFile.Contract.Artifacts, cfg.Layout, foundry)

	// Resolve network if specified, or the only configured one
	networkName := v.GetString("network")
	if networkName == "" {
		if names := NetworkNames(deployFile); len(names) == 1 {
			networkName = names[0]
		}
	}

	if networkName != "" {
		overrides := NetworkOverrides{
			RPCURL:         v.GetString("rpc_url"),
			PrivateKey:     v.GetString("private_key"),
			ChainID:        v.GetUint64("chain_id"),
			GasMultiplier:  v.GetFloat64("gas_multiplier"),
			TimeoutMillis:  v.GetInt64("timeout"),
			ExplorerAPIKey: v.GetString("explorer_api_key"),
		}

		network, err := ResolveNetwork(deployFile, networkName, overrides)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
		cfg.Explorer = ResolveExplorer(deployFile, network, overrides.ExplorerAPIKey)
	}

	return cfg, nil
}

// resolveLayout returns the configured layout or detects it from the project files
func resolveLayout(projectRoot, configured string) models.ArtifactLayout {
	switch strings.ToLower(configured) {
	case string(models.LayoutHardhat):
		return models.LayoutHardhat
	case string(models.LayoutFoundry):
		return models.LayoutFoundry
	case "":
		if _, err := os.Stat(filepath.Join(projectRoot, "foundry.toml")); err == nil {
			return models.LayoutFoundry
		}
		return models.LayoutHardhat
	default:
		// Left for Validate to report
		return models.ArtifactLayout(configured)
	}
}

// resolveArtifactsDir returns an absolute artifacts directory
func resolveArtifactsDir(projectRoot, configured string, layout models.ArtifactLayout, foundry *FoundryProject) string {
	dir := configured
	if dir == "" {
		dir = "artifacts"
		if layout == models.LayoutFoundry {
			dir = "out"
			if foundry != nil {
				dir = foundry.OutDir
			}
		}
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	return dir
}

// FindProjectRoot walks up from current directory to find catapult.toml.
// Without one, the current directory is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, DeployFileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("CATAPULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("no_verify", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}
