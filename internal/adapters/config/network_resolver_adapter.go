package config

import (
	"context"

	"github.com/trebuchet-org/catapult/internal/config"
	domainconfig "github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NetworkResolverAdapter resolves the networks declared in catapult.toml
type NetworkResolverAdapter struct {
	file *domainconfig.DeployFileConfig
}

// NewNetworkResolverAdapter creates a new adapter over the loaded deploy file
func NewNetworkResolverAdapter(cfg *domainconfig.RuntimeConfig) *NetworkResolverAdapter {
	file := cfg.DeployFile
	if file == nil {
		file = &domainconfig.DeployFileConfig{}
	}
	return &NetworkResolverAdapter{file: file}
}

// GetNetworks returns all configured network names
func (a *NetworkResolverAdapter) GetNetworks(ctx context.Context) []string {
	return config.NetworkNames(a.file)
}

// ResolveNetwork resolves a network name to its configuration, without flag overrides
func (a *NetworkResolverAdapter) ResolveNetwork(ctx context.Context, networkName string) (*domainconfig.Network, error) {
	return config.ResolveNetwork(a.file, networkName, config.NetworkOverrides{})
}

// ExplorerAPIURL returns the verification endpoint used for a network
func (a *NetworkResolverAdapter) ExplorerAPIURL(ctx context.Context, networkName string) string {
	network, err := a.ResolveNetwork(ctx, networkName)
	if err != nil {
		return ""
	}
	return config.ResolveExplorer(a.file, network, "").APIURL
}

// Ensure the adapter implements the interfaces
var (
	_ usecase.NetworkResolver  = (*NetworkResolverAdapter)(nil)
	_ usecase.ExplorerResolver = (*NetworkResolverAdapter)(nil)
)
