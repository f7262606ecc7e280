package usecase

import (
	"context"
	"net/url"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	// Currently no parameters, but we keep the struct for future extensibility
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus describes a configured network without its secrets
type NetworkStatus struct {
	Name        string
	ChainID     uint64
	RPCHost     string
	HasSigner   bool
	ExplorerURL string
	Error       error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	resolver NetworkResolver
	explorer ExplorerResolver
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, explorer ExplorerResolver) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		explorer: explorer,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	// Get all configured networks
	networkNames := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(networkNames))
	for _, name := range networkNames {
		status := NetworkStatus{
			Name: name,
		}

		info, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
		} else {
			status.ChainID = info.ChainID
			status.RPCHost = rpcHost(info.RPCURL)
			status.HasSigner = info.PrivateKey != ""
		}

		if uc.explorer != nil {
			status.ExplorerURL = uc.explorer.ExplorerAPIURL(ctx, name)
		}

		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}

// rpcHost strips paths and query strings, which often embed API keys
func rpcHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
