package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders the configured networks without their secrets
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in catapult.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	// Render each network
	for _, network := range result.Networks {
		if network.Error != nil {
			fmt.Fprintf(r.out, "  ❌ %s - Error: %v\n", network.Name, network.Error)
			continue
		}

		signer := color.New(color.FgYellow).Sprint("no signer")
		if network.HasSigner {
			signer = color.New(color.FgGreen).Sprint("signer set")
		}

		chainID := "auto"
		if network.ChainID != 0 {
			chainID = fmt.Sprintf("%d", network.ChainID)
		}

		fmt.Fprintf(r.out, "  ✅ %s - Chain ID: %s - %s - %s\n", network.Name, chainID, network.RPCHost, signer)
		if network.ExplorerURL != "" {
			fmt.Fprintf(r.out, "     explorer: %s\n", network.ExplorerURL)
		}
	}

	return nil
}
