package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// RenderVerifyResult prints the outcome for a single address
func (r *VerifyRenderer) RenderVerifyResult(result *usecase.VerifyContractResult) error {
	if result == nil || result.Deployment == nil {
		return nil
	}

	fmt.Fprintln(r.out)
	color.New(color.FgCyan, color.Bold).Fprintln(r.out, "Verification")
	fmt.Fprintln(r.out, keyValueTable([][2]string{
		{"Contract", result.Artifact.FullyQualifiedName()},
		{"Network", fmt.Sprintf("%s (chain %d)", result.Deployment.Network, result.Deployment.ChainID)},
		{"Address", result.Deployment.Address.Hex()},
		{"Status", verificationLine(result.Outcome)},
		{"GUID", result.Outcome.GUID},
		{"Explorer", result.Outcome.URL},
	}))
	return nil
}
