package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// DeployRenderer renders the result of a deployment run
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// RenderSummary prints the deployment summary. Nothing is printed for runs
// that never reached confirmation.
func (r *DeployRenderer) RenderSummary(result *usecase.DeployResult) error {
	if result == nil || result.Deployment == nil {
		return nil
	}
	d := result.Deployment

	contract := d.ContractName
	if result.Artifact != nil && result.Artifact.SourceName != "" {
		contract = fmt.Sprintf("%s (%s)", d.ContractName, result.Artifact.SourceName)
	}

	fmt.Fprintln(r.out)
	color.New(color.FgCyan, color.Bold).Fprintln(r.out, "Deployment summary")
	fmt.Fprintln(r.out, keyValueTable([][2]string{
		{"Contract", contract},
		{"Network", fmt.Sprintf("%s (chain %d)", d.Network, d.ChainID)},
		{"Address", color.New(color.FgGreen, color.Bold).Sprint(d.Address.Hex())},
		{"Transaction", d.TxHash.Hex()},
		{"Block", fmt.Sprintf("%d", d.BlockNumber)},
		{"Gas used", fmt.Sprintf("%d", d.GasUsed)},
		{"Deployer", d.Deployer.Hex()},
		{"Verification", verificationLine(result.Verification)},
		{"Explorer", result.Verification.URL},
	}))
	return nil
}

// verificationLine combines the status with the reason for anything but success
func verificationLine(outcome models.VerificationOutcome) string {
	status := FormatVerificationStatus(outcome.Status)
	if outcome.Status == models.VerificationStatusVerified || outcome.Detail() == "" {
		return status
	}
	return fmt.Sprintf("%s (%s)", status, outcome.Detail())
}
