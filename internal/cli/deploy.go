package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the configured contract and verify it",
		Long: `Deploy the contract named in catapult.toml (or --contract) to the selected network.

The command exits 0 once the deployment is confirmed, whatever happens during
verification. Submission, confirmation timeout and revert exit 1.

Examples:
  catapult deploy --network arbitrumGoerli
  catapult deploy -n sepolia -c contracts/Registration.sol:Registration --compile
  catapult deploy -n mainnet --yes --no-verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.DeployContract.Run(cmd.Context())
			app.Progress.Stop()
			if err != nil {
				return err
			}

			return render.NewDeployRenderer(cmd.OutOrStdout()).RenderSummary(result)
		},
	}

	cmd.Flags().Int64("timeout", 0, "Confirmation timeout in milliseconds (overrides the network timeout)")
	cmd.Flags().Float64("gas-multiplier", 0, "Multiplier applied to the gas estimate")
	cmd.Flags().Bool("no-verify", false, "Skip explorer verification")
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
