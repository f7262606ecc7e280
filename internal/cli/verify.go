package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <address>",
		Short: "Verify an already deployed contract on the block explorer",
		Long: `Verify the source of a contract that is already deployed at <address>,
using the local artifact of the configured contract.

An already verified contract is not an error.

Examples:
  catapult verify 0x5FbDB2315678afecb367f032d93F642f64180aa3 --network arbitrumGoerli
  catapult verify 0x5FbD... -n sepolia -c contracts/Registration.sol:Registration`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.VerifyContract.Run(cmd.Context(), usecase.VerifyContractParams{
				Address: args[0],
			})
			app.Progress.Stop()
			if renderErr := render.NewVerifyRenderer(cmd.OutOrStdout()).RenderVerifyResult(result); renderErr != nil {
				return renderErr
			}
			return err
		},
	}

	return cmd
}
