package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// CheckerAdapter implements the BlockchainChecker interface using ethclient
type CheckerAdapter struct {
	conn *Connection
}

// NewCheckerAdapter creates a new blockchain checker adapter
func NewCheckerAdapter(conn *Connection) *CheckerAdapter {
	return &CheckerAdapter{conn: conn}
}

// ChainID returns the chain id of the connected network
func (c *CheckerAdapter) ChainID(ctx context.Context) (uint64, error) {
	return c.conn.ChainID(ctx)
}

// CheckDeploymentExists checks if a contract exists at the given address
func (c *CheckerAdapter) CheckDeploymentExists(ctx context.Context, address common.Address) (bool, error) {
	backend, err := c.conn.Backend(ctx)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}

	// If no code at address, contract doesn't exist
	return len(code) > 0, nil
}

// Ensure the adapter implements the interface
var _ usecase.BlockchainChecker = (*CheckerAdapter)(nil)
