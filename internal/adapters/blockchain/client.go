package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// Backend is the part of an Ethereum client used to deploy and inspect contracts.
// Both *ethclient.Client and the simulated backend client satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.ChainIDReader
	ethereum.BlockNumberReader
}

// Dialer opens a backend for an RPC URL
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// DialRPC connects to a JSON-RPC endpoint with ethclient
func DialRPC(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Connection lazily dials the configured network and shares the client
// between the deployer and the checker
type Connection struct {
	log    *slog.Logger
	rpcURL string
	dial   Dialer

	mu      sync.Mutex
	backend Backend
}

// NewConnection creates a connection for the configured network.
// No request is made until the backend is first used.
func NewConnection(cfg *config.RuntimeConfig, log *slog.Logger) *Connection {
	conn := &Connection{
		log:  log.With("component", "Connection"),
		dial: DialRPC,
	}
	if cfg.Network != nil {
		conn.rpcURL = cfg.Network.RPCURL
	}
	return conn
}

// NewConnectionWithBackend wraps an already connected backend
func NewConnectionWithBackend(backend Backend, log *slog.Logger) *Connection {
	return &Connection{
		log:     log.With("component", "Connection"),
		backend: backend,
	}
}

// Backend returns the connected client, dialing on first use
func (c *Connection) Backend(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	if c.rpcURL == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	c.log.Debug("dialing RPC", "url", redactURL(c.rpcURL))
	backend, err := c.dial(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	c.backend = backend
	return backend, nil
}

// ChainID returns the chain id reported by the RPC endpoint
func (c *Connection) ChainID(ctx context.Context) (uint64, error) {
	backend, err := c.Backend(ctx)
	if err != nil {
		return 0, err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainID.Uint64(), nil
}

// Close releases the underlying client when it owns one
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if closer, ok := c.backend.(interface{ Close() }); ok && c.dial != nil {
		closer.Close()
	}
	c.backend = nil
}
