package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
	"golang.org/x/time/rate"
)

// VerifierAdapter publishes contract sources on an Etherscan-compatible explorer
type VerifierAdapter struct {
	log        *slog.Logger
	explorer   *config.Explorer
	httpClient *http.Client
	pollLimit  rate.Limit
}

// NewVerifierAdapter creates a verifier for the configured explorer
func NewVerifierAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *VerifierAdapter {
	return &VerifierAdapter{
		log:        log.With("component", "VerifierAdapter"),
		explorer:   cfg.Explorer,
		httpClient: NewHTTPClient(),
		pollLimit:  rate.Every(defaultPollInterval),
	}
}

// Verify submits the artifact's standard JSON input for deployment.Address
// and waits for the explorer's verdict. Every failure is returned in the outcome.
func (v *VerifierAdapter) Verify(ctx context.Context, deployment *models.Deployment, artifact *models.Artifact) models.VerificationOutcome {
	if v.explorer == nil || v.explorer.APIURL == "" {
		return models.VerificationSkipped(fmt.Sprintf("no explorer configured for %s", deployment.Network))
	}
	if v.explorer.APIKey == "" {
		return models.VerificationFailed(fmt.Errorf("%w for %s", domain.ErrMissingAPIKey, deployment.Network))
	}
	if artifact.BuildInfo == nil || len(artifact.BuildInfo.Input) == 0 {
		return models.VerificationFailed(fmt.Errorf("%w: %s", domain.ErrMissingBuildInfo, artifact.FullyQualifiedName()))
	}

	address := deployment.Address.Hex()
	explorerURL := v.addressURL(address)
	client := NewEtherscanClient(v.httpClient, v.explorer.APIURL, v.explorer.APIKey, deployment.ChainID,
		rate.NewLimiter(v.pollLimit, 1), v.log)

	log := v.log.With("address", address, "contract", artifact.FullyQualifiedName())

	verified, err := client.IsVerified(ctx, address)
	if err != nil {
		log.Debug("source lookup failed, submitting anyway", "error", err)
	} else if verified {
		return models.AlreadyVerified(explorerURL)
	}

	submitted, err := client.Submit(ctx, VerifyRequest{
		Address:         address,
		ContractName:    artifact.FullyQualifiedName(),
		CompilerVersion: artifact.BuildInfo.CompilerVersion(),
		StandardJSON:    string(artifact.BuildInfo.Input),
	})
	if err != nil {
		return models.VerificationFailed(contextError(ctx, err))
	}
	if submitted.AlreadyVerified {
		return models.AlreadyVerified(explorerURL)
	}
	log.Debug("verification submitted", "guid", submitted.GUID)

	status, err := client.WaitForResult(ctx, submitted.GUID)
	if err != nil {
		return models.VerificationFailed(contextError(ctx, err))
	}

	switch {
	case status.AlreadyVerified:
		return models.AlreadyVerified(explorerURL)
	case status.Verified:
		return models.Verified(explorerURL, submitted.GUID)
	default:
		outcome := models.VerificationFailed(fmt.Errorf("explorer rejected verification: %s", status.Message))
		outcome.GUID = submitted.GUID
		return outcome
	}
}

// addressURL links to the contract's code tab on the block explorer
func (v *VerifierAdapter) addressURL(address string) string {
	if v.explorer.BrowserURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s#code", strings.TrimSuffix(v.explorer.BrowserURL, "/"), address)
}

// contextError names the verification timeout instead of a bare deadline error
func contextError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("verification timed out: %w", err)
	}
	return err
}

// Ensure the adapter implements the interface
var _ usecase.ContractVerifier = (*VerifierAdapter)(nil)
