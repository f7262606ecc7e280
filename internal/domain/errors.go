package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sentinel errors for domain operations
var (
	// ErrInvalidConfig is wrapped by every configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrArtifactNotFound is returned when no compiled artifact matches the contract name
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidArtifact is returned when an artifact cannot be used for deployment
	ErrInvalidArtifact = errors.New("invalid artifact")

	// ErrInvalidPrivateKey is returned when the signing key cannot be parsed
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrChainIDMismatch is returned when the RPC endpoint serves a different chain than configured
	ErrChainIDMismatch = errors.New("chain ID mismatch")

	// ErrNetworkNotFound is returned when the requested network is not configured
	ErrNetworkNotFound = errors.New("network not found")

	// ErrAborted is returned when the operator declines the deployment prompt
	ErrAborted = errors.New("deployment aborted")

	// ErrNotInteractive is returned by prompts when stdin is not a terminal
	ErrNotInteractive = errors.New("interactive input not available")

	// ErrVerificationFailed is returned by the stand-alone verify command
	ErrVerificationFailed = errors.New("verification failed")

	// ErrMissingAPIKey is carried by verification outcomes when no explorer key is configured
	ErrMissingAPIKey = errors.New("no explorer API key configured")

	// ErrMissingBuildInfo is carried by verification outcomes when compiler input is unavailable
	ErrMissingBuildInfo = errors.New("no build info available for artifact")

	// ErrNoCode is returned when the confirmed address holds no runtime code
	ErrNoCode = errors.New("no contract code at address after deployment")
)

// ConfigError lists the configuration fields that are missing or invalid.
// It is reported before any network call is made.
type ConfigError struct {
	Fields []string
	Reason string
	Err    error // optional underlying cause
}

func (e *ConfigError) Error() string {
	fields := make([]string, len(e.Fields))
	copy(fields, e.Fields)
	sort.Strings(fields)

	msg := "invalid configuration"
	if len(fields) > 0 {
		msg = fmt.Sprintf("%s: missing or invalid %s", msg, strings.Join(fields, ", "))
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}

// AmbiguousArtifactError is returned when more than one artifact matches a contract name
type AmbiguousArtifactError struct {
	Name    string
	Matches []string
}

func (e *AmbiguousArtifactError) Error() string {
	matches := make([]string, len(e.Matches))
	copy(matches, e.Matches)
	sort.Strings(matches)

	var suggestions []string
	for _, m := range matches {
		suggestions = append(suggestions, fmt.Sprintf("  - %s", m))
	}

	return fmt.Sprintf("multiple artifacts found for %s - use sourceName:ContractName to disambiguate:\n%s",
		e.Name, strings.Join(suggestions, "\n"))
}

// SubmitError wraps a failure to send the contract-creation transaction
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to submit deployment transaction: %v", e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// ConfirmationTimeoutError means the transaction was not confirmed in time.
// The transaction may still be mined later.
type ConfirmationTimeoutError struct {
	TxHash  string
	Timeout time.Duration
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed within %s (it may still be pending)", e.TxHash, e.Timeout)
}

func (e *ConfirmationTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// RevertError means the deployment transaction was mined and failed
type RevertError struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("deployment transaction %s reverted in block %d (gas used %d)", e.TxHash, e.BlockNumber, e.GasUsed)
}

// ConfirmationError wraps any other failure while waiting for the receipt
type ConfirmationError struct {
	TxHash string
	Err    error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("failed to confirm transaction %s: %v", e.TxHash, e.Err)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}

// IsConfirmationFailure reports whether err came from the confirmation phase
func IsConfirmationFailure(err error) bool {
	var timeoutErr *ConfirmationTimeoutError
	var revertErr *RevertError
	var confirmErr *ConfirmationError
	return errors.As(err, &timeoutErr) || errors.As(err, &revertErr) || errors.As(err, &confirmErr)
}
