package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultPollInterval   = 3 * time.Second
)

// Etherscan status check results
const (
	resultPending         = "Pending in queue"
	resultPass            = "Pass - Verified"
	resultAlreadyVerified = "Already Verified"
	resultRateLimited     = "Max rate limit reached"
)

// VerifyRequest is a standard-json verification submission
type VerifyRequest struct {
	Address         string
	ContractName    string // sourceName:ContractName
	CompilerVersion string // v0.8.18+commit.87f61d96
	StandardJSON    string
	ConstructorArgs string // hex without 0x
}

// SubmitResult is the explorer's answer to a verification submission
type SubmitResult struct {
	GUID            string
	AlreadyVerified bool
}

// StatusResult is the explorer's answer to a status check
type StatusResult struct {
	Pending         bool
	Verified        bool
	AlreadyVerified bool
	Message         string
}

// APIError is a response the explorer rejected
type APIError struct {
	Action  string
	Message string
	Result  string
}

func (e *APIError) Error() string {
	if e.Result != "" && e.Result != e.Message {
		return fmt.Sprintf("%s: %s: %s", e.Action, e.Message, e.Result)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// RateLimited reports whether the explorer throttled the request
func (e *APIError) RateLimited() bool {
	return strings.Contains(e.Result, "rate limit") || strings.Contains(e.Message, "rate limit")
}

// EtherscanClient talks to an Etherscan-compatible contract API
type EtherscanClient struct {
	http    *http.Client
	apiURL  string
	apiKey  string
	chainID uint64
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewHTTPClient returns the instrumented client used for explorer requests
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   defaultRequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewEtherscanClient creates a client for one chain.
// Status checks are paced by limiter.
func NewEtherscanClient(httpClient *http.Client, apiURL, apiKey string, chainID uint64, limiter *rate.Limiter, log *slog.Logger) *EtherscanClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(defaultPollInterval), 1)
	}
	return &EtherscanClient{
		http:    httpClient,
		apiURL:  apiURL,
		apiKey:  apiKey,
		chainID: chainID,
		limiter: limiter,
		log:     log,
	}
}

// etherscanResponse represents Etherscan API response
type etherscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// resultString returns the result field when it is a plain string
func (r *etherscanResponse) resultString() string {
	var s string
	if err := json.Unmarshal(r.Result, &s); err != nil {
		return ""
	}
	return s
}

type sourceCodeEntry struct {
	SourceCode   string `json:"SourceCode"`
	ContractName string `json:"ContractName"`
}

// IsVerified reports whether the explorer already has source for address
func (c *EtherscanClient) IsVerified(ctx context.Context, address string) (bool, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getsourcecode")
	params.Set("address", address)

	resp, err := c.get(ctx, params)
	if err != nil {
		return false, err
	}
	if resp.Status != "1" {
		return false, &APIError{Action: "getsourcecode", Message: resp.Message, Result: resp.resultString()}
	}

	var entries []sourceCodeEntry
	if err := json.Unmarshal(resp.Result, &entries); err != nil {
		return false, fmt.Errorf("failed to parse getsourcecode result: %w", err)
	}
	return len(entries) > 0 && entries[0].SourceCode != "", nil
}

// Submit sends the verification request and returns the GUID to poll
func (c *EtherscanClient) Submit(ctx context.Context, req VerifyRequest) (*SubmitResult, error) {
	data := url.Values{}
	data.Set("apikey", c.apiKey)
	data.Set("module", "contract")
	data.Set("action", "verifysourcecode")
	data.Set("contractaddress", req.Address)
	data.Set("sourceCode", req.StandardJSON)
	data.Set("codeformat", "solidity-standard-json-input")
	data.Set("contractname", req.ContractName)
	data.Set("compilerversion", req.CompilerVersion)
	if req.ConstructorArgs != "" {
		data.Set("constructorArguements", req.ConstructorArgs) // Note: Etherscan typo
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(nil), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to submit verification: %w", err)
	}

	result := resp.resultString()
	if resp.Status != "1" {
		if isAlreadyVerified(result) {
			return &SubmitResult{AlreadyVerified: true}, nil
		}
		return nil, &APIError{Action: "verifysourcecode", Message: resp.Message, Result: result}
	}
	return &SubmitResult{GUID: result}, nil
}

// CheckStatus returns the current state of a submitted verification
func (c *EtherscanClient) CheckStatus(ctx context.Context, guid string) (*StatusResult, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "checkverifystatus")
	params.Set("guid", guid)

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	result := resp.resultString()
	switch {
	case strings.HasPrefix(result, resultPending), result == resultRateLimited:
		return &StatusResult{Pending: true, Message: result}, nil
	case isAlreadyVerified(result):
		return &StatusResult{AlreadyVerified: true, Message: result}, nil
	case resp.Status == "1" || result == resultPass:
		return &StatusResult{Verified: true, Message: result}, nil
	default:
		return &StatusResult{Message: result}, nil
	}
}

// WaitForResult polls the status of guid until it leaves the queue
func (c *EtherscanClient) WaitForResult(ctx context.Context, guid string) (*StatusResult, error) {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				// The next check would land past the deadline
				err = context.DeadlineExceeded
			}
			return nil, fmt.Errorf("stopped waiting for verification %s: %w", guid, err)
		}

		status, err := c.CheckStatus(ctx, guid)
		if err != nil {
			return nil, err
		}
		if !status.Pending {
			return status, nil
		}
		c.log.Debug("verification pending", "guid", guid, "result", status.Message)
	}
}

func (c *EtherscanClient) get(ctx context.Context, params url.Values) (*etherscanResponse, error) {
	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(params), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *EtherscanClient) do(req *http.Request) (*etherscanResponse, error) {
	resp, err := c.http.Do(req) //nolint:gosec // URL is constructed from configured explorer endpoint
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("explorer returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result etherscanResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// endpoint returns the API URL with the chain selector and params appended
func (c *EtherscanClient) endpoint(params url.Values) string {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return c.apiURL
	}
	query := u.Query()
	query.Set("chainid", strconv.FormatUint(c.chainID, 10))
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}
