package verification

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"golang.org/x/time/rate"
)

// fakeExplorer serves the three Etherscan contract actions
type fakeExplorer struct {
	mu sync.Mutex

	sourceCode   string
	submitStatus string
	submitResult string
	statuses     []string // checkverifystatus results, the last one repeats

	submitted url.Values
	chainIDs  []string
	checks    int
}

func (f *fakeExplorer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		require.NoError(t, r.ParseForm())
		f.chainIDs = append(f.chainIDs, r.URL.Query().Get("chainid"))

		switch r.Form.Get("action") {
		case "getsourcecode":
			writeResponse(w, "1", "OK", []map[string]string{{"SourceCode": f.sourceCode, "ContractName": "Registration"}})
		case "verifysourcecode":
			f.submitted = r.PostForm
			writeResponse(w, f.submitStatus, "OK", f.submitResult)
		case "checkverifystatus":
			result := f.statuses[min(f.checks, len(f.statuses)-1)]
			f.checks++
			status := "0"
			if result == resultPass {
				status = "1"
			}
			writeResponse(w, status, "OK", result)
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
		}
	}
}

func writeResponse(w http.ResponseWriter, status, message string, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "message": message, "result": result})
}

func newTestVerifier(t *testing.T, explorer *fakeExplorer, apiKey string) *VerifierAdapter {
	t.Helper()
	server := httptest.NewServer(explorer.handler(t))
	t.Cleanup(server.Close)

	v := NewVerifierAdapter(&config.RuntimeConfig{
		Explorer: &config.Explorer{
			APIURL:     server.URL + "/v2/api",
			BrowserURL: "https://goerli.arbiscan.io",
			APIKey:     apiKey,
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	v.pollLimit = rate.Inf
	return v
}

func testDeployment() *models.Deployment {
	return &models.Deployment{
		ContractName: "Registration",
		Address:      common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ChainID:      421613,
		Network:      "arbitrumGoerli",
	}
}

func testArtifact() *models.Artifact {
	return &models.Artifact{
		Name:       "Registration",
		SourceName: "contracts/Registration.sol",
		BuildInfo: &models.BuildInfo{
			SolcLongVersion: "0.8.18+commit.87f61d96",
			Input:           json.RawMessage(`{"language":"Solidity","sources":{}}`),
		},
	}
}

func TestVerifierAdapter_Verify(t *testing.T) {
	const codeURL = "https://goerli.arbiscan.io/address/0x5FbDB2315678afecb367f032d93F642f64180aa3#code"

	t.Run("verified after pending", func(t *testing.T) {
		explorer := &fakeExplorer{
			submitStatus: "1",
			submitResult: "ezq878u486pzijkvvmerl6a9mzwhv6sefgvqi5tkwceejc7tvn",
			statuses:     []string{resultPending, resultPending, resultPass},
		}
		outcome := newTestVerifier(t, explorer, "KEY").Verify(context.Background(), testDeployment(), testArtifact())

		assert.Equal(t, models.VerificationStatusVerified, outcome.Status)
		assert.Equal(t, codeURL, outcome.URL)
		assert.Equal(t, "ezq878u486pzijkvvmerl6a9mzwhv6sefgvqi5tkwceejc7tvn", outcome.GUID)
		assert.Equal(t, 3, explorer.checks)

		assert.Equal(t, "solidity-standard-json-input", explorer.submitted.Get("codeformat"))
		assert.Equal(t, "contracts/Registration.sol:Registration", explorer.submitted.Get("contractname"))
		assert.Equal(t, "v0.8.18+commit.87f61d96", explorer.submitted.Get("compilerversion"))
		assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", explorer.submitted.Get("contractaddress"))
		assert.JSONEq(t, `{"language":"Solidity","sources":{}}`, explorer.submitted.Get("sourceCode"))
		for _, chainID := range explorer.chainIDs {
			assert.Equal(t, "421613", chainID)
		}
	})

	t.Run("source already published", func(t *testing.T) {
		explorer := &fakeExplorer{sourceCode: "pragma solidity ^0.8.0;"}
		outcome := newTestVerifier(t, explorer, "KEY").Verify(context.Background(), testDeployment(), testArtifact())

		assert.Equal(t, models.VerificationStatusAlreadyVerified, outcome.Status)
		assert.True(t, outcome.Succeeded())
		assert.Nil(t, explorer.submitted)
	})

	t.Run("submission says already verified", func(t *testing.T) {
		explorer := &fakeExplorer{submitStatus: "0", submitResult: "Contract source code already verified"}
		outcome := newTestVerifier(t, explorer, "KEY").Verify(context.Background(), testDeployment(), testArtifact())

		assert.Equal(t, models.VerificationStatusAlreadyVerified, outcome.Status)
		assert.Equal(t, codeURL, outcome.URL)
	})

	t.Run("status says already verified", func(t *testing.T) {
		explorer := &fakeExplorer{submitStatus: "1", submitResult: "guid", statuses: []string{resultAlreadyVerified}}
		outcome := newTestVerifier(t, explorer, "KEY").Verify(context.Background(), testDeployment(), testArtifact())

		assert.Equal(t, models.VerificationStatusAlreadyVerified, outcome.Status)
	})

	t.Run("explorer rejects source", func(t *testing.T) {
		explorer := &fakeExplorer{submitStatus: "1", submitResult: "guid", statuses: []string{"Fail - Unable to verify"}}
		outcome := newTestVerifier(t, explorer, "KEY").Verify(context.Background(), testDeployment(), testArtifact())

		assert.Equal(t, models.VerificationStatusFailed, outcome.Status)
		assert.Contains(t, outcome.Detail(), "Fail - Unable to verify")
		assert.Equal(t, "guid", outcome.GUID)
	})

	t.Run("submission rejected", func(t *testing.T) {
		explorer := &fakeExplorer{submitStatus: "0", submitResult: "Max rate limit reached"}
		outcome := newTestVerifier(t, explorer, "KEY").Verify(context.Background(), testDeployment(), testArtifact())

		assert.Equal(t, models.VerificationStatusFailed, outcome.Status)
		assert.Contains(t, outcome.Detail(), "Max rate limit reached")
		var apiErr *APIError
		require.ErrorAs(t, outcome.Err, &apiErr)
		assert.True(t, apiErr.RateLimited())
	})

	t.Run("missing api key", func(t *testing.T) {
		explorer := &fakeExplorer{}
		outcome := newTestVerifier(t, explorer, "").Verify(context.Background(), testDeployment(), testArtifact())

		assert.Equal(t, models.VerificationStatusFailed, outcome.Status)
		assert.ErrorIs(t, outcome.Err, domain.ErrMissingAPIKey)
		assert.Empty(t, explorer.chainIDs)
	})

	t.Run("missing build info", func(t *testing.T) {
		artifact := testArtifact()
		artifact.BuildInfo = nil
		outcome := newTestVerifier(t, &fakeExplorer{}, "KEY").Verify(context.Background(), testDeployment(), artifact)

		assert.Equal(t, models.VerificationStatusFailed, outcome.Status)
		assert.ErrorIs(t, outcome.Err, domain.ErrMissingBuildInfo)
	})

	t.Run("no explorer", func(t *testing.T) {
		v := NewVerifierAdapter(&config.RuntimeConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		outcome := v.Verify(context.Background(), testDeployment(), testArtifact())
		assert.Equal(t, models.VerificationStatusSkipped, outcome.Status)
	})

	t.Run("times out while pending", func(t *testing.T) {
		explorer := &fakeExplorer{submitStatus: "1", submitResult: "guid", statuses: []string{resultPending}}
		v := newTestVerifier(t, explorer, "KEY")
		v.pollLimit = rate.Every(20 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		outcome := v.Verify(ctx, testDeployment(), testArtifact())
		assert.Equal(t, models.VerificationStatusFailed, outcome.Status)
		assert.Contains(t, outcome.Detail(), "timed out")
	})
}

func TestEtherscanClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewEtherscanClient(NewHTTPClient(), server.URL, "KEY", 1, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := client.IsVerified(context.Background(), "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestEtherscanClient_Endpoint(t *testing.T) {
	client := NewEtherscanClient(NewHTTPClient(), "https://api.etherscan.io/v2/api", "KEY", 421613, nil, nil)
	assert.Equal(t, "https://api.etherscan.io/v2/api?chainid=421613", client.endpoint(nil))
}
