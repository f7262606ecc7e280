package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// BuildInfo represents a build-info file (hh-sol-build-info-1 format),
// written by both hardhat and forge build --build-info
type BuildInfo struct {
	ID              string          `json:"id"`
	SolcVersion     string          `json:"solcVersion"`     // Short: "0.8.18"
	SolcLongVersion string          `json:"solcLongVersion"` // Full: "0.8.18+commit.87f61d96"
	Input           json.RawMessage `json:"input"`           // Standard JSON Input
	Output          json.RawMessage `json:"output"`          // Compilation output
}

// buildInfoOutputContracts represents output.contracts from Solidity compiler output
type buildInfoOutputContracts map[string]map[string]json.RawMessage

// foundryStandardJSONKeysToStrip are top-level keys Foundry adds that the Solidity compiler rejects.
// Standard JSON input only allows: language, sources, settings.
var foundryStandardJSONKeysToStrip = []string{"allowPaths", "basePath", "includePaths", "version"}

// findBuildInfo locates the compiler input that produced ref
func (r *Repository) findBuildInfo(ref *artifactRef) (*models.BuildInfo, error) {
	if r.layout == models.LayoutFoundry {
		return r.findFoundryBuildInfo(ref)
	}

	path, err := hardhatBuildInfoPath(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMissingBuildInfo, err)
	}

	info, err := readBuildInfo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMissingBuildInfo, err)
	}

	return toModel(info, info.Input), nil
}

// findFoundryBuildInfo scans out/build-info for the file whose output
// contains the contract, falling back to one whose input lists the source
func (r *Repository) findFoundryBuildInfo(ref *artifactRef) (*models.BuildInfo, error) {
	buildInfoDir := filepath.Join(r.artifactsDir, "build-info")

	entries, err := os.ReadDir(buildInfoDir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading build-info directory: %v (run forge build --build-info)", domain.ErrMissingBuildInfo, err)
	}

	var fallback *BuildInfo
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		info, err := readBuildInfo(filepath.Join(buildInfoDir, entry.Name()))
		if err != nil {
			continue
		}

		if outputHasContract(info.Output, ref.SourceName, ref.Name) {
			return foundryModel(info)
		}
		if fallback == nil && inputHasSource(info.Input, ref.SourceName) {
			fallback = info
		}
	}

	if fallback != nil {
		return foundryModel(fallback)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrMissingBuildInfo, ref.fullyQualifiedName())
}

func readBuildInfo(path string) (*BuildInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info BuildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if len(info.Input) == 0 {
		return nil, fmt.Errorf("%s has no compiler input", filepath.Base(path))
	}
	return &info, nil
}

func outputHasContract(output json.RawMessage, sourceName, contractName string) bool {
	if len(output) == 0 {
		return false
	}
	var parsed struct {
		Contracts buildInfoOutputContracts `json:"contracts"`
	}
	if err := json.Unmarshal(output, &parsed); err != nil {
		return false
	}
	_, ok := parsed.Contracts[sourceName][contractName]
	return ok
}

func inputHasSource(input json.RawMessage, sourceName string) bool {
	var parsed struct {
		Sources map[string]json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(input, &parsed); err != nil {
		return false
	}
	_, ok := parsed.Sources[sourceName]
	return ok
}

func foundryModel(info *BuildInfo) (*models.BuildInfo, error) {
	input, err := stripFoundryStandardJSONKeys(info.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMissingBuildInfo, err)
	}
	return toModel(info, input), nil
}

// stripFoundryStandardJSONKeys removes Foundry-specific keys from standard JSON input
// so it conforms to the Solidity compiler's expected format.
func stripFoundryStandardJSONKeys(input json.RawMessage) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(input, &m); err != nil {
		return nil, err
	}
	for _, key := range foundryStandardJSONKeysToStrip {
		delete(m, key)
	}
	return json.Marshal(m)
}

func toModel(info *BuildInfo, input json.RawMessage) *models.BuildInfo {
	return &models.BuildInfo{
		ID:              info.ID,
		SolcVersion:     info.SolcVersion,
		SolcLongVersion: info.SolcLongVersion,
		Input:           input,
	}
}
