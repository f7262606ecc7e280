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

// HardhatArtifact represents artifacts/<source>/<Name>.json
type HardhatArtifact struct {
	Format           string          `json:"_format"`
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode"`
}

// HardhatDebugFile represents the <Name>.dbg.json file next to each artifact
type HardhatDebugFile struct {
	Format    string `json:"_format"`
	BuildInfo string `json:"buildInfo"` // relative to the dbg file
}

func indexHardhatArtifact(path string, data []byte) (*artifactRef, error) {
	var raw struct {
		Format       string `json:"_format"`
		ContractName string `json:"contractName"`
		SourceName   string `json:"sourceName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if raw.ContractName == "" || raw.SourceName == "" {
		return nil, nil
	}
	// hh-sol-artifact-1 and later formats; build-info and dbg files differ
	if raw.Format != "" && !strings.Contains(raw.Format, "artifact") {
		return nil, nil
	}

	return &artifactRef{
		Name:       raw.ContractName,
		SourceName: raw.SourceName,
		Path:       path,
	}, nil
}

func loadHardhatArtifact(ref *artifactRef) (*models.Artifact, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var raw HardhatArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidArtifact, ref.Path, err)
	}

	return buildArtifact(ref, models.LayoutHardhat, raw.ABI, raw.Bytecode, raw.DeployedBytecode)
}

// hardhatBuildInfoPath resolves the build-info file referenced by the dbg file
func hardhatBuildInfoPath(artifactPath string) (string, error) {
	dbgPath := strings.TrimSuffix(artifactPath, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(dbgPath), err)
	}

	var dbg HardhatDebugFile
	if err := json.Unmarshal(data, &dbg); err != nil {
		return "", fmt.Errorf("parsing %s: %w", filepath.Base(dbgPath), err)
	}
	if dbg.BuildInfo == "" {
		return "", fmt.Errorf("%s has no buildInfo reference", filepath.Base(dbgPath))
	}

	if filepath.IsAbs(dbg.BuildInfo) {
		return dbg.BuildInfo, nil
	}
	return filepath.Join(filepath.Dir(dbgPath), dbg.BuildInfo), nil
}

// buildArtifact decodes the ABI and bytecode shared by both layouts
func buildArtifact(ref *artifactRef, layout models.ArtifactLayout, rawABI json.RawMessage, bytecode, deployedBytecode string) (*models.Artifact, error) {
	parsedABI, err := parseABI(rawABI)
	if err != nil {
		return nil, fmt.Errorf("%w: %s ABI: %v", domain.ErrInvalidArtifact, ref.fullyQualifiedName(), err)
	}

	code, err := decodeBytecode(ref.fullyQualifiedName(), bytecode)
	if err != nil {
		return nil, err
	}

	// Runtime code is only used for the post-deploy comparison
	runtime, err := decodeBytecode(ref.fullyQualifiedName(), deployedBytecode)
	if err != nil {
		runtime = nil
	}

	return &models.Artifact{
		Name:             ref.Name,
		SourceName:       ref.SourceName,
		Path:             ref.Path,
		Layout:           layout,
		ABI:              parsedABI,
		RawABI:           rawABI,
		Bytecode:         code,
		DeployedBytecode: runtime,
	}, nil
}
