package artifacts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// FoundryArtifact represents the structure of a Foundry artifact JSON file
type FoundryArtifact struct {
	ABI              json.RawMessage `json:"abi"`
	Bytecode         BytecodeObject  `json:"bytecode"`
	DeployedBytecode BytecodeObject  `json:"deployedBytecode"`
	Metadata         FoundryMetadata `json:"metadata"`
}

// BytecodeObject represents bytecode in a Foundry artifact
type BytecodeObject struct {
	Object string `json:"object"`
}

// FoundryMetadata represents the parts of the solc metadata catapult reads
type FoundryMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// compilationTarget returns the single source/contract pair the artifact was built for
func (m FoundryMetadata) compilationTarget() (sourceName, contractName string) {
	for source, contract := range m.Settings.CompilationTarget {
		return source, contract
	}
	return "", ""
}

func indexFoundryArtifact(path string, data []byte) (*artifactRef, error) {
	var raw struct {
		Bytecode BytecodeObject  `json:"bytecode"`
		Metadata FoundryMetadata `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	sourceName, contractName := raw.Metadata.compilationTarget()
	if contractName == "" || sourceName == "" {
		return nil, nil
	}

	return &artifactRef{
		Name:       contractName,
		SourceName: sourceName,
		Path:       path,
	}, nil
}

func loadFoundryArtifact(ref *artifactRef) (*models.Artifact, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var raw FoundryArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidArtifact, ref.Path, err)
	}

	return buildArtifact(ref, models.LayoutFoundry, raw.ABI, raw.Bytecode.Object, raw.DeployedBytecode.Object)
}
