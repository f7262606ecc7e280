package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// Library placeholder pattern: __$<34 hex chars>$__
var libraryPlaceholder = regexp.MustCompile(`__\$[a-fA-F0-9]{34}\$__`)

// artifactRef is an indexed artifact file, parsed lazily on lookup
type artifactRef struct {
	Name       string
	SourceName string
	Path       string
}

func (r *artifactRef) fullyQualifiedName() string {
	return fmt.Sprintf("%s:%s", r.SourceName, r.Name)
}

// Repository discovers compiled artifacts in the project build output
type Repository struct {
	artifactsDir string
	layout       models.ArtifactLayout
	log          *slog.Logger

	once     sync.Once
	indexErr error
	byName   map[string][]*artifactRef // key: contract name
	byFQN    map[string]*artifactRef   // key: sourceName:ContractName
}

// NewRepository creates a new artifact repository for the configured layout
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		artifactsDir: cfg.ArtifactsDir,
		layout:       cfg.Layout,
		log:          log.With("component", "ArtifactRepository"),
	}
}

// GetArtifact returns the artifact for a contract name or sourceName:ContractName
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	r.once.Do(func() {
		r.indexErr = r.index()
	})
	if r.indexErr != nil {
		return nil, r.indexErr
	}

	ref, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	r.log.Debug("loading artifact", "contract", ref.fullyQualifiedName(), "path", ref.Path)

	var artifact *models.Artifact
	switch r.layout {
	case models.LayoutFoundry:
		artifact, err = loadFoundryArtifact(ref)
	default:
		artifact, err = loadHardhatArtifact(ref)
	}
	if err != nil {
		return nil, err
	}

	if err := validateBytecode(artifact); err != nil {
		return nil, err
	}

	buildInfo, err := r.findBuildInfo(ref)
	if err != nil {
		// Deployment does not need compiler input; verification reports it
		r.log.Warn("build info not found", "contract", ref.fullyQualifiedName(), "error", err)
	}
	artifact.BuildInfo = buildInfo

	return artifact, nil
}

func (r *Repository) lookup(name string) (*artifactRef, error) {
	if strings.Contains(name, ":") {
		if ref, ok := r.byFQN[name]; ok {
			return ref, nil
		}
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrArtifactNotFound, name, r.artifactsDir)
	}

	refs := r.byName[name]
	switch len(refs) {
	case 0:
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrArtifactNotFound, name, r.artifactsDir)
	case 1:
		return refs[0], nil
	default:
		return nil, &domain.AmbiguousArtifactError{
			Name:    name,
			Matches: lo.Map(refs, func(ref *artifactRef, _ int) string { return ref.fullyQualifiedName() }),
		}
	}
}

// index walks the artifacts directory and records every contract artifact
func (r *Repository) index() error {
	r.byName = make(map[string][]*artifactRef)
	r.byFQN = make(map[string]*artifactRef)

	if _, err := os.Stat(r.artifactsDir); os.IsNotExist(err) {
		return fmt.Errorf("%w: artifacts directory %s does not exist (build the project or pass --compile)",
			domain.ErrArtifactNotFound, r.artifactsDir)
	}

	err := filepath.WalkDir(r.artifactsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip build info and cache directories
		if d.IsDir() {
			if d.Name() == "build-info" || d.Name() == "cache" {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}

		ref, err := r.indexFile(path)
		if err != nil {
			r.log.Debug("skipping artifact", "path", path, "error", err)
			return nil
		}
		if ref == nil {
			return nil
		}

		fqn := ref.fullyQualifiedName()
		if _, exists := r.byFQN[fqn]; exists {
			return nil
		}
		r.byFQN[fqn] = ref
		r.byName[ref.Name] = append(r.byName[ref.Name], ref)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index artifacts in %s: %w", r.artifactsDir, err)
	}

	for _, refs := range r.byName {
		sort.Slice(refs, func(i, j int) bool { return refs[i].SourceName < refs[j].SourceName })
	}

	r.log.Debug("indexed artifacts", "dir", r.artifactsDir, "layout", r.layout, "count", len(r.byFQN))
	return nil
}

// indexFile reads the identifying fields of an artifact file.
// Returns nil for JSON files that are not contract artifacts.
func (r *Repository) indexFile(path string) (*artifactRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if r.layout == models.LayoutFoundry {
		return indexFoundryArtifact(path, data)
	}
	return indexHardhatArtifact(path, data)
}

// parseABI parses the raw ABI JSON
func parseABI(raw json.RawMessage) (abi.ABI, error) {
	if len(raw) == 0 {
		return abi.ABI{}, nil
	}
	return abi.JSON(strings.NewReader(string(raw)))
}

// decodeBytecode decodes a hex bytecode string, rejecting unlinked libraries
func decodeBytecode(name, code string) ([]byte, error) {
	if libraryPlaceholder.MatchString(code) {
		return nil, fmt.Errorf("%w: %s has unlinked library references", domain.ErrInvalidArtifact, name)
	}
	if code == "" {
		return nil, nil
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	b, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s bytecode is not valid hex: %v", domain.ErrInvalidArtifact, name, err)
	}
	return b, nil
}

// validateBytecode rejects artifacts that cannot be deployed
func validateBytecode(artifact *models.Artifact) error {
	if len(artifact.Bytecode) == 0 {
		return fmt.Errorf("%w: %s has no creation bytecode (interface or abstract contract?)",
			domain.ErrInvalidArtifact, artifact.FullyQualifiedName())
	}
	return nil
}

var _ usecase.ArtifactRepository = (*Repository)(nil)
