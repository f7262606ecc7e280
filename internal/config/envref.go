package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// expandTracked expands environment variables in raw. When raw is a pure
// ${VAR} reference to an unset variable, the variable name is recorded
// under key in missing.
func expandTracked(raw, key string, missing map[string]string) string {
	if name, ok := DetectEnvVar(raw); ok {
		if _, set := os.LookupEnv(name); !set {
			missing[key] = name
		}
	}
	return os.ExpandEnv(raw)
}
