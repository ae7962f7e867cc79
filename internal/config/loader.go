package config

import (
	"fmt"
	"os"
	"strings"
)

// LoadRoutineDefinition reads an operator-maintained routine statement
// from the given path. An empty path means "use the built-in definition".
func LoadRoutineDefinition(filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read routine file '%s': %w", filePath, err)
	}

	def := strings.TrimSpace(string(bytes))
	if def == "" {
		return "", fmt.Errorf("routine file '%s' is empty", filePath)
	}
	return def, nil
}
