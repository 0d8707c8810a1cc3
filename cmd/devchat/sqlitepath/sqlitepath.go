// Package sqlitepath resolves the local transcript database location.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvSQLitePath overrides the default database location.
const EnvSQLitePath = "DEVCHAT_SQLITE"

// ResolveSQLitePath returns override when set, then $DEVCHAT_SQLITE, then
// ~/.devchat/devchat.db. The parent directory is created.
func ResolveSQLitePath(override string) (string, error) {
	path := override
	if path == "" {
		path = os.Getenv(EnvSQLitePath)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		path = filepath.Join(home, ".devchat", "devchat.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("could not create directory for %s: %w", path, err)
	}
	return path, nil
}
