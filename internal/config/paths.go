// Package config loads horizon scenario files.
//
// A scenario is a YAML file with planner, driver and goals sections. Its
// location can be given explicitly or through the HORIZON_CONFIG environment
// variable; with neither, built-in defaults apply. Keys missing from a file
// keep their default values.
package config

import (
	"fmt"
	"os"

	"github.com/danieljhkim/horizon/internal/fsops"
)

// EnvConfig names the environment variable holding the default scenario path.
const EnvConfig = "HORIZON_CONFIG"

// ResolvePath returns the scenario file to load.
// Precedence:
// - explicit, when non-empty
// - HORIZON_CONFIG, when set
// - "" (use defaults)
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(EnvConfig)
}

// WriteDefault writes the default scenario to path, creating parent
// directories. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	return writeDefault(fsops.NewRealFS(), path)
}

func writeDefault(fs fsops.FS, path string) error {
	exists, err := fs.Exists(path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	if err := fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
