package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

const starterHeader = `# covrun configuration.
# Command-line flags and COVRUN_* environment variables override
# the values in this file.
`

// WriteStarter writes a starter covrun.yaml to path so a project can
// check its coverage settings in. It refuses to overwrite an existing
// file unless force is set.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s already exists, use --force to overwrite", coverrs.ErrValidation, path)
		}
	}

	starter := Default()
	starter.CoverageName = "unit_tests"
	starter.TestExe = "./build/tests/unit_tests"

	data, err := yaml.Marshal(starter)
	if err != nil {
		return fmt.Errorf("failed to marshal starter config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(starterHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write starter config %s: %w", path, err)
	}
	return nil
}
