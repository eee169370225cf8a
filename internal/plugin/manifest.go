package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestNames are the recognized manifest file names inside a plugin's
// install directory, checked in order.
var ManifestNames = []string{"plugin.yaml", "plugin.yml"}

// Manifest is the optional per-plugin manifest. Init overrides the
// descriptor's kind tag when choosing the registered capability.
type Manifest struct {
	Name string `yaml:"name,omitempty"`
	Init string `yaml:"init,omitempty"`
}

// ReadManifest loads the manifest from a plugin install directory. A missing
// manifest is not an error: it returns an empty manifest, and capability
// lookup falls back to the descriptor's kind tag.
func ReadManifest(installDir string) (*Manifest, error) {
	for _, name := range ManifestNames {
		path := filepath.Join(installDir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", path, err)
		}

		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", path, err)
		}
		return &m, nil
	}
	return &Manifest{}, nil
}
