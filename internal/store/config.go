package store

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadJobConfig decodes the TOML file at path on top of base. Keys missing
// from the file keep their base values.
//
//	problem = "rastrigin"
//	dimension = 8
//	seed = 42
//	population_size = 200
func LoadJobConfig(path string, base JobConfig) (JobConfig, error) {
	cfg := base
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return base, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}
	return cfg, nil
}
