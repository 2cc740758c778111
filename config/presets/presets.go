// Package presets contains named configurations that replace the defaults.
package presets

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spacemeshos/go-iusync/config"
)

var presets = map[string]config.Config{}

func register(name string, preset config.Config) {
	if _, exist := presets[name]; exist {
		panic(fmt.Sprintf("preset with name %s already exists", name))
	}
	preset.Preset = name
	presets[name] = preset
}

// Options returns the names of all presets.
func Options() []string {
	return slices.Sorted(maps.Keys(presets))
}

// Get a preset by name. The config is a copy owned by the caller.
func Get(name string) (config.Config, error) {
	preset, exists := presets[name]
	if !exists {
		return config.Config{}, fmt.Errorf("preset %s doesn't exist, options %v", name, Options())
	}
	preset.P2P.Listen = slices.Clone(preset.P2P.Listen)
	preset.P2P.Bootnodes = slices.Clone(preset.P2P.Bootnodes)
	preset.Buffer.CategoryInterests = slices.Clone(preset.Buffer.CategoryInterests)
	preset.LOGGING.Modules = maps.Clone(preset.LOGGING.Modules)
	preset.Metrics.PushHeader = maps.Clone(preset.Metrics.PushHeader)
	return preset, nil
}
