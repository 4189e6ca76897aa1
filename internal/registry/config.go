// Package registry loads the declared-pipelines configuration and
// implements the configuration half of the query surface (C8): lookup by
// name, the deduplicated trigger union, and attach-option precedence
// resolution feeding the detach supervisor (C6). Grounded on the
// teacher's sync.RWMutex-guarded Registry (internal/ops/registry.go),
// generalized from an op registry to a pipeline-declaration registry, and
// on its v2 agent's environment-driven config loading
// (internal/config/config.go).
package registry

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kodelint/pipelight/internal/pipeline"
)

// Config is the parsed declaration file: every pipeline the project
// knows about, plus process-wide default options.
type Config struct {
	Pipelines []*pipeline.Pipeline `yaml:"pipelines"`
	Options   *pipeline.Options    `yaml:"options"`
}

// DefaultFileName is the conventional declaration file name, matching the
// original implementation's "pipelight.config" convention re-expressed as
// a Go-native YAML document.
const DefaultFileName = "pipelight.config.yaml"

// Load reads and parses the declaration file at path using viper (so
// users may also supply JSON or TOML without changing the schema), then
// unmarshals the resolved tree with yaml.v3 struct tags.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("registry: read config %q: %w", path, err)
	}

	raw, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("registry: re-marshal config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("registry: parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load, but returns an empty Config (no error)
// when path does not exist, so a fresh project with no declarations yet
// is not fatal. The missing file is not logged or otherwise reported.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return Load(path)
}

// Get returns every declared pipeline.
func (c *Config) Get() []*pipeline.Pipeline {
	return c.Pipelines
}

// GetByName returns the declared pipeline named name, or an error if it
// isn't declared - a configuration error per §7.
func (c *Config) GetByName(name string) (*pipeline.Pipeline, error) {
	for _, p := range c.Pipelines {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("registry: pipeline %q is not declared", name)
}

// Triggers returns the union of all triggers declared across every
// pipeline in the config, deduplicated and in a stable total order.
func (c *Config) Triggers() []pipeline.Trigger {
	seen := make(map[string]pipeline.Trigger)
	var keys []string
	for _, p := range c.Pipelines {
		for _, t := range p.Triggers {
			k := triggerKey(t)
			if _, ok := seen[k]; !ok {
				seen[k] = t
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	out := make([]pipeline.Trigger, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out
}

func triggerKey(t pipeline.Trigger) string {
	action := "*"
	if t.Action != nil {
		action = t.Action.String()
	}
	branch := "*"
	if t.Branch != nil {
		branch = *t.Branch
	}
	return action + "|" + branch
}

// ResolveAttach applies the precedence CLI flag > pipeline option >
// global option > default false.
func ResolveAttach(cliAttach *bool, p *pipeline.Pipeline, global *pipeline.Options) bool {
	if cliAttach != nil {
		return *cliAttach
	}
	if p != nil && p.Options.HasAttachOption() {
		return *p.Options.Attach
	}
	if global.HasAttachOption() {
		return *global.Attach
	}
	return false
}

// ShouldDetach is the complement of ResolveAttach: the engine detaches
// (forks into the background supervisor) exactly when attach resolves
// false.
func ShouldDetach(cliAttach *bool, p *pipeline.Pipeline, global *pipeline.Options) bool {
	return !ResolveAttach(cliAttach, p, global)
}
