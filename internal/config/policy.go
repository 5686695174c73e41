package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the routing policy shipped to edge instances as a YAML
// file. Non-empty fields replace the env-seeded values wholesale; the
// file and the environment are not merged per element.
type Policy struct {
	PlatformHosts      []string `yaml:"platform_hosts"`
	ExcludedPrefixes   []string `yaml:"excluded_prefixes"`
	PropagationServers []string `yaml:"propagation_servers"`
}

func loadPolicy(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return &p, nil
}

func (e *EdgeConfig) apply(p *Policy) {
	if len(p.PlatformHosts) > 0 {
		e.PlatformHosts = p.PlatformHosts
	}
	if len(p.ExcludedPrefixes) > 0 {
		e.ExcludedPrefixes = p.ExcludedPrefixes
	}
	if len(p.PropagationServers) > 0 {
		e.PropagationServers = p.PropagationServers
	}
}
