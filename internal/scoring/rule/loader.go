package rule

import (
	"coach/internal/scoring"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load parses a YAML list of rules and compiles them.
func Load(content []byte) ([]*Rule, error) {
	rules := []*Rule{}
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return nil, err
	}

	env, err := NewEnv()
	if err != nil {
		return nil, err
	}
	for i, r := range rules {
		if r == nil {
			return nil, fmt.Errorf("rule #%d is empty", i)
		}
		if err := r.Init(env); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// LoadFromFile reads and compiles the rules of a YAML file.
func LoadFromFile(file string) ([]*Rule, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Load(content)
}

// RegisterAll registers every rule as a literal model of reg.
func RegisterAll(reg *scoring.Registry, rules []*Rule) error {
	for _, r := range rules {
		if err := reg.Register(r.ID, r.Model()); err != nil {
			return err
		}
	}
	return nil
}
