// Package scenario defines run configurations: the target service, the cache
// descriptor, and the shape of the synthetic workload. Scenarios come from
// named presets or YAML files; file documents are checked against a JSON
// schema before a run starts.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/user/cachebench/internal/workload"
)

// CacheSpec is the target cache resource descriptor. The authoritative state
// lives in the remote service; this is only what setup sends.
type CacheSpec struct {
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type" json:"type"`
	Capacity   int    `yaml:"capacity" json:"capacity"`
	TTLSeconds int    `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// Mix holds the relative weights of the three operation kinds.
type Mix struct {
	Get    int `yaml:"get" json:"get"`
	Put    int `yaml:"put" json:"put"`
	Delete int `yaml:"delete" json:"delete"`
}

// Scenario is a complete run configuration.
type Scenario struct {
	Name         string    `yaml:"name" json:"name"`
	Server       string    `yaml:"server" json:"server"`
	Cache        CacheSpec `yaml:"cache" json:"cache"`
	Keys         int       `yaml:"keys" json:"keys"`
	Operations   int       `yaml:"operations" json:"operations"`
	Workers      int       `yaml:"workers" json:"workers"`
	Weights      Mix       `yaml:"weights" json:"weights"`
	ValueBound   int       `yaml:"value_bound" json:"value_bound"`
	InitialValue string    `yaml:"initial_value" json:"initial_value"`
	StrictStatus bool      `yaml:"strict_status" json:"strict_status"`
}

// Default mirrors the classic stress profile: 20000 ops over a 100-key pool
// with 200 workers and a 60/30/10 GET/PUT/DELETE mix.
func Default() Scenario {
	return Scenario{
		Name:   "default",
		Server: "http://127.0.0.1:8080",
		Cache: CacheSpec{
			Name:     "test_cache",
			Type:     "lru",
			Capacity: 1000,
		},
		Keys:         100,
		Operations:   20000,
		Workers:      200,
		Weights:      Mix{Get: 60, Put: 30, Delete: 10},
		ValueBound:   10000,
		InitialValue: "initial_value",
	}
}

// Preset returns a named built-in scenario.
func Preset(name string) (Scenario, error) {
	s := Default()
	switch strings.ToLower(name) {
	case "", "standard":
		return s, nil
	case "smoke":
		s.Name = "smoke"
		s.Keys = 50
		s.Operations = 500
		s.Workers = 10
		return s, nil
	case "soak":
		s.Name = "soak"
		s.Operations = 200000
		s.Workers = 100
		return s, nil
	}
	return Scenario{}, fmt.Errorf("unknown preset %q (expected smoke, standard, soak)", name)
}

// Load reads a YAML scenario file. Fields not present in the file keep their
// default values. The document is schema-validated before decoding.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scenario document.
func Parse(data []byte) (Scenario, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario yaml: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Scenario{}, err
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Validate checks semantic constraints the schema cannot express.
func (s Scenario) Validate() error {
	if s.Server == "" {
		return fmt.Errorf("scenario: server is required")
	}
	if s.Cache.Name == "" {
		return fmt.Errorf("scenario: cache.name is required")
	}
	if s.Keys <= 0 {
		return fmt.Errorf("scenario: keys must be positive, got %d", s.Keys)
	}
	if s.Operations <= 0 {
		return fmt.Errorf("scenario: operations must be positive, got %d", s.Operations)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("scenario: workers must be positive, got %d", s.Workers)
	}
	if s.Weights.Get < 0 || s.Weights.Put < 0 || s.Weights.Delete < 0 {
		return fmt.Errorf("scenario: weights must be non-negative")
	}
	if s.Weights.Get+s.Weights.Put+s.Weights.Delete == 0 {
		return fmt.Errorf("scenario: weights sum to zero")
	}
	return nil
}

// MixWeights returns the workload sampler choices for this scenario.
func (s Scenario) MixWeights() []workload.Weighted {
	return []workload.Weighted{
		{Op: workload.OpGet, Weight: s.Weights.Get},
		{Op: workload.OpPut, Weight: s.Weights.Put},
		{Op: workload.OpDelete, Weight: s.Weights.Delete},
	}
}

func validateDocument(doc map[string]any) error {
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert scenario to json: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewStringLoader(string(jsonDoc)),
	)
	if err != nil {
		return fmt.Errorf("validate scenario: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid scenario: %s", strings.Join(msgs, "; "))
	}
	return nil
}
