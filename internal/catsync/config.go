// Package catsync pushes a declarative category tree into Part-DB: it
// creates missing categories, seeds each leaf with a DUMMY placeholder
// part, keeps native part parameters aligned with the declared set, and
// prunes categories the tree no longer mentions.
package catsync

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/dbx-solutions/partlinker/pkg/errors"
)

// ParameterSpec declares one native parameter a category's parts carry.
// A parameter with a unit is numeric, one without is a plain string.
type ParameterSpec struct {
	Name   string `yaml:"name"`
	Unit   string `yaml:"unit"`
	Symbol string `yaml:"symbol"`
}

// CategoryNode is one node of the declared category tree. Parameters
// accumulate down the tree: a child carries its ancestors' parameters
// plus its own.
type CategoryNode struct {
	Name       string          `yaml:"name"`
	Parameters []ParameterSpec `yaml:"parameters"`
	Children   []CategoryNode  `yaml:"children"`
}

// Config is the categories.yaml document.
type Config struct {
	Categories       []CategoryNode  `yaml:"categories"`
	GlobalParameters []ParameterSpec `yaml:"global_parameters"`
}

// LoadConfig reads and decodes a categories.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &cfg, nil
}
