// Package seed loads the property type and tag catalog from YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/stwalsh4118/estate/internal/services"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the content of a seed file.
type Catalog struct {
	Types []TypeSeed `yaml:"types"`
	Tags  []TagSeed  `yaml:"tags"`
}

// TypeSeed describes one property type.
type TypeSeed struct {
	Name     string `yaml:"name"`
	Sequence int    `yaml:"sequence"`
}

// TagSeed describes one property tag.
type TagSeed struct {
	Name  string `yaml:"name"`
	Color int    `yaml:"color"`
}

// Result counts the records created by Apply.
type Result struct {
	TypesCreated int
	TagsCreated  int
}

// Parse decodes a seed document. Unknown fields, empty names and duplicate
// names are rejected.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Load reads and parses a seed file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("seed: built-in catalog is invalid: %v", err))
	}
	return c
}

func (c *Catalog) validate() error {
	seen := map[string]bool{}
	for i, t := range c.Types {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("types[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("types[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
	}

	seen = map[string]bool{}
	for i, t := range c.Tags {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("tags[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("tags[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
	}
	return nil
}

// Apply creates the missing types and tags of c. Existing records are left
// as they are, so running Apply twice is harmless.
func Apply(ctx context.Context, catalog services.CatalogService, c *Catalog) (Result, error) {
	var res Result

	for _, t := range c.Types {
		_, created, err := catalog.EnsureType(ctx, t.Name, t.Sequence)
		if err != nil {
			return res, fmt.Errorf("seed type %q: %w", t.Name, err)
		}
		if created {
			res.TypesCreated++
		}
	}

	for _, t := range c.Tags {
		_, created, err := catalog.EnsureTag(ctx, t.Name, t.Color)
		if err != nil {
			return res, fmt.Errorf("seed tag %q: %w", t.Name, err)
		}
		if created {
			res.TagsCreated++
		}
	}

	return res, nil
}
