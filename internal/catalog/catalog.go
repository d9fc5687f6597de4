package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Catalog is a validated, immutable solution catalog.
type Catalog struct {
	defaultKey string
	weights    Weights
	boosts     []Boost
	standards  []Standard
	solutions  []Solution

	solutionIndex map[string]int
	standardIndex map[string]int
}

// Default returns the catalog embedded in the binary.
// It is parsed once per process; later calls return the same instance.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Load(defaultCatalog)
	})
	return defaultCat, defaultErr
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrConfigurationDefect, path, err)
	}
	return Load(data)
}

// Load parses and validates a catalog document.
// Unknown fields are rejected so that typos in a custom catalog surface
// at load time instead of silently changing scores.
func Load(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrConfigurationDefect)
		}
		return nil, fmt.Errorf("%w: failed to parse: %w", ErrConfigurationDefect, err)
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigurationDefect, err)
	}

	return build(doc)
}

// build checks cross-references and assembles the immutable catalog.
func build(doc document) (*Catalog, error) {
	c := &Catalog{
		defaultKey:    doc.DefaultSolution,
		weights:       doc.Weights,
		solutionIndex: make(map[string]int, len(doc.Solutions)),
		standardIndex: make(map[string]int, len(doc.Standards)),
	}

	for _, std := range doc.Standards {
		if _, dup := c.standardIndex[std.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate standard key %q", ErrConfigurationDefect, std.Key)
		}
		c.standardIndex[std.Key] = len(c.standards)
		c.standards = append(c.standards, std.clone())
	}

	for _, sol := range doc.Solutions {
		if _, dup := c.solutionIndex[sol.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate solution key %q", ErrConfigurationDefect, sol.Key)
		}
		for _, tag := range sol.Standards {
			if _, ok := c.standardIndex[tag]; !ok {
				return nil, fmt.Errorf("%w: solution %q references unknown standard %q",
					ErrConfigurationDefect, sol.Key, tag)
			}
		}
		sol = sol.clone()
		sol.Keywords = dedupFold(sol.Keywords)
		c.solutionIndex[sol.Key] = len(c.solutions)
		c.solutions = append(c.solutions, sol)
	}

	if _, ok := c.solutionIndex[c.defaultKey]; !ok {
		return nil, fmt.Errorf("%w: default solution %q is not in the catalog",
			ErrConfigurationDefect, c.defaultKey)
	}

	for _, b := range doc.Boosts {
		if _, ok := c.solutionIndex[b.Solution]; !ok {
			return nil, fmt.Errorf("%w: boost references unknown solution %q",
				ErrConfigurationDefect, b.Solution)
		}
		if len(b.PhaseContains) == 0 && len(b.TypeContains) == 0 {
			return nil, fmt.Errorf("%w: boost for %q has no phase or type terms",
				ErrConfigurationDefect, b.Solution)
		}
		c.boosts = append(c.boosts, b.clone())
	}

	return c, nil
}

// dedupFold removes keywords that repeat case-insensitively,
// keeping the first spelling.
func dedupFold(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		lower := strings.ToLower(k)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, k)
	}
	return out
}

// DefaultKey returns the key of the fallback solution.
func (c *Catalog) DefaultKey() string {
	return c.defaultKey
}

// Weights returns the scoring weights.
func (c *Catalog) Weights() Weights {
	return c.weights
}

// Boosts returns a copy of the context boosts.
func (c *Catalog) Boosts() []Boost {
	out := make([]Boost, len(c.boosts))
	for i, b := range c.boosts {
		out[i] = b.clone()
	}
	return out
}

// Solutions returns a copy of all solutions in catalog order.
func (c *Catalog) Solutions() []Solution {
	out := make([]Solution, len(c.solutions))
	for i, s := range c.solutions {
		out[i] = s.clone()
	}
	return out
}

// Solution returns the solution with the given key.
func (c *Catalog) Solution(key string) (Solution, bool) {
	i, ok := c.solutionIndex[key]
	if !ok {
		return Solution{}, false
	}
	return c.solutions[i].clone(), true
}

// Standard returns the standard with the given tag.
func (c *Catalog) Standard(tag string) (Standard, bool) {
	i, ok := c.standardIndex[tag]
	if !ok {
		return Standard{}, false
	}
	return c.standards[i].clone(), true
}

// Len returns the number of solutions.
func (c *Catalog) Len() int {
	return len(c.solutions)
}
