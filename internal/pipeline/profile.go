// Package pipeline turns a raw vehicle table into a cleaned one according to a
// profile: rename, header normalization, selection, relabeling, numeric
// normalization, and filtering.
package pipeline

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/autoclean-cli/internal/filter"
	"github.com/KaramelBytes/autoclean-cli/internal/normalize"
)

// ErrInvalidProfile wraps every validation failure.
var ErrInvalidProfile = eris.New("invalid profile")

// Profile describes how one kind of dataset is cleaned.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Rename maps raw header names to canonical ones. Applied before NormalizeHeaders.
	Rename           map[string]string `yaml:"rename,omitempty"`
	NormalizeHeaders bool              `yaml:"normalize_headers,omitempty"`
	// Keep restricts the output to these columns, in order. Empty keeps all.
	Keep []string `yaml:"keep,omitempty"`
	// Relabel maps lowercased values of a text column to replacements.
	Relabel  map[string]map[string]string `yaml:"relabel,omitempty"`
	Policy   normalize.Policy             `yaml:"policy,omitempty"`
	Numeric  []NumericColumn              `yaml:"numeric,omitempty"`
	Required []string                     `yaml:"required,omitempty"`
	Bounds   []BoundSpec                  `yaml:"bounds,omitempty"`
}

// NumericColumn is a column to normalize. Optional columns are skipped when the
// table lacks them.
type NumericColumn struct {
	Name     string           `yaml:"name"`
	Policy   normalize.Policy `yaml:"policy,omitempty"`
	Optional bool             `yaml:"optional,omitempty"`
}

// UnmarshalYAML accepts either a mapping or a bare column name.
func (c *NumericColumn) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		c.Name = n.Value
		return nil
	}
	type plain NumericColumn
	return n.Decode((*plain)(c))
}

// BoundSpec is the YAML form of filter.Bound; a nil end is unbounded.
type BoundSpec struct {
	Column        string   `yaml:"column"`
	Low           *float64 `yaml:"low,omitempty"`
	High          *float64 `yaml:"high,omitempty"`
	LowInclusive  bool     `yaml:"low_inclusive,omitempty"`
	HighInclusive bool     `yaml:"high_inclusive,omitempty"`
}

// Bound converts b to a filter bound.
func (b BoundSpec) Bound() filter.Bound {
	out := filter.Bound{
		Column:        b.Column,
		Low:           math.Inf(-1),
		High:          math.Inf(1),
		LowInclusive:  b.LowInclusive,
		HighInclusive: b.HighInclusive,
	}
	if b.Low != nil {
		out.Low = *b.Low
	}
	if b.High != nil {
		out.High = *b.High
	}
	return out
}

// FilterSpec returns the filter configuration of the profile.
func (p *Profile) FilterSpec() filter.Spec {
	bounds := make([]filter.Bound, len(p.Bounds))
	for i, b := range p.Bounds {
		bounds[i] = b.Bound()
	}
	return filter.Spec{Required: p.Required, Bounds: bounds}
}

// Validate checks the profile and canonicalizes policy names in place.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return eris.Wrap(ErrInvalidProfile, "name is required")
	}
	if p.Policy != "" {
		pol, err := normalize.ParsePolicy(string(p.Policy))
		if err != nil {
			return eris.Wrapf(ErrInvalidProfile, "%s: %v", p.Name, err)
		}
		p.Policy = pol
	}
	numeric := make(map[string]bool, len(p.Numeric))
	for i := range p.Numeric {
		c := &p.Numeric[i]
		if c.Name == "" {
			return eris.Wrapf(ErrInvalidProfile, "%s: numeric column %d has no name", p.Name, i+1)
		}
		if numeric[c.Name] {
			return eris.Wrapf(ErrInvalidProfile, "%s: numeric column %q listed twice", p.Name, c.Name)
		}
		numeric[c.Name] = true
		if c.Policy != "" {
			pol, err := normalize.ParsePolicy(string(c.Policy))
			if err != nil {
				return eris.Wrapf(ErrInvalidProfile, "%s: column %s: %v", p.Name, c.Name, err)
			}
			c.Policy = pol
		}
	}
	for _, b := range p.Bounds {
		if b.Column == "" {
			return eris.Wrapf(ErrInvalidProfile, "%s: bound without column", p.Name)
		}
		// only normalized columns hold numbers
		if !numeric[b.Column] {
			return eris.Wrapf(ErrInvalidProfile, "%s: bound on %q which is not a numeric column", p.Name, b.Column)
		}
		if b.Low == nil && b.High == nil {
			return eris.Wrapf(ErrInvalidProfile, "%s: bound on %q sets neither low nor high", p.Name, b.Column)
		}
		if b.Low != nil && b.High != nil && *b.Low > *b.High {
			return eris.Wrapf(ErrInvalidProfile, "%s: bound on %q has low %g above high %g", p.Name, b.Column, *b.Low, *b.High)
		}
	}
	for _, r := range p.Required {
		if strings.TrimSpace(r) == "" {
			return eris.Wrapf(ErrInvalidProfile, "%s: empty required column", p.Name)
		}
	}
	return nil
}

// Describe renders a short human summary used by `profiles list`.
func (p *Profile) Describe() string {
	var parts []string
	for _, b := range p.FilterSpec().Bounds {
		parts = append(parts, b.String())
	}
	pol := p.Policy
	if pol == "" {
		pol = "default"
	}
	return fmt.Sprintf("policy=%s required=[%s] bounds=[%s]", pol, strings.Join(p.Required, ", "), strings.Join(parts, "; "))
}

// ParseProfile decodes and validates a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "parse profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfile reads a YAML profile from disk.
func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read profile %s", path)
	}
	p, err := ParseProfile(b)
	if err != nil {
		return nil, eris.Wrapf(err, "profile %s", path)
	}
	return p, nil
}

// YAML renders the profile.
func (p *Profile) YAML() ([]byte, error) {
	b, err := yaml.Marshal(p)
	if err != nil {
		return nil, eris.Wrap(err, "marshal profile")
	}
	return b, nil
}
