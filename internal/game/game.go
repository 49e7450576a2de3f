// Package game holds the per-lottery constants: universe size, allowed ticket
// sizes and the default search and feasibility settings.
package game

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"loto-optimizer/internal/rules"
)

// ErrUnknownGame is returned for a game name with no preset.
var ErrUnknownGame = errors.New("unknown game")

// Spec is the constant bundle of one game type.
type Spec struct {
	Name       string                `yaml:"name" json:"name"`
	MaxNumber  int                   `yaml:"max_number" json:"max_number"`
	KMin       int                   `yaml:"k_min" json:"k_min"`
	KMax       int                   `yaml:"k_max" json:"k_max"`
	PoolSize   int                   `yaml:"pool_size" json:"pool_size"`
	TCover     int                   `yaml:"t_cover" json:"t_cover"`
	MinEven    int                   `yaml:"min_even" json:"min_even"`
	MaxEven    int                   `yaml:"max_even" json:"max_even"`
	Bins       int                   `yaml:"bins" json:"bins"`
	MinBinsHit int                   `yaml:"min_bins_hit" json:"min_bins_hit"`
	Mod        []rules.ModConstraint `yaml:"mod_constraints" json:"mod_constraints"`
}

// Catalog maps game names to specs.
type Catalog map[string]Spec

// Builtin returns the stock presets.
func Builtin() Catalog {
	return Catalog{
		"megasena": {
			Name: "megasena", MaxNumber: 60, KMin: 6, KMax: 20,
			PoolSize: 17, TCover: 3, MinEven: 2, MaxEven: 4,
			Bins: 6, MinBinsHit: 3, Mod: []rules.ModConstraint{{Modulus: 3, MinClasses: 2}},
		},
		"lotofacil": {
			Name: "lotofacil", MaxNumber: 25, KMin: 15, KMax: 20,
			PoolSize: 22, TCover: 4, MinEven: 6, MaxEven: 9,
			Bins: 5, MinBinsHit: 4, Mod: []rules.ModConstraint{{Modulus: 3, MinClasses: 2}},
		},
		"quina": {
			Name: "quina", MaxNumber: 80, KMin: 5, KMax: 15,
			PoolSize: 18, TCover: 3, MinEven: 2, MaxEven: 3,
			Bins: 8, MinBinsHit: 4, Mod: []rules.ModConstraint{{Modulus: 3, MinClasses: 2}},
		},
	}
}

// Lookup returns the spec for name, case-insensitively.
func (c Catalog) Lookup(name string) (Spec, error) {
	s, ok := c[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Spec{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownGame, name, strings.Join(c.Names(), ", "))
	}
	return s, nil
}

// Names lists the known games in alphabetical order.
func (c Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// Rules returns the feasibility rules implied by the spec.
func (s Spec) Rules() rules.Rules {
	return rules.Rules{
		MinEven:    s.MinEven,
		MaxEven:    s.MaxEven,
		Bins:       s.Bins,
		MaxNumber:  s.MaxNumber,
		MinBinsHit: s.MinBinsHit,
		Mod:        slices.Clone(s.Mod),
	}
}

type presetFile struct {
	Games []presetEntry `yaml:"games"`
}

// presetEntry is one game in a preset file. Pointer fields tell an explicit
// zero (min_even: 0, bins: 0 to disable the spread rule) from an absent key.
type presetEntry struct {
	Name       string                 `yaml:"name"`
	MaxNumber  *int                   `yaml:"max_number"`
	KMin       *int                   `yaml:"k_min"`
	KMax       *int                   `yaml:"k_max"`
	PoolSize   *int                   `yaml:"pool_size"`
	TCover     *int                   `yaml:"t_cover"`
	MinEven    *int                   `yaml:"min_even"`
	MaxEven    *int                   `yaml:"max_even"`
	Bins       *int                   `yaml:"bins"`
	MinBinsHit *int                   `yaml:"min_bins_hit"`
	Mod        *[]rules.ModConstraint `yaml:"mod_constraints"`
}

// LoadOverrides reads a YAML preset file and merges it over c. Entries
// replace a builtin of the same name field by field: keys absent from the
// file keep the builtin value, keys present win even when zero. New names
// are added as given.
func (c Catalog) LoadOverrides(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}
	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	out := maps.Clone(c)
	for _, g := range pf.Games {
		name := strings.ToLower(strings.TrimSpace(g.Name))
		if name == "" {
			return nil, errors.New("preset without a name")
		}
		merged := g.apply(out[name])
		merged.Name = name
		if merged.MaxNumber <= 0 {
			return nil, fmt.Errorf("game %s: max_number is required", name)
		}
		if merged.KMin <= 0 || merged.KMax < merged.KMin {
			return nil, fmt.Errorf("game %s: invalid k range [%d,%d]", name, merged.KMin, merged.KMax)
		}
		out[name] = merged
	}
	return out, nil
}

func (e presetEntry) apply(base Spec) Spec {
	for _, f := range []struct {
		over *int
		dst  *int
	}{
		{e.MaxNumber, &base.MaxNumber},
		{e.KMin, &base.KMin},
		{e.KMax, &base.KMax},
		{e.PoolSize, &base.PoolSize},
		{e.TCover, &base.TCover},
		{e.MinEven, &base.MinEven},
		{e.MaxEven, &base.MaxEven},
		{e.Bins, &base.Bins},
		{e.MinBinsHit, &base.MinBinsHit},
	} {
		if f.over != nil {
			*f.dst = *f.over
		}
	}
	if e.Mod != nil {
		base.Mod = slices.Clone(*e.Mod)
	}
	return base
}
