package skill

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the static definition of a skill, loaded from YAML.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Script      string `yaml:"script"`      // inline Lua source
	ScriptFile  string `yaml:"script_file"` // relative to the YAML file; read into Script on load
}

// Validate checks the definition's invariants.
//
// Postcondition: Returns nil or an error naming every violation.
func (d *Definition) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if d.Script != "" && d.ScriptFile != "" {
		errs = append(errs, "script and script_file are mutually exclusive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ChunkName is the name the skill's Lua chunk is loaded under. It appears in
// script error positions.
func (d *Definition) ChunkName() string {
	if d.ScriptFile != "" {
		return filepath.Base(d.ScriptFile)
	}
	return d.ID
}

// Registry holds all known Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Definitions sorted by ID.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *Definition) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition,
// resolves script_file references and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		def, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if _, dup := reg.Get(def.ID); dup {
			return nil, fmt.Errorf("%q: duplicate skill id %q", path, def.ID)
		}
		reg.Register(def)
	}
	return reg, nil
}

func loadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validating %q: %w", path, err)
	}
	if def.ScriptFile != "" {
		src, err := os.ReadFile(filepath.Join(filepath.Dir(path), def.ScriptFile))
		if err != nil {
			return nil, fmt.Errorf("reading script for %q: %w", def.ID, err)
		}
		def.Script = string(src)
	}
	return &def, nil
}
