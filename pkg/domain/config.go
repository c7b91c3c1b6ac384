package domain

import (
	"fmt"
	"sort"
	"strings"
)

// GraftConfig is a parsed graft.yaml document. The same shape is used for
// both the consumer's root config (which declares Dependencies) and a
// graft's own config living at the root of its checkout (which declares the
// Changes a consumer may adopt and the Commands those changes reference) —
// the flat dependency model never nests one consumer config inside another.
type GraftConfig struct {
	ApiVersion   string
	Metadata     Metadata
	Dependencies []DependencySpec
	Changes      []Change
	Commands     map[string]Command
}

// NewGraftConfig validates cross-field invariants and constructs a
// GraftConfig from already-validated parts. Per-field validation is the
// caller's job (pkg/configparser delegates to the domain constructors above
// before calling this); NewGraftConfig only enforces invariants that need
// the whole document: api_version shape, unique dependency names, and that
// every change's migration/verify names an existing command.
func NewGraftConfig(apiVersion string, metadata Metadata, deps []DependencySpec, changes []Change, commands map[string]Command) (GraftConfig, error) {
	if !strings.HasPrefix(apiVersion, "graft/") {
		return GraftConfig{}, fmt.Errorf("apiVersion %q must begin with \"graft/\"", apiVersion)
	}

	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		if seen[d.Name] {
			return GraftConfig{}, fmt.Errorf("duplicate dependency name %q", d.Name)
		}
		seen[d.Name] = true
	}

	if commands == nil {
		commands = map[string]Command{}
	}
	for _, c := range changes {
		if c.Migration != "" {
			if _, ok := commands[c.Migration]; !ok {
				return GraftConfig{}, fmt.Errorf("change %s: migration %q is not declared in commands", c.Ref, c.Migration)
			}
		}
		if c.Verify != "" {
			if _, ok := commands[c.Verify]; !ok {
				return GraftConfig{}, fmt.Errorf("change %s: verify %q is not declared in commands", c.Ref, c.Verify)
			}
		}
	}

	depsCopy := make([]DependencySpec, len(deps))
	copy(depsCopy, deps)
	changesCopy := make([]Change, len(changes))
	copy(changesCopy, changes)
	commandsCopy := make(map[string]Command, len(commands))
	for k, v := range commands {
		commandsCopy[k] = v
	}

	return GraftConfig{
		ApiVersion:   apiVersion,
		Metadata:     metadata,
		Dependencies: depsCopy,
		Changes:      changesCopy,
		Commands:     commandsCopy,
	}, nil
}

// DependencyByName returns the declared spec for name, in O(n) — config
// dependency counts are small and this keeps GraftConfig a plain value type
// rather than needing an internal index kept in sync.
func (c GraftConfig) DependencyByName(name string) (DependencySpec, bool) {
	for _, d := range c.Dependencies {
		if d.Name == name {
			return d, true
		}
	}
	return DependencySpec{}, false
}

// SortedDependencyNames returns dependency names in ASCII alphabetical order,
// the iteration order the resolver, fetch, and sync all use (spec.md §4.4, §5).
func (c GraftConfig) SortedDependencyNames() []string {
	names := make([]string, len(c.Dependencies))
	for i, d := range c.Dependencies {
		names[i] = d.Name
	}
	sort.Strings(names)
	return names
}

// ChangeByRef returns the declared change for ref, if any.
func (c GraftConfig) ChangeByRef(ref string) (Change, bool) {
	for _, ch := range c.Changes {
		if ch.Ref.String() == ref {
			return ch, true
		}
	}
	return Change{}, false
}

// CommandByName resolves a command name, e.g. a Change's Migration/Verify field.
func (c GraftConfig) CommandByName(name string) (Command, bool) {
	cmd, ok := c.Commands[name]
	return cmd, ok
}
