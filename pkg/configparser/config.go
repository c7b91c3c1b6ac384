// Package configparser parses graft.yaml documents into validated
// pkg/domain.GraftConfig values.
//
// Parsing runs in three passes, mirroring how pkg/parser/schema_compiler.go
// validates gh-aw's own frontmatter: (1) normalize legacy/shorthand forms
// into a canonical shape, (2) validate that shape against an embedded JSON
// Schema, (3) decode the now-known-good shape through the pkg/domain
// constructors, which re-validate every field and additionally check the
// cross-field invariant that every change's migration/verify names a
// declared command.
package configparser

import (
	"fmt"

	"github.com/graft-dev/graft/pkg/domain"
	"github.com/graft-dev/graft/pkg/grafterr"
	"github.com/graft-dev/graft/pkg/logger"
	"github.com/goccy/go-yaml"
)

var configLog = logger.New("configparser:config")

// Parse parses graft.yaml document text into a GraftConfig. sourcePath is
// used only to annotate error messages (it may be "" when parsing from an
// in-memory string).
func Parse(text string, sourcePath string) (domain.GraftConfig, error) {
	configLog.Printf("parsing config from %s", displayPath(sourcePath))

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return domain.GraftConfig{}, &grafterr.ConfigError{
			FieldPath: displayPath(sourcePath),
			Reason:    fmt.Sprintf("invalid YAML: %v", err),
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	normalized, err := normalizeDocument(raw)
	if err != nil {
		return domain.GraftConfig{}, &grafterr.ConfigError{
			FieldPath: displayPath(sourcePath),
			Reason:    err.Error(),
		}
	}

	if err := validateNormalizedDocument(normalized); err != nil {
		return domain.GraftConfig{}, &grafterr.ConfigError{
			FieldPath: displayPath(sourcePath),
			Reason:    fmt.Sprintf("schema validation failed: %v", err),
			HintText:  "compare graft.yaml against the documented apiVersion/dependencies/changes/commands shape",
		}
	}

	var doc configDocument
	rawYAML, err := yaml.Marshal(normalized)
	if err != nil {
		return domain.GraftConfig{}, &grafterr.ConfigError{FieldPath: displayPath(sourcePath), Reason: err.Error()}
	}
	if err := yaml.Unmarshal(rawYAML, &doc); err != nil {
		return domain.GraftConfig{}, &grafterr.ConfigError{FieldPath: displayPath(sourcePath), Reason: err.Error()}
	}

	// Declaration order of `changes` matters (spec.md §4.5.2, §5): an
	// upgrade's migration/verify commands run in the order changes were
	// declared, not alphabetically. map[string]changeDoc above lost that
	// order on decode, so recover it from the original text with a
	// yaml.MapSlice, the idiom the teacher repo uses whenever a generic
	// YAML decode needs to preserve mapping key order.
	changeOrder, err := orderedChangeRefs(text)
	if err != nil {
		return domain.GraftConfig{}, &grafterr.ConfigError{FieldPath: displayPath(sourcePath), Reason: err.Error()}
	}

	return doc.toDomain(sourcePath, changeOrder)
}

// orderedChangeRefs returns the `changes` mapping's keys in declaration
// order by decoding just that section as a yaml.MapSlice.
func orderedChangeRefs(text string) ([]string, error) {
	var top struct {
		Changes yaml.MapSlice `yaml:"changes"`
	}
	if err := yaml.Unmarshal([]byte(text), &top); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	refs := make([]string, 0, len(top.Changes))
	for _, item := range top.Changes {
		key, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("changes: keys must be strings")
		}
		refs = append(refs, key)
	}
	return refs, nil
}

func displayPath(sourcePath string) string {
	if sourcePath == "" {
		return "graft.yaml"
	}
	return sourcePath
}

// configDocument mirrors the normalized schema shape for a single
// yaml.Unmarshal pass into typed fields.
type configDocument struct {
	ApiVersion   string                        `yaml:"apiVersion"`
	Metadata     metadataDoc                   `yaml:"metadata"`
	Dependencies map[string]dependencyDoc       `yaml:"dependencies"`
	Changes      map[string]changeDoc           `yaml:"changes"`
	Commands     map[string]commandDoc          `yaml:"commands"`
}

type metadataDoc struct {
	Name        string            `yaml:"name"`
	Version     string            `yaml:"version"`
	Description string            `yaml:"description"`
	Extra       map[string]string `yaml:"extra"`
}

func (m metadataDoc) toDomain() domain.Metadata {
	return domain.Metadata{Name: m.Name, Version: m.Version, Description: m.Description, Extra: m.Extra}
}

type dependencyDoc struct {
	Url string `yaml:"url"`
	Ref string `yaml:"ref"`
}

type changeDoc struct {
	Type        string       `yaml:"type"`
	Description string       `yaml:"description"`
	Migration   string       `yaml:"migration"`
	Verify      string       `yaml:"verify"`
	Metadata    metadataDoc  `yaml:"metadata"`
}

type commandDoc struct {
	Run         string            `yaml:"run"`
	Description string            `yaml:"description"`
	WorkingDir  string            `yaml:"working_dir"`
	Env         map[string]string `yaml:"env"`
}

func (d configDocument) toDomain(sourcePath string, changeOrder []string) (domain.GraftConfig, error) {
	fieldErr := func(path string, err error) error {
		return &grafterr.ConfigError{FieldPath: path, Reason: err.Error()}
	}

	var deps []domain.DependencySpec
	for name, dd := range d.Dependencies {
		url, err := domain.NewGitUrl(dd.Url)
		if err != nil {
			return domain.GraftConfig{}, fieldErr(fmt.Sprintf("dependencies.%s.url", name), err)
		}
		ref, err := domain.NewGitRef(dd.Ref)
		if err != nil {
			return domain.GraftConfig{}, fieldErr(fmt.Sprintf("dependencies.%s.ref", name), err)
		}
		spec, err := domain.NewDependencySpec(name, url, ref)
		if err != nil {
			return domain.GraftConfig{}, fieldErr(fmt.Sprintf("dependencies.%s", name), err)
		}
		deps = append(deps, spec)
	}

	commands := make(map[string]domain.Command, len(d.Commands))
	for name, cd := range d.Commands {
		cmd, err := domain.NewCommand(name, cd.Run, cd.Description, cd.WorkingDir, cd.Env)
		if err != nil {
			return domain.GraftConfig{}, fieldErr(fmt.Sprintf("commands.%s", name), err)
		}
		commands[name] = cmd
	}

	orderedRefs := changeOrder
	if len(orderedRefs) != len(d.Changes) {
		// Defensive fallback: the order-extraction pass and the structured
		// decode disagree on key count (should be unreachable since both
		// read the same validated document). Fall back to an unordered walk
		// rather than silently dropping entries.
		orderedRefs = orderedRefs[:0]
		for refStr := range d.Changes {
			orderedRefs = append(orderedRefs, refStr)
		}
	}

	var changes []domain.Change
	for _, refStr := range orderedRefs {
		cd, ok := d.Changes[refStr]
		if !ok {
			continue
		}
		ref, err := domain.NewGitRef(refStr)
		if err != nil {
			return domain.GraftConfig{}, fieldErr(fmt.Sprintf("changes.%s", refStr), err)
		}
		change, err := domain.NewChange(ref, domain.ChangeType(cd.Type), cd.Description, cd.Migration, cd.Verify, cd.Metadata.toDomain())
		if err != nil {
			return domain.GraftConfig{}, fieldErr(fmt.Sprintf("changes.%s", refStr), err)
		}
		changes = append(changes, change)
	}

	cfg, err := domain.NewGraftConfig(d.ApiVersion, d.Metadata.toDomain(), deps, changes, commands)
	if err != nil {
		return domain.GraftConfig{}, &grafterr.ConfigError{
			FieldPath: displayPath(sourcePath),
			Reason:    err.Error(),
			HintText:  "every change's migration/verify must name a key declared under commands",
		}
	}
	return cfg, nil
}
