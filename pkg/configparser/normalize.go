package configparser

import (
	"fmt"
	"strings"
)

// normalizeDocument rewrites a raw decoded graft.yaml document into the
// canonical shape the JSON schema expects: `deps` is renamed to
// `dependencies`, and each dependency entry is expanded from the shorthand
// "<url>#<ref>" string form into {url, ref}. Both the legacy `deps:` key and
// the modern `dependencies:` key are accepted (not both at once), matching
// spec.md §4.1 ("Parsers accept both").
func normalizeDocument(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	legacy, hasLegacy := raw["deps"]
	modern, hasModern := raw["dependencies"]
	if hasLegacy && hasModern {
		return nil, fmt.Errorf("config declares both 'deps' (legacy) and 'dependencies' (modern); use only one")
	}
	delete(out, "deps")

	var depsRaw any
	switch {
	case hasLegacy:
		depsRaw = legacy
	case hasModern:
		depsRaw = modern
	default:
		depsRaw = nil
	}

	normalizedDeps, err := normalizeDependencies(depsRaw)
	if err != nil {
		return nil, err
	}
	if normalizedDeps != nil {
		out["dependencies"] = normalizedDeps
	} else {
		delete(out, "dependencies")
	}

	return out, nil
}

func normalizeDependencies(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := asStringKeyedMap(v)
	if !ok {
		return nil, fmt.Errorf("dependencies must be a mapping of name to url#ref or {url, ref}")
	}

	out := make(map[string]any, len(raw))
	for name, entry := range raw {
		switch e := entry.(type) {
		case string:
			url, ref, err := splitShorthand(e)
			if err != nil {
				return nil, fmt.Errorf("dependencies.%s: %w", name, err)
			}
			out[name] = map[string]any{"url": url, "ref": ref}
		default:
			m, ok := asStringKeyedMap(entry)
			if !ok {
				return nil, fmt.Errorf("dependencies.%s: must be a string shorthand or a {url, ref} mapping", name)
			}
			out[name] = m
		}
	}
	return out, nil
}

// splitShorthand splits "<url>#<ref>" into its url and ref parts. The url
// itself may legitimately contain '#' only in extremely unusual cases (it
// doesn't for git remotes), so the split is on the last '#'.
func splitShorthand(s string) (url, ref string, err error) {
	idx := strings.LastIndex(s, "#")
	if idx < 0 {
		return "", "", fmt.Errorf("shorthand %q must be of the form <url>#<ref>", s)
	}
	url = s[:idx]
	ref = s[idx+1:]
	if url == "" || ref == "" {
		return "", "", fmt.Errorf("shorthand %q must have a non-empty url and ref", s)
	}
	return url, ref, nil
}

// asStringKeyedMap coerces a decoded YAML mapping into map[string]any.
// goccy/go-yaml decodes mappings with `any` targets as map[string]any
// already (unlike gopkg.in/yaml.v2's map[interface{}]interface{}), but this
// helper keeps normalization resilient if that ever changes upstream.
func asStringKeyedMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}
