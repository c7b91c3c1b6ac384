package domain

// Metadata is a free-form, all-optional bag of descriptive fields attached
// to a GraftConfig or a Change. Every field is optional by design — metadata
// never participates in resolution or validation logic.
type Metadata struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Extra       map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// IsZero reports whether no metadata field was set.
func (m Metadata) IsZero() bool {
	return m.Name == "" && m.Version == "" && m.Description == "" && len(m.Extra) == 0
}
