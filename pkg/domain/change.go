package domain

import "fmt"

// ChangeType classifies the semantic weight of a declared Change.
type ChangeType string

const (
	ChangeBreaking ChangeType = "breaking"
	ChangeFeature  ChangeType = "feature"
	ChangeFix      ChangeType = "fix"
	ChangeRefactor ChangeType = "refactor"
	ChangeDocs     ChangeType = "docs"
)

func (t ChangeType) valid() bool {
	switch t {
	case ChangeBreaking, ChangeFeature, ChangeFix, ChangeRefactor, ChangeDocs:
		return true
	default:
		return false
	}
}

// Change is a declared, identified semantic transition published by a graft:
// a git ref, optionally typed, described, and associated with named
// migration/verify commands. Changes are never inferred from changelog
// prose; they are authored in the dependency's own graft.yaml.
type Change struct {
	Ref         GitRef
	Type        ChangeType // zero value means "unspecified"
	Description string
	Migration   string // command name, or "" if none
	Verify      string // command name, or "" if none
	Metadata    Metadata
}

// NewChange validates and constructs a Change. Cross-field validation that
// Migration/Verify name an existing Command happens in NewGraftConfig,
// since that requires the sibling commands map this constructor doesn't see.
func NewChange(ref GitRef, changeType ChangeType, description, migration, verify string, metadata Metadata) (Change, error) {
	if ref.IsZero() {
		return Change{}, fmt.Errorf("change ref must not be empty")
	}
	if changeType != "" && !changeType.valid() {
		return Change{}, fmt.Errorf("change %s: invalid type %q", ref, changeType)
	}
	return Change{
		Ref:         ref,
		Type:        changeType,
		Description: description,
		Migration:   migration,
		Verify:      verify,
		Metadata:    metadata,
	}, nil
}
