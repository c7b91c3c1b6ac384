package domain

import (
	"fmt"
	"regexp"
)

var dependencyNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// DependencySpec is one declared entry under graft.yaml's deps/dependencies
// mapping: a name, the graft's URL, and the ref to consume.
type DependencySpec struct {
	Name string
	Url  GitUrl
	Ref  GitRef
}

// NewDependencySpec validates and constructs a DependencySpec.
func NewDependencySpec(name string, url GitUrl, ref GitRef) (DependencySpec, error) {
	if !dependencyNamePattern.MatchString(name) {
		return DependencySpec{}, fmt.Errorf("dependency name %q must match [A-Za-z][A-Za-z0-9_-]*", name)
	}
	if url.IsZero() {
		return DependencySpec{}, fmt.Errorf("dependency %q: url must not be empty", name)
	}
	if ref.IsZero() {
		return DependencySpec{}, fmt.Errorf("dependency %q: ref must not be empty", name)
	}
	return DependencySpec{Name: name, Url: url, Ref: ref}, nil
}
