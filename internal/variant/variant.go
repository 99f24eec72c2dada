// Package variant describes resolved dependency variants as seen by the
// transformation layer. Resolution itself happens elsewhere.
package variant

import (
	"path/filepath"

	"transmute/internal/attribute"
)

// ComponentIdentifier names the component a variant belongs to,
// e.g. "org.example:lib:1.2".
type ComponentIdentifier string

func (c ComponentIdentifier) String() string { return string(c) }

// Identifier is the stable identity of a repository-sourced variant.
// The empty Identifier marks an ad-hoc variant.
type Identifier string

func (i Identifier) IsZero() bool { return i == "" }

// Artifact is one file of a variant.
type Artifact struct {
	Name string
	Path string
}

// NewArtifact names an artifact after the last element of its path.
func NewArtifact(path string) Artifact {
	return Artifact{Name: filepath.Base(path), Path: path}
}

// Resolved is a variant produced by dependency resolution.
type Resolved struct {
	Identifier Identifier
	Attributes attribute.Set
	Artifacts  []Artifact
}

func (r Resolved) HasIdentity() bool { return !r.Identifier.IsZero() }

// ArtifactPaths lists the paths of the variant's artifacts in order.
func ArtifactPaths(artifacts []Artifact) []string {
	out := make([]string, len(artifacts))
	for i, a := range artifacts {
		out[i] = a.Path
	}
	return out
}
