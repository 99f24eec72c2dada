// Package attribute models the immutable, typed attribute sets that describe
// the shape of a variant. Values are cty primitives so that equal sets compare
// and hash equally no matter how they were built.
package attribute

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/opencontainers/go-digest"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Set is an immutable mapping from attribute name to a primitive cty value.
// The zero value is the empty set.
type Set struct {
	values map[string]cty.Value
	digest digest.Digest
}

// Empty is the set without attributes.
var Empty = Set{}

// Of builds a Set from cty values. Only known, non-null primitive values
// (string, number, bool) are accepted.
func Of(values map[string]cty.Value) (Set, error) {
	copied := make(map[string]cty.Value, len(values))
	for name, v := range values {
		if strings.TrimSpace(name) == "" {
			return Set{}, fmt.Errorf("attribute: empty attribute name")
		}
		if v.IsNull() || !v.IsKnown() {
			return Set{}, fmt.Errorf("attribute %q: value must be known and non-null", name)
		}
		if !v.Type().IsPrimitiveType() {
			return Set{}, fmt.Errorf("attribute %q: unsupported type %s", name, v.Type().FriendlyName())
		}
		copied[name] = v
	}
	d, err := computeDigest(copied)
	if err != nil {
		return Set{}, err
	}
	return Set{values: copied, digest: d}, nil
}

// MustOf is like Of but panics on error. Intended for literals.
func MustOf(values map[string]cty.Value) Set {
	s, err := Of(values)
	if err != nil {
		panic(err)
	}
	return s
}

// Strings builds a Set of string-typed attributes.
func Strings(values map[string]string) Set {
	m := make(map[string]cty.Value, len(values))
	for k, v := range values {
		m[k] = cty.StringVal(v)
	}
	return MustOf(m)
}

// FromAny converts decoded YAML/JSON scalars into a Set.
func FromAny(values map[string]any) (Set, error) {
	m := make(map[string]cty.Value, len(values))
	for k, raw := range values {
		switch v := raw.(type) {
		case string:
			m[k] = cty.StringVal(v)
		case bool:
			m[k] = cty.BoolVal(v)
		case int:
			m[k] = cty.NumberIntVal(int64(v))
		case int64:
			m[k] = cty.NumberIntVal(v)
		case uint64:
			m[k] = cty.NumberUIntVal(v)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Set{}, fmt.Errorf("attribute %q: non-finite number", k)
			}
			m[k] = cty.NumberFloatVal(v)
		default:
			return Set{}, fmt.Errorf("attribute %q: unsupported value of type %T", k, raw)
		}
	}
	return Of(m)
}

// Get returns the value of the named attribute.
func (s Set) Get(name string) (cty.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the attribute names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s Set) Len() int { return len(s.values) }

func (s Set) IsEmpty() bool { return len(s.values) == 0 }

// Digest identifies the set by content. Two sets holding the same names and
// values have the same digest.
func (s Set) Digest() digest.Digest {
	if s.digest == "" {
		d, _ := computeDigest(nil)
		return d
	}
	return s.digest
}

func (s Set) Equal(other Set) bool { return s.Digest() == other.Digest() }

// Map returns a copy of the attributes as plain Go values.
func (s Set) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = goValue(v)
	}
	return out
}

func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range s.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", name, goValue(s.values[name]))
	}
	b.WriteByte('}')
	return b.String()
}

func goValue(v cty.Value) any {
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Bool:
		return v.True()
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	}
	return v.GoString()
}

// computeDigest hashes the RFC 8785 canonical JSON form of the attributes.
func computeDigest(values map[string]cty.Value) (digest.Digest, error) {
	obj := cty.EmptyObjectVal
	if len(values) > 0 {
		obj = cty.ObjectVal(values)
	}
	raw, err := ctyjson.Marshal(obj, obj.Type())
	if err != nil {
		return "", fmt.Errorf("attribute: encode: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("attribute: canonicalize: %w", err)
	}
	return digest.FromBytes(canonical), nil
}
