// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package value

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// propertyNamePattern is the legal grammar for property names. Array
// elements are the only anonymous properties.
var propertyNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidatePropertyName checks a name against the property name grammar.
func ValidatePropertyName(name string) error {
	if !propertyNamePattern.MatchString(name) {
		return oops.With("name", name).Wrap(ErrInvalidPropertyName)
	}
	return nil
}

// Property is one named, typed slot in an object's property tree. Container
// properties own their children through the value payload. Properties are
// plain data; invariants above single slots (links, undo, read-only rules)
// are enforced by the mutation context.
type Property struct {
	name  string
	spec  *Spec
	value Value
}

// NewProperty builds a property with the spec's default value.
func NewProperty(name string, spec *Spec) (*Property, error) {
	if err := ValidatePropertyName(name); err != nil {
		return nil, err
	}
	return &Property{name: name, spec: spec, value: DefaultValue(spec)}, nil
}

// MustNewProperty builds a property, panicking on an invalid name. Intended
// for static property-tree builders only.
func MustNewProperty(name string, spec *Spec) *Property {
	p, err := NewProperty(name, spec)
	if err != nil {
		panic(err)
	}
	return p
}

func newArrayElement(spec *Spec) *Property {
	return &Property{spec: spec, value: DefaultValue(spec)}
}

// Name returns the slot name. Array elements have an empty name.
func (p *Property) Name() string { return p.name }

// Spec returns the static type.
func (p *Property) Spec() *Spec { return p.spec }

// Kind returns the value kind tag.
func (p *Property) Kind() Kind { return p.value.kind }

// Value returns the current payload. For containers the children alias the
// property's own storage; callers that keep the value use CloneValue.
func (p *Property) Value() Value { return p.value }

// CloneValue returns a deep copy of the current payload.
func (p *Property) CloneValue() Value { return p.value.Clone() }

// Clone returns a deep copy of the property and its subtree.
func (p *Property) Clone() *Property {
	return &Property{name: p.name, spec: p.spec, value: p.value.Clone()}
}

// AsBool returns the payload of a Bool property.
func (p *Property) AsBool() (bool, bool) { return p.value.AsBool() }

// AsInt returns the payload of an Int property.
func (p *Property) AsInt() (int32, bool) { return p.value.AsInt() }

// AsInt64 returns the payload of an Int64 property.
func (p *Property) AsInt64() (int64, bool) { return p.value.AsInt64() }

// AsDouble returns the payload of a Double property.
func (p *Property) AsDouble() (float64, bool) { return p.value.AsDouble() }

// AsString returns the payload of a String property.
func (p *Property) AsString() (string, bool) { return p.value.AsString() }

// AsRef returns the target id of a Ref property.
func (p *Property) AsRef() (ulid.ULID, bool) { return p.value.AsRef() }

// FloatVec returns the components of a float vector property.
func (p *Property) FloatVec() ([]float64, bool) { return p.value.FloatVec() }

// IntVec returns the components of an int vector property.
func (p *Property) IntVec() ([]int32, bool) { return p.value.IntVec() }

// SetValue replaces the payload after checking it against the spec.
// Container payloads are deep-copied in. Range clamping is the caller's
// explicit step (Spec.Clamp); enumeration membership is checked here.
func (p *Property) SetValue(v Value) error {
	if v.kind != p.spec.Kind {
		return &SpecMismatchError{Want: p.spec.Kind, Got: v.kind}
	}
	if p.spec.Kind == KindStruct && len(v.elems) != len(p.spec.Fields) {
		return oops.
			With("struct_type", p.spec.StructType).
			With("want_fields", len(p.spec.Fields)).
			With("got_fields", len(v.elems)).
			Wrap(ErrChildNotFound)
	}
	if err := p.spec.CheckEnum(v); err != nil {
		return oops.With("property", p.name).Wrap(err)
	}
	p.value = v.Clone()
	return nil
}

// Len returns the child count of a container property, 0 otherwise.
func (p *Property) Len() int { return len(p.value.elems) }

// Child returns the i-th child of a container property.
func (p *Property) Child(i int) (*Property, bool) {
	if i < 0 || i >= len(p.value.elems) {
		return nil, false
	}
	return p.value.elems[i], true
}

// ChildByName returns the named child of a struct or table property.
func (p *Property) ChildByName(name string) (*Property, bool) {
	for _, child := range p.value.elems {
		if child.name == name {
			return child, true
		}
	}
	return nil, false
}

// AddChild appends a named child to a table property.
func (p *Property) AddChild(child *Property) error {
	if p.spec.Kind != KindTable {
		return oops.With("kind", p.spec.Kind.String()).Wrap(ErrNotAContainer)
	}
	if _, exists := p.ChildByName(child.name); exists {
		return oops.With("child", child.name).Wrap(ErrDuplicateChild)
	}
	p.value.elems = append(p.value.elems, child)
	return nil
}

// RemoveChild removes the named child from a table property.
func (p *Property) RemoveChild(name string) bool {
	for i, child := range p.value.elems {
		if child.name == name {
			p.value.elems = append(p.value.elems[:i], p.value.elems[i+1:]...)
			return true
		}
	}
	return false
}

// ClearChildren drops all children of a table property. Used when engine
// sync rebuilds a script interface from scratch.
func (p *Property) ClearChildren() {
	p.value.elems = nil
}

// AppendElement grows an array property by one default-valued element.
func (p *Property) AppendElement() (*Property, error) {
	if p.spec.Kind != KindArray {
		return nil, oops.With("kind", p.spec.Kind.String()).Wrap(ErrNotAContainer)
	}
	elem := newArrayElement(p.spec.ElemSpec)
	p.value.elems = append(p.value.elems, elem)
	return elem, nil
}

// Truncate shrinks an array property to n elements.
func (p *Property) Truncate(n int) error {
	if p.spec.Kind != KindArray {
		return oops.With("kind", p.spec.Kind.String()).Wrap(ErrNotAContainer)
	}
	if n < 0 || n > len(p.value.elems) {
		return oops.With("size", n).With("len", len(p.value.elems)).Wrap(ErrIndexOutOfRange)
	}
	p.value.elems = p.value.elems[:n]
	return nil
}

// Descend resolves a path of segments below this property. Segments name
// struct/table children; decimal segments index array elements.
func (p *Property) Descend(path []string) (*Property, error) {
	current := p
	for _, segment := range path {
		if isIndexSegment(segment) {
			if current.spec.Kind != KindArray {
				return nil, oops.With("segment", segment).Wrap(ErrNotAContainer)
			}
			i, _ := strconv.Atoi(segment)
			child, ok := current.Child(i)
			if !ok {
				return nil, oops.With("index", i).With("len", current.Len()).Wrap(ErrIndexOutOfRange)
			}
			current = child
			continue
		}
		child, ok := current.ChildByName(segment)
		if !ok {
			return nil, oops.With("segment", segment).With("in", current.name).Wrap(ErrChildNotFound)
		}
		current = child
	}
	return current, nil
}

// Walk visits every descendant property in preorder, passing its path
// relative to the receiver. Returning false skips that child's subtree.
func (p *Property) Walk(fn func(path []string, child *Property) bool) {
	walkChildren(p, nil, fn)
}

func walkChildren(p *Property, prefix []string, fn func(path []string, child *Property) bool) {
	for i, child := range p.value.elems {
		segment := child.name
		if p.spec.Kind == KindArray {
			segment = strconv.Itoa(i)
		}
		path := append(append([]string(nil), prefix...), segment)
		if !fn(path, child) {
			continue
		}
		walkChildren(child, path, fn)
	}
}

func isIndexSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// JoinPath renders path segments in display form: names joined with dots,
// index segments in brackets ("materials[2].material").
func JoinPath(path []string) string {
	var sb strings.Builder
	for _, segment := range path {
		if isIndexSegment(segment) {
			sb.WriteString("[")
			sb.WriteString(segment)
			sb.WriteString("]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(segment)
	}
	return sb.String()
}
