// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package engine

import (
	"github.com/sceneforge/sceneforge/internal/value"
)

// PropDecl is one property a script interface declares: a leaf type, a
// struct of named fields, or a fixed-size array.
type PropDecl struct {
	Name   string
	Kind   value.Kind
	Size   int        // arrays: declared element count
	Elem   *PropDecl  // arrays: element shape
	Fields []PropDecl // structs: field list, sorted by name
}

// Spec builds the property spec for this declaration. The annotations are
// applied to every node of the subtree, so links may target containers as
// well as leaves.
func (d PropDecl) Spec(annotations ...value.Annotation) *value.Spec {
	switch d.Kind {
	case value.KindStruct:
		fields := make([]value.FieldSpec, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = value.FieldSpec{Name: f.Name, Spec: f.Spec(annotations...)}
		}
		return value.StructSpec("", fields, annotations...)
	case value.KindArray:
		elem := d.Elem.Spec(annotations...)
		withFixed := append(append([]value.Annotation(nil), annotations...), value.FixedSize{})
		return value.ArraySpec(elem, withFixed...)
	default:
		return &value.Spec{Kind: d.Kind, Annotations: annotations}
	}
}

// NewProperty materializes the declaration as a property tree, creating
// the declared element count for every array in the subtree.
func (d PropDecl) NewProperty(annotations ...value.Annotation) (*value.Property, error) {
	p, err := value.NewProperty(d.Name, d.Spec(annotations...))
	if err != nil {
		return nil, err
	}
	if err := d.fill(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (d PropDecl) fill(p *value.Property) error {
	switch d.Kind {
	case value.KindStruct:
		for i, f := range d.Fields {
			child, ok := p.Child(i)
			if !ok {
				return value.ErrChildNotFound
			}
			if err := f.fill(child); err != nil {
				return err
			}
		}
	case value.KindArray:
		for i := 0; i < d.Size; i++ {
			elem, err := p.AppendElement()
			if err != nil {
				return err
			}
			if err := d.Elem.fill(elem); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScriptInterface is the extracted shape of a script: its declared inputs
// and outputs plus the module names it expects to be provided.
type ScriptInterface struct {
	Inputs  []PropDecl
	Outputs []PropDecl
	Modules []string
}
