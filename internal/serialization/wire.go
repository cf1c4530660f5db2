// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package serialization converts between the in-memory document and its
// persisted forms: the versioned .sfp project file, clipboard fragments for
// copy/paste and external-reference import, and the JSON schema project
// files validate against. Property trees are written self-describing (kind,
// struct layout, annotations), so loading never needs the script or shader
// sources the dynamic parts were synced from.
package serialization

import (
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// ErrBadWireData indicates serialized content that does not decode into a
// consistent document fragment.
var ErrBadWireData = errors.New("serialized data is not consistent")

// WireAnnotations is the persisted form of a spec's closed annotation set.
// Absent fields mean the annotation is not present.
type WireAnnotations struct {
	RangeIntMin    *int32   `json:"rangeIntMin,omitempty"`
	RangeIntMax    *int32   `json:"rangeIntMax,omitempty"`
	RangeMin       *float64 `json:"rangeMin,omitempty"`
	RangeMax       *float64 `json:"rangeMax,omitempty"`
	Enumeration    uint8    `json:"enumeration,omitempty"`
	URIFilter      *uint8   `json:"uriFilter,omitempty"`
	LinkStart      bool     `json:"linkStart,omitempty"`
	LinkEnd        bool     `json:"linkEnd,omitempty"`
	Volatile       bool     `json:"volatile,omitempty"`
	FeatureGate    int      `json:"featureGate,omitempty"`
	FixedSize      bool     `json:"fixedSize,omitempty"`
	TagContainer   bool     `json:"tagContainer,omitempty"`
	RenderableTags bool     `json:"renderableTags,omitempty"`
	Hidden         bool     `json:"hidden,omitempty"`
}

// WireProperty is one node of a persisted property tree: the spec part
// (kind, layout, annotations) plus the payload for leaves or the child list
// for containers. Array nodes always carry Element so empty arrays keep
// their element type.
type WireProperty struct {
	Name        string           `json:"name,omitempty"`
	Kind        string           `json:"kind"`
	StructType  string           `json:"structType,omitempty"`
	RefKinds    []string         `json:"refKinds,omitempty"`
	Annotations *WireAnnotations `json:"annotations,omitempty"`
	Element     *WireProperty    `json:"element,omitempty"`

	Bool     *bool          `json:"bool,omitempty"`
	Int      *int64         `json:"int,omitempty"`
	Double   *float64       `json:"double,omitempty"`
	String   *string        `json:"string,omitempty"`
	Ref      string         `json:"ref,omitempty"`
	FloatVec []float64      `json:"floatVec,omitempty"`
	IntVec   []int32        `json:"intVec,omitempty"`
	Children []WireProperty `json:"children,omitempty"`
}

// WireObject is one persisted editor object. Children hold ids of objects
// inside the same fragment, in scenegraph order; structure is rebuilt from
// these lists, so no parent field is stored.
type WireObject struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	Name         string         `json:"name"`
	ExtrefSource string         `json:"extrefSource,omitempty"`
	Children     []string       `json:"children,omitempty"`
	Properties   []WireProperty `json:"properties,omitempty"`
}

// WireLink is one persisted link.
type WireLink struct {
	StartObject string   `json:"startObject"`
	StartPath   []string `json:"startPath"`
	EndObject   string   `json:"endObject"`
	EndPath     []string `json:"endPath"`
	Weak        bool     `json:"weak,omitempty"`
	Valid       bool     `json:"valid"`
}

// WireExternalProject is one row of the persisted external-project table.
type WireExternalProject struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func encodeAnnotations(s *value.Spec) *WireAnnotations {
	if len(s.Annotations) == 0 {
		return nil
	}
	w := &WireAnnotations{}
	for _, a := range s.Annotations {
		switch anno := a.(type) {
		case value.RangeInt:
			minV, maxV := anno.Min, anno.Max
			w.RangeIntMin, w.RangeIntMax = &minV, &maxV
		case value.RangeDouble:
			minV, maxV := anno.Min, anno.Max
			w.RangeMin, w.RangeMax = &minV, &maxV
		case value.Enumeration:
			w.Enumeration = uint8(anno.ID)
		case value.URI:
			filter := uint8(anno.Filter)
			w.URIFilter = &filter
		case value.LinkStart:
			w.LinkStart = true
		case value.LinkEnd:
			w.LinkEnd = true
		case value.Volatile:
			w.Volatile = true
		case value.FeatureGate:
			w.FeatureGate = anno.Min
		case value.FixedSize:
			w.FixedSize = true
		case value.TagContainer:
			w.TagContainer = true
		case value.RenderableTags:
			w.RenderableTags = true
		case value.Hidden:
			w.Hidden = true
		}
	}
	return w
}

func decodeAnnotations(w *WireAnnotations) []value.Annotation {
	if w == nil {
		return nil
	}
	var out []value.Annotation
	if w.RangeIntMin != nil && w.RangeIntMax != nil {
		out = append(out, value.RangeInt{Min: *w.RangeIntMin, Max: *w.RangeIntMax})
	}
	if w.RangeMin != nil && w.RangeMax != nil {
		out = append(out, value.RangeDouble{Min: *w.RangeMin, Max: *w.RangeMax})
	}
	if w.Enumeration != 0 {
		out = append(out, value.Enumeration{ID: value.EnumerationID(w.Enumeration)})
	}
	if w.URIFilter != nil {
		out = append(out, value.URI{Filter: value.URIFilter(*w.URIFilter)})
	}
	if w.LinkStart {
		out = append(out, value.LinkStart{})
	}
	if w.LinkEnd {
		out = append(out, value.LinkEnd{})
	}
	if w.Volatile {
		out = append(out, value.Volatile{})
	}
	if w.FeatureGate != 0 {
		out = append(out, value.FeatureGate{Min: w.FeatureGate})
	}
	if w.FixedSize {
		out = append(out, value.FixedSize{})
	}
	if w.TagContainer {
		out = append(out, value.TagContainer{})
	}
	if w.RenderableTags {
		out = append(out, value.RenderableTags{})
	}
	if w.Hidden {
		out = append(out, value.Hidden{})
	}
	return out
}

// encodeSpec writes the spec part of a wire node, without payload.
func encodeSpec(s *value.Spec) WireProperty {
	w := WireProperty{
		Kind:        s.Kind.String(),
		StructType:  s.StructType,
		RefKinds:    append([]string(nil), s.RefKinds...),
		Annotations: encodeAnnotations(s),
	}
	if s.Kind == value.KindArray && s.ElemSpec != nil {
		elem := encodeSpec(s.ElemSpec)
		w.Element = &elem
	}
	return w
}

func decodeSpec(w *WireProperty) (*value.Spec, error) {
	kind, ok := value.KindFromString(w.Kind)
	if !ok || kind == value.KindUnknown {
		return nil, oops.With("kind", w.Kind).Wrap(ErrBadWireData)
	}
	s := &value.Spec{
		Kind:        kind,
		StructType:  w.StructType,
		RefKinds:    append([]string(nil), w.RefKinds...),
		Annotations: decodeAnnotations(w.Annotations),
	}
	switch kind {
	case value.KindStruct:
		for i := range w.Children {
			child := &w.Children[i]
			childSpec, err := decodeSpec(child)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, value.FieldSpec{Name: child.Name, Spec: childSpec})
		}
	case value.KindArray:
		if w.Element == nil {
			return nil, oops.With("kind", w.Kind).Wrap(ErrBadWireData)
		}
		elemSpec, err := decodeSpec(w.Element)
		if err != nil {
			return nil, err
		}
		s.ElemSpec = elemSpec
	}
	return s, nil
}

// EncodeProperty writes one property subtree in wire form.
func EncodeProperty(p *value.Property) WireProperty {
	w := encodeSpec(p.Spec())
	w.Name = p.Name()

	switch p.Kind() {
	case value.KindBool:
		if b, ok := p.AsBool(); ok {
			w.Bool = &b
		}
	case value.KindInt:
		if i, ok := p.AsInt(); ok {
			i64 := int64(i)
			w.Int = &i64
		}
	case value.KindInt64:
		if i, ok := p.AsInt64(); ok {
			w.Int = &i
		}
	case value.KindDouble:
		if f, ok := p.AsDouble(); ok {
			w.Double = &f
		}
	case value.KindString:
		if s, ok := p.AsString(); ok {
			w.String = &s
		}
	case value.KindRef:
		if id, ok := p.AsRef(); ok && id != (ulid.ULID{}) {
			w.Ref = id.String()
		}
	case value.KindVec2f, value.KindVec3f, value.KindVec4f:
		if vec, ok := p.FloatVec(); ok {
			w.FloatVec = vec
		}
	case value.KindVec2i, value.KindVec3i, value.KindVec4i:
		if vec, ok := p.IntVec(); ok {
			w.IntVec = vec
		}
	case value.KindTable, value.KindStruct, value.KindArray:
		for i := 0; i < p.Len(); i++ {
			child, _ := p.Child(i)
			w.Children = append(w.Children, EncodeProperty(child))
		}
	}
	return w
}

// DecodeProperty rebuilds one property subtree from wire form.
func DecodeProperty(w *WireProperty) (*value.Property, error) {
	spec, err := decodeSpec(w)
	if err != nil {
		return nil, err
	}
	prop, err := value.NewProperty(w.Name, spec)
	if err != nil {
		return nil, oops.With("property", w.Name).Wrap(err)
	}
	if err := fillProperty(prop, w); err != nil {
		return nil, oops.With("property", w.Name).Wrap(err)
	}
	return prop, nil
}

// fillProperty writes the wire payload into an already-constructed
// property. Struct children exist from the spec; table children are built
// per wire node; array elements are appended to match the wire length.
func fillProperty(p *value.Property, w *WireProperty) error {
	switch p.Kind() {
	case value.KindTable:
		for i := range w.Children {
			child, err := DecodeProperty(&w.Children[i])
			if err != nil {
				return err
			}
			if err := p.AddChild(child); err != nil {
				return err
			}
		}
		return nil
	case value.KindStruct:
		for i := range w.Children {
			wireChild := &w.Children[i]
			child, ok := p.ChildByName(wireChild.Name)
			if !ok {
				return oops.With("field", wireChild.Name).Wrap(ErrBadWireData)
			}
			if err := fillProperty(child, wireChild); err != nil {
				return err
			}
		}
		return nil
	case value.KindArray:
		for i := range w.Children {
			elem, err := p.AppendElement()
			if err != nil {
				return err
			}
			if err := fillProperty(elem, &w.Children[i]); err != nil {
				return err
			}
		}
		return nil
	}

	v, ok, err := decodeLeaf(p.Kind(), w)
	if err != nil {
		return err
	}
	if !ok {
		return nil // absent payload keeps the default
	}
	return p.SetValue(v)
}

func decodeLeaf(kind value.Kind, w *WireProperty) (value.Value, bool, error) {
	switch kind {
	case value.KindBool:
		if w.Bool != nil {
			return value.NewBool(*w.Bool), true, nil
		}
	case value.KindInt:
		if w.Int != nil {
			return value.NewInt(int32(*w.Int)), true, nil
		}
	case value.KindInt64:
		if w.Int != nil {
			return value.NewInt64(*w.Int), true, nil
		}
	case value.KindDouble:
		if w.Double != nil {
			return value.NewDouble(*w.Double), true, nil
		}
	case value.KindString:
		if w.String != nil {
			return value.NewString(*w.String), true, nil
		}
	case value.KindRef:
		if w.Ref == "" {
			return value.Value{}, false, nil
		}
		id, err := ulid.Parse(w.Ref)
		if err != nil {
			return value.Value{}, false, oops.With("ref", w.Ref).Wrap(ErrBadWireData)
		}
		return value.NewRef(id), true, nil
	case value.KindVec2f, value.KindVec3f, value.KindVec4f:
		if w.FloatVec == nil {
			return value.Value{}, false, nil
		}
		v, ok := value.NewFloatVec(w.FloatVec)
		if !ok || len(w.FloatVec) != kind.VectorLen() {
			return value.Value{}, false, oops.With("len", len(w.FloatVec)).Wrap(ErrBadWireData)
		}
		return v, true, nil
	case value.KindVec2i, value.KindVec3i, value.KindVec4i:
		if w.IntVec == nil {
			return value.Value{}, false, nil
		}
		v, ok := value.NewIntVec(w.IntVec)
		if !ok || len(w.IntVec) != kind.VectorLen() {
			return value.Value{}, false, oops.With("len", len(w.IntVec)).Wrap(ErrBadWireData)
		}
		return v, true, nil
	}
	return value.Value{}, false, nil
}

// EncodeObject writes one object in wire form. Children are filtered to
// the given fragment set; ids outside it are dropped, which is how copy
// excludes unselected subtrees of partially-copied parents.
func EncodeObject(obj *scene.EditorObject, inFragment func(ulid.ULID) bool) WireObject {
	w := WireObject{
		ID:   obj.ID.String(),
		Kind: obj.Kind,
		Name: obj.Name,
	}
	if obj.Extref != nil {
		w.ExtrefSource = obj.Extref.SourceProjectID
	}
	for _, child := range obj.Children {
		if inFragment == nil || inFragment(child) {
			w.Children = append(w.Children, child.String())
		}
	}
	for _, prop := range obj.Properties {
		w.Properties = append(w.Properties, EncodeProperty(prop))
	}
	return w
}

// DecodeObject rebuilds one detached object from wire form. Placement is
// the caller's step, driven by the fragment's children lists.
func DecodeObject(w *WireObject) (*scene.EditorObject, error) {
	id, err := ulid.Parse(w.ID)
	if err != nil {
		return nil, oops.With("object_id", w.ID).Wrap(ErrBadWireData)
	}
	if _, ok := usertypes.Lookup(w.Kind); !ok {
		return nil, oops.With("kind", w.Kind).Wrap(usertypes.ErrUnknownKind)
	}
	obj := &scene.EditorObject{ID: id, Kind: w.Kind, Name: w.Name}
	if w.ExtrefSource != "" {
		obj.Extref = &scene.ExternalReference{SourceProjectID: w.ExtrefSource}
	}
	for i := range w.Properties {
		prop, err := DecodeProperty(&w.Properties[i])
		if err != nil {
			return nil, oops.With("object_id", w.ID).Wrap(err)
		}
		obj.Properties = append(obj.Properties, prop)
	}
	return obj, nil
}

func encodeLink(l *scene.Link) WireLink {
	return WireLink{
		StartObject: l.Start.Object.String(),
		StartPath:   append([]string(nil), l.Start.Path...),
		EndObject:   l.End.Object.String(),
		EndPath:     append([]string(nil), l.End.Path...),
		Weak:        l.Weak,
		Valid:       l.Valid,
	}
}

func decodeLink(w *WireLink) (*scene.Link, error) {
	startID, err := ulid.Parse(w.StartObject)
	if err != nil {
		return nil, oops.With("start", w.StartObject).Wrap(ErrBadWireData)
	}
	endID, err := ulid.Parse(w.EndObject)
	if err != nil {
		return nil, oops.With("end", w.EndObject).Wrap(ErrBadWireData)
	}
	return &scene.Link{
		Start: scene.PropertyRef{Object: startID, Path: append([]string(nil), w.StartPath...)},
		End:   scene.PropertyRef{Object: endID, Path: append([]string(nil), w.EndPath...)},
		Weak:  w.Weak,
		Valid: w.Valid,
	}, nil
}
