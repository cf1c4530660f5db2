// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package value

// Annotation is static metadata attached to a property spec. The set of
// annotation types is closed and fixed at the type-system level; annotations
// are never attached or removed per instance.
type Annotation interface {
	AnnotationName() string
}

// RangeInt clamps integer writes to [Min, Max].
type RangeInt struct {
	Min, Max int32
}

func (RangeInt) AnnotationName() string { return "RangeInt" }

// RangeDouble clamps floating-point writes to [Min, Max].
type RangeDouble struct {
	Min, Max float64
}

func (RangeDouble) AnnotationName() string { return "RangeDouble" }

// Enumeration restricts an Int property to the members of a named value set.
// Writes outside the set are rejected, not clamped.
type Enumeration struct {
	ID EnumerationID
}

func (Enumeration) AnnotationName() string { return "Enumeration" }

// URIFilter classifies which kind of file a URI property points at.
type URIFilter uint8

const (
	URIAny URIFilter = iota
	URIMesh
	URIImage
	URIScript
	URIModule
	URIInterface
	URIShader
	URIProject
)

// URI marks a string property as holding a file path, stored relative to the
// document and rewritten when the document moves.
type URI struct {
	Filter URIFilter
}

func (URI) AnnotationName() string { return "URI" }

// LinkStart marks a property as eligible to start a data-flow link.
type LinkStart struct{}

func (LinkStart) AnnotationName() string { return "LinkStart" }

// LinkEnd marks a property as eligible to end a data-flow link.
type LinkEnd struct{}

func (LinkEnd) AnnotationName() string { return "LinkEnd" }

// Volatile marks an engine-driven runtime value: excluded from undo
// recording, prefab propagation and read-only checks.
type Volatile struct{}

func (Volatile) AnnotationName() string { return "Volatile" }

// FeatureGate hides the property below a minimum project feature level.
type FeatureGate struct {
	Min int
}

func (FeatureGate) AnnotationName() string { return "FeatureGate" }

// FixedSize forbids resizing an array property.
type FixedSize struct{}

func (FixedSize) AnnotationName() string { return "FixedSize" }

// TagContainer marks a string array as a tag set edited through SetTags.
type TagContainer struct{}

func (TagContainer) AnnotationName() string { return "TagContainer" }

// RenderableTags marks a table of tag -> order-index entries edited through
// SetRenderableTags.
type RenderableTags struct{}

func (RenderableTags) AnnotationName() string { return "RenderableTags" }

// Hidden marks internal bookkeeping properties that are not user-settable
// and never shown by inspection tooling.
type Hidden struct{}

func (Hidden) AnnotationName() string { return "Hidden" }

// EnumerationID names a closed set of legal values for an Int property.
type EnumerationID uint8

const (
	EnumBlendMode EnumerationID = iota + 1
	EnumCullMode
	EnumTextureFilter
	EnumRenderLayerOrder
	EnumInterpolation
)

var enumerationValues = map[EnumerationID]map[int32]string{
	EnumBlendMode: {
		0: "Disabled",
		1: "Alpha Blended",
		2: "Additive",
	},
	EnumCullMode: {
		0: "Disabled",
		1: "Front",
		2: "Back",
		3: "Front and Back",
	},
	EnumTextureFilter: {
		0: "Nearest",
		1: "Linear",
		2: "Nearest MipMap",
		3: "Linear MipMap",
	},
	EnumRenderLayerOrder: {
		0: "Render order value",
		1: "Scene graph order",
	},
	EnumInterpolation: {
		0: "Step",
		1: "Linear",
		2: "Cubic",
	},
}

// EnumValues returns the legal value -> label table for an enumeration id.
// The returned map must not be modified.
func EnumValues(id EnumerationID) (map[int32]string, bool) {
	values, ok := enumerationValues[id]
	return values, ok
}

// FindAnnotation returns the first annotation of type T on the spec.
func FindAnnotation[T Annotation](s *Spec) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	for _, a := range s.Annotations {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	return zero, false
}

// HasAnnotation reports whether the spec carries an annotation of type T.
func HasAnnotation[T Annotation](s *Spec) bool {
	_, ok := FindAnnotation[T](s)
	return ok
}
