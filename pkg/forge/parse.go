// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package forge

import (
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/value"
)

// ParseValue parses user-entered text into a value of the given kind, the
// inverse of FormatValue for every leaf kind. Vectors accept comma
// separated components with optional surrounding brackets, references a
// ULID or the word "none". Container kinds have no text form.
func ParseValue(kind value.Kind, raw string) (value.Value, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case value.KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return value.Value{}, oops.Errorf("not a boolean: %q", raw)
		}
		return value.NewBool(b), nil
	case value.KindInt:
		i, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return value.Value{}, oops.Errorf("not a 32-bit integer: %q", raw)
		}
		return value.NewInt(int32(i)), nil
	case value.KindInt64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return value.Value{}, oops.Errorf("not a 64-bit integer: %q", raw)
		}
		return value.NewInt64(i), nil
	case value.KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.Value{}, oops.Errorf("not a number: %q", raw)
		}
		return value.NewDouble(f), nil
	case value.KindString:
		if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
			if s, err := strconv.Unquote(raw); err == nil {
				return value.NewString(s), nil
			}
		}
		return value.NewString(raw), nil
	case value.KindRef:
		if raw == "" || raw == "none" {
			return value.NewRef(ulid.ULID{}), nil
		}
		id, err := ulid.Parse(raw)
		if err != nil {
			return value.Value{}, oops.Errorf("not an object id: %q", raw)
		}
		return value.NewRef(id), nil
	case value.KindVec2f, value.KindVec3f, value.KindVec4f:
		fs, err := parseComponents(raw, kind.VectorLen(), func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		})
		if err != nil {
			return value.Value{}, err
		}
		v, _ := value.NewFloatVec(fs)
		return v, nil
	case value.KindVec2i, value.KindVec3i, value.KindVec4i:
		is, err := parseComponents(raw, kind.VectorLen(), func(s string) (int32, error) {
			i, err := strconv.ParseInt(s, 10, 32)
			return int32(i), err
		})
		if err != nil {
			return value.Value{}, err
		}
		v, _ := value.NewIntVec(is)
		return v, nil
	}
	return value.Value{}, oops.Errorf("a %s property has no text form", kind)
}

func parseComponents[T any](raw string, want int, parse func(string) (T, error)) ([]T, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != want {
		return nil, oops.Errorf("expected %d components, got %d: %q", want, len(parts), raw)
	}
	out := make([]T, want)
	for i, part := range parts {
		v, err := parse(strings.TrimSpace(part))
		if err != nil {
			return nil, oops.Errorf("bad component %q in %q", strings.TrimSpace(part), raw)
		}
		out[i] = v
	}
	return out, nil
}

// FormatProperty renders a property subtree as indented lines, one per
// property. Containers list their children below them; array elements,
// which carry no name of their own, show their bracketed index.
func FormatProperty(p *value.Property) []string {
	var lines []string
	appendPropertyLines(&lines, p, p.Name(), 0)
	return lines
}

func appendPropertyLines(lines *[]string, p *value.Property, name string, depth int) {
	indent := strings.Repeat("  ", depth)
	if !p.Kind().IsContainer() {
		*lines = append(*lines, indent+name+": "+FormatValue(p.Value()))
		return
	}
	*lines = append(*lines, indent+name+":")
	isArray := p.Kind() == value.KindArray
	for i, n := 0, p.Len(); i < n; i++ {
		child, _ := p.Child(i)
		childName := child.Name()
		if isArray {
			childName = "[" + strconv.Itoa(i) + "]"
		}
		appendPropertyLines(lines, child, childName, depth+1)
	}
}