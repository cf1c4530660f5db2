// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/value"
)

// CheckLink explains why a link from start to end would be refused, or
// returns nil when it is legal. AddLink uses the error; UI-style callers
// use the boolean wrapper.
func CheckLink(p *scene.Project, oracle TypeOracle, start, end scene.PropertyRef, weak bool) error {
	startProp, err := p.ResolveProperty(start)
	if err != nil {
		return err
	}
	endProp, err := p.ResolveProperty(end)
	if err != nil {
		return err
	}

	if !startProp.Spec().IsLinkStart() {
		return refusal("start property cannot begin links", start, end)
	}
	if !endProp.Spec().IsLinkEnd() {
		return refusal("end property cannot terminate links", start, end)
	}

	level := p.FeatureLevel()
	if startProp.Spec().FeatureLevel() > level || endProp.Spec().FeatureLevel() > level {
		return refusal("endpoint gated above project feature level", start, end)
	}

	// Read-only subtrees receive values only from their owning document or
	// template. Starting a link inside one stays legal, and the interface
	// inputs of a prefab instance are the one linkable surface inside it.
	if IsReadOnly(p, end.Object) && !IsInstanceInterfaceInput(p, end) {
		return refusal("end object is read-only content", start, end)
	}

	if existing, ok := p.Links().ByEnd(end); ok {
		if !existing.Weak && !existing.Start.Equal(start) {
			return refusal("end already driven by another link", start, end)
		}
	}

	if !oracle.Compatible(startProp, endProp) {
		return refusal("property types are not compatible", start, end)
	}

	if !weak {
		// The new strong edge runs start.Object -> end.Object; a strong
		// path back from the end object would close a loop.
		if start.Object == end.Object || strongPathExists(p.Links(), end.Object, start.Object) {
			return refusal("link would close a cycle", start, end)
		}
	}
	return nil
}

// LinkWouldBeAllowed is the boolean form of CheckLink.
func LinkWouldBeAllowed(p *scene.Project, oracle TypeOracle, start, end scene.PropertyRef, weak bool) bool {
	return CheckLink(p, oracle, start, end, weak) == nil
}

// AllowedLinkStartProperties returns every property across the project
// that could legally start a strong link into the given end, sorted.
func AllowedLinkStartProperties(p *scene.Project, oracle TypeOracle, end scene.PropertyRef) []scene.PropertyRef {
	var out []scene.PropertyRef
	for _, obj := range p.Instances() {
		obj.WalkProperties(func(path []string, prop *value.Property) bool {
			if !prop.Spec().IsLinkStart() {
				return true
			}
			start := scene.PropertyRef{Object: obj.ID, Path: append([]string(nil), path...)}
			if start.Equal(end) {
				return true
			}
			if CheckLink(p, oracle, start, end, false) == nil {
				out = append(out, start)
			}
			return true
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// LinksConnectedTo returns the links touching any of the given objects,
// filtered by direction, deduplicated and sorted by end slot.
func LinksConnectedTo(p *scene.Project, ids []ulid.ULID, includeStarts, includeEnds bool) []*scene.Link {
	seen := make(map[string]*scene.Link)
	for _, id := range ids {
		if includeStarts {
			for _, l := range p.Links().FromObject(id) {
				seen[l.End.Key()] = l
			}
		}
		if includeEnds {
			for _, l := range p.Links().ToObject(id) {
				seen[l.End.Key()] = l
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*scene.Link, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

// BrokenLinksMessage renders a one-line summary of the invalid links
// touching an object, empty when there are none.
func BrokenLinksMessage(p *scene.Project, id ulid.ULID) string {
	var parts []string
	for _, l := range LinksConnectedTo(p, []ulid.ULID{id}, true, true) {
		if l.Valid {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s -> %s", FormatRef(p, l.Start), FormatRef(p, l.End)))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("broken links: %s", strings.Join(parts, "; "))
}

// FormatRef renders a property ref as "objectName.path.to.slot" for
// messages, falling back to the raw id for vanished objects.
func FormatRef(p *scene.Project, ref scene.PropertyRef) string {
	name := ref.Object.String()
	if obj, ok := p.Object(ref.Object); ok && obj.Name != "" {
		name = obj.Name
	}
	return name + "." + value.JoinPath(ref.Path)
}

func refusal(reason string, start, end scene.PropertyRef) error {
	return oops.
		With("reason", reason).
		With("start", start.Key()).
		With("end", end.Key()).
		Wrap(scene.ErrLinkNotAllowed)
}

// strongPathExists walks outgoing strong links breadth-first.
func strongPathExists(g *scene.LinkGraph, from, to ulid.ULID) bool {
	visited := map[ulid.ULID]struct{}{from: {}}
	queue := []ulid.ULID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range g.FromObject(cur) {
			if l.Weak {
				continue
			}
			next := l.End.Object
			if next == to {
				return true
			}
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}
