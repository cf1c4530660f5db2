// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package scene

import (
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// PropertyRef addresses one property slot: the owning object's id plus the
// path from the object root. Refs are value semantics and survive graph
// mutation; resolution against the current project decides whether a ref is
// still live.
type PropertyRef struct {
	Object ulid.ULID
	Path   []string
}

// NewPropertyRef builds a ref from an object id and path segments.
func NewPropertyRef(object ulid.ULID, path ...string) PropertyRef {
	return PropertyRef{Object: object, Path: path}
}

// Key returns the canonical map key for this ref.
func (r PropertyRef) Key() string {
	return r.Object.String() + ":" + strings.Join(r.Path, ".")
}

// Equal reports whether two refs address the same slot.
func (r PropertyRef) Equal(o PropertyRef) bool {
	if r.Object != o.Object || len(r.Path) != len(o.Path) {
		return false
	}
	for i := range r.Path {
		if r.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether r addresses a strict ancestor property of o
// on the same object.
func (r PropertyRef) IsAncestorOf(o PropertyRef) bool {
	if r.Object != o.Object || len(r.Path) >= len(o.Path) {
		return false
	}
	for i := range r.Path {
		if r.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// Link is a directed data-flow edge between two properties. An invalid
// link stays in the graph until removed or repaired; validity tracks
// whether the endpoint types are still compatible.
type Link struct {
	Start PropertyRef
	End   PropertyRef
	Weak  bool
	Valid bool
}

// LinkGraph owns the project's links, indexed for the accesses the
// mutation context and query layer need: by end slot (fan-in 1), by start
// object and by end object.
type LinkGraph struct {
	byEnd      map[string]*Link
	byStartObj map[ulid.ULID]map[string]*Link
	byEndObj   map[ulid.ULID]map[string]*Link
}

// NewLinkGraph creates an empty link graph.
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{
		byEnd:      make(map[string]*Link),
		byStartObj: make(map[ulid.ULID]map[string]*Link),
		byEndObj:   make(map[ulid.ULID]map[string]*Link),
	}
}

// Add inserts a link. The end slot must be free; replacement is the
// mutation context's explicit remove-then-add.
func (g *LinkGraph) Add(l *Link) error {
	key := l.End.Key()
	if _, occupied := g.byEnd[key]; occupied {
		return oops.With("end", key).Wrap(ErrLinkExists)
	}
	g.byEnd[key] = l
	if g.byStartObj[l.Start.Object] == nil {
		g.byStartObj[l.Start.Object] = make(map[string]*Link)
	}
	g.byStartObj[l.Start.Object][key] = l
	if g.byEndObj[l.End.Object] == nil {
		g.byEndObj[l.End.Object] = make(map[string]*Link)
	}
	g.byEndObj[l.End.Object][key] = l
	return nil
}

// Remove deletes the link ending on the given slot and returns it, or nil
// when no link ends there.
func (g *LinkGraph) Remove(end PropertyRef) *Link {
	key := end.Key()
	l, ok := g.byEnd[key]
	if !ok {
		return nil
	}
	delete(g.byEnd, key)
	delete(g.byStartObj[l.Start.Object], key)
	if len(g.byStartObj[l.Start.Object]) == 0 {
		delete(g.byStartObj, l.Start.Object)
	}
	delete(g.byEndObj[l.End.Object], key)
	if len(g.byEndObj[l.End.Object]) == 0 {
		delete(g.byEndObj, l.End.Object)
	}
	return l
}

// ByEnd returns the link ending exactly on the given slot.
func (g *LinkGraph) ByEnd(end PropertyRef) (*Link, bool) {
	l, ok := g.byEnd[end.Key()]
	return l, ok
}

// EndingOnOrAbove returns the link ending on the slot itself or on any of
// its ancestor properties. At most one such link can exist per ancestor;
// the nearest is returned.
func (g *LinkGraph) EndingOnOrAbove(ref PropertyRef) (*Link, bool) {
	for n := len(ref.Path); n > 0; n-- {
		candidate := PropertyRef{Object: ref.Object, Path: ref.Path[:n]}
		if l, ok := g.byEnd[candidate.Key()]; ok {
			return l, true
		}
	}
	return nil, false
}

// FromObject returns the links starting on the given object, sorted by end
// key for deterministic iteration.
func (g *LinkGraph) FromObject(id ulid.ULID) []*Link {
	return sortedLinks(g.byStartObj[id])
}

// ToObject returns the links ending on the given object, sorted by end key.
func (g *LinkGraph) ToObject(id ulid.ULID) []*Link {
	return sortedLinks(g.byEndObj[id])
}

// All returns every link sorted by end key.
func (g *LinkGraph) All() []*Link {
	return sortedLinks(g.byEnd)
}

// Count returns the number of links.
func (g *LinkGraph) Count() int {
	return len(g.byEnd)
}

func sortedLinks(m map[string]*Link) []*Link {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Link, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
