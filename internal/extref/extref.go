// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package extref embeds read-only mirrors of objects living in other
// documents and keeps them aligned with their sources.
//
// A fragment pasted as external reference keeps its source ids, so pasting
// the same objects twice merges instead of duplicating. Merging is strict:
// an id the document already embeds must arrive with identical content and
// the same source attribution, otherwise the paste is refused before the
// graph is touched. Re-aligning embedded content with a source that has
// since changed is the update pass in update.go, which rewrites instead of
// refusing.
//
// PrefabInstance subtrees are a boundary for both paste and update. The
// mirrored children below an instance carry ids derived from the template,
// identically in the source document and here, so local prefab propagation
// rebuilds them from the merged template content on the next pass.
package extref

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/edit"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// Paste merges a clipboard fragment into the project as external-reference
// mirrors, preserving the fragment's object ids. Objects already embedded
// from the same source are left alone when their content still matches;
// divergent content, a different source claiming an embedded id, or a
// dependency cycle between the two documents refuse the whole paste with
// the graph unchanged. Returns the fragment's root ids.
func Paste(c *edit.Context, data []byte) ([]ulid.ULID, error) {
	blob, err := serialization.DecodeClipboard(data)
	if err != nil {
		return nil, err
	}
	p := c.Project()
	if blob.SourceProjectID == "" {
		return nil, &scene.ExtrefError{Reason: "fragment carries no source project id"}
	}
	if blob.SourceProjectPath == "" {
		return nil, &scene.ExtrefError{SourceProjectID: blob.SourceProjectID, Reason: "source document has never been saved"}
	}
	if blob.SourceProjectID == p.ID {
		return nil, &scene.ExtrefError{SourceProjectID: blob.SourceProjectID, Reason: "fragment comes from this document"}
	}
	frag, err := buildFragment(blob)
	if err != nil {
		return nil, err
	}
	if _, cyclic := frag.dependsOn[p.ID]; cyclic {
		return nil, &scene.ExtrefError{
			SourceProjectID: frag.sourceID,
			Reason:          "source document references this document back",
		}
	}
	if err := checkIdentity(p, frag, true); err != nil {
		return nil, err
	}
	members, err := applyFragment(c, frag, false)
	if err != nil {
		return nil, err
	}
	c.RevalidateLinks(members...)
	return frag.roots, nil
}

// checkIdentity verifies that every fragment row can merge onto the live
// graph: an embedded id must be an external reference from the same source.
// With hashing on, embedded content must also still equal the incoming
// content; paste refuses divergence, update rewrites it.
func checkIdentity(p *scene.Project, frag *fragment, withHash bool) error {
	for _, r := range frag.rows {
		if r.managed {
			continue
		}
		live, ok := p.Object(r.id)
		if !ok {
			continue
		}
		if live.Extref == nil {
			return &scene.ExtrefError{
				SourceProjectID: r.source,
				Reason:          fmt.Sprintf("object %s already exists as editable content", r.id),
			}
		}
		if live.Extref.SourceProjectID != r.source {
			return &scene.ExtrefError{
				SourceProjectID: r.source,
				Reason:          fmt.Sprintf("object %s is already imported from project %s", r.id, live.Extref.SourceProjectID),
			}
		}
		if withHash && contentHash(live, live.Children) != contentHash(r.obj, r.children) {
			return &scene.ExtrefError{
				SourceProjectID: r.source,
				Reason:          fmt.Sprintf("content of object %s diverged from the embedded copy", r.id),
			}
		}
	}
	return nil
}

// mergeRow is one fragment object prepared for merging.
type mergeRow struct {
	id       ulid.ULID
	parent   ulid.ULID // zero for fragment roots
	source   string    // originating project, nested imports keep their owner
	children []ulid.ULID
	managed  bool // below a PrefabInstance, owned by prefab propagation
	obj      *scene.EditorObject
}

// fragment is a decoded clipboard prepared for merging: rows in preorder,
// the id map for reference rewriting, internal links and the source table
// rows the content depends on.
type fragment struct {
	sourceID  string
	roots     []ulid.ULID
	rows      []*mergeRow
	index     map[ulid.ULID]*mergeRow
	identity  map[ulid.ULID]ulid.ULID
	links     []*scene.Link
	projects  map[string]scene.ExternalProject
	dependsOn map[string]struct{}
}

func buildFragment(blob *serialization.Clipboard) (*fragment, error) {
	decoded, err := blob.Instantiate()
	if err != nil {
		return nil, err
	}
	links, err := blob.DecodedLinks()
	if err != nil {
		return nil, err
	}

	frag := &fragment{
		sourceID:  blob.SourceProjectID,
		index:     make(map[ulid.ULID]*mergeRow, len(blob.Objects)),
		identity:  make(map[ulid.ULID]ulid.ULID, len(blob.Objects)),
		links:     links,
		projects:  make(map[string]scene.ExternalProject),
		dependsOn: make(map[string]struct{}, len(blob.ExternalProjects)),
	}
	for src := range blob.ExternalProjects {
		frag.dependsOn[src] = struct{}{}
	}
	srcDir := ""
	if blob.SourceProjectPath != "" {
		srcDir = filepath.Dir(blob.SourceProjectPath)
	}
	frag.projects[blob.SourceProjectID] = scene.ExternalProject{
		Name: blob.SourceProjectName,
		Path: blob.SourceProjectPath,
	}

	// Objects arrive in preorder per root, so a row's parent is built
	// before the row itself.
	for i := range blob.Objects {
		wire := &blob.Objects[i]
		obj := decoded[wire.ID]
		r := &mergeRow{id: obj.ID, source: blob.SourceProjectID, obj: obj}
		if wire.ExtrefSource != "" {
			r.source = wire.ExtrefSource
			frag.dependsOn[wire.ExtrefSource] = struct{}{}
		}
		for _, child := range wire.Children {
			childID, err := ulid.Parse(child)
			if err != nil {
				return nil, oops.With("child", child).Wrap(serialization.ErrBadWireData)
			}
			r.children = append(r.children, childID)
		}
		frag.rows = append(frag.rows, r)
		frag.index[r.id] = r
		frag.identity[r.id] = r.id
		if r.source != blob.SourceProjectID {
			if _, have := frag.projects[r.source]; !have {
				entry := blob.ExternalProjects[r.source]
				frag.projects[r.source] = scene.ExternalProject{
					Name: entry.Name,
					Path: rebasePath(entry.Path, srcDir),
				}
			}
		}
	}
	for _, r := range frag.rows {
		below := r.managed || r.obj.Kind == usertypes.KindPrefabInstance
		for _, childID := range r.children {
			child := frag.index[childID]
			child.parent = r.id
			child.managed = below
		}
	}
	for _, root := range blob.Roots {
		id, err := ulid.Parse(root)
		if err != nil {
			return nil, oops.With("root", root).Wrap(serialization.ErrBadWireData)
		}
		frag.roots = append(frag.roots, id)
	}
	return frag, nil
}

// rebasePath resolves a path carried relative to the source document
// against the source document's directory.
func rebasePath(path, srcDir string) string {
	if path == "" || srcDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(srcDir, path)
}

// applyFragment merges the fragment onto the live graph and returns the
// live ids of the merged rows. Without overwrite only missing objects are
// inserted; with it, existing mirrors are renamed, rewritten, reordered
// and pruned to match the fragment exactly.
func applyFragment(c *edit.Context, frag *fragment, overwrite bool) ([]ulid.ULID, error) {
	p := c.Project()

	for _, r := range frag.rows {
		if r.managed {
			continue
		}
		live, ok := p.Object(r.id)
		if ok && live.Kind != r.obj.Kind {
			if _, err := c.RemoveSubtree(r.id); err != nil {
				return nil, err
			}
			ok = false
		}
		if !ok {
			fresh := r.obj
			fresh.Extref = &scene.ExternalReference{SourceProjectID: r.source}
			c.RemapRefs(fresh, frag.identity)
			usertypes.ResetVolatile(fresh)
			if err := c.InsertObject(fresh, r.parent, -1); err != nil {
				return nil, err
			}
			continue
		}
		if !overwrite {
			continue
		}
		if _, err := c.RenameObject(r.id, r.obj.Name); err != nil {
			return nil, err
		}
		if err := rewriteValues(c, r, live, frag.identity); err != nil {
			return nil, err
		}
	}

	// Reordering runs before pruning so every surviving mirror already
	// hangs under its fragment parent when stale siblings go.
	if overwrite {
		for _, r := range frag.rows {
			if r.managed || r.obj.Kind == usertypes.KindPrefabInstance {
				continue
			}
			for i, childID := range r.children {
				if _, err := c.PlaceObject(childID, r.id, i); err != nil {
					return nil, err
				}
			}
		}
		for _, root := range liveSourceRoots(p, frag.sourceID) {
			for _, member := range p.SubtreeIDs(root) {
				if !p.Contains(member) {
					continue
				}
				obj, _ := p.Object(member)
				if obj.Extref == nil {
					continue
				}
				if _, have := frag.index[member]; have {
					continue
				}
				if _, err := c.RemoveSubtree(member); err != nil {
					return nil, err
				}
			}
		}
	}

	want := make(map[string]struct{}, len(frag.links))
	for _, l := range frag.links {
		if frag.isManaged(l.Start.Object) || frag.isManaged(l.End.Object) {
			continue
		}
		want[l.End.Key()] = struct{}{}
		if _, err := c.PutLink(*l); err != nil {
			return nil, err
		}
	}
	members := frag.liveMembers(p)
	if overwrite {
		var stale []scene.PropertyRef
		for _, id := range members {
			for _, l := range p.Links().ToObject(id) {
				if _, keep := want[l.End.Key()]; keep {
					continue
				}
				stale = append(stale, scene.NewPropertyRef(l.End.Object, l.End.Path...))
			}
		}
		for _, end := range stale {
			if err := c.RemoveLink(end); err != nil {
				return nil, err
			}
		}
	}

	if err := mergeProjectRows(c, frag, overwrite); err != nil {
		return nil, err
	}
	return members, nil
}

// rewriteValues aligns an embedded mirror's slots with the fragment row,
// keeping live volatile values in place.
func rewriteValues(c *edit.Context, r *mergeRow, live *scene.EditorObject, identity map[ulid.ULID]ulid.ULID) error {
	want := r.obj
	c.RemapRefs(want, identity)
	for _, slot := range want.Properties {
		cur, ok := live.Property(slot.Name())
		if !ok {
			continue
		}
		usertypes.KeepVolatile(cur, slot)
		if value.Equal(cur.Value(), slot.Value()) {
			continue
		}
		if _, err := c.WriteProperty(scene.NewPropertyRef(live.ID, slot.Name()), slot.Value()); err != nil {
			return err
		}
	}
	return nil
}

// mergeProjectRows registers the source rows the fragment depends on. An
// existing row keeps its resolved path; overwrite refreshes its display
// name from the fragment.
func mergeProjectRows(c *edit.Context, frag *fragment, overwrite bool) error {
	p := c.Project()
	ids := make([]string, 0, len(frag.projects))
	for src := range frag.projects {
		ids = append(ids, src)
	}
	sort.Strings(ids)
	for _, src := range ids {
		entry := frag.projects[src]
		current, ok := p.ExternalProject(src)
		if !ok {
			if _, err := c.SetExternalProject(src, entry); err != nil {
				return err
			}
			continue
		}
		if overwrite && entry.Name != "" && current.Name != entry.Name {
			if _, err := c.SetExternalProject(src, scene.ExternalProject{Name: entry.Name, Path: current.Path}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fragment) isManaged(id ulid.ULID) bool {
	r, ok := f.index[id]
	return ok && r.managed
}

// liveMembers returns the live ids of the fragment's unmanaged rows, in
// fragment order.
func (f *fragment) liveMembers(p *scene.Project) []ulid.ULID {
	out := make([]ulid.ULID, 0, len(f.rows))
	for _, r := range f.rows {
		if r.managed || !p.Contains(r.id) {
			continue
		}
		out = append(out, r.id)
	}
	return out
}

// liveSourceRoots returns the top-level external-reference objects imported
// from one source project, in id order.
func liveSourceRoots(p *scene.Project, sourceID string) []ulid.ULID {
	var out []ulid.ULID
	for _, id := range p.InstanceIDs() {
		obj, ok := p.Object(id)
		if !ok || obj.Extref == nil || obj.Extref.SourceProjectID != sourceID {
			continue
		}
		if core.NilID(obj.Parent) {
			out = append(out, id)
		}
	}
	return out
}

// contentHash fingerprints an object's importable content: kind, name,
// child list and property tree, with the extref marker and volatile values
// normalized out. PrefabInstance children are excluded because propagation
// owns them on both sides of the import.
func contentHash(obj *scene.EditorObject, children []ulid.ULID) uint64 {
	norm := obj.Clone()
	norm.Extref = nil
	usertypes.ResetVolatile(norm)
	if norm.Kind == usertypes.KindPrefabInstance {
		norm.Children = nil
	} else {
		norm.Children = append([]ulid.ULID(nil), children...)
	}
	wire := serialization.EncodeObject(norm, nil)
	// Wire rows hold only plain values, so marshaling cannot fail.
	data, _ := json.Marshal(wire)
	return xxhash.Sum64(data)
}
