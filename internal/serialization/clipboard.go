// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package serialization

import (
	"encoding/json"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/scene"
)

// ClipboardVersion is the current clipboard fragment format.
const ClipboardVersion = 1

// ErrUnknownBlobVersion indicates a clipboard fragment written by an
// incompatible format version.
var ErrUnknownBlobVersion = errors.New("unknown clipboard format version")

// Clipboard is a serialized document fragment: the copied objects with
// their internal structure and links, plus enough source information for
// external-reference pastes.
type Clipboard struct {
	Version           int                            `json:"version"`
	SourceProjectID   string                         `json:"sourceProjectId"`
	SourceProjectName string                         `json:"sourceProjectName,omitempty"`
	SourceProjectPath string                         `json:"sourceProjectPath,omitempty"`
	Roots             []string                       `json:"roots"`
	Objects           []WireObject                   `json:"objects"`
	Links             []WireLink                     `json:"links,omitempty"`
	ExternalProjects  map[string]WireExternalProject `json:"externalProjects,omitempty"`
}

// EncodeClipboard serializes the given objects of a project into a
// fragment. The id set is taken as already closed over subtrees; links are
// included when both endpoints stay inside the set, and the source rows of
// copied external-reference objects travel along for nested imports.
func EncodeClipboard(p *scene.Project, ids []ulid.ULID) (*Clipboard, error) {
	set := make(map[ulid.ULID]struct{}, len(ids))
	for _, id := range ids {
		if !p.Contains(id) {
			return nil, oops.With("object_id", id.String()).Wrap(scene.ErrObjectNotFound)
		}
		set[id] = struct{}{}
	}
	inSet := func(id ulid.ULID) bool {
		_, ok := set[id]
		return ok
	}

	c := &Clipboard{
		Version:           ClipboardVersion,
		SourceProjectID:   p.ID,
		SourceProjectName: p.Name,
		SourceProjectPath: p.Path,
	}

	// Roots keep the caller's order; objects follow preorder per root so a
	// decoder meets parents before children.
	seen := make(map[ulid.ULID]struct{}, len(ids))
	for _, id := range ids {
		obj, _ := p.Object(id)
		if !core.NilID(obj.Parent) && inSet(obj.Parent) {
			continue
		}
		c.Roots = append(c.Roots, id.String())
		for _, member := range p.SubtreeIDs(id) {
			if !inSet(member) {
				continue
			}
			if _, dup := seen[member]; dup {
				continue
			}
			seen[member] = struct{}{}
			memberObj, _ := p.Object(member)
			c.Objects = append(c.Objects, EncodeObject(memberObj, inSet))
			if memberObj.Extref != nil {
				if entry, ok := p.ExternalProject(memberObj.Extref.SourceProjectID); ok {
					if c.ExternalProjects == nil {
						c.ExternalProjects = make(map[string]WireExternalProject)
					}
					c.ExternalProjects[memberObj.Extref.SourceProjectID] = WireExternalProject{
						Name: entry.Name,
						Path: entry.Path,
					}
				}
			}
		}
	}

	for _, l := range p.Links().All() {
		if inSet(l.Start.Object) && inSet(l.End.Object) {
			c.Links = append(c.Links, encodeLink(l))
		}
	}
	return c, nil
}

// Marshal renders the fragment as a JSON blob.
func (c *Clipboard) Marshal() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, oops.Wrapf(err, "marshal clipboard")
	}
	return data, nil
}

// DecodeClipboard parses a JSON blob back into a fragment and checks its
// internal consistency.
func DecodeClipboard(data []byte) (*Clipboard, error) {
	var c Clipboard
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, oops.Wrapf(err, "parse clipboard")
	}
	if c.Version != ClipboardVersion {
		return nil, oops.With("version", c.Version).Wrap(ErrUnknownBlobVersion)
	}
	byID := make(map[string]struct{}, len(c.Objects))
	for i := range c.Objects {
		byID[c.Objects[i].ID] = struct{}{}
	}
	for _, root := range c.Roots {
		if _, ok := byID[root]; !ok {
			return nil, oops.With("root", root).Wrap(ErrBadWireData)
		}
	}
	for i := range c.Objects {
		for _, child := range c.Objects[i].Children {
			if _, ok := byID[child]; !ok {
				return nil, oops.With("child", child).Wrap(ErrBadWireData)
			}
		}
	}
	return &c, nil
}

// Instantiate decodes every object of the fragment into detached editor
// objects keyed by their wire id, preserving the fragment's ids.
func (c *Clipboard) Instantiate() (map[string]*scene.EditorObject, error) {
	out := make(map[string]*scene.EditorObject, len(c.Objects))
	for i := range c.Objects {
		obj, err := DecodeObject(&c.Objects[i])
		if err != nil {
			return nil, err
		}
		out[c.Objects[i].ID] = obj
	}
	return out, nil
}

// DecodedLinks returns the fragment's links as scene links.
func (c *Clipboard) DecodedLinks() ([]*scene.Link, error) {
	out := make([]*scene.Link, 0, len(c.Links))
	for i := range c.Links {
		l, err := decodeLink(&c.Links[i])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
