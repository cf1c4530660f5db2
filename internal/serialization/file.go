// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package serialization

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

const (
	// FileVersion is the current project file format.
	FileVersion = 1

	// FileExtension is the project file suffix.
	FileExtension = ".sfp"
)

// ErrUnknownFileVersion indicates a project file written by a format
// version this build does not read. Migration is an external step.
var ErrUnknownFileVersion = errors.New("unknown project file version")

// ProjectFile is the persisted document: identity, the full object arena
// with scenegraph order, links, the external-project table and the settings
// object id.
type ProjectFile struct {
	FileVersion      int                            `json:"fileVersion"`
	ProjectID        string                         `json:"projectId"`
	ProjectName      string                         `json:"projectName"`
	SettingsID       string                         `json:"settingsId,omitempty"`
	TopLevel         []string                       `json:"topLevel"`
	Objects          []WireObject                   `json:"objects"`
	Links            []WireLink                     `json:"links,omitempty"`
	ExternalProjects map[string]WireExternalProject `json:"externalProjects,omitempty"`
}

// EncodeProject writes the whole document in wire form. Objects follow
// top-level order with preorder subtrees, so decoding meets parents first.
func EncodeProject(p *scene.Project) *ProjectFile {
	f := &ProjectFile{
		FileVersion: FileVersion,
		ProjectID:   p.ID,
		ProjectName: p.Name,
	}
	if _, ok := p.Settings(); ok {
		f.SettingsID = p.SettingsID.String()
	}
	for _, id := range p.TopLevel() {
		f.TopLevel = append(f.TopLevel, id.String())
		for _, member := range p.SubtreeIDs(id) {
			obj, _ := p.Object(member)
			f.Objects = append(f.Objects, EncodeObject(obj, nil))
		}
	}
	for _, l := range p.Links().All() {
		f.Links = append(f.Links, encodeLink(l))
	}
	for _, sourceID := range p.ExternalProjectIDs() {
		entry, _ := p.ExternalProject(sourceID)
		if f.ExternalProjects == nil {
			f.ExternalProjects = make(map[string]WireExternalProject)
		}
		f.ExternalProjects[sourceID] = WireExternalProject{Name: entry.Name, Path: entry.Path}
	}
	return f
}

// SaveProject renders the document as an indented JSON project file.
func SaveProject(p *scene.Project) ([]byte, error) {
	data, err := json.MarshalIndent(EncodeProject(p), "", "  ")
	if err != nil {
		return nil, oops.Wrapf(err, "marshal project %s", p.ID)
	}
	return append(data, '\n'), nil
}

// LoadProject validates and decodes a project file into a fresh document.
func LoadProject(data []byte) (*scene.Project, error) {
	var probe struct {
		FileVersion int `json:"fileVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, oops.Wrapf(err, "parse project file")
	}
	if probe.FileVersion != FileVersion {
		return nil, oops.With("file_version", probe.FileVersion).Wrap(ErrUnknownFileVersion)
	}
	if err := ValidateProjectData(data); err != nil {
		return nil, err
	}

	var f ProjectFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, oops.Wrapf(err, "parse project file")
	}
	return decodeProjectFile(&f)
}

func decodeProjectFile(f *ProjectFile) (*scene.Project, error) {
	p := scene.NewProject(f.ProjectID, f.ProjectName)

	wires := make(map[string]*WireObject, len(f.Objects))
	decoded := make(map[string]*scene.EditorObject, len(f.Objects))
	for i := range f.Objects {
		obj, err := DecodeObject(&f.Objects[i])
		if err != nil {
			return nil, err
		}
		if err := p.Add(obj); err != nil {
			return nil, err
		}
		wires[f.Objects[i].ID] = &f.Objects[i]
		decoded[f.Objects[i].ID] = obj
	}

	attached := 0
	for _, rootText := range f.TopLevel {
		root, ok := decoded[rootText]
		if !ok {
			return nil, oops.With("object_id", rootText).Wrap(ErrBadWireData)
		}
		n, err := attachRecursive(p, root, ulid.ULID{}, wires, decoded)
		if err != nil {
			return nil, err
		}
		attached += n
	}
	if attached != len(decoded) {
		return nil, oops.
			With("objects", len(decoded)).
			With("attached", attached).
			Wrap(ErrBadWireData)
	}

	for i := range f.Links {
		l, err := decodeLink(&f.Links[i])
		if err != nil {
			return nil, err
		}
		if err := p.Links().Add(l); err != nil {
			return nil, err
		}
	}

	for sourceID, entry := range f.ExternalProjects {
		p.SetExternalProject(sourceID, scene.ExternalProject{Name: entry.Name, Path: entry.Path})
	}

	if f.SettingsID != "" {
		settingsID, err := ulid.Parse(f.SettingsID)
		if err != nil {
			return nil, oops.With("settings_id", f.SettingsID).Wrap(ErrBadWireData)
		}
		settings, ok := p.Object(settingsID)
		if !ok || settings.Kind != usertypes.KindProjectSettings {
			return nil, oops.With("settings_id", f.SettingsID).Wrap(ErrBadWireData)
		}
		p.SettingsID = settingsID
	}
	return p, nil
}

func attachRecursive(p *scene.Project, obj *scene.EditorObject, parent ulid.ULID, wires map[string]*WireObject, decoded map[string]*scene.EditorObject) (int, error) {
	if err := p.Attach(obj.ID, parent, -1); err != nil {
		return 0, err
	}
	attached := 1
	wire, ok := wires[obj.ID.String()]
	if !ok {
		return 0, oops.With("object_id", obj.ID.String()).Wrap(ErrBadWireData)
	}
	for _, childText := range wire.Children {
		child, found := decoded[childText]
		if !found {
			return 0, oops.With("object_id", childText).Wrap(ErrBadWireData)
		}
		n, err := attachRecursive(p, child, obj.ID, wires, decoded)
		if err != nil {
			return 0, err
		}
		attached += n
	}
	return attached, nil
}

// ReadProjectFile loads a project from disk, remembering its path.
func ReadProjectFile(path string) (*scene.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "read project file %s", path)
	}
	p, err := LoadProject(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	p.Path = path
	return p, nil
}

// WriteProjectFile saves a project to disk.
func WriteProjectFile(path string, p *scene.Project) error {
	data, err := SaveProject(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return oops.Wrapf(err, "write project file %s", path)
	}
	return nil
}

// RerootURIs rewrites every relative URI property and external-project
// path from one document directory to another. Absolute paths and URIs
// that do not resolve under the old root pass through unchanged. Returns
// the number of rewritten entries. Save-as runs this before writing.
func RerootURIs(p *scene.Project, oldDir, newDir string) int {
	if oldDir == newDir {
		return 0
	}
	rewritten := 0
	for _, obj := range p.Instances() {
		obj.WalkProperties(func(path []string, prop *value.Property) bool {
			if !prop.Spec().IsURI() {
				return true
			}
			current, ok := prop.AsString()
			if !ok || current == "" || filepath.IsAbs(current) {
				return true
			}
			if next, ok := rerootPath(current, oldDir, newDir); ok && next != current {
				if err := prop.SetValue(value.NewString(next)); err == nil {
					rewritten++
				}
			}
			return true
		})
	}
	for _, sourceID := range p.ExternalProjectIDs() {
		entry, _ := p.ExternalProject(sourceID)
		if entry.Path == "" || filepath.IsAbs(entry.Path) {
			continue
		}
		if next, ok := rerootPath(entry.Path, oldDir, newDir); ok && next != entry.Path {
			entry.Path = next
			p.SetExternalProject(sourceID, entry)
			rewritten++
		}
	}
	return rewritten
}

func rerootPath(rel, oldDir, newDir string) (string, bool) {
	next, err := filepath.Rel(newDir, filepath.Join(oldDir, rel))
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(next), true
}

// SanitizeURI normalizes a user-entered path value: the file scheme is
// stripped and separators collapse to forward slashes.
func SanitizeURI(raw string) string {
	s := strings.TrimPrefix(raw, "file://")
	s = strings.ReplaceAll(s, "\\", "/")
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}
	return s
}
