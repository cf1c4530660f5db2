// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package extref

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/sceneforge/sceneforge/internal/core"
	"github.com/sceneforge/sceneforge/internal/edit"
	"github.com/sceneforge/sceneforge/internal/query"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/usertypes"
)

// Loader resolves a source document path to a loaded project.
type Loader interface {
	Load(ctx context.Context, path string) (*scene.Project, error)
}

// FileLoader reads source documents from disk, retrying briefly so a save
// in progress by another editor does not fail the whole update pass.
type FileLoader struct {
	MaxRetries uint64        // extra attempts after the first, default 3
	Base       time.Duration // first backoff interval, default 100ms
}

func (l FileLoader) Load(ctx context.Context, path string) (*scene.Project, error) {
	retries := l.MaxRetries
	if retries == 0 {
		retries = 3
	}
	base := l.Base
	if base == 0 {
		base = 100 * time.Millisecond
	}
	var p *scene.Project
	backoff := retry.WithMaxRetries(retries, retry.NewFibonacci(base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		loaded, err := serialization.ReadProjectFile(path)
		if err != nil {
			// A half-written file parses as garbage and a rename-on-save
			// briefly leaves no file at all, so every failure is worth
			// the remaining attempts.
			return retry.RetryableError(err)
		}
		p = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update re-resolves every imported source document and re-runs the merge
// against its current content. Changed objects are rewritten in place,
// objects gone from their source are removed, and new dependencies of the
// imported subtrees are pulled in. A source that cannot be read flags its
// imported roots with diagnostics and the pass moves on; identity conflicts
// and document cycles abort with an ExtrefError instead, because the
// document can no longer say which content is true.
func Update(ctx context.Context, c *edit.Context, loader Loader) error {
	p := c.Project()
	baseDir := ""
	if p.Path != "" {
		baseDir = filepath.Dir(p.Path)
	}

	for _, srcID := range topLevelSources(p) {
		roots := liveSourceRoots(p, srcID)
		entry, ok := p.ExternalProject(srcID)
		if !ok || entry.Path == "" {
			flagSourceError(c, roots, "no file path recorded for source project "+srcID)
			continue
		}
		path := rebasePath(entry.Path, baseDir)
		loaded, err := loader.Load(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return oops.With("source_project_id", srcID).Wrap(ctx.Err())
			}
			flagSourceError(c, roots, "source document unreadable: "+err.Error())
			continue
		}
		if loaded.ID != srcID {
			flagSourceError(c, roots, "path "+path+" resolves to project "+loaded.ID+", not "+srcID)
			continue
		}
		if loaded.ID == p.ID {
			return &scene.ExtrefError{SourceProjectID: srcID, Reason: "source document is this document"}
		}
		if _, back := loaded.ExternalProject(p.ID); back {
			return &scene.ExtrefError{SourceProjectID: srcID, Reason: "reference cycle between documents"}
		}

		var present []ulid.ULID
		for _, root := range roots {
			if loaded.Contains(root) {
				present = append(present, root)
			}
		}
		blob, err := serialization.EncodeClipboard(loaded, sourceClosure(loaded, present))
		if err != nil {
			return err
		}
		frag, err := buildFragment(blob)
		if err != nil {
			return err
		}
		if err := checkIdentity(p, frag, false); err != nil {
			return err
		}
		members, err := applyFragment(c, frag, true)
		if err != nil {
			return err
		}
		c.RevalidateLinks(members...)
		for _, root := range roots {
			if p.Contains(root) {
				c.ClearDiagnosticCategory(root, scene.CategoryExternalReference)
			}
		}
	}
	return pruneUnusedSources(c)
}

// sourceClosure expands the imported roots to their subtrees in the source
// document, chasing referenced objects to a fixed point so new dependencies
// travel with the update.
func sourceClosure(src *scene.Project, roots []ulid.ULID) []ulid.ULID {
	seen := make(map[ulid.ULID]struct{})
	var closure []ulid.ULID
	addSubtree := func(root ulid.ULID) {
		for _, member := range src.SubtreeIDs(root) {
			obj, ok := src.Object(member)
			if !ok || obj.Kind == usertypes.KindProjectSettings {
				continue
			}
			if _, dup := seen[member]; dup {
				continue
			}
			seen[member] = struct{}{}
			closure = append(closure, member)
		}
	}
	for _, id := range roots {
		addSubtree(id)
	}
	for {
		before := len(closure)
		for _, ref := range query.FindAllReferencesFrom(src, closure) {
			if _, have := seen[ref.To]; have {
				continue
			}
			if src.Contains(ref.To) {
				addSubtree(ref.To)
			}
		}
		if len(closure) == before {
			return closure
		}
	}
}

// topLevelSources returns every source project with at least one imported
// top-level root, in id order. Sources reached only through another
// import's subtree are refreshed by their importer's merge.
func topLevelSources(p *scene.Project) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range p.InstanceIDs() {
		obj, ok := p.Object(id)
		if !ok || obj.Extref == nil || !core.NilID(obj.Parent) {
			continue
		}
		src := obj.Extref.SourceProjectID
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

func flagSourceError(c *edit.Context, roots []ulid.ULID, msg string) {
	for _, root := range roots {
		c.PutDiagnostic(scene.Diagnostic{
			Level:    scene.LevelError,
			Category: scene.CategoryExternalReference,
			Object:   root,
			Message:  msg,
		})
	}
}

// pruneUnusedSources drops external-project rows no imported object uses
// anymore.
func pruneUnusedSources(c *edit.Context) error {
	p := c.Project()
	used := make(map[string]struct{})
	for _, id := range p.InstanceIDs() {
		if obj, ok := p.Object(id); ok && obj.Extref != nil {
			used[obj.Extref.SourceProjectID] = struct{}{}
		}
	}
	for _, src := range p.ExternalProjectIDs() {
		if _, have := used[src]; have {
			continue
		}
		if _, err := c.RemoveExternalProject(src); err != nil {
			return err
		}
	}
	return nil
}
