// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package scene

import (
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
)

// DiagLevel grades a diagnostic. Diagnostics never roll a command back;
// they annotate the graph the user asked for with why it is currently
// broken.
type DiagLevel uint8

const (
	LevelInformation DiagLevel = iota + 1
	LevelWarning
	LevelError
)

func (l DiagLevel) String() string {
	switch l {
	case LevelInformation:
		return "INFORMATION"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DiagCategory names the subsystem that produced a diagnostic, so a
// producer can clear exactly its own items before re-recording.
type DiagCategory uint8

const (
	CategoryGeneral DiagCategory = iota + 1
	CategoryFilesystem
	CategoryParsing
	CategoryLinks
	CategoryExternalReference
)

func (c DiagCategory) String() string {
	switch c {
	case CategoryGeneral:
		return "general"
	case CategoryFilesystem:
		return "filesystem"
	case CategoryParsing:
		return "parsing"
	case CategoryLinks:
		return "links"
	case CategoryExternalReference:
		return "external_reference"
	default:
		return "unknown"
	}
}

// Diagnostic is one leveled item attached to an object or a property.
type Diagnostic struct {
	Level    DiagLevel
	Category DiagCategory
	Object   ulid.ULID
	Path     []string // empty = object-level
	Message  string
}

func diagKey(object ulid.ULID, path []string) string {
	return object.String() + ":" + strings.Join(path, ".")
}

// Diagnostics stores at most one item per (object, path) slot. Mutation
// goes through the editing context so observers see diagnostics changes in
// the same batches as graph changes.
type Diagnostics struct {
	items map[string]Diagnostic
}

// NewDiagnostics creates an empty store.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{items: make(map[string]Diagnostic)}
}

// Set records an item, replacing any previous item on the same slot.
// It reports whether the stored content changed.
func (d *Diagnostics) Set(item Diagnostic) bool {
	key := diagKey(item.Object, item.Path)
	prev, had := d.items[key]
	if had && prev.Level == item.Level && prev.Category == item.Category && prev.Message == item.Message {
		return false
	}
	d.items[key] = item
	return true
}

// Clear removes the item on one slot, reporting whether one existed.
func (d *Diagnostics) Clear(object ulid.ULID, path []string) bool {
	key := diagKey(object, path)
	if _, had := d.items[key]; !had {
		return false
	}
	delete(d.items, key)
	return true
}

// ClearObject removes every item attached to the object or its properties.
// It returns the cleared items.
func (d *Diagnostics) ClearObject(object ulid.ULID) []Diagnostic {
	var cleared []Diagnostic
	prefix := object.String() + ":"
	for key, item := range d.items {
		if strings.HasPrefix(key, prefix) {
			cleared = append(cleared, item)
			delete(d.items, key)
		}
	}
	sortDiagnostics(cleared)
	return cleared
}

// ClearCategory removes the object's items of one category only.
func (d *Diagnostics) ClearCategory(object ulid.ULID, category DiagCategory) []Diagnostic {
	var cleared []Diagnostic
	prefix := object.String() + ":"
	for key, item := range d.items {
		if strings.HasPrefix(key, prefix) && item.Category == category {
			cleared = append(cleared, item)
			delete(d.items, key)
		}
	}
	sortDiagnostics(cleared)
	return cleared
}

// Get returns the item on one slot.
func (d *Diagnostics) Get(object ulid.ULID, path []string) (Diagnostic, bool) {
	item, ok := d.items[diagKey(object, path)]
	return item, ok
}

// ForObject returns every item attached to the object, sorted by path.
func (d *Diagnostics) ForObject(object ulid.ULID) []Diagnostic {
	var out []Diagnostic
	prefix := object.String() + ":"
	for key, item := range d.items {
		if strings.HasPrefix(key, prefix) {
			out = append(out, item)
		}
	}
	sortDiagnostics(out)
	return out
}

// All returns every item, sorted by object then path.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(d.items))
	for _, item := range d.items {
		out = append(out, item)
	}
	sortDiagnostics(out)
	return out
}

// MaxLevel returns the highest level present, or 0 for an empty store.
func (d *Diagnostics) MaxLevel() DiagLevel {
	var max DiagLevel
	for _, item := range d.items {
		if item.Level > max {
			max = item.Level
		}
	}
	return max
}

// Count returns the number of stored items.
func (d *Diagnostics) Count() int {
	return len(d.items)
}

func sortDiagnostics(items []Diagnostic) {
	sort.Slice(items, func(i, j int) bool {
		return diagKey(items[i].Object, items[i].Path) < diagKey(items[j].Object, items[j].Path)
	})
}
