// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package proppath parses textual property-path expressions and resolves
// them against a project. An expression names an object followed by a
// descent through its property tree, in the same display form the engine
// renders paths: `duck.translation.x`, `gallery.materials[2].uniforms`.
// The object segment is a bare name, a quoted name, or an object id.
package proppath

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/scene"
)

// ErrAmbiguousObject is returned when a bare object name matches more
// than one object. Addressing by id always stays unambiguous.
var ErrAmbiguousObject = errors.New("object name is ambiguous")

// pathLexer tokenizes expressions. A single Name rule covers identifiers,
// ids and decimal indexes; the grammar position decides which one a token
// is.
var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Name", Pattern: `\w+`},
	{Name: "Punct", Pattern: `[.\[\]]`},
})

// Expr is one parsed expression: the object segment plus the property
// descent.
//
// Grammar: (name | string) ( "." (name | string) | "[" index "]" )*
type Expr struct {
	Pos    lexer.Position `parser:""`
	Object string         `parser:"(@Name | @String)"`
	Steps  []Step         `parser:"@@*"`
}

// Step is one descent: a named child or a bracketed array index.
type Step struct {
	Name  string `parser:"'.' (@Name | @String)"`
	Index string `parser:"| '[' @Name ']'"`
}

var parser *participle.Parser[Expr]

func init() {
	var err error
	parser, err = participle.Build[Expr](
		participle.Lexer(pathLexer),
		participle.Unquote("String"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to build property path parser: %v", err))
	}
}

// Parse parses one expression into its object segment and steps.
// Returns a descriptive error with position info on failure.
func Parse(input string) (*Expr, error) {
	expr, err := parser.ParseString("", input)
	if err != nil {
		return nil, oops.With("expression", input).Wrapf(err, "parsing property path")
	}
	if err := validate(expr); err != nil {
		return nil, oops.With("expression", input).Wrap(err)
	}
	return expr, nil
}

func validate(e *Expr) error {
	if e.Object == "" {
		return errors.New("empty object segment")
	}
	for _, s := range e.Steps {
		if s.Index != "" {
			if !allDigits(s.Index) {
				return fmt.Errorf("array index %q is not a number", s.Index)
			}
			continue
		}
		if s.Name == "" {
			return errors.New("empty property segment")
		}
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Path flattens the steps into property-path segments. Index steps are
// normalized to canonical decimal so resolved paths compare equal to
// engine-built ones.
func (e *Expr) Path() []string {
	path := make([]string, 0, len(e.Steps))
	for _, s := range e.Steps {
		if s.Index != "" {
			n, _ := strconv.Atoi(s.Index)
			path = append(path, strconv.Itoa(n))
			continue
		}
		path = append(path, s.Name)
	}
	return path
}

// Resolve parses the expression and locates the object it names. A
// segment that parses as a live object id wins over name lookup; a bare
// name shared by several objects is refused. The property path travels
// unresolved so callers can address slots a pending edit will create.
func Resolve(p *scene.Project, input string) (scene.PropertyRef, error) {
	expr, err := Parse(input)
	if err != nil {
		return scene.PropertyRef{}, err
	}
	ref := scene.PropertyRef{Path: expr.Path()}
	if id, err := ulid.Parse(expr.Object); err == nil && p.Contains(id) {
		ref.Object = id
		return ref, nil
	}
	var matches []ulid.ULID
	for _, obj := range p.Instances() {
		if obj.Name == expr.Object {
			matches = append(matches, obj.ID)
		}
	}
	switch len(matches) {
	case 0:
		return scene.PropertyRef{}, oops.With("name", expr.Object).Wrap(scene.ErrObjectNotFound)
	case 1:
		ref.Object = matches[0]
		return ref, nil
	default:
		return scene.PropertyRef{}, oops.With("name", expr.Object).With("matches", len(matches)).Wrap(ErrAmbiguousObject)
	}
}
