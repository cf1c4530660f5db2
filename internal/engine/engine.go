// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package engine is the type oracle the document core consults: it
// extracts script interfaces on a sandboxed Lua runtime, scans shader
// uniform declarations, decides link-type compatibility through an explicit
// coercion table, and gates feature levels against engine versions. It
// never touches the object graph.
package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/sceneforge/sceneforge/internal/value"
)

// ErrScriptParse indicates Lua code that failed to load or execute.
var ErrScriptParse = errors.New("script parse failed")

// ErrMissingFunction indicates a script without a required entry point.
var ErrMissingFunction = errors.New("required function missing")

// ErrBadDeclaration indicates an interface declaration outside the closed
// type grammar.
var ErrBadDeclaration = errors.New("invalid interface declaration")

// ErrNotAModule indicates a module file that does not return a table.
var ErrNotAModule = errors.New("module must return a table")

// Engine is the oracle instance. It is stateless apart from the Lua state
// factory and safe for reuse across documents.
type Engine struct {
	factory *StateFactory
}

// NewEngine creates an oracle with a sandboxed state factory.
func NewEngine() *Engine {
	return &Engine{factory: NewStateFactory()}
}

// ParseScript extracts the interface of a scene script: it runs the chunk
// in a sandbox, requires interface() and run() functions, calls
// interface(IN, OUT) and reads the declarations both tables accumulated.
func (e *Engine) ParseScript(ctx context.Context, source string) (*ScriptInterface, error) {
	L, modules, err := e.prepare(ctx, source)
	if err != nil {
		return nil, err
	}
	defer L.Close()

	ifaceFn, err := requireFunction(L, "interface")
	if err != nil {
		return nil, err
	}
	if _, err := requireFunction(L, "run"); err != nil {
		return nil, err
	}

	in := L.NewTable()
	out := L.NewTable()
	if err := L.CallByParam(lua.P{Fn: ifaceFn, NRet: 0, Protect: true}, in, out); err != nil {
		return nil, oops.With("reason", err.Error()).Wrap(ErrScriptParse)
	}

	inputs, err := readDecls(in)
	if err != nil {
		return nil, err
	}
	outputs, err := readDecls(out)
	if err != nil {
		return nil, err
	}
	return &ScriptInterface{Inputs: inputs, Outputs: outputs, Modules: *modules}, nil
}

// ParseInterface extracts the declarations of an interface file. Interface
// files declare one INOUT table and have no run().
func (e *Engine) ParseInterface(ctx context.Context, source string) (*ScriptInterface, error) {
	L, modules, err := e.prepare(ctx, source)
	if err != nil {
		return nil, err
	}
	defer L.Close()

	ifaceFn, err := requireFunction(L, "interface")
	if err != nil {
		return nil, err
	}

	inout := L.NewTable()
	if err := L.CallByParam(lua.P{Fn: ifaceFn, NRet: 0, Protect: true}, inout); err != nil {
		return nil, oops.With("reason", err.Error()).Wrap(ErrScriptParse)
	}

	inputs, err := readDecls(inout)
	if err != nil {
		return nil, err
	}
	return &ScriptInterface{Inputs: inputs, Modules: *modules}, nil
}

// ParseModule checks that a chunk is a loadable module: it must run in the
// sandbox and return a table.
func (e *Engine) ParseModule(ctx context.Context, source string) error {
	L, err := e.factory.NewState(ctx)
	if err != nil {
		return err
	}
	defer L.Close()

	fn, err := L.LoadString(source)
	if err != nil {
		return oops.With("reason", err.Error()).Wrap(ErrScriptParse)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return oops.With("reason", err.Error()).Wrap(ErrScriptParse)
	}
	if _, ok := L.Get(-1).(*lua.LTable); !ok {
		return ErrNotAModule
	}
	return nil
}

// prepare builds a sandboxed state with the declaration globals installed
// and executes the chunk.
func (e *Engine) prepare(ctx context.Context, source string) (*lua.LState, *[]string, error) {
	L, err := e.factory.NewState(ctx)
	if err != nil {
		return nil, nil, err
	}

	modules := &[]string{}
	L.SetGlobal("modules", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			name := L.CheckString(i)
			*modules = append(*modules, name)
			// Declared modules resolve to empty tables during extraction;
			// only the logic runtime binds real module content.
			L.SetGlobal(name, L.NewTable())
		}
		return 0
	}))
	L.SetGlobal("Type", newTypeTable(L))

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, nil, oops.With("reason", err.Error()).Wrap(ErrScriptParse)
	}
	return L, modules, nil
}

func requireFunction(L *lua.LState, name string) (lua.LValue, error) {
	fn := L.GetGlobal(name)
	if _, ok := fn.(*lua.LFunction); !ok {
		return nil, oops.With("function", name).Wrap(ErrMissingFunction)
	}
	return fn, nil
}

// leafTypes maps Type constructors to value kinds.
var leafTypes = map[string]value.Kind{
	"Bool":   value.KindBool,
	"Int32":  value.KindInt,
	"Int64":  value.KindInt64,
	"Float":  value.KindDouble,
	"String": value.KindString,
	"Vec2f":  value.KindVec2f,
	"Vec3f":  value.KindVec3f,
	"Vec4f":  value.KindVec4f,
	"Vec2i":  value.KindVec2i,
	"Vec3i":  value.KindVec3i,
	"Vec4i":  value.KindVec4i,
}

// newTypeTable builds the Type global scripts declare against. Every
// constructor returns a descriptor table later read back by readDecls.
func newTypeTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	for name, kind := range leafTypes {
		kindName := kind.String()
		t.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			d := L.NewTable()
			d.RawSetString("kind", lua.LString(kindName))
			L.Push(d)
			return 1
		}))
	}
	t.RawSetString("Struct", L.NewFunction(func(L *lua.LState) int {
		fields := L.CheckTable(2)
		d := L.NewTable()
		d.RawSetString("kind", lua.LString("Struct"))
		d.RawSetString("fields", fields)
		L.Push(d)
		return 1
	}))
	t.RawSetString("Array", L.NewFunction(func(L *lua.LState) int {
		size := L.CheckInt(2)
		elem := L.CheckTable(3)
		d := L.NewTable()
		d.RawSetString("kind", lua.LString("Array"))
		d.RawSetString("size", lua.LNumber(size))
		d.RawSetString("elem", elem)
		L.Push(d)
		return 1
	}))
	return t
}

// readDecls turns an IN/OUT/INOUT table into sorted property declarations.
func readDecls(tbl *lua.LTable) ([]PropDecl, error) {
	var decls []PropDecl
	var declErr error
	tbl.ForEach(func(k, v lua.LValue) {
		if declErr != nil {
			return
		}
		name, ok := k.(lua.LString)
		if !ok {
			declErr = oops.With("key", k.String()).Wrap(ErrBadDeclaration)
			return
		}
		if err := value.ValidatePropertyName(string(name)); err != nil {
			declErr = oops.With("name", string(name)).Wrap(ErrBadDeclaration)
			return
		}
		d, err := readDescriptor(string(name), v)
		if err != nil {
			declErr = err
			return
		}
		decls = append(decls, d)
	})
	if declErr != nil {
		return nil, declErr
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls, nil
}

func readDescriptor(name string, v lua.LValue) (PropDecl, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return PropDecl{}, oops.With("name", name).With("got", v.Type().String()).Wrap(ErrBadDeclaration)
	}
	kindName, ok := t.RawGetString("kind").(lua.LString)
	if !ok {
		return PropDecl{}, oops.With("name", name).Wrap(ErrBadDeclaration)
	}

	switch string(kindName) {
	case "Struct":
		fieldsTbl, ok := t.RawGetString("fields").(*lua.LTable)
		if !ok {
			return PropDecl{}, oops.With("name", name).Wrap(ErrBadDeclaration)
		}
		fields, err := readDecls(fieldsTbl)
		if err != nil {
			return PropDecl{}, err
		}
		return PropDecl{Name: name, Kind: value.KindStruct, Fields: fields}, nil
	case "Array":
		size, ok := t.RawGetString("size").(lua.LNumber)
		if !ok || int(size) < 1 {
			return PropDecl{}, oops.With("name", name).Wrap(ErrBadDeclaration)
		}
		elemVal := t.RawGetString("elem")
		elem, err := readDescriptor(name, elemVal)
		if err != nil {
			return PropDecl{}, err
		}
		elem.Name = ""
		return PropDecl{Name: name, Kind: value.KindArray, Size: int(size), Elem: &elem}, nil
	default:
		kind, ok := value.KindFromString(string(kindName))
		if !ok || kind.IsContainer() {
			return PropDecl{}, oops.With("name", name).With("type", string(kindName)).Wrap(ErrBadDeclaration)
		}
		return PropDecl{Name: name, Kind: kind}, nil
	}
}
