// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package forge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "object not found",
			err:  scene.ErrObjectNotFound,
			want: CodeNotFound,
		},
		{
			name: "missing child property",
			err:  value.ErrChildNotFound,
			want: CodeNotFound,
		},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("delete subtree: %w", scene.ErrReadOnly),
			want: CodeReadOnly,
		},
		{
			name: "oops wrapped sentinel",
			err:  oops.With("object", "x").Wrap(scene.ErrTargetLinked),
			want: CodeTargetLinked,
		},
		{
			name: "extref error",
			err:  &scene.ExtrefError{SourceProjectID: "LIB", Reason: "content diverged"},
			want: CodeExtref,
		},
		{
			name: "wrapped extref error",
			err:  fmt.Errorf("paste: %w", &scene.ExtrefError{Reason: "never saved"}),
			want: CodeExtref,
		},
		{
			name: "spec mismatch",
			err:  &value.SpecMismatchError{Want: value.KindDouble, Got: value.KindString},
			want: CodeTypeMismatch,
		},
		{
			name: "undo index out of range",
			err:  undo.ErrIndexOutOfRange,
			want: CodeOutOfRange,
		},
		{
			name: "reference loop",
			err:  scene.ErrRefLoop,
			want: CodeRefLoop,
		},
		{
			name: "fixed size array",
			err:  scene.ErrFixedSizeArray,
			want: CodeNotResizable,
		},
		{
			name: "duplicate object",
			err:  scene.ErrDuplicateObject,
			want: CodeConflict,
		},
		{
			name: "feature level gate",
			err:  scene.ErrFeatureLevel,
			want: CodeFeatureGated,
		},
		{
			name: "engine feature range",
			err:  engine.ErrFeatureLevelRange,
			want: CodeFeatureGated,
		},
		{
			name: "script parse failure",
			err:  engine.ErrScriptParse,
			want: CodeScriptError,
		},
		{
			name: "bad resource data",
			err:  usertypes.ErrBadResourceData,
			want: CodeBadData,
		},
		{
			name: "unknown file version",
			err:  serialization.ErrUnknownFileVersion,
			want: CodeBadDocument,
		},
		{
			name: "unclassified error",
			err:  errors.New("disk on fire"),
			want: CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCoded(t *testing.T) {
	t.Run("attaches classified code", func(t *testing.T) {
		err := Coded(fmt.Errorf("set: %w", scene.ErrReadOnly))
		require.Error(t, err)

		o, ok := oops.AsOops(err)
		require.True(t, ok)
		assert.Equal(t, CodeReadOnly, o.Code())
	})

	t.Run("sentinel survives wrapping", func(t *testing.T) {
		err := Coded(scene.ErrLinkNotAllowed)
		assert.ErrorIs(t, err, scene.ErrLinkNotAllowed)
	})

	t.Run("already coded passes through", func(t *testing.T) {
		coded := oops.Code(CodeScriptError).Errorf("no run() function")
		assert.Equal(t, coded, Coded(coded))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Coded(nil))
	})
}

func TestUserMessage(t *testing.T) {
	t.Run("nil error renders empty", func(t *testing.T) {
		assert.Empty(t, UserMessage(nil))
	})

	t.Run("extref reason surfaces verbatim", func(t *testing.T) {
		err := &scene.ExtrefError{SourceProjectID: "LIB", Reason: "source document is this document"}
		assert.Equal(t, "External reference refused: source document is this document.", UserMessage(err))
	})

	t.Run("classified sentinel", func(t *testing.T) {
		msg := UserMessage(fmt.Errorf("write: %w", scene.ErrTargetLinked))
		assert.Contains(t, msg, "driven by a link")
	})

	t.Run("coded error keeps its code", func(t *testing.T) {
		err := oops.Code(CodeScriptError).Errorf("line 3: unexpected symbol")
		assert.Contains(t, UserMessage(err), "script has errors")
	})

	t.Run("unclassified error falls back", func(t *testing.T) {
		msg := UserMessage(errors.New("mystery"))
		assert.Contains(t, msg, "rolled back")
	})
}
