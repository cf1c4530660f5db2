// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

// Package forge holds the stable, user-facing surface of the scene editor:
// machine-readable error codes for command failures and plain-text
// formatting helpers for values, tables, and reports.
package forge

import (
	"errors"

	"github.com/samber/oops"

	"github.com/sceneforge/sceneforge/internal/engine"
	"github.com/sceneforge/sceneforge/internal/scene"
	"github.com/sceneforge/sceneforge/internal/serialization"
	"github.com/sceneforge/sceneforge/internal/undo"
	"github.com/sceneforge/sceneforge/internal/usertypes"
	"github.com/sceneforge/sceneforge/internal/value"
)

// Error codes for command failures. Codes are stable identifiers for
// frontends and logs; the underlying sentinel errors stay internal.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidHandle  = "INVALID_HANDLE"
	CodeTypeMismatch   = "TYPE_MISMATCH"
	CodeEnumViolation  = "ENUM_VIOLATION"
	CodeOutOfRange     = "INDEX_OUT_OF_RANGE"
	CodeReadOnly       = "READ_ONLY"
	CodeTargetLinked   = "TARGET_LINKED"
	CodeLinkNotAllowed = "LINK_NOT_ALLOWED"
	CodeRefNotAllowed  = "REF_NOT_ALLOWED"
	CodeRefLoop        = "REF_LOOP"
	CodeNotDeletable   = "NOT_DELETABLE"
	CodeNotMoveable    = "NOT_MOVEABLE"
	CodeNotResizable   = "NOT_RESIZABLE"
	CodeConflict       = "CONFLICT"
	CodeFeatureGated   = "FEATURE_GATED"
	CodeNotCreatable   = "NOT_CREATABLE"
	CodeUnknownKind    = "UNKNOWN_KIND"
	CodeNotSyncable    = "NOT_SYNCABLE"
	CodeScriptError    = "SCRIPT_ERROR"
	CodeBadData        = "BAD_DATA"
	CodeBadDocument    = "BAD_DOCUMENT"
	CodeExtref         = "EXTREF_ERROR"
	CodeInternal       = "INTERNAL"
)

// classification maps sentinel errors to codes. Order matters only for
// readability; the sentinels are disjoint.
var classification = []struct {
	target error
	code   string
}{
	{scene.ErrObjectNotFound, CodeNotFound},
	{scene.ErrLinkNotFound, CodeNotFound},
	{value.ErrChildNotFound, CodeNotFound},
	{scene.ErrInvalidHandle, CodeInvalidHandle},
	{value.ErrInvalidPropertyName, CodeInvalidHandle},
	{value.ErrNotAContainer, CodeInvalidHandle},
	{scene.ErrInvalidIndex, CodeOutOfRange},
	{value.ErrIndexOutOfRange, CodeOutOfRange},
	{undo.ErrIndexOutOfRange, CodeOutOfRange},
	{value.ErrEnumViolation, CodeEnumViolation},
	{scene.ErrReadOnly, CodeReadOnly},
	{scene.ErrTargetLinked, CodeTargetLinked},
	{scene.ErrLinkNotAllowed, CodeLinkNotAllowed},
	{scene.ErrRefNotAllowed, CodeRefNotAllowed},
	{scene.ErrRefLoop, CodeRefLoop},
	{scene.ErrNotDeletable, CodeNotDeletable},
	{scene.ErrNotMoveable, CodeNotMoveable},
	{scene.ErrFixedSizeArray, CodeNotResizable},
	{scene.ErrDuplicateObject, CodeConflict},
	{scene.ErrObjectAttached, CodeConflict},
	{scene.ErrLinkExists, CodeConflict},
	{value.ErrDuplicateChild, CodeConflict},
	{scene.ErrFeatureLevel, CodeFeatureGated},
	{engine.ErrFeatureLevelRange, CodeFeatureGated},
	{usertypes.ErrNotUserCreatable, CodeNotCreatable},
	{usertypes.ErrUnknownKind, CodeUnknownKind},
	{usertypes.ErrNotSyncable, CodeNotSyncable},
	{engine.ErrScriptParse, CodeScriptError},
	{engine.ErrMissingFunction, CodeScriptError},
	{engine.ErrBadDeclaration, CodeScriptError},
	{engine.ErrNotAModule, CodeScriptError},
	{engine.ErrBadEngineVersion, CodeScriptError},
	{usertypes.ErrBadResourceData, CodeBadData},
	{serialization.ErrBadWireData, CodeBadData},
	{serialization.ErrUnknownBlobVersion, CodeBadData},
	{serialization.ErrUnknownFileVersion, CodeBadDocument},
	{serialization.ErrSchemaViolation, CodeBadDocument},
}

// Classify maps an error to one of the stable codes. Errors that carry no
// known sentinel classify as CodeInternal.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var xe *scene.ExtrefError
	if errors.As(err, &xe) {
		return CodeExtref
	}
	var sm *value.SpecMismatchError
	if errors.As(err, &sm) {
		return CodeTypeMismatch
	}
	for _, c := range classification {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return CodeInternal
}

// Coded attaches the classified code to an error. Errors that already carry
// an oops code pass through unchanged, so callers can stack Coded freely.
func Coded(err error) error {
	if err == nil {
		return nil
	}
	if o, ok := oops.AsOops(err); ok && o.Code() != "" {
		return err
	}
	return oops.Code(Classify(err)).Wrap(err)
}

// UserMessage renders an error as a single sentence suitable for a status
// bar or console line. The full chain stays available for logs.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	// ExtrefError reasons are already written for users.
	var xe *scene.ExtrefError
	if errors.As(err, &xe) {
		return "External reference refused: " + xe.Reason + "."
	}

	code := Classify(err)
	if o, ok := oops.AsOops(err); ok && o.Code() != "" {
		code = o.Code()
	}

	switch code {
	case CodeNotFound:
		return "The target no longer exists."
	case CodeInvalidHandle:
		return "That property path does not resolve."
	case CodeTypeMismatch:
		return "The value type does not match the property."
	case CodeEnumViolation:
		return "That value is not one of the allowed options."
	case CodeOutOfRange:
		return "Index is out of range."
	case CodeReadOnly:
		return "Imported content is read-only."
	case CodeTargetLinked:
		return "The property is driven by a link. Remove the link first."
	case CodeLinkNotAllowed:
		return "These properties cannot be linked."
	case CodeRefNotAllowed:
		return "This object cannot be referenced here."
	case CodeRefLoop:
		return "That reference would create a cycle."
	case CodeNotDeletable:
		return "Some of the selected objects cannot be deleted."
	case CodeNotMoveable:
		return "The objects cannot be moved there."
	case CodeNotResizable:
		return "This array has a fixed size."
	case CodeConflict:
		return "An object with that identity already exists."
	case CodeFeatureGated:
		return "This needs a higher project feature level."
	case CodeNotCreatable:
		return "Objects of this kind cannot be created directly."
	case CodeUnknownKind:
		return "Unknown object kind."
	case CodeNotSyncable:
		return "This object has no external file to sync from."
	case CodeScriptError:
		return "The script has errors. See its diagnostics."
	case CodeBadData:
		return "The data could not be decoded."
	case CodeBadDocument:
		return "The project file could not be read."
	default:
		return "Something went wrong. The change was rolled back."
	}
}
