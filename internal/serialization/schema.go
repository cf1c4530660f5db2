// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package serialization

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrSchemaViolation indicates a project file that parses as JSON but does
// not match the project-file schema.
var ErrSchemaViolation = errors.New("project file does not match schema")

var (
	schemaOnce     sync.Once
	schemaCompiled *jschema.Schema
	schemaErr      error
)

// SchemaID is the $id project files may reference.
const SchemaID = "https://sceneforge.dev/schemas/project.schema.json"

// GenerateSchema derives the project-file JSON schema from the wire
// structs. gen-schema emits this; loading validates against it.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&ProjectFile{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "SceneForge Project"
	schema.Description = fmt.Sprintf("Schema for %s project files, format version %d", FileExtension, FileVersion)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// ValidateProjectData validates raw project-file JSON against the schema.
func ValidateProjectData(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("project data is empty: %w", ErrSchemaViolation)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaBytes, err := GenerateSchema()
		if err != nil {
			schemaErr = err
			return
		}
		var schemaData any
		if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
			schemaErr = fmt.Errorf("parse schema JSON: %w", err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("project.schema.json", schemaData); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schemaCompiled, schemaErr = c.Compile("project.schema.json")
	})
	return schemaCompiled, schemaErr
}
