package configparser

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/graft-dev/graft/pkg/logger"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

var schemaLog = logger.New("configparser:schema")

//go:embed schemas/graft_config_schema.json
var configSchemaJSON string

var (
	configSchemaOnce   sync.Once
	compiledConfigSchema *jsonschema.Schema
	configSchemaErr    error
)

func getCompiledConfigSchema() (*jsonschema.Schema, error) {
	configSchemaOnce.Do(func() {
		compiledConfigSchema, configSchemaErr = compileSchema(configSchemaJSON, "https://graft.dev/schemas/config.json")
	})
	return compiledConfigSchema, configSchemaErr
}

func compileSchema(schemaText, url string) (*jsonschema.Schema, error) {
	schemaLog.Printf("compiling schema %s", url)
	compiler := jsonschema.NewCompiler()

	var doc any
	if err := json.Unmarshal([]byte(schemaText), &doc); err != nil {
		return nil, fmt.Errorf("parse schema json: %w", err)
	}
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateNormalizedDocument validates a normalized config document (already
// goccy/go-yaml-decoded into map[string]any form, legacy shorthand already
// expanded) against the embedded JSON schema. The round-trip through
// encoding/json mirrors the teacher's validateWithSchema: it coerces
// YAML-flavored scalar types (e.g. yaml.MapSlice-ish maps) into the plain
// map[string]any/[]any/string/float64 shapes jsonschema expects.
func validateNormalizedDocument(doc map[string]any) error {
	schema, err := getCompiledConfigSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal normalized document: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("unmarshal normalized document: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		return err
	}
	return nil
}
