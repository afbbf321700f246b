package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "projsync://config.schema.json"

// GenerateSchema generates the JSON Schema for projsync.yml. Known sections are
// strict; unknown top-level sections are allowed as extensions.
func GenerateSchema() ([]byte, error) {
	r := &invopop.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	// Extensions is omitted; it is represented by additionalProperties.
	type BaseConfig struct {
		Version  string          `yaml:"version,omitempty" jsonschema:"description=Configuration version (e.g. '1.0')"`
		Projects []ProjectConfig `yaml:"projects,omitempty" jsonschema:"description=Local project roots bound to cloud project ids"`
		Ignore   []string        `yaml:"ignore,omitempty" jsonschema:"description=Extra ignore patterns for inventory scans"`
		Cloud    *CloudConfig    `yaml:"cloud,omitempty"`
		Daemon   *DaemonConfig   `yaml:"daemon,omitempty"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.AdditionalProperties = nil
	schema.Title = "projsync configuration"
	schema.Description = "Schema for projsync.yml."

	return json.MarshalIndent(schema, "", "  ")
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := GenerateSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to generate config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile(schemaResource)
})

// validateDocument checks a decoded YAML or TOML document against the schema.
// The document is normalised through JSON so both decoders yield the same types.
func validateDocument(doc map[string]interface{}) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalise config document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return sch.Validate(v)
}
