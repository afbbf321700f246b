package logging

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema returns the JSON schema of the "logging" extension.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "projsync logging configuration"
	schema.Description = "Schema for the 'logging' extension in projsync.yml."
	// Every logging field is optional.
	schema.Required = nil

	return json.MarshalIndent(schema, "", "  ")
}
