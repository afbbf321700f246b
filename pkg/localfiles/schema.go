package localfiles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/grovetools/projsync/pkg/models"
	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "projsync://inventory.schema.json"

// InventorySchema returns the JSON schema of a full inventory payload, as
// served by the daemon's /api/files endpoint.
func InventorySchema() *invopop.Schema {
	r := &invopop.Reflector{Anonymous: true}
	return r.Reflect(models.ProjectFileMapping{})
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(InventorySchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inventory schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile(schemaResource)
})

// ValidatePayload checks raw JSON against InventorySchema.
func ValidatePayload(raw []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return sch.Validate(doc)
}
