package events

import (
	"bytes"
	"embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mantenix/inventory-service/pkg/cloudevents"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURI = "https://schemas.mantenix.io/inventory/"

// schemaFiles maps each event type to its payload schema
var schemaFiles = map[string]string{
	cloudevents.RequestCreated:   "request.json",
	cloudevents.RequestApproved:  "request.json",
	cloudevents.RequestRejected:  "request.json",
	cloudevents.RequestCancelled: "request.json",
	cloudevents.RequestInTransit: "request.json",
	cloudevents.RequestReceived:  "request.json",
	cloudevents.RequestDelivered: "request.json",
	cloudevents.StockTransferred: "stock.json",
	cloudevents.StockAdjusted:    "stock.json",
}

// Validator checks event payloads against their JSON schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles the embedded schemas
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiled := make(map[string]*jsonschema.Schema)
	byFile := make(map[string]*jsonschema.Schema)

	for eventType, file := range schemaFiles {
		if schema, ok := byFile[file]; ok {
			compiled[eventType] = schema
			continue
		}

		raw, err := schemaFS.ReadFile("schemas/" + file)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", file, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema %s: %w", file, err)
		}

		uri := schemaBaseURI + file
		if err := compiler.AddResource(uri, doc); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", file, err)
		}
		schema, err := compiler.Compile(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", file, err)
		}

		byFile[file] = schema
		compiled[eventType] = schema
	}

	return &Validator{schemas: compiled}, nil
}

// Validate checks the data of event. Unknown event types are rejected.
func (v *Validator) Validate(event *cloudevents.Event) error {
	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema registered for event type %q", event.Type)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("event %s has no data", event.Type)
	}

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(event.Data)))
	if err != nil {
		return fmt.Errorf("failed to parse data of %s: %w", event.Type, err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// HasSchema reports whether eventType has a registered schema
func (v *Validator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}
