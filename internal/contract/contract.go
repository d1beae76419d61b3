// Package contract loads the OpenAPI description of the intake endpoint and
// checks outbound payloads against its request body schema.
package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed intake.yaml
var intakeDocument []byte

// DefaultOperationID names the submit operation in the bundled document.
const DefaultOperationID = "submitContactUpdate"

// Contract holds the resolved request schema of the submit operation.
type Contract struct {
	OperationID string
	Method      string
	Path        string
	schema      *openapi3.Schema
}

// Default loads the bundled intake document.
func Default(ctx context.Context) (*Contract, error) {
	return Load(ctx, intakeDocument, DefaultOperationID)
}

// Load parses raw as an OpenAPI 3 document and resolves the JSON request
// schema of operationID.
func Load(ctx context.Context, raw []byte, operationID string) (*Contract, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(raw) == 0 {
		return nil, errors.New("contract: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("contract: document does not contain any paths")
	}

	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID != operationID {
				continue
			}
			schema, err := requestSchema(op.RequestBody)
			if err != nil {
				return nil, fmt.Errorf("contract: operation %s: %w", operationID, err)
			}
			return &Contract{
				OperationID: operationID,
				Method:      strings.ToUpper(method),
				Path:        path,
				schema:      schema,
			}, nil
		}
	}
	return nil, fmt.Errorf("contract: operation %q not found", operationID)
}

func requestSchema(body *openapi3.RequestBodyRef) (*openapi3.Schema, error) {
	if body == nil || body.Value == nil {
		return nil, errors.New("request body is not defined")
	}
	mt, ok := body.Value.Content["application/json"]
	if !ok || mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
		return nil, errors.New("request body has no application/json schema")
	}
	return mt.Schema.Value, nil
}

// MaxContacts reports the contacts array maxItems of the request schema.
// ok is false when the schema sets no bound.
func (c *Contract) MaxContacts() (n int, ok bool) {
	if c == nil || c.schema == nil {
		return 0, false
	}
	ref := c.schema.Properties["contacts"]
	if ref == nil || ref.Value == nil || ref.Value.MaxItems == nil {
		return 0, false
	}
	return int(*ref.Value.MaxItems), true
}

// ValidatePayload checks payload (any JSON-marshalable value) against the
// request schema.
func (c *Contract) ValidatePayload(payload any) error {
	if c == nil || c.schema == nil {
		return errors.New("contract: schema not loaded")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("contract: encode payload: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("contract: decode payload: %w", err)
	}
	if err := c.schema.VisitJSON(generic); err != nil {
		return fmt.Errorf("contract: payload does not match %s: %w", c.OperationID, err)
	}
	return nil
}
