package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns the JSON-Schema (draft 2020-12 subset) of the AI reply.
// Amount fields accept numbers or numeric strings since providers vary.
func BuildInvoiceJSONSchema() map[string]any {
	amount := map[string]any{"type": []string{"number", "string"}}
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    amount,
			"unitPrice":   amount,
			"total":       amount,
		},
		"required": []string{"description"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoiceNumber": map[string]any{"type": []string{"string", "number"}},
			"date":          map[string]any{"type": "string"},
			"vendor":        map[string]any{"type": "string"},
			"totalAmount":   amount,
			"lineItems":     map[string]any{"type": "array", "items": lineItem},
			"currency":      map[string]any{"type": "string", "maxLength": 3},
			"subtotal":      amount,
			"tax":           amount,
			"taxRate":       map[string]any{"type": []string{"string", "number"}},
			"dueDate":       map[string]any{"type": "string"},
			"customerInfo":  map[string]any{"type": []string{"object", "string"}},
		},
		"required": []string{"invoiceNumber", "date", "vendor", "totalAmount", "lineItems"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
