package llm

// BuildDocumentJSONSchema returns the shape a parsed model response must have
// (draft 2020-12 subset). Values are only type-checked here; coercion happens
// during normalization.
func BuildDocumentJSONSchema() map[string]any {
	amount := map[string]any{"type": []string{"number", "string", "null"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"vendor_name":  map[string]any{"type": []string{"string", "null"}},
			"amount":       amount,
			"total_amount": amount,
			"products":     map[string]any{"type": []string{"array", "null"}},
			"date":         map[string]any{"type": []string{"string", "number", "null"}},
		},
	}
}
