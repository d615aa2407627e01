package extractor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// extractionSchema constrains the service's output to the pricing extraction
// shape. The service is instructed to lower its own confidence field rather
// than guess, so the schema keeps prices nullable instead of optional.
const extractionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["currency_code", "currency_symbol", "plans", "extraction_confidence"],
  "properties": {
    "currency_code": {"type": "string", "minLength": 1},
    "currency_symbol": {"type": "string", "minLength": 1},
    "plans": {"type": "array", "items": {"$ref": "#/$defs/plan"}},
    "extraction_confidence": {"type": "string", "enum": ["high", "medium", "low"]},
    "extraction_notes": {"type": ["string", "null"]}
  },
  "$defs": {
    "plan": {
      "type": "object",
      "required": ["plan_name", "is_free_tier", "is_contact_sales"],
      "properties": {
        "plan_name": {"type": "string", "minLength": 1},
        "monthly_price": {"type": ["number", "null"]},
        "annual_price": {"type": ["number", "null"]},
        "annual_monthly_equivalent": {"type": ["number", "null"]},
        "billing_periods_available": {
          "type": "array",
          "items": {"type": "string", "enum": ["monthly", "annual", "weekly", "quarterly"]}
        },
        "is_free_tier": {"type": "boolean"},
        "is_contact_sales": {"type": "boolean"},
        "target_audience": {"type": "string", "enum": ["individual", "family", "student", "team", "enterprise"]},
        "key_features": {"type": "array", "items": {"type": "string"}},
        "notes": {"type": ["string", "null"]}
      }
    }
  }
}`

// planSchema validates a single plan object during salvage.
const planSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$ref": "schema.json#/$defs/plan"
}`

var (
	schemaOnce       sync.Once
	compiledResponse *jsonschema.Schema
	compiledPlan     *jsonschema.Schema
	schemaErr        error
)

func compiledSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", strings.NewReader(extractionSchema)); err != nil {
			schemaErr = fmt.Errorf("add response schema: %w", err)
			return
		}
		if err := compiler.AddResource("plan.json", strings.NewReader(planSchema)); err != nil {
			schemaErr = fmt.Errorf("add plan schema: %w", err)
			return
		}
		compiledResponse, schemaErr = compiler.Compile("schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile response schema: %w", schemaErr)
			return
		}
		compiledPlan, schemaErr = compiler.Compile("plan.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile plan schema: %w", schemaErr)
		}
	})
	return compiledResponse, compiledPlan, schemaErr
}

// validateResponse checks a decoded JSON value against the extraction schema.
func validateResponse(v any) error {
	schema, _, err := compiledSchemas()
	if err != nil {
		return err
	}
	return schema.Validate(v)
}

// validatePlan checks one decoded plan value against the plan sub-schema.
func validatePlan(v any) error {
	_, schema, err := compiledSchemas()
	if err != nil {
		return err
	}
	return schema.Validate(v)
}
