package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/entity"
)

// The canonical record schema, used as a self-check on normalizer output
// before a batch reaches the writer. Anything failing here is a normalizer
// bug surfacing as a transformation failure, not a storage one.

var (
	schemaOnce     sync.Once
	recordSchema   *jsonschema.Schema
	schemaBuildErr error
)

func canonicalSchemaMap() map[string]any {
	props := map[string]any{
		"cpf": map[string]any{
			"type":    "string",
			"pattern": fmt.Sprintf("^[0-9]{%d,}$", constants.CPFWidth),
		},
		"elegivel_clt": map[string]any{
			"type": []string{"integer", "null"},
			"enum": []any{0, 1, nil},
		},
	}
	for _, col := range constants.DecimalColumns {
		props[col] = map[string]any{
			"type":    []string{"number", "null"},
			"maximum": constants.DecimalLimit,
			"minimum": -constants.DecimalLimit,
		}
	}
	for _, col := range constants.DateColumns {
		props[col] = map[string]any{"type": []string{"string", "null"}}
	}
	for _, col := range constants.CanonicalColumns {
		if _, done := props[col]; done {
			continue
		}
		props[col] = map[string]any{"type": []string{"string", "null"}}
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"required":             []string{"cpf"},
			"properties":           props,
			"additionalProperties": false,
		},
	}
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(canonicalSchemaMap())
		if err != nil {
			schemaBuildErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
			schemaBuildErr = fmt.Errorf("add schema: %w", err)
			return
		}
		recordSchema, schemaBuildErr = compiler.Compile("record.json")
	})
	return recordSchema, schemaBuildErr
}

// ValidateRecords checks a normalized batch against the canonical record
// schema.
func ValidateRecords(records []entity.Record) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal records: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("records do not match canonical schema: %w", err)
	}
	return nil
}
