package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema constrains only the shape the client relies on: an
// object whose optional dados is a list of objects. Row fields are left
// free because the service does not guarantee their presence or type.
const envelopeSchema = `{
  "type": "object",
  "properties": {
    "dados": {
      "type": ["array", "null"],
      "items": {"type": "object"}
    },
    "metadata": {
      "type": ["object", "null"],
      "properties": {
        "total_chunks": {"type": ["integer", "null"]},
        "chunks_processados": {"type": ["integer", "null"]},
        "chunks_com_erro": {"type": ["array", "null"], "items": {"type": "integer"}},
        "total_itens": {"type": ["integer", "null"]}
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func envelope() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("envelope.json", bytes.NewReader([]byte(envelopeSchema))); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("envelope.json")
	})
	return compiledSchema, compileErr
}

// validateEnvelope checks a 2xx response body against envelopeSchema.
func validateEnvelope(body []byte) error {
	schema, err := envelope()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
