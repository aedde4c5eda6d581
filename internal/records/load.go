package records

import (
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/signage-review/pkg/types"
)

// ErrNoRows is returned by Load when the document holds no row list.
var ErrNoRows = errors.New("no record rows found")

// Load reads records saved earlier, either as a bare list of rows or as
// an extraction envelope with a dados list. YAML and JSON are both
// accepted. Rows go through ReplaceAll, so missing or mistyped fields
// take the same defaults as a live extraction.
func Load(r io.Reader) ([]types.SignageRecord, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	if m, ok := doc.(map[string]any); ok {
		dados, present := m[keyDados]
		if !present {
			return nil, fmt.Errorf("%w: object has no %q key", ErrNoRows, keyDados)
		}
		doc = dados
	}
	if doc == nil {
		return ReplaceAll(nil), nil
	}

	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrNoRows, doc)
	}
	rows := make([]map[string]any, 0, len(list))
	for i, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("row %d: expected a mapping, got %T", i+1, item)
		}
		rows = append(rows, row)
	}
	return ReplaceAll(rows), nil
}
