// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records holds the pure operations over an ordered sequence of
// signage records: building records from loosely typed extraction rows
// and editing one field of one record. No operation modifies its input.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/signage-review/pkg/types"
)

// ErrIndexOutOfRange is returned when an edit addresses a row that does
// not exist in the current sequence.
var ErrIndexOutOfRange = errors.New("record index out of range")

// Raw wire names of the extraction row fields.
const (
	keyTypology    = "tipologia"
	keyCode        = "codigo"
	keyDescription = "descricao"
	keyFloor       = "pavimento"
	keyQuantity    = "quantidade"

	keyDados = "dados"
)

// ReplaceAll maps raw extraction rows to records in input order. Absent
// or null fields take their zero value; codes are neither validated nor
// deduplicated. The result is never nil.
func ReplaceAll(raw []map[string]any) []types.SignageRecord {
	out := make([]types.SignageRecord, 0, len(raw))
	for _, row := range raw {
		out = append(out, FromRaw(row))
	}
	return out
}

// FromRaw builds a single record from a raw row.
func FromRaw(row map[string]any) types.SignageRecord {
	return types.SignageRecord{
		Typology:    textValue(row[keyTypology]),
		Code:        textValue(row[keyCode]),
		Description: textValue(row[keyDescription]),
		Floor:       textValue(row[keyFloor]),
		Quantity:    quantityValue(row[keyQuantity]),
	}
}

// UpdateField returns a copy of recs where the given field of the record
// at index is set to value. Quantity values go through ParseQuantity.
func UpdateField(recs []types.SignageRecord, index int, field types.Field, value string) ([]types.SignageRecord, error) {
	if index < 0 || index >= len(recs) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(recs))
	}
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %v", types.ErrUnknownField, field)
	}

	out := Clone(recs)
	r := &out[index]
	switch field {
	case types.FieldTypology:
		r.Typology = value
	case types.FieldCode:
		r.Code = value
	case types.FieldDescription:
		r.Description = value
	case types.FieldFloor:
		r.Floor = value
	case types.FieldQuantity:
		r.Quantity = ParseQuantity(value)
	}
	return out, nil
}

// Clone returns an independent copy of recs. A nil input yields an empty,
// non-nil slice.
func Clone(recs []types.SignageRecord) []types.SignageRecord {
	out := make([]types.SignageRecord, len(recs))
	copy(out, recs)
	return out
}

// ParseQuantity reads a quantity from user input the way a browser
// parseInt does: leading whitespace and an optional sign, then the
// longest run of decimal digits. Input without digits, negative values
// and values that overflow an int all yield 0.
func ParseQuantity(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || negative {
		return 0
	}
	return n
}

// textValue renders a loosely typed JSON or YAML scalar as record text.
func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return strconv.FormatInt(n, 10)
		}
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	}
	return fmt.Sprint(v)
}

// quantityValue coerces a loosely typed scalar to a non-negative count.
// Fractional numbers are truncated like parseInt would.
func quantityValue(v any) int {
	switch x := v.(type) {
	case string:
		return ParseQuantity(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return quantityValue(n)
		}
		if f, err := x.Float64(); err == nil {
			return floatQuantity(f)
		}
		return 0
	case float64:
		return floatQuantity(x)
	case float32:
		return floatQuantity(float64(x))
	case int:
		return max(x, 0)
	case int64:
		if x < 0 || x > math.MaxInt {
			return 0
		}
		return int(x)
	case uint64:
		if x > math.MaxInt {
			return 0
		}
		return int(x)
	}
	return 0
}

func floatQuantity(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt {
		return 0
	}
	return int(f)
}
