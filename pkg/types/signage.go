// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the signage-review
// workflow: the signage record extracted from a manual, the closed set of
// editable fields, and the configuration of each workflow stage.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// SignageRecord is one row of signage data extracted from a manual or
// edited by the user. The zero value is a valid, empty record.
type SignageRecord struct {
	// Typology is the classification label (e.g. "1.02").
	Typology string `json:"tipologia" yaml:"tipologia"`

	// Code identifies the sign. Codes are not guaranteed to be unique.
	Code string `json:"codigo" yaml:"codigo"`

	// Description is the content printed on the sign.
	Description string `json:"descricao" yaml:"descricao"`

	// Floor is the floor or level label; it is not strictly numeric.
	Floor string `json:"pavimento" yaml:"pavimento"`

	// Quantity is the number of signs, never negative.
	Quantity int `json:"quantidade" yaml:"quantidade"`
}

// Field selects one editable column of a SignageRecord.
type Field int

const (
	FieldTypology Field = iota
	FieldCode
	FieldDescription
	FieldFloor
	FieldQuantity
)

// ErrUnknownField is returned for field names or values outside the
// closed set of record fields.
var ErrUnknownField = errors.New("unknown record field")

// Fields lists every record field in column order.
var Fields = []Field{FieldTypology, FieldCode, FieldDescription, FieldFloor, FieldQuantity}

var fieldNames = map[Field]string{
	FieldTypology:    "tipologia",
	FieldCode:        "codigo",
	FieldDescription: "descricao",
	FieldFloor:       "pavimento",
	FieldQuantity:    "quantidade",
}

var fieldAliases = map[string]Field{
	"tipologia":   FieldTypology,
	"typology":    FieldTypology,
	"codigo":      FieldCode,
	"código":      FieldCode,
	"code":        FieldCode,
	"descricao":   FieldDescription,
	"descrição":   FieldDescription,
	"description": FieldDescription,
	"pavimento":   FieldFloor,
	"floor":       FieldFloor,
	"quantidade":  FieldQuantity,
	"quantity":    FieldQuantity,
}

// String returns the wire name of the field.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Valid reports whether f is one of the declared fields.
func (f Field) Valid() bool {
	_, ok := fieldNames[f]
	return ok
}

// ParseField resolves a field from its wire name or English name,
// ignoring case and surrounding whitespace.
func ParseField(name string) (Field, error) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Get returns the value of field f as text. Quantity is formatted as a
// decimal integer.
func (r SignageRecord) Get(f Field) string {
	switch f {
	case FieldTypology:
		return r.Typology
	case FieldCode:
		return r.Code
	case FieldDescription:
		return r.Description
	case FieldFloor:
		return r.Floor
	case FieldQuantity:
		return fmt.Sprintf("%d", r.Quantity)
	}
	return ""
}
