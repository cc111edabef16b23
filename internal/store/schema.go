package store

import (
	"fmt"
	"regexp"
	"strings"
)

// Field types supported by the store contract.
const (
	TypeString  FieldType = "string"
	TypeInt64   FieldType = "int64"
	TypeFloat64 FieldType = "float64"
	TypeVector  FieldType = "vector"
)

// FieldType identifies the storage type of a schema field.
type FieldType string

// Field describes one column of a table schema.
type Field struct {
	Name string
	Type FieldType
	Dim  int // vector dimension; only meaningful for TypeVector
}

// Schema is an ordered list of fields describing a table's shape.
type Schema struct {
	Fields []Field
}

// identPattern restricts table and field names to safe SQL identifiers,
// since backends interpolate them into DDL and DML statements.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`) //nolint:gochecknoglobals // compiled once

// ValidIdentifier reports whether name is usable as a table or field name.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// Validate checks the schema for empty field lists, invalid or duplicate
// field names, unknown field types, and missing vector dimensions.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return ErrEmptySchema
	}

	seen := make(map[string]bool, len(s.Fields))

	for _, f := range s.Fields {
		if !ValidIdentifier(f.Name) {
			return fmt.Errorf("%w: field name %q", ErrInvalidIdentifier, f.Name)
		}

		if seen[f.Name] {
			return fmt.Errorf("%w: field %q", ErrDuplicateField, f.Name)
		}

		seen[f.Name] = true

		switch f.Type {
		case TypeString, TypeInt64, TypeFloat64:
		case TypeVector:
			if f.Dim <= 0 {
				return fmt.Errorf("%w: field %q", ErrInvalidVectorDim, f.Name)
			}
		default:
			return fmt.Errorf("%w: field %q has type %q", ErrUnknownFieldType, f.Name, f.Type)
		}
	}

	return nil
}

// FieldNames returns the schema's field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}

	return names
}

// Eq builds an equality predicate for a string value, escaping embedded
// single quotes. The field name must be a valid identifier.
func Eq(field, value string) string {
	return field + " = '" + strings.ReplaceAll(value, "'", "''") + "'"
}
