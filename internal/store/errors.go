package store

import "errors"

// ErrTableExists indicates a table with the requested name already exists.
var ErrTableExists = errors.New("table already exists")

// ErrTableNotFound indicates no table with the requested name exists.
var ErrTableNotFound = errors.New("table not found")

// ErrEmptySchema indicates a schema with no fields.
var ErrEmptySchema = errors.New("schema has no fields")

// ErrInvalidIdentifier indicates a table or field name that is not a safe SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrDuplicateField indicates two schema fields share a name.
var ErrDuplicateField = errors.New("duplicate field name")

// ErrInvalidVectorDim indicates a vector field with a non-positive dimension.
var ErrInvalidVectorDim = errors.New("vector dimension must be positive")

// ErrUnknownFieldType indicates a schema field with an unsupported type.
var ErrUnknownFieldType = errors.New("unknown field type")
