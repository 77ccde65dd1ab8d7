package models

import "fmt"

// Record is a raw library record as materialized by a source.
//
// Field reports whether name is present; a missing field is never an error.
type Record interface {
	Field(name string) (any, bool)
}

// Fields is a [Record] backed by a map of column or attribute names to values.
type Fields map[string]any

func (f Fields) Field(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

// Named is implemented by related-entity references that carry a display field.
type Named interface {
	DisplayName() string
}

// Entity is a reference to a related row such as an artist or musical key.
type Entity struct {
	ID   string
	Name string
}

func (e Entity) DisplayName() string { return e.Name }

func (e Entity) String() string { return fmt.Sprintf("%s(%s)", e.Name, e.ID) }
