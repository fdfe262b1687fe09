package sqldb

import "fmt"

// Column is a validated SQL identifier safe to splice into a statement.
type Column struct {
	name string
}

func NewColumn(name string) (Column, error) {
	if !IdentifierRegexp.MatchString(name) {
		return Column{}, fmt.Errorf("invalid column identifier: %q", name)
	}
	return Column{name: name}, nil
}

// MustColumn panics on an invalid identifier. For package-level constants.
func MustColumn(name string) Column {
	c, err := NewColumn(name)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Column) Name() string { return c.name }
