// Package contract declares the expected shape of each input table and checks
// loaded frames against it.
package contract

import (
	"fmt"
	"sort"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// Table kinds a contract file must declare.
const (
	Clients      = "clients"
	Stores       = "stores"
	Products     = "products"
	Transactions = "transactions"
)

// Kinds lists every table kind in load order.
var Kinds = []string{Clients, Stores, Products, Transactions}

// Contract maps column name to native type tag.
type Contract map[string]string

// Columns returns the declared column names, sorted.
func (c Contract) Columns() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Schema turns the contract into a nullable frame schema in Columns order.
func (c Contract) Schema() (frame.Schema, error) {
	var s frame.Schema
	for _, name := range c.Columns() {
		k, ok := frame.KindForTag(c[name])
		if !ok {
			return frame.Schema{}, fmt.Errorf("column %s: unsupported type %q", name, c[name])
		}
		s.Columns = append(s.Columns, frame.ColumnSchema{Name: name, Type: k, Nullable: true})
	}
	return s, nil
}

// Set holds one contract per table kind. It is loaded once and never mutated.
type Set map[string]Contract

// For returns the contract for kind.
func (s Set) For(kind string) (Contract, error) {
	c, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("no contract for %q", kind)
	}
	return c, nil
}

// Verify checks that every kind is present, non-empty and uses known tags.
func (s Set) Verify() error {
	for _, kind := range Kinds {
		c, ok := s[kind]
		if !ok {
			return fmt.Errorf("contract %q missing", kind)
		}
		if len(c) == 0 {
			return fmt.Errorf("contract %q declares no columns", kind)
		}
		if _, err := c.Schema(); err != nil {
			return fmt.Errorf("contract %q: %w", kind, err)
		}
	}
	return nil
}
