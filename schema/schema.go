// Package schema describes DynamoDB table shapes as DQL's semantic
// analyzer and planner need to see them, and caches lookups behind a
// Provider so repeated statements against the same table do not
// each pay a DescribeTable round trip.
package schema

import "github.com/dqlang/dql/ast"

// KeySchema names one half of a primary or index key.
type KeySchema struct {
	Name string
	Type ast.ScalarType
}

// IndexSchema describes one local or global secondary index.
type IndexSchema struct {
	Name       string
	Kind       ast.IndexKind
	Hash       KeySchema
	Range      *KeySchema
	Projection []string // nil/empty means ALL
}

// TableSchema is the planner- and analyzer-facing view of a table: its
// primary key, its secondary indexes, and the attribute types it declares.
type TableSchema struct {
	Name       string
	Hash       KeySchema
	Range      *KeySchema
	Indexes    []IndexSchema
	Attributes map[string]ast.ScalarType
}

// AttrType looks up the declared type of a top-level attribute, reporting
// ok=false for attributes the table schema does not declare (DynamoDB only
// requires declaring key attributes; undeclared attributes are untyped as
// far as the schema is concerned).
func (t *TableSchema) AttrType(name string) (ast.ScalarType, bool) {
	typ, ok := t.Attributes[name]
	return typ, ok
}

// KeyAttrNames returns the primary key's attribute name(s).
func (t *TableSchema) KeyAttrNames() []string {
	if t.Range == nil {
		return []string{t.Hash.Name}
	}
	return []string{t.Hash.Name, t.Range.Name}
}

// IndexByName finds a secondary index by name.
func (t *TableSchema) IndexByName(name string) (IndexSchema, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSchema{}, false
}
