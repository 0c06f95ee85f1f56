// Package semantic resolves table/index names and validates a parsed
// ast.Statement before the planner ever sees it: key usage, literal/type
// agreement on key attributes, and the "no unconfirmed full-table mutation"
// rule from spec.md §4.3.
package semantic

import (
	"context"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/schema"
)

// Analyzer validates statements against a schema.Provider.
type Analyzer struct {
	schemas schema.Provider
}

// New builds an Analyzer over the given schema provider.
func New(schemas schema.Provider) *Analyzer {
	return &Analyzer{schemas: schemas}
}

// Analyze resolves and validates stmt, returning the resolved TableSchema
// for the statement's primary table (nil for statements with no single
// table, such as Dump/Load/Help).
func (a *Analyzer) Analyze(ctx context.Context, stmt ast.Statement) (*schema.TableSchema, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return a.analyzeSelect(ctx, s)
	case *ast.Count:
		return a.analyzeCount(ctx, s)
	case *ast.Scan:
		return a.analyzeScan(ctx, s)
	case *ast.Insert:
		return a.analyzeInsert(ctx, s)
	case *ast.Update:
		return a.analyzeUpdate(ctx, s)
	case *ast.Delete:
		return a.analyzeDelete(ctx, s)
	case *ast.CreateTable:
		return nil, a.analyzeCreateTable(ctx, s)
	case *ast.AlterTable:
		return a.analyzeAlterTable(ctx, s)
	case *ast.DropTable:
		return nil, a.analyzeDropTable(ctx, s)
	case *ast.Explain:
		return a.Analyze(ctx, s.Stmt)
	case *ast.Analyze:
		return a.Analyze(ctx, s.Stmt)
	case *ast.Dump, *ast.Load, *ast.Help:
		return nil, nil
	default:
		return nil, &Error{Kind: UnknownTable, Message: "unrecognized statement"}
	}
}

func (a *Analyzer) resolveTable(ctx context.Context, table string) (*schema.TableSchema, error) {
	ts, err := a.schemas.Describe(ctx, table)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil, &Error{Kind: UnknownTable, Message: "table " + table + " does not exist"}
		}
		return nil, err
	}
	return ts, nil
}

func (a *Analyzer) resolveIndex(ts *schema.TableSchema, name string) (*schema.IndexSchema, error) {
	if name == "" {
		return nil, nil
	}
	idx, ok := ts.IndexByName(name)
	if !ok {
		return nil, &Error{Kind: AmbiguousIndex, Message: "index " + name + " is not defined on table " + ts.Name}
	}
	return &idx, nil
}

func (a *Analyzer) analyzeSelect(ctx context.Context, s *ast.Select) (*schema.TableSchema, error) {
	ts, err := a.resolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	idx, err := a.resolveIndex(ts, s.Index)
	if err != nil {
		return nil, err
	}
	if err := checkLiteralTypes(s.Where, ts); err != nil {
		return nil, err
	}
	if s.OrderByAttr != "" {
		if err := checkOrderBy(s.OrderByAttr, ts, idx); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

func (a *Analyzer) analyzeCount(ctx context.Context, s *ast.Count) (*schema.TableSchema, error) {
	ts, err := a.resolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	if _, err := a.resolveIndex(ts, s.Index); err != nil {
		return nil, err
	}
	return ts, checkLiteralTypes(s.Where, ts)
}

func (a *Analyzer) analyzeScan(ctx context.Context, s *ast.Scan) (*schema.TableSchema, error) {
	ts, err := a.resolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	if _, err := a.resolveIndex(ts, s.Index); err != nil {
		return nil, err
	}
	return ts, checkLiteralTypes(s.Filter, ts)
}

func (a *Analyzer) analyzeInsert(ctx context.Context, s *ast.Insert) (*schema.TableSchema, error) {
	ts, err := a.resolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	colIndex := map[string]int{}
	for i, c := range s.Columns {
		colIndex[c] = i
	}
	for _, required := range ts.KeyAttrNames() {
		if _, ok := colIndex[required]; !ok {
			return nil, &Error{Kind: InvalidKeyUsage, Message: "INSERT is missing key attribute " + required}
		}
	}
	for _, row := range s.Rows {
		for name, i := range colIndex {
			declared, ok := ts.AttrType(name)
			if !ok {
				continue
			}
			if i >= len(row) {
				continue
			}
			if !literalMatchesType(row[i], declared) {
				return nil, &Error{Kind: TypeMismatch, Message: "column " + name + " does not match declared type " + string(declared)}
			}
		}
	}
	return ts, nil
}

func (a *Analyzer) analyzeUpdate(ctx context.Context, s *ast.Update) (*schema.TableSchema, error) {
	ts, err := a.resolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	if err := checkLiteralTypes(s.Where, ts); err != nil {
		return nil, err
	}
	if !s.ScanConfirmed && !isConstrainedByAnyKey(s.Where, ts) {
		return nil, &Error{Kind: MutationWithoutKey, Message: "UPDATE has no key-equality constraint; add CONFIRM SCAN to allow a full scan"}
	}
	for _, clause := range s.Clauses {
		if clause.Path.Root() == ts.Hash.Name || (ts.Range != nil && clause.Path.Root() == ts.Range.Name) {
			return nil, &Error{Kind: InvalidKeyUsage, Message: "UPDATE may not modify key attribute " + clause.Path.Root()}
		}
	}
	return ts, nil
}

func (a *Analyzer) analyzeDelete(ctx context.Context, s *ast.Delete) (*schema.TableSchema, error) {
	ts, err := a.resolveTable(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	if err := checkLiteralTypes(s.Where, ts); err != nil {
		return nil, err
	}
	if !s.ScanConfirmed && !isConstrainedByAnyKey(s.Where, ts) {
		return nil, &Error{Kind: MutationWithoutKey, Message: "DELETE has no key-equality constraint; add CONFIRM SCAN to allow a full scan"}
	}
	return ts, nil
}

func (a *Analyzer) analyzeCreateTable(ctx context.Context, s *ast.CreateTable) error {
	_, err := a.schemas.Describe(ctx, s.Name)
	exists := err == nil
	if exists && !s.IfNotExists {
		return &Error{Kind: InvalidKeyUsage, Message: "table " + s.Name + " already exists"}
	}
	hashKeys := 0
	for _, attr := range s.Attrs {
		if attr.KeyRole == ast.RoleHash {
			hashKeys++
		}
	}
	if hashKeys != 1 {
		return &Error{Kind: InvalidKeyUsage, Message: "CREATE TABLE requires exactly one HASH KEY attribute"}
	}
	return nil
}

func (a *Analyzer) analyzeAlterTable(ctx context.Context, s *ast.AlterTable) (*schema.TableSchema, error) {
	ts, err := a.resolveTable(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if s.Kind == ast.AlterSetIndexThroughput || s.Kind == ast.AlterDropIndex {
		if _, ok := ts.IndexByName(s.IndexName); !ok {
			return nil, &Error{Kind: AmbiguousIndex, Message: "index " + s.IndexName + " is not defined on table " + s.Name}
		}
	}
	return ts, nil
}

func (a *Analyzer) analyzeDropTable(ctx context.Context, s *ast.DropTable) error {
	_, err := a.schemas.Describe(ctx, s.Name)
	if err != nil {
		if schema.IsNotFound(err) && s.IfExists {
			return nil
		}
		if schema.IsNotFound(err) {
			return &Error{Kind: UnknownTable, Message: "table " + s.Name + " does not exist"}
		}
		return err
	}
	return nil
}
