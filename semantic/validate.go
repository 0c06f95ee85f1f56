package semantic

import (
	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/schema"
)

// checkLiteralTypes walks expr looking for `key_attr OP literal` comparisons
// and verifies the literal's DynamoDB type matches the attribute's declared
// type. Non-key attributes are schemaless in DynamoDB and are not checked.
func checkLiteralTypes(expr ast.Expression, ts *schema.TableSchema) error {
	if expr == nil || ts == nil {
		return nil
	}
	var err error
	walkExpression(expr, func(e ast.Expression) {
		if err != nil {
			return
		}
		cmp, ok := e.(ast.Compare)
		if !ok {
			return
		}
		ref, ok := cmp.Lhs.(ast.AttrRef)
		if !ok || !ref.Path.IsSimple() {
			return
		}
		declared, known := ts.AttrType(ref.Path.Root())
		if !known {
			return
		}
		for _, rhs := range rhsOperands(cmp) {
			lit, ok := rhs.(ast.LiteralExpr)
			if !ok {
				continue
			}
			if !literalMatchesType(lit.Value, declared) {
				err = &Error{Kind: TypeMismatch, Message: "attribute " + ref.Path.Root() + " expects " + string(declared)}
				return
			}
		}
	})
	return err
}

func rhsOperands(cmp ast.Compare) []ast.Expression {
	if cmp.Rhs != nil {
		return []ast.Expression{cmp.Rhs}
	}
	return cmp.RhsList
}

// walkExpression visits every node in expr, including expr itself,
// depth-first.
func walkExpression(expr ast.Expression, visit func(ast.Expression)) {
	if expr == nil {
		return
	}
	visit(expr)
	switch e := expr.(type) {
	case ast.And:
		for _, op := range e.Operands {
			walkExpression(op, visit)
		}
	case ast.Or:
		for _, op := range e.Operands {
			walkExpression(op, visit)
		}
	case ast.Not:
		walkExpression(e.Operand, visit)
	case ast.Compare:
		walkExpression(e.Lhs, visit)
		if e.Rhs != nil {
			walkExpression(e.Rhs, visit)
		}
		for _, r := range e.RhsList {
			walkExpression(r, visit)
		}
	case ast.FunctionCall:
		for _, arg := range e.Args {
			walkExpression(arg, visit)
		}
	}
}

// literalMatchesType reports whether lit's DynamoDB value kind is compatible
// with declared. Sets are accepted against their scalar counterparts since
// a bare literal inside a SET-membership comparison is still scalar.
func literalMatchesType(lit ast.Literal, declared ast.ScalarType) bool {
	switch declared {
	case ast.TypeString:
		return lit.Kind == ast.KString
	case ast.TypeNumber:
		return lit.Kind == ast.KNumber
	case ast.TypeBinary:
		return lit.Kind == ast.KBinary
	case ast.TypeBool:
		return lit.Kind == ast.KBool
	case ast.TypeStringSet:
		return lit.Kind == ast.KStringSet || lit.Kind == ast.KString
	case ast.TypeNumberSet:
		return lit.Kind == ast.KNumberSet || lit.Kind == ast.KNumber
	case ast.TypeBinarySet:
		return lit.Kind == ast.KBinarySet || lit.Kind == ast.KBinary
	default:
		return true
	}
}

// checkOrderBy verifies attr is the range key of the selected access
// path (the index, if USING was given, else the primary key).
func checkOrderBy(attr string, ts *schema.TableSchema, idx *schema.IndexSchema) error {
	var rangeKey *schema.KeySchema
	if idx != nil {
		rangeKey = idx.Range
	} else {
		rangeKey = ts.Range
	}
	if rangeKey == nil || rangeKey.Name != attr {
		return &Error{Kind: InvalidKeyUsage, Message: "ORDER BY " + attr + " does not match the range key of the chosen access path"}
	}
	return nil
}

// isConstrainedByAnyKey reports whether where contains a top-level
// equality comparison on the table's primary hash key or on some
// secondary index's hash key — the minimum constraint the planner needs
// to avoid a full Scan.
func isConstrainedByAnyKey(where ast.Expression, ts *schema.TableSchema) bool {
	if where == nil {
		return false
	}
	eq := topLevelEqualityAttrs(where)
	if eq[ts.Hash.Name] {
		return true
	}
	for _, idx := range ts.Indexes {
		if eq[idx.Hash.Name] {
			return true
		}
	}
	return false
}

// topLevelEqualityAttrs collects attribute names compared with `=` at the
// top level of a (possibly AND-conjoined) expression. OR branches are not
// considered a reliable constraint and are ignored.
func topLevelEqualityAttrs(expr ast.Expression) map[string]bool {
	out := map[string]bool{}
	var collect func(ast.Expression)
	collect = func(e ast.Expression) {
		switch v := e.(type) {
		case ast.And:
			for _, op := range v.Operands {
				collect(op)
			}
		case ast.Compare:
			if v.Op != ast.OpEq {
				return
			}
			if ref, ok := v.Lhs.(ast.AttrRef); ok && ref.Path.IsSimple() {
				out[ref.Path.Root()] = true
			}
		}
	}
	collect(expr)
	return out
}
