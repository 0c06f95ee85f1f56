package expr

import (
	"fmt"
	"strings"

	"github.com/dqlang/dql/ast"
)

// CompileUpdate renders an UPDATE statement's clauses into a single
// DynamoDB UpdateExpression, split into its SET/ADD/REMOVE/DELETE
// sub-clauses in that fixed order (spec.md §4.4).
func (c *Compiler) CompileUpdate(clauses []ast.UpdateClause) (Compiled, error) {
	var sets, adds, removes, deletes []string

	for _, clause := range clauses {
		path := c.renderPath(clause.Path)
		switch clause.Kind {
		case ast.ClauseSet:
			rhs, err := c.renderSetRhs(clause.Rhs)
			if err != nil {
				return Compiled{}, err
			}
			sets = append(sets, fmt.Sprintf("%s = %s", path, rhs))
		case ast.ClauseAdd:
			val, err := c.renderExpr(clause.Rhs)
			if err != nil {
				return Compiled{}, err
			}
			adds = append(adds, fmt.Sprintf("%s %s", path, val))
		case ast.ClauseRemove:
			removes = append(removes, path)
		case ast.ClauseDelete:
			val, err := c.renderExpr(clause.Rhs)
			if err != nil {
				return Compiled{}, err
			}
			deletes = append(deletes, fmt.Sprintf("%s %s", path, val))
		default:
			return Compiled{}, fmt.Errorf("expr: unsupported update clause kind %v", clause.Kind)
		}
	}

	var groups []string
	if len(sets) > 0 {
		groups = append(groups, "SET "+strings.Join(sets, ", "))
	}
	if len(adds) > 0 {
		groups = append(groups, "ADD "+strings.Join(adds, ", "))
	}
	if len(removes) > 0 {
		groups = append(groups, "REMOVE "+strings.Join(removes, ", "))
	}
	if len(deletes) > 0 {
		groups = append(groups, "DELETE "+strings.Join(deletes, ", "))
	}

	return Compiled{Text: strings.Join(groups, " "), Names: c.Names(), Values: c.Values()}, nil
}

// renderSetRhs renders the right-hand side of a SET clause: either a plain
// value/path/function-call operand, or the `path = path OP value`
// arithmetic shorthand captured as ast.ArithUpdate.
func (c *Compiler) renderSetRhs(rhs ast.Expression) (string, error) {
	arith, ok := rhs.(ast.ArithUpdate)
	if !ok {
		return c.renderExpr(rhs)
	}
	path := c.renderPath(arith.Path)
	value, err := c.renderExpr(arith.Rhs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", path, arith.Op, value), nil
}
