package expr

import (
	"fmt"
	"strings"

	"github.com/dqlang/dql/ast"
)

// renderExpr renders any Expression node: predicates, AND/OR/NOT
// connectives, function calls, attribute references, and literals used as
// function arguments.
func (c *Compiler) renderExpr(e ast.Expression) (string, error) {
	switch v := e.(type) {
	case ast.LiteralExpr:
		return c.allocValue(v.Value), nil
	case ast.AttrRef:
		return c.renderPath(v.Path), nil
	case ast.FunctionCall:
		return c.renderFunctionCall(v)
	case ast.Compare:
		return c.renderCompare(v)
	case ast.And:
		return c.renderConnective(v.Operands, "AND")
	case ast.Or:
		return c.renderConnective(v.Operands, "OR")
	case ast.Not:
		inner, err := c.renderExpr(v.Operand)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return "", fmt.Errorf("expr: unsupported expression node %T", e)
	}
}

func (c *Compiler) renderConnective(operands []ast.Expression, joiner string) (string, error) {
	parts := make([]string, len(operands))
	for i, op := range operands {
		rendered, err := c.renderExpr(op)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + rendered + ")"
	}
	return strings.Join(parts, " "+joiner+" "), nil
}

func (c *Compiler) renderFunctionCall(fn ast.FunctionCall) (string, error) {
	args := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		rendered, err := c.renderExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = rendered
	}
	return strings.ToLower(fn.Name) + "(" + strings.Join(args, ", ") + ")", nil
}

func (c *Compiler) renderCompare(cmp ast.Compare) (string, error) {
	lhs, err := c.renderExpr(cmp.Lhs)
	if err != nil {
		return "", err
	}

	switch cmp.Op {
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		rhs, err := c.renderExpr(cmp.Rhs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", lhs, cmp.Op, rhs), nil

	case ast.OpBetween:
		if len(cmp.RhsList) != 2 {
			return "", fmt.Errorf("expr: BETWEEN requires exactly two bounds, got %d", len(cmp.RhsList))
		}
		lower, err := c.renderExpr(cmp.RhsList[0])
		if err != nil {
			return "", err
		}
		upper, err := c.renderExpr(cmp.RhsList[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", lhs, lower, upper), nil

	case ast.OpIn:
		if len(cmp.RhsList) == 0 {
			return "", fmt.Errorf("expr: IN requires at least one value")
		}
		parts := make([]string, len(cmp.RhsList))
		for i, item := range cmp.RhsList {
			rendered, err := c.renderExpr(item)
			if err != nil {
				return "", err
			}
			parts[i] = rendered
		}
		return fmt.Sprintf("%s IN (%s)", lhs, strings.Join(parts, ", ")), nil

	case ast.OpContains:
		rhs, err := c.renderExpr(cmp.Rhs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("contains(%s, %s)", lhs, rhs), nil

	case ast.OpBeginsWith:
		rhs, err := c.renderExpr(cmp.Rhs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("begins_with(%s, %s)", lhs, rhs), nil

	case ast.OpAttributeExists:
		return fmt.Sprintf("attribute_exists(%s)", lhs), nil

	case ast.OpAttributeNotExists:
		return fmt.Sprintf("attribute_not_exists(%s)", lhs), nil

	case ast.OpIsNull:
		typeVal := c.allocValue(ast.String("NULL"))
		return fmt.Sprintf("attribute_type(%s, %s)", lhs, typeVal), nil

	case ast.OpIsNotNull:
		typeVal := c.allocValue(ast.String("NULL"))
		return fmt.Sprintf("NOT attribute_type(%s, %s)", lhs, typeVal), nil

	default:
		return "", fmt.Errorf("expr: unsupported comparison operator %q", cmp.Op)
	}
}
