package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/expr"
)

func TestCompileSimpleEquality(t *testing.T) {
	c := expr.New()
	e := ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("pk")}, Op: ast.OpEq, Rhs: ast.LiteralExpr{Value: ast.String("a")}}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "pk = :v0", out.Text)
	require.Equal(t, ast.String("a"), out.Values[":v0"])
}

func TestCompileReservedWordIsEscaped(t *testing.T) {
	c := expr.New()
	e := ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("status")}, Op: ast.OpEq, Rhs: ast.LiteralExpr{Value: ast.String("done")}}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "#n0 = :v0", out.Text)
	require.Equal(t, "status", out.Names["#n0"])
}

func TestCompileReusesNameTokenForRepeatedAttribute(t *testing.T) {
	c := expr.New()
	e := ast.And{Operands: []ast.Expression{
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("status")}, Op: ast.OpEq, Rhs: ast.LiteralExpr{Value: ast.String("a")}},
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("status")}, Op: ast.OpNeq, Rhs: ast.LiteralExpr{Value: ast.String("b")}},
	}}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "(#n0 = :v0) AND (#n0 <> :v1)", out.Text)
	require.Len(t, out.Names, 1)
}

func TestCompileBetween(t *testing.T) {
	c := expr.New()
	e := ast.Compare{
		Lhs: ast.AttrRef{Path: ast.NewPath("sk")}, Op: ast.OpBetween,
		RhsList: []ast.Expression{ast.LiteralExpr{Value: ast.Number("1")}, ast.LiteralExpr{Value: ast.Number("10")}},
	}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "sk BETWEEN :v0 AND :v1", out.Text)
}

func TestCompileIn(t *testing.T) {
	c := expr.New()
	e := ast.Compare{
		Lhs: ast.AttrRef{Path: ast.NewPath("sk")}, Op: ast.OpIn,
		RhsList: []ast.Expression{ast.LiteralExpr{Value: ast.String("a")}, ast.LiteralExpr{Value: ast.String("b")}},
	}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "sk IN (:v0, :v1)", out.Text)
}

func TestCompileBeginsWithAndContains(t *testing.T) {
	c := expr.New()
	e := ast.And{Operands: []ast.Expression{
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("sk")}, Op: ast.OpBeginsWith, Rhs: ast.LiteralExpr{Value: ast.String("x")}},
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("tags")}, Op: ast.OpContains, Rhs: ast.LiteralExpr{Value: ast.String("y")}},
	}}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "(begins_with(sk, :v0)) AND (contains(tags, :v1))", out.Text)
}

func TestCompileAttributeExistsAndNullChecks(t *testing.T) {
	c := expr.New()
	e := ast.And{Operands: []ast.Expression{
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("a")}, Op: ast.OpAttributeExists},
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("b")}, Op: ast.OpIsNull},
	}}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "(attribute_exists(a)) AND (attribute_type(b, :v0))", out.Text)
	require.Equal(t, ast.String("NULL"), out.Values[":v0"])
}

func TestCompileNestedPathWithIndex(t *testing.T) {
	c := expr.New()
	path := ast.NewPath("items").AppendIndex(0).Append("sku")
	e := ast.Compare{Lhs: ast.AttrRef{Path: path}, Op: ast.OpEq, Rhs: ast.LiteralExpr{Value: ast.String("x")}}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "items[0].sku = :v0", out.Text)
}

func TestCompileNotAndOr(t *testing.T) {
	c := expr.New()
	e := ast.Not{Operand: ast.Or{Operands: []ast.Expression{
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("a")}, Op: ast.OpEq, Rhs: ast.LiteralExpr{Value: ast.Number("1")}},
		ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath("b")}, Op: ast.OpEq, Rhs: ast.LiteralExpr{Value: ast.Number("2")}},
	}}}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "NOT ((a = :v0) OR (b = :v1))", out.Text)
}

func TestCompileUpdateSetArithmeticAndRemove(t *testing.T) {
	c := expr.New()
	clauses := []ast.UpdateClause{
		{Kind: ast.ClauseSet, Path: ast.NewPath("views"), Rhs: ast.ArithUpdate{Path: ast.NewPath("views"), Op: ast.ArithAdd, Rhs: ast.LiteralExpr{Value: ast.Number("1")}}},
		{Kind: ast.ClauseRemove, Path: ast.NewPath("tempField")},
		{Kind: ast.ClauseAdd, Path: ast.NewPath("counter"), Rhs: ast.LiteralExpr{Value: ast.Number("1")}},
	}
	out, err := c.CompileUpdate(clauses)
	require.NoError(t, err)
	require.Equal(t, "SET #n0 = #n0 + :v0 ADD counter :v1 REMOVE tempField", out.Text)
}

func TestCompileUpdateDeleteClause(t *testing.T) {
	c := expr.New()
	clauses := []ast.UpdateClause{
		{Kind: ast.ClauseDelete, Path: ast.NewPath("tags"), Rhs: ast.LiteralExpr{Value: ast.StringSet([]ast.Literal{ast.String("x")})}},
	}
	out, err := c.CompileUpdate(clauses)
	require.NoError(t, err)
	require.Equal(t, "DELETE tags :v0", out.Text)
}

func TestCompileFunctionCall(t *testing.T) {
	c := expr.New()
	e := ast.Compare{
		Lhs: ast.FunctionCall{Name: "size", Args: []ast.Expression{ast.AttrRef{Path: ast.NewPath("tags")}}},
		Op:  ast.OpGt, Rhs: ast.LiteralExpr{Value: ast.Number("0")},
	}
	out, err := c.CompileCondition(e)
	require.NoError(t, err)
	require.Equal(t, "size(tags) > :v0", out.Text)
}
