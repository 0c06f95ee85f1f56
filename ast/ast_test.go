package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dqlang/dql/ast"
)

func TestAttributePathAppendAndIndex(t *testing.T) {
	p := ast.NewPath("items").Append("tags").AppendIndex(2)
	require.Equal(t, "items.tags[2]", p.String())
	require.Equal(t, "items", p.Root())
	require.False(t, p.IsSimple())
}

func TestAttributePathAppendDoesNotMutateReceiver(t *testing.T) {
	base := ast.NewPath("a")
	child := base.Append("b")
	require.Equal(t, "a", base.String())
	require.Equal(t, "a.b", child.String())
}

func TestAttributePathIsSimple(t *testing.T) {
	require.True(t, ast.NewPath("pk").IsSimple())
	require.False(t, ast.NewPath("pk").AppendIndex(0).IsSimple())
	require.False(t, ast.NewPath("pk").Append("sk").IsSimple())
}

func TestCompareOpIsKeyCompatible(t *testing.T) {
	compatible := []ast.CompareOp{ast.OpEq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte, ast.OpBetween, ast.OpBeginsWith}
	for _, op := range compatible {
		require.Truef(t, op.IsKeyCompatible(), "%s should be key-compatible", op)
	}
	incompatible := []ast.CompareOp{ast.OpNeq, ast.OpIn, ast.OpContains, ast.OpAttributeExists, ast.OpAttributeNotExists, ast.OpIsNull, ast.OpIsNotNull}
	for _, op := range incompatible {
		require.Falsef(t, op.IsKeyCompatible(), "%s should not be key-compatible", op)
	}
}

func TestLiteralConstructorsSetKind(t *testing.T) {
	require.Equal(t, ast.KString, ast.String("x").Kind)
	require.Equal(t, ast.KNumber, ast.Number("3.14").Kind)
	require.Equal(t, "3.14", ast.Number("3.14").Str)
	require.Equal(t, ast.KBinary, ast.Binary([]byte{1, 2}).Kind)
	require.Equal(t, ast.KBool, ast.Bool(true).Kind)
	require.Equal(t, ast.KNull, ast.Null().Kind)
	require.Equal(t, ast.KStringSet, ast.StringSet([]ast.Literal{ast.String("a")}).Kind)
}

func TestLiteralKindString(t *testing.T) {
	require.Equal(t, "STRING SET", ast.KStringSet.String())
	require.Equal(t, "MAP", ast.KMap.String())
}

func TestExpressionNodesSatisfyInterface(t *testing.T) {
	var exprs = []ast.Expression{
		ast.LiteralExpr{Value: ast.Number("1")},
		ast.AttrRef{Path: ast.NewPath("pk")},
		ast.Compare{Op: ast.OpEq},
		ast.And{},
		ast.Or{},
		ast.Not{},
		ast.FunctionCall{Name: "size"},
		ast.ArithUpdate{Op: ast.ArithAdd},
	}
	require.Len(t, exprs, 8)
}

func TestStatementNodesSatisfyInterface(t *testing.T) {
	var stmts = []ast.Statement{
		&ast.Select{},
		&ast.Count{},
		&ast.Scan{},
		&ast.Insert{},
		&ast.Update{},
		&ast.Delete{},
		&ast.CreateTable{},
		&ast.AlterTable{},
		&ast.DropTable{},
		&ast.Explain{},
		&ast.Analyze{},
		&ast.Dump{},
		&ast.Load{},
		&ast.Help{},
	}
	require.Len(t, stmts, 14)
}
