package planner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/parser"
	"github.com/dqlang/dql/planner"
	"github.com/dqlang/dql/schema"
)

// seedSchema builds the table from spec.md's seed scenarios: HASH id:STRING,
// RANGE ts:NUMBER, GSI by_user(user:STRING).
func seedSchema() *schema.TableSchema {
	return &schema.TableSchema{
		Name: "t",
		Hash: schema.KeySchema{Name: "id", Type: ast.TypeString},
		Range: &schema.KeySchema{Name: "ts", Type: ast.TypeNumber},
		Indexes: []schema.IndexSchema{
			{Name: "by_user", Kind: ast.IndexGlobal, Hash: schema.KeySchema{Name: "user", Type: ast.TypeString}},
		},
		Attributes: map[string]ast.ScalarType{
			"id": ast.TypeString, "ts": ast.TypeNumber, "user": ast.TypeString,
		},
	}
}

func parseStmt(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err)
	return stmt
}

func TestPlanPointLookupGetItem(t *testing.T) {
	stmt := parseStmt(t, `SELECT * FROM t WHERE id = 'a' AND ts = 1`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyGetItem, plan.Strategy)
	require.Len(t, plan.PointKeys, 1)
	require.Equal(t, ast.String("a"), plan.PointKeys[0]["id"])
	require.Equal(t, ast.Number("1"), plan.PointKeys[0]["ts"])
}

func TestPlanQueryFoldsRangeBoundsIntoBetween(t *testing.T) {
	stmt := parseStmt(t, `SELECT * FROM t WHERE id = 'a' AND ts > 10 AND ts < 20`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyQuery, plan.Strategy)
	require.Contains(t, plan.KeyCondition.Text, "BETWEEN")
	require.NotNil(t, plan.Filter)
}

func TestPlanQueryOnSecondaryIndex(t *testing.T) {
	stmt := parseStmt(t, `SELECT * FROM t WHERE user = 'x'`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyQuery, plan.Strategy)
	require.Equal(t, "by_user", plan.IndexName)
}

func TestPlanUpdateDirectItem(t *testing.T) {
	stmt := parseStmt(t, `UPDATE t ADD views 1 WHERE id = 'a' AND ts = 1`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyUpdateItemDirect, plan.Strategy)
	require.Contains(t, plan.Update.Text, "ADD")
}

func TestPlanDeleteTwoPhaseOnIndexProjectsKeys(t *testing.T) {
	stmt := parseStmt(t, `DELETE FROM t CONFIRM SCAN WHERE user = 'x'`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyTwoPhaseDelete, plan.Strategy)
	require.Equal(t, "by_user", plan.IndexName)
	require.Equal(t, []string{"id", "ts"}, plan.Projection)
}

func TestPlanCountUsesQueryWithCountOnly(t *testing.T) {
	stmt := parseStmt(t, `SELECT count(*) FROM t WHERE id = 'a'`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyQuery, plan.Strategy)
	require.True(t, plan.CountOnly)
}

func TestPlanIsDeterministic(t *testing.T) {
	stmt1 := parseStmt(t, `SELECT * FROM t WHERE id = 'a' AND ts > 10 AND ts < 20`)
	stmt2 := parseStmt(t, `SELECT * FROM t WHERE id = 'a' AND ts > 10 AND ts < 20`)
	plan1, err := planner.Plan(stmt1, seedSchema())
	require.NoError(t, err)
	plan2, err := planner.Plan(stmt2, seedSchema())
	require.NoError(t, err)
	require.Equal(t, plan1.Description, plan2.Description)
}

func TestPlanScanRequiresExplicitScanStatement(t *testing.T) {
	stmt := parseStmt(t, `SCAN * FROM t FILTER contains(tags, 'x')`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyScan, plan.Strategy)
}

func TestPlanSelectWithNoKeyConstraintFallsBackToScan(t *testing.T) {
	stmt := parseStmt(t, `SELECT * FROM t WHERE ts > 5`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyScan, plan.Strategy)
}

func TestPlanInsertSingleRowIsPutItem(t *testing.T) {
	stmt := parseStmt(t, `INSERT INTO t (id, ts) VALUES ('a', 1) IF NOT EXISTS`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyPutItem, plan.Strategy)
	require.NotNil(t, plan.Condition)
	require.Contains(t, plan.Condition.Text, "attribute_not_exists")
}

func TestPlanInsertMultiRowIsBatchWrite(t *testing.T) {
	stmt := parseStmt(t, `INSERT INTO t (id, ts) VALUES ('a', 1), ('b', 2)`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyBatchWritePut, plan.Strategy)
	require.Len(t, plan.PutItems, 2)
}

func TestPlanCreateTableCarriesDDL(t *testing.T) {
	stmt := parseStmt(t, `CREATE TABLE t2 (id STRING HASH KEY, PAY_PER_REQUEST)`)
	plan, err := planner.Plan(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, planner.StrategyCreateTable, plan.Strategy)
	_, ok := plan.DDL.(*ast.CreateTable)
	require.True(t, ok)
}

func TestPlanExplainUnwrapsInnerStatement(t *testing.T) {
	stmt := parseStmt(t, `EXPLAIN SELECT * FROM t WHERE id = 'a' AND ts = 1`)
	plan, err := planner.Plan(stmt, seedSchema())
	require.NoError(t, err)
	require.Equal(t, planner.StrategyGetItem, plan.Strategy)
}
