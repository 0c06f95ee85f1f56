package planner

import (
	"fmt"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/expr"
	"github.com/dqlang/dql/schema"
)

// Plan builds an ExecutionPlan for stmt against its already-resolved
// TableSchema. ts is nil for statements with no single table (Dump/Load/
// Help), which Plan refuses — the engine handles those directly.
func Plan(stmt ast.Statement, ts *schema.TableSchema) (*ExecutionPlan, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return planSelect(s, ts)
	case *ast.Count:
		return planCount(s, ts)
	case *ast.Scan:
		return planScan(s, ts)
	case *ast.Insert:
		return planInsert(s, ts)
	case *ast.Update:
		return planUpdate(s, ts)
	case *ast.Delete:
		return planDelete(s, ts)
	case *ast.CreateTable:
		return &ExecutionPlan{Strategy: StrategyCreateTable, Table: s.Name, DDL: s, Description: "CreateTable " + s.Name}, nil
	case *ast.AlterTable:
		return &ExecutionPlan{Strategy: StrategyUpdateTable, Table: s.Name, DDL: s, Description: "UpdateTable " + s.Name}, nil
	case *ast.DropTable:
		return &ExecutionPlan{Strategy: StrategyDeleteTable, Table: s.Name, DDL: s, Description: "DeleteTable " + s.Name}, nil
	case *ast.Explain:
		return Plan(s.Stmt, ts)
	case *ast.Analyze:
		return Plan(s.Stmt, ts)
	default:
		return nil, fmt.Errorf("planner: %T has no execution plan", stmt)
	}
}

func literalOf(e ast.Expression) (ast.Literal, bool) {
	lit, ok := e.(ast.LiteralExpr)
	if !ok {
		return ast.Literal{}, false
	}
	return lit.Value, true
}

func planSelect(s *ast.Select, ts *schema.TableSchema) (*ExecutionPlan, error) {
	plan, err := planRead(s.Where, ts, s.Index, s.Columns)
	if err != nil {
		return nil, err
	}
	plan.Projection = s.Columns
	plan.Limit = s.Limit
	plan.ConsistentRead = s.ConsistentRead
	plan.ScanForward = !s.OrderByDesc
	return plan, nil
}

func planCount(s *ast.Count, ts *schema.TableSchema) (*ExecutionPlan, error) {
	plan, err := planRead(s.Where, ts, s.Index, nil)
	if err != nil {
		return nil, err
	}
	plan.CountOnly = true
	return plan, nil
}

func planScan(s *ast.Scan, ts *schema.TableSchema) (*ExecutionPlan, error) {
	c := expr.New()
	plan := &ExecutionPlan{
		Strategy:   StrategyScan,
		Table:      ts.Name,
		IndexName:  s.Index,
		Projection: s.Columns,
		Limit:      s.Limit,
		Segments:   s.Threads,
	}
	if s.Filter != nil {
		compiled, err := c.CompileCondition(s.Filter)
		if err != nil {
			return nil, err
		}
		plan.Filter = &compiled
	}
	attachProjection(plan, c, s.Columns)
	plan.Description = describePlan(plan)
	return plan, nil
}

// planRead implements the point-lookup -> query-on-primary -> query-on-index
// -> scan preference order shared by SELECT and COUNT, compiling the
// projection (if any) into the same Compiler as the filter/key condition so
// a reserved-word column shares its placeholder token across clauses.
func planRead(where ast.Expression, ts *schema.TableSchema, requestedIndex string, columns []string) (*ExecutionPlan, error) {
	cand, match, point := chooseAccessPath(where, ts, requestedIndex)

	if point {
		return planPointLookup(ts, cand, match, columns)
	}
	if cand.hashName == "" {
		c := expr.New()
		plan := &ExecutionPlan{Strategy: StrategyScan, Table: ts.Name}
		if where != nil {
			compiled, err := c.CompileCondition(where)
			if err != nil {
				return nil, err
			}
			plan.Filter = &compiled
		}
		attachProjection(plan, c, columns)
		plan.Description = describePlan(plan)
		return plan, nil
	}
	return planQuery(ts, cand, match, columns)
}

func attachProjection(plan *ExecutionPlan, c *expr.Compiler, columns []string) {
	if len(columns) == 0 {
		return
	}
	compiled := c.CompileProjection(columns)
	plan.ProjectionExpr = &compiled
}

func planPointLookup(ts *schema.TableSchema, cand candidate, match keyMatch, columns []string) (*ExecutionPlan, error) {
	var rangeLit *ast.Literal
	if match.rangeCmp != nil {
		lit, ok := literalOf(match.rangeCmp.Rhs)
		if !ok {
			return planQuery(ts, cand, match, columns)
		}
		rangeLit = &lit
	}

	if match.hashEq != nil {
		lit, ok := literalOf(match.hashEq)
		if !ok {
			return planQuery(ts, cand, match, columns)
		}
		key := map[string]ast.Literal{ts.Hash.Name: lit}
		if rangeLit != nil && ts.Range != nil {
			key[ts.Range.Name] = *rangeLit
		}
		plan := &ExecutionPlan{Strategy: StrategyGetItem, Table: ts.Name, PointKeys: []map[string]ast.Literal{key}}
		attachProjection(plan, expr.New(), columns)
		plan.Description = describePlan(plan)
		return plan, nil
	}

	keys := make([]map[string]ast.Literal, 0, len(match.hashIn))
	for _, item := range match.hashIn {
		lit, ok := literalOf(item)
		if !ok {
			return planQuery(ts, cand, match, columns)
		}
		key := map[string]ast.Literal{ts.Hash.Name: lit}
		if rangeLit != nil && ts.Range != nil {
			key[ts.Range.Name] = *rangeLit
		}
		keys = append(keys, key)
	}
	plan := &ExecutionPlan{Strategy: StrategyBatchGetItem, Table: ts.Name, PointKeys: keys}
	attachProjection(plan, expr.New(), columns)
	plan.Description = describePlan(plan)
	return plan, nil
}

func planQuery(ts *schema.TableSchema, cand candidate, match keyMatch, columns []string) (*ExecutionPlan, error) {
	c := expr.New()
	keyExpr := buildKeyExpr(cand.hashName, match)
	keyCompiled, err := c.CompileCondition(keyExpr)
	if err != nil {
		return nil, err
	}
	plan := &ExecutionPlan{
		Strategy:     StrategyQuery,
		Table:        ts.Name,
		IndexName:    cand.name,
		KeyCondition: &keyCompiled,
	}
	if residual := residualExpr(match.residual); residual != nil {
		filterCompiled, err := c.CompileCondition(residual)
		if err != nil {
			return nil, err
		}
		plan.Filter = &filterCompiled
	}
	attachProjection(plan, c, columns)
	plan.Description = describePlan(plan)
	return plan, nil
}

func buildKeyExpr(hashName string, match keyMatch) ast.Expression {
	hashEq := ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath(hashName)}, Op: ast.OpEq, Rhs: match.hashEq}
	if match.rangeCmp == nil {
		return hashEq
	}
	return ast.And{Operands: []ast.Expression{hashEq, *match.rangeCmp}}
}

func planInsert(s *ast.Insert, ts *schema.TableSchema) (*ExecutionPlan, error) {
	items := make([]map[string]ast.Literal, 0, len(s.Rows))
	for _, row := range s.Rows {
		item := map[string]ast.Literal{}
		for i, col := range s.Columns {
			if i < len(row) {
				item[col] = row[i]
			}
		}
		items = append(items, item)
	}
	plan := &ExecutionPlan{Table: ts.Name, PutItems: items}
	if len(items) == 1 {
		plan.Strategy = StrategyPutItem
	} else {
		plan.Strategy = StrategyBatchWritePut
	}
	if s.IfNotExists {
		c := expr.New()
		cond := ast.Compare{Lhs: ast.AttrRef{Path: ast.NewPath(ts.Hash.Name)}, Op: ast.OpAttributeNotExists}
		compiled, err := c.CompileCondition(cond)
		if err != nil {
			return nil, err
		}
		plan.Condition = &compiled
	}
	plan.Description = describePlan(plan)
	return plan, nil
}

func planUpdate(s *ast.Update, ts *schema.TableSchema) (*ExecutionPlan, error) {
	cand, match, point := chooseAccessPath(s.Where, ts, "")
	c := expr.New()
	updateCompiled, err := c.CompileUpdate(s.Clauses)
	if err != nil {
		return nil, err
	}

	if point {
		lit, _ := literalOf(match.hashEq)
		key := map[string]ast.Literal{ts.Hash.Name: lit}
		if match.rangeCmp != nil {
			if rl, ok := literalOf(match.rangeCmp.Rhs); ok {
				key[ts.Range.Name] = rl
			}
		}
		plan := &ExecutionPlan{
			Strategy:     StrategyUpdateItemDirect,
			Table:        ts.Name,
			PointKeys:    []map[string]ast.Literal{key},
			Update:       &updateCompiled,
			ReturnValues: s.Returns,
		}
		plan.Description = describePlan(plan)
		return plan, nil
	}

	plan := &ExecutionPlan{
		Strategy:     StrategyTwoPhaseUpdate,
		Table:        ts.Name,
		IndexName:    cand.name,
		Projection:   ts.KeyAttrNames(),
		Update:       &updateCompiled,
		ReturnValues: s.Returns,
	}
	kc := expr.New()
	if cand.hashName != "" {
		keyExpr := buildKeyExpr(cand.hashName, match)
		keyCompiled, err := kc.CompileCondition(keyExpr)
		if err != nil {
			return nil, err
		}
		plan.KeyCondition = &keyCompiled
		if residual := residualExpr(match.residual); residual != nil {
			filterCompiled, err := kc.CompileCondition(residual)
			if err != nil {
				return nil, err
			}
			plan.Filter = &filterCompiled
		}
	} else if s.Where != nil {
		filterCompiled, err := kc.CompileCondition(s.Where)
		if err != nil {
			return nil, err
		}
		plan.Filter = &filterCompiled
	}
	attachProjection(plan, kc, plan.Projection)
	plan.Description = describePlan(plan)
	return plan, nil
}

func planDelete(s *ast.Delete, ts *schema.TableSchema) (*ExecutionPlan, error) {
	cand, match, point := chooseAccessPath(s.Where, ts, "")

	if point {
		lit, _ := literalOf(match.hashEq)
		key := map[string]ast.Literal{ts.Hash.Name: lit}
		if match.rangeCmp != nil {
			if rl, ok := literalOf(match.rangeCmp.Rhs); ok {
				key[ts.Range.Name] = rl
			}
		}
		plan := &ExecutionPlan{Strategy: StrategyDeleteItemDirect, Table: ts.Name, PointKeys: []map[string]ast.Literal{key}, ReturnValues: s.Returns}
		plan.Description = describePlan(plan)
		return plan, nil
	}

	plan := &ExecutionPlan{
		Strategy:     StrategyTwoPhaseDelete,
		Table:        ts.Name,
		IndexName:    cand.name,
		Projection:   ts.KeyAttrNames(),
		ReturnValues: s.Returns,
	}
	kc := expr.New()
	if cand.hashName != "" {
		keyExpr := buildKeyExpr(cand.hashName, match)
		keyCompiled, err := kc.CompileCondition(keyExpr)
		if err != nil {
			return nil, err
		}
		plan.KeyCondition = &keyCompiled
		if residual := residualExpr(match.residual); residual != nil {
			filterCompiled, err := kc.CompileCondition(residual)
			if err != nil {
				return nil, err
			}
			plan.Filter = &filterCompiled
		}
	} else if s.Where != nil {
		filterCompiled, err := kc.CompileCondition(s.Where)
		if err != nil {
			return nil, err
		}
		plan.Filter = &filterCompiled
	}
	attachProjection(plan, kc, plan.Projection)
	plan.Description = describePlan(plan)
	return plan, nil
}

func describePlan(p *ExecutionPlan) string {
	desc := p.Strategy.String() + " on " + p.Table
	if p.IndexName != "" {
		desc += " using " + p.IndexName
	}
	if p.KeyCondition != nil {
		desc += "; KeyCondition=" + p.KeyCondition.Text
	}
	if p.Filter != nil {
		desc += "; Filter=" + p.Filter.Text
	}
	if p.Update != nil {
		desc += "; Update=" + p.Update.Text
	}
	if p.Condition != nil {
		desc += "; Condition=" + p.Condition.Text
	}
	if p.ProjectionExpr != nil {
		desc += "; Projection=" + p.ProjectionExpr.Text
	}
	return desc
}
