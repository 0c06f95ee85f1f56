package planner

import (
	"sort"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/schema"
)

// keyMatch is the result of testing a WHERE/FILTER expression against one
// candidate key schema (the base table's primary key, or one secondary
// index's key).
type keyMatch struct {
	hashEq   ast.Expression   // non-nil if hashName = <value> was found
	hashIn   []ast.Expression // non-nil if hashName IN (...) was found
	rangeCmp *ast.Compare     // non-nil if a key-compatible comparison on rangeName was found
	residual []ast.Expression
}

// analyzeKeyMatch walks the top-level AND conjuncts of where (a bare
// non-AND expression is treated as a single conjunct) and classifies each
// against hashName/rangeName. Only one hash equality and one range
// comparison are kept; everything else — including a second comparison on
// the range attribute — becomes residual, with one exception: a pair of
// complementary bounds (`> / >=` together with `< / <=`) on the range
// attribute folds into a single BETWEEN, with strict ends pushed back into
// residual as exclusions so the synthesized BETWEEN's inclusive bounds
// don't admit extra items.
func analyzeKeyMatch(where ast.Expression, hashName, rangeName string) keyMatch {
	var m keyMatch
	conjuncts := flattenAnd(where)

	var rangeBounds []*ast.Compare
	var rest []ast.Expression

	for _, c := range conjuncts {
		cmp, ok := c.(ast.Compare)
		if !ok {
			rest = append(rest, c)
			continue
		}
		ref, ok := cmp.Lhs.(ast.AttrRef)
		if !ok || !ref.Path.IsSimple() {
			rest = append(rest, c)
			continue
		}
		root := ref.Path.Root()

		switch {
		case root == hashName && cmp.Op == ast.OpEq && m.hashEq == nil:
			m.hashEq = cmp.Rhs
		case root == hashName && cmp.Op == ast.OpIn && m.hashIn == nil:
			m.hashIn = cmp.RhsList
		case rangeName != "" && root == rangeName && cmp.Op.IsKeyCompatible():
			cmpCopy := cmp
			rangeBounds = append(rangeBounds, &cmpCopy)
		default:
			rest = append(rest, c)
		}
	}

	m.rangeCmp, rest = foldRangeBounds(rangeBounds, rest)
	m.residual = rest
	return m
}

// foldRangeBounds decides what, if anything, becomes the single allowed
// range-key comparison, pushing every other range bound into residual
// (as a FilterExpression conjunct).
func foldRangeBounds(bounds []*ast.Compare, rest []ast.Expression) (*ast.Compare, []ast.Expression) {
	if len(bounds) == 0 {
		return nil, rest
	}
	if len(bounds) == 1 {
		return bounds[0], rest
	}

	lower, upper := pickComplementaryPair(bounds)
	if lower == nil || upper == nil {
		// More than one bound and they don't form a clean range: keep the
		// first as the key condition, push the rest to residual.
		rest = append(rest, toExprSlice(bounds[1:])...)
		return bounds[0], rest
	}

	folded := ast.Compare{
		Lhs:     lower.Lhs,
		Op:      ast.OpBetween,
		RhsList: []ast.Expression{lower.Rhs, upper.Rhs},
	}
	if lower.Op == ast.OpGt {
		rest = append(rest, ast.Compare{Lhs: lower.Lhs, Op: ast.OpNeq, Rhs: lower.Rhs})
	}
	if upper.Op == ast.OpLt {
		rest = append(rest, ast.Compare{Lhs: upper.Lhs, Op: ast.OpNeq, Rhs: upper.Rhs})
	}
	for _, b := range bounds {
		if b != lower && b != upper {
			rest = append(rest, *b)
		}
	}
	return &folded, rest
}

func pickComplementaryPair(bounds []*ast.Compare) (lower, upper *ast.Compare) {
	for _, b := range bounds {
		switch b.Op {
		case ast.OpGt, ast.OpGte:
			if lower == nil {
				lower = b
			}
		case ast.OpLt, ast.OpLte:
			if upper == nil {
				upper = b
			}
		}
	}
	return lower, upper
}

func toExprSlice(cmps []*ast.Compare) []ast.Expression {
	out := make([]ast.Expression, len(cmps))
	for i, c := range cmps {
		out[i] = *c
	}
	return out
}

// flattenAnd returns the top-level AND conjuncts of e, or a single-element
// slice if e is not an And (nil yields an empty slice).
func flattenAnd(e ast.Expression) []ast.Expression {
	if e == nil {
		return nil
	}
	if and, ok := e.(ast.And); ok {
		return and.Operands
	}
	return []ast.Expression{e}
}

func residualExpr(residual []ast.Expression) ast.Expression {
	switch len(residual) {
	case 0:
		return nil
	case 1:
		return residual[0]
	default:
		return ast.And{Operands: residual}
	}
}

// candidate describes one index (or the base table, with Name == "") the
// planner can choose to satisfy a query.
type candidate struct {
	name      string
	kind      ast.IndexKind
	hashName  string
	rangeName string
}

// chooseAccessPath runs the planner's four ordered rules and returns the
// matched candidate (empty name = base table), its keyMatch, and whether a
// point lookup (GetItem-eligible) was found.
func chooseAccessPath(where ast.Expression, ts *schema.TableSchema, requestedIndex string) (candidate, keyMatch, bool) {
	base := candidate{hashName: ts.Hash.Name}
	if ts.Range != nil {
		base.rangeName = ts.Range.Name
	}

	baseMatch := analyzeKeyMatch(where, base.hashName, base.rangeName)
	if isPointLookup(baseMatch, base.rangeName) {
		return base, baseMatch, true
	}
	if baseMatch.hashEq != nil || baseMatch.hashIn != nil {
		return base, baseMatch, false
	}

	candidates := indexCandidates(ts, requestedIndex)
	for _, c := range candidates {
		m := analyzeKeyMatch(where, c.hashName, c.rangeName)
		if m.hashEq != nil || m.hashIn != nil {
			return c, m, isPointLookup(m, c.rangeName) && c.kind == ast.IndexLocal
		}
	}

	return candidate{}, keyMatch{residual: flattenAnd(where)}, false
}

func isPointLookup(m keyMatch, rangeName string) bool {
	if len(m.residual) > 0 {
		return false
	}
	if m.hashEq == nil {
		return false
	}
	if rangeName == "" {
		return true
	}
	return m.rangeCmp != nil && m.rangeCmp.Op == ast.OpEq
}

// indexCandidates orders a table's secondary indexes per spec.md §4.4 rule
// 3's tie-break: an explicit USING name first (alone), else LSIs before
// GSIs, each group in lexicographic name order.
func indexCandidates(ts *schema.TableSchema, requestedIndex string) []candidate {
	if requestedIndex != "" {
		if idx, ok := ts.IndexByName(requestedIndex); ok {
			return []candidate{indexToCandidate(idx)}
		}
		return nil
	}

	all := make([]candidate, 0, len(ts.Indexes))
	for _, idx := range ts.Indexes {
		all = append(all, indexToCandidate(idx))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].kind != all[j].kind {
			return all[i].kind == ast.IndexLocal
		}
		return all[i].name < all[j].name
	})
	return all
}

func indexToCandidate(idx schema.IndexSchema) candidate {
	c := candidate{name: idx.Name, kind: idx.Kind, hashName: idx.Hash.Name}
	if idx.Range != nil {
		c.rangeName = idx.Range.Name
	}
	return c
}
