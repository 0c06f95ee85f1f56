// Package expr compiles an ast.Expression (and ast.UpdateClause list) into
// DynamoDB wire-format expression strings plus their
// ExpressionAttributeNames/ExpressionAttributeValues placeholder maps,
// exactly the work spec.md §4.4 calls "the expression compiler".
//
// This package intentionally does not reuse
// github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression — generalizing
// the teacher's own fixed-operator placeholder technique
// (condition.go/filter.go's uniqueKey helper) into a full recursive-tree
// walk is the one piece of logic this whole module exists to demonstrate.
package expr

import (
	"strconv"

	"github.com/dqlang/dql/ast"
)

// Compiled is the render of a single condition/filter/key-condition
// expression: the rendered string plus the placeholder maps it references.
type Compiled struct {
	Text   string
	Names  map[string]string
	Values map[string]ast.Literal
}

// Compiler allocates placeholders for one statement's worth of expressions.
// Name placeholders are reused across clauses when the same attribute
// segment reappears; value placeholders are always fresh, matching
// DynamoDB's own requirement that every ExpressionAttributeValues key be
// referenced somewhere in the compiled text.
type Compiler struct {
	segmentToken map[string]string // raw segment name -> "#nK"
	segmentName  map[string]string // "#nK" -> raw segment name
	values       map[string]ast.Literal
	nextName     int
	nextValue    int
}

// New builds an empty Compiler.
func New() *Compiler {
	return &Compiler{
		segmentToken: map[string]string{},
		segmentName:  map[string]string{},
		values:       map[string]ast.Literal{},
	}
}

// Names returns the accumulated ExpressionAttributeNames map.
func (c *Compiler) Names() map[string]string {
	out := make(map[string]string, len(c.segmentName))
	for token, name := range c.segmentName {
		out[token] = name
	}
	return out
}

// Values returns the accumulated ExpressionAttributeValues map.
func (c *Compiler) Values() map[string]ast.Literal {
	out := make(map[string]ast.Literal, len(c.values))
	for token, lit := range c.values {
		out[token] = lit
	}
	return out
}

// CompileCondition renders expr as a single condition/filter/key-condition
// expression string, accumulating its placeholders into the Compiler.
func (c *Compiler) CompileCondition(expr ast.Expression) (Compiled, error) {
	text, err := c.renderExpr(expr)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{Text: text, Names: c.Names(), Values: c.Values()}, nil
}

// CompileProjection renders a column list as a DynamoDB ProjectionExpression,
// reusing this Compiler's name placeholders so a reserved-word column
// referenced in both the projection and a filter/key condition shares one
// #nK token in the combined request.
func (c *Compiler) CompileProjection(columns []string) Compiled {
	tokens := make([]string, len(columns))
	for i, col := range columns {
		tokens[i] = c.allocSegmentToken(col)
	}
	text := ""
	for i, tok := range tokens {
		if i > 0 {
			text += ", "
		}
		text += tok
	}
	return Compiled{Text: text, Names: c.Names(), Values: c.Values()}
}

func (c *Compiler) allocValue(lit ast.Literal) string {
	token := ":v" + strconv.Itoa(c.nextValue)
	c.nextValue++
	c.values[token] = lit
	return token
}

// allocSegmentToken returns the literal segment name if it is safe to
// write unescaped, otherwise a (reused, if already allocated) `#nK`
// placeholder.
func (c *Compiler) allocSegmentToken(name string) string {
	if !needsEscape(name) {
		return name
	}
	if existing, ok := c.segmentToken[name]; ok {
		return existing
	}
	token := "#n" + strconv.Itoa(c.nextName)
	c.nextName++
	c.segmentToken[name] = token
	c.segmentName[token] = name
	return token
}

// renderPath renders an attribute path as DynamoDB document-path syntax,
// escaping only the segments that need it.
func (c *Compiler) renderPath(path ast.AttributePath) string {
	var out string
	for i, seg := range path.Segments {
		if i > 0 {
			out += "."
		}
		out += c.allocSegmentToken(seg.Name)
		if seg.HasIndex {
			out += "[" + strconv.Itoa(seg.Index) + "]"
		}
	}
	return out
}
