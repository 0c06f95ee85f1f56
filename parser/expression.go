package parser

import (
	"encoding/base64"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/token"
)

// parseExpression parses the full boolean-expression grammar used by WHERE,
// FILTER and condition clauses. Precedence, loosest first: OR, AND, unary
// NOT, comparison. Comparisons do not chain (`a = b = c` is not legal) —
// each comparison operand is a path/literal/function-call term.
func (p *parser) parseExpression() (ast.Expression, error) {
	return p.parseOrExpr()
}

func (p *parser) parseOrExpr() (ast.Expression, error) {
	first, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	operands := []ast.Expression{first}
	for p.isKeyword("OR") {
		p.advance()
		next, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return ast.Or{Operands: operands}, nil
}

func (p *parser) parseAndExpr() (ast.Expression, error) {
	first, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	operands := []ast.Expression{first}
	for p.isKeyword("AND") {
		p.advance()
		next, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return ast.And{Operands: operands}, nil
}

func (p *parser) parseNotExpr() (ast.Expression, error) {
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return ast.Not{Operand: operand}, nil
	}
	return p.parsePrimaryExpr()
}

// parsePrimaryExpr parses a parenthesized expression or a predicate.
func (p *parser) parsePrimaryExpr() (ast.Expression, error) {
	if p.isPunct("(") {
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parsePredicate()
}

// parsePredicate parses a single comparison/predicate term: an operand
// followed by an optional comparison operator and its right-hand side(s).
// A bare operand (e.g. a boolean function call like begins_with wrapped as
// a top-level predicate) is also accepted.
func (p *parser) parsePredicate() (ast.Expression, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch {
	case p.isOperator("="), p.isOperator("<>"), p.isOperator("<"), p.isOperator("<="), p.isOperator(">"), p.isOperator(">="):
		op := ast.CompareOp(p.advance().Lexeme)
		rhs, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return ast.Compare{Lhs: lhs, Op: op, Rhs: rhs}, nil

	case p.isKeyword("BETWEEN"):
		p.advance()
		lower, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		upper, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return ast.Compare{Lhs: lhs, Op: ast.OpBetween, RhsList: []ast.Expression{lower, upper}}, nil

	case p.isKeyword("IN"):
		p.advance()
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var list []ast.Expression
		for {
			item, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			list = append(list, item)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.Compare{Lhs: lhs, Op: ast.OpIn, RhsList: list}, nil

	case p.isKeyword("CONTAINS"):
		p.advance()
		rhs, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return ast.Compare{Lhs: lhs, Op: ast.OpContains, Rhs: rhs}, nil

	case p.isKeyword("BEGINS_WITH"):
		p.advance()
		rhs, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return ast.Compare{Lhs: lhs, Op: ast.OpBeginsWith, Rhs: rhs}, nil

	case p.isKeyword("IS"):
		p.advance()
		if p.isKeyword("NOT") {
			p.advance()
			if _, err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			return ast.Compare{Lhs: lhs, Op: ast.OpIsNotNull}, nil
		}
		if _, err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return ast.Compare{Lhs: lhs, Op: ast.OpIsNull}, nil

	default:
		return lhs, nil
	}
}

// parseOperand parses a single term: a literal, an attribute path, a
// function call (e.g. attribute_exists(path), size(path)), or a
// parenthesized sub-expression used as a value (rare, but harmless to
// accept for symmetry with parsePrimaryExpr).
func (p *parser) parseOperand() (ast.Expression, error) {
	if p.isPunct("(") {
		p.advance()
		inner, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	switch p.peek().Kind {
	case token.String, token.Number, token.Binary, token.Bool, token.Null:
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return ast.LiteralExpr{Value: lit}, nil

	case token.Punctuation:
		if p.isPunct("[") || p.isPunct("{") {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			return ast.LiteralExpr{Value: lit}, nil
		}
		return nil, p.unexpected("an expression")

	case token.Keyword:
		switch {
		case p.isKeyword("ATTRIBUTE_EXISTS"), p.isKeyword("ATTRIBUTE_NOT_EXISTS"):
			return p.parseExistsPredicate()
		default:
			return nil, p.unexpected("an expression")
		}

	case token.Identifier:
		if p.peekAt(1).Is(token.Punctuation, "(") {
			return p.parseFunctionCall()
		}
		path, err := p.parseAttributePath()
		if err != nil {
			return nil, err
		}
		return ast.AttrRef{Path: path}, nil

	default:
		return nil, p.unexpected("an expression")
	}
}

// parseExistsPredicate handles attribute_exists(path)/attribute_not_exists(path)
// written as a predicate in their own right rather than as a Compare operand.
func (p *parser) parseExistsPredicate() (ast.Expression, error) {
	op := ast.OpAttributeExists
	if p.isKeyword("ATTRIBUTE_NOT_EXISTS") {
		op = ast.OpAttributeNotExists
	}
	p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	path, err := p.parseAttributePath()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.Compare{Lhs: ast.AttrRef{Path: path}, Op: op}, nil
}

func (p *parser) parseFunctionCall() (ast.Expression, error) {
	name, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !p.isPunct(")") {
		for {
			arg, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.FunctionCall{Name: name, Args: args}, nil
}

// parseAttributePath parses `name(.name | [index])*`.
func (p *parser) parseAttributePath() (ast.AttributePath, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return ast.AttributePath{}, err
	}
	path := ast.NewPath(name)
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			seg, err := p.expectIdentifier()
			if err != nil {
				return ast.AttributePath{}, err
			}
			path = path.Append(seg)
		case p.isPunct("["):
			p.advance()
			idx, err := p.parseInt()
			if err != nil {
				return ast.AttributePath{}, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return ast.AttributePath{}, err
			}
			path = path.AppendIndex(idx)
		default:
			return path, nil
		}
	}
}

// parseLiteral parses a scalar, set, list, or map literal.
func (p *parser) parseLiteral() (ast.Literal, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.String:
		p.advance()
		return ast.String(tok.Lexeme), nil
	case token.Number:
		p.advance()
		return ast.Number(tok.Lexeme), nil
	case token.Binary:
		p.advance()
		raw, err := base64.StdEncoding.DecodeString(tok.Lexeme)
		if err != nil {
			return ast.Literal{}, &Error{Expected: "base64 binary literal", Found: tok.Lexeme, Offset: tok.Offset}
		}
		return ast.Binary(raw), nil
	case token.Bool:
		p.advance()
		return ast.Bool(tok.Lexeme == "TRUE"), nil
	case token.Null:
		p.advance()
		return ast.Null(), nil
	case token.Punctuation:
		switch tok.Lexeme {
		case "[":
			return p.parseListLiteral()
		case "{":
			return p.parseMapLiteral()
		}
	case token.Keyword:
		switch {
		case p.isKeyword("STRING"):
			return p.parseTypedSetLiteral(ast.StringSet)
		case p.isKeyword("NUMBER"):
			return p.parseTypedSetLiteral(ast.NumberSet)
		case p.isKeyword("BINARY"):
			return p.parseTypedSetLiteral(ast.BinarySet)
		}
	}
	return ast.Literal{}, p.unexpected("a literal")
}

// parseTypedSetLiteral parses `STRING SET (a, b, c)` and its NUMBER/BINARY
// siblings, disambiguated by the keyword that precedes `SET`.
func (p *parser) parseTypedSetLiteral(build func([]ast.Literal) ast.Literal) (ast.Literal, error) {
	p.advance()
	if _, err := p.expectKeyword("SET"); err != nil {
		return ast.Literal{}, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return ast.Literal{}, err
	}
	var items []ast.Literal
	if !p.isPunct(")") {
		for {
			item, err := p.parseLiteral()
			if err != nil {
				return ast.Literal{}, err
			}
			items = append(items, item)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return ast.Literal{}, err
	}
	return build(items), nil
}

func (p *parser) parseListLiteral() (ast.Literal, error) {
	if _, err := p.expectPunct("["); err != nil {
		return ast.Literal{}, err
	}
	var items []ast.Literal
	if !p.isPunct("]") {
		for {
			item, err := p.parseLiteral()
			if err != nil {
				return ast.Literal{}, err
			}
			items = append(items, item)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectPunct("]"); err != nil {
		return ast.Literal{}, err
	}
	return ast.List(items), nil
}

func (p *parser) parseMapLiteral() (ast.Literal, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return ast.Literal{}, err
	}
	m := map[string]ast.Literal{}
	if !p.isPunct("}") {
		for {
			var key string
			var err error
			if p.peek().Kind == token.String {
				key = p.advance().Lexeme
			} else {
				key, err = p.expectIdentifier()
			}
			if err != nil {
				return ast.Literal{}, err
			}
			if _, err := p.expectPunct(":"); err != nil {
				return ast.Literal{}, err
			}
			val, err := p.parseLiteral()
			if err != nil {
				return ast.Literal{}, err
			}
			m[key] = val
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return ast.Literal{}, err
	}
	return ast.Map(m), nil
}
