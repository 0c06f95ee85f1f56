package parser

import (
	"github.com/dqlang/dql/ast"
)

// parseInsert parses `INSERT INTO table (col, ...) VALUES (lit, ...), (lit, ...) [IF NOT EXISTS]`.
func (p *parser) parseInsert() (ast.Statement, error) {
	if _, err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var columns []string
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		columns = append(columns, name)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	var rows [][]ast.Literal
	for {
		row, err := p.parseValueTuple(len(columns))
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	ifNotExists := false
	if p.isKeyword("IF") {
		p.advance()
		if _, err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		ifNotExists = true
	}
	return &ast.Insert{Table: table, Columns: columns, Rows: rows, IfNotExists: ifNotExists}, nil
}

func (p *parser) parseValueTuple(want int) ([]ast.Literal, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var vals []ast.Literal
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if want > 0 && len(vals) != want {
		return nil, &Error{Expected: "matching value count", Found: "mismatched tuple arity", Offset: p.peek().Offset}
	}
	return vals, nil
}

// parseUpdate parses `UPDATE table [CONFIRM SCAN] (SET|ADD|REMOVE|DELETE clause-list)+
// [WHERE expr] [RETURNS values]`.
func (p *parser) parseUpdate() (ast.Statement, error) {
	if _, err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	table, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return nil, err
	}
	confirmed, err := p.parseOptionalConfirmScan()
	if err != nil {
		return nil, err
	}
	var clauses []ast.UpdateClause
	for p.isKeyword("SET") || p.isKeyword("ADD") || p.isKeyword("REMOVE") || p.isKeyword("DELETE") {
		more, err := p.parseUpdateClauseGroup()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, more...)
	}
	if len(clauses) == 0 {
		return nil, p.unexpected("SET, ADD, REMOVE, or DELETE")
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	returns, err := p.parseOptionalReturns()
	if err != nil {
		return nil, err
	}
	return &ast.Update{Table: table, Clauses: clauses, Where: where, Returns: returns, ScanConfirmed: confirmed}, nil
}

func (p *parser) parseOptionalConfirmScan() (bool, error) {
	if !p.isKeyword("CONFIRM") {
		return false, nil
	}
	p.advance()
	if _, err := p.expectKeyword("SCAN"); err != nil {
		return false, err
	}
	return true, nil
}

func (p *parser) parseUpdateClauseGroup() ([]ast.UpdateClause, error) {
	switch {
	case p.isKeyword("SET"):
		p.advance()
		return p.parseSetClauses()
	case p.isKeyword("ADD"):
		p.advance()
		return p.parseAddOrDeleteClauses(ast.ClauseAdd)
	case p.isKeyword("DELETE"):
		p.advance()
		return p.parseAddOrDeleteClauses(ast.ClauseDelete)
	case p.isKeyword("REMOVE"):
		p.advance()
		return p.parseRemoveClauses()
	default:
		return nil, p.unexpected("SET, ADD, REMOVE, or DELETE")
	}
}

// parseSetClauses parses `path = value` or `path = path (+|-) value` pairs.
func (p *parser) parseSetClauses() ([]ast.UpdateClause, error) {
	var out []ast.UpdateClause
	for {
		path, err := p.parseAttributePath()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOperator("="); err != nil {
			return nil, err
		}
		rhs, err := p.parseSetRhs(path)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.UpdateClause{Kind: ast.ClauseSet, Path: path, Rhs: rhs})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// parseSetRhs recognizes the `path OP value` arithmetic shorthand by
// checking whether the first operand repeats path before an operator.
func (p *parser) parseSetRhs(path ast.AttributePath) (ast.Expression, error) {
	checkpoint := p.pos
	if p.peekLooksLikeSamePath(path) {
		_, err := p.parseAttributePath()
		if err != nil {
			return nil, err
		}
		if p.isOperator("+") || p.isOperator("-") {
			op := ast.ArithOp(p.advance().Lexeme)
			value, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			return ast.ArithUpdate{Path: path, Op: op, Rhs: value}, nil
		}
		p.pos = checkpoint
	}
	return p.parseOperand()
}

func (p *parser) peekLooksLikeSamePath(path ast.AttributePath) bool {
	return p.peek().Lexeme == path.Root()
}

func (p *parser) parseAddOrDeleteClauses(kind ast.UpdateClauseKind) ([]ast.UpdateClause, error) {
	var out []ast.UpdateClause
	for {
		path, err := p.parseAttributePath()
		if err != nil {
			return nil, err
		}
		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		out = append(out, ast.UpdateClause{Kind: kind, Path: path, Rhs: value})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseRemoveClauses() ([]ast.UpdateClause, error) {
	var out []ast.UpdateClause
	for {
		path, err := p.parseAttributePath()
		if err != nil {
			return nil, err
		}
		out = append(out, ast.UpdateClause{Kind: ast.ClauseRemove, Path: path})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseOptionalReturns() (ast.ReturnValues, error) {
	if !p.isKeyword("RETURNS") {
		return ast.ReturnsNone, nil
	}
	p.advance()
	switch {
	case p.isKeyword("NONE"):
		p.advance()
		return ast.ReturnsNone, nil
	case p.isKeyword("ALL_NEW"):
		p.advance()
		return ast.ReturnsAllNew, nil
	case p.isKeyword("ALL_OLD"):
		p.advance()
		return ast.ReturnsAllOld, nil
	case p.isKeyword("UPDATED_NEW"):
		p.advance()
		return ast.ReturnsUpdatedNew, nil
	case p.isKeyword("UPDATED_OLD"):
		p.advance()
		return ast.ReturnsUpdatedOld, nil
	default:
		return "", p.unexpected("a RETURNS value")
	}
}

// parseDelete parses `DELETE FROM table [CONFIRM SCAN] [WHERE expr] [RETURNS values]`.
func (p *parser) parseDelete() (ast.Statement, error) {
	if _, err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return nil, err
	}
	confirmed, err := p.parseOptionalConfirmScan()
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	returns, err := p.parseOptionalReturns()
	if err != nil {
		return nil, err
	}
	return &ast.Delete{Table: table, Where: where, Returns: returns, ScanConfirmed: confirmed}, nil
}
