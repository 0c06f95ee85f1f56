package parser

import (
	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/token"
)

// parseSelectOrCount parses `SELECT ...`. A projection list of exactly
// `count(*)` yields an ast.Count instead of an ast.Select, since COUNT has
// no item projection and no ORDER BY/CONSISTENT READ clauses.
func (p *parser) parseSelectOrCount() (ast.Statement, error) {
	if _, err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	if p.isCountStar() {
		p.advance() // count
		p.advance() // (
		p.advance() // *
		p.advance() // )
		table, index, err := p.parseFromUsing()
		if err != nil {
			return nil, err
		}
		where, err := p.parseOptionalWhere()
		if err != nil {
			return nil, err
		}
		return &ast.Count{Table: table, Index: index, Where: where}, nil
	}

	all, columns, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	table, index, err := p.parseFromUsing()
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	orderAttr, desc, err := p.parseOptionalOrderBy()
	if err != nil {
		return nil, err
	}
	limit, err := p.parseOptionalLimit()
	if err != nil {
		return nil, err
	}
	consistent, err := p.parseOptionalConsistentRead()
	if err != nil {
		return nil, err
	}
	return &ast.Select{
		All:            all,
		Columns:        columns,
		Table:          table,
		Index:          index,
		Where:          where,
		OrderByAttr:    orderAttr,
		OrderByDesc:    desc,
		Limit:          limit,
		ConsistentRead: consistent,
	}, nil
}

func (p *parser) isCountStar() bool {
	return p.peek().Is(token.Keyword, "COUNT") &&
		p.peekAt(1).Is(token.Punctuation, "(") &&
		p.peekAt(2).Is(token.Punctuation, "*") &&
		p.peekAt(3).Is(token.Punctuation, ")")
}

// parseScan parses `SCAN (* | col, ...) FROM table [USING index] [FILTER expr]
// [LIMIT n] [THREADS n]`.
func (p *parser) parseScan() (ast.Statement, error) {
	if _, err := p.expectKeyword("SCAN"); err != nil {
		return nil, err
	}
	all, columns, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	table, index, err := p.parseFromUsing()
	if err != nil {
		return nil, err
	}
	var filter ast.Expression
	if p.isKeyword("FILTER") {
		p.advance()
		filter, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	limit, err := p.parseOptionalLimit()
	if err != nil {
		return nil, err
	}
	threads := 1
	if p.isKeyword("THREADS") {
		p.advance()
		threads, err = p.parseInt()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Scan{
		All:     all,
		Columns: columns,
		Table:   table,
		Index:   index,
		Filter:  filter,
		Limit:   limit,
		Threads: threads,
	}, nil
}

// parseProjection parses `*` or a comma-separated attribute name list.
func (p *parser) parseProjection() (all bool, columns []string, err error) {
	if p.isPunct("*") {
		p.advance()
		return true, nil, nil
	}
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return false, nil, err
		}
		columns = append(columns, name)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return false, columns, nil
}

// parseFromUsing parses `FROM table [USING index]`.
func (p *parser) parseFromUsing() (table, index string, err error) {
	if _, err := p.expectKeyword("FROM"); err != nil {
		return "", "", err
	}
	table, err = p.parseIdentOrKeywordWord()
	if err != nil {
		return "", "", err
	}
	if p.isKeyword("USING") {
		p.advance()
		index, err = p.parseIdentOrKeywordWord()
		if err != nil {
			return "", "", err
		}
	}
	return table, index, nil
}

func (p *parser) parseOptionalWhere() (ast.Expression, error) {
	if !p.isKeyword("WHERE") {
		return nil, nil
	}
	p.advance()
	return p.parseExpression()
}

func (p *parser) parseOptionalOrderBy() (attr string, desc bool, err error) {
	if !p.isKeyword("ORDER") {
		return "", false, nil
	}
	p.advance()
	if _, err := p.expectKeyword("BY"); err != nil {
		return "", false, err
	}
	attr, err = p.expectIdentifier()
	if err != nil {
		return "", false, err
	}
	switch {
	case p.isKeyword("ASC"):
		p.advance()
	case p.isKeyword("DESC"):
		p.advance()
		desc = true
	}
	return attr, desc, nil
}

func (p *parser) parseOptionalLimit() (*int, error) {
	if !p.isKeyword("LIMIT") {
		return nil, nil
	}
	p.advance()
	n, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (p *parser) parseOptionalConsistentRead() (bool, error) {
	if !p.isKeyword("CONSISTENT") {
		return false, nil
	}
	p.advance()
	if _, err := p.expectKeyword("READ"); err != nil {
		return false, err
	}
	return true, nil
}
