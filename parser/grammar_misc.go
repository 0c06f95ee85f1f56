package parser

import (
	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/token"
)

// parseExplain parses `EXPLAIN <stmt>`.
func (p *parser) parseExplain() (ast.Statement, error) {
	p.advance()
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Explain{Stmt: inner}, nil
}

// parseAnalyze parses `ANALYZE <stmt>`.
func (p *parser) parseAnalyze() (ast.Statement, error) {
	p.advance()
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Analyze{Stmt: inner}, nil
}

// parseDump parses `DUMP SCHEMA [table, ...]`; an empty table list dumps
// every table the schema provider knows about.
func (p *parser) parseDump() (ast.Statement, error) {
	p.advance()
	if _, err := p.expectKeyword("SCHEMA"); err != nil {
		return nil, err
	}
	var tables []string
	if p.peek().Kind == token.Identifier {
		for {
			name, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			tables = append(tables, name)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	return &ast.Dump{Tables: tables}, nil
}

// parseLoad parses `LOAD FROM FILE "path"` (a script file to run) or
// `LOAD FROM STRING "a;b;c"` (an inline semicolon-separated batch).
func (p *parser) parseLoad() (ast.Statement, error) {
	p.advance()
	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	switch {
	case p.isKeyword("FILE"):
		p.advance()
		path, err := p.parseStringLiteralToken()
		if err != nil {
			return nil, err
		}
		return &ast.Load{Source: path, FromFile: true}, nil
	case p.isKeyword("STRING"):
		p.advance()
		src, err := p.parseStringLiteralToken()
		if err != nil {
			return nil, err
		}
		return &ast.Load{Source: src, FromFile: false}, nil
	default:
		return nil, p.unexpected("FILE or STRING")
	}
}

func (p *parser) parseStringLiteralToken() (string, error) {
	if p.peek().Kind != token.String {
		return "", p.unexpected("a string literal")
	}
	return p.advance().Lexeme, nil
}
