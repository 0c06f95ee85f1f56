// Package parser builds a DQL ast.Statement from source text via a
// hand-written recursive-descent parser over the lexer's token stream.
package parser

import (
	"fmt"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/lexer"
	"github.com/dqlang/dql/token"
)

// parser walks a fixed token slice produced by lexer.Lex. It never mutates
// the slice; pos is the only cursor.
type parser struct {
	toks []token.Token
	pos  int
}

// Parse lexes src and parses exactly one statement, optionally terminated by
// a trailing `;`. Trailing garbage after the statement is a syntax error.
func Parse(src string) (ast.Statement, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.peek().Is(token.Punctuation, ";") {
		p.advance()
	}
	if !p.atEnd() {
		return nil, p.unexpected("end of statement")
	}
	return stmt, nil
}

func (p *parser) peek() token.Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) atEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *parser) unexpected(expected string) *Error {
	found := p.peek().Lexeme
	if p.peek().Kind == token.EOF {
		found = "end of input"
	}
	return &Error{Expected: expected, Found: found, Offset: p.peek().Offset}
}

// isKeyword reports whether the current token is the named keyword,
// case-insensitively (the lexer already normalizes keyword lexemes to
// upper case, so an exact match suffices).
func (p *parser) isKeyword(kw string) bool {
	return p.peek().Is(token.Keyword, kw)
}

func (p *parser) isPunct(punct string) bool {
	return p.peek().Is(token.Punctuation, punct)
}

func (p *parser) isOperator(op string) bool {
	return p.peek().Is(token.Operator, op)
}

func (p *parser) expectKeyword(kw string) (token.Token, error) {
	if !p.isKeyword(kw) {
		return token.Token{}, p.unexpected(kw)
	}
	return p.advance(), nil
}

func (p *parser) expectPunct(punct string) (token.Token, error) {
	if !p.isPunct(punct) {
		return token.Token{}, p.unexpected(fmt.Sprintf("%q", punct))
	}
	return p.advance(), nil
}

func (p *parser) expectOperator(op string) (token.Token, error) {
	if !p.isOperator(op) {
		return token.Token{}, p.unexpected(fmt.Sprintf("%q", op))
	}
	return p.advance(), nil
}

func (p *parser) expectIdentifier() (string, error) {
	if p.peek().Kind != token.Identifier {
		return "", p.unexpected("identifier")
	}
	return p.advance().Lexeme, nil
}

// parseIdentOrKeywordWord accepts either an Identifier or a Keyword token as
// a bare name, for contexts (table/index/attribute names) where a DQL
// keyword like RANGE or COUNT is still a legal identifier in source systems
// this compiles against.
func (p *parser) parseIdentOrKeywordWord() (string, error) {
	switch p.peek().Kind {
	case token.Identifier, token.Keyword:
		return p.advance().Lexeme, nil
	default:
		return "", p.unexpected("name")
	}
}

func (p *parser) parseInt() (int, error) {
	if p.peek().Kind != token.Number {
		return 0, p.unexpected("integer")
	}
	tok := p.advance()
	var n int
	if _, err := fmt.Sscanf(tok.Lexeme, "%d", &n); err != nil {
		return 0, &Error{Expected: "integer", Found: tok.Lexeme, Offset: tok.Offset}
	}
	return n, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	switch {
	case p.isKeyword("SELECT"):
		return p.parseSelectOrCount()
	case p.isKeyword("SCAN"):
		return p.parseScan()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("UPDATE"):
		return p.parseUpdate()
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("CREATE"):
		return p.parseCreateTable()
	case p.isKeyword("ALTER"):
		return p.parseAlterTable()
	case p.isKeyword("DROP"):
		return p.parseDropTable()
	case p.isKeyword("EXPLAIN"):
		return p.parseExplain()
	case p.isKeyword("ANALYZE"):
		return p.parseAnalyze()
	case p.isKeyword("DUMP"):
		return p.parseDump()
	case p.isKeyword("LOAD"):
		return p.parseLoad()
	case p.isKeyword("HELP"):
		p.advance()
		return &ast.Help{}, nil
	default:
		return nil, p.unexpected("a statement")
	}
}
