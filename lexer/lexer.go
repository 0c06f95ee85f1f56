// Package lexer implements the deterministic, longest-match tokenizer for
// DQL source text described in spec.md §4.1.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dqlang/dql/token"
)

// Error is returned for unterminated strings/binary/comments or invalid
// input bytes. Offset points at the byte where the lexer gave up.
type Error struct {
	Message string
	Offset  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Message)
}

// keywords is the case-insensitive reserved word table recognized by the
// grammar in spec.md §6.1. Anything not in this table lexes as an
// Identifier.
var keywords = buildKeywordSet(
	"SELECT", "SCAN", "COUNT", "FROM", "WHERE", "AND", "OR", "NOT",
	"BETWEEN", "IN", "CONTAINS", "BEGINS_WITH", "IS", "NULL", "TRUE", "FALSE",
	"ATTRIBUTE_EXISTS", "ATTRIBUTE_NOT_EXISTS",
	"ORDER", "BY", "ASC", "DESC", "LIMIT", "CONSISTENT", "READ", "USING",
	"FILTER", "THREADS",
	"INSERT", "INTO", "VALUES", "IF", "EXISTS", "NOT_EXISTS",
	"UPDATE", "SET", "ADD", "REMOVE", "DELETE",
	"RETURNS", "NONE", "ALL_NEW", "ALL_OLD", "UPDATED_NEW", "UPDATED_OLD",
	"CREATE", "TABLE", "ALTER", "DROP", "THROUGHPUT", "INDEX",
	"HASH", "RANGE", "KEY", "LOCAL", "GLOBAL", "PAY_PER_REQUEST",
	"STRING", "NUMBER", "BINARY", "BOOL", "LIST", "MAP",
	"EXPLAIN", "ANALYZE", "DUMP", "LOAD", "SCHEMA", "HELP", "CONFIRM", "FILE",
)

func buildKeywordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Lex tokenizes src in full, returning all tokens including a trailing EOF
// token, or the first Error encountered.
func Lex(src string) ([]token.Token, error) {
	l := &lexer{src: src}
	var tokens []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token.Token, error) {
	if err := l.skipTrivia(); err != nil {
		return token.Token{}, err
	}

	start := l.pos
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Offset: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '\'' || c == '"':
		return l.lexString(c)
	case isDigit(c):
		return l.lexNumber()
	case isIdentStart(c):
		return l.lexWordOrBinary()
	default:
		return l.lexOperatorOrPunct()
	}
}

// skipTrivia consumes whitespace and comments between tokens.
func (l *lexer) skipTrivia() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '-' && l.peekAt(1) == '-':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekAt(1) == '*':
			start := l.pos
			l.pos += 2
			closed := false
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.peekAt(1) == '/' {
					l.pos += 2
					closed = true
					break
				}
				l.pos++
			}
			if !closed {
				return &Error{Offset: start, Message: "unterminated block comment"}
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) lexString(quote byte) (token.Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token.Token{}, &Error{Offset: start, Message: "unterminated string literal"}
		}
		c := l.src[l.pos]
		if c == quote {
			if l.peekAt(1) == quote {
				sb.WriteByte(quote)
				l.pos += 2
				continue
			}
			l.pos++
			return token.Token{Kind: token.String, Lexeme: sb.String(), Offset: start}, nil
		}
		sb.WriteByte(c)
		l.pos++
	}
}

func (l *lexer) lexNumber() (token.Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peekAt(1)) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	return token.Token{Kind: token.Number, Lexeme: l.src[start:l.pos], Offset: start}, nil
}

// lexWordOrBinary handles identifiers, keywords, TRUE/FALSE/NULL literals,
// and the b"..." binary literal form (a lone leading 'b' or 'B' immediately
// followed by a quote).
func (l *lexer) lexWordOrBinary() (token.Token, error) {
	start := l.pos
	if (l.src[l.pos] == 'b' || l.src[l.pos] == 'B') && (l.peekAt(1) == '"' || l.peekAt(1) == '\'') {
		quote := l.peekAt(1)
		l.pos++
		strTok, err := l.lexString(quote)
		if err != nil {
			return token.Token{}, err
		}
		return token.Token{Kind: token.Binary, Lexeme: strTok.Lexeme, Offset: start}, nil
	}

	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	word := l.src[start:l.pos]
	upper := strings.ToUpper(word)

	switch upper {
	case "TRUE", "FALSE":
		return token.Token{Kind: token.Bool, Lexeme: upper, Offset: start}, nil
	case "NULL":
		return token.Token{Kind: token.Null, Lexeme: upper, Offset: start}, nil
	}
	if keywords[upper] {
		return token.Token{Kind: token.Keyword, Lexeme: upper, Offset: start}, nil
	}
	return token.Token{Kind: token.Identifier, Lexeme: word, Offset: start}, nil
}

func (l *lexer) lexOperatorOrPunct() (token.Token, error) {
	start := l.pos
	c := l.src[l.pos]

	twoChar := string(c) + string(l.peekAt(1))
	switch twoChar {
	case "<>", "<=", ">=":
		l.pos += 2
		return token.Token{Kind: token.Operator, Lexeme: twoChar, Offset: start}, nil
	}

	switch c {
	case '=', '<', '>', '+', '-':
		l.pos++
		return token.Token{Kind: token.Operator, Lexeme: string(c), Offset: start}, nil
	case '(', ')', '[', ']', '{', '}', ',', '.', ';', ':', '*':
		l.pos++
		return token.Token{Kind: token.Punctuation, Lexeme: string(c), Offset: start}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return token.Token{}, &Error{Offset: start, Message: fmt.Sprintf("invalid input byte %q", r)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
