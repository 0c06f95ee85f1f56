package parser

import (
	"github.com/dqlang/dql/ast"
)

// parseCreateTable parses:
//
//	CREATE TABLE [IF NOT EXISTS] name (
//	  attr_decl (, attr_decl)*
//	  [, (THROUGHPUT (r, w) | PAY_PER_REQUEST)]
//	  (, index_decl)*
//	)
func (p *parser) parseCreateTable() (ast.Statement, error) {
	if _, err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	ifNotExists, err := p.parseOptionalIfNotExists()
	if err != nil {
		return nil, err
	}
	name, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}

	ct := &ast.CreateTable{Name: name, IfNotExists: ifNotExists}
	for {
		switch {
		case p.isKeyword("THROUGHPUT"), p.isKeyword("PAY_PER_REQUEST"):
			tp, err := p.parseThroughput()
			if err != nil {
				return nil, err
			}
			ct.Throughput = tp
		case p.isKeyword("LOCAL"), p.isKeyword("GLOBAL"):
			idx, err := p.parseIndexDecl()
			if err != nil {
				return nil, err
			}
			ct.Indexes = append(ct.Indexes, idx)
		default:
			attr, err := p.parseAttrDecl()
			if err != nil {
				return nil, err
			}
			ct.Attrs = append(ct.Attrs, attr)
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ct, nil
}

func (p *parser) parseOptionalIfNotExists() (bool, error) {
	if !p.isKeyword("IF") {
		return false, nil
	}
	p.advance()
	if _, err := p.expectKeyword("NOT"); err != nil {
		return false, err
	}
	if _, err := p.expectKeyword("EXISTS"); err != nil {
		return false, err
	}
	return true, nil
}

func (p *parser) parseOptionalIfExists() (bool, error) {
	if !p.isKeyword("IF") {
		return false, nil
	}
	p.advance()
	if _, err := p.expectKeyword("EXISTS"); err != nil {
		return false, err
	}
	return true, nil
}

// parseAttrDecl parses `name type [HASH KEY | RANGE KEY]`.
func (p *parser) parseAttrDecl() (ast.AttrDecl, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return ast.AttrDecl{}, err
	}
	typ, err := p.parseScalarType()
	if err != nil {
		return ast.AttrDecl{}, err
	}
	decl := ast.AttrDecl{Name: name, Type: typ}
	switch {
	case p.isKeyword("HASH"):
		p.advance()
		if _, err := p.expectKeyword("KEY"); err != nil {
			return ast.AttrDecl{}, err
		}
		decl.KeyRole = ast.RoleHash
	case p.isKeyword("RANGE"):
		p.advance()
		if _, err := p.expectKeyword("KEY"); err != nil {
			return ast.AttrDecl{}, err
		}
		decl.KeyRole = ast.RoleRange
	}
	return decl, nil
}

func (p *parser) parseScalarType() (ast.ScalarType, error) {
	switch {
	case p.isKeyword("STRING"):
		p.advance()
		if p.isKeyword("SET") {
			p.advance()
			return ast.TypeStringSet, nil
		}
		return ast.TypeString, nil
	case p.isKeyword("NUMBER"):
		p.advance()
		if p.isKeyword("SET") {
			p.advance()
			return ast.TypeNumberSet, nil
		}
		return ast.TypeNumber, nil
	case p.isKeyword("BINARY"):
		p.advance()
		if p.isKeyword("SET") {
			p.advance()
			return ast.TypeBinarySet, nil
		}
		return ast.TypeBinary, nil
	case p.isKeyword("BOOL"):
		p.advance()
		return ast.TypeBool, nil
	case p.isKeyword("NULL"):
		p.advance()
		return ast.TypeNull, nil
	case p.isKeyword("LIST"):
		p.advance()
		return ast.TypeList, nil
	case p.isKeyword("MAP"):
		p.advance()
		return ast.TypeMap, nil
	default:
		return "", p.unexpected("an attribute type")
	}
}

func (p *parser) parseThroughput() (*ast.Throughput, error) {
	if p.isKeyword("PAY_PER_REQUEST") {
		p.advance()
		return &ast.Throughput{PayPerRequest: true}, nil
	}
	if _, err := p.expectKeyword("THROUGHPUT"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	read, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(","); err != nil {
		return nil, err
	}
	write, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.Throughput{Read: read, Write: write}, nil
}

// parseIndexDecl parses:
//
//	(LOCAL|GLOBAL) INDEX name (HASH attr [, RANGE attr]) [PROJECTION (attr, ...)] [THROUGHPUT (r, w)]
func (p *parser) parseIndexDecl() (ast.IndexDecl, error) {
	kind := ast.IndexLocal
	if p.isKeyword("GLOBAL") {
		kind = ast.IndexGlobal
	}
	p.advance()
	if _, err := p.expectKeyword("INDEX"); err != nil {
		return ast.IndexDecl{}, err
	}
	name, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return ast.IndexDecl{}, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return ast.IndexDecl{}, err
	}
	if _, err := p.expectKeyword("HASH"); err != nil {
		return ast.IndexDecl{}, err
	}
	hashAttr, err := p.expectIdentifier()
	if err != nil {
		return ast.IndexDecl{}, err
	}
	var rangeAttr string
	if p.isPunct(",") {
		p.advance()
		if _, err := p.expectKeyword("RANGE"); err != nil {
			return ast.IndexDecl{}, err
		}
		rangeAttr, err = p.expectIdentifier()
		if err != nil {
			return ast.IndexDecl{}, err
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return ast.IndexDecl{}, err
	}

	idx := ast.IndexDecl{Name: name, Kind: kind, HashAttr: hashAttr, RangeAttr: rangeAttr}
	if p.isKeyword("PROJECTION") {
		p.advance()
		if _, err := p.expectPunct("("); err != nil {
			return ast.IndexDecl{}, err
		}
		if p.isPunct("*") {
			p.advance()
		} else {
			for {
				attr, err := p.expectIdentifier()
				if err != nil {
					return ast.IndexDecl{}, err
				}
				idx.Projection = append(idx.Projection, attr)
				if p.isPunct(",") {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expectPunct(")"); err != nil {
			return ast.IndexDecl{}, err
		}
	}
	if p.isKeyword("THROUGHPUT") {
		tp, err := p.parseThroughput()
		if err != nil {
			return ast.IndexDecl{}, err
		}
		idx.Throughput = tp
	}
	return idx, nil
}

// parseAlterTable parses:
//
//	ALTER TABLE name SET THROUGHPUT (r, w)
//	ALTER TABLE name SET INDEX idx THROUGHPUT (r, w)
//	ALTER TABLE name DROP INDEX idx
//	ALTER TABLE name CREATE index_decl
func (p *parser) parseAlterTable() (ast.Statement, error) {
	if _, err := p.expectKeyword("ALTER"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return nil, err
	}

	switch {
	case p.isKeyword("SET"):
		p.advance()
		if p.isKeyword("INDEX") {
			p.advance()
			idxName, err := p.parseIdentOrKeywordWord()
			if err != nil {
				return nil, err
			}
			tp, err := p.parseThroughput()
			if err != nil {
				return nil, err
			}
			return &ast.AlterTable{Name: name, Kind: ast.AlterSetIndexThroughput, IndexName: idxName, Throughput: tp}, nil
		}
		tp, err := p.parseThroughput()
		if err != nil {
			return nil, err
		}
		return &ast.AlterTable{Name: name, Kind: ast.AlterSetThroughput, Throughput: tp}, nil

	case p.isKeyword("DROP"):
		p.advance()
		if _, err := p.expectKeyword("INDEX"); err != nil {
			return nil, err
		}
		idxName, err := p.parseIdentOrKeywordWord()
		if err != nil {
			return nil, err
		}
		return &ast.AlterTable{Name: name, Kind: ast.AlterDropIndex, IndexName: idxName}, nil

	case p.isKeyword("CREATE"):
		p.advance()
		idx, err := p.parseIndexDecl()
		if err != nil {
			return nil, err
		}
		return &ast.AlterTable{Name: name, Kind: ast.AlterCreateIndex, NewIndex: &idx}, nil

	default:
		return nil, p.unexpected("SET, DROP, or CREATE")
	}
}

// parseDropTable parses `DROP TABLE [IF EXISTS] name`.
func (p *parser) parseDropTable() (ast.Statement, error) {
	if _, err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	ifExists, err := p.parseOptionalIfExists()
	if err != nil {
		return nil, err
	}
	name, err := p.parseIdentOrKeywordWord()
	if err != nil {
		return nil, err
	}
	return &ast.DropTable{Name: name, IfExists: ifExists}, nil
}
