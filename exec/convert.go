package exec

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dqlang/dql/ast"
)

// literalToAttributeValue converts a compiled ast.Literal into the wire
// representation the AWS SDK expects for item/key values.
func literalToAttributeValue(lit ast.Literal) (types.AttributeValue, error) {
	switch lit.Kind {
	case ast.KString:
		return &types.AttributeValueMemberS{Value: lit.Str}, nil
	case ast.KNumber:
		return &types.AttributeValueMemberN{Value: lit.Str}, nil
	case ast.KBinary:
		return &types.AttributeValueMemberB{Value: lit.Bin}, nil
	case ast.KBool:
		return &types.AttributeValueMemberBOOL{Value: lit.Bool}, nil
	case ast.KNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case ast.KList:
		items := make([]types.AttributeValue, len(lit.List))
		for i, item := range lit.List {
			av, err := literalToAttributeValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = av
		}
		return &types.AttributeValueMemberL{Value: items}, nil
	case ast.KMap:
		m := make(map[string]types.AttributeValue, len(lit.Map))
		for k, v := range lit.Map {
			av, err := literalToAttributeValue(v)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case ast.KStringSet:
		ss := make([]string, len(lit.Set))
		for i, item := range lit.Set {
			ss[i] = item.Str
		}
		return &types.AttributeValueMemberSS{Value: ss}, nil
	case ast.KNumberSet:
		ns := make([]string, len(lit.Set))
		for i, item := range lit.Set {
			ns[i] = item.Str
		}
		return &types.AttributeValueMemberNS{Value: ns}, nil
	case ast.KBinarySet:
		bs := make([][]byte, len(lit.Set))
		for i, item := range lit.Set {
			bs[i] = item.Bin
		}
		return &types.AttributeValueMemberBS{Value: bs}, nil
	default:
		return nil, fmt.Errorf("exec: unsupported literal kind %v", lit.Kind)
	}
}

// itemToAttributeValues converts a column-name -> Literal map (a planner
// PointKey or PutItem row) into the map DynamoDB's Item/Key fields require.
func itemToAttributeValues(item map[string]ast.Literal) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(item))
	for name, lit := range item {
		av, err := literalToAttributeValue(lit)
		if err != nil {
			return nil, fmt.Errorf("exec: attribute %q: %w", name, err)
		}
		out[name] = av
	}
	return out, nil
}

func expressionNamesOrNil(names map[string]string) map[string]string {
	if len(names) == 0 {
		return nil
	}
	return names
}

func expressionValues(values map[string]ast.Literal) (map[string]types.AttributeValue, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(values))
	for token, lit := range values {
		av, err := literalToAttributeValue(lit)
		if err != nil {
			return nil, fmt.Errorf("exec: value %s: %w", token, err)
		}
		out[token] = av
	}
	return out, nil
}

// mergeNames folds src's ExpressionAttributeNames into dst. Compiled
// clauses sharing one expr.Compiler already agree on any overlapping
// token, so this is a plain union.
func mergeNames(dst, src map[string]string) {
	for token, name := range src {
		dst[token] = name
	}
}

// mergeValues folds src's ExpressionAttributeValues into dst, converting
// each ast.Literal to its wire AttributeValue.
func mergeValues(dst map[string]types.AttributeValue, src map[string]ast.Literal) error {
	for token, lit := range src {
		av, err := literalToAttributeValue(lit)
		if err != nil {
			return fmt.Errorf("exec: value %s: %w", token, err)
		}
		dst[token] = av
	}
	return nil
}

// attributeValueToLiteral converts a wire AttributeValue back into an
// ast.Literal, the inverse of literalToAttributeValue. Used to turn the
// key attributes out of a phase-1 Query/Scan back into the form
// itemToAttributeValues expects for the phase-2 UpdateItem/DeleteItem call.
func attributeValueToLiteral(av types.AttributeValue) (ast.Literal, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return ast.Literal{Kind: ast.KString, Str: v.Value}, nil
	case *types.AttributeValueMemberN:
		return ast.Literal{Kind: ast.KNumber, Str: v.Value}, nil
	case *types.AttributeValueMemberB:
		return ast.Literal{Kind: ast.KBinary, Bin: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return ast.Literal{Kind: ast.KBool, Bool: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return ast.Literal{Kind: ast.KNull}, nil
	default:
		return ast.Literal{}, fmt.Errorf("exec: unsupported key attribute value type %T", av)
	}
}

// attributeValuesToLiterals extracts only the named key columns from a
// result item, converting each to an ast.Literal.
func attributeValuesToLiterals(item map[string]types.AttributeValue, columns []string) (map[string]ast.Literal, error) {
	out := make(map[string]ast.Literal, len(columns))
	for _, col := range columns {
		av, ok := item[col]
		if !ok {
			return nil, fmt.Errorf("exec: projected item missing key column %q", col)
		}
		lit, err := attributeValueToLiteral(av)
		if err != nil {
			return nil, fmt.Errorf("exec: key column %q: %w", col, err)
		}
		out[col] = lit
	}
	return out, nil
}
