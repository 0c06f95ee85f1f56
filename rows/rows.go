// Package rows turns a result set's wire-format items into generic tabular
// rows for presentation (REPL table, EXPLAIN/ANALYZE output, DUMP).
package rows

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

//go:generate mockgen -package=mocks -destination=../mocks/decoder_mock.go . Decoder

// Decoder unmarshals a DynamoDB item into a generic row. DQL has no fixed
// entity type to decode into, unlike an ORM, so the target is always
// map[string]any rather than a caller-supplied struct.
type Decoder interface {
	Decode(map[string]types.AttributeValue) (map[string]any, error)
}

type decoder struct {
	optFns []func(*attributevalue.DecoderOptions)
}

// NewDecoder builds a Decoder with the given attributevalue decoder options.
func NewDecoder(optFns ...func(*attributevalue.DecoderOptions)) Decoder {
	return &decoder{optFns}
}

func (d *decoder) Decode(item map[string]types.AttributeValue) (map[string]any, error) {
	var out map[string]any
	if err := attributevalue.UnmarshalMapWithOptions(item, &out, d.optFns...); err != nil {
		return nil, err
	}
	return out, nil
}

// DefaultDecoder mirrors the teacher's DefaultDecoder: encoding.TextUnmarshaler
// support turned on, everything else left at the SDK's defaults.
func DefaultDecoder() Decoder {
	return NewDecoder(func(o *attributevalue.DecoderOptions) {
		o.UseEncodingUnmarshalers = true
	})
}

// Rows decodes every item in items with d, in order. A decode failure on one
// item aborts the whole conversion — partial tabular output would be
// confusing to a REPL user or an EXPLAIN/ANALYZE consumer.
func Rows(d Decoder, items []map[string]types.AttributeValue) ([]map[string]any, error) {
	out := make([]map[string]any, len(items))
	for i, item := range items {
		row, err := d.Decode(item)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}
