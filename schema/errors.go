package schema

import "github.com/pkg/errors"

// ErrNotFound is returned (optionally wrapped) when a table has no schema —
// the DynamoDB equivalent of a DescribeTable ResourceNotFoundException.
var ErrNotFound = errors.New("schema: table not found")

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
