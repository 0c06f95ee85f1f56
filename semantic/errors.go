package semantic

import "fmt"

// Kind discriminates the categories of semantic error spec.md §4.3 names.
type Kind int

const (
	UnknownTable Kind = iota
	UnknownAttribute
	TypeMismatch
	InvalidKeyUsage
	AmbiguousIndex
	MutationWithoutKey
)

func (k Kind) String() string {
	switch k {
	case UnknownTable:
		return "UnknownTable"
	case UnknownAttribute:
		return "UnknownAttribute"
	case TypeMismatch:
		return "TypeMismatch"
	case InvalidKeyUsage:
		return "InvalidKeyUsage"
	case AmbiguousIndex:
		return "AmbiguousIndex"
	case MutationWithoutKey:
		return "MutationWithoutKey"
	default:
		return "Unknown"
	}
}

// Error reports a semantic validation failure.
type Error struct {
	Message string
	Kind    Kind
	Offset  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("semantic error (%s) at offset %d: %s", e.Kind, e.Offset, e.Message)
}
