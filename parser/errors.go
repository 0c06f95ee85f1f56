package parser

import "fmt"

// Error reports a syntax error at a specific token offset, naming what the
// grammar expected versus what it actually found.
type Error struct {
	Expected string
	Found    string
	Offset   int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at offset %d: expected %s, found %s", e.Offset, e.Expected, e.Found)
}
