package log

import "fmt"

// Error wraps a log substrate failure; a flush failure never drops the
// buffered entries (spec §4.7 "Failure semantics").
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("log: %s: %s", e.Op, e.Message)
}
