// Package fault reports broken contracts between components.
//
// A fault is never user error: it means a closed set of variants received a
// value nobody is supposed to construct. Faults panic and are not recovered
// into successful responses.
package fault

import "fmt"

// Error is the panic value raised by Unreachable.
type Error struct {
	Kind  string // e.g. "modifier", "action"
	Value any
}

func (e *Error) Error() string {
	return fmt.Sprintf("unreachable %s variant: %v", e.Kind, e.Value)
}

// Unreachable panics with an *Error describing the unexpected variant.
func Unreachable(kind string, value any) {
	panic(&Error{Kind: kind, Value: value})
}
