package logic

import "fmt"

// EvalError is the typed failure produced by parsing or evaluating a logic
// tree. The evaluation engine catches it per rule; it must never escape a
// single rule's evaluation.
type EvalError struct {
	Op     string
	Reason string
}

func (e *EvalError) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func evalErrorf(op, format string, args ...interface{}) *EvalError {
	return &EvalError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
