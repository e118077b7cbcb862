package plan

import "fmt"

// UngatedDestructiveChangeError is raised when a planner produces a
// destructive statement and both the matching gate and WithoutFailfast are
// false, per spec.md §7/§8.
type UngatedDestructiveChangeError struct {
	Object string // "schema.table" or "schema.table.column"
	Reason string
	SQL    string
}

func (e UngatedDestructiveChangeError) Error() string {
	return fmt.Sprintf("ungated destructive change on %s (%s): %s", e.Object, e.Reason, e.SQL)
}

// ExecutionError wraps a failed batch with the phase it failed in and the
// SQL text that was executed.
type ExecutionError struct {
	Phase string
	SQL   string
	Err   error
}

func (e ExecutionError) Error() string {
	return fmt.Sprintf("executing %s batch: %v\n%s", e.Phase, e.Err, e.SQL)
}

func (e ExecutionError) Unwrap() error { return e.Err }
