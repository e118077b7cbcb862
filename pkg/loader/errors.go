package loader

import "fmt"

// LiveLoadError wraps a failure in one of the information_schema/pg_catalog
// queries with the name of the step that failed, per spec.md §7.
type LiveLoadError struct {
	Step string
	Err  error
}

func (e LiveLoadError) Error() string {
	return fmt.Sprintf("loading live schema (%s): %v", e.Step, e.Err)
}

func (e LiveLoadError) Unwrap() error { return e.Err }
