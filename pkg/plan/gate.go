package plan

// Options holds the five gating knobs plus the behavioral flags recognised
// by the top-level entry point (spec.md §6 "Options").
type Options struct {
	WithSizeCut     bool
	WithIndexDrop   bool
	WithTriggerDrop bool
	WithRevoke      bool
	WithoutFailfast bool
	WithDdlRetry    bool
	ExcludeTriggers bool
}

// decision is the outcome of consulting the gating policy for one
// candidate destructive change.
type decision int

const (
	decisionEmit decision = iota
	decisionSkip
	decisionAbort
)

// decide implements the shared three-way branch from spec.md §4.7/§9: a
// destructive change is emitted if its gate is open, skipped-with-log if
// the gate is closed but withoutFailfast is set, and otherwise aborts the
// whole migration.
func decide(gateOpen bool, opts Options) decision {
	switch {
	case gateOpen:
		return decisionEmit
	case opts.WithoutFailfast:
		return decisionSkip
	default:
		return decisionAbort
	}
}
