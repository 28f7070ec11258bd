package session

import "errors"

// ErrPrecondition covers invalid input lengths, negative offsets, and
// other caller-contract violations spec.md §7 classifies as
// PreconditionViolation. These are fatal to the snapshot that triggered
// them but do not corrupt the session itself.
var ErrPrecondition = errors.New("session: precondition violated")
