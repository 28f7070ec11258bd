package orchestrate

import "errors"

// ErrTransport covers spec.md §7's TransportError class: a worker that
// could not be reached, or a message too large to send. In this
// in-process implementation it's raised when a shard's own precondition
// check fails in a way that should be treated as run-fatal rather than
// merely that shard's problem — see Run's cancellation behavior.
var ErrTransport = errors.New("orchestrate: transport failure")
