package kernel

import "errors"

// ErrNumericOutOfRange covers the kernel-build-time failures spec.md §7
// classifies as NumericOutOfRange: fmin == 0, fmax <= fmin, or a parameter
// combination that yields zero output bins. These are detectable before
// any dispatch happens, so callers should treat them as fail-fast.
var ErrNumericOutOfRange = errors.New("kernel: numeric value out of range")
