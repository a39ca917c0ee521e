package ir

import "fmt"

// BuildError is the kind tag for errors raised while constructing a Module.
// The four kinds named in spec.md §4.1 are represented as sentinels below;
// wrap them with fmt.Errorf("%w: ...") for context.
type BuildError string

func (e BuildError) Error() string { return string(e) }

const (
	ErrWidthMismatch      BuildError = "width mismatch"
	ErrDuplicateDriver    BuildError = "duplicate driver"
	ErrUndefinedSignal    BuildError = "undefined signal"
	ErrCombinationalCycle BuildError = "combinational cycle"
)

func widthMismatch(ctx string, want, got int) error {
	return fmt.Errorf("%w: %s: want width %d, got %d", ErrWidthMismatch, ctx, want, got)
}

func duplicateDriver(name string) error {
	return fmt.Errorf("%w: signal %q already has a driver", ErrDuplicateDriver, name)
}

func undefinedSignal(name string) error {
	return fmt.Errorf("%w: %q", ErrUndefinedSignal, name)
}
