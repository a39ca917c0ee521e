package sim

import "fmt"

// ControlError is the kind tag for errors raised while driving a Simulator,
// as opposed to ir.BuildError raised while constructing the IR itself
// (spec.md §7: "Simulation control" errors).
type ControlError string

func (e ControlError) Error() string { return string(e) }

const (
	// ErrNoSuchSignal is returned by Poke/Peek for an undeclared signal.
	ErrNoSuchSignal ControlError = "no such signal"
	// ErrCombinationalCycle is returned when the combinational graph does
	// not admit a topological order (spec.md §4.2/§4.1).
	ErrCombinationalCycle ControlError = "combinational cycle"
)

func noSuchSignal(name string) error {
	return fmt.Errorf("%w: %q", ErrNoSuchSignal, name)
}
