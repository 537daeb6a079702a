// Package control dispatches feedback laws of a switched-mode system to the mode that is
// currently active, and runs the resulting policy at a fixed rate.
package control

import (
	"math"
)

// State is the state handed to a controller: the continuous state of the system together with
// the index of the active mode segment of the controller's event schedule.
type State struct {
	Continuous []float64 `json:"continuous"`
	Mode       int       `json:"mode"`
}

// NewStateFromVector splits a packed optimizer state whose last component carries the mode
// index.
func NewStateFromVector(v []float64) State {
	if len(v) == 0 {
		return State{}
	}
	return State{
		Continuous: append([]float64(nil), v[:len(v)-1]...),
		Mode:       int(math.Round(v[len(v)-1])),
	}
}

// Vector packs the state back into the optimizer layout.
func (s State) Vector() []float64 {
	return append(append(make([]float64, 0, len(s.Continuous)+1), s.Continuous...), float64(s.Mode))
}

// Controller is a feedback law valid over the event schedule it reports.
type Controller interface {
	// ComputeInput returns the input at time t for state x.
	ComputeInput(t float64, x State) ([]float64, error)

	// EventTimes returns the mode switch times the controller was designed against.
	EventTimes() []float64

	// Flatten serializes the controller sampled at times, one array per time.
	Flatten(times []float64) ([][]float32, error)

	// Unflatten rebuilds the controller from the output of Flatten.
	Unflatten(times []float64, data [][]float32) error

	// Clone returns a deep copy.
	Clone() Controller

	// Reset clears the controller so that it is Empty.
	Reset()

	// Size returns the number of time samples held.
	Size() int

	// Empty reports whether the controller holds no samples.
	Empty() bool
}
