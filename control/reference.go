package control

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"
)

// InputReference is a time series of inputs interpolated linearly between samples and held
// constant past either end.
type InputReference struct {
	times  []float64
	inputs [][]float64
	// one fitted interpolant per input component, only when there are two or more samples
	components []interp.PiecewiseLinear
}

// NewInputReference validates and fits a reference. An empty reference is allowed and
// interpolates to nil.
func NewInputReference(times []float64, inputs [][]float64) (*InputReference, error) {
	if len(times) != len(inputs) {
		return nil, errors.Errorf("input reference has %d times but %d inputs", len(times), len(inputs))
	}
	r := &InputReference{
		times:  append([]float64(nil), times...),
		inputs: make([][]float64, len(inputs)),
	}
	for i, u := range inputs {
		if len(u) != len(inputs[0]) {
			return nil, errors.Errorf("input reference sample %d has dimension %d, expected %d", i, len(u), len(inputs[0]))
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, errors.Errorf("input reference times must be strictly increasing, sample %d at %v follows %v",
				i, times[i], times[i-1])
		}
		r.inputs[i] = append([]float64(nil), u...)
	}
	if len(times) < 2 {
		return r, nil
	}

	r.components = make([]interp.PiecewiseLinear, len(inputs[0]))
	for j := range r.components {
		ys := make([]float64, len(times))
		for i := range inputs {
			ys[i] = inputs[i][j]
		}
		if err := r.components[j].Fit(r.times, ys); err != nil {
			return nil, errors.Wrapf(err, "fitting input reference component %d", j)
		}
	}
	return r, nil
}

// Len returns the number of samples.
func (r *InputReference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.times)
}

// Dimension returns the input dimension, zero for an empty reference.
func (r *InputReference) Dimension() int {
	if r.Len() == 0 {
		return 0
	}
	return len(r.inputs[0])
}

// Interpolate returns the reference input at t.
func (r *InputReference) Interpolate(t float64) []float64 {
	switch r.Len() {
	case 0:
		return nil
	case 1:
		return append([]float64(nil), r.inputs[0]...)
	}
	u := make([]float64, len(r.components))
	for j := range r.components {
		u[j] = r.components[j].Predict(t)
	}
	return u
}
