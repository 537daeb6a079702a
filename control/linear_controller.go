package control

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearController is a time-varying affine feedback law u = uff(t) + K(t)x, linearly
// interpolated between samples and held constant past either end.
type LinearController struct {
	stateDim, inputDim int
	times              []float64
	bias               [][]float64
	gains              []*mat.Dense
	eventTimes         []float64
}

// NewLinearController builds a controller from feedforward inputs and inputDim x stateDim gains
// sampled at strictly increasing times.
func NewLinearController(times []float64, bias [][]float64, gains []*mat.Dense, eventTimes []float64) (*LinearController, error) {
	if len(times) == 0 {
		return nil, errors.New("linear controller needs at least one sample")
	}
	if len(bias) != len(times) || len(gains) != len(times) {
		return nil, errors.Errorf("linear controller has %d times, %d feedforward inputs and %d gains",
			len(times), len(bias), len(gains))
	}
	inputDim, stateDim := gains[0].Dims()
	if inputDim == 0 || stateDim == 0 {
		return nil, errors.New("linear controller gains must not be empty")
	}
	c := &LinearController{
		stateDim:   stateDim,
		inputDim:   inputDim,
		eventTimes: append([]float64(nil), eventTimes...),
	}
	if err := c.set(times, bias, gains); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *LinearController) set(times []float64, bias [][]float64, gains []*mat.Dense) error {
	for i := range times {
		if i > 0 && times[i] <= times[i-1] {
			return errors.Errorf("controller times must be strictly increasing, sample %d at %v follows %v",
				i, times[i], times[i-1])
		}
		if len(bias[i]) != c.inputDim {
			return errors.Errorf("feedforward sample %d has dimension %d, expected %d", i, len(bias[i]), c.inputDim)
		}
		if r, cols := gains[i].Dims(); r != c.inputDim || cols != c.stateDim {
			return errors.Errorf("gain sample %d is %dx%d, expected %dx%d", i, r, cols, c.inputDim, c.stateDim)
		}
	}
	c.times = append([]float64(nil), times...)
	c.bias = make([][]float64, len(bias))
	c.gains = make([]*mat.Dense, len(gains))
	for i := range times {
		c.bias[i] = append([]float64(nil), bias[i]...)
		c.gains[i] = mat.DenseCopyOf(gains[i])
	}
	return nil
}

// interpolationIndex returns the sample to the left of t and the weight of the sample to its
// right.
func (c *LinearController) interpolationIndex(t float64) (int, float64) {
	n := len(c.times)
	switch {
	case n == 1 || t <= c.times[0]:
		return 0, 0
	case t >= c.times[n-1]:
		return n - 2, 1
	}
	i := sort.Search(n, func(i int) bool { return c.times[i] > t }) - 1
	return i, (t - c.times[i]) / (c.times[i+1] - c.times[i])
}

func (c *LinearController) sampleInput(i int, x *mat.VecDense) *mat.VecDense {
	u := mat.NewVecDense(c.inputDim, nil)
	u.MulVec(c.gains[i], x)
	u.AddVec(u, mat.NewVecDense(c.inputDim, c.bias[i]))
	return u
}

// ComputeInput implements Controller.
func (c *LinearController) ComputeInput(t float64, x State) ([]float64, error) {
	if c.Empty() {
		return nil, errors.New("linear controller is empty")
	}
	if len(x.Continuous) != c.stateDim {
		return nil, errors.Errorf("state has dimension %d, expected %d", len(x.Continuous), c.stateDim)
	}
	xv := mat.NewVecDense(c.stateDim, append([]float64(nil), x.Continuous...))
	i, alpha := c.interpolationIndex(t)
	u := c.sampleInput(i, xv)
	if alpha > 0 {
		var step mat.VecDense
		step.SubVec(c.sampleInput(i+1, xv), u)
		u.AddScaledVec(u, alpha, &step)
	}
	return u.RawVector().Data, nil
}

func (c *LinearController) sampleAt(t float64) ([]float64, *mat.Dense) {
	i, alpha := c.interpolationIndex(t)
	bias := mat.NewVecDense(c.inputDim, append([]float64(nil), c.bias[i]...))
	gain := mat.DenseCopyOf(c.gains[i])
	if alpha > 0 {
		var step mat.Dense
		step.Sub(c.gains[i+1], c.gains[i])
		step.Scale(alpha, &step)
		gain.Add(gain, &step)
		var biasStep mat.VecDense
		biasStep.SubVec(mat.NewVecDense(c.inputDim, c.bias[i+1]), bias)
		bias.AddScaledVec(bias, alpha, &biasStep)
	}
	return bias.RawVector().Data, gain
}

func (c *LinearController) flatLen() int {
	return c.inputDim * (1 + c.stateDim)
}

// Flatten implements Controller. Each entry is uff(t) followed by K(t) in row-major order.
func (c *LinearController) Flatten(times []float64) ([][]float32, error) {
	if c.Empty() {
		return nil, errors.New("linear controller is empty")
	}
	out := make([][]float32, len(times))
	for k, t := range times {
		bias, gain := c.sampleAt(t)
		flat := make([]float32, 0, c.flatLen())
		for _, v := range bias {
			flat = append(flat, float32(v))
		}
		for r := 0; r < c.inputDim; r++ {
			for col := 0; col < c.stateDim; col++ {
				flat = append(flat, float32(gain.At(r, col)))
			}
		}
		out[k] = flat
	}
	return out, nil
}

// Unflatten implements Controller. The dimensions of the controller are kept.
func (c *LinearController) Unflatten(times []float64, data [][]float32) error {
	if len(times) != len(data) {
		return errors.Errorf("unflatten got %d times but %d arrays", len(times), len(data))
	}
	bias := make([][]float64, len(data))
	gains := make([]*mat.Dense, len(data))
	for k, flat := range data {
		if len(flat) != c.flatLen() {
			return errors.Errorf("flat array %d has length %d, expected %d", k, len(flat), c.flatLen())
		}
		wide := make([]float64, len(flat))
		for i, v := range flat {
			wide[i] = float64(v)
		}
		bias[k] = wide[:c.inputDim]
		gains[k] = mat.NewDense(c.inputDim, c.stateDim, wide[c.inputDim:])
	}
	return c.set(times, bias, gains)
}

// EventTimes implements Controller.
func (c *LinearController) EventTimes() []float64 {
	return append([]float64(nil), c.eventTimes...)
}

// Clone implements Controller.
func (c *LinearController) Clone() Controller {
	clone := &LinearController{
		stateDim:   c.stateDim,
		inputDim:   c.inputDim,
		eventTimes: append([]float64(nil), c.eventTimes...),
	}
	clone.times = append([]float64(nil), c.times...)
	for i := range c.times {
		clone.bias = append(clone.bias, append([]float64(nil), c.bias[i]...))
		clone.gains = append(clone.gains, mat.DenseCopyOf(c.gains[i]))
	}
	return clone
}

// Reset implements Controller.
func (c *LinearController) Reset() {
	c.times = nil
	c.bias = nil
	c.gains = nil
}

// Size implements Controller.
func (c *LinearController) Size() int {
	return len(c.times)
}

// Empty implements Controller.
func (c *LinearController) Empty() bool {
	return len(c.times) == 0
}
