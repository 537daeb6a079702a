package control

import (
	"github.com/pkg/errors"

	"go.viam.com/leggedmpc/logging"
	"go.viam.com/leggedmpc/modeschedule"
)

// WeakEpsilon is the distance kept from a segment boundary when a controller is evaluated on
// behalf of a time outside its segment. The evaluation happens 2*WeakEpsilon inside.
const WeakEpsilon = 1e-9

// ModeIndexedController evaluates a wrapped controller only inside the mode segment named by the
// state. Queries outside that segment are answered by the controller at the nearest point inside
// the segment, shifted by how much the input reference moves between that point and the query
// time.
//
// A time equal to a segment boundary belongs to the later segment.
type ModeIndexedController struct {
	ctrl      Controller
	schedule  modeschedule.EventSchedule
	reference *InputReference
	logger    logging.Logger
}

// NewModeIndexedController wraps ctrl. The event schedule is taken from ctrl. A nil or empty
// reference disables compensation.
func NewModeIndexedController(ctrl Controller, reference *InputReference, logger logging.Logger) (*ModeIndexedController, error) {
	if ctrl == nil {
		return nil, errors.New("mode indexed controller needs a controller to wrap")
	}
	if reference == nil {
		reference = &InputReference{}
	}
	schedule := modeschedule.NewEventSchedule(ctrl.EventTimes())
	logger.Debugw("dispatching controller by mode", "segments", schedule.Len(), "reference_samples", reference.Len())
	return &ModeIndexedController{
		ctrl:      ctrl,
		schedule:  schedule,
		reference: reference,
		logger:    logger,
	}, nil
}

// Segment returns the clamped segment index for mode along with the segment's start and end.
// The end equals the start for the last segment.
func (c *ModeIndexedController) Segment(mode int) (int, float64, float64) {
	if mode < 0 {
		mode = 0
	}
	if last := c.schedule.Len() - 1; mode > last {
		mode = last
	}
	return mode, c.schedule.At(mode), c.schedule.At(mode + 1)
}

// ComputeInput implements Controller.
func (c *ModeIndexedController) ComputeInput(t float64, x State) ([]float64, error) {
	mode, tauMinus, tau := c.Segment(x.Mode)
	pastAllEvents := mode >= c.schedule.Len()-1 && t >= tauMinus

	switch {
	case pastAllEvents || (t >= tauMinus && t < tau):
		return c.ctrl.ComputeInput(t, x)
	case t < tauMinus:
		return c.compensated(t, tauMinus+2*WeakEpsilon, x)
	default:
		return c.compensated(t, tau-2*WeakEpsilon, x)
	}
}

func (c *ModeIndexedController) compensated(t, evalTime float64, x State) ([]float64, error) {
	u, err := c.ctrl.ComputeInput(evalTime, x)
	if err != nil {
		return nil, err
	}
	if c.reference.Len() == 0 {
		return u, nil
	}
	if c.reference.Dimension() != len(u) {
		return nil, errors.Errorf("input reference has dimension %d but controller input has %d",
			c.reference.Dimension(), len(u))
	}
	atQuery := c.reference.Interpolate(t)
	atEval := c.reference.Interpolate(evalTime)
	out := make([]float64, len(u))
	for i := range u {
		out[i] = u[i] + atQuery[i] - atEval[i]
	}
	return out, nil
}

// EventTimes implements Controller.
func (c *ModeIndexedController) EventTimes() []float64 {
	return c.ctrl.EventTimes()
}

// Flatten implements Controller.
func (c *ModeIndexedController) Flatten(times []float64) ([][]float32, error) {
	return c.ctrl.Flatten(times)
}

// Unflatten implements Controller.
func (c *ModeIndexedController) Unflatten(times []float64, data [][]float32) error {
	return c.ctrl.Unflatten(times, data)
}

// Clone implements Controller. The reference is immutable and shared.
func (c *ModeIndexedController) Clone() Controller {
	return &ModeIndexedController{
		ctrl:      c.ctrl.Clone(),
		schedule:  c.schedule,
		reference: c.reference,
		logger:    c.logger,
	}
}

// Reset implements Controller.
func (c *ModeIndexedController) Reset() {
	c.ctrl.Reset()
}

// Size implements Controller.
func (c *ModeIndexedController) Size() int {
	return c.ctrl.Size()
}

// Empty implements Controller.
func (c *ModeIndexedController) Empty() bool {
	return c.ctrl.Empty()
}
