package modeschedule

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// NumLegs is the number of feet tracked per mode: LF, RF, LH, RH.
const NumLegs = 4

// ContactFlags marks which feet are in stance.
type ContactFlags [NumLegs]bool

// Stance is the mode with every foot on the ground.
var Stance = ContactFlags{true, true, true, true}

// String renders the flags as "1" for stance and "0" for swing, e.g. "1001".
func (c ContactFlags) String() string {
	var sb strings.Builder
	for _, inContact := range c {
		if inContact {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseContactFlags parses the String form.
func ParseContactFlags(s string) (ContactFlags, error) {
	var c ContactFlags
	if len(s) != NumLegs {
		return c, errors.Errorf("contact flags %q must have %d characters", s, NumLegs)
	}
	for i := range c {
		switch s[i] {
		case '1':
			c[i] = true
		case '0':
		default:
			return c, errors.Errorf("contact flags %q may only contain 0 or 1", s)
		}
	}
	return c, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c ContactFlags) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ContactFlags) UnmarshalText(text []byte) error {
	parsed, err := ParseContactFlags(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ModeSchedule pairs switch times with the mode active between them. Modes[i] is active on
// [EventTimes[i-1], EventTimes[i]), with Modes[0] active before the first event and the last
// mode active after the final one.
type ModeSchedule struct {
	EventTimes []float64      `json:"event_times"`
	Modes      []ContactFlags `json:"modes"`
}

// NewModeSchedule validates and returns a mode schedule.
func NewModeSchedule(eventTimes []float64, modes []ContactFlags) (ModeSchedule, error) {
	s := ModeSchedule{
		EventTimes: append([]float64(nil), eventTimes...),
		Modes:      append([]ContactFlags(nil), modes...),
	}
	return s, s.Validate()
}

// Validate checks the mode count and event ordering.
func (s ModeSchedule) Validate() error {
	if len(s.Modes) != len(s.EventTimes)+1 {
		return errors.Errorf("mode schedule with %d events needs %d modes, got %d",
			len(s.EventTimes), len(s.EventTimes)+1, len(s.Modes))
	}
	for i := 1; i < len(s.EventTimes); i++ {
		if s.EventTimes[i] <= s.EventTimes[i-1] {
			return errors.Errorf("mode schedule event %d at %v does not follow %v", i, s.EventTimes[i], s.EventTimes[i-1])
		}
	}
	return nil
}

// ModeIndex returns the index into Modes active at t.
func (s ModeSchedule) ModeIndex(t float64) int {
	return sort.Search(len(s.EventTimes), func(i int) bool { return s.EventTimes[i] > t })
}

// ModeAt returns the contact flags active at t.
func (s ModeSchedule) ModeAt(t float64) ContactFlags {
	return s.Modes[s.ModeIndex(t)]
}

// EventSchedule returns the switch times as an EventSchedule.
func (s ModeSchedule) EventSchedule() EventSchedule {
	return NewEventSchedule(s.EventTimes)
}

// Gait is one period of a periodic contact sequence. EventPhases are the normalized switch
// times inside the period, strictly increasing in (0, 1). Modes[i] is active from
// EventPhases[i-1] (or 0) to EventPhases[i] (or 1).
type Gait struct {
	Duration    float64        `json:"duration"`
	EventPhases []float64      `json:"event_phases"`
	Modes       []ContactFlags `json:"modes"`
}

// Validate checks the gait timing.
func (g Gait) Validate() error {
	if !(g.Duration > 0) || math.IsInf(g.Duration, 0) {
		return errors.Errorf("gait duration %v must be positive", g.Duration)
	}
	if len(g.Modes) != len(g.EventPhases)+1 {
		return errors.Errorf("gait with %d event phases needs %d modes, got %d",
			len(g.EventPhases), len(g.EventPhases)+1, len(g.Modes))
	}
	prev := 0.0
	for i, p := range g.EventPhases {
		if p <= prev || p >= 1 {
			return errors.Errorf("gait event phase %d at %v must increase inside (0, 1)", i, p)
		}
		prev = p
	}
	return nil
}

// Schedule tiles the gait from start until end, starting in initial and returning to it after
// end.
func (g Gait) Schedule(initial ContactFlags, start, end float64) (ModeSchedule, error) {
	if err := g.Validate(); err != nil {
		return ModeSchedule{}, err
	}
	if !(start < end) {
		return ModeSchedule{}, errors.Errorf("gait schedule start %v must precede end %v", start, end)
	}

	s := ModeSchedule{Modes: []ContactFlags{initial}}
	appendMode := func(t float64, mode ContactFlags) {
		if mode == s.Modes[len(s.Modes)-1] {
			return
		}
		s.EventTimes = append(s.EventTimes, t)
		s.Modes = append(s.Modes, mode)
	}
	for periodStart := start; periodStart < end; periodStart += g.Duration {
		appendMode(periodStart, g.Modes[0])
		for i, p := range g.EventPhases {
			t := periodStart + p*g.Duration
			if t >= end {
				break
			}
			appendMode(t, g.Modes[i+1])
		}
	}
	appendMode(end, initial)
	return s, s.Validate()
}

// Trot returns a gait alternating the LF-RH and RF-LH diagonals.
func Trot(duration float64) Gait {
	return Gait{
		Duration:    duration,
		EventPhases: []float64{0.5},
		Modes: []ContactFlags{
			{true, false, false, true},
			{false, true, true, false},
		},
	}
}
