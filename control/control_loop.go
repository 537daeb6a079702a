package control

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/leggedmpc/logging"
)

// MaxLoopFrequency is the highest rate a PolicyLoop accepts, in Hz.
const MaxLoopFrequency = 1000.0

// LoopConfig configures a PolicyLoop.
type LoopConfig struct {
	Frequency float64 `json:"frequency_hz"`
}

// Observation is a timestamped state measurement.
type Observation struct {
	Time  float64
	State State
}

// StateSource supplies the state the policy is evaluated on.
type StateSource interface {
	Observe(ctx context.Context) (Observation, error)
}

// InputSink receives the inputs computed by the policy.
type InputSink interface {
	SetInput(ctx context.Context, t float64, u []float64) error
}

// PolicyLoop evaluates the latest policy against the latest observation at a fixed rate and
// forwards the result to a sink. The policy can be swapped while the loop runs.
type PolicyLoop struct {
	cfg    LoopConfig
	logger logging.Logger
	clock  clock.Clock
	dt     time.Duration
	source StateSource
	sink   InputSink

	mu     sync.Mutex
	policy Controller

	runMu                   sync.Mutex
	ticker                  *clock.Ticker
	activeBackgroundWorkers sync.WaitGroup
	cancelCtx               context.Context
	cancel                  context.CancelFunc
	running                 bool
}

// NewPolicyLoop returns a stopped loop. A nil clock uses the wall clock.
func NewPolicyLoop(cfg LoopConfig, source StateSource, sink InputSink, clk clock.Clock, logger logging.Logger) (*PolicyLoop, error) {
	if cfg.Frequency <= 0 || cfg.Frequency > MaxLoopFrequency {
		return nil, errors.Errorf("loop frequency %v must be in (0, %v]Hz", cfg.Frequency, MaxLoopFrequency)
	}
	if source == nil || sink == nil {
		return nil, errors.New("policy loop needs a state source and an input sink")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &PolicyLoop{
		cfg:    cfg,
		logger: logger,
		clock:  clk,
		dt:     time.Duration(float64(time.Second) / cfg.Frequency),
		source: source,
		sink:   sink,
	}, nil
}

// UpdatePolicy installs the policy used from the next tick on. The loop keeps its own clone.
func (l *PolicyLoop) UpdatePolicy(policy Controller) {
	var clone Controller
	if policy != nil {
		clone = policy.Clone()
	}
	l.mu.Lock()
	l.policy = clone
	l.mu.Unlock()
}

// Step runs one iteration: observe, compute, forward.
func (l *PolicyLoop) Step(ctx context.Context) error {
	l.mu.Lock()
	policy := l.policy
	l.mu.Unlock()
	if policy == nil || policy.Empty() {
		return errors.New("no policy to evaluate")
	}

	obs, err := l.source.Observe(ctx)
	if err != nil {
		return errors.Wrap(err, "observing state")
	}
	u, err := policy.ComputeInput(obs.Time, obs.State)
	if err != nil {
		return errors.Wrapf(err, "computing input at %v", obs.Time)
	}
	l.logger.CDebugw(ctx, "computed input", "time", obs.Time, "mode", obs.State.Mode, "input", u)
	return l.sink.SetInput(ctx, obs.Time, u)
}

// Start starts ticking in the background.
func (l *PolicyLoop) Start() error {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.running {
		return errors.New("policy loop already running")
	}
	l.cancelCtx, l.cancel = context.WithCancel(context.Background())
	l.ticker = l.clock.Ticker(l.dt)
	l.logger.Infof("running policy loop at %1.4fHz (%v)", l.cfg.Frequency, l.dt)

	ctx, ticker := l.cancelCtx, l.ticker
	l.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := l.Step(ctx); err != nil && ctx.Err() == nil {
				l.logger.Warnw("policy loop step failed", "error", err)
			}
		}
	}, l.activeBackgroundWorkers.Done)
	l.running = true
	return nil
}

// Stop stops the loop and waits for the running step to finish.
func (l *PolicyLoop) Stop() {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if !l.running {
		return
	}
	l.logger.Debug("closing policy loop")
	l.ticker.Stop()
	l.cancel()
	l.activeBackgroundWorkers.Wait()
	l.running = false
}

// Frequency returns the loop's frequency.
func (l *PolicyLoop) Frequency() float64 {
	return l.cfg.Frequency
}
