// Package animator drives a motion.Loop from a periodic timer and pushes
// every computed transform to the host.
package animator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"mousefx/internal/config"
	"mousefx/internal/input"
	"mousefx/internal/motion"
	"mousefx/internal/obs"
	"mousefx/internal/wave"
)

// DefaultRequestTimeout bounds each host read or write within a tick
const DefaultRequestTimeout = time.Second

// Host reads and writes the transform of a scene item
type Host interface {
	SceneItemTransform(ctx context.Context, scene, source string) (motion.Transform, error)
	SetSceneItemTransform(ctx context.Context, scene, source string, t motion.Transform) error
}

// Status is a snapshot of the animator for the tray and the API
type Status struct {
	Running         bool             `json:"running"`
	Paused          bool             `json:"paused"`
	Scene           string           `json:"scene"`
	Source          string           `json:"source"`
	IntervalMs      int              `json:"interval_ms"`
	Frame           uint64           `json:"frame"`
	Written         uint64           `json:"written"`
	Skipped         uint64           `json:"skipped"`
	Idle            bool             `json:"idle"`
	TargetAvailable bool             `json:"target_available"`
	LastError       string           `json:"last_error,omitempty"`
	Last            motion.Transform `json:"last"`
}

// Animator owns the loop state and the timer that advances it
type Animator struct {
	// ctl serializes Start, Stop and Apply
	ctl sync.Mutex

	// tick guards the loop state and is held across host I/O.
	// Lock order is tick then mu.
	tick sync.Mutex
	loop *motion.Loop
	skip *motion.SkipPolicy

	// sampler is refreshed once per tick
	sampler *input.Latch

	configMgr *config.Manager
	host      Host
	now       func() time.Time

	// mu guards everything below; it is never held across host I/O
	mu       sync.Mutex
	paused   bool
	resumed  bool
	onTick   func(motion.Transform)
	settings config.Settings
	frame    uint64
	idle     bool

	// RequestTimeout applies to each host call
	RequestTimeout time.Duration

	ctx     context.Context
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	unavailable bool
	lastErr     string
	last        motion.Transform
	written     uint64
	skipped     uint64
}

// New creates an animator for the active motion settings of configMgr
func New(configMgr *config.Manager, host Host, sampler input.Sampler) *Animator {
	if sampler == nil {
		sampler = input.Inert()
	}
	settings := configMgr.Motion()
	latch := input.NewLatch(sampler)

	a := &Animator{
		configMgr:      configMgr,
		host:           host,
		sampler:        latch,
		loop:           motion.NewLoop(settings, buildTable(settings)),
		now:            time.Now,
		RequestTimeout: DefaultRequestTimeout,
	}
	a.skip = newSkipPolicy(settings, latch)
	a.settings = a.loop.Settings()
	return a
}

func buildTable(s config.Settings) *wave.Table {
	return wave.NewWithCycles(wave.DefaultSamples, interval(s), s.Wiggle.MaxCycleSpeed,
		wave.KindPosition, wave.KindRotation, wave.KindScale)
}

func newSkipPolicy(s config.Settings, in input.Sampler) *motion.SkipPolicy {
	if !s.CPU.Enabled {
		return nil
	}
	return motion.NewSkipPolicy(s.CPU, in)
}

func interval(s config.Settings) time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// SetOnTick sets the callback invoked with every transform written to the host
func (a *Animator) SetOnTick(fn func(motion.Transform)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTick = fn
}

// SetPaused suspends or resumes ticking without tearing down the timer
func (a *Animator) SetPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.paused == paused {
		return
	}
	a.paused = paused
	// The next tick resets the skip policy
	a.resumed = !paused
	log.Printf("Animator: Paused=%v", paused)
}

// Paused reports whether ticking is suspended
func (a *Animator) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// Start installs the timer. Ticks stop when ctx is done or Stop is called.
func (a *Animator) Start(ctx context.Context) {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	if a.running {
		return
	}
	a.ctx = ctx
	a.setRunning(true)
	a.startTimer()
}

// Stop removes the timer and waits for an in-flight tick to finish
func (a *Animator) Stop() {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	if !a.running {
		return
	}
	a.stopTimer()
	a.setRunning(false)
}

// running is written under both locks so Status only needs mu
func (a *Animator) setRunning(v bool) {
	a.mu.Lock()
	a.running = v
	a.mu.Unlock()
}

// Reload applies the active motion settings of the config manager
func (a *Animator) Reload() {
	a.Apply(a.configMgr.Motion())
}

func (a *Animator) startTimer() {
	a.mu.Lock()
	every := interval(a.settings)
	a.mu.Unlock()

	a.stop = make(chan struct{})
	a.wg.Add(1)
	go a.run(a.ctx, every, a.stop)
	log.Printf("Animator: Timer installed (%v)", every)
}

func (a *Animator) stopTimer() {
	if a.stop == nil {
		return
	}
	close(a.stop)
	a.wg.Wait()
	a.stop = nil
}

func (a *Animator) run(ctx context.Context, every time.Duration, stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			// Failures are logged by Step; the next tick retries
			a.Step(ctx)
		}
	}
}

// Apply replaces the settings. The timer is reinstalled, axes whose inputs
// changed are re-initialized and the wave table is rebuilt when the
// interval or the maximum cycle speed changed.
func (a *Animator) Apply(next config.Settings) {
	next.Normalize()

	a.ctl.Lock()
	defer a.ctl.Unlock()

	if a.running {
		a.stopTimer()
	}

	a.tick.Lock()
	prev := a.loop.Settings()
	if prev.IntervalMs != next.IntervalMs || prev.Wiggle.MaxCycleSpeed != next.Wiggle.MaxCycleSpeed {
		a.loop.SetTable(buildTable(next))
	}
	a.loop.Apply(next)
	a.skip = newSkipPolicy(next, a.sampler)
	applied := a.loop.Settings()
	a.tick.Unlock()

	a.mu.Lock()
	a.settings = applied
	a.idle = false
	if prev.Scene != next.Scene || prev.Source != next.Source {
		a.unavailable = false
	}
	a.mu.Unlock()

	if a.running {
		a.startTimer()
	}
}

// Step runs one tick: skip check, host read if needed, loop update and
// host write. Paused and skipped ticks return nil.
func (a *Animator) Step(ctx context.Context) error {
	a.tick.Lock()
	defer a.tick.Unlock()

	a.mu.Lock()
	paused, resumed := a.paused, a.resumed
	a.resumed = false
	a.mu.Unlock()

	if paused {
		return nil
	}
	a.sampler.Refresh()
	if resumed && a.skip != nil {
		a.skip.Reset()
	}
	if a.skip != nil && a.skip.ShouldSkip(a.now()) {
		idle := a.skip.Idle()
		a.mu.Lock()
		a.skipped++
		a.idle = idle
		a.mu.Unlock()
		return nil
	}

	settings := a.loop.Settings()
	src := motion.SourceFunc(func() (motion.Transform, error) {
		rctx, cancel := a.requestContext(ctx)
		defer cancel()
		return a.host.SceneItemTransform(rctx, settings.Scene, settings.Source)
	})

	t, err := a.loop.Tick(src, a.sampler)
	if err == nil {
		wctx, cancel := a.requestContext(ctx)
		err = a.host.SetSceneItemTransform(wctx, settings.Scene, settings.Source, t)
		cancel()
	}
	frame := a.loop.Frame()
	idle := a.skip != nil && a.skip.Idle()

	a.mu.Lock()
	a.frame = frame
	a.idle = idle
	if err != nil {
		a.fail(settings, err)
		a.mu.Unlock()
		return err
	}

	if a.unavailable {
		log.Printf("Animator: Target %s/%s is available again", settings.Scene, settings.Source)
		a.unavailable = false
	}
	a.lastErr = ""
	a.last = t
	a.written++
	onTick := a.onTick
	a.mu.Unlock()

	if onTick != nil {
		onTick(t)
	}
	return nil
}

func (a *Animator) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.RequestTimeout)
}

// fail records a tick failure. Called with mu held. Outages are logged once until the target
// comes back; other errors are logged when the message changes.
func (a *Animator) fail(settings config.Settings, err error) {
	msg := err.Error()
	defer func() { a.lastErr = msg }()

	if isOutage(err) {
		if !a.unavailable {
			log.Printf("Animator: Target %s/%s unavailable: %v", settings.Scene, settings.Source, err)
			a.unavailable = true
		}
		return
	}
	if msg != a.lastErr {
		log.Printf("Animator: Tick failed: %v", err)
	}
}

func isOutage(err error) bool {
	return errors.Is(err, obs.ErrTargetUnavailable) || errors.Is(err, obs.ErrNotConnected)
}

// Status returns a snapshot of the animator
func (a *Animator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		Running:         a.running,
		Paused:          a.paused,
		Scene:           a.settings.Scene,
		Source:          a.settings.Source,
		IntervalMs:      a.settings.IntervalMs,
		Frame:           a.frame,
		Written:         a.written,
		Skipped:         a.skipped,
		Idle:            a.idle,
		TargetAvailable: !a.unavailable,
		LastError:       a.lastErr,
		Last:            a.last,
	}
}
