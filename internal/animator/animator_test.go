package animator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"mousefx/internal/config"
	"mousefx/internal/input"
	"mousefx/internal/motion"
	"mousefx/internal/obs"
)

var base = motion.Transform{
	Position: mgl64.Vec2{100, 50},
	Rotation: 10,
	Scale:    mgl64.Vec2{1, 1},
}

func newTestAnimator(t *testing.T, fn func(*config.Settings)) (*Animator, *MemoryHost, *input.Fixed) {
	t.Helper()
	mgr := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	mgr.UpdateMotion(func(s *config.Settings) {
		s.Scene = "Main"
		s.Source = "Camera"
		s.Position.Enabled = true
		s.Position.Smoothing = 1
		if fn != nil {
			fn(s)
		}
	})

	host := NewMemoryHost()
	in := input.NewFixed()
	in.Resize(1920, 1080)
	in.MoveTo(1920, 540)

	return New(mgr, host, in), host, in
}

func TestStepWritesTransform(t *testing.T) {
	a, host, _ := newTestAnimator(t, nil)
	host.Put("Main", "Camera", base)

	var ticked []motion.Transform
	a.SetOnTick(func(tr motion.Transform) { ticked = append(ticked, tr) })

	if err := a.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	got, _ := host.Get("Main", "Camera")
	want := motion.Transform{Position: mgl64.Vec2{300, 50}, Rotation: 10, Scale: mgl64.Vec2{1, 1}}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if len(ticked) != 1 || ticked[0] != want {
		t.Errorf("Expected one tick callback with %+v, got %+v", want, ticked)
	}

	st := a.Status()
	if st.Frame != 1 || st.Written != 1 || !st.TargetAvailable {
		t.Errorf("Expected frame 1, 1 write, target available; got %+v", st)
	}
}

func TestBaselineReadOnce(t *testing.T) {
	a, host, _ := newTestAnimator(t, nil)
	host.Put("Main", "Camera", base)

	for i := 0; i < 4; i++ {
		if err := a.Step(context.Background()); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}
	if host.Reads() != 1 {
		t.Errorf("Expected 1 host read, got %d", host.Reads())
	}
	if host.Writes() != 4 {
		t.Errorf("Expected 4 host writes, got %d", host.Writes())
	}
}

func TestTargetUnavailable(t *testing.T) {
	a, host, _ := newTestAnimator(t, nil)

	err := a.Step(context.Background())
	if !errors.Is(err, obs.ErrTargetUnavailable) {
		t.Fatalf("Expected ErrTargetUnavailable, got %v", err)
	}
	st := a.Status()
	if st.TargetAvailable {
		t.Error("Expected target to be reported unavailable")
	}
	if st.Frame != 0 {
		t.Errorf("Expected frame to stay 0, got %d", st.Frame)
	}
	if st.LastError == "" {
		t.Error("Expected last error to be recorded")
	}

	// The next tick retries
	host.Put("Main", "Camera", base)
	if err := a.Step(context.Background()); err != nil {
		t.Fatalf("Step failed after target returned: %v", err)
	}
	st = a.Status()
	if !st.TargetAvailable || st.LastError != "" || st.Frame != 1 {
		t.Errorf("Expected recovered status, got %+v", st)
	}
}

func TestWriteFailureAfterRemoval(t *testing.T) {
	a, host, _ := newTestAnimator(t, nil)
	host.Put("Main", "Camera", base)
	if err := a.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	host.Remove("Main", "Camera")
	if err := a.Step(context.Background()); !errors.Is(err, obs.ErrTargetUnavailable) {
		t.Errorf("Expected ErrTargetUnavailable on write, got %v", err)
	}
	if a.Status().TargetAvailable {
		t.Error("Expected target to be reported unavailable")
	}
}

func TestPausedStepIsNoop(t *testing.T) {
	a, host, _ := newTestAnimator(t, nil)
	host.Put("Main", "Camera", base)

	a.SetPaused(true)
	if err := a.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if host.Writes() != 0 || host.Reads() != 0 {
		t.Errorf("Expected no host traffic while paused, got %d reads %d writes", host.Reads(), host.Writes())
	}
	if !a.Status().Paused {
		t.Error("Expected status to report paused")
	}

	a.SetPaused(false)
	if err := a.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if host.Writes() != 1 {
		t.Errorf("Expected 1 write after resume, got %d", host.Writes())
	}
}

func TestSkipPolicyCountsSkippedTicks(t *testing.T) {
	a, host, in := newTestAnimator(t, func(s *config.Settings) {
		s.CPU.Enabled = true
		s.CPU.MinIntervalMs = 100
		s.CPU.MoveThresholdPx = 2
	})
	host.Put("Main", "Camera", base)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	ctx := context.Background()
	a.Step(ctx)
	now = now.Add(10 * time.Millisecond)
	a.Step(ctx)

	if host.Writes() != 1 {
		t.Errorf("Expected second tick to be skipped, got %d writes", host.Writes())
	}
	if a.Status().Skipped != 1 {
		t.Errorf("Expected 1 skipped tick, got %d", a.Status().Skipped)
	}

	in.MoveTo(1000, 540)
	now = now.Add(10 * time.Millisecond)
	a.Step(ctx)
	if host.Writes() != 2 {
		t.Errorf("Expected movement to force an update, got %d writes", host.Writes())
	}
}

func TestApplyKeepsBaselineForSmoothingChange(t *testing.T) {
	a, host, _ := newTestAnimator(t, nil)
	host.Put("Main", "Camera", base)
	ctx := context.Background()
	a.Step(ctx)

	settings := a.configMgr.Motion()
	settings.Position.Smoothing = 0.5
	a.Apply(settings)
	a.Step(ctx)

	if host.Reads() != 1 {
		t.Errorf("Expected baseline to survive a smoothing change, got %d reads", host.Reads())
	}
}

func TestApplyNewTargetReinitializes(t *testing.T) {
	a, host, _ := newTestAnimator(t, nil)
	host.Put("Main", "Camera", base)
	other := motion.Transform{Position: mgl64.Vec2{-40, 0}, Scale: mgl64.Vec2{1, 1}}
	host.Put("Main", "Overlay", other)
	ctx := context.Background()
	a.Step(ctx)

	settings := a.configMgr.Motion()
	settings.Source = "Overlay"
	a.Apply(settings)
	if err := a.Step(ctx); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	got, _ := host.Get("Main", "Overlay")
	if got.Position != (mgl64.Vec2{160, 0}) {
		t.Errorf("Expected (160,0) from the new baseline, got %v", got.Position)
	}
	if host.Reads() != 2 {
		t.Errorf("Expected a second baseline read, got %d", host.Reads())
	}
}

func TestApplyRebuildsTable(t *testing.T) {
	a, _, _ := newTestAnimator(t, nil)

	settings := a.configMgr.Motion()
	settings.IntervalMs = 50
	settings.Wiggle.MaxCycleSpeed = 2
	a.Apply(settings)

	a.mu.Lock()
	st := a.loop.Settings()
	a.mu.Unlock()
	if st.IntervalMs != 50 {
		t.Errorf("Expected interval 50, got %d", st.IntervalMs)
	}
}

func TestStartStop(t *testing.T) {
	a, host, _ := newTestAnimator(t, func(s *config.Settings) {
		s.IntervalMs = 5
	})
	host.Put("Main", "Camera", base)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	if !a.Status().Running {
		t.Error("Expected animator to be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for host.Writes() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if host.Writes() < 3 {
		t.Fatalf("Expected at least 3 writes, got %d", host.Writes())
	}

	a.Stop()
	if a.Status().Running {
		t.Error("Expected animator to be stopped")
	}
	writes := host.Writes()
	time.Sleep(30 * time.Millisecond)
	if host.Writes() != writes {
		t.Errorf("Expected no writes after Stop, got %d more", host.Writes()-writes)
	}
}

func TestApplyWhileRunning(t *testing.T) {
	a, host, _ := newTestAnimator(t, func(s *config.Settings) {
		s.IntervalMs = 5
	})
	host.Put("Main", "Camera", base)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	defer a.Stop()

	settings := a.configMgr.Motion()
	settings.IntervalMs = 7
	a.Apply(settings)

	if !a.Status().Running {
		t.Error("Expected animator to keep running after Apply")
	}
	if a.Status().IntervalMs != 7 {
		t.Errorf("Expected interval 7, got %d", a.Status().IntervalMs)
	}
}

// slowHost blocks writes until release is closed
type slowHost struct {
	*MemoryHost
	writing chan struct{}
	release chan struct{}
}

func (h *slowHost) SetSceneItemTransform(ctx context.Context, scene, source string, t motion.Transform) error {
	close(h.writing)
	select {
	case <-h.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return h.MemoryHost.SetSceneItemTransform(ctx, scene, source, t)
}

func TestStatusDuringSlowHostCall(t *testing.T) {
	a, mem, _ := newTestAnimator(t, nil)
	mem.Put("Main", "Camera", base)
	host := &slowHost{MemoryHost: mem, writing: make(chan struct{}), release: make(chan struct{})}
	a.host = host
	a.RequestTimeout = 0

	stepped := make(chan error, 1)
	go func() { stepped <- a.Step(context.Background()) }()
	<-host.writing

	done := make(chan struct{})
	go func() {
		a.Status()
		a.SetPaused(true)
		a.Paused()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Status and SetPaused not to wait for the host call")
	}

	close(host.release)
	if err := <-stepped; err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if st := a.Status(); st.Written != 1 || !st.Paused {
		t.Errorf("Expected 1 write while paused afterwards, got %+v", st)
	}
}
