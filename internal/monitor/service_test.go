package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/shakewatch/shakewatch/internal/config"
	"github.com/shakewatch/shakewatch/internal/models"
	"github.com/shakewatch/shakewatch/internal/sampler"
	"github.com/shakewatch/shakewatch/internal/shake"
	"github.com/shakewatch/shakewatch/pkg/intent"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

type fakeSampler struct {
	mu         sync.Mutex
	position   pointer.Point
	buttonDown bool
	active     bool
	foreground *pointer.WindowInfo
	err        error
}

func (f *fakeSampler) Sample(now time.Time) (sampler.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := sampler.Reading{Active: f.active, Foreground: f.foreground}
	if f.err != nil {
		return r, f.err
	}
	r.Sample = shake.Sample{At: now, Position: f.position, ButtonDown: f.buttonDown}
	return r, nil
}

func (f *fakeSampler) move(x, y int) {
	f.mu.Lock()
	f.position = pointer.Point{X: x, Y: y}
	f.mu.Unlock()
}

type fakeScreen struct {
	size pointer.Size
	err  error
}

func (f *fakeScreen) ScreenSize() (pointer.Size, error) {
	return f.size, f.err
}

type recordingSink struct {
	intents []intent.Intent
	err     error
}

func (r *recordingSink) Emit(i intent.Intent) error {
	if r.err != nil {
		return r.err
	}
	r.intents = append(r.intents, i)
	return nil
}

type fakeRecorder struct {
	triggers []*models.TriggerEvent
	errors   []string
}

func (f *fakeRecorder) RecordTrigger(event *models.TriggerEvent) error {
	f.triggers = append(f.triggers, event)
	return nil
}

func (f *fakeRecorder) RecordError(component string, err error) error {
	f.errors = append(f.errors, component+": "+err.Error())
	return nil
}

type fixture struct {
	svc      *Service
	sampler  *fakeSampler
	screen   *fakeScreen
	sink     *recordingSink
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sampler:  &fakeSampler{buttonDown: true, active: true, foreground: &pointer.WindowInfo{AppName: "Nautilus"}},
		screen:   &fakeScreen{size: pointer.Size{Width: 1920, Height: 1080}},
		sink:     &recordingSink{},
		recorder: &fakeRecorder{},
	}
	cfg := config.Default()
	f.svc = NewService(cfg, Deps{
		Sampler:       f.sampler,
		Screen:        f.screen,
		Sink:          f.sink,
		Recorder:      f.recorder,
		DisplayServer: "x11",
	})
	return f
}

// shake drives seven samples 50ms apart alternating between x1 and x2,
// producing a baseline plus five reversals. It returns the time of the last sample.
func (f *fixture) shake(startMs, x1, x2, y int) int {
	ms := startMs
	for i := 0; i < 7; i++ {
		x := x1
		if i%2 == 1 {
			x = x2
		}
		f.sampler.move(x, y)
		f.svc.Step(at(ms))
		ms += 50
	}
	return ms - 50
}

func (f *fixture) kinds() []intent.Kind {
	var out []intent.Kind
	for _, i := range f.sink.intents {
		out = append(out, i.Kind)
	}
	return out
}

func TestShakeNearEdgeShowsCorrectedWindow(t *testing.T) {
	f := newFixture(t)

	f.shake(0, 1900, 1700, 1050)

	if len(f.sink.intents) != 1 {
		t.Fatalf("intents = %v, want one show", f.sink.intents)
	}
	in := f.sink.intents[0]
	if in.Kind != intent.ShowAt || in.Source != intent.SourceShake {
		t.Errorf("intent = %s, want show_at from shake", in)
	}
	if want := (pointer.Point{X: 1800, Y: 950}); in.Position != want {
		t.Errorf("Position = %+v, want %+v", in.Position, want)
	}

	if len(f.recorder.triggers) != 1 {
		t.Fatalf("triggers = %d, want 1", len(f.recorder.triggers))
	}
	tr := f.recorder.triggers[0]
	if tr.PointerX != 1900 || tr.WindowX != 1800 || !tr.Corrected() {
		t.Errorf("trigger = %+v, want pointer 1900 window 1800", tr)
	}
	if tr.Reversals != 5 || tr.AppName != "Nautilus" || tr.DisplayServer != "x11" {
		t.Errorf("trigger = %+v, want 5 reversals in Nautilus on x11", tr)
	}

	st := f.svc.Status()
	if !st.Shown || st.Triggers != 1 || st.Reversals != 0 {
		t.Errorf("Status() = %+v, want shown with one trigger", st)
	}
}

func TestHidesAfterCloseDelay(t *testing.T) {
	f := newFixture(t)
	last := f.shake(0, 1000, 1200, 500)

	f.sampler.buttonDown = false
	f.svc.Step(at(last + 2950))
	if got := len(f.sink.intents); got != 1 {
		t.Fatalf("intents before delay = %d, want 1", got)
	}

	f.svc.Step(at(last + 3000))
	kinds := f.kinds()
	if len(kinds) != 2 || kinds[1] != intent.Hide {
		t.Fatalf("intents = %v, want show then hide", f.sink.intents)
	}
	if f.sink.intents[1].Source != intent.SourceIdle {
		t.Errorf("hide source = %s, want idle", f.sink.intents[1].Source)
	}
	if f.svc.Status().Shown {
		t.Error("Status().Shown = true after hide")
	}

	// Hidden stays hidden.
	f.svc.Step(at(last + 9000))
	if len(f.sink.intents) != 2 {
		t.Errorf("intents = %v, want no further intents", f.sink.intents)
	}
}

func TestActivityKeepsWindowShown(t *testing.T) {
	f := newFixture(t)
	last := f.shake(0, 1000, 1200, 500)
	f.sampler.buttonDown = false

	for ms := last + 100; ms < last+10000; ms += 1000 {
		f.svc.Activity().Notify()
		f.svc.Step(at(ms))
	}
	if kinds := f.kinds(); len(kinds) != 1 {
		t.Fatalf("intents = %v, want only the show", f.sink.intents)
	}
	if f.svc.Status().ActivityTotal != 10 {
		t.Errorf("ActivityTotal = %d, want 10", f.svc.Status().ActivityTotal)
	}
}

func TestGateCloseResetsDetector(t *testing.T) {
	f := newFixture(t)

	// Baseline plus three reversals.
	for i, x := range []int{1000, 1200, 1000, 1200, 1000} {
		f.sampler.move(x, 500)
		f.svc.Step(at(i * 50))
	}
	if got := f.svc.Status().Reversals; got != 3 {
		t.Fatalf("Reversals = %d, want 3", got)
	}

	f.sampler.active = false
	f.svc.Step(at(250))
	if got := f.svc.Status().Reversals; got != 0 {
		t.Fatalf("Reversals after gate close = %d, want 0", got)
	}

	// Two more reversals after reopening do not complete the earlier shake.
	f.sampler.active = true
	for i, x := range []int{1200, 1000, 1200, 1000} {
		f.sampler.move(x, 500)
		f.svc.Step(at(300 + i*50))
	}
	if len(f.sink.intents) != 0 {
		t.Errorf("intents = %v, want none", f.sink.intents)
	}
}

func TestInactiveGateIgnoresShakes(t *testing.T) {
	f := newFixture(t)
	f.sampler.active = false

	f.shake(0, 1000, 1200, 500)
	if len(f.sink.intents) != 0 {
		t.Errorf("intents = %v, want none while gate closed", f.sink.intents)
	}
}

func TestRequestShow(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.RequestShow(ShowRequest{Position: pointer.Point{X: 1850, Y: 300}, Correct: true}); err != nil {
		t.Fatalf("RequestShow() error: %v", err)
	}
	if err := f.svc.RequestShow(ShowRequest{Position: pointer.Point{X: 1850, Y: 300}, Source: intent.SourceTray}); err != nil {
		t.Fatalf("RequestShow() error: %v", err)
	}
	f.svc.Step(at(0))

	if len(f.sink.intents) != 2 {
		t.Fatalf("intents = %v, want two shows", f.sink.intents)
	}
	first, second := f.sink.intents[0], f.sink.intents[1]
	if first.Source != intent.SourceAPI || first.Position != (pointer.Point{X: 1650, Y: 300}) {
		t.Errorf("first = %s, want api show at (1650,300)", first)
	}
	if second.Source != intent.SourceTray || second.Position != (pointer.Point{X: 1850, Y: 300}) {
		t.Errorf("second = %s, want uncorrected tray show", second)
	}
	if len(f.recorder.triggers) != 2 || f.recorder.triggers[1].Source != "tray" {
		t.Errorf("triggers = %+v, want api and tray", f.recorder.triggers)
	}
}

func TestRequestShowQueueFull(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < requestQueueSize; i++ {
		if err := f.svc.RequestShow(ShowRequest{}); err != nil {
			t.Fatalf("RequestShow() #%d error: %v", i, err)
		}
	}
	if err := f.svc.RequestShow(ShowRequest{}); err != ErrRequestQueueFull {
		t.Errorf("RequestShow() = %v, want ErrRequestQueueFull", err)
	}
}

func TestScreenErrorUsesPointerPosition(t *testing.T) {
	f := newFixture(t)
	f.screen.err = errors.New("no screen")

	f.shake(0, 1900, 1700, 1050)

	if len(f.sink.intents) != 1 {
		t.Fatalf("intents = %v, want one show", f.sink.intents)
	}
	if want := (pointer.Point{X: 1900, Y: 1050}); f.sink.intents[0].Position != want {
		t.Errorf("Position = %+v, want %+v", f.sink.intents[0].Position, want)
	}
	if len(f.recorder.errors) != 1 {
		t.Errorf("errors = %v, want one screen error", f.recorder.errors)
	}
}

func TestSamplerErrorsRecordedOnce(t *testing.T) {
	f := newFixture(t)
	f.sampler.err = errors.New("pointer unavailable")

	for i := 0; i < 5; i++ {
		f.svc.Step(at(i * 50))
	}
	if len(f.recorder.errors) != 1 {
		t.Errorf("errors = %v, want one", f.recorder.errors)
	}

	f.sampler.err = nil
	f.svc.Step(at(250))
	f.sampler.err = errors.New("pointer unavailable")
	f.svc.Step(at(300))
	if len(f.recorder.errors) != 2 {
		t.Errorf("errors = %v, want two after recovery", f.recorder.errors)
	}
}

func TestEmitFailureRecorded(t *testing.T) {
	f := newFixture(t)
	f.sink.err = intent.ErrQueueFull

	f.shake(0, 1000, 1200, 500)
	if len(f.recorder.errors) != 1 {
		t.Errorf("errors = %v, want one emit failure", f.recorder.errors)
	}
	if !f.svc.Status().Shown {
		t.Error("Status().Shown = false, want controller to still track the show")
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	f.sampler.buttonDown = false
	f.svc.cfg.Monitor.SampleInterval = config.Duration{Duration: 10 * time.Millisecond}

	done := make(chan error, 1)
	go func() {
		done <- f.svc.Start(context.Background())
	}()

	deadline := time.Now().Add(time.Second)
	for !f.svc.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("service did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := f.svc.Start(context.Background()); err == nil {
		t.Error("second Start() = nil, want error")
	}

	f.svc.Stop()
	f.svc.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() = %v, want nil after Stop", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop")
	}
	if f.svc.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestStartContextCancel(t *testing.T) {
	f := newFixture(t)
	f.sampler.buttonDown = false
	f.svc.cfg.Monitor.SampleInterval = config.Duration{Duration: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.svc.Start(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Start() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
