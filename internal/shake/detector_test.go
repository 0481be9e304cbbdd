package shake

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shakewatch/shakewatch/pkg/pointer"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func down(ms, x int) Sample {
	return Sample{At: at(ms), Position: pointer.Point{X: x}, ButtonDown: true}
}

func up(ms, x int) Sample {
	return Sample{At: at(ms), Position: pointer.Point{X: x}}
}

func scenarioConfig() Config {
	return Config{
		RequiredShakes: 3,
		TimeLimit:      1500 * time.Millisecond,
		Threshold:      50,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		dx        int
		threshold int
		expected  Direction
	}{
		{"Right", 120, 100, Right},
		{"Left", -120, 100, Left},
		{"Exactly threshold right", 100, 100, None},
		{"Exactly threshold left", -100, 100, None},
		{"No motion", 0, 100, None},
		{"Zero threshold", 1, 0, Right},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.dx, tt.threshold); got != tt.expected {
				t.Errorf("Classify(%d, %d) = %v, want %v", tt.dx, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestScenarioNoFire(t *testing.T) {
	d := New(scenarioConfig())

	samples := []Sample{
		down(0, 0),
		down(100, 100),
		down(200, 0),
		down(300, 100),
		down(2500, 0),
	}
	wantCounts := []uint{0, 0, 1, 2, 1}

	for i, s := range samples {
		if _, fired := d.Observe(s); fired {
			t.Fatalf("sample %d: unexpected shake", i)
		}
		if d.Count() != wantCounts[i] {
			t.Errorf("sample %d: Count() = %d, want %d", i, d.Count(), wantCounts[i])
		}
	}
}

func TestScenarioFire(t *testing.T) {
	d := New(scenarioConfig())

	for _, s := range []Sample{down(0, 0), down(100, 100), down(200, 0), down(300, 100)} {
		if _, fired := d.Observe(s); fired {
			t.Fatalf("unexpected shake at %v", s.At)
		}
	}
	if d.Count() != 2 {
		t.Fatalf("Count() = %d before final reversal, want 2", d.Count())
	}

	ev, fired := d.Observe(down(600, 0))
	if !fired {
		t.Fatal("expected shake at t=600")
	}
	if !ev.At.Equal(at(600)) {
		t.Errorf("event At = %v, want %v", ev.At, at(600))
	}
	if ev.Position != (pointer.Point{X: 0}) {
		t.Errorf("event Position = %+v, want {0 0}", ev.Position)
	}
	if ev.Reversals != 3 {
		t.Errorf("event Reversals = %d, want 3", ev.Reversals)
	}
	if d.Count() != 0 {
		t.Errorf("Count() = %d after shake, want 0", d.Count())
	}
}

func TestTimeoutStartsFreshCount(t *testing.T) {
	d := New(scenarioConfig())

	d.Observe(down(0, 0))
	d.Observe(down(100, 100))
	d.Observe(down(200, 0))
	if d.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", d.Count())
	}

	// Idle ticks past the limit forget the count.
	d.Observe(down(1000, 0))
	d.Observe(down(1800, 0))
	if d.Count() != 0 {
		t.Errorf("Count() = %d after timeout, want 0", d.Count())
	}

	d.Observe(down(1900, 100))
	if d.Count() != 1 {
		t.Errorf("Count() = %d after fresh reversal, want 1", d.Count())
	}
}

func TestReleaseResets(t *testing.T) {
	d := New(scenarioConfig())

	d.Observe(down(0, 0))
	d.Observe(down(100, 100))
	d.Observe(down(200, 0))
	d.Observe(down(300, 100))
	if d.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", d.Count())
	}

	d.Observe(up(400, 100))
	if d.Count() != 0 {
		t.Errorf("Count() = %d after release, want 0", d.Count())
	}
	if d.Direction() != None {
		t.Errorf("Direction() = %v after release, want none", d.Direction())
	}

	// First motion after pressing again is a new baseline, not a reversal.
	d.Observe(down(500, 0))
	if d.Count() != 0 {
		t.Errorf("Count() = %d after new baseline, want 0", d.Count())
	}
	if d.Direction() != Left {
		t.Errorf("Direction() = %v, want left", d.Direction())
	}
}

func TestPositionTrackedWhileReleased(t *testing.T) {
	d := New(scenarioConfig())

	d.Observe(up(0, 0))
	d.Observe(up(100, 1000))
	// dx is measured from the last released sample, so no direction here.
	d.Observe(down(200, 1010))
	if d.Direction() != None {
		t.Errorf("Direction() = %v, want none", d.Direction())
	}
}

func TestSameDirectionDoesNotCount(t *testing.T) {
	d := New(scenarioConfig())

	d.Observe(down(0, 0))
	d.Observe(down(100, 100))
	d.Observe(down(200, 200))
	d.Observe(down(300, 300))
	if d.Count() != 0 {
		t.Errorf("Count() = %d, want 0", d.Count())
	}

	// Small jitter between reversals leaves the reference alone.
	d.Observe(down(400, 310))
	d.Observe(down(500, 320))
	d.Observe(down(600, 200))
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}
	if d.Direction() != Left {
		t.Errorf("Direction() = %v, want left", d.Direction())
	}
}

func TestFiresRepeatedly(t *testing.T) {
	d := New(scenarioConfig())

	d.Observe(down(0, 0))
	x, fires := 0, 0
	for i := 1; i <= 13; i++ {
		if x == 0 {
			x = 100
		} else {
			x = 0
		}
		if _, fired := d.Observe(down(i*100, x)); fired {
			fires++
		}
	}
	// One baseline plus twelve reversals.
	if fires != 4 {
		t.Errorf("fires = %d, want 4", fires)
	}
}

func TestResetForgetsPosition(t *testing.T) {
	d := New(scenarioConfig())

	d.Observe(down(0, 0))
	d.Observe(down(100, 100))
	d.Observe(down(200, 0))
	d.Reset()

	d.Observe(down(300, 1000))
	if d.Direction() != None {
		t.Errorf("Direction() = %v after reset, want none", d.Direction())
	}
	if d.Count() != 0 {
		t.Errorf("Count() = %d after reset, want 0", d.Count())
	}
}

func TestBoundedCount(t *testing.T) {
	cfg := scenarioConfig()
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		d := New(cfg)
		ms, x := 0, 0
		for i := 0; i < 500; i++ {
			ms += 20 + rng.Intn(400)
			x += rng.Intn(301) - 150
			s := Sample{
				At:         at(ms),
				Position:   pointer.Point{X: x},
				ButtonDown: rng.Intn(10) != 0,
			}
			_, fired := d.Observe(s)
			if d.Count() > cfg.RequiredShakes {
				t.Fatalf("run %d sample %d: Count() = %d exceeds %d", run, i, d.Count(), cfg.RequiredShakes)
			}
			if fired && d.Count() != 0 {
				t.Fatalf("run %d sample %d: Count() = %d after shake, want 0", run, i, d.Count())
			}
			if !s.ButtonDown && d.Count() != 0 {
				t.Fatalf("run %d sample %d: Count() = %d with button released", run, i, d.Count())
			}
		}
	}
}

func TestDirectionString(t *testing.T) {
	if Left.String() != "left" || Right.String() != "right" || None.String() != "none" {
		t.Errorf("unexpected direction strings: %s %s %s", Left, Right, None)
	}
}
