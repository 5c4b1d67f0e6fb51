package viewer

import (
	"math"
	"testing"
)

func TestRotationAxisDecays(t *testing.T) {
	a := NewRotationAxis(60)
	a.Velocity = 0.2

	a.Update()
	if a.Position != 0.2 {
		t.Errorf("Position after one step = %v, want 0.2", a.Position)
	}
	for range 300 {
		a.Update()
	}
	if math.Abs(a.Velocity) > 1e-4 {
		t.Errorf("Velocity = %v, want it settled near 0", a.Velocity)
	}
	if a.Velocity < -1e-9 {
		t.Errorf("critically damped velocity overshot to %v", a.Velocity)
	}
	if a.Position <= 0.2 {
		t.Errorf("Position = %v, want it to keep coasting past 0.2", a.Position)
	}
}

func TestRotationStateImpulseAndReset(t *testing.T) {
	r := NewRotationState(30)
	if r.Moving() {
		t.Fatal("new state is moving")
	}

	r.ApplyImpulse(0.1, -0.2, 0.3)
	if !r.Moving() {
		t.Fatal("state not moving after impulse")
	}
	r.Update()
	if r.Pitch.Position != 0.1 || r.Yaw.Position != -0.2 || r.Roll.Position != 0.3 {
		t.Errorf("positions = %v %v %v", r.Pitch.Position, r.Yaw.Position, r.Roll.Position)
	}

	r.Reset()
	if r.Moving() || r.Yaw.Position != 0 {
		t.Error("Reset left motion behind")
	}
}

func TestZoom(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		want   float64
	}{
		{"inside", 5, 5},
		{"below range", 0.1, 1},
		{"above range", 50, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := NewZoom(60, 3, 1, 20)
			z.SetTarget(tt.target)
			if z.Target() != tt.want {
				t.Fatalf("Target = %v, want %v", z.Target(), tt.want)
			}
			for range 600 {
				z.Update()
				if z.Distance < 1 || z.Distance > 20 {
					t.Fatalf("Distance %v left the range", z.Distance)
				}
			}
			if math.Abs(z.Distance-tt.want) > 1e-3 {
				t.Errorf("Distance = %v, want it settled at %v", z.Distance, tt.want)
			}
		})
	}
}

func TestZoomJumpAndAdd(t *testing.T) {
	z := NewZoom(30, 3, 1, 20)
	z.Add(-0.5)
	if z.Target() != 2.5 || z.Distance != 3 {
		t.Errorf("after Add: target %v, distance %v", z.Target(), z.Distance)
	}
	z.Jump(8)
	if z.Distance != 8 || z.Target() != 8 {
		t.Errorf("after Jump: target %v, distance %v", z.Target(), z.Distance)
	}
	z.Update()
	if z.Distance != 8 {
		t.Errorf("distance moved to %v at rest", z.Distance)
	}
}
