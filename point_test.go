package geoviz

import (
	"math"
	"testing"
)

func TestPointArithmetic(t *testing.T) {
	p := Pt(1, 2)
	q := Pt(3, -1)

	if got := p.Add(q); got != Pt(4, 1) {
		t.Errorf("Add = %+v", got)
	}
	if got := p.Sub(q); got != Pt(-2, 3) {
		t.Errorf("Sub = %+v", got)
	}
	if got := p.Mul(2); got != Pt(2, 4) {
		t.Errorf("Mul = %+v", got)
	}
}

func TestPointDistance(t *testing.T) {
	if got := Pt(0, 0).Distance(Pt(3, 4)); got != 5 {
		t.Errorf("Distance = %v, want 5", got)
	}
	if got := Pt(7, 7).Distance(Pt(7, 7)); got != 0 {
		t.Errorf("Distance to self = %v, want 0", got)
	}
}

func TestPointIsFinite(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"finite", Pt(1, 2), true},
		{"nan x", Pt(math.NaN(), 0), false},
		{"nan y", Pt(0, math.NaN()), false},
		{"inf x", Pt(math.Inf(1), 0), false},
		{"neg inf y", Pt(0, math.Inf(-1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsFinite(); got != tt.want {
				t.Errorf("IsFinite(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}
