package metrics

import (
	"math"

	"github.com/san-kum/fireworks/internal/fireworks"
)

// KineticEnergy reports the mean per-particle kinetic energy (unit mass)
// of the latest frame. Wall hits with slowdown < 1 make it decay.
type KineticEnergy struct {
	name    string
	current float64
	initial float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(f fireworks.Frame) {
	k.current = meanKinetic(f.VX, f.VY)
	if k.samples == 0 {
		k.initial = k.current
	}
	k.samples++
}

func (k *KineticEnergy) Value() float64 { return k.current }

// Retained is the ratio of the latest energy to the first observed one.
func (k *KineticEnergy) Retained() float64 {
	if k.initial == 0 {
		return 0
	}
	return k.current / k.initial
}

func (k *KineticEnergy) Reset() {
	k.current = 0
	k.initial = 0
	k.samples = 0
}

func meanKinetic(vx, vy []float64) float64 {
	if len(vx) == 0 {
		return 0
	}
	sum := 0.0
	for i := range vx {
		sum += 0.5 * (vx[i]*vx[i] + vy[i]*vy[i])
	}
	return sum / float64(len(vx))
}

// Spread is the RMS distance of the particles from the launch point in the
// latest frame.
type Spread struct {
	name  string
	value float64
}

func NewSpread() *Spread {
	return &Spread{name: "spread"}
}

func (s *Spread) Name() string { return s.name }

func (s *Spread) Observe(f fireworks.Frame) {
	if len(f.X) == 0 {
		s.value = 0
		return
	}
	sum := 0.0
	for i := range f.X {
		sum += f.X[i]*f.X[i] + f.Y[i]*f.Y[i]
	}
	s.value = math.Sqrt(sum / float64(len(f.X)))
}

func (s *Spread) Value() float64 { return s.value }

func (s *Spread) Reset() { s.value = 0 }
