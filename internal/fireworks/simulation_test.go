package fireworks_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fireworks/internal/fireworks"
)

type stepCounter struct{ steps []int }

func (c *stepCounter) OnStep(f fireworks.Frame) { c.steps = append(c.steps, f.Step) }

type frameMetric struct{ frames int }

func (m *frameMetric) Name() string              { return "frames" }
func (m *frameMetric) Observe(f fireworks.Frame) { m.frames++ }
func (m *frameMetric) Value() float64            { return float64(m.frames) }
func (m *frameMetric) Reset()                    { m.frames = 0 }

var _ = Describe("Simulation", func() {
	var p fireworks.Params

	BeforeEach(func() {
		p = fireworks.DefaultParams()
		p.Seed = 42
		p.Steps = 200
	})

	It("refuses to start with zero particles", func() {
		p.Particles = 0
		sim, err := fireworks.New(p)
		Expect(err).To(MatchError(fireworks.ErrInvalidConfig))
		Expect(sim).To(BeNil())
	})

	It("accumulates exactly the in-box count of every step", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())

		result, err := sim.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(p.Steps))

		b := p.Box()
		var inBox uint64
		for k := range result.X {
			n := 0
			for i := range result.X[k] {
				if b.Contains(result.X[k][i], result.Y[k][i]) {
					n++
				}
			}
			Expect(result.InBox[k]).To(Equal(n))
			inBox += uint64(n)
		}
		Expect(result.Density.Total).To(Equal(inBox))

		var cells uint64
		for _, col := range result.Density.Counts {
			for _, c := range col {
				cells += c
			}
		}
		Expect(cells).To(Equal(inBox))
	})

	It("is deterministic for a fixed seed", func() {
		a, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())
		b, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())

		ra, err := a.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		rb, err := b.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(ra.X).To(Equal(rb.X))
		Expect(ra.Y).To(Equal(rb.Y))
		Expect(ra.Density).To(Equal(rb.Density))
	})

	It("differs for a different seed", func() {
		a, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())
		p.Seed = 43
		b, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Step().X).NotTo(Equal(b.Step().X))
	})

	It("never decreases any cell between steps", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())

		prev := sim.Density()
		for i := 0; i < 100; i++ {
			cur := sim.Step().Density()
			for ix := range cur.Counts {
				for iy := range cur.Counts[ix] {
					Expect(cur.Counts[ix][iy]).To(BeNumerically(">=", prev.Counts[ix][iy]))
				}
			}
			prev = cur
		}
	})

	It("keeps each frame's density fixed at its own step", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())

		first := sim.Step()
		second := sim.Step()
		Expect(second.Density().Total).To(BeNumerically(">", first.Density().Total))

		Expect(first.Density().Total).To(Equal(uint64(first.InBox)))
		Expect(second.Density().Total).To(Equal(uint64(first.InBox + second.InBox)))
	})

	It("reproduces the boundary scenario through the driver", func() {
		e, err := fireworks.EnsembleFromState(p, fireworks.ParticleState{
			X: []float64{9.95}, Y: []float64{0}, VX: []float64{1}, VY: []float64{0},
		})
		Expect(err).NotTo(HaveOccurred())
		sim, err := fireworks.NewWithEnsemble(p, e)
		Expect(err).NotTo(HaveOccurred())

		f := sim.Step()
		Expect(f.X[0]).To(BeNumerically("~", 10.05, 1e-9))
		Expect(f.VX[0]).To(Equal(-p.Slowdown))
		Expect(f.VY[0]).To(BeZero())
		Expect(f.CollisionsX).To(Equal(1))
		Expect(f.InBox).To(BeZero())
		Expect(f.Density().Total).To(BeZero())
	})

	It("feeds observers and metrics every step in order", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())
		obs := &stepCounter{}
		m := &frameMetric{}
		sim.AddObserver(obs)
		sim.AddMetric(m)

		result, err := sim.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(obs.steps).To(HaveLen(p.Steps))
		for i, s := range obs.steps {
			Expect(s).To(Equal(i + 1))
		}
		Expect(result.Metrics).To(HaveKeyWithValue("frames", float64(p.Steps)))
	})

	It("stops when the callback declines to continue", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())

		err = sim.RunWithCallback(context.Background(), func(f fireworks.Frame) bool {
			return f.Step < 5
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.StepCount()).To(Equal(5))
	})

	It("leaves a fully accumulated map when cancelled between steps", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		var inBox uint64
		err = sim.RunWithCallback(ctx, func(f fireworks.Frame) bool {
			inBox += uint64(f.InBox)
			if f.Step == 7 {
				cancel()
			}
			return true
		})
		Expect(err).To(MatchError(context.Canceled))
		Expect(sim.StepCount()).To(Equal(7))
		Expect(sim.Density().Total).To(Equal(inBox))
	})

	It("returns the partial result on cancellation", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := sim.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(result).NotTo(BeNil())
		Expect(result.StepsTaken).To(BeZero())
	})

	It("reports time as step count times dt", func() {
		sim, err := fireworks.New(p)
		Expect(err).NotTo(HaveOccurred())
		sim.Step()
		f := sim.Step()
		Expect(f.Step).To(Equal(2))
		Expect(f.Time).To(BeNumerically("~", 2*p.Dt, 1e-12))
	})
})
