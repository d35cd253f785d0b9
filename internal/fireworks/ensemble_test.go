package fireworks_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fireworks/internal/fireworks"
)

func single(p fireworks.Params, x, y, vx, vy float64) *fireworks.Ensemble {
	e, err := fireworks.EnsembleFromState(p, fireworks.ParticleState{
		X: []float64{x}, Y: []float64{y}, VX: []float64{vx}, VY: []float64{vy},
	})
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Ensemble", func() {
	var p fireworks.Params

	BeforeEach(func() {
		p = fireworks.DefaultParams()
	})

	Describe("construction", func() {
		It("starts every particle at the origin with launch speed in range", func() {
			e, err := fireworks.NewEnsemble(p, rand.New(rand.NewSource(7)))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Len()).To(Equal(p.Particles))

			xs, ys := e.Positions()
			vxs, vys := e.Velocities()
			Expect(xs).To(HaveLen(p.Particles))
			Expect(ys).To(HaveLen(p.Particles))
			Expect(vxs).To(HaveLen(p.Particles))
			Expect(vys).To(HaveLen(p.Particles))
			for i := range xs {
				Expect(xs[i]).To(BeZero())
				Expect(ys[i]).To(BeZero())
				speed := math.Hypot(vxs[i], vys[i])
				Expect(speed).To(BeNumerically(">=", p.SpeedMin-1e-12))
				Expect(speed).To(BeNumerically("<=", p.SpeedMax+1e-12))
			}
		})

		It("allows zero launch speed in the [0, 3] variant", func() {
			p.SpeedMin = 0
			_, err := fireworks.NewEnsemble(p, rand.New(rand.NewSource(1)))
			Expect(err).NotTo(HaveOccurred())
		})

		It("spreads angles evenly with the even launch pattern", func() {
			p.Launch = fireworks.LaunchEven
			p.Particles = 4
			p.SpeedMin, p.SpeedMax = 2, 2
			e, err := fireworks.NewEnsemble(p, rand.New(rand.NewSource(1)))
			Expect(err).NotTo(HaveOccurred())

			vxs, vys := e.Velocities()
			Expect(vxs[0]).To(BeNumerically("~", 2, 1e-12))
			Expect(vys[1]).To(BeNumerically("~", 2, 1e-12))
			Expect(vxs[2]).To(BeNumerically("~", -2, 1e-12))
			Expect(vys[3]).To(BeNumerically("~", -2, 1e-12))
		})

		DescribeTable("rejects invalid parameters",
			func(mutate func(*fireworks.Params), field string) {
				mutate(&p)
				_, err := fireworks.NewEnsemble(p, rand.New(rand.NewSource(1)))
				Expect(err).To(MatchError(fireworks.ErrInvalidConfig))

				var cfgErr *fireworks.ConfigError
				Expect(errors.As(err, &cfgErr)).To(BeTrue())
				Expect(cfgErr.Field).To(Equal(field))
			},
			Entry("zero particles", func(p *fireworks.Params) { p.Particles = 0 }, "particles"),
			Entry("negative particles", func(p *fireworks.Params) { p.Particles = -3 }, "particles"),
			Entry("zero steps", func(p *fireworks.Params) { p.Steps = 0 }, "steps"),
			Entry("zero dt", func(p *fireworks.Params) { p.Dt = 0 }, "dt"),
			Entry("negative dt", func(p *fireworks.Params) { p.Dt = -0.1 }, "dt"),
			Entry("slowdown above one", func(p *fireworks.Params) { p.Slowdown = 1.2 }, "slowdown"),
			Entry("negative slowdown", func(p *fireworks.Params) { p.Slowdown = -0.1 }, "slowdown"),
			Entry("NaN slowdown", func(p *fireworks.Params) { p.Slowdown = math.NaN() }, "slowdown"),
			Entry("zero box", func(p *fireworks.Params) { p.BoxSize = 0 }, "box size"),
			Entry("infinite box", func(p *fireworks.Params) { p.BoxSize = math.Inf(1) }, "box size"),
			Entry("overflowing box", func(p *fireworks.Params) { p.BoxSize = math.MaxFloat64 / 1.5 }, "box size"),
			Entry("zero bins", func(p *fireworks.Params) { p.BinsX = 0 }, "bins"),
			Entry("negative gravity", func(p *fireworks.Params) { p.Gravity = -9.81 }, "gravity"),
			Entry("inverted speed range", func(p *fireworks.Params) { p.SpeedMin, p.SpeedMax = 3, 1 }, "speed max"),
			Entry("unknown launch", func(p *fireworks.Params) { p.Launch = "spiral" }, "launch"),
			Entry("unknown mode", func(p *fireworks.Params) { p.Mode = "orbit" }, "mode"),
		)

		It("rejects an explicit state with mismatched arrays", func() {
			_, err := fireworks.EnsembleFromState(p, fireworks.ParticleState{
				X: []float64{0, 1}, Y: []float64{0}, VX: []float64{0, 0}, VY: []float64{0, 0},
			})
			Expect(err).To(MatchError(fireworks.ErrInvalidConfig))
		})

		It("rejects an empty explicit state", func() {
			_, err := fireworks.EnsembleFromState(p, fireworks.ParticleState{})
			Expect(err).To(MatchError(fireworks.ErrInvalidConfig))
		})
	})

	Describe("Step", func() {
		It("detects the wall on the moved position and reverses vx with slowdown", func() {
			e := single(p, 9.95, 0, 1, 0)
			stats := e.Step()

			xs, ys := e.Positions()
			vxs, vys := e.Velocities()
			Expect(xs[0]).To(BeNumerically("~", 10.05, 1e-9))
			Expect(xs[0]).To(BeNumerically(">=", 10))
			Expect(ys[0]).To(BeZero())
			Expect(vxs[0]).To(Equal(-1 * p.Slowdown))
			Expect(vys[0]).To(BeZero())
			Expect(stats).To(Equal(fireworks.StepStats{CollisionsX: 1}))
		})

		It("leaves vy alone when only the x wall is hit", func() {
			e := single(p, 9.95, 0, 1, 0.5)
			e.Step()

			vxs, vys := e.Velocities()
			Expect(vxs[0]).To(Equal(-p.Slowdown))
			Expect(vys[0]).To(Equal(0.5))
		})

		It("reverses both components independently in a corner", func() {
			e := single(p, -9.95, 9.95, -1, 2)
			stats := e.Step()

			vxs, vys := e.Velocities()
			Expect(vxs[0]).To(Equal(1 * p.Slowdown))
			Expect(vys[0]).To(Equal(-2 * p.Slowdown))
			Expect(stats.CollisionsX).To(Equal(1))
			Expect(stats.CollisionsY).To(Equal(1))
		})

		It("counts a particle resting exactly on a wall as colliding", func() {
			p.Slowdown = 1
			e := single(p, -10, 0, 0, 0)
			stats := e.Step()
			Expect(stats.CollisionsX).To(Equal(1))
		})

		It("absorbs the velocity entirely with slowdown zero", func() {
			p.Slowdown = 0
			e := single(p, 9.95, 0, 1, 0)
			e.Step()

			vxs, _ := e.Velocities()
			Expect(vxs[0]).To(BeZero())
		})

		It("does not apply gravity inside the box", func() {
			e := single(p, 0, 0, 0, 0)
			for i := 0; i < 10; i++ {
				e.Step()
			}
			_, ys := e.Positions()
			Expect(ys[0]).To(BeZero())
		})

		It("drops by ½·g·dt² per step in free mode and never reflects", func() {
			p.Mode = fireworks.ModeFree
			e := single(p, 9.95, 0, 1, 0)
			stats := e.Step()

			xs, ys := e.Positions()
			vxs, _ := e.Velocities()
			Expect(ys[0]).To(BeNumerically("~", -0.5*p.Gravity*p.Dt*p.Dt, 1e-12))
			Expect(xs[0]).To(BeNumerically(">", 10))
			Expect(vxs[0]).To(Equal(1.0))
			Expect(stats).To(BeZero())
		})

		It("clamps y to the floor when floor clamp is enabled", func() {
			p.FloorClamp = true
			e := single(p, 0, -9.9, 0, -3)
			e.Step()

			_, ys := e.Positions()
			_, vys := e.Velocities()
			Expect(ys[0]).To(Equal(-10.0))
			Expect(vys[0]).To(Equal(3 * p.Slowdown))
		})

		It("keeps array lengths fixed across steps", func() {
			e, err := fireworks.NewEnsemble(p, rand.New(rand.NewSource(3)))
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 50; i++ {
				e.Step()
			}
			xs, ys := e.Positions()
			vxs, vys := e.Velocities()
			Expect(e.Len()).To(Equal(p.Particles))
			Expect(xs).To(HaveLen(p.Particles))
			Expect(ys).To(HaveLen(p.Particles))
			Expect(vxs).To(HaveLen(p.Particles))
			Expect(vys).To(HaveLen(p.Particles))
		})

		It("hands out copies of its arrays", func() {
			e := single(p, 1, 2, 0, 0)
			xs, _ := e.Positions()
			xs[0] = 99
			again, _ := e.Positions()
			Expect(again[0]).To(Equal(1.0))
		})
	})
})
