package fireworks_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fireworks/internal/fireworks"
)

var box = fireworks.Box{XMin: -10, XMax: 10, YMin: -10, YMax: 10}

var _ = Describe("DensityMap", func() {
	var d *fireworks.DensityMap

	BeforeEach(func() {
		var err error
		d, err = fireworks.NewDensityMap(box, 50, 50)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts all-zero with fixed edges", func() {
		Expect(d.Total()).To(BeZero())
		Expect(d.Max()).To(BeZero())
		bx, by := d.Bins()
		Expect(bx).To(Equal(50))
		Expect(by).To(Equal(50))

		xs, ys := fireworks.Edges(d)
		Expect(xs).To(HaveLen(51))
		Expect(ys).To(HaveLen(51))
		Expect(xs[0]).To(Equal(-10.0))
		Expect(xs[50]).To(Equal(10.0))
		Expect(ys[0]).To(Equal(-10.0))
		Expect(ys[50]).To(Equal(10.0))
	})

	It("rejects a degenerate box or bin count", func() {
		_, err := fireworks.NewDensityMap(fireworks.Box{XMin: 1, XMax: 1, YMin: 0, YMax: 1}, 10, 10)
		Expect(err).To(MatchError(fireworks.ErrInvalidConfig))

		_, err = fireworks.NewDensityMap(box, 0, 10)
		Expect(err).To(MatchError(fireworks.ErrInvalidConfig))

		wide := fireworks.Box{XMin: -math.MaxFloat64, XMax: math.MaxFloat64, YMin: -1, YMax: 1}
		_, err = fireworks.NewDensityMap(wide, 10, 10)
		Expect(err).To(MatchError(fireworks.ErrInvalidConfig))
	})

	It("leaves the map unchanged for an empty position list", func() {
		Expect(d.Accumulate(nil, nil)).To(BeZero())
		Expect(d.Accumulate([]float64{}, []float64{})).To(BeZero())
		Expect(d.Total()).To(BeZero())
		Expect(d.Max()).To(BeZero())
	})

	It("uses half-open bins except for the closed last bin", func() {
		edges, _ := fireworks.Edges(d)
		Expect(d.Accumulate([]float64{edges[1]}, []float64{0})).To(Equal(1))
		Expect(d.At(1, 25)).To(Equal(uint64(1)))
		Expect(d.At(0, 25)).To(BeZero())

		Expect(d.Accumulate([]float64{-10, 10}, []float64{-10, 10})).To(Equal(2))
		Expect(d.At(0, 0)).To(Equal(uint64(1)))
		Expect(d.At(49, 49)).To(Equal(uint64(1)))
	})

	It("skips positions outside the box and NaN", func() {
		xs := []float64{10.0001, -10.5, 0, math.NaN(), 3}
		ys := []float64{0, 0, 11, 0, 3}
		Expect(d.Accumulate(xs, ys)).To(Equal(1))
		Expect(d.Total()).To(Equal(uint64(1)))
	})

	It("is additive, not idempotent", func() {
		xs, ys := []float64{1.5, -2.2}, []float64{0.1, 4}
		d.Accumulate(xs, ys)
		first := d.Snapshot()
		d.Accumulate(xs, ys)
		second := d.Snapshot()

		Expect(second.Total).To(Equal(2 * first.Total))
		for ix := range first.Counts {
			for iy := range first.Counts[ix] {
				Expect(second.Counts[ix][iy]).To(Equal(2 * first.Counts[ix][iy]))
			}
		}
	})

	It("returns snapshots detached from the live map", func() {
		d.Accumulate([]float64{0}, []float64{0})
		snap := d.Snapshot()
		d.Accumulate([]float64{0}, []float64{0})
		Expect(snap.Total).To(Equal(uint64(1)))
		Expect(snap.Max()).To(Equal(uint64(1)))
		Expect(d.Max()).To(Equal(uint64(2)))
	})

	It("merges maps of the same shape and refuses others", func() {
		other, err := fireworks.NewDensityMap(box, 50, 50)
		Expect(err).NotTo(HaveOccurred())
		other.Accumulate([]float64{0, 0}, []float64{0, 0})
		d.Accumulate([]float64{0}, []float64{0})

		Expect(d.Merge(other.Snapshot())).To(Succeed())
		Expect(d.Total()).To(Equal(uint64(3)))
		Expect(d.At(25, 25)).To(Equal(uint64(3)))

		coarse, err := fireworks.NewDensityMap(box, 10, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Merge(coarse.Snapshot())).NotTo(Succeed())
	})
})
