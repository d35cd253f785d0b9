package fireworks

// Edges exposes the stored bin edges to the external test package.
func Edges(d *DensityMap) (xs, ys []float64) {
	return cloneFloats(d.edgesX), cloneFloats(d.edgesY)
}
