package analysis

// Smooth returns the forward moving average of m with window width w. Near the
// end the window collapses to the samples that remain, so the last output
// equals the last input. Widths below 1 are treated as 1.
func Smooth(m []float64, w int) []float64 {
	if w < 1 {
		w = 1
	}
	out := make([]float64, len(m))
	for i := range m {
		end := min(i+w, len(m))
		var sum float64
		for _, v := range m[i:end] {
			sum += v
		}
		out[i] = sum / float64(end-i)
	}
	return out
}
