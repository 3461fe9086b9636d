package dither

// window holds error accumulators for the current scan row and the two
// rows below it. Only three rows are ever live regardless of image height.
type window struct {
	rows [3][]float32
}

func newWindow(width int) *window {
	w := &window{}
	for i := range w.rows {
		w.rows[i] = make([]float32, width)
	}
	return w
}

// diffuse adds e to every kernel target of column x. Targets left of
// column 0 or right of the last column are dropped.
func (w *window) diffuse(x int, e float32) {
	width := len(w.rows[0])
	for _, k := range kernel {
		tx := x + k[0]
		if tx < 0 || tx >= width {
			continue
		}
		w.rows[k[1]][tx] += e
	}
}

// rotate advances the window by one row, recycling the finished row as
// the new zeroed row +2.
func (w *window) rotate() {
	done := w.rows[0]
	w.rows[0], w.rows[1] = w.rows[1], w.rows[2]
	clear(done)
	w.rows[2] = done
}
