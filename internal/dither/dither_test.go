package dither

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// ─── helpers ─────────────────────────────────────────────────

func grayBuffer(w, h int, v uint8) *PixelBuffer {
	b := NewPixelBuffer(w, h)
	for i := 0; i < len(b.Data); i += 4 {
		b.Data[i], b.Data[i+1], b.Data[i+2], b.Data[i+3] = v, v, v, 255
	}
	return b
}

func rgbBuffer(rows [][][3]uint8) *PixelBuffer {
	b := NewPixelBuffer(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			i := (y*b.Width + x) * 4
			b.Data[i], b.Data[i+1], b.Data[i+2], b.Data[i+3] = c[0], c[1], c[2], 255
		}
	}
	return b
}

// pattern renders the logical pixels of out as '#' (dark) and '.' (light).
func pattern(t *testing.T, out *PixelBuffer, scale int, opts Options) []string {
	t.Helper()
	var rows []string
	for y := 0; y < out.Height; y += scale {
		var sb []byte
		for x := 0; x < out.Width; x += scale {
			switch out.At(x, y) {
			case opts.Dark:
				sb = append(sb, '#')
			case opts.Light:
				sb = append(sb, '.')
			default:
				t.Fatalf("pixel (%d,%d) = %v is neither dark nor light", x, y, out.At(x, y))
			}
		}
		rows = append(rows, string(sb))
	}
	return rows
}

func equalRows(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("rows: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func mustDither(t *testing.T, in *PixelBuffer, scale int, opts Options) *PixelBuffer {
	t.Helper()
	out, err := Dither(in, scale, opts)
	if err != nil {
		t.Fatalf("dither: %v", err)
	}
	return out
}

// ─── luminance ───────────────────────────────────────────────

func TestLuminance(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    uint8
	}{
		{0, 0, 0, 0},
		{255, 255, 255, 255},
		{200, 200, 200, 200},
		{128, 128, 128, 127}, // 127.99999999999999 rounds down
		{255, 0, 0, 76},
		{0, 255, 0, 150},
		{0, 0, 255, 28},
	}
	for _, tt := range tests {
		if got := Luminance(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("Luminance(%d,%d,%d) = %d, want %d", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

// ─── algorithm ───────────────────────────────────────────────

func TestDither_ExampleScenario(t *testing.T) {
	in := rgbBuffer([][][3]uint8{{{200, 200, 200}, {50, 50, 50}}})
	opts := DefaultOptions()
	out := mustDither(t, in, 2, opts)

	if out.Width != 4 || out.Height != 2 {
		t.Fatalf("size: got %dx%d, want 4x2", out.Width, out.Height)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			want := White
			if x >= 2 {
				want = Black
			}
			if got := out.At(x, y); got != want {
				t.Errorf("(%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDither_Golden(t *testing.T) {
	gradient := make([][][3]uint8, 4)
	for y := range gradient {
		for x := 0; x < 8; x++ {
			v := uint8(x * 255 / 7)
			gradient[y] = append(gradient[y], [3]uint8{v, v, v})
		}
	}
	uniform := make([][][3]uint8, 6)
	for y := range uniform {
		for x := 0; x < 6; x++ {
			uniform[y] = append(uniform[y], [3]uint8{100, 100, 100})
		}
	}
	colored := [][][3]uint8{
		{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {128, 128, 128}},
		{{10, 200, 30}, {250, 250, 0}, {0, 0, 0}, {255, 255, 255}},
		{{90, 90, 90}, {160, 40, 200}, {30, 30, 30}, {220, 220, 220}},
	}

	tests := []struct {
		name   string
		rows   [][][3]uint8
		cutoff float64
		want   []string
	}{
		{"gradient_8x4", gradient, 0.5, []string{"####....", "###..#..", "####....", "##.##..."}},
		{"gray100_6x6", uniform, 0.5, []string{"###.##", "#.##.#", "#..##.", "###.##", ".##.##", "#.##.."}},
		{"colored_4x3", colored, 0.5, []string{"#.##", "#.#.", "###."}},
		{"colored_4x3_low_cutoff", colored, 0.25, []string{"..#.", "..#.", "###."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Cutoff = tt.cutoff
			out := mustDither(t, rgbBuffer(tt.rows), 1, opts)
			equalRows(t, pattern(t, out, 1, opts), tt.want)
		})
	}
}

func TestDither_Deterministic(t *testing.T) {
	in := rgbBuffer([][][3]uint8{
		{{12, 34, 56}, {78, 90, 123}, {145, 167, 189}},
		{{210, 20, 30}, {40, 250, 60}, {70, 80, 240}},
	})
	opts := Options{Cutoff: 0.4, Dark: Color{20, 30, 40, 255}, Light: Color{240, 230, 200, 255}}

	a := mustDither(t, in, 3, opts)
	b := mustDither(t, in, 3, opts)
	if !bytes.Equal(a.Data, b.Data) {
		t.Fatal("identical calls produced different output")
	}
}

func TestDither_DoesNotMutateInput(t *testing.T) {
	in := rgbBuffer([][][3]uint8{{{255, 0, 0}, {0, 255, 0}}, {{0, 0, 255}, {1, 2, 3}}})
	orig := append([]uint8(nil), in.Data...)
	mustDither(t, in, 2, DefaultOptions())
	if !bytes.Equal(in.Data, orig) {
		t.Fatal("input buffer was modified")
	}
}

func TestDither_DimensionLaw(t *testing.T) {
	for _, scale := range []int{1, 2, 3, 7} {
		for _, size := range [][2]int{{1, 1}, {5, 3}, {3, 5}, {16, 9}} {
			in := grayBuffer(size[0], size[1], 90)
			out := mustDither(t, in, scale, DefaultOptions())
			if out.Width != size[0]*scale || out.Height != size[1]*scale {
				t.Errorf("scale %d, %dx%d: got %dx%d", scale, size[0], size[1], out.Width, out.Height)
			}
			if len(out.Data) != out.Width*out.Height*4 {
				t.Errorf("scale %d: data length %d", scale, len(out.Data))
			}
		}
	}
}

func TestDither_BinaryAndBlockUniform(t *testing.T) {
	in := NewPixelBuffer(9, 7)
	for i := 0; i < len(in.Data); i += 4 {
		in.Data[i] = uint8(i * 7)
		in.Data[i+1] = uint8(i * 13)
		in.Data[i+2] = uint8(i * 3)
		in.Data[i+3] = 255
	}
	opts := Options{Cutoff: 0.5, Dark: Color{10, 20, 30, 128}, Light: Color{200, 210, 220, 64}}
	const scale = 4
	out := mustDither(t, in, scale, opts)

	for ly := 0; ly < in.Height; ly++ {
		for lx := 0; lx < in.Width; lx++ {
			ref := out.At(lx*scale, ly*scale)
			if ref != opts.Dark && ref != opts.Light {
				t.Fatalf("logical (%d,%d): %v is neither color", lx, ly, ref)
			}
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					if c := out.At(lx*scale+sx, ly*scale+sy); c != ref {
						t.Fatalf("block (%d,%d) not uniform at +(%d,%d): %v vs %v", lx, ly, sx, sy, c, ref)
					}
				}
			}
		}
	}
}

func TestDither_UniformExtremes(t *testing.T) {
	opts := Options{Cutoff: 0.5, Dark: Color{1, 2, 3, 255}, Light: Color{250, 251, 252, 255}}
	tests := []struct {
		name string
		v    uint8
		want Color
	}{
		{"black", 0, opts.Dark},
		{"white", 255, opts.Light},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustDither(t, grayBuffer(13, 11, tt.v), 2, opts)
			for y := 0; y < out.Height; y++ {
				for x := 0; x < out.Width; x++ {
					if c := out.At(x, y); c != tt.want {
						t.Fatalf("(%d,%d): got %v, want %v", x, y, c, tt.want)
					}
				}
			}
		})
	}
}

func TestDither_CutoffBoundary(t *testing.T) {
	// A single pixel sees no diffused error, so it flips exactly where
	// gray == floor(cutoff*255).
	for _, v := range []uint8{0, 1, 63, 100, 127, 200, 254} {
		gray := int(Luminance(v, v, v))
		for _, cutoff := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
			threshold := int(math.Floor(cutoff * 255))
			out := mustDither(t, grayBuffer(1, 1, v), 1, Options{Cutoff: cutoff, Dark: Black, Light: White})
			want := White
			if gray <= threshold {
				want = Black
			}
			if got := out.At(0, 0); got != want {
				t.Errorf("v=%d cutoff=%v: got %v, want %v", v, cutoff, got, want)
			}
		}
	}
}

func TestDither_CutoffMonotonic(t *testing.T) {
	in := grayBuffer(1, 1, 100)
	wasDark := false
	for c := 0; c <= 100; c++ {
		cutoff := float64(c) / 100
		out := mustDither(t, in, 1, Options{Cutoff: cutoff, Dark: Black, Light: White})
		dark := out.At(0, 0) == Black
		if wasDark && !dark {
			t.Fatalf("cutoff %v flipped back to light", cutoff)
		}
		wasDark = dark
	}
	if !wasDark {
		t.Fatal("cutoff 1 did not classify gray 100 as dark")
	}
}

func TestDither_ScaleOneIdentityGeometry(t *testing.T) {
	in := grayBuffer(7, 5, 60)
	out := mustDither(t, in, 1, DefaultOptions())
	if out.Width != in.Width || out.Height != in.Height {
		t.Fatalf("got %dx%d, want %dx%d", out.Width, out.Height, in.Width, in.Height)
	}
}

func TestDither_NoHorizontalWraparound(t *testing.T) {
	rows := make([][][3]uint8, 3)
	for y := range rows {
		rows[y] = [][3]uint8{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {255, 255, 255}}
	}
	opts := DefaultOptions()
	out := mustDither(t, rgbBuffer(rows), 1, opts)
	equalRows(t, pattern(t, out, 1, opts), []string{"####.", "####.", "####."})
}

func TestDitherStats(t *testing.T) {
	in := rgbBuffer([][][3]uint8{{{200, 200, 200}, {50, 50, 50}}})
	_, stats, err := DitherStats(in, 3, DefaultOptions())
	if err != nil {
		t.Fatalf("dither: %v", err)
	}
	if stats.DarkPixels != 1 || stats.LightPixels != 1 {
		t.Errorf("stats: got %+v, want 1 dark, 1 light", stats)
	}
	if r := stats.DarkRatio(); r != 0.5 {
		t.Errorf("dark ratio: got %v, want 0.5", r)
	}
	if r := (Stats{}).DarkRatio(); r != 0 {
		t.Errorf("empty dark ratio: got %v", r)
	}
}

// ─── window ──────────────────────────────────────────────────

func TestWindow_RotateRecyclesAndClears(t *testing.T) {
	w := newWindow(3)
	w.rows[0][0], w.rows[1][1], w.rows[2][2] = 1, 2, 3
	row2 := w.rows[2]
	w.rotate()

	if w.rows[0][1] != 2 || w.rows[1][2] != 3 {
		t.Errorf("rows not shifted: %v", w.rows)
	}
	for _, v := range w.rows[2] {
		if v != 0 {
			t.Fatalf("new row 2 not cleared: %v", w.rows[2])
		}
	}
	if &w.rows[1][0] != &row2[0] {
		t.Error("row 2 did not move to row 1")
	}
}

func TestWindow_DiffuseDropsOutOfRange(t *testing.T) {
	w := newWindow(2)
	w.diffuse(1, 1)
	// (+1,0) and (+2,0) fall off the right edge, (+1,+1) too.
	want := [3][]float32{{0, 0}, {1, 1}, {0, 1}}
	for r := range want {
		for x := range want[r] {
			if w.rows[r][x] != want[r][x] {
				t.Errorf("row %d col %d: got %v, want %v", r, x, w.rows[r][x], want[r][x])
			}
		}
	}

	w = newWindow(3)
	w.diffuse(0, 2)
	// (-1,+1) falls off the left edge.
	want = [3][]float32{{0, 2, 2}, {2, 2, 0}, {2, 0, 0}}
	for r := range want {
		for x := range want[r] {
			if w.rows[r][x] != want[r][x] {
				t.Errorf("row %d col %d: got %v, want %v", r, x, w.rows[r][x], want[r][x])
			}
		}
	}
}

// ─── validation ──────────────────────────────────────────────

func TestDither_InvalidInput(t *testing.T) {
	good := grayBuffer(2, 2, 10)
	tests := []struct {
		name  string
		in    *PixelBuffer
		scale int
		opts  Options
	}{
		{"nil buffer", nil, 1, DefaultOptions()},
		{"zero width", &PixelBuffer{Width: 0, Height: 2, Data: nil}, 1, DefaultOptions()},
		{"negative height", &PixelBuffer{Width: 2, Height: -1, Data: nil}, 1, DefaultOptions()},
		{"short data", &PixelBuffer{Width: 2, Height: 2, Data: make([]uint8, 15)}, 1, DefaultOptions()},
		{"long data", &PixelBuffer{Width: 2, Height: 2, Data: make([]uint8, 17)}, 1, DefaultOptions()},
		{"zero scale", good, 0, DefaultOptions()},
		{"negative scale", good, -2, DefaultOptions()},
		{"huge scale", good, math.MaxInt / 2, DefaultOptions()},
		{"cutoff below", good, 1, Options{Cutoff: -0.01, Dark: Black, Light: White}},
		{"cutoff above", good, 1, Options{Cutoff: 1.01, Dark: Black, Light: White}},
		{"cutoff NaN", good, 1, Options{Cutoff: math.NaN(), Dark: Black, Light: White}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Dither(tt.in, tt.scale, tt.opts)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err: got %v, want ErrInvalidInput", err)
			}
			if out != nil {
				t.Fatal("partial output returned with error")
			}
		})
	}
}

// ─── image conversion ────────────────────────────────────────

func TestFromImage_NRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(2, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 6})
	buf := FromImage(img)
	if buf.Width != 3 || buf.Height != 2 {
		t.Fatalf("size: %dx%d", buf.Width, buf.Height)
	}
	if got := buf.At(2, 1); got != (Color{9, 8, 7, 6}) {
		t.Errorf("pixel: got %v", got)
	}
	img.Pix[0] = 99
	if buf.Data[0] == 99 {
		t.Error("FromImage aliased the source pixels")
	}
}

func TestFromImage_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(4, 4, 6, 5))
	img.SetGray(5, 4, color.Gray{Y: 77})
	buf := FromImage(img)
	if buf.Width != 2 || buf.Height != 1 {
		t.Fatalf("size: %dx%d", buf.Width, buf.Height)
	}
	if got := buf.At(1, 0); got != (Color{77, 77, 77, 255}) {
		t.Errorf("pixel: got %v", got)
	}
}

func TestPixelBuffer_Image(t *testing.T) {
	buf := grayBuffer(2, 2, 40)
	img := buf.Image()
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds: %v", img.Bounds())
	}
	if c := img.NRGBAAt(1, 1); c != (color.NRGBA{40, 40, 40, 255}) {
		t.Errorf("pixel: got %v", c)
	}
}

// ─── benchmarks ──────────────────────────────────────────────

func BenchmarkDither_320x240_x2(b *testing.B) {
	in := NewPixelBuffer(320, 240)
	for i := 0; i < len(in.Data); i += 4 {
		in.Data[i], in.Data[i+1], in.Data[i+2], in.Data[i+3] = uint8(i), uint8(i>>3), uint8(i>>5), 255
	}
	opts := DefaultOptions()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Dither(in, 2, opts); err != nil {
			b.Fatal(err)
		}
	}
}
