package palette

import (
	"testing"

	"github.com/AnyUserName/ditherimg-cli/internal/dither"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want dither.Color
	}{
		{"black", dither.Black},
		{" White ", dither.White},
		{"transparent", dither.Color{}},
		{"#000", dither.Color{R: 0, G: 0, B: 0, A: 255}},
		{"#fff", dither.Color{R: 255, G: 255, B: 255, A: 255}},
		{"#1a2b3c", dither.Color{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}},
		{"1A2B3C", dither.Color{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}},
		{"#1a2b3c80", dither.Color{R: 0x1a, G: 0x2b, B: 0x3c, A: 0x80}},
		{"10,20,30", dither.Color{R: 10, G: 20, B: 30, A: 255}},
		{"10, 20, 30, 40", dither.Color{R: 10, G: 20, B: 30, A: 40}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#12345", "#gggggg", "#1a2b3czz", "1,2", "1,2,3,4,5", "1,2,300", "red"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   dither.Color
		want string
	}{
		{dither.Black, "#000000"},
		{dither.White, "#ffffff"},
		{dither.Color{R: 0x1a, G: 0x2b, B: 0x3c, A: 0x80}, "#1a2b3c80"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
		back, err := Parse(tt.want)
		if err != nil || back != tt.in {
			t.Errorf("Parse(Format(%v)) = %v, %v", tt.in, back, err)
		}
	}
}

func TestLowContrast(t *testing.T) {
	if LowContrast(dither.Black, dither.White) {
		t.Error("black/white reported as low contrast")
	}
	if !LowContrast(dither.Color{R: 100, G: 100, B: 100, A: 255}, dither.Color{R: 102, G: 101, B: 100, A: 255}) {
		t.Error("near-identical grays not reported")
	}
}
