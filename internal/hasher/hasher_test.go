package hasher

import (
	"strings"
	"testing"

	"github.com/AnyUserName/ditherimg-cli/internal/dither"
)

func TestContentHash(t *testing.T) {
	// xxHash64 of the empty input.
	if got := ContentHash(nil, 0); got != "ef46db3751d8e999" {
		t.Errorf("empty: got %s", got)
	}
	if got := ContentHash([]byte("abc"), 8); len(got) != 8 {
		t.Errorf("truncation: got %q", got)
	}
}

func TestContentHashReader_MatchesBytes(t *testing.T) {
	data := strings.Repeat("dither", 1000)
	got, err := ContentHashReader(strings.NewReader(data), 16)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	if want := ContentHash([]byte(data), 16); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRenderKey(t *testing.T) {
	base := RenderParams{
		LogicalWidth: 100, LogicalHeight: 50, PixelSize: 2,
		Cutoff: 0.5, Dark: dither.Black, Light: dither.White,
	}
	k := RenderKey("abc", base)
	if len(k) != 16 {
		t.Fatalf("key length: %d", len(k))
	}
	if RenderKey("abc", base) != k {
		t.Error("key not deterministic")
	}

	variants := []RenderParams{base, base, base, base, base}
	variants[0].LogicalWidth = 101
	variants[1].PixelSize = 3
	variants[2].Cutoff = 0.51
	variants[3].Dark = dither.Color{R: 1, G: 0, B: 0, A: 255}
	variants[4].Light.A = 254
	for i, v := range variants {
		if RenderKey("abc", v) == k {
			t.Errorf("variant %d collides with base", i)
		}
	}
	if RenderKey("abd", base) == k {
		t.Error("source hash ignored")
	}
}
