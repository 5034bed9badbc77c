package imaging

import (
	"image/color"
	"testing"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

func TestDrawBoxes(t *testing.T) {
	src := createInMemoryImage(60, 40, color.Black)
	red := color.RGBA{255, 0, 0, 255}
	out := DrawBoxes(src, []OverlayBox{{Rect: geometry.Rect{X1: 10, Y1: 15, X2: 30, Y2: 35}, Class: 3}}, red)

	for _, p := range [][2]int{{10, 15}, {29, 15}, {10, 34}, {29, 34}, {20, 34}} {
		if out.RGBAAt(p[0], p[1]) != red {
			t.Errorf("outline missing at %v", p)
		}
	}
	if out.RGBAAt(20, 25) != (color.RGBA{0, 0, 0, 255}) {
		t.Error("box interior should be untouched")
	}
	// Label background sits above the box.
	if out.RGBAAt(11, 8) == (color.RGBA{0, 0, 0, 255}) {
		t.Error("expected a class label above the box")
	}
	if src.RGBAAt(10, 15) != (color.RGBA{0, 0, 0, 255}) {
		t.Error("source image should not be modified")
	}
}

func TestDrawBoxes_ClipsAndSkips(t *testing.T) {
	src := createInMemoryImage(20, 20, color.Black)
	green := DefaultOverlayColor
	out := DrawBoxes(src, []OverlayBox{
		{Rect: geometry.Rect{X1: -5, Y1: -5, X2: 100, Y2: 100}, Class: 0},
		{Rect: geometry.Rect{X1: 50, Y1: 50, X2: 60, Y2: 60}, Class: 1},
	}, green)

	if out.RGBAAt(19, 10) != green || out.RGBAAt(10, 19) != green {
		t.Error("clipped box should be outlined along the image border")
	}
	if out.Bounds().Dx() != 20 {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00FF00", color.RGBA{0, 255, 0, 255}, false},
		{"#0000FF80", color.RGBA{0, 0, 255, 128}, false},
		{"", color.RGBA{}, true},
		{"#FFF", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
