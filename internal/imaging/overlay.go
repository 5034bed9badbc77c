package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// OverlayBox is one rectangle to draw, tagged with its class index.
type OverlayBox struct {
	Rect  geometry.Rect
	Class int
}

// DefaultOverlayColor is the outline color used when none is given.
var DefaultOverlayColor = color.RGBA{0, 255, 0, 255}

// DrawBoxes returns a copy of img with each box outlined and its class index
// printed above the top-left corner (inside the box when there is no room).
// Boxes are clipped to the image; the source image is not modified.
func DrawBoxes(img image.Image, boxes []OverlayBox, outline color.RGBA) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	labelColor := color.RGBA{255, 255, 255, 255}
	for _, b := range boxes {
		r := geometry.ClampRect(b.Rect, geometry.SizeOf(result))
		if r.Empty() {
			continue
		}
		for x := r.X1; x < r.X2; x++ {
			result.SetRGBA(x, r.Y1, outline)
			result.SetRGBA(x, r.Y2-1, outline)
		}
		for y := r.Y1; y < r.Y2; y++ {
			result.SetRGBA(r.X1, y, outline)
			result.SetRGBA(r.X2-1, y, outline)
		}

		ly := r.Y1 - labelHeight - 1
		if ly < 0 {
			ly = r.Y1 + 2
		}
		drawLabel(result, r.X1+2, ly, strconv.Itoa(b.Class), labelColor, outline)
	}
	return result
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

const (
	glyphWidth  = 4
	labelHeight = 6
)

// 3x5 digit glyphs.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text on a filled background at (x, y). Unknown runes
// leave a blank cell.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	set := func(px, py int, c color.RGBA) {
		if image.Pt(px, py).In(bounds) {
			img.SetRGBA(px, py, c)
		}
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < len(text)*glyphWidth; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					set(cx+col, y+row, fg)
				}
			}
		}
		cx += glyphWidth
	}
}
