package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// Edge pixel values in maps returned by EdgeMap and CloseEdges.
const (
	EdgeOn  uint8 = 255
	EdgeOff uint8 = 0
)

// EdgeMap performs Canny edge detection and returns a binary map the size
// of img with origin (0,0): EdgeOn on edges, EdgeOff elsewhere.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - threshold1, threshold2: Hysteresis thresholds on the 0-255 intensity
//     scale, in either order. The smaller is the low threshold, the larger
//     the high one, so slider values can be passed straight through.
//
// # Algorithm
//
//  1. Grayscale conversion with ITU-R BT.601 weights
//     (0.299*R + 0.587*G + 0.114*B), kept on the 0-255 scale
//
//  2. Gradient computation: 3x3 Sobel operators with replicated borders,
//     magnitude = |Gx| + |Gy|
//
//  3. Non-maximum suppression: keep only local maxima along the gradient
//     direction, quantized to 0°, 45°, 90° and 135°
//
//  4. Hysteresis: magnitudes above the high threshold seed edges; magnitudes
//     above the low threshold are kept when 8-connected to a seed
//
// No smoothing is applied before the gradient, so noisy frames should be
// paired with higher thresholds.
func EdgeMap(img image.Image, threshold1, threshold2 int) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return result
	}

	gray := Grayscale(img)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := gray[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Abs(gx) + math.Abs(gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	suppressed := suppressNonMaxima(magnitude, direction, width, height)

	low := float64(min(threshold1, threshold2))
	high := float64(max(threshold1, threshold2))

	// Seed from strong pixels and grow through weak ones.
	stack := make([]image.Point, 0, 64)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if suppressed[y][x] > high && result.Pix[y*result.Stride+x] == EdgeOff {
				result.Pix[y*result.Stride+x] = EdgeOn
				stack = append(stack, image.Pt(x, y))
			}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= width || ny >= height {
							continue
						}
						i := ny*result.Stride + nx
						if result.Pix[i] == EdgeOff && suppressed[ny][nx] > low {
							result.Pix[i] = EdgeOn
							stack = append(stack, image.Pt(nx, ny))
						}
					}
				}
			}
		}
	}

	return result
}

// suppressNonMaxima thins gradient ridges to one pixel. Border pixels are
// always suppressed.
func suppressNonMaxima(magnitude, direction [][]float64, width, height int) [][]float64 {
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]
			if mag == 0 {
				continue
			}

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			} else {
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}
	return suppressed
}

// Grayscale returns the BT.601 luminance of img on the 0-255 scale, indexed
// [y][x] from the image's top-left corner.
func Grayscale(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y][x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return gray
}

// CloseEdges applies a 3x3 morphological closing (dilate, then erode) to an
// edge map, bridging one-pixel gaps in object outlines. Pixels outside the
// map are ignored by both passes, so closing never erodes the border.
func CloseEdges(edges *image.Gray) *image.Gray {
	return morph(morph(edges, true), false)
}

func morph(src *image.Gray, dilate bool) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := src.GrayAt(x, y).Y
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					p := image.Pt(x+dx, y+dy)
					if !p.In(b) {
						continue
					}
					n := src.GrayAt(p.X, p.Y).Y
					if dilate {
						v = max(v, n)
					} else {
						v = min(v, n)
					}
				}
			}
			dst.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return dst
}

// EdgeBounds returns the smallest rectangle containing every non-zero pixel
// of edges, with an exclusive bottom-right corner. ok is false when the map
// has no edge pixels.
func EdgeBounds(edges *image.Gray) (r geometry.Rect, ok bool) {
	b := edges.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if edges.GrayAt(x, y).Y == EdgeOff {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return geometry.Rect{}, false
	}
	return geometry.Rect{X1: minX - b.Min.X, Y1: minY - b.Min.Y, X2: maxX + 1 - b.Min.X, Y2: maxY + 1 - b.Min.Y}, true
}

// EdgeDetect runs EdgeMap and encodes the result for a tool response.
func EdgeDetect(img image.Image, threshold1, threshold2 int) (*EncodedImage, error) {
	return EncodePNG(EdgeMap(img, threshold1, threshold2))
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
