package detection

import (
	"context"
	"image"
	"sort"

	"github.com/ironsheep/deepsight-tools/internal/geometry"
	imgio "github.com/ironsheep/deepsight-tools/internal/imaging"
)

// Defaults for ContourDetector fields left at zero.
const (
	DefaultMinArea    = 100
	DefaultThreshold1 = 50
	DefaultThreshold2 = 150

	// minContourPixels drops specks of edge noise before any box is built.
	minContourPixels = 10

	// borderBand is how far (in pixels) from the bounding box edge a contour
	// pixel may lie and still count toward rectangularity. Canny outlines of
	// a filled shape are up to two pixels thick.
	borderBand = 2
)

// Detection is one object candidate in image coordinates.
type Detection struct {
	// Box is the bounding rectangle, bottom-right exclusive, relative to the
	// image's top-left corner.
	Box geometry.Rect `json:"box"`

	// Area is Box.Dx() * Box.Dy() in square pixels.
	Area int `json:"area"`

	// Confidence indicates how rectangular the outline is (0.0 to 1.0): the
	// share of contour pixels lying on the border of Box.
	Confidence float64 `json:"confidence"`
}

// ContourDetector finds objects as connected edge contours.
//
// It is the pure-Go detector used for folder auto-labeling: a trained model
// can replace it through any type with the same Detect method.
type ContourDetector struct {
	// MinArea is the minimum bounding-box area in square pixels.
	MinArea int

	// Threshold1 and Threshold2 are the Canny hysteresis thresholds, in
	// either order.
	Threshold1 int
	Threshold2 int
}

// Detect returns the contours of img as detections sorted by area (largest
// first).
//
// # Algorithm
//
//  1. Edge Detection: Canny edge map, then a 3x3 closing to join broken outlines
//  2. Contour Finding: Use flood-fill to group 8-connected edge pixels
//  3. Bounding Box: Calculate the bounding rectangle of each contour
//  4. Filtering: Remove contours under 10 pixels or boxes below MinArea
//  5. Rectangularity: Share of contour pixels within 2 px of the box border
//
// Detect returns ctx.Err() when ctx is cancelled between contours.
func (d ContourDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	minArea, th1, th2 := d.MinArea, d.Threshold1, d.Threshold2
	if minArea <= 0 {
		minArea = DefaultMinArea
	}
	if th1 == 0 && th2 == 0 {
		th1, th2 = DefaultThreshold1, DefaultThreshold2
	}

	edges := imgio.CloseEdges(imgio.EdgeMap(img, th1, th2))
	width, height := edges.Bounds().Dx(), edges.Bounds().Dy()

	contours := findContours(edges, width, height)

	detections := make([]Detection, 0, len(contours))
	for _, contour := range contours {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		box := boundingBox(contour, width, height)
		area := box.Area()
		if area < minArea {
			continue
		}

		detections = append(detections, Detection{
			Box:        box,
			Area:       area,
			Confidence: rectangularity(contour, box),
		})
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Area > detections[j].Area
	})
	return detections, nil
}

// findContours groups the edge pixels of edges into 8-connected components,
// in raster order of their first pixel.
func findContours(edges *image.Gray, width, height int) [][]geometry.Point {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([][]geometry.Point, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if isEdge(edges, x, y) && !visited[y][x] {
				contour := make([]geometry.Point, 0)
				floodFill(edges, visited, x, y, width, height, &contour)
				if len(contour) >= minContourPixels {
					contours = append(contours, contour)
				}
			}
		}
	}

	return contours
}

func isEdge(edges *image.Gray, x, y int) bool {
	return edges.Pix[y*edges.Stride+x] != imgio.EdgeOff
}

// floodFill performs iterative flood-fill from a starting point.
func floodFill(edges *image.Gray, visited [][]bool, startX, startY, width, height int, contour *[]geometry.Point) {
	stack := []geometry.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !isEdge(edges, p.X, p.Y) {
			continue
		}

		visited[p.Y][p.X] = true
		*contour = append(*contour, p)

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, geometry.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

func boundingBox(contour []geometry.Point, width, height int) geometry.Rect {
	minX, minY := width, height
	maxX, maxY := 0, 0
	for _, p := range contour {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return geometry.Rect{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1}
}

func rectangularity(contour []geometry.Point, box geometry.Rect) float64 {
	if len(contour) == 0 {
		return 0
	}
	onBorder := 0
	for _, p := range contour {
		if p.X-box.X1 < borderBand || box.X2-1-p.X < borderBand ||
			p.Y-box.Y1 < borderBand || box.Y2-1-p.Y < borderBand {
			onBorder++
		}
	}
	return float64(onBorder) / float64(len(contour))
}
