package geometry

import (
	"image"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want Size
	}{
		{"1920x1080", Size{1920, 1080}},
		{"640X480", Size{640, 480}},
		{" 800 x 600 ", Size{800, 600}},
		{"", Size{DefaultWidth, DefaultHeight}},
		{"1920", Size{DefaultWidth, DefaultHeight}},
		{"axb", Size{DefaultWidth, DefaultHeight}},
		{"0x480", Size{DefaultWidth, DefaultHeight}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseSize(tt.in); got != tt.want {
				t.Errorf("ParseSize(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRectFromCorners(t *testing.T) {
	r := RectFromCorners(Point{50, 50}, Point{10, 200})
	want := Rect{10, 50, 50, 200}
	if r != want {
		t.Errorf("got %v, want %v", r, want)
	}
	if r.Dx() != 40 || r.Dy() != 150 || r.Area() != 6000 {
		t.Errorf("dimensions: got %dx%d area %d", r.Dx(), r.Dy(), r.Area())
	}
}

func TestRect_Center(t *testing.T) {
	tests := []struct {
		r    Rect
		want Point
	}{
		{Rect{10, 50, 50, 200}, Point{30, 125}},
		{Rect{0, 0, 5, 5}, Point{2, 2}},
		{Rect{-3, -3, 0, 0}, Point{-2, -2}},
	}
	for _, tt := range tests {
		if got := tt.r.Center(); got != tt.want {
			t.Errorf("%v.Center(): got %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestRect_EmptyAndArea(t *testing.T) {
	if !(Rect{10, 10, 10, 40}).Empty() {
		t.Error("zero-width rect should be empty")
	}
	if (Rect{10, 10, 10, 40}).Area() != 0 {
		t.Error("zero-width rect should have zero area")
	}
	if (Rect{0, 0, 1, 1}).Empty() {
		t.Error("1x1 rect should not be empty")
	}
}

func TestRect_Image(t *testing.T) {
	got := Rect{1, 2, 3, 4}.Image()
	if got != image.Rect(1, 2, 3, 4) {
		t.Errorf("got %v", got)
	}
}

func TestClampRect(t *testing.T) {
	bounds := Size{640, 480}
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", Rect{10, 10, 100, 100}, Rect{10, 10, 100, 100}},
		{"negative corner", Rect{-20, -5, 100, 100}, Rect{0, 0, 100, 100}},
		{"overflow", Rect{600, 400, 700, 500}, Rect{600, 400, 640, 480}},
		{"reversed corners", Rect{100, 100, 10, 10}, Rect{10, 10, 100, 100}},
		{"entirely right", Rect{700, 10, 800, 100}, Rect{640, 10, 640, 100}},
		{"entirely above", Rect{10, -100, 100, -50}, Rect{10, 0, 100, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRect(tt.in, bounds)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampRect_OutsideIsDegenerate(t *testing.T) {
	got := ClampRect(Rect{1000, 1000, 2000, 2000}, Size{640, 480})
	if !got.Empty() {
		t.Errorf("rect outside bounds should clamp to an empty rect, got %v", got)
	}
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name            string
		content, target Size
		want            float64
	}{
		{"same", Size{640, 480}, Size{640, 480}, 1},
		{"width bound", Size{1280, 720}, Size{640, 480}, 0.5},
		{"height bound", Size{100, 400}, Size{400, 200}, 0.5},
		{"upscale", Size{100, 100}, Size{300, 200}, 2},
		{"empty content", Size{0, 100}, Size{300, 200}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FitScale(tt.content, tt.target); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestView_ToSource(t *testing.T) {
	tests := []struct {
		name string
		view View
		in   DisplayPoint
		want Point
	}{
		{"identity", NewView(Size{640, 480}, Size{640, 480}), DisplayPoint{50, 60}, Point{50, 60}},
		{"stretched", NewView(Size{640, 360}, Size{1280, 720}), DisplayPoint{100, 50}, Point{200, 100}},
		{"zoomed", View{Display: Size{800, 600}, Source: Size{800, 600}, Zoom: 2}, DisplayPoint{100, 50}, Point{50, 25}},
		{"panned", View{Display: Size{800, 600}, Source: Size{800, 600}, Zoom: 1, Pan: DisplayPoint{20, 10}}, DisplayPoint{100, 50}, Point{80, 40}},
		{"zero zoom treated as one", View{Display: Size{100, 100}, Source: Size{100, 100}}, DisplayPoint{7, 9}, Point{7, 9}},
		{"truncates", NewView(Size{3, 3}, Size{4, 4}), DisplayPoint{2, 2}, Point{2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.view.ToSource(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestView_ToSource_UnlaidDisplay(t *testing.T) {
	v := NewView(Size{0, 0}, Size{1920, 1080})
	got := v.ToSource(DisplayPoint{33, 44})
	if got != (Point{33, 44}) {
		t.Errorf("zero-area display should map identity, got %v", got)
	}
}

func TestView_ToDisplay(t *testing.T) {
	v := View{Display: Size{640, 360}, Source: Size{1280, 720}, Zoom: 1, Pan: DisplayPoint{5, 5}}
	got := v.ToDisplay(Point{200, 100})
	if got != (DisplayPoint{105, 55}) {
		t.Errorf("got %v, want (105,55)", got)
	}
	back := v.ToSource(got)
	if back != (Point{200, 100}) {
		t.Errorf("round trip: got %v, want (200,100)", back)
	}
}
