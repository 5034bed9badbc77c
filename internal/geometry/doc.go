// Package geometry converts coordinates between the spaces used by the
// acquisition and labeling tools.
//
// # Coordinate Spaces
//
// Three spaces are in play and each has its own type:
//   - Source space (Point, Rect, Size): pixels of the captured frame.
//   - Display space (DisplayPoint): pixels of the on-screen canvas, which may
//     be stretched, zoomed, and panned relative to the source.
//   - Normalized label space: YOLO values in [0,1], see package labels.
//
// All spaces put (0,0) at the top-left corner, X grows rightward and Y grows
// downward. A Rect is (X1,Y1) inclusive to (X2,Y2) exclusive, so Dx() is
// X2-X1.
//
// Every function in this package is pure and safe for concurrent use.
package geometry
