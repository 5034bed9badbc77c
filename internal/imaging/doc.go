// Package imaging provides the image IO and pixel analysis shared by the
// capture, labeling and tool-server packages.
//
// It covers decoding dataset frames (with a shared cache), listing the frames
// of a directory, the Canny edge map used by edge-based labeling, drawing
// label overlays, and encoding images for JSON responses. All operations work
// with standard Go image.Image types and use a coordinate system where (0,0)
// is at the top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based and relative to the
// image's own bounds, so a SubImage crop behaves like a fresh image:
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//   - Edge maps always have their origin at (0,0)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their inputs.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside image bounds or without area
//   - File I/O errors during image loading
//   - Encoding errors during image output
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid redundant
// disk reads. Evict a path after rewriting its file.
package imaging
