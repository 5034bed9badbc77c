// Package detection finds object candidates in dataset frames.
//
// The ContourDetector groups Canny edge pixels into connected contours and
// reports the bounding box of each one. It backs folder auto-labeling when no
// trained model is available. It works best on a single object in front of a
// plain background, which is how capture sessions are shot.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at the image's top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Confidence Scores
//
// Confidence (0.0 to 1.0) is the rectangularity of a contour: the share of its
// pixels lying on the border of its bounding box. A clean box outline scores
// close to 1.0; a circle scores lower; scattered texture scores lowest.
//
// # Limitations
//
//   - Only axis-aligned boxes are reported
//   - Nested outlines are reported separately
//   - Touching objects merge into one contour
package detection
