// Package autolabel turns dataset frames into YOLO labels without manual box
// drawing.
//
// Two flows are supported:
//
//   - Edge labeling: the operator selects a ROI around one object. The crop is
//     edge-mapped, closed, and the bounding rectangle of all edge pixels
//     becomes the label, relative to the crop. The crop itself is saved as the
//     dataset image.
//   - Folder labeling: every frame of a capture session is passed through a
//     Detector. The first detection large enough is padded and written as the
//     label, and the source frame is copied into the dataset.
//
// In both flows the class is registered in the dataset YAML before the label
// is written, existing label files are never overwritten, and boxes covering
// nearly the whole frame are rejected (see labels.ToNormalized).
package autolabel
