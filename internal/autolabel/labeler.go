package autolabel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/deepsight-tools/internal/detection"
	"github.com/ironsheep/deepsight-tools/internal/geometry"
	imgio "github.com/ironsheep/deepsight-tools/internal/imaging"
	"github.com/ironsheep/deepsight-tools/internal/labels"
)

// Detector finds object candidates in a frame. Detections are expected in
// order of preference; detection.ContourDetector sorts them by area.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]detection.Detection, error)
}

// Defaults for Labeler fields left at zero.
const (
	DefaultThreshold1  = 475
	DefaultThreshold2  = 400
	DefaultMinBBoxArea = 1000
)

// Result describes one labeled image.
type Result struct {
	// Source is the frame the label was derived from.
	Source string `json:"source"`

	// Image is the dataset copy of the frame (or crop).
	Image string `json:"image"`

	// Label is the label file path.
	Label string `json:"label"`

	Box labels.NormalizedBox `json:"box"`

	// Written is false when a label for this image already existed; the file
	// was left unchanged.
	Written bool `json:"written"`
}

// Skip records a frame folder labeling passed over.
type Skip struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// FolderReport summarizes Labeler.Folder.
type FolderReport struct {
	Labeled []Result `json:"labeled"`
	Skipped []Skip   `json:"skipped"`
}

// Labeler writes labels into a dataset.
type Labeler struct {
	Store    *labels.Store
	Registry *labels.Registry
	Cache    *imgio.ImageCache
	Detector Detector
	Log      logrus.FieldLogger

	// Canny thresholds for edge labeling.
	Threshold1 int
	Threshold2 int

	// Padding expands detector boxes by this fraction of their size on each side.
	Padding float64

	// MinBBoxArea is the smallest detector box, in square pixels, worth labeling.
	MinBBoxArea int
}

// NewLabeler returns a Labeler with default thresholds and a contour
// detector. A nil cache allocates one; a nil log uses the logrus standard
// logger.
func NewLabeler(store *labels.Store, reg *labels.Registry, cache *imgio.ImageCache, log logrus.FieldLogger) *Labeler {
	if cache == nil {
		cache = imgio.NewImageCache()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Labeler{
		Store:       store,
		Registry:    reg,
		Cache:       cache,
		Detector:    detection.ContourDetector{Threshold1: DefaultThreshold1, Threshold2: DefaultThreshold2},
		Log:         log,
		Threshold1:  DefaultThreshold1,
		Threshold2:  DefaultThreshold2,
		MinBBoxArea: DefaultMinBBoxArea,
	}
}

// SaveEdgeLabel labels the object inside roi of the frame at path.
//
// On success the crop is saved under the dataset images with the frame's
// basename (unless already present), labelName is registered, and the label
// is written relative to the crop. Geometry rejections (ErrInvalidROI,
// ErrNoEdges, labels.ErrWholeFrame, labels.ErrDegenerateBox) leave the
// dataset and registry untouched.
func (l *Labeler) SaveEdgeLabel(path string, roi geometry.Rect, labelName string) (Result, error) {
	if strings.TrimSpace(labelName) == "" {
		return Result{}, labels.ErrEmptyClass
	}
	img, err := l.Cache.Load(path)
	if err != nil {
		return Result{}, err
	}

	edge, err := FromEdges(img, roi, l.Threshold1, l.Threshold2, 0)
	if err != nil {
		return Result{}, err
	}

	dest, _, err := l.Store.SaveImage(filepath.Base(path), edge.Crop)
	if err != nil {
		return Result{}, err
	}
	res, err := l.write(path, dest, edge.Box, labelName)
	if err != nil {
		return Result{}, err
	}

	l.Log.WithFields(logrus.Fields{
		"source":  path,
		"roi":     roi.String(),
		"bounds":  edge.Bounds.String(),
		"label":   res.Label,
		"written": res.Written,
	}).Info("Edge label saved")
	return res, nil
}

// Folder labels every frame in paths with labelName using the Detector.
//
// For each frame the first detection with an area of at least MinBBoxArea is
// padded by Padding and written as the label; the frame is copied into the
// dataset images. Frames that fail to load, have no usable detection, or
// whose box is rejected are recorded in Skipped and do not stop the run.
// Cancelling ctx returns the partial report with ctx.Err().
func (l *Labeler) Folder(ctx context.Context, paths []string, labelName string) (FolderReport, error) {
	report := FolderReport{Labeled: []Result{}, Skipped: []Skip{}}
	if strings.TrimSpace(labelName) == "" {
		return report, labels.ErrEmptyClass
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := l.labelFrame(ctx, path, labelName)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			// Registry and store failures affect every remaining frame.
			var fatal *datasetError
			if errors.As(err, &fatal) {
				return report, fatal.err
			}
			l.Log.WithError(err).WithField("source", path).Warn("Skipping frame")
			report.Skipped = append(report.Skipped, Skip{Source: path, Reason: err.Error()})
			continue
		}
		report.Labeled = append(report.Labeled, res)
	}

	l.Log.WithFields(logrus.Fields{
		"labeled": len(report.Labeled),
		"skipped": len(report.Skipped),
		"class":   labelName,
	}).Info("Folder auto-label finished")
	return report, nil
}

// errNoDetection is recorded when a frame has no detection of useful size.
var errNoDetection = errors.New("no detection above the minimum box area")

func (l *Labeler) labelFrame(ctx context.Context, path, labelName string) (Result, error) {
	img, err := l.Cache.Load(path)
	if err != nil {
		return Result{}, err
	}
	detections, err := l.Detector.Detect(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("failed to detect objects: %w", err)
	}

	var picked *detection.Detection
	for i := range detections {
		if detections[i].Area >= l.MinBBoxArea {
			picked = &detections[i]
			break
		}
	}
	if picked == nil {
		return Result{}, errNoDetection
	}

	box, err := labels.ToNormalized(picked.Box, geometry.SizeOf(img), 0, l.Padding)
	if err != nil {
		return Result{}, err
	}

	dest, _, err := l.Store.CopyImage(path)
	if err != nil {
		return Result{}, &datasetError{err}
	}
	res, err := l.write(path, dest, box, labelName)
	if err != nil {
		return Result{}, &datasetError{err}
	}
	l.Log.WithFields(logrus.Fields{
		"source":     path,
		"box":        picked.Box.String(),
		"confidence": picked.Confidence,
		"written":    res.Written,
	}).Debug("Frame labeled")
	return res, nil
}

// write registers labelName and writes box under its index.
func (l *Labeler) write(source, dest string, box labels.NormalizedBox, labelName string) (Result, error) {
	idx, err := l.Registry.Register(labelName)
	if err != nil {
		return Result{}, err
	}
	box.Class = idx

	written, err := l.Store.WriteLabel(dest, box)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Source:  source,
		Image:   dest,
		Label:   l.Store.LabelPath(dest),
		Box:     box,
		Written: written,
	}, nil
}

// datasetError marks failures of the dataset itself rather than of one frame.
type datasetError struct{ err error }

func (e *datasetError) Error() string { return e.err.Error() }
func (e *datasetError) Unwrap() error { return e.err }
