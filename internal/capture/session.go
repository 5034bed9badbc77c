package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/deepsight-tools/internal/augment"
	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// DefaultBaseDir is the root of capture output.
const DefaultBaseDir = "training_data"

// JPEGQuality is the encoder quality of saved samples.
const JPEGQuality = 95

// ErrNoLabel is returned when a session has no category or label.
var ErrNoLabel = errors.New("capture: category and label are required")

// Options configure one capture session.
type Options struct {
	BaseDir     string
	Category    string
	Label       string
	NumPictures int
	Interval    time.Duration
	// Resolution every frame is resized to before cropping. Zero keeps the
	// camera's own size.
	Resolution geometry.Size
	// ROI in Resolution space; nil means the full frame.
	ROI    *geometry.Rect
	Params augment.Params
	Seed   int64
}

// SampleEvent describes one sample written to disk.
type SampleEvent struct {
	Iteration int              `json:"iteration"`
	Path      string           `json:"path"`
	Realized  augment.Realized `json:"realized"`
	Elapsed   time.Duration    `json:"elapsed"`
}

// Report summarizes a finished or cancelled session.
type Report struct {
	Dir       string `json:"dir"`
	Saved     int    `json:"saved"`
	Skipped   int    `json:"skipped"`
	Cancelled bool   `json:"cancelled"`
}

// Session runs the capture loop. It is not reused across runs.
type Session struct {
	Options
	Device *Device
	Log    logrus.FieldLogger

	// OnSample, when set, is called after each saved sample on the session's
	// goroutine.
	OnSample func(SampleEvent)

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSession returns a Session reading from dev. A nil log uses the logrus
// standard logger.
func NewSession(dev *Device, opts Options, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.BaseDir == "" {
		opts.BaseDir = DefaultBaseDir
	}
	return &Session{
		Options: opts,
		Device:  dev,
		Log:     log,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Timestamp formats t as YYYYMMDD_HHMMSS_micro, the suffix of sample names.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405") + fmt.Sprintf("_%06d", t.Nanosecond()/1000)
}

// SessionDir returns <base>/<category>/<label>/<YYYYMMDD_HHMMSS>.
func SessionDir(base, category, label string, started time.Time) string {
	return filepath.Join(base, category, label, started.Format("20060102_150405"))
}

// SampleName returns "{label}_{iteration}_{timestamp}.jpg".
func SampleName(label string, iteration int, t time.Time) string {
	return fmt.Sprintf("%s_%d_%s.jpg", label, iteration, Timestamp(t))
}

// Run captures NumPictures samples.
//
// Failing to create the output directory or to acquire the camera aborts
// the session with an error. A failed read or save only skips that
// iteration. Cancelling ctx stops the loop at the next iteration boundary
// or during the inter-frame wait; the partial report is returned with
// Cancelled set and a nil error. The camera is closed before Run returns.
func (s *Session) Run(ctx context.Context) (Report, error) {
	if s.Category == "" || s.Label == "" {
		return Report{}, ErrNoLabel
	}
	report := Report{Dir: SessionDir(s.BaseDir, s.Category, s.Label, s.now())}
	log := s.Log.WithFields(logrus.Fields{"category": s.Category, "label": s.Label, "dir": report.Dir})

	if err := os.MkdirAll(report.Dir, 0o755); err != nil {
		return report, fmt.Errorf("failed to create output directory: %w", err)
	}

	cam, err := s.Device.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to acquire camera: %w", err)
	}
	defer func() {
		if err := cam.Close(); err != nil {
			log.WithError(err).Warn("Failed to close camera")
		}
	}()

	chain := augment.NewChain(s.Params, s.Seed)
	roi := s.effectiveROI(log)

	log.WithFields(logrus.Fields{"num_pictures": s.NumPictures, "interval": s.Interval}).Info("Capture started")
	for i := 0; i < s.NumPictures; i++ {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		began := s.now()

		ev, err := s.captureOne(ctx, cam, chain, roi, report.Dir, i)
		switch {
		case err != nil && ctx.Err() != nil:
			report.Cancelled = true
		case err != nil:
			report.Skipped++
			log.WithError(err).WithField("iteration", i).Warn("Skipping iteration")
		default:
			report.Saved++
			ev.Elapsed = s.now().Sub(began)
			log.WithFields(ev.Realized.Fields()).WithFields(logrus.Fields{
				"iteration": i,
				"path":      ev.Path,
				"elapsed":   ev.Elapsed,
			}).Debug("Sample saved")
			if s.OnSample != nil {
				s.OnSample(ev)
			}
		}
		if report.Cancelled {
			break
		}

		if i == s.NumPictures-1 {
			break
		}
		wait := max(0, s.Interval-s.now().Sub(began))
		if err := s.sleep(ctx, wait); err != nil {
			report.Cancelled = true
			break
		}
	}

	log.WithFields(logrus.Fields{
		"saved":     report.Saved,
		"skipped":   report.Skipped,
		"cancelled": report.Cancelled,
	}).Info("Capture finished")
	return report, nil
}

// effectiveROI clamps the configured ROI to the capture resolution. A ROI
// with no area after clamping falls back to the full frame.
func (s *Session) effectiveROI(log logrus.FieldLogger) *geometry.Rect {
	if s.ROI == nil {
		return nil
	}
	r := *s.ROI
	if !s.Resolution.Empty() {
		r = geometry.ClampRect(r, s.Resolution)
	}
	if r.Empty() {
		log.WithField("roi", s.ROI.String()).Warn("ROI has no area, using the full frame")
		return nil
	}
	return &r
}

func (s *Session) captureOne(ctx context.Context, cam Camera, chain *augment.Chain, roi *geometry.Rect, dir string, i int) (SampleEvent, error) {
	frame, err := cam.Read(ctx)
	if err != nil {
		return SampleEvent{}, fmt.Errorf("failed to read frame: %w", err)
	}
	frame = s.resize(frame)

	sample, err := chain.Apply(frame, roi)
	if err != nil {
		return SampleEvent{}, err
	}

	path := filepath.Join(dir, SampleName(s.Label, i, s.now()))
	if err := imaging.Save(sample.Image, path, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return SampleEvent{}, fmt.Errorf("failed to save sample: %w", err)
	}
	return SampleEvent{Iteration: i, Path: path, Realized: sample.Realized}, nil
}

func (s *Session) resize(frame image.Image) image.Image {
	return Resize(frame, s.Resolution)
}

// Resize scales frame to the capture resolution. An empty size, or a frame
// already at that size, is returned unchanged.
func Resize(frame image.Image, size geometry.Size) image.Image {
	if size.Empty() || geometry.SizeOf(frame) == size {
		return frame
	}
	return imaging.Resize(frame, size.W, size.H, imaging.Linear)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
