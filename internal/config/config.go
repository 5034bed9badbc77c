// Package config loads and persists the maintenance.json settings document.
//
// The document is decoded onto DefaultConfig, so any key missing from the
// file keeps its default. Keys the typed structure does not know are dropped
// on the next Save.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/deepsight-tools/internal/augment"
	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// DefaultPath is the settings file used when none is given.
const DefaultPath = "maintenance.json"

// Slider is a bounded integer setting.
type Slider struct {
	Min   int `json:"min"`
	Max   int `json:"max"`
	Value int `json:"value"`
}

// Clamped returns Value limited to [Min, Max].
func (s Slider) Clamped() int {
	lo, hi := min(s.Min, s.Max), max(s.Min, s.Max)
	return min(max(s.Value, lo), hi)
}

// CameraSettings selects the capture device and its resolution.
type CameraSettings struct {
	SelectedCamera int    `json:"selected_camera"`
	Resolution     string `json:"resolution"`
}

// LabelingSettings tune edge-based and detector-based labeling.
type LabelingSettings struct {
	CannyThreshold1 Slider  `json:"canny_threshold1"`
	CannyThreshold2 Slider  `json:"canny_threshold2"`
	PaddingFactor   float64 `json:"padding_factor"`
	MinBBoxArea     int     `json:"min_bbox_area"`
}

// TrainingSettings hold the augmentation ranges of a capture run and the
// fields of the training job that consumes its output.
type TrainingSettings struct {
	NumPictures int     `json:"num_pictures"`
	FrameRate   float64 `json:"frame_rate"` // inter-frame interval in milliseconds

	MinRotation   float64 `json:"min_rotation"`
	MaxRotation   float64 `json:"max_rotation"`
	MinBeta       float64 `json:"min_beta"`
	MaxBeta       float64 `json:"max_beta"`
	MinAlpha      float64 `json:"min_alpha"`
	MaxAlpha      float64 `json:"max_alpha"`
	MinZoom       float64 `json:"min_zoom"`
	MaxZoom       float64 `json:"max_zoom"`
	MinHue        float64 `json:"min_hue"`
	MaxHue        float64 `json:"max_hue"`
	MinSaturation float64 `json:"min_saturation"`
	MaxSaturation float64 `json:"max_saturation"`
	MinTranslate  float64 `json:"min_translate"`
	MaxTranslate  float64 `json:"max_translate"`
	MinShear      float64 `json:"min_shear"`
	MaxShear      float64 `json:"max_shear"`
	FlipLR        float64 `json:"flip_lr"`

	ModelUsed    string `json:"model_used"`
	ModelWeights string `json:"model_weights"`
	DataConfig   string `json:"data_config"`
	ImgSize      string `json:"img_size"`
	BatchSize    string `json:"batch_size"`
	Epochs       string `json:"epochs"`
	ProjectName  string `json:"project_name"`
}

// HardwareSettings describe the serial link to the training rig.
type HardwareSettings struct {
	ComPort  string `json:"com_port"`
	BaudRate string `json:"baud_rate"`
}

// ScreenSettings describe the operator display.
type ScreenSettings struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Scaling float64 `json:"scaling"`
}

// Config is the whole settings document. It is comparable with ==.
type Config struct {
	Camera         CameraSettings   `json:"camera_settings"`
	CurrentROI     [4]int           `json:"current_roi"`
	TrainingCenter [2]int           `json:"training_center"`
	Labeling       LabelingSettings `json:"labeling_settings"`
	Training       TrainingSettings `json:"training_settings"`
	Hardware       HardwareSettings `json:"hardware_settings"`
	VideoWidth     int              `json:"video_width"`
	VideoHeight    int              `json:"video_height"`
	Screen         ScreenSettings   `json:"screen_settings"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	p := augment.DefaultParams()
	c := &Config{
		Camera:         CameraSettings{SelectedCamera: 0, Resolution: "1920x1080"},
		CurrentROI:     [4]int{0, 0, 640, 480},
		TrainingCenter: [2]int{320, 240},
		Labeling: LabelingSettings{
			CannyThreshold1: Slider{Min: 0, Max: 750, Value: 475},
			CannyThreshold2: Slider{Min: 0, Max: 750, Value: 400},
			PaddingFactor:   0.1,
			MinBBoxArea:     1000,
		},
		Training: TrainingSettings{
			NumPictures:  25,
			FrameRate:    500,
			ModelUsed:    "YOLOv5",
			ModelWeights: "yolov5s.pt",
			DataConfig:   "yolo_training_data/data.yaml",
			ImgSize:      "640",
			BatchSize:    "8",
			Epochs:       "1",
			ProjectName:  "yolo_training_data",
		},
		Hardware:    HardwareSettings{ComPort: "COM9", BaudRate: "115200"},
		VideoWidth:  640,
		VideoHeight: 480,
		Screen:      ScreenSettings{Width: 1200, Height: 864, Scaling: 1.0},
	}
	c.Training.SetParams(p)
	return c
}

// Validate clamps values to safe ranges.
func (c *Config) Validate() error {
	if c.Camera.Resolution == "" {
		c.Camera.Resolution = "1920x1080"
	}
	if c.Training.NumPictures <= 0 {
		c.Training.NumPictures = 25
	}
	if c.Training.FrameRate < 0 {
		c.Training.FrameRate = 0
	}
	if c.Labeling.PaddingFactor < 0 {
		c.Labeling.PaddingFactor = 0
	}
	if c.Labeling.MinBBoxArea < 0 {
		c.Labeling.MinBBoxArea = 0
	}
	p := c.Training.Params()
	_ = p.Validate()
	c.Training.SetParams(p)
	return nil
}

// Params returns the augmentation ranges.
func (t TrainingSettings) Params() augment.Params {
	return augment.Params{
		Rotation:   augment.Range{Min: t.MinRotation, Max: t.MaxRotation},
		Beta:       augment.Range{Min: t.MinBeta, Max: t.MaxBeta},
		Alpha:      augment.Range{Min: t.MinAlpha, Max: t.MaxAlpha},
		Zoom:       augment.Range{Min: t.MinZoom, Max: t.MaxZoom},
		Hue:        augment.Range{Min: t.MinHue, Max: t.MaxHue},
		Saturation: augment.Range{Min: t.MinSaturation, Max: t.MaxSaturation},
		Translate:  augment.Range{Min: t.MinTranslate, Max: t.MaxTranslate},
		Shear:      augment.Range{Min: t.MinShear, Max: t.MaxShear},
		FlipLR:     t.FlipLR,
	}
}

// SetParams stores p in the flat min_/max_ fields, leaving the job fields alone.
func (t *TrainingSettings) SetParams(p augment.Params) {
	t.MinRotation, t.MaxRotation = p.Rotation.Min, p.Rotation.Max
	t.MinBeta, t.MaxBeta = p.Beta.Min, p.Beta.Max
	t.MinAlpha, t.MaxAlpha = p.Alpha.Min, p.Alpha.Max
	t.MinZoom, t.MaxZoom = p.Zoom.Min, p.Zoom.Max
	t.MinHue, t.MaxHue = p.Hue.Min, p.Hue.Max
	t.MinSaturation, t.MaxSaturation = p.Saturation.Min, p.Saturation.Max
	t.MinTranslate, t.MaxTranslate = p.Translate.Min, p.Translate.Max
	t.MinShear, t.MaxShear = p.Shear.Min, p.Shear.Max
	t.FlipLR = p.FlipLR
}

// Interval returns the configured inter-frame interval.
func (t TrainingSettings) Interval() time.Duration {
	return time.Duration(t.FrameRate * float64(time.Millisecond))
}

// ROI returns the persisted region of interest. ok is false when it has no
// area, meaning "use the full frame".
func (c Config) ROI() (geometry.Rect, bool) {
	r := geometry.Rect{X1: c.CurrentROI[0], Y1: c.CurrentROI[1], X2: c.CurrentROI[2], Y2: c.CurrentROI[3]}.Normalize()
	return r, !r.Empty()
}

// Center returns the persisted training center.
func (c Config) Center() geometry.Point {
	return geometry.Point{X: c.TrainingCenter[0], Y: c.TrainingCenter[1]}
}

// Resolution returns the camera resolution; a malformed string yields the
// 1280x720 fallback.
func (c Config) Resolution() geometry.Size {
	return geometry.ParseSize(c.Camera.Resolution)
}

// Load reads configuration from the JSON file at path. A missing or empty
// file yields DefaultConfig() and no error. On a read or JSON error it
// returns defaults along with the error.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return DefaultConfig(), nil
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to path as indented JSON. The file is
// written next to path and renamed into place.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	out, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	out = append(out, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".maintenance-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
