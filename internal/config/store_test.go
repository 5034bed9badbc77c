package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/deepsight-tools/internal/augment"
	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestStore_OpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Open(path, quietLogger())
	if s.Get() != *DefaultConfig() {
		t.Error("corrupt file should open with defaults")
	}
}

func TestStore_UpdatePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.json")
	s := Open(path, quietLogger())

	var seen []Config
	s.OnChange(func(c Config) { seen = append(seen, c) })

	if err := s.Update(func(c *Config) { c.Camera.SelectedCamera = 1 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(seen) != 1 || seen[0].Camera.SelectedCamera != 1 {
		t.Fatalf("expected one notification, got %d", len(seen))
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Camera.SelectedCamera != 1 {
		t.Error("update should be on disk")
	}

	if err := s.Update(func(c *Config) { c.Camera.SelectedCamera = 1 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(seen) != 1 {
		t.Error("an update that changes nothing should not notify")
	}
}

func TestStore_SubscriberMayReadStore(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "maintenance.json"), quietLogger())
	done := make(chan Config, 1)
	s.OnChange(func(Config) { done <- s.Get() })

	if err := s.Update(func(c *Config) { c.VideoWidth = 800 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	select {
	case c := <-done:
		if c.VideoWidth != 800 {
			t.Errorf("subscriber saw %d", c.VideoWidth)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber deadlocked")
	}
}

func TestStore_SaveROI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.json")
	s := Open(path, quietLogger())

	r := geometry.Rect{X1: 50, Y1: 200, X2: 10, Y2: 50}
	if err := s.SaveROI(r, r.Normalize().Center()); err != nil {
		t.Fatalf("SaveROI: %v", err)
	}
	got := s.Get()
	if got.CurrentROI != [4]int{10, 50, 50, 200} || got.TrainingCenter != [2]int{30, 125} {
		t.Errorf("roi = %v, center = %v", got.CurrentROI, got.TrainingCenter)
	}
	if got.Center() != (geometry.Point{X: 30, Y: 125}) {
		t.Errorf("Center() = %v", got.Center())
	}
}

func TestStore_SaveTrainingParamsKeepsJobFields(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "maintenance.json"), quietLogger())

	p := augment.Identity()
	p.Rotation = augment.Range{Min: -5, Max: 5}
	if err := s.SaveTrainingParams(p, 10, 250); err != nil {
		t.Fatalf("SaveTrainingParams: %v", err)
	}
	got := s.Get()
	if got.Training.Params() != p {
		t.Errorf("params = %+v", got.Training.Params())
	}
	if got.Training.NumPictures != 10 || got.Training.Interval() != 250*time.Millisecond {
		t.Errorf("num_pictures = %d, interval = %v", got.Training.NumPictures, got.Training.Interval())
	}
	if got.Training.ModelUsed != "YOLOv5" || got.Training.Epochs != "1" {
		t.Error("saving augmentation ranges should not drop the training job fields")
	}

	if err := s.SaveTrainingParams(p, 0, 0); err != nil {
		t.Fatalf("SaveTrainingParams: %v", err)
	}
	if got := s.Get(); got.Training.NumPictures != 10 {
		t.Errorf("zero num_pictures should be ignored, got %d", got.Training.NumPictures)
	}
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.json")
	s := Open(path, quietLogger())

	notified := 0
	s.OnChange(func(Config) { notified++ })

	// Missing file: nothing to reload.
	if changed, err := s.Reload(); err != nil || changed {
		t.Fatalf("Reload(missing) = %v, %v", changed, err)
	}

	external := DefaultConfig()
	external.Screen.Width = 1920
	if err := external.Save(path); err != nil {
		t.Fatal(err)
	}
	changed, err := s.Reload()
	if err != nil || !changed {
		t.Fatalf("Reload = %v, %v", changed, err)
	}
	if s.Get().Screen.Width != 1920 || notified != 1 {
		t.Errorf("width = %d, notified = %d", s.Get().Screen.Width, notified)
	}

	if changed, _ := s.Reload(); changed || notified != 1 {
		t.Error("reloading an identical file should not notify")
	}

	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reload(); err == nil {
		t.Error("expected an error for a corrupt file")
	}
	if s.Get().Screen.Width != 1920 {
		t.Error("a corrupt file should not replace the current settings")
	}
}

func TestStore_WatchPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintenance.json")
	s := Open(path, quietLogger())

	changes := make(chan Config, 4)
	s.OnChange(func(c Config) {
		select {
		case changes <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	external := DefaultConfig()
	external.Camera.Resolution = "1280x720"
	if err := external.Save(path); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if c.Camera.Resolution != "1280x720" {
			t.Errorf("resolution = %q", c.Camera.Resolution)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload notification")
	}
}
