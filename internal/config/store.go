package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/deepsight-tools/internal/augment"
	"github.com/ironsheep/deepsight-tools/internal/geometry"
)

// Store holds the current configuration for one settings file.
//
// Reads and writes go through a single RWMutex so an external edit picked
// up by Watch never interleaves with an in-process Update. Change
// subscribers run after the lock is released and may call back into the
// Store.
type Store struct {
	path string
	log  logrus.FieldLogger

	mu  sync.RWMutex
	cfg Config

	subMu sync.Mutex
	subs  []func(Config)
}

// Open loads the settings file at path. Open never fails: a missing file
// yields defaults, and a corrupt one yields defaults with a warning.
// A nil log uses the logrus standard logger.
func Open(path string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s := &Store{path: path, log: log.WithField("config", path)}

	cfg, err := Load(path)
	if err != nil {
		s.log.WithError(err).Warn("Using default settings")
	}
	s.cfg = *cfg
	return s
}

// Path returns the absolute path of the settings file.
func (s *Store) Path() string { return s.path }

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update applies fn to a copy of the configuration, validates it, saves it
// and makes it current. Subscribers are notified when the result differs
// from the previous configuration. If saving fails the current
// configuration is left unchanged.
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	prev := s.cfg
	next := prev
	fn(&next)
	_ = next.Validate()
	if err := next.Save(s.path); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = next
	s.mu.Unlock()

	if next != prev {
		s.notify(next)
	}
	return nil
}

// SaveROI persists a committed region of interest and its center.
func (s *Store) SaveROI(r geometry.Rect, center geometry.Point) error {
	r = r.Normalize()
	return s.Update(func(c *Config) {
		c.CurrentROI = [4]int{r.X1, r.Y1, r.X2, r.Y2}
		c.TrainingCenter = [2]int{center.X, center.Y}
	})
}

// SaveTrainingParams persists augmentation ranges. numPictures and
// frameRateMS are applied when positive.
func (s *Store) SaveTrainingParams(p augment.Params, numPictures int, frameRateMS float64) error {
	return s.Update(func(c *Config) {
		c.Training.SetParams(p)
		if numPictures > 0 {
			c.Training.NumPictures = numPictures
		}
		if frameRateMS > 0 {
			c.Training.FrameRate = frameRateMS
		}
	})
}

// OnChange registers fn to be called with the new configuration whenever it
// changes through Update or a reload.
func (s *Store) OnChange(fn func(Config)) {
	s.subMu.Lock()
	s.subs = append(s.subs, fn)
	s.subMu.Unlock()
}

func (s *Store) notify(cfg Config) {
	s.subMu.Lock()
	subs := append([]func(Config){}, s.subs...)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(cfg)
	}
}

// Reload re-reads the settings file. It reports whether the configuration
// changed. A file that cannot be read or parsed leaves the current
// configuration in place, as does a missing or empty file.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	// Missing or truncated files are transient during an external save.
	if info, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		s.mu.Unlock()
		return false, nil
	}
	cfg, err := Load(s.path)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if *cfg == s.cfg {
		s.mu.Unlock()
		return false, nil
	}
	s.cfg = *cfg
	s.mu.Unlock()

	s.notify(*cfg)
	return true, nil
}

// Watch starts watching the settings file for external edits and reloads
// it on every write. It returns once the watch is registered; watching
// stops when ctx is done.
//
// The containing directory is watched rather than the file, so editors that
// replace the file by rename are followed.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != s.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				changed, err := s.Reload()
				if err != nil {
					s.log.WithError(err).Warn("Ignoring unreadable settings file")
					continue
				}
				if changed {
					s.log.Info("Settings reloaded")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.WithError(err).Warn("Config watcher error")
			}
		}
	}()
	return nil
}
