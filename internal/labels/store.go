package labels

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// LabelExt is the extension of label files.
const LabelExt = ".txt"

// Store writes images and their label files under a dataset root.
type Store struct {
	Images string
	Labels string
}

// NewStore returns a Store rooted at root, creating the images and labels
// directories if needed.
func NewStore(root string) (*Store, error) {
	s := &Store{
		Images: filepath.Join(root, "images"),
		Labels: filepath.Join(root, "labels"),
	}
	for _, dir := range []string{s.Images, s.Labels} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create dataset directory: %w", err)
		}
	}
	return s, nil
}

// LabelPath returns the label file for imagePath: the image basename with
// LabelExt, inside the labels directory.
func (s *Store) LabelPath(imagePath string) string {
	base := filepath.Base(imagePath)
	return filepath.Join(s.Labels, strings.TrimSuffix(base, filepath.Ext(base))+LabelExt)
}

// WriteLabel writes box as the label for imagePath.
//
// The label file is created exclusively. If it already exists nothing is
// written and WriteLabel returns false with a nil error; the existing
// content is left as it was.
func (s *Store) WriteLabel(imagePath string, box NormalizedBox) (bool, error) {
	wrote, err := createExclusive(s.LabelPath(imagePath), func(w io.Writer) error {
		_, err := io.WriteString(w, box.String()+"\n")
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to write label file: %w", err)
	}
	return wrote, nil
}

// createExclusive creates path and fills it with write. An existing file is
// left alone and reported as false with a nil error. If write or the close
// fails the new file is removed, so a later attempt is not taken for a
// finished one.
func createExclusive(path string, write func(io.Writer) error) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return false, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, err
	}
	return true, nil
}

// SaveImage writes img into the images directory as name, unless a file of
// that name is already there. It returns the destination path and whether a
// file was written. The format follows the extension of name.
func (s *Store) SaveImage(name string, img image.Image) (string, bool, error) {
	path := filepath.Join(s.Images, filepath.Base(name))
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return path, false, fmt.Errorf("failed to check dataset image: %w", err)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return path, false, fmt.Errorf("failed to save dataset image: %w", err)
	}
	return path, true, nil
}

// CopyImage copies the file at src into the images directory under its own
// basename, byte for byte, unless a file of that name is already there. It
// returns the destination path and whether a file was written.
func (s *Store) CopyImage(src string) (string, bool, error) {
	path := filepath.Join(s.Images, filepath.Base(src))
	in, err := os.Open(src)
	if err != nil {
		return path, false, fmt.Errorf("failed to open source image: %w", err)
	}
	defer in.Close()

	wrote, err := createExclusive(path, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
	if err != nil {
		return path, false, fmt.Errorf("failed to copy dataset image: %w", err)
	}
	return path, wrote, nil
}

// ReadLabels returns the boxes stored for imagePath. A missing label file
// yields no boxes and no error. Blank lines are ignored.
func (s *Store) ReadLabels(imagePath string) ([]NormalizedBox, error) {
	f, err := os.Open(s.LabelPath(imagePath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	var boxes []NormalizedBox
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		b, err := ParseBox(line)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}
	return boxes, nil
}
