package labels

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultSplitPath is the train and val path written into a new registry.
const DefaultSplitPath = "yolo_training_data/images"

// ErrEmptyClass is returned when registering a blank class name.
var ErrEmptyClass = errors.New("labels: empty class name")

// dataset is the on-disk shape of the registry file.
type dataset struct {
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// Registry is the ordered class-name list backing a dataset YAML file.
//
// Every successful Register call is on disk before it returns. Registry is
// safe for concurrent use.
type Registry struct {
	path string

	mu   sync.Mutex
	data dataset
}

// OpenRegistry loads the registry at path. A missing file yields an empty
// registry with the default split paths; nothing is written until the first
// new class is registered. A file that exists but cannot be parsed is an
// error, and the file is left untouched.
func OpenRegistry(path string) (*Registry, error) {
	r := &Registry{
		path: path,
		data: dataset{Train: DefaultSplitPath, Val: DefaultSplitPath},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read class registry: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return r, nil
	}

	var d dataset
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to parse class registry %s: %w", path, err)
	}
	if d.Train == "" {
		d.Train = DefaultSplitPath
	}
	if d.Val == "" {
		d.Val = DefaultSplitPath
	}
	d.NC = len(d.Names)
	r.data = d
	return r, nil
}

// Path returns the registry file path.
func (r *Registry) Path() string { return r.path }

// Register returns the index of name, appending it first if it has never
// been seen. Surrounding whitespace is ignored.
func (r *Registry) Register(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyClass
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := indexOf(r.data.Names, name); i >= 0 {
		return i, nil
	}

	next := r.data
	next.Names = append(append([]string(nil), r.data.Names...), name)
	next.NC = len(next.Names)
	if err := writeFileAtomic(r.path, next); err != nil {
		return 0, err
	}
	r.data = next
	return next.NC - 1, nil
}

// Index returns the index of name, or -1 if it is not registered.
func (r *Registry) Index(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return indexOf(r.data.Names, strings.TrimSpace(name))
}

// Names returns a copy of the registered names in index order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.data.Names...)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// writeFileAtomic marshals d next to path and renames it into place.
func writeFileAtomic(path string, d dataset) error {
	out, err := yaml.Marshal(&d)
	if err != nil {
		return fmt.Errorf("failed to encode class registry: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".data-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp registry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write class registry: %w", err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write class registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write class registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace class registry: %w", err)
	}
	return nil
}
