// Package yamlfile keeps presets in a YAML document, one list per key.
package yamlfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
)

// record is the on-disk form of a preset. A nil count is an absent value.
type record struct {
	Modifier      string `yaml:"modifier"`
	RollCount     *int   `yaml:"roll_count"`
	DiceCount     *int   `yaml:"dice_count"`
	SidesPerDie   *int   `yaml:"sides_per_die"`
	HistogramView string `yaml:"histogram_view,omitempty"`
}

type document map[string][]record

func toRecord(p preset.Preset) record {
	count := func(c dice.Count) *int {
		if !c.Valid() {
			return nil
		}
		n := int(c)
		return &n
	}
	return record{
		Modifier:      string(p.Modifier),
		RollCount:     count(p.RollCount),
		DiceCount:     count(p.DiceCount),
		SidesPerDie:   count(p.SidesPerDie),
		HistogramView: string(p.HistogramView),
	}
}

func (r record) preset() (preset.Preset, error) {
	count := func(n *int) dice.Count {
		if n == nil || *n < 0 {
			return dice.Absent
		}
		return dice.Count(*n)
	}
	p := preset.Preset{
		Modifier:      dice.Modifier(r.Modifier),
		RollCount:     count(r.RollCount),
		DiceCount:     count(r.DiceCount),
		SidesPerDie:   count(r.SidesPerDie),
		HistogramView: preset.HistogramView(r.HistogramView),
	}
	return p, preset.Validate(p)
}

// Store reads and rewrites one YAML file. Writes go through a temp file and
// a rename so readers never see a partial document.
type Store struct {
	path string

	mu    sync.Mutex
	known time.Time // mtime after our last read or write
}

func New(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

func (s *Store) Read(ctx context.Context, key string) ([]preset.Preset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readYAML(s.path)
	if err != nil {
		return nil, err
	}
	s.known = modTime(s.path)
	out := make([]preset.Preset, 0, len(doc[key]))
	for i, r := range doc[key] {
		p, err := r.preset()
		if err != nil {
			return nil, fmt.Errorf("%s: %s[%d]: %w", s.path, key, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) Write(ctx context.Context, key string, presets []preset.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readYAML(s.path)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = document{}
	}
	records := make([]record, len(presets))
	for i, p := range presets {
		records[i] = toRecord(p)
	}
	doc[key] = records

	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preset dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write presets: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	s.known = modTime(s.path)
	return nil
}

// ExternallyModified reports whether the file changed since this store last
// read or wrote it. The preset list is read once per session and rewritten
// wholesale, so such edits are lost on the next save.
func (s *Store) ExternallyModified() bool {
	_, foreign := s.foreignModTime()
	return foreign
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// readYAML loads the document. A missing file is an empty document, no error.
func readYAML(path string) (document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
