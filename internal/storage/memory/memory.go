// Package memory keeps presets in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/xtding233/dicestats/internal/preset"
)

// Store is an in-memory preset.Store.
type Store struct {
	mu     sync.Mutex
	data   map[string][]preset.Preset
	writes int
}

func New() *Store {
	return &Store{data: make(map[string][]preset.Preset)}
}

func (s *Store) Read(ctx context.Context, key string) ([]preset.Preset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]preset.Preset{}, s.data[key]...), nil
}

func (s *Store) Write(ctx context.Context, key string, presets []preset.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]preset.Preset{}, presets...)
	s.writes++
	return nil
}

// Writes returns how many times Write succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
