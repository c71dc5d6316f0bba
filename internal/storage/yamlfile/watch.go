package yamlfile

import (
	"context"
	"time"
)

// Watch polls the file every interval until ctx is done and calls onChange
// once for each modification this store did not make. A save through the
// store adopts the file again, so later edits are reported afresh.
func (s *Store) Watch(ctx context.Context, interval time.Duration, onChange func(mtime time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var reported time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		mt, foreign := s.foreignModTime()
		if !foreign || mt.Equal(reported) {
			continue
		}
		reported = mt
		onChange(mt)
	}
}

// foreignModTime returns the current mtime and whether it differs from the
// one this store last saw.
func (s *Store) foreignModTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mt := modTime(s.path)
	return mt, !mt.Equal(s.known)
}
