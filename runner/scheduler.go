package runner

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// scheduler owns the queue of files not yet started, the set of files whose
// worker is live, and the concurrency limit. It is not safe for concurrent
// use; the pool drives it from one goroutine.
type scheduler struct {
	queue  []string
	active mapset.Set[string]
	limit  int
}

func newScheduler(files []string, limit int) *scheduler {
	if limit < 1 {
		limit = 1
	}
	queue := make([]string, len(files))
	copy(queue, files)
	return &scheduler{
		queue:  queue,
		active: mapset.NewThreadUnsafeSet[string](),
		limit:  limit,
	}
}

// next takes the first queued file if a slot is free and marks it live.
func (s *scheduler) next() (string, bool) {
	if len(s.queue) == 0 || s.active.Cardinality() >= s.limit {
		return "", false
	}
	file := s.queue[0]
	s.queue = s.queue[1:]
	s.active.Add(file)
	return file, true
}

// release frees the slot held by file. It reports false if file was not
// live.
func (s *scheduler) release(file string) bool {
	if !s.active.Contains(file) {
		return false
	}
	s.active.Remove(file)
	return true
}

func (s *scheduler) isActive(file string) bool {
	return s.active.Contains(file)
}

func (s *scheduler) live() int {
	return s.active.Cardinality()
}

func (s *scheduler) queued() int {
	return len(s.queue)
}

// done reports whether every file has been started and has closed.
func (s *scheduler) done() bool {
	return len(s.queue) == 0 && s.active.Cardinality() == 0
}
