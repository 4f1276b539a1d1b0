package devtools

import "sync"

const DefaultHistory = 100

// ReportStore keeps the most recent reports in a fixed-size ring.
type ReportStore struct {
	mu      sync.RWMutex
	reports []Report
	next    int
	full    bool
}

func NewReportStore(capacity int) *ReportStore {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &ReportStore{reports: make([]Report, capacity)}
}

func (s *ReportStore) Add(r Report) {
	s.mu.Lock()
	s.reports[s.next] = r
	s.next = (s.next + 1) % len(s.reports)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
}

func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.reports)
	}
	return s.next
}

// List returns up to limit reports, newest first. limit <= 0 returns all.
func (s *ReportStore) List(limit int) []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.next
	if s.full {
		n = len(s.reports)
	}
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Report, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + len(s.reports)) % len(s.reports)
		out = append(out, s.reports[idx])
	}
	return out
}

func (s *ReportStore) Latest() (Report, bool) {
	list := s.List(1)
	if len(list) == 0 {
		return Report{}, false
	}
	return list[0], true
}

func (s *ReportStore) Get(token string) (Report, bool) {
	for _, r := range s.List(0) {
		if r.Token == token {
			return r, true
		}
	}
	return Report{}, false
}
